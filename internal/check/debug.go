//go:build !release

package check

import "cmp"

// Debug reports whether debug-tier checks are compiled in. Build with
// -tags release to turn them into no-ops.
const Debug = true

// DTrue is True for checks too expensive for release builds. cond is a
// thunk so release builds never evaluate it.
func DTrue(cond func() bool, text string, ctx ...func(*Sink)) {
	if cond() {
		return
	}
	fail(failedText(text), ctx)
}

func DEQ[T comparable](a, b func() T, ctx ...func(*Sink)) {
	if x, y := a(), b(); x != y {
		compareFailed(x, y, "==", ctx)
	}
}

func DNE[T comparable](a, b func() T, ctx ...func(*Sink)) {
	if x, y := a(), b(); x == y {
		compareFailed(x, y, "!=", ctx)
	}
}

func DLT[T cmp.Ordered](a, b func() T, ctx ...func(*Sink)) {
	if x, y := a(), b(); !(x < y) {
		compareFailed(x, y, "<", ctx)
	}
}

func DLE[T cmp.Ordered](a, b func() T, ctx ...func(*Sink)) {
	if x, y := a(), b(); !(x <= y) {
		compareFailed(x, y, "<=", ctx)
	}
}

func DGT[T cmp.Ordered](a, b func() T, ctx ...func(*Sink)) {
	if x, y := a(), b(); !(x > y) {
		compareFailed(x, y, ">", ctx)
	}
}

func DGE[T cmp.Ordered](a, b func() T, ctx ...func(*Sink)) {
	if x, y := a(), b(); !(x >= y) {
		compareFailed(x, y, ">=", ctx)
	}
}
