package check

import (
	"cmp"
	"fmt"
)

// compareFailed is called directly from the comparison entry points so
// newSink can find the checking code three frames up.
func compareFailed(a, b interface{}, op string, ctx []func(*Sink)) {
	s := newSink(fmt.Sprintf("Check `%v' %s `%v' failed!", a, op, b), 3)
	s.Addf("(%v vs %v)", a, b)
	s.stream(ctx)
	s.Abort()
}

func EQ[T comparable](a, b T, ctx ...func(*Sink)) {
	if a != b {
		compareFailed(a, b, "==", ctx)
	}
}

func NE[T comparable](a, b T, ctx ...func(*Sink)) {
	if a == b {
		compareFailed(a, b, "!=", ctx)
	}
}

func LT[T cmp.Ordered](a, b T, ctx ...func(*Sink)) {
	if !(a < b) {
		compareFailed(a, b, "<", ctx)
	}
}

func LE[T cmp.Ordered](a, b T, ctx ...func(*Sink)) {
	if !(a <= b) {
		compareFailed(a, b, "<=", ctx)
	}
}

func GT[T cmp.Ordered](a, b T, ctx ...func(*Sink)) {
	if !(a > b) {
		compareFailed(a, b, ">", ctx)
	}
}

func GE[T cmp.Ordered](a, b T, ctx ...func(*Sink)) {
	if !(a >= b) {
		compareFailed(a, b, ">=", ctx)
	}
}
