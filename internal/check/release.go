//go:build release

package check

import "cmp"

const Debug = false

func DTrue(cond func() bool, text string, ctx ...func(*Sink)) {}

func DEQ[T comparable](a, b func() T, ctx ...func(*Sink)) {}

func DNE[T comparable](a, b func() T, ctx ...func(*Sink)) {}

func DLT[T cmp.Ordered](a, b func() T, ctx ...func(*Sink)) {}

func DLE[T cmp.Ordered](a, b func() T, ctx ...func(*Sink)) {}

func DGT[T cmp.Ordered](a, b func() T, ctx ...func(*Sink)) {}

func DGE[T cmp.Ordered](a, b func() T, ctx ...func(*Sink)) {}
