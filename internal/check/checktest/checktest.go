// Package checktest lets tests observe failed checks without terminating
// the test binary.
package checktest

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/funvibe/xcvm/internal/check"
)

// Capture runs fn with the check logger redirected to a buffer and an
// ExitFunc that returns. It returns the failure fn raised, if any, and
// everything written to the check log.
func Capture(fn func()) (f *check.Failure, output string) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&check.Formatter{})
	l.ExitFunc = func(int) {}
	restore := check.SetLogger(l)
	defer restore()

	func() {
		defer func() {
			if r := recover(); r != nil {
				var ok bool
				if f, ok = r.(*check.Failure); !ok {
					panic(r)
				}
			}
		}()
		fn()
	}()
	return f, buf.String()
}

// Expect runs fn and returns the check it failed. The test fails if fn
// completes normally.
func Expect(t testing.TB, fn func()) *check.Failure {
	t.Helper()
	f, _ := Capture(fn)
	if f == nil {
		t.Fatalf("expected a failed check, but none occurred")
	}
	return f
}

// NoFailure fails the test if fn fails a check.
func NoFailure(t testing.TB, fn func()) {
	t.Helper()
	if f, _ := Capture(fn); f != nil {
		t.Fatalf("unexpected failed check: %s", f.Error())
	}
}
