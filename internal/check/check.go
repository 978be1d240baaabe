// Package check implements fail-fast invariant checks for the runtime.
//
// A failed check is a programming error, never an input error: the
// diagnostic is written to the check logger in a fixed format
//
//	Check `<condition>' failed! in <func> at <file>:<line>: <context>
//
// and the process terminates. Context is only rendered on failure.
package check

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

var pkgPath = reflect.TypeOf(Failure{}).PkgPath()

// Failure describes a failed check. Abort panics with a *Failure when the
// logger's ExitFunc returns, which only happens under checktest.
type Failure struct {
	Message string
	Func    string
	File    string
	Line    int
	Context string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s in %s at %s:%d: %s", f.Message, f.Func, f.File, f.Line, f.Context)
}

// Sink accumulates context for a failed check.
type Sink struct {
	f   Failure
	ctx strings.Builder
}

// Add appends each argument to the context with no separator.
func (s *Sink) Add(args ...interface{}) *Sink {
	for _, a := range args {
		fmt.Fprint(&s.ctx, a)
	}
	return s
}

// Addf appends formatted text to the context.
func (s *Sink) Addf(format string, args ...interface{}) *Sink {
	fmt.Fprintf(&s.ctx, format, args...)
	return s
}

// Abort emits the diagnostic and terminates the process. It never returns.
func (s *Sink) Abort() {
	f := s.f
	f.Context = s.ctx.String()
	logger.WithFields(logrus.Fields{
		"func": f.Func,
		"file": f.File,
		"line": f.Line,
	}).Fatal(f.Error())
	panic(&f)
}

func (s *Sink) stream(ctx []func(*Sink)) {
	for _, fn := range ctx {
		fn(s)
	}
}

// newSink records the frame skip levels above it (0 is newSink itself).
func newSink(msg string, skip int) *Sink {
	s := &Sink{f: Failure{Message: msg}}
	if pc, file, line, ok := runtime.Caller(skip); ok {
		s.f.File = file
		s.f.Line = line
		if fn := runtime.FuncForPC(pc); fn != nil {
			s.f.Func = shortFuncName(fn.Name())
		}
	}
	return s
}

func shortFuncName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func failedText(text string) string {
	return "Check `" + text + "' failed!"
}

// fail is shared by the exported entry points, which all sit exactly one
// frame between fail and the checking code.
func fail(msg string, ctx []func(*Sink)) {
	s := newSink(msg, 3)
	s.stream(ctx)
	s.Abort()
}

// True terminates the process unless ok holds. text is the condition as
// written at the call site; ctx closures run only on failure.
func True(ok bool, text string, ctx ...func(*Sink)) {
	if ok {
		return
	}
	fail(failedText(text), ctx)
}

// Fail starts a failed check for explicit use:
//
//	if !cond {
//		check.Fail("cond").Add(x).Abort()
//	}
func Fail(text string) *Sink {
	return newSink(failedText(text), 2)
}

// Unreachable marks a branch that exhaustive switches must never take.
func Unreachable(ctx ...func(*Sink)) {
	fail(failedText("false"), ctx)
}
