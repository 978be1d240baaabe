package check

import (
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

var logger = newLogger()

// Chk exposes testify's assertion vocabulary with fatal semantics, for
// invariants that read better as assertions than as conditions.
var Chk = assert.New(reporter{})

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&Formatter{})
	return l
}

// Logger returns the logger failed checks are written to.
func Logger() *logrus.Logger {
	return logger
}

// SetLogger replaces the check logger and returns a func restoring the
// previous one. Not safe for concurrent use.
func SetLogger(l *logrus.Logger) (restore func()) {
	prev := logger
	logger = l
	return func() { logger = prev }
}

// Formatter writes the bare diagnostic line. Fields stay on the entry for
// hooks and alternative formatters.
type Formatter struct{}

func (Formatter) Format(e *logrus.Entry) ([]byte, error) {
	return append([]byte(e.Message), '\n'), nil
}

// reporter adapts testify failures to the check diagnostic.
type reporter struct{}

func (reporter) Errorf(format string, args ...interface{}) {
	s := &Sink{f: Failure{Message: failedText("assertion")}}
	s.f.Func, s.f.File, s.f.Line = externalCaller()
	s.Addf(format, args...)
	s.Abort()
}

// externalCaller finds the first frame outside testify and this package.
func externalCaller() (fn, file string, line int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		fr, more := frames.Next()
		if !strings.Contains(fr.Function, "github.com/stretchr/testify/") &&
			!strings.HasPrefix(fr.Function, pkgPath+".") {
			return shortFuncName(fr.Function), fr.File, fr.Line
		}
		if !more {
			return "", "", 0
		}
	}
}
