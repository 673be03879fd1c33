package log

import (
	"log"
	"strings"
)

// stdWriter adapts a Logger to an io.Writer suitable for log.SetOutput,
// emitting each write as a single Info entry with trailing newlines trimmed.
type stdWriter struct{ l Logger }

func (w stdWriter) Write(p []byte) (int, error) {
	w.l.Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// ToStdLogger adapts a Logger to a *log.Logger for libraries that accept one.
func ToStdLogger(l Logger) *log.Logger {
	return log.New(stdWriter{l: l}, "", 0)
}

// RedirectStdLog points the standard library's global logger (used by
// libraries such as Pebble) at l. It returns a restore func.
func RedirectStdLog(l Logger) func() {
	prevOut := log.Writer()
	prevFlags := log.Flags()
	log.SetFlags(0)
	log.SetOutput(stdWriter{l: l})
	return func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	}
}
