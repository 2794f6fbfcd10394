// Package logging provides the Logger interface threaded through every
// inmpx component, in place of ambient use of the standard log package.
package logging

import (
	"io"
	"log"
	"os"
)

const (
	LevelSilent = iota
	LevelError
	LevelInfo
	LevelDebug
)

var _ Logger = (*basicLogger)(nil)

// Logger is implemented by basicLogger and satisfied by anything that
// wants to stand in for it in tests.
type Logger interface {
	Debug(v ...interface{})
	Debugf(f string, v ...interface{})
	Info(v ...interface{})
	Infof(f string, v ...interface{})
	Error(v ...interface{})
	Errorf(f string, v ...interface{})
}

type basicLogger struct {
	debug *log.Logger
	info  *log.Logger
	err   *log.Logger
}

// New builds a Logger writing to stderr, with verbosity gated by level
// and every line tagged with prepend (typically "controller: " or
// "controlled: ").
func New(level int, prepend string) *basicLogger {
	output := os.Stderr

	logErr, logInfo, logDebug := func() (io.Writer, io.Writer, io.Writer) {
		if level >= LevelDebug {
			return output, output, output
		}
		if level >= LevelInfo {
			return output, output, io.Discard
		}
		if level >= LevelError {
			return output, io.Discard, io.Discard
		}
		return io.Discard, io.Discard, io.Discard
	}()

	return &basicLogger{
		debug: log.New(logDebug, "DEBUG: "+prepend, log.Ldate|log.Ltime),
		info:  log.New(logInfo, "INFO: "+prepend, log.Ldate|log.Ltime),
		err:   log.New(logErr, "ERROR: "+prepend, log.Ldate|log.Ltime),
	}
}

func (l *basicLogger) Debug(v ...interface{})            { l.debug.Println(v...) }
func (l *basicLogger) Debugf(f string, v ...interface{}) { l.debug.Printf(f, v...) }
func (l *basicLogger) Info(v ...interface{})             { l.info.Println(v...) }
func (l *basicLogger) Infof(f string, v ...interface{})  { l.info.Printf(f, v...) }
func (l *basicLogger) Error(v ...interface{})            { l.err.Println(v...) }
func (l *basicLogger) Errorf(f string, v ...interface{}) { l.err.Printf(f, v...) }
