package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Logger provides leveled logging throughout the pipeline. Debug lines are
// dropped unless debug output was enabled.
type Logger struct {
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
	debug *log.Logger

	debugEnabled bool
}

// NewLogger creates a new Logger writing to stdout/stderr.
func NewLogger() *Logger {
	return NewLoggerWriter(os.Stdout, os.Stderr)
}

// NewLoggerWriter creates a Logger writing info/warn/debug to out and errors to errOut.
func NewLoggerWriter(out, errOut io.Writer) *Logger {
	flags := 0
	return &Logger{
		info:  log.New(out, "", flags),
		warn:  log.New(out, "", flags),
		err:   log.New(errOut, "", flags),
		debug: log.New(out, "", flags),
	}
}

// NewDiscardLogger returns a Logger that writes nothing. Used by tests.
func NewDiscardLogger() *Logger {
	return NewLoggerWriter(io.Discard, io.Discard)
}

// SetDebug toggles debug output.
func (l *Logger) SetDebug(enabled bool) {
	l.debugEnabled = enabled
}

// SetLevel enables debug output when level is "debug".
func (l *Logger) SetLevel(level string) {
	l.debugEnabled = strings.EqualFold(strings.TrimSpace(level), "debug")
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) Info(format string, args ...any) {
	l.info.Printf(fmt.Sprintf("[%s] \033[32mINFO\033[0m  %s\n", l.timestamp(), format), args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.warn.Printf(fmt.Sprintf("[%s] \033[33mWARN\033[0m  %s\n", l.timestamp(), format), args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.err.Printf(fmt.Sprintf("[%s] \033[31mERROR\033[0m %s\n", l.timestamp(), format), args...)
}

func (l *Logger) Debug(format string, args ...any) {
	if !l.debugEnabled {
		return
	}
	l.debug.Printf(fmt.Sprintf("[%s] \033[36mDEBUG\033[0m %s\n", l.timestamp(), format), args...)
}

// Section prints a banner separating the stages of a run.
func (l *Logger) Section(title string) {
	l.info.Printf("\n\033[36m[%s] ══════════ %s ══════════\033[0m\n\n", l.timestamp(), title)
}
