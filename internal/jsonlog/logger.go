package jsonlog

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log entry.
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
	LevelFatal
	LevelOff
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	case LevelOff:
		return "OFF"
	default:
		return ""
	}
}

// ParseLevel parses a level name, case-insensitive. Empty means INFO.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug, nil
	case "", "INFO":
		return LevelInfo, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	case "OFF":
		return LevelOff, nil
	default:
		return LevelInfo, errors.New("invalid log level (allowed: DEBUG, INFO, ERROR, FATAL, OFF)")
	}
}

// Fields attaches structured context to one entry.
type Fields map[string]string

// Logger writes one JSON object per line.
type Logger struct {
	out      io.Writer
	minLevel Level
	mu       sync.Mutex
}

func New(out io.Writer, minLevel Level) *Logger {
	return &Logger{out: out, minLevel: minLevel}
}

func (l *Logger) Debug(message string, fields Fields) {
	l.print(LevelDebug, message, fields, false)
}

func (l *Logger) Info(message string, fields Fields) {
	l.print(LevelInfo, message, fields, false)
}

func (l *Logger) Error(err error, fields Fields) {
	if err == nil {
		return
	}
	l.print(LevelError, err.Error(), fields, false)
}

// Fatal logs with a stack trace and exits the process.
func (l *Logger) Fatal(err error, fields Fields) {
	if err != nil {
		l.print(LevelFatal, err.Error(), fields, true)
	}
	os.Exit(1)
}

// ErrorWithTrace is for panics and other unexpected states where the
// stack matters.
func (l *Logger) ErrorWithTrace(err error, fields Fields) {
	if err == nil {
		return
	}
	l.print(LevelError, err.Error(), fields, true)
}

type entry struct {
	Level   string `json:"level"`
	Time    string `json:"time"`
	Message string `json:"message"`
	Fields  Fields `json:"fields,omitempty"`
	Trace   string `json:"trace,omitempty"`
}

func (l *Logger) print(level Level, message string, fields Fields, withTrace bool) {
	if level < l.minLevel || l.minLevel == LevelOff {
		return
	}

	e := entry{
		Level:   level.String(),
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Message: message,
		Fields:  fields,
	}
	if withTrace {
		e.Trace = string(debug.Stack())
	}

	line, err := json.Marshal(e)
	if err != nil {
		line = []byte(LevelError.String() + ": unable to marshal log entry: " + err.Error())
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(append(line, '\n'))
}

// Write lets the logger stand in for anything expecting an io.Writer,
// e.g. http.Server.ErrorLog.
func (l *Logger) Write(p []byte) (int, error) {
	l.print(LevelError, strings.TrimSpace(string(p)), nil, false)
	return len(p), nil
}
