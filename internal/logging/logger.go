package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// Level represents log level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a log level string
func ParseLevel(level string) (Level, bool) {
	switch level {
	case "DEBUG", "debug":
		return DEBUG, true
	case "INFO", "info":
		return INFO, true
	case "WARN", "warn", "WARNING", "warning":
		return WARN, true
	case "ERROR", "error":
		return ERROR, true
	default:
		return INFO, false
	}
}

var levelColors = map[Level]*color.Color{
	DEBUG: color.New(color.FgCyan),
	INFO:  color.New(color.FgGreen),
	WARN:  color.New(color.FgYellow, color.Bold),
	ERROR: color.New(color.FgRed, color.Bold),
}

// Logger writes timestamped, level-colored messages for the operator console.
type Logger struct {
	level  Level
	output io.Writer
}

// New creates a console logger writing to stderr
func New(level Level) *Logger {
	return &Logger{level: level, output: os.Stderr}
}

// SetOutput sets the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	tag := levelColors[level].Sprintf("%-5s", level.String())
	fmt.Fprintf(l.output, "[%s] %s %s\n", timestamp, tag, fmt.Sprintf(format, args...))
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}
