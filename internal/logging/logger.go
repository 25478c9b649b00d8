package logging

import (
	"log"
)

// Logger interface for service logging
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// DefaultLogger provides a basic implementation of the Logger interface
type DefaultLogger struct {
	// Verbose enables Debug output
	Verbose bool
}

func (l *DefaultLogger) Debug(msg string, keysAndValues ...interface{}) {
	if !l.Verbose {
		return
	}
	log.Printf("[DEBUG] %s %v", msg, keysAndValues)
}

func (l *DefaultLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Printf("[INFO] %s %v", msg, keysAndValues)
}

func (l *DefaultLogger) Error(msg string, keysAndValues ...interface{}) {
	log.Printf("[ERROR] %s %v", msg, keysAndValues)
}

// NopLogger discards everything. Used in tests and by the CLI in quiet mode.
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}

// OrDefault returns l, or a DefaultLogger when l is nil
func OrDefault(l Logger) Logger {
	if l == nil {
		return &DefaultLogger{}
	}
	return l
}
