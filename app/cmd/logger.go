package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Logger adapts logrus to the key/value logging interface of the library packages.
type Logger struct {
	entry *logrus.Entry
}

// NewLogger returns a Logger writing through entry.
func NewLogger(entry *logrus.Entry) *Logger {
	return &Logger{entry: entry}
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.withFields(keysAndValues).Debug(msg)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.withFields(keysAndValues).Info(msg)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.withFields(keysAndValues).Error(msg)
}

func (l *Logger) withFields(keysAndValues []interface{}) *logrus.Entry {
	fields := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields[key] = "(missing)"
			break
		}
		fields[key] = keysAndValues[i+1]
	}
	return l.entry.WithFields(fields)
}
