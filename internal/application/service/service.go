// Package service holds the read-side and reference-data use cases that sit
// beside the acquisition workflow.
package service

import "errors"

// ErrInvalidInput is wrapped by validation failures outside the workflow
var ErrInvalidInput = errors.New("invalid input")

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func loggerOrNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}
