// Package logger provides structured logging using logrus. Entries carry a
// component and a category so they can be filtered in Loki.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Component constants for consistent labeling
const (
	ComponentParser  = "parser"
	ComponentStream  = "stream"
	ComponentActions = "actions"
	ComponentRender  = "render"
	ComponentServer  = "server"
	ComponentConfig  = "configuration"
)

// Category constants for log classification
const (
	CategoryRequest    = "request"
	CategoryParse      = "parse"
	CategoryLifecycle  = "lifecycle"
	CategoryValidation = "validation"
	CategorySuccess    = "success"
	CategoryWarning    = "warning"
	CategoryError      = "error"
	CategoryDebug      = "debug"
)

// Options controls where and how much the logger writes
type Options struct {
	// LogDir receives tagstream.jsonl; empty means Output (or stderr)
	LogDir string
	// Level is a logrus level name such as "info" or "debug"
	Level string
	// LokiURL enables pushing every entry to Loki
	LokiURL string
	// Output overrides the destination when LogDir is empty
	Output io.Writer
}

// ObservabilityLogger wraps a logrus logger with component/category fields.
// A nil *ObservabilityLogger discards everything.
type ObservabilityLogger struct {
	logger *logrus.Logger
	file   *os.File
	loki   *LokiHook
}

// NewObservabilityLogger creates a JSON logger according to opts
func NewObservabilityLogger(opts Options) (*ObservabilityLogger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	logger.SetLevel(level)

	o := &ObservabilityLogger{logger: logger}

	switch {
	case opts.LogDir != "":
		if err := os.MkdirAll(opts.LogDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		logPath := filepath.Join(opts.LogDir, "tagstream.jsonl")
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(file)
		o.file = file
	case opts.Output != nil:
		logger.SetOutput(opts.Output)
	default:
		logger.SetOutput(os.Stderr)
	}

	if opts.LokiURL != "" {
		o.loki = NewLokiHook(opts.LokiURL)
		logger.AddHook(o.loki)
	}

	return o, nil
}

// NewDiscard returns a logger that drops every entry
func NewDiscard() *ObservabilityLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &ObservabilityLogger{logger: logger}
}

// Logrus exposes the underlying logger
func (o *ObservabilityLogger) Logrus() *logrus.Logger {
	if o == nil {
		return nil
	}
	return o.logger
}

// Close flushes pending Loki pushes and closes the log file
func (o *ObservabilityLogger) Close() error {
	if o == nil {
		return nil
	}
	if o.loki != nil {
		o.loki.Close()
	}
	if o.file != nil {
		return o.file.Close()
	}
	return nil
}

// createEntry creates a logrus entry with standard fields
func (o *ObservabilityLogger) createEntry(component, category, requestID string, fields map[string]interface{}) *logrus.Entry {
	entry := o.logger.WithFields(logrus.Fields{
		"service":   "tagstream",
		"component": component,
		"category":  category,
	})

	if requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}

	if fields != nil {
		entry = entry.WithFields(fields)
	}

	return entry
}

// Debug logs a debug message
func (o *ObservabilityLogger) Debug(component, category, requestID, message string, fields map[string]interface{}) {
	if o == nil {
		return
	}
	o.createEntry(component, category, requestID, fields).Debug(message)
}

// Info logs an info message
func (o *ObservabilityLogger) Info(component, category, requestID, message string, fields map[string]interface{}) {
	if o == nil {
		return
	}
	o.createEntry(component, category, requestID, fields).Info(message)
}

// Warn logs a warning message
func (o *ObservabilityLogger) Warn(component, category, requestID, message string, fields map[string]interface{}) {
	if o == nil {
		return
	}
	o.createEntry(component, category, requestID, fields).Warn(message)
}

// Error logs an error message
func (o *ObservabilityLogger) Error(component, category, requestID, message string, fields map[string]interface{}) {
	if o == nil {
		return
	}
	o.createEntry(component, category, requestID, fields).Error(message)
}

// Request logs request-related events
func (o *ObservabilityLogger) Request(requestID, message string, fields map[string]interface{}) {
	o.Info(ComponentServer, CategoryRequest, requestID, message, fields)
}

// TagLifecycle logs a tag whose state is not finished
func (o *ObservabilityLogger) TagLifecycle(requestID, tag, state string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["tag"] = tag
	fields["state"] = state
	o.Debug(ComponentStream, CategoryLifecycle, requestID, "Tag not finished", fields)
}

// ActionSkipped logs a tag the executor refuses to act on
func (o *ObservabilityLogger) ActionSkipped(requestID, tag, reason string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["tag"] = tag
	fields["reason"] = reason
	o.Warn(ComponentActions, CategoryValidation, requestID, "Skipping action", fields)
}
