// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package observability provides structured logging and run metrics.
package observability

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// Logger is the structured logger interface.
// Components receive one in their constructor; there is no package-level logger.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field represents a log field.
type Field struct {
	Key   string
	Value any
}

// Log formats accepted by NewLogger.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// logger is the default implementation on top of log/slog.
type logger struct {
	sl *slog.Logger
}

// NewLogger creates a logger writing to w at the given level
// ("debug", "info", "warn", "error") in the given format ("text" or "json").
// Unknown levels fall back to info, unknown formats to text.
func NewLogger(w io.Writer, level, format string) Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var h slog.Handler
	if strings.EqualFold(format, FormatJSON) {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return &logger{sl: slog.New(h)}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return &logger{sl: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *logger) Debug(msg string, fields ...Field) {
	l.sl.Debug(msg, attrs(fields)...)
}

func (l *logger) Info(msg string, fields ...Field) {
	l.sl.Info(msg, attrs(fields)...)
}

func (l *logger) Warn(msg string, fields ...Field) {
	l.sl.Warn(msg, attrs(fields)...)
}

func (l *logger) Error(msg string, fields ...Field) {
	l.sl.Error(msg, attrs(fields)...)
}

func (l *logger) With(fields ...Field) Logger {
	return &logger{sl: l.sl.With(attrs(fields)...)}
}

func attrs(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			out = append(out, slog.String(f.Key, err.Error()))
			continue
		}
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field.
func Duration(key string, d time.Duration) Field {
	return Field{Key: key, Value: d}
}

// Strings creates a string slice field.
func Strings(key string, values []string) Field {
	return Field{Key: key, Value: values}
}

// Err creates an error field.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}
