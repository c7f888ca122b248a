// Copyright The Notary Project Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log provides the logging interface used by the cms-go packages.
//
// Operations that take a context.Context log through the Logger stored in
// the context by WithLogger. Without one nothing is logged. Loggers such as
// github.com/uber-go/zap.SugaredLogger and github.com/sirupsen/logrus.Logger
// satisfy Logger.
package log

import "context"

type contextKey int

// loggerKey is the associated key type for logger entry in context.
const loggerKey contextKey = iota

// Discard is a Logger that logs nothing.
var Discard Logger = discardLogger{}

// Logger is a leveled logger.
type Logger interface {
	// Debug logs a debug level message.
	Debug(args ...any)

	// Debugf logs a debug level message with format.
	Debugf(format string, args ...any)

	// Debugln logs a debug level message. Spaces are always added between
	// operands.
	Debugln(args ...any)

	// Info logs an info level message.
	Info(args ...any)

	// Infof logs an info level message with format.
	Infof(format string, args ...any)

	// Infoln logs an info level message. Spaces are always added between
	// operands.
	Infoln(args ...any)

	// Warn logs a warn level message.
	Warn(args ...any)

	// Warnf logs a warn level message with format.
	Warnf(format string, args ...any)

	// Warnln logs a warn level message. Spaces are always added between
	// operands.
	Warnln(args ...any)

	// Error logs an error level message.
	Error(args ...any)

	// Errorf logs an error level message with format.
	Errorf(format string, args ...any)

	// Errorln logs an error level message. Spaces are always added between
	// operands.
	Errorln(args ...any)
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLogger returns the Logger carried by ctx, or Discard.
func GetLogger(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey).(Logger); ok {
		return logger
	}
	return Discard
}

type discardLogger struct{}

func (discardLogger) Debug(...any)          {}
func (discardLogger) Debugf(string, ...any) {}
func (discardLogger) Debugln(...any)        {}
func (discardLogger) Info(...any)           {}
func (discardLogger) Infof(string, ...any)  {}
func (discardLogger) Infoln(...any)         {}
func (discardLogger) Warn(...any)           {}
func (discardLogger) Warnf(string, ...any)  {}
func (discardLogger) Warnln(...any)         {}
func (discardLogger) Error(...any)          {}
func (discardLogger) Errorf(string, ...any) {}
func (discardLogger) Errorln(...any)        {}
