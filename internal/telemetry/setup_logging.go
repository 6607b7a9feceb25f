// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package telemetry sets up logging, tracing and metrics for the binaries.
// Logs are JSON in the Cloud Logging structured format and carry the trace
// and span of the active OpenTelemetry span, so they correlate with Cloud Trace.
package telemetry

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/gcp-go-vidsynth/internal/cloud"
)

// spanContextLogHandler adds the trace fields Cloud Logging uses for
// correlation whenever the record's context carries a valid span.
type spanContextLogHandler struct {
	slog.Handler
}

func handlerWithSpanContext(handler slog.Handler) *spanContextLogHandler {
	return &spanContextLogHandler{Handler: handler}
}

// Handle injects the trace id, span id and sampled flag before delegating.
// See: https://cloud.google.com/logging/docs/structured-logging#special-payload-fields
func (t *spanContextLogHandler) Handle(ctx context.Context, record slog.Record) error {
	if s := trace.SpanContextFromContext(ctx); s.IsValid() {
		record.AddAttrs(
			slog.Any("logging.googleapis.com/trace", s.TraceID()),
			slog.Any("logging.googleapis.com/spanId", s.SpanID()),
			slog.Bool("logging.googleapis.com/trace_sampled", s.TraceFlags().IsSampled()),
		)
	}
	return t.Handler.Handle(ctx, record)
}

func (t *spanContextLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return handlerWithSpanContext(t.Handler.WithAttrs(attrs))
}

func (t *spanContextLogHandler) WithGroup(name string) slog.Handler {
	return handlerWithSpanContext(t.Handler.WithGroup(name))
}

// replacer renames slog's level, time and message keys to the ones Cloud
// Logging expects and maps WARN to the WARNING severity.
// https://cloud.google.com/logging/docs/reference/v2/rest/v2/LogEntry#LogSeverity
func replacer(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.LevelKey:
		a.Key = "severity"
		if level, ok := a.Value.Any().(slog.Level); ok && level == slog.LevelWarn {
			a.Value = slog.StringValue("WARNING")
		}
	case slog.TimeKey:
		a.Key = "timestamp"
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

// NewHandler builds the structured handler used by SetupLogging. Records are
// written as JSON to w and also forwarded to the global OpenTelemetry logger
// provider under the given instrumentation scope.
func NewHandler(w io.Writer, level slog.Level, scope string) slog.Handler {
	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level, ReplaceAttr: replacer})
	return handlerWithSpanContext(slogmulti.Fanout(jsonHandler, otelslog.NewHandler(scope)))
}

// SetupLogging installs the default slog logger and points the standard log
// package at the same output. Output goes to stdout and, when
// [application].log_file is set, to that file as well.
//
// Inputs:
//   - config: The application configuration.
//
// Outputs:
//   - func() error: Closes the log file, if one was opened.
//   - error: When the log file cannot be opened.
func SetupLogging(config *cloud.Config) (func() error, error) {
	closer := func() error { return nil }
	var out io.Writer = os.Stdout
	if config.Application.LogFile != "" {
		file, err := os.OpenFile(config.Application.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return closer, err
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = file.Close
	}

	log.SetOutput(out)
	log.SetPrefix("[INFO] ")
	log.SetFlags(log.Ldate | log.Ltime)

	slog.SetDefault(slog.New(NewHandler(out, slog.LevelInfo, config.Application.Name)))
	return closer, nil
}
