// SPDX-FileCopyrightText: © 2021 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Logger is a middleware that logs requests with the given logger.
// Extraction requests log their source, and their responses the
// document's base URL.
func Logger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return middleware.RequestLogger(&httpLogger{logger})
}

type httpLogger struct {
	logger *slog.Logger
}

func (sl *httpLogger) NewLogEntry(r *http.Request) middleware.LogEntry {
	entry := &httpEntry{
		logger: sl.logger,
		attrs: []slog.Attr{
			slog.String("@id", GetReqID(r)),
			slog.Group("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
			),
		},
	}

	if strings.HasPrefix(r.URL.Path, "/api/extract") {
		entry.extract = true
		entry.attrs = append(entry.attrs, extractAttrs(r))
	}

	sl.logger.LogAttrs(context.TODO(), slog.LevelDebug, "http "+r.Method, entry.attrs...)
	return entry
}

// extractAttrs returns the source of an extraction request.
func extractAttrs(r *http.Request) slog.Attr {
	if r.Method == http.MethodPost {
		return slog.Group("extract",
			slog.String("source", "body"),
			slog.String("content_type", r.Header.Get("Content-Type")),
			slog.Int64("content_length", r.ContentLength),
		)
	}

	q := r.URL.Query()
	attrs := []any{slog.String("source", q.Get("url"))}
	if t := q.Get("type"); t != "" {
		attrs = append(attrs, slog.String("type", t))
	}
	return slog.Group("extract", attrs...)
}

type httpEntry struct {
	logger  *slog.Logger
	attrs   []slog.Attr
	extract bool
}

func (e *httpEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, _ any) {
	response := []any{
		slog.Int("status", status),
		slog.Int("length", bytes),
		slog.Float64("elapsed_ms", float64(elapsed.Nanoseconds())/1000000.0),
	}
	if e.extract && status == http.StatusOK {
		response = append(response,
			slog.String("content_type", header.Get("Content-Type")),
			slog.String("base_url", header.Get("X-Base-Url")),
		)
	}

	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelWarn
	}

	e.logger.LogAttrs(context.TODO(), level,
		"http "+strconv.Itoa(status)+" "+http.StatusText(status),
		append(e.attrs, slog.Group("response", response...))...,
	)
}

func (e *httpEntry) Panic(v any, stack []byte) {
	e.logger.LogAttrs(context.TODO(), slog.LevelError, "panic",
		append(e.attrs,
			slog.Any("err", v),
			slog.String("stack", string(stack)),
		)...,
	)
}
