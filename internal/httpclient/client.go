// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package httpclient provides the client used to fetch remote documents.
// Its [Transport] adds browser like default headers and logs every request.
package httpclient

import (
	"context"
	"crypto/tls"
	"log/slog"
	"maps"
	"net"
	"net/http"
	"net/textproto"
	"time"
)

// DefaultUserAgent is the default User-Agent header value.
const DefaultUserAgent = "Mozilla/5.0 (compatible; microdata/1.0; +https://codeberg.org/readeck/microdata)"

var defaultDialer = net.Dialer{
	Timeout:   15 * time.Second,
	KeepAlive: 30 * time.Second,
}

var defaultTransport = &http.Transport{
	DialContext: defaultDialer.DialContext,
	Proxy:       http.ProxyFromEnvironment,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          50,
	MaxIdleConnsPerHost:   2,
	IdleConnTimeout:       30 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// defaultHeaders are sent with every request, unless the request
// already carries them.
var defaultHeaders = http.Header{
	"User-Agent":      []string{DefaultUserAgent},
	"Accept":          []string{"text/html,application/xhtml+xml;q=0.9,text/plain;q=0.8,*/*;q=0.5"},
	"Accept-Language": []string{"en-US,en;q=0.8"},
}

// Option is a client option.
type Option func(c *http.Client, t *Transport)

// WithTimeout sets the client's timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *http.Client, _ *Transport) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

// WithUserAgent sets the default User-Agent header.
func WithUserAgent(ua string) Option {
	return func(_ *http.Client, t *Transport) {
		if ua != "" {
			t.header.Set("User-Agent", ua)
		}
	}
}

// WithLogger sets the transport's logger.
func WithLogger(l *slog.Logger) Option {
	return func(_ *http.Client, t *Transport) {
		if l != nil {
			t.logger = l
		}
	}
}

// Transport wraps an [http.RoundTripper].
type Transport struct {
	http.RoundTripper
	header http.Header
	logger *slog.Logger
}

// RoundTrip implements [http.RoundTripper].
// It adds the default headers and logs (debug level) every request.
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	// A RoundTripper must not modify the request.
	req := new(http.Request)
	*req = *r
	req.Header = req.Header.Clone()
	if req.Header == nil {
		req.Header = http.Header{}
	}

	for k, values := range t.header {
		if _, ok := r.Header[textproto.CanonicalMIMEHeaderKey(k)]; !ok {
			req.Header[k] = values
		}
	}

	attrs := []slog.Attr{
		slog.Group("request",
			slog.String("url", req.URL.String()),
			slog.String("method", req.Method),
		),
	}

	now := time.Now()
	rsp, err := t.RoundTripper.RoundTrip(req)

	if err != nil {
		attrs = append(attrs, slog.Group("response",
			slog.Any("err", err),
		))
	} else {
		attrs = append(attrs, slog.Group("response",
			slog.Int("status", rsp.StatusCode),
			slog.String("content-type", rsp.Header.Get("Content-Type")),
		))
	}
	attrs = append(attrs, slog.Duration("time", time.Since(now)))
	t.Log().LogAttrs(context.Background(), slog.LevelDebug, "http request", attrs...)

	return rsp, err
}

// Log returns the transport's logger.
func (t *Transport) Log() *slog.Logger {
	return t.logger
}

// SetHeader receives a function that can manipulate the
// transport's default headers.
func (t *Transport) SetHeader(fn func(h http.Header)) {
	fn(t.header)
}

// New returns a new client with a [Transport] instance.
func New(options ...Option) *http.Client {
	t := &Transport{
		RoundTripper: defaultTransport.Clone(),
		header:       maps.Clone(defaultHeaders),
		logger:       slog.Default(),
	}
	c := &http.Client{
		Transport: t,
		Timeout:   20 * time.Second,
	}

	for _, o := range options {
		o(c, t)
	}

	return c
}
