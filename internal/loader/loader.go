// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package loader reads HTML documents from files, the standard input
// or remote URLs.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
)

var (
	// ErrNotHTML is returned when a document is not a text document.
	ErrNotHTML = errors.New("not an HTML document")
	// ErrStatus is returned when a remote document response is not a success.
	ErrStatus = errors.New("invalid response status")
	// ErrCharset is returned for an unknown charset label.
	ErrCharset = errors.New("unknown charset")
	// ErrTooLarge is returned when a document exceeds [Options.MaxBody].
	ErrTooLarge = errors.New("document too large")
)

// Stdin is the source name for the standard input.
const Stdin = "-"

// A leading "<!-- URI: ... -->" comment gives a document its base URL.
var uriCommentSelector = xpath.MustCompile(
	"//comment()[starts-with(normalize-space(.), 'URI:')]",
)

// Error is a loading error with an HTTP status code.
type Error struct {
	Err    error
	Status int
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the error's HTTP status code.
func (e *Error) StatusCode() int {
	return e.Status
}

// Options are the loading options.
type Options struct {
	// BaseURL overrides any other base URL.
	BaseURL string
	// Charset forces the document's charset. When empty, the charset
	// is detected from the content-type and the document itself.
	Charset string
	// MaxBody is the maximum document size. Loading a larger document
	// fails with [ErrTooLarge]. 0 means no limit.
	MaxBody int64
	// Stdin replaces [os.Stdin] when not nil.
	Stdin io.Reader
}

// Document is a loaded HTML document.
type Document struct {
	Source      string
	Root        *html.Node
	BaseURL     string
	ContentType string
}

// IsRemote returns true when source is an http(s) URL.
func IsRemote(source string) bool {
	s := strings.ToLower(source)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Load loads a document from source. A source is either [Stdin],
// an http(s) URL or a file path.
func Load(ctx context.Context, client *http.Client, source string, opts Options) (*Document, error) {
	switch {
	case source == Stdin:
		r := opts.Stdin
		if r == nil {
			r = os.Stdin
		}
		return read(source, r, "", "", opts)
	case IsRemote(source):
		return fetch(ctx, client, source, opts)
	}

	fd, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer fd.Close() //nolint:errcheck

	return read(source, fd, "", "", opts)
}

// Read loads a document from a reader. contentType, when not empty,
// is used to detect the document's charset.
func Read(r io.Reader, contentType string, opts Options) (*Document, error) {
	return read("", r, "", contentType, opts)
}

func fetch(ctx context.Context, client *http.Client, source string, opts Options) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}

	rsp, err := client.Do(req)
	if err != nil {
		return nil, &Error{Err: err, Status: http.StatusBadGateway}
	}
	defer rsp.Body.Close() //nolint:errcheck

	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		return nil, &Error{
			Err:    fmt.Errorf("%w: %d", ErrStatus, rsp.StatusCode),
			Status: http.StatusBadGateway,
		}
	}

	baseURL := source
	if rsp.Request != nil && rsp.Request.URL != nil {
		baseURL = rsp.Request.URL.String()
	}

	return read(source, rsp.Body, baseURL, rsp.Header.Get("Content-Type"), opts)
}

func read(source string, r io.Reader, baseURL, contentType string, opts Options) (*Document, error) {
	if opts.MaxBody > 0 {
		r = http.MaxBytesReader(nil, io.NopCloser(r), opts.MaxBody)
	}

	// Sniffing consumes the first bytes, they're put back
	// in front of the reader.
	buf := new(bytes.Buffer)
	mtype, err := mimetype.DetectReader(io.TeeReader(r, buf))
	if err != nil {
		return nil, sizeError(source, err)
	}
	if !isText(mtype) {
		return nil, &Error{
			Err:    fmt.Errorf("%w (%s)", ErrNotHTML, mtype.String()),
			Status: http.StatusUnsupportedMediaType,
		}
	}
	if contentType == "" {
		contentType = mtype.String()
	}

	body, err := decoder(io.MultiReader(buf, r), contentType, opts.Charset)
	if err != nil {
		return nil, sizeError(source, err)
	}

	root, err := html.Parse(body)
	if err != nil {
		return nil, sizeError(source, err)
	}

	doc := &Document{
		Source:      source,
		Root:        root,
		BaseURL:     opts.BaseURL,
		ContentType: contentType,
	}
	if doc.BaseURL == "" {
		doc.BaseURL = baseURL
	}
	if doc.BaseURL == "" {
		doc.BaseURL = commentURI(root)
	}

	return doc, nil
}

// sizeError converts a body limit error to an [Error]. A remote
// document that is too large is an upstream failure.
func sizeError(source string, err error) error {
	var e *http.MaxBytesError
	if !errors.As(err, &e) {
		return err
	}

	status := http.StatusRequestEntityTooLarge
	if IsRemote(source) {
		status = http.StatusBadGateway
	}
	return &Error{
		Err:    fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, e.Limit),
		Status: status,
	}
}

func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func decoder(r io.Reader, contentType, label string) (io.Reader, error) {
	if label == "" {
		return charset.NewReader(r, contentType)
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, &Error{
			Err:    fmt.Errorf("%w: %q", ErrCharset, label),
			Status: http.StatusBadRequest,
		}
	}
	return enc.NewDecoder().Reader(r), nil
}

func commentURI(root *html.Node) string {
	n := htmlquery.QuerySelector(root, uriCommentSelector)
	if n == nil {
		return ""
	}
	_, uri, _ := strings.Cut(n.Data, "URI:")
	return strings.TrimSpace(uri)
}
