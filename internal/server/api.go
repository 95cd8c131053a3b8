// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"codeberg.org/readeck/microdata/internal/loader"
	"codeberg.org/readeck/microdata/internal/metrics"
	"codeberg.org/readeck/microdata/internal/output"
	"codeberg.org/readeck/microdata/pkg/microdata"
)

var (
	errMissingURL = errors.New("url is required")
	errInvalidURL = errors.New("url must be an http or https URL")
)

type extractParams struct {
	base     string
	charset  string
	itemType string
	format   output.Format
	options  []microdata.Option
}

func (s *Server) extractRoutes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.extractURL)
	r.Post("/", s.extractBody)
	return r
}

// params reads the extraction parameters from the request's query
// string, with the configuration values as defaults.
func (s *Server) params(r *http.Request) (*extractParams, error) {
	q := r.URL.Query()
	p := &extractParams{
		base:     q.Get("base"),
		charset:  q.Get("charset"),
		itemType: q.Get("type"),
	}
	if p.charset == "" {
		p.charset = s.cfg.Extract.Charset
	}

	name := q.Get("absolutize")
	if name == "" {
		name = s.cfg.Extract.Absolutize
	}
	absolutize, ok := microdata.LookupAbsolutizer(name)
	if !ok {
		return nil, &Error{http.StatusBadRequest, fmt.Errorf("unknown absolutize value %q", name)}
	}

	format := q.Get("format")
	if format == "" {
		if strings.Contains(r.Header.Get("Accept"), "yaml") {
			format = "yaml"
		} else {
			format = s.cfg.Extract.Format
		}
	}
	var err error
	if p.format, err = output.ParseFormat(format); err != nil {
		return nil, &Error{http.StatusBadRequest, err}
	}

	p.options = []microdata.Option{
		microdata.WithAbsolutizer(absolutize),
		microdata.WithLogger(Log(r)),
	}
	return p, nil
}

// extractBody extracts the microdata of the posted HTML document.
func (s *Server) extractBody(w http.ResponseWriter, r *http.Request) {
	p, err := s.params(r)
	if err != nil {
		Err(w, r, err)
		return
	}

	if s.cfg.HTTP.MaxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.HTTP.MaxBody)
	}

	doc, err := loader.Read(r.Body, r.Header.Get("Content-Type"), loader.Options{
		BaseURL: p.base,
		Charset: p.charset,
	})
	if err != nil {
		Err(w, r, err)
		return
	}

	s.render(w, r, p, doc)
}

// extractURL fetches a remote document and extracts its microdata.
func (s *Server) extractURL(w http.ResponseWriter, r *http.Request) {
	p, err := s.params(r)
	if err != nil {
		Err(w, r, err)
		return
	}

	src := strings.TrimSpace(r.URL.Query().Get("url"))
	switch {
	case src == "":
		Err(w, r, &Error{http.StatusBadRequest, errMissingURL})
		return
	case !loader.IsRemote(src):
		Err(w, r, &Error{http.StatusBadRequest, errInvalidURL})
		return
	}

	doc, err := loader.Load(r.Context(), s.client, src, loader.Options{
		BaseURL: p.base,
		Charset: p.charset,
		MaxBody: s.cfg.HTTP.MaxBody,
	})
	if err != nil {
		Err(w, r, err)
		return
	}

	s.render(w, r, p, doc)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, p *extractParams, doc *loader.Document) {
	start := time.Now()
	md := microdata.ParseNode(doc.Root, doc.BaseURL, p.options...)
	metrics.Observe(md, time.Since(start))

	if p.itemType != "" {
		md = md.Filter(func(item *microdata.Item) bool {
			return item.Is(p.itemType)
		})
	}

	buf := new(bytes.Buffer)
	if err := output.Encode(buf, md, p.format, 0); err != nil {
		Err(w, r, err)
		return
	}

	w.Header().Set("Content-Type", p.format.ContentType())
	if doc.BaseURL != "" {
		w.Header().Set("X-Base-Url", doc.BaseURL)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}
