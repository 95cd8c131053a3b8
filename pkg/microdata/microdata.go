// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package microdata extracts HTML microdata from a parsed document.
//
// It implements the WHATWG "microdata to JSON" algorithm:
//   - top-level items are the elements with an itemscope attribute and
//     no itemprop attribute
//   - the properties of an item are found by walking its subtree and the
//     elements it references with itemref
//   - property values are nested items, tag specific attribute values or
//     text content
//
// The result is an in-memory graph ([Microdata], [Item], [Value]) that
// marshals to the microdata JSON format.
package microdata

import (
	"io"
	"log/slog"

	"golang.org/x/net/html"
)

// Option is an extraction option.
type Option func(*extractor)

// WithAbsolutizer sets the function that turns relative src, href and
// data attribute values into absolute URLs. The default is [ConcatURL].
func WithAbsolutizer(f Absolutizer) Option {
	return func(e *extractor) {
		if f != nil {
			e.absolutize = f
		}
	}
}

// WithVocabulary sets the property name hook applied to the
// property names of typed items.
func WithVocabulary(f Vocabulary) Option {
	return func(e *extractor) {
		e.vocabulary = f
	}
}

// WithLogger sets the extraction's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCycleHook registers a function that is called every time a cyclic
// item reference is replaced by a [CycleValue].
func WithCycleHook(f func(*html.Node)) Option {
	return func(e *extractor) {
		e.onCycle = f
	}
}

// ParseNode extracts the microdata of an [html.Node] tree.
// baseURI is used to make relative URLs absolute.
func ParseNode(root *html.Node, baseURI string, options ...Option) *Microdata {
	return NewDocument(root, baseURI).Extract(options...)
}

// Parse parses an HTML document and extracts its microdata.
func Parse(r io.Reader, baseURI string, options ...Option) (*Microdata, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	return ParseNode(root, baseURI, options...), nil
}

// Extract returns the microdata items of the document.
func (d *Document) Extract(options ...Option) *Microdata {
	e := newExtractor(d, options...)

	md := &Microdata{
		Items: []*Item{},
	}
	for _, n := range d.TopLevelItems() {
		md.Items = append(md.Items, e.build(n, nil))
	}

	e.logger.Debug("microdata extracted",
		slog.String("base", d.BaseURI()),
		slog.Int("items", len(md.Items)),
	)

	return md
}
