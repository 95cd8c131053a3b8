// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package microdata

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Absolutizer returns an absolute version of a relative URL value,
// given the document's base URI.
type Absolutizer func(value, base string) string

// ConcatURL is the default [Absolutizer]. It only prepends the base
// to the value.
func ConcatURL(value, base string) string {
	return base + value
}

// ResolveURL is an [Absolutizer] that resolves the value against the
// base as described in RFC 3986. It falls back to [ConcatURL] when
// the base is not an absolute URL or when the value cannot be parsed.
func ResolveURL(value, base string) string {
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return ConcatURL(value, base)
	}
	u, err := b.Parse(value)
	if err != nil {
		return ConcatURL(value, base)
	}
	return u.String()
}

// LookupAbsolutizer returns an [Absolutizer] by name: "concat"
// or "resolve". An empty name gives [ConcatURL].
func LookupAbsolutizer(name string) (Absolutizer, bool) {
	switch name {
	case "", "concat":
		return ConcatURL, true
	case "resolve":
		return ResolveURL, true
	}
	return nil, false
}

var rxAbsoluteURI = regexp.MustCompile(`^\w+:`)

// isAbsoluteURI checks whether a string starts with a scheme.
// It's only a heuristic.
func isAbsoluteURI(s string) bool {
	return rxAbsoluteURI.MatchString(strings.TrimSpace(s))
}

// tagAttributes maps element names to the attribute
// holding their property value.
var tagAttributes = map[atom.Atom]string{
	atom.Audio:  "src",
	atom.Embed:  "src",
	atom.Iframe: "src",
	atom.Img:    "src",
	atom.Source: "src",
	atom.Track:  "src",
	atom.Video:  "src",
	atom.A:      "href",
	atom.Area:   "href",
	atom.Link:   "href",
	atom.Object: "data",
	atom.Data:   "value",
	atom.Meter:  "value",
	atom.Time:   "datetime",
}

// urlAttributes are the attributes holding URLs.
var urlAttributes = map[string]struct{}{
	"src":  {},
	"href": {},
	"data": {},
}

// propertyValue returns the value of a property element.
// When the element is an item, it's returned as is and the
// string value is empty.
//
// https://html.spec.whatwg.org/multipage/microdata.html#values
func (e *extractor) propertyValue(n *html.Node) (*html.Node, string) {
	if dom.HasAttribute(n, "itemscope") {
		return n, ""
	}

	if value, ok := getAttr(n, "content"); ok {
		return nil, value
	}

	if name, ok := tagAttributes[elementAtom(n)]; ok {
		value := dom.GetAttribute(n, name)
		if _, isURL := urlAttributes[name]; isURL && value != "" && !isAbsoluteURI(value) {
			value = e.absolutize(value, e.doc.BaseURI())
		}
		if value != "" {
			return nil, value
		}
	}

	return nil, dom.TextContent(n)
}

// elementAtom returns the atom of an element, looking it up
// when the node was not created by the HTML parser.
func elementAtom(n *html.Node) atom.Atom {
	if n.DataAtom != 0 {
		return n.DataAtom
	}
	return atom.Lookup([]byte(strings.ToLower(n.Data)))
}
