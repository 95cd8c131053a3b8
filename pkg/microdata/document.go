// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package microdata

import (
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

var (
	topLevelSelector   = xpath.MustCompile("descendant-or-self::*[@itemscope and not(@itemprop)]")
	identifiedSelector = xpath.MustCompile("descendant-or-self::*[@id]")
)

// Document wraps a parsed HTML tree and provides the lookups
// needed by the extraction.
// The id index is built once, in [NewDocument]; the tree must not
// be modified while a Document is in use.
type Document struct {
	root    *html.Node
	baseURI string
	ids     map[string]*html.Node
}

// NewDocument returns a [Document] for the given root node.
func NewDocument(root *html.Node, baseURI string) *Document {
	d := &Document{
		root:    root,
		baseURI: baseURI,
		ids:     map[string]*html.Node{},
	}

	for _, n := range htmlquery.QuerySelectorAll(root, identifiedSelector) {
		id := dom.GetAttribute(n, "id")
		if _, ok := d.ids[id]; !ok {
			d.ids[id] = n
		}
	}

	return d
}

// Root returns the document's root node.
func (d *Document) Root() *html.Node {
	return d.root
}

// BaseURI returns the document's base URI. It can be empty.
func (d *Document) BaseURI() string {
	return d.baseURI
}

// ElementByID returns the first element, in document order, with
// the given id. It returns nil when no element matches.
func (d *Document) ElementByID(id string) *html.Node {
	return d.ids[id]
}

// TopLevelItems returns the elements that have an itemscope
// attribute and no itemprop attribute, in document order.
func (d *Document) TopLevelItems() []*html.Node {
	return htmlquery.QuerySelectorAll(d.root, topLevelSelector)
}

// children returns the element children of a node.
func (d *Document) children(n *html.Node) []*html.Node {
	return dom.Children(n)
}
