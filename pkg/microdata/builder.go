// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package microdata

import (
	"log/slog"
	"slices"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// Vocabulary receives the types of a typed item and one of its
// property names, and returns the name to use.
type Vocabulary func(types []string, name string) string

type extractor struct {
	doc        *Document
	absolutize Absolutizer
	vocabulary Vocabulary
	logger     *slog.Logger
	onCycle    func(*html.Node)
}

func newExtractor(doc *Document, options ...Option) *extractor {
	e := &extractor{
		doc:        doc,
		absolutize: ConcatURL,
		logger:     slog.Default(),
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// build returns the [Item] of an element.
// ancestry holds the items being built on the current branch. It is
// never modified: each call works on its own copy, so sibling branches
// don't see each other's elements.
//
// https://html.spec.whatwg.org/multipage/microdata.html#get-the-object
func (e *extractor) build(n *html.Node, ancestry []*html.Node) *Item {
	ancestry = append(slices.Clip(ancestry), n)

	item := &Item{
		Types: attrTokens(n, "itemtype"),
	}
	if id, ok := getAttr(n, "itemid"); ok {
		item.ID = &id
	}

	for _, element := range e.properties(n) {
		var value Value

		node, text := e.propertyValue(element)
		switch {
		case node == nil:
			value = Value{Type: TextValue, Text: text}
		case slices.Contains(ancestry, node):
			value = Value{Type: CycleValue}
			e.logger.Debug("cyclic item reference",
				slog.String("itemprop", dom.GetAttribute(element, "itemprop")),
				slog.String("itemtype", dom.GetAttribute(node, "itemtype")),
			)
			if e.onCycle != nil {
				e.onCycle(node)
			}
		default:
			value = Value{Type: ItemValue, Item: e.build(node, ancestry)}
		}

		for _, name := range e.propertyNames(element, item) {
			item.Properties.Add(name, value)
		}
	}

	return item
}

// propertyNames returns the property names of an element, for
// the given owner item.
//
// https://html.spec.whatwg.org/multipage/microdata.html#property-names
func (e *extractor) propertyNames(n *html.Node, owner *Item) []string {
	names := UniqueTokens(dom.GetAttribute(n, "itemprop"))
	if e.vocabulary == nil || len(owner.Types) == 0 {
		return names
	}

	for i, name := range names {
		if !isAbsoluteURI(name) {
			names[i] = e.vocabulary(owner.Types, name)
		}
	}

	// The vocabulary can give the same name twice.
	return unique(names)
}
