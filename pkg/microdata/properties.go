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

// properties returns the property elements of an item.
//
// The walk uses a stack: pending elements are popped from the end and
// the children of elements that are not new items are pushed back.
// Every element is inspected once at most. Since the stack yields
// elements in reverse order, the result is reversed before returning.
//
// https://html.spec.whatwg.org/multipage/microdata.html#associating-names-with-items
func (e *extractor) properties(root *html.Node) []*html.Node {
	results := []*html.Node{}
	memory := map[*html.Node]struct{}{root: {}}

	pending := e.doc.children(root)
	pending = append(pending, e.references(root)...)

	for len(pending) > 0 {
		current := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		if _, ok := memory[current]; ok {
			continue
		}
		memory[current] = struct{}{}

		if !dom.HasAttribute(current, "itemscope") {
			pending = append(pending, e.doc.children(current)...)
		}

		if len(attrTokens(current, "itemprop")) > 0 {
			results = append(results, current)
		}
	}

	slices.Reverse(results)
	return results
}

// references returns the elements listed in the itemref attribute
// of a node. Unknown ids are skipped.
func (e *extractor) references(n *html.Node) []*html.Node {
	res := []*html.Node{}
	for _, id := range attrTokens(n, "itemref") {
		if ref := e.doc.ElementByID(id); ref != nil {
			res = append(res, ref)
			continue
		}
		e.logger.Debug("itemref not found", slog.String("id", id))
	}
	return res
}
