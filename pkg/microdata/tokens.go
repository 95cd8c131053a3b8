// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package microdata

import (
	"strings"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// isSpace reports whether r is an HTML space character.
func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

// Tokens splits a string on runs of space characters.
// Leading and trailing spaces are ignored; an empty or blank string
// returns an empty list.
func Tokens(s string) []string {
	return strings.FieldsFunc(s, isSpace)
}

// UniqueTokens is like [Tokens] but removes duplicated tokens,
// keeping the first occurrence of each one.
func UniqueTokens(s string) []string {
	return unique(Tokens(s))
}

func unique(tokens []string) []string {
	res := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		res = append(res, t)
	}
	return res
}

// attrTokens returns the tokens of an attribute value.
// The list is empty when the attribute does not exist.
func attrTokens(n *html.Node, name string) []string {
	return Tokens(dom.GetAttribute(n, name))
}

// getAttr returns an attribute value and whether it exists.
func getAttr(n *html.Node, name string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}
