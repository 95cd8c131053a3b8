// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package output encodes extraction results.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"codeberg.org/readeck/microdata/pkg/microdata"
)

// ErrFormat is returned for an unknown output format.
var ErrFormat = errors.New("unknown format")

// Format is an output format.
type Format uint8

const (
	// FormatJSON is the JSON output format.
	FormatJSON Format = iota
	// FormatYAML is the YAML output format.
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	}
	return "unknown"
}

// ContentType returns the format's media type.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}

// ParseFormat returns a [Format] from its name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrFormat, name)
}

// Result is the extraction result of one source.
type Result struct {
	Source string               `json:"source"`
	Data   *microdata.Microdata `json:"-"`
}

// MarshalJSON implements [json.Marshaler].
func (r Result) MarshalJSON() ([]byte, error) {
	items, err := r.Data.MarshalJSON()
	if err != nil {
		return nil, err
	}
	src, err := json.Marshal(r.Source)
	if err != nil {
		return nil, err
	}

	// {"source":..., "items":[...]}
	res := make([]byte, 0, len(src)+len(items)+12)
	res = append(res, `{"source":`...)
	res = append(res, src...)
	res = append(res, ',')
	res = append(res, items[1:]...)
	return res, nil
}

// Encode writes md to w in the given format. indent is the number of
// spaces used for indentation. A zero indent gives a compact JSON.
func Encode(w io.Writer, md *microdata.Microdata, format Format, indent int) error {
	if format == FormatYAML {
		return encodeYAML(w, microdataNode(md), indent)
	}
	return encodeJSON(w, md, indent)
}

// EncodeResults writes a list of results to w in the given format.
func EncodeResults(w io.Writer, results []Result, format Format, indent int) error {
	if format == FormatYAML {
		node := &yaml.Node{Kind: yaml.SequenceNode}
		for _, r := range results {
			n := microdataNode(r.Data)
			n.Content = append([]*yaml.Node{scalar("source"), scalar(r.Source)}, n.Content...)
			node.Content = append(node.Content, n)
		}
		return encodeYAML(w, node, indent)
	}

	if results == nil {
		results = []Result{}
	}
	return encodeJSON(w, results, indent)
}

func encodeJSON(w io.Writer, v any, indent int) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	return enc.Encode(v)
}

func encodeYAML(w io.Writer, node *yaml.Node, indent int) error {
	enc := yaml.NewEncoder(w)
	if indent > 0 {
		enc.SetIndent(indent)
	}
	if err := enc.Encode(node); err != nil {
		return err
	}
	return enc.Close()
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func sequence(nodes ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Content: nodes}
}

func microdataNode(md *microdata.Microdata) *yaml.Node {
	items := sequence()
	for _, item := range md.Items {
		items.Content = append(items.Content, itemNode(item))
	}

	return &yaml.Node{
		Kind:    yaml.MappingNode,
		Content: []*yaml.Node{scalar("items"), items},
	}
}

func itemNode(item *microdata.Item) *yaml.Node {
	types := sequence()
	for _, t := range item.Types {
		types.Content = append(types.Content, scalar(t))
	}
	node := &yaml.Node{
		Kind:    yaml.MappingNode,
		Content: []*yaml.Node{scalar("type"), types},
	}
	if item.ID != nil {
		node.Content = append(node.Content, scalar("id"), scalar(*item.ID))
	}

	properties := &yaml.Node{Kind: yaml.MappingNode}
	for name, values := range item.Properties.All() {
		list := sequence()
		for _, v := range values {
			list.Content = append(list.Content, valueNode(v))
		}
		properties.Content = append(properties.Content, scalar(name), list)
	}
	node.Content = append(node.Content, scalar("properties"), properties)

	return node
}

func valueNode(v microdata.Value) *yaml.Node {
	switch v.Type {
	case microdata.ItemValue:
		return itemNode(v.Item)
	case microdata.CycleValue:
		return scalar(microdata.CycleMarker)
	}
	return scalar(v.Text)
}
