// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package microdata

import (
	"bytes"
	"encoding/json"
	"iter"
	"slices"
)

// CycleMarker is the JSON value of a [CycleValue].
const CycleMarker = "ERROR"

// Microdata contains the top-level items of a document.
type Microdata struct {
	Items []*Item
}

// Item is a microdata item.
type Item struct {
	// Types are the tokens of the itemtype attribute.
	Types []string
	// ID is the itemid attribute value. It's nil when the
	// attribute does not exist.
	ID *string
	// Properties are the item's property values, by name.
	Properties Properties
}

// ValueType is a property value type.
type ValueType uint8

const (
	// TextValue is a string value.
	TextValue ValueType = iota
	// ItemValue is a nested item.
	ItemValue
	// CycleValue replaces an item that is already being built
	// higher in the hierarchy.
	CycleValue
)

func (t ValueType) String() string {
	switch t {
	case TextValue:
		return "text"
	case ItemValue:
		return "item"
	case CycleValue:
		return "cycle"
	}
	return "unknown"
}

// Value is a property value.
type Value struct {
	Type ValueType
	Text string
	Item *Item
}

// IsCycle returns true when the value is a cyclic reference marker.
func (v Value) IsCycle() bool {
	return v.Type == CycleValue
}

// Properties is an ordered list of property values, grouped by name.
// Names keep the order in which they were first added.
// The zero value is ready to use.
type Properties struct {
	names  []string
	values map[string][]Value
}

// Add appends a value to the given property.
func (p *Properties) Add(name string, value Value) {
	if p.values == nil {
		p.values = map[string][]Value{}
	}
	if _, ok := p.values[name]; !ok {
		p.names = append(p.names, name)
	}
	p.values[name] = append(p.values[name], value)
}

// Get returns the values of a property.
func (p Properties) Get(name string) []Value {
	return p.values[name]
}

// Names returns the property names, in insertion order.
func (p Properties) Names() []string {
	return slices.Clone(p.names)
}

// Len returns the number of property names.
func (p Properties) Len() int {
	return len(p.names)
}

// All returns an iterator over the property names and their values.
func (p Properties) All() iter.Seq2[string, []Value] {
	return func(yield func(string, []Value) bool) {
		for _, name := range p.names {
			if !yield(name, p.values[name]) {
				return
			}
		}
	}
}

// Is returns true when the item has the given type.
func (item *Item) Is(itemType string) bool {
	return slices.Contains(item.Types, itemType)
}

// Text returns the first text value of a property.
func (item *Item) Text(name string) (string, bool) {
	for _, v := range item.Properties.Get(name) {
		if v.Type == TextValue {
			return v.Text, true
		}
	}
	return "", false
}

// every calls f on the item and its nested items, for the
// ones matching filter (when not nil).
func (item *Item) every(f func(*Item) bool, filter func(*Item) bool, seen map[*Item]struct{}) bool {
	if _, ok := seen[item]; ok {
		return true
	}
	seen[item] = struct{}{}

	if filter == nil || filter(item) {
		if !f(item) {
			return false
		}
	}

	for _, values := range item.Properties.All() {
		for _, v := range values {
			if v.Type == ItemValue && !v.Item.every(f, filter, seen) {
				return false
			}
		}
	}
	return true
}

// All returns a recursive iterator over all items, nested items
// included, with a filter function (can be nil).
func (md *Microdata) All(filter func(*Item) bool) iter.Seq[*Item] {
	return func(yield func(*Item) bool) {
		seen := map[*Item]struct{}{}
		for _, item := range md.Items {
			if !item.every(yield, filter, seen) {
				return
			}
		}
	}
}

// Filter returns a new [Microdata] with the top-level items
// matching f.
func (md *Microdata) Filter(f func(*Item) bool) *Microdata {
	res := &Microdata{Items: []*Item{}}
	for _, item := range md.Items {
		if f(item) {
			res.Items = append(res.Items, item)
		}
	}
	return res
}

// Cycles returns the number of cyclic reference markers.
func (md *Microdata) Cycles() int {
	res := 0
	for item := range md.All(nil) {
		for _, values := range item.Properties.All() {
			for _, v := range values {
				if v.IsCycle() {
					res++
				}
			}
		}
	}
	return res
}

// Map returns the microdata as nested maps and slices, the way
// they would be decoded from the JSON output.
func (md *Microdata) Map() map[string]any {
	items := make([]any, len(md.Items))
	for i, item := range md.Items {
		items[i] = item.Map()
	}
	return map[string]any{"items": items}
}

// Map returns the item as a map.
func (item *Item) Map() map[string]any {
	types := make([]any, len(item.Types))
	for i, t := range item.Types {
		types[i] = t
	}

	properties := map[string]any{}
	for name, values := range item.Properties.All() {
		list := make([]any, len(values))
		for i, v := range values {
			list[i] = v.value()
		}
		properties[name] = list
	}

	res := map[string]any{
		"type":       types,
		"properties": properties,
	}
	if item.ID != nil {
		res["id"] = *item.ID
	}
	return res
}

func (v Value) value() any {
	switch v.Type {
	case ItemValue:
		return v.Item.Map()
	case CycleValue:
		return CycleMarker
	}
	return v.Text
}

// MarshalJSON implements [json.Marshaler].
func (md *Microdata) MarshalJSON() ([]byte, error) {
	items := md.Items
	if items == nil {
		items = []*Item{}
	}
	return marshal(struct {
		Items []*Item `json:"items"`
	}{items})
}

// MarshalJSON implements [json.Marshaler].
func (item *Item) MarshalJSON() ([]byte, error) {
	types := item.Types
	if types == nil {
		types = []string{}
	}
	return marshal(struct {
		Type       []string   `json:"type"`
		ID         *string    `json:"id,omitempty"`
		Properties Properties `json:"properties"`
	}{types, item.ID, item.Properties})
}

// MarshalJSON implements [json.Marshaler].
// Properties are encoded in insertion order.
func (p Properties) MarshalJSON() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteByte('{')
	for i, name := range p.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := marshal(p.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON implements [json.Marshaler].
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Type {
	case ItemValue:
		return v.Item.MarshalJSON()
	case CycleValue:
		return marshal(CycleMarker)
	}
	return marshal(v.Text)
}

// marshal encodes a value without escaping HTML characters.
func marshal(v any) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
