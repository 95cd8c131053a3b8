// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

package microdata_test

import (
	"encoding/json"
	"os"
	"path"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"codeberg.org/readeck/microdata/pkg/microdata"
)

var rxFixtureURI = regexp.MustCompile(`<!-- URI: (.*) -->`)

func parseHTML(t *testing.T, src string, baseURI string, options ...microdata.Option) *microdata.Microdata {
	t.Helper()
	md, err := microdata.Parse(strings.NewReader(src), baseURI, options...)
	require.NoError(t, err)
	return md
}

func encode(t *testing.T, md *microdata.Microdata) string {
	t.Helper()
	b, err := json.Marshal(md)
	require.NoError(t, err)
	return string(b)
}

func runParseAndEncode(src string, expected string, options ...microdata.Option) func(t *testing.T) {
	return func(t *testing.T) {
		md := parseHTML(t, src, "https://example.com/", options...)
		require.JSONEq(t, expected, encode(t, md))
	}
}

func TestParseFixtures(t *testing.T) {
	for _, name := range []string{"w3c", "itemref", "object-data", "itemid-content"} {
		t.Run(name, func(t *testing.T) {
			src, err := os.ReadFile(path.Join("test-fixtures", name, "source.html"))
			require.NoError(t, err)
			expected, err := os.ReadFile(path.Join("test-fixtures", name, "result.json"))
			require.NoError(t, err)

			uri := ""
			if m := rxFixtureURI.FindSubmatch(src); m != nil {
				uri = string(m[1])
			}

			md := parseHTML(t, string(src), uri)
			require.JSONEq(t, string(expected), encode(t, md))

			// The map form decodes to the same structure
			var decoded map[string]any
			require.NoError(t, json.Unmarshal(expected, &decoded))
			require.Equal(t, decoded, md.Map())
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("golden", runParseAndEncode(
		`<div itemscope itemtype="Person"><span itemprop="name">Alice</span></div>`,
		`{"items": [{"type": ["Person"], "properties": {"name": ["Alice"]}}]}`,
	))

	t.Run("no items", runParseAndEncode(
		`<p>Hello <span itemprop="name">world</span></p>`,
		`{"items": []}`,
	))

	t.Run("untyped item", runParseAndEncode(
		`<div itemscope><span itemprop="name">Bob</span></div>`,
		`{"items": [{"type": [], "properties": {"name": ["Bob"]}}]}`,
	))

	t.Run("empty item", runParseAndEncode(
		`<div itemscope itemtype="Thing"></div>`,
		`{"items": [{"type": ["Thing"], "properties": {}}]}`,
	))

	t.Run("multi valued", runParseAndEncode(
		`<div itemscope>
			<span itemprop="tag">a</span>
			<span itemprop="tag">b</span>
		</div>`,
		`{"items": [{"type": [], "properties": {"tag": ["a", "b"]}}]}`,
	))

	t.Run("several names", runParseAndEncode(
		`<div itemscope>
			<span itemprop=" a  b
				a ">x</span>
		</div>`,
		`{"items": [{"type": [], "properties": {"a": ["x"], "b": ["x"]}}]}`,
	))

	t.Run("blank itemprop", runParseAndEncode(
		`<div itemscope><span itemprop="  ">x</span><span itemprop="">y</span></div>`,
		`{"items": [{"type": [], "properties": {}}]}`,
	))

	t.Run("tag priority", runParseAndEncode(
		`<div itemscope><img itemprop="image" src="a.jpg" alt="text"></div>`,
		`{"items": [{"type": [], "properties": {"image": ["https://example.com/a.jpg"]}}]}`,
	))

	t.Run("content first", runParseAndEncode(
		`<div itemscope><img itemprop="image" src="a.jpg" content="b.jpg"></div>`,
		`{"items": [{"type": [], "properties": {"image": ["b.jpg"]}}]}`,
	))

	t.Run("empty attribute", runParseAndEncode(
		`<div itemscope>
			<a itemprop="link" href="">text</a>
			<time itemprop="date">tomorrow</time>
		</div>`,
		`{"items": [{"type": [], "properties": {"link": ["text"], "date": ["tomorrow"]}}]}`,
	))

	t.Run("absolute urls", runParseAndEncode(
		`<div itemscope>
			<a itemprop="a" href="mailto:someone@example.net">mail</a>
			<link itemprop="b" href=" https://example.org/">
			<area itemprop="c" href="/map">
		</div>`,
		`{"items": [{"type": [], "properties": {
			"a": ["mailto:someone@example.net"],
			"b": [" https://example.org/"],
			"c": ["https://example.com//map"]
		}}]}`,
	))

	t.Run("text content", runParseAndEncode(
		`<div itemscope><p itemprop="description">Some <b>bold</b>
 text</p></div>`,
		`{"items": [{"type": [], "properties": {"description": ["Some bold\n text"]}}]}`,
	))

	t.Run("nested scopes", runParseAndEncode(
		`<div itemscope itemtype="Movie">
			<span itemprop="name">Avatar</span>
			<div itemprop="director" itemscope itemtype="Person">
				<span itemprop="name">James Cameron</span>
				<span itemprop="birthDate">1954</span>
			</div>
			<div itemscope itemtype="Note">
				<span itemprop="text">not a movie property</span>
			</div>
		</div>`,
		`{"items": [
			{"type": ["Movie"], "properties": {
				"name": ["Avatar"],
				"director": [{"type": ["Person"], "properties": {
					"name": ["James Cameron"],
					"birthDate": ["1954"]
				}}]
			}},
			{"type": ["Note"], "properties": {"text": ["not a movie property"]}}
		]}`,
	))

	t.Run("itemref", runParseAndEncode(
		`<div itemscope id="amanda" itemref="a b"></div>
		<p id="a">Name: <span itemprop="name">Amanda</span></p>
		<div id="b" itemprop="band" itemscope itemref="c"></div>
		<div id="c">
			<p>Band: <span itemprop="name">Jazz Band</span></p>
			<p>Size: <span itemprop="size">12</span> players</p>
		</div>`,
		`{"items": [{"type": [], "properties": {
			"name": ["Amanda"],
			"band": [{"type": [], "properties": {"name": ["Jazz Band"], "size": ["12"]}}]
		}}]}`,
	))

	t.Run("itemref first match", runParseAndEncode(
		`<div itemscope itemref="x"></div>
		<span id="x" itemprop="name">first</span>
		<span id="x" itemprop="name">second</span>`,
		`{"items": [{"type": [], "properties": {"name": ["first"]}}]}`,
	))

	t.Run("itemref self", runParseAndEncode(
		`<div itemscope id="self" itemref="self missing"><span itemprop="a">1</span></div>`,
		`{"items": [{"type": [], "properties": {"a": ["1"]}}]}`,
	))

	t.Run("itemref descendants", func(t *testing.T) {
		src := `<div itemscope itemref="c d">` +
			`<span id="c" itemprop="n">x</span><p id="d"><b itemprop="m">y</b></p>` +
			`</div>`
		runParseAndEncode(src, `{"items": [{"type": [], "properties": {"n": ["x"], "m": ["y"]}}]}`)(t)

		md := parseHTML(t, src, "")
		require.Equal(t, []string{"n", "m"}, md.Items[0].Properties.Names())
	})
}

func TestCycles(t *testing.T) {
	src := `
	<div itemscope itemtype="Root" itemref="x"></div>
	<div id="x" itemprop="p" itemscope itemref="y"><span itemprop="name">x</span></div>
	<div id="y" itemprop="q" itemscope itemref="x"><span itemprop="name">y</span></div>
	`

	cycles := []*html.Node{}
	md := parseHTML(t, src, "", microdata.WithCycleHook(func(n *html.Node) {
		cycles = append(cycles, n)
	}))

	require.JSONEq(t, `{"items": [{"type": ["Root"], "properties": {
		"p": [{"type": [], "properties": {
			"name": ["x"],
			"q": [{"type": [], "properties": {
				"name": ["y"],
				"p": ["ERROR"]
			}}]
		}}]
	}}]}`, encode(t, md))

	require.Len(t, cycles, 1)
	require.Equal(t, "x", cycles[0].Attr[0].Val)
	require.Equal(t, 1, md.Cycles())

	// The marker is not a string value
	x := md.Items[0].Properties.Get("p")[0].Item
	y := x.Properties.Get("q")[0].Item
	v := y.Properties.Get("p")[0]
	require.True(t, v.IsCycle())
	require.Equal(t, microdata.CycleValue, v.Type)
	require.Empty(t, v.Text)
	require.Nil(t, v.Item)

	t.Run("sibling branches", func(t *testing.T) {
		// The same item is referenced twice from sibling branches,
		// it's not a cycle.
		md := parseHTML(t, `
		<div itemscope itemref="shared"><div itemprop="a" itemscope itemref="shared"></div></div>
		<div id="shared" itemprop="s" itemscope><span itemprop="name">shared</span></div>
		`, "")

		require.JSONEq(t, `{"items": [{"type": [], "properties": {
			"a": [{"type": [], "properties": {
				"s": [{"type": [], "properties": {"name": ["shared"]}}]
			}}],
			"s": [{"type": [], "properties": {"name": ["shared"]}}]
		}}]}`, encode(t, md))
		require.Equal(t, 0, md.Cycles())
	})
}

func TestAbsolutizer(t *testing.T) {
	src := `<div itemscope><a itemprop="url" href="page.html">page</a></div>`

	tests := []struct {
		name     string
		options  []microdata.Option
		expected string
	}{
		{"default", nil, "https://example.com/page.html"},
		{"nil", []microdata.Option{microdata.WithAbsolutizer(nil)}, "https://example.com/page.html"},
		{
			"custom",
			[]microdata.Option{microdata.WithAbsolutizer(func(v, _ string) string { return "X" + v })},
			"Xpage.html",
		},
		{"resolve", []microdata.Option{microdata.WithAbsolutizer(microdata.ResolveURL)}, "https://example.com/page.html"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			md := parseHTML(t, src, "https://example.com/", test.options...)
			v, ok := md.Items[0].Text("url")
			require.True(t, ok)
			require.Equal(t, test.expected, v)
		})
	}

	t.Run("resolve", func(t *testing.T) {
		tests := []struct {
			value    string
			base     string
			expected string
		}{
			{"page.html", "https://example.com/a/b", "https://example.com/a/page.html"},
			{"/root", "https://example.com/a/b", "https://example.com/root"},
			{"?q=1", "https://example.com/a/b", "https://example.com/a/b?q=1"},
			{"//cdn.example.net/x.jpg", "https://example.com/", "https://cdn.example.net/x.jpg"},
			{"page.html", "", "page.html"},
			{"/root", "", "/root"},
			{"page.html", "docs/", "docs/page.html"},
			{"page.html", "%zz", "%zzpage.html"},
		}

		for _, test := range tests {
			require.Equal(t, test.expected, microdata.ResolveURL(test.value, test.base))
		}
	})

	t.Run("resolve without base", func(t *testing.T) {
		md := parseHTML(t, src, "", microdata.WithAbsolutizer(microdata.ResolveURL))
		v, ok := md.Items[0].Text("url")
		require.True(t, ok)
		require.Equal(t, "page.html", v)
	})

	t.Run("lookup", func(t *testing.T) {
		for _, name := range []string{"", "concat", "resolve"} {
			f, ok := microdata.LookupAbsolutizer(name)
			require.True(t, ok, name)
			require.NotNil(t, f)
		}
		f, _ := microdata.LookupAbsolutizer("resolve")
		require.Equal(t, "https://example.com/x", f("/x", "https://example.com/a/"))

		_, ok := microdata.LookupAbsolutizer("magic")
		require.False(t, ok)
	})
}

func TestVocabulary(t *testing.T) {
	src := `
	<div itemscope itemtype="https://schema.org/Person">
		<span itemprop="name https://example.org/name">Alice</span>
	</div>
	<div itemscope>
		<span itemprop="name">Bob</span>
	</div>`

	calls := 0
	md := parseHTML(t, src, "", microdata.WithVocabulary(func(types []string, name string) string {
		calls++
		require.Equal(t, []string{"https://schema.org/Person"}, types)
		return "schema:" + name
	}))

	require.Equal(t, 1, calls)
	require.Equal(t, []string{"schema:name", "https://example.org/name"}, md.Items[0].Properties.Names())
	require.Equal(t, []string{"name"}, md.Items[1].Properties.Names())

	t.Run("duplicated names", func(t *testing.T) {
		src := `<div itemscope itemtype="T"><span itemprop="name name alias">x</span></div>`

		md := parseHTML(t, src, "")
		require.Equal(t, []string{"name", "alias"}, md.Items[0].Properties.Names())
		require.Len(t, md.Items[0].Properties.Get("name"), 1)

		md = parseHTML(t, src, "", microdata.WithVocabulary(func(_ []string, _ string) string {
			return "label"
		}))
		require.Equal(t, []string{"label"}, md.Items[0].Properties.Names())
		require.Len(t, md.Items[0].Properties.Get("label"), 1)
	})
}

func TestIdempotence(t *testing.T) {
	src, err := os.ReadFile(path.Join("test-fixtures", "w3c", "source.html"))
	require.NoError(t, err)

	root, err := html.Parse(strings.NewReader(string(src)))
	require.NoError(t, err)

	doc := microdata.NewDocument(root, "http://blog.example.com/progress-report")
	first := doc.Extract()
	second := doc.Extract()

	require.Equal(t, first.Map(), second.Map())
	require.Equal(t, encode(t, first), encode(t, second))
}

func TestDocument(t *testing.T) {
	root, err := html.Parse(strings.NewReader(`
	<div id="a" itemscope></div>
	<div id="b" itemscope itemprop="x"></div>
	<div id="a"><span itemscope></span></div>
	`))
	require.NoError(t, err)

	doc := microdata.NewDocument(root, "https://example.net/")
	require.Equal(t, "https://example.net/", doc.BaseURI())
	require.Same(t, root, doc.Root())
	require.Nil(t, doc.ElementByID("missing"))

	a := doc.ElementByID("a")
	require.NotNil(t, a)
	require.Equal(t, []html.Attribute{{Key: "id", Val: "a"}, {Key: "itemscope", Val: ""}}, a.Attr)

	items := doc.TopLevelItems()
	require.Len(t, items, 2)
	require.Same(t, a, items[0])
	require.Equal(t, "span", items[1].Data)

	t.Run("element root", func(t *testing.T) {
		md := microdata.ParseNode(a, "")
		require.Len(t, md.Items, 1)
	})
}
