package format

import (
	"bytes"
	"sort"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/net/html"

	"cbe/dom"
)

// Style describes presentation applied by wrap operations. Values are merged
// into existing element, never replacing what is already there unless keys
// collide.
type Style struct {
	Styles  map[string]string
	Classes []string
	Attrs   map[string]string
}

type declaration struct {
	name, value string
}

// parseInline parses value of style attribute keeping declaration order.
func parseInline(style string) []declaration {
	if strings.TrimSpace(style) == "" {
		return nil
	}
	var decls []declaration
	parser := css.NewParser(parse.NewInput(bytes.NewReader([]byte(style))), true)
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return decls
		case css.DeclarationGrammar:
			var value strings.Builder
			for _, t := range parser.Values() {
				value.Write(t.Data)
			}
			decls = setDeclaration(decls, strings.ToLower(string(data)), strings.TrimSpace(value.String()))
		}
	}
}

func setDeclaration(decls []declaration, name, value string) []declaration {
	for i := range decls {
		if decls[i].name == name {
			decls[i].value = value
			return decls
		}
	}
	return append(decls, declaration{name: name, value: value})
}

func renderInline(decls []declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		if d.value == "" {
			continue
		}
		parts = append(parts, d.name+": "+d.value)
	}
	return strings.Join(parts, "; ")
}

// mergeStyles returns existing inline style with given properties added or
// replaced. New properties are appended in name order.
func mergeStyles(existing string, styles map[string]string) string {
	decls := parseInline(existing)
	names := make([]string, 0, len(styles))
	for k := range styles {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		decls = setDeclaration(decls, strings.ToLower(k), styles[k])
	}
	return renderInline(decls)
}

// StyleValue returns value of inline style property of n.
func StyleValue(n *html.Node, name string) (string, bool) {
	style, _ := dom.Attr(n, "style")
	for _, d := range parseInline(style) {
		if d.name == name {
			return d.value, true
		}
	}
	return "", false
}

// apply merges style into element.
func (s Style) apply(n *html.Node) {
	if len(s.Styles) > 0 {
		existing, _ := dom.Attr(n, "style")
		if merged := mergeStyles(existing, s.Styles); merged != "" {
			dom.SetAttr(n, "style", merged)
		} else {
			dom.RemoveAttr(n, "style")
		}
	}
	dom.AddClasses(n, s.Classes...)
	keys := make([]string, 0, len(s.Attrs))
	for k := range s.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch k {
		case "style":
			existing, _ := dom.Attr(n, "style")
			incoming := make(map[string]string)
			for _, d := range parseInline(s.Attrs[k]) {
				incoming[d.name] = d.value
			}
			dom.SetAttr(n, "style", mergeStyles(existing, incoming))
		case "class":
			dom.AddClasses(n, strings.Fields(s.Attrs[k])...)
		default:
			dom.SetAttr(n, k, s.Attrs[k])
		}
	}
}
