// Package block defines editor blocks: their data, inline properties and the
// registry of block types with empty state factories and renderers.
package block

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"cbe/dom"
)

// Block type.
// ENUM(paragraph, heading, list, image, quote, code, table, divider)
type Type int

const (
	TypeParagraph Type = iota
	TypeHeading
	TypeList
	TypeImage
	TypeQuote
	TypeCode
	TypeTable
	TypeDivider
)

var typeNames = []string{"paragraph", "heading", "list", "image", "quote", "code", "table", "divider"}

func (t Type) String() string {
	if int(t) >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// TypeNames returns names of all block types.
func TypeNames() []string {
	return slices.Clone(typeNames)
}

func ParseType(name string) (Type, error) {
	for i, n := range typeNames {
		if n == strings.ToLower(name) {
			return Type(i), nil
		}
	}
	return Type(0), fmt.Errorf("%s is not a valid block type, try [%s]", name, strings.Join(typeNames, ", "))
}

func (t Type) MarshalText() ([]byte, error) {
	if int(t) < 0 || int(t) >= len(typeNames) {
		return nil, fmt.Errorf("unknown block type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	v, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Textual reports whether content of the type is a single markup string.
func (t Type) Textual() bool {
	return t == TypeParagraph || t == TypeHeading || t == TypeCode
}

type (
	// ImageContent is content of image blocks. Uploading is set while host
	// upload is pending, Src then holds preview data URI.
	ImageContent struct {
		Src       string `json:"src"`
		Alt       string `json:"alt,omitempty"`
		Uploading bool   `json:"uploading,omitempty"`
	}

	QuotePart struct {
		Content string `json:"content"`
		Props   Props  `json:"props"`
	}

	QuoteContent struct {
		Cite    QuotePart  `json:"cite"`
		Caption *QuotePart `json:"caption,omitempty"`
	}

	ListItem struct {
		Content  string     `json:"content"`
		Props    Props      `json:"props"`
		Children []ListItem `json:"children"`
	}
)

// Text part names of blocks exposing more than one editable surface.
const (
	PartMain    = ""
	PartCite    = "cite"
	PartCaption = "caption"
)

// Block is one addressable unit of document content. Content shape depends on
// Type: string for paragraph, heading and code, ImageContent, QuoteContent,
// *Table, []ListItem and nil for divider.
type Block struct {
	ID      string
	Type    Type
	Content any
	Props   Props
	Options Options
}

// Text returns markup of the editable part.
func (b *Block) Text(part string) (string, error) {
	switch {
	case b.Type.Textual() && part == PartMain:
		s, _ := b.Content.(string)
		return s, nil
	case b.Type == TypeQuote && part == PartCite:
		q, _ := b.Content.(QuoteContent)
		return q.Cite.Content, nil
	case b.Type == TypeQuote && part == PartCaption:
		q, _ := b.Content.(QuoteContent)
		if q.Caption == nil {
			return "", nil
		}
		return q.Caption.Content, nil
	}
	return "", fmt.Errorf("block %s of type %s has no text part %q", b.ID, b.Type, part)
}

// SetText replaces markup of the editable part.
func (b *Block) SetText(part, markup string) error {
	switch {
	case b.Type.Textual() && part == PartMain:
		b.Content = markup
		return nil
	case b.Type == TypeQuote && (part == PartCite || part == PartCaption):
		q, _ := b.Content.(QuoteContent)
		if part == PartCite {
			q.Cite.Content = markup
		} else {
			if q.Caption == nil {
				q.Caption = &QuotePart{}
			} else {
				c := *q.Caption
				q.Caption = &c
			}
			q.Caption.Content = markup
		}
		b.Content = q
		return nil
	}
	return fmt.Errorf("block %s of type %s has no text part %q", b.ID, b.Type, part)
}

// IsEmpty reports whether block carries no user content. Dividers are never
// empty.
func (b *Block) IsEmpty() bool {
	switch b.Type {
	case TypeParagraph, TypeHeading, TypeCode:
		s, _ := b.Content.(string)
		return IsEmptyMarkup(s)
	case TypeList:
		items, _ := b.Content.([]ListItem)
		return ListIsEmpty(items)
	case TypeImage:
		img, _ := b.Content.(ImageContent)
		return img.Src == "" && !img.Uploading
	case TypeQuote:
		q, _ := b.Content.(QuoteContent)
		return IsEmptyMarkup(q.Cite.Content) && (q.Caption == nil || IsEmptyMarkup(q.Caption.Content))
	case TypeTable:
		t, _ := b.Content.(*Table)
		return t == nil || t.IsEmpty()
	default:
		return false
	}
}

// IsEmptyParagraph reports whether block is a paragraph without content.
func (b *Block) IsEmptyParagraph() bool {
	return b.Type == TypeParagraph && b.IsEmpty()
}

// Clone returns deep copy of the block.
func (b Block) Clone() Block {
	res := b
	res.Props = b.Props.Clone()
	res.Options = b.Options.Clone()
	switch c := b.Content.(type) {
	case QuoteContent:
		c.Cite.Props = c.Cite.Props.Clone()
		if c.Caption != nil {
			cp := *c.Caption
			cp.Props = cp.Props.Clone()
			c.Caption = &cp
		}
		res.Content = c
	case *Table:
		res.Content = c.Clone()
	case []ListItem:
		res.Content = cloneItems(c)
	}
	return res
}

// IsEmptyMarkup reports whether markup has no visible content: no text other
// than white space and no images.
func IsEmptyMarkup(markup string) bool {
	if strings.TrimSpace(strings.ReplaceAll(markup, "&nbsp;", " ")) == "" {
		return true
	}
	nodes, err := dom.ParseFragment(markup)
	if err != nil {
		return false
	}
	for _, n := range nodes {
		empty := true
		dom.Walk(n, func(c *html.Node) bool {
			if (c.Type == html.ElementNode && c.Data == "img") || (c.Type == html.TextNode && strings.TrimSpace(strings.ReplaceAll(c.Data, "\u00a0", " ")) != "") {
				empty = false
			}
			return empty
		})
		if !empty {
			return false
		}
	}
	return true
}

// Options is type specific block configuration.
type Options map[string]any

// Merge combines option layers, later layers take precedence.
func Merge(layers ...Options) Options {
	res := make(Options)
	for _, l := range layers {
		maps.Copy(res, l)
	}
	return res
}

func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	return maps.Clone(o)
}

// Int returns numeric option, def when absent or not a number. Decoded JSON
// and YAML documents carry numbers of different types.
func (o Options) Int(key string, def int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

func (o Options) String(key, def string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return def
}

func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key].(bool); ok {
		return v
	}
	return def
}
