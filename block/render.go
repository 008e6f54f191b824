package block

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"

	"cbe/dom"
)

// AppendMarkup converts inline markup into etree nodes under parent. Editor
// markers are dropped keeping their content.
func AppendMarkup(parent *etree.Element, markup string) error {
	if markup == "" {
		return nil
	}
	nodes, err := dom.ParseFragment(markup)
	if err != nil {
		return err
	}
	appendNodes(parent, nodes)
	return nil
}

func appendNodes(parent *etree.Element, nodes []*html.Node) {
	for _, n := range nodes {
		switch n.Type {
		case html.TextNode:
			parent.CreateText(n.Data)
		case html.ElementNode:
			if dom.IsMarker(n) {
				appendNodes(parent, dom.Children(n))
				continue
			}
			el := parent.CreateElement(n.Data)
			for _, a := range n.Attr {
				el.CreateAttr(a.Key, a.Val)
			}
			appendNodes(el, dom.Children(n))
		}
	}
}

// blockElement creates element for block carrying its id and inline
// properties.
func blockElement(parent *etree.Element, tag string, b *Block) *etree.Element {
	el := parent.CreateElement(tag)
	if b.ID != "" {
		el.CreateAttr("data-block-id", b.ID)
	}
	writeProps(el, b.Props)
	return el
}

func writeProps(el *etree.Element, p Props) {
	for _, v := range p {
		el.CreateAttr(PropsAttrName(v.Name), v.Value)
		if v.Name == "align" {
			el.CreateAttr("style", "text-align: "+v.Value)
		}
	}
}

func textContent(b *Block) (string, error) {
	s, ok := b.Content.(string)
	if !ok && b.Content != nil {
		return "", fmt.Errorf("unexpected %s content %T", b.Type, b.Content)
	}
	return s, nil
}

func renderParagraph(parent *etree.Element, b *Block) error {
	s, err := textContent(b)
	if err != nil {
		return err
	}
	return AppendMarkup(blockElement(parent, "p", b), s)
}

func renderHeading(parent *etree.Element, b *Block) error {
	s, err := textContent(b)
	if err != nil {
		return err
	}
	level := min(max(b.Options.Int("level", 2), 1), 6)
	return AppendMarkup(blockElement(parent, "h"+strconv.Itoa(level), b), s)
}

func renderCode(parent *etree.Element, b *Block) error {
	s, err := textContent(b)
	if err != nil {
		return err
	}
	pre := blockElement(parent, "pre", b)
	code := pre.CreateElement("code")
	if lang := b.Options.String("language", ""); lang != "" && lang != "plain" {
		code.CreateAttr("class", "language-"+lang)
	}
	// code is edited as plain text, any markup the surface produced is
	// reduced to its text
	if nodes, err := dom.ParseFragment(s); err == nil {
		var sb strings.Builder
		for _, n := range nodes {
			sb.WriteString(dom.TextContent(n))
		}
		s = sb.String()
	}
	code.CreateText(s)
	return nil
}

func renderList(parent *etree.Element, b *Block) error {
	items, ok := b.Content.([]ListItem)
	if !ok && b.Content != nil {
		return fmt.Errorf("unexpected list content %T", b.Content)
	}
	tag := "ul"
	if b.Options.String("style", "unordered") == "ordered" {
		tag = "ol"
	}
	return writeItems(blockElement(parent, tag, b), tag, items)
}

func writeItems(list *etree.Element, tag string, items []ListItem) error {
	for _, it := range items {
		li := list.CreateElement("li")
		writeProps(li, it.Props)
		if err := AppendMarkup(li, it.Content); err != nil {
			return err
		}
		if len(it.Children) > 0 {
			if err := writeItems(li.CreateElement(tag), tag, it.Children); err != nil {
				return err
			}
		}
	}
	return nil
}

func renderImage(parent *etree.Element, b *Block) error {
	img, ok := b.Content.(ImageContent)
	if !ok {
		return fmt.Errorf("unexpected image content %T", b.Content)
	}
	fig := blockElement(parent, "figure", b)
	class := "image"
	if img.Uploading {
		class += " uploading"
	}
	fig.CreateAttr("class", class)
	if img.Src == "" {
		return nil
	}
	el := fig.CreateElement("img")
	el.CreateAttr("src", img.Src)
	el.CreateAttr("alt", img.Alt)
	return nil
}

func renderQuote(parent *etree.Element, b *Block) error {
	q, ok := b.Content.(QuoteContent)
	if !ok {
		return fmt.Errorf("unexpected quote content %T", b.Content)
	}
	fig := blockElement(parent, "figure", b)
	fig.CreateAttr("class", "quote")
	bq := fig.CreateElement("blockquote")
	writeProps(bq, q.Cite.Props)
	if err := AppendMarkup(bq, q.Cite.Content); err != nil {
		return err
	}
	if q.Caption != nil && !IsEmptyMarkup(q.Caption.Content) {
		caption := fig.CreateElement("figcaption")
		writeProps(caption, q.Caption.Props)
		if err := AppendMarkup(caption, q.Caption.Content); err != nil {
			return err
		}
	}
	return nil
}

func renderTable(parent *etree.Element, b *Block) error {
	t, ok := b.Content.(*Table)
	if !ok || t == nil {
		return fmt.Errorf("unexpected table content %T", b.Content)
	}
	if err := t.Validate(); err != nil {
		return err
	}
	table := blockElement(parent, "table", b)
	rows := t.Rows
	if b.Options.Bool("header", false) {
		tr := table.CreateElement("thead").CreateElement("tr")
		for _, c := range rows[0] {
			if err := writeCell(tr, "th", c); err != nil {
				return err
			}
		}
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil
	}
	body := table.CreateElement("tbody")
	for _, row := range rows {
		tr := body.CreateElement("tr")
		for _, c := range row {
			if err := writeCell(tr, "td", c); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeCell(tr *etree.Element, tag string, c Cell) error {
	td := tr.CreateElement(tag)
	if c.Options.Colspan > 1 {
		td.CreateAttr("colspan", strconv.Itoa(c.Options.Colspan))
	}
	if c.Options.Rowspan > 1 {
		td.CreateAttr("rowspan", strconv.Itoa(c.Options.Rowspan))
	}
	for _, v := range c.Props {
		td.CreateAttr(PropsAttrName(v.Name), v.Value)
	}
	if style := cellStyle(c); style != "" {
		td.CreateAttr("style", style)
	}
	return AppendMarkup(td, c.Content)
}

func cellStyle(c Cell) string {
	styles := maps.Clone(c.Styles)
	if styles == nil {
		styles = map[string]string{}
	}
	if c.Options.Width != nil {
		styles["width"] = strconv.FormatFloat(*c.Options.Width, 'f', -1, 64) + "px"
	}
	keys := slices.Sorted(maps.Keys(styles))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+styles[k])
	}
	return strings.Join(parts, "; ")
}

func renderDivider(parent *etree.Element, b *Block) error {
	blockElement(parent, "hr", b)
	return nil
}
