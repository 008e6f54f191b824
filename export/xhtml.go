// Package export produces standalone documents from serialized blocks.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/gosimple/slug"

	"cbe/block"
)

var headingTags = map[string]bool{"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true}

// XHTML renders blocks into complete XHTML page. Headings receive id
// attributes usable as anchors. Empty trailing paragraph is not rendered.
func XHTML(blocks []block.Block, title string, reg *block.Registry) (*etree.Document, error) {
	if reg == nil {
		reg = block.DefaultRegistry()
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateDirective("DOCTYPE html")

	html := doc.CreateElement("html")
	html.CreateAttr("xmlns", "http://www.w3.org/1999/xhtml")

	head := html.CreateElement("head")
	meta := head.CreateElement("meta")
	meta.CreateAttr("http-equiv", "Content-Type")
	meta.CreateAttr("content", "text/html; charset=utf-8")
	head.CreateElement("title").SetText(title)

	body := html.CreateElement("body")
	for i := range blocks {
		b := &blocks[i]
		if i == len(blocks)-1 && b.IsEmptyParagraph() {
			break
		}
		if err := reg.Render(body, b); err != nil {
			return nil, fmt.Errorf("unable to export block %d (%s): %w", i, b.ID, err)
		}
	}
	anchorHeadings(body)
	doc.Indent(2)
	return doc, nil
}

// anchorHeadings assigns unique slug ids to headings lacking one.
func anchorHeadings(body *etree.Element) {
	used := make(map[string]int)
	for _, el := range body.FindElements("//*") {
		if !headingTags[el.Tag] || el.SelectAttr("id") != nil {
			continue
		}
		base := slug.Make(strings.TrimSpace(textOf(el)))
		if base == "" {
			base = "section"
		}
		id := base
		if n := used[base]; n > 0 {
			id = base + "-" + strconv.Itoa(n+1)
		}
		used[base]++
		el.CreateAttr("id", id)
	}
}

func textOf(el *etree.Element) string {
	var sb strings.Builder
	for _, t := range el.Child {
		switch v := t.(type) {
		case *etree.CharData:
			sb.WriteString(v.Data)
		case *etree.Element:
			sb.WriteString(textOf(v))
		}
	}
	return sb.String()
}
