package document

import (
	"encoding/json"
	"fmt"

	"github.com/amazon-ion/ion-go/ion"

	"cbe/block"
	"cbe/utils/debug"
)

// MarshalBlocks encodes serialized document.
func MarshalBlocks(blocks []block.Block) ([]byte, error) {
	data, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("unable to encode document: %w", err)
	}
	return data, nil
}

// UnmarshalBlocks decodes serialized document.
func UnmarshalBlocks(data []byte) ([]block.Block, error) {
	var blocks []block.Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("unable to decode document: %w", err)
	}
	return blocks, nil
}

// MarshalIon produces Ion text of the serialized document. Blocks go through
// their JSON form so Ion output has the same shape as the exchange format.
func MarshalIon(blocks []block.Block) ([]byte, error) {
	data, err := json.Marshal(blocks)
	if err != nil {
		return nil, fmt.Errorf("unable to encode document: %w", err)
	}
	var generic []any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("unable to prepare document: %w", err)
	}
	text, err := ion.MarshalText(generic)
	if err != nil {
		return nil, fmt.Errorf("unable to encode document as ion: %w", err)
	}
	return text, nil
}

// String returns debug dump of the model (live content is not pulled).
func (d *Document) String() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "document: %d block(s), focus=%q", len(d.blocks), d.focus.Current())
	for i, b := range d.blocks {
		live := ""
		if n := len(d.sources[b.ID]); n > 0 {
			live = fmt.Sprintf(" live=%d", n)
		}
		tw.Line(1, "[%d] %s %s%s", i, b.Type, b.ID, live)
		tw.Map(2, "props", b.Props.Map())
		writeContent(tw, 2, &b)
		if len(b.Options) > 0 {
			opts := make(map[string]string, len(b.Options))
			for k, v := range b.Options {
				opts[k] = fmt.Sprint(v)
			}
			tw.Map(2, "options", opts)
		}
	}
	return tw.String()
}

func writeContent(tw *debug.TreeWriter, depth int, b *block.Block) {
	switch c := b.Content.(type) {
	case string:
		tw.TextBlock(depth, "content", c)
	case block.ImageContent:
		tw.Line(depth, "image: src=%q alt=%q uploading=%t", shorten(c.Src), c.Alt, c.Uploading)
	case block.QuoteContent:
		tw.TextBlock(depth, "cite", c.Cite.Content)
		if c.Caption != nil {
			tw.TextBlock(depth, "caption", c.Caption.Content)
		}
	case *block.Table:
		tw.Line(depth, "table: %dx%d", c.RowCount(), c.Columns())
		for r, row := range c.Rows {
			for col, cell := range row {
				if cell.Content != "" {
					tw.TextBlock(depth+1, fmt.Sprintf("cell[%d,%d]", r, col), cell.Content)
				}
			}
		}
	case []block.ListItem:
		block.ListWalk(c, func(path block.ItemPath, it block.ListItem) bool {
			tw.TextBlock(depth+len(path)-1, "item"+path.String(), it.Content)
			return true
		})
	}
}

// shorten keeps data URIs readable in dumps.
func shorten(s string) string {
	if len(s) > 48 {
		return s[:45] + "..."
	}
	return s
}
