package block

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type blockJSON struct {
	ID      string          `json:"id"`
	Type    Type            `json:"type"`
	Content json.RawMessage `json:"content"`
	Props   Props           `json:"props,omitempty"`
	Options Options         `json:"options"`
}

func (b Block) MarshalJSON() ([]byte, error) {
	content, err := json.Marshal(b.Content)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal content of block %s: %w", b.ID, err)
	}
	opts := b.Options
	if opts == nil {
		opts = Options{}
	}
	return json.Marshal(blockJSON{ID: b.ID, Type: b.Type, Content: content, Props: b.Props, Options: opts})
}

// UnmarshalJSON selects content shape from block type.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw blockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	content, err := decodeContent(raw.Type, raw.Content)
	if err != nil {
		return fmt.Errorf("block %s: %w", raw.ID, err)
	}
	*b = Block{ID: raw.ID, Type: raw.Type, Content: content, Props: raw.Props, Options: raw.Options}
	return nil
}

func decodeContent(t Type, data json.RawMessage) (any, error) {
	isNull := len(data) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null"))
	switch t {
	case TypeParagraph, TypeHeading, TypeCode:
		var s string
		if isNull {
			return s, nil
		}
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("unable to decode %s content: %w", t, err)
		}
		return s, nil
	case TypeImage:
		var img ImageContent
		if !isNull {
			if err := json.Unmarshal(data, &img); err != nil {
				return nil, fmt.Errorf("unable to decode image content: %w", err)
			}
		}
		return img, nil
	case TypeQuote:
		var q QuoteContent
		if !isNull {
			if err := json.Unmarshal(data, &q); err != nil {
				return nil, fmt.Errorf("unable to decode quote content: %w", err)
			}
		}
		return q, nil
	case TypeList:
		var items []ListItem
		if !isNull {
			if err := json.Unmarshal(data, &items); err != nil {
				return nil, fmt.Errorf("unable to decode list content: %w", err)
			}
		}
		return items, nil
	case TypeTable:
		if isNull {
			return NewTable(1, 1), nil
		}
		t := &Table{}
		if err := json.Unmarshal(data, t); err != nil {
			return nil, fmt.Errorf("unable to decode table content: %w", err)
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		return t, nil
	case TypeDivider:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown block type %d", int(t))
	}
}

func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Rows)
}

func (t *Table) UnmarshalJSON(data []byte) error {
	var rows [][]Cell
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	for r := range rows {
		for c := range rows[r] {
			cell := &rows[r][c]
			if cell.Styles == nil {
				cell.Styles = map[string]string{}
			}
			if cell.Options.Colspan == 0 {
				cell.Options.Colspan = 1
			}
			if cell.Options.Rowspan == 0 {
				cell.Options.Rowspan = 1
			}
		}
	}
	t.Rows = rows
	return nil
}
