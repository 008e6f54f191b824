package block

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

var ErrUnknownType = errors.New("unknown block type")

// Renderer appends XHTML representation of the block to parent.
type Renderer func(parent *etree.Element, b *Block) error

// Definition describes block type: default options, empty content constructor
// (receives merged options) and renderer.
type Definition struct {
	Defaults Options
	New      func(opts Options) any
	Render   Renderer
}

// Registry maps block types to their definitions.
type Registry struct {
	defs  map[Type]Definition
	order []Type
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[Type]Definition)}
}

// Register adds or replaces block type definition.
func (r *Registry) Register(t Type, def Definition) {
	if _, exists := r.defs[t]; !exists {
		r.order = append(r.order, t)
	}
	r.defs[t] = def
}

func (r *Registry) Has(t Type) bool {
	_, ok := r.defs[t]
	return ok
}

// Types returns registered types in registration order.
func (r *Registry) Types() []Type {
	return append([]Type(nil), r.order...)
}

// Empty creates block of type t in its empty state. Option layers are merged
// over type defaults, later layers win. Id is not assigned.
func (r *Registry) Empty(t Type, layers ...Options) (Block, error) {
	def, ok := r.defs[t]
	if !ok {
		return Block{}, fmt.Errorf("%s: %w", t, ErrUnknownType)
	}
	opts := Merge(append([]Options{def.Defaults}, layers...)...)
	var content any
	if def.New != nil {
		content = def.New(opts)
	}
	return Block{Type: t, Content: content, Options: opts}, nil
}

// Render appends XHTML of the block to parent.
func (r *Registry) Render(parent *etree.Element, b *Block) error {
	def, ok := r.defs[b.Type]
	if !ok || def.Render == nil {
		return fmt.Errorf("%s: %w", b.Type, ErrUnknownType)
	}
	if err := def.Render(parent, b); err != nil {
		return fmt.Errorf("unable to render block %s: %w", b.ID, err)
	}
	return nil
}

// DefaultRegistry returns registry with all built in block types.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(TypeParagraph, Definition{
		Defaults: Options{},
		New:      func(Options) any { return "" },
		Render:   renderParagraph,
	})
	r.Register(TypeHeading, Definition{
		Defaults: Options{"level": 2},
		New:      func(Options) any { return "" },
		Render:   renderHeading,
	})
	r.Register(TypeList, Definition{
		Defaults: Options{"style": "unordered"},
		New:      func(Options) any { return []ListItem{{}} },
		Render:   renderList,
	})
	r.Register(TypeImage, Definition{
		Defaults: Options{},
		New:      func(Options) any { return ImageContent{} },
		Render:   renderImage,
	})
	r.Register(TypeQuote, Definition{
		Defaults: Options{"caption": true},
		New: func(opts Options) any {
			q := QuoteContent{}
			if opts.Bool("caption", true) {
				q.Caption = &QuotePart{}
			}
			return q
		},
		Render: renderQuote,
	})
	r.Register(TypeCode, Definition{
		Defaults: Options{"language": "plain"},
		New:      func(Options) any { return "" },
		Render:   renderCode,
	})
	r.Register(TypeTable, Definition{
		Defaults: Options{"rows": 2, "columns": 2, "header": false},
		New: func(opts Options) any {
			return NewTable(opts.Int("rows", 2), opts.Int("columns", 2))
		},
		Render: renderTable,
	})
	r.Register(TypeDivider, Definition{
		Defaults: Options{},
		New:      func(Options) any { return nil },
		Render:   renderDivider,
	})
	return r
}
