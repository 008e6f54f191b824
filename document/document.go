// Package document implements the ordered block sequence of an editing
// session: id assignment, insertion and deletion, the trailing empty
// paragraph invariant and serialization of live content.
package document

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cbe/block"
	"cbe/reactive"
)

var (
	ErrUnknownBlock = errors.New("unknown block")
	ErrOutOfRange   = errors.New("block index out of range")
)

// Source is a mounted editable surface owning live markup of one text part
// of a block until the document is serialized.
type Source interface {
	Part() string
	Content() string
}

// Document is the single source of truth for block order and existence.
type Document struct {
	log      *zap.Logger
	reg      *block.Registry
	defaults map[string]map[string]any
	focus    *reactive.Focus
	newID    func() (string, error)

	blocks  []block.Block
	issued  map[string]struct{}
	sources map[string][]Source
}

type Option func(*Document)

// WithDefaults sets document level per block type options.
func WithDefaults(defaults map[string]map[string]any) Option {
	return func(d *Document) {
		d.defaults = defaults
	}
}

// WithFocus shares focus register with other components.
func WithFocus(f *reactive.Focus) Option {
	return func(d *Document) {
		d.focus = f
	}
}

// WithIDGenerator replaces UUIDv7 id generation.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(d *Document) {
		d.newID = fn
	}
}

func newUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// New creates document holding single empty paragraph.
func New(reg *block.Registry, log *zap.Logger, options ...Option) (*Document, error) {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Document{
		log:     log.Named("document"),
		reg:     reg,
		newID:   newUUID,
		issued:  make(map[string]struct{}),
		sources: make(map[string][]Source),
	}
	for _, o := range options {
		o(d)
	}
	if d.focus == nil {
		d.focus = reactive.NewFocus()
	}
	if err := d.ensureTrailing(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Document) Focus() *reactive.Focus {
	return d.focus
}

// assignID returns new never issued id.
func (d *Document) assignID() (string, error) {
	for range 8 {
		id, err := d.newID()
		if err != nil {
			return "", fmt.Errorf("unable to generate block id: %w", err)
		}
		if _, used := d.issued[id]; !used && id != "" {
			d.issued[id] = struct{}{}
			return id, nil
		}
	}
	return "", errors.New("unable to generate unique block id")
}

func (d *Document) newBlock(t block.Type, opts block.Options) (block.Block, error) {
	b, err := d.reg.Empty(t, d.typeDefaults(t), opts)
	if err != nil {
		return block.Block{}, err
	}
	if b.ID, err = d.assignID(); err != nil {
		return block.Block{}, err
	}
	return b, nil
}

func (d *Document) typeDefaults(t block.Type) block.Options {
	if d.defaults == nil {
		return nil
	}
	return block.Options(d.defaults[t.String()])
}

// ensureTrailing appends empty paragraph unless document already ends with
// one.
func (d *Document) ensureTrailing() error {
	if n := len(d.blocks); n > 0 && d.blocks[n-1].IsEmptyParagraph() {
		return nil
	}
	p, err := d.newBlock(block.TypeParagraph, nil)
	if err != nil {
		return err
	}
	d.blocks = append(d.blocks, p)
	d.log.Debug("Trailing paragraph appended", zap.String("id", p.ID))
	return nil
}

// Insert creates empty block of type t at index (clamped to document
// bounds). Options precedence: opts, document defaults, type defaults.
func (d *Document) Insert(t block.Type, index int, opts block.Options, focus bool) (block.Block, error) {
	b, err := d.newBlock(t, opts)
	if err != nil {
		return block.Block{}, fmt.Errorf("unable to insert %s: %w", t, err)
	}
	index = min(max(index, 0), len(d.blocks))
	d.blocks = slices.Insert(d.blocks, index, b)
	if err := d.ensureTrailing(); err != nil {
		return block.Block{}, err
	}
	d.log.Debug("Block inserted", zap.Stringer("type", t), zap.String("id", b.ID), zap.Int("index", index))
	if focus {
		d.focus.Set(b.ID)
	}
	return b.Clone(), nil
}

// Delete removes block, clearing focus when it was held by the block.
// Returns false for unknown ids.
func (d *Document) Delete(id string) bool {
	i := d.Index(id)
	if i < 0 {
		return false
	}
	d.blocks = slices.Delete(d.blocks, i, i+1)
	delete(d.sources, id)
	d.focus.ClearIf(id)
	if err := d.ensureTrailing(); err != nil {
		d.log.Error("Unable to restore trailing paragraph", zap.Error(err))
	}
	d.log.Debug("Block deleted", zap.String("id", id), zap.Int("index", i))
	return true
}

func (d *Document) find(id string) (*block.Block, error) {
	i := d.Index(id)
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrUnknownBlock)
	}
	return &d.blocks[i], nil
}

// SetContent replaces block content.
func (d *Document) SetContent(id string, content any) error {
	b, err := d.find(id)
	if err != nil {
		return err
	}
	b.Content = content
	return d.ensureTrailing()
}

// SetText replaces markup of block text part.
func (d *Document) SetText(id, part, markup string) error {
	b, err := d.find(id)
	if err != nil {
		return err
	}
	if err := b.SetText(part, markup); err != nil {
		return err
	}
	return d.ensureTrailing()
}

// SetProps replaces block inline properties.
func (d *Document) SetProps(id string, props block.Props) error {
	b, err := d.find(id)
	if err != nil {
		return err
	}
	b.Props = props.Clone()
	return nil
}

// Update applies fn to the block in place, used for structured content
// edits (tables, lists, images).
func (d *Document) Update(id string, fn func(b *block.Block) error) error {
	b, err := d.find(id)
	if err != nil {
		return err
	}
	if err := fn(b); err != nil {
		return err
	}
	return d.ensureTrailing()
}

// Reorder moves block from one index to another, block identity is kept.
func (d *Document) Reorder(from, to int) error {
	if from < 0 || from >= len(d.blocks) || to < 0 || to >= len(d.blocks) {
		return fmt.Errorf("reorder %d -> %d of %d blocks: %w", from, to, len(d.blocks), ErrOutOfRange)
	}
	if from == to {
		return nil
	}
	b := d.blocks[from]
	d.blocks = slices.Delete(d.blocks, from, from+1)
	d.blocks = slices.Insert(d.blocks, to, b)
	d.log.Debug("Block moved", zap.String("id", b.ID), zap.Int("from", from), zap.Int("to", to))
	return d.ensureTrailing()
}

// Attach registers live content source for a block part, replacing previous
// source of the same part.
func (d *Document) Attach(id string, src Source) error {
	if d.Index(id) < 0 {
		return fmt.Errorf("%s: %w", id, ErrUnknownBlock)
	}
	srcs := slices.DeleteFunc(d.sources[id], func(s Source) bool { return s.Part() == src.Part() })
	d.sources[id] = append(srcs, src)
	return nil
}

// Detach forgets all live sources of the block.
func (d *Document) Detach(id string) {
	delete(d.sources, id)
}

// pull writes live content of mounted sources into the model.
func (d *Document) pull() {
	for i := range d.blocks {
		b := &d.blocks[i]
		for _, src := range d.sources[b.ID] {
			if err := b.SetText(src.Part(), src.Content()); err != nil {
				d.log.Warn("Unable to read back live content", zap.String("id", b.ID), zap.Error(err))
			}
		}
	}
}

// Serialize pulls live content from every mounted surface and returns
// detached copy of the document.
func (d *Document) Serialize() []block.Block {
	d.pull()
	if err := d.ensureTrailing(); err != nil {
		d.log.Error("Unable to restore trailing paragraph", zap.Error(err))
	}
	return d.Blocks()
}

// Blocks returns copy of the model as is, without reading live content.
func (d *Document) Blocks() []block.Block {
	res := make([]block.Block, len(d.blocks))
	for i, b := range d.blocks {
		res[i] = b.Clone()
	}
	return res
}

// Load replaces document content. Blocks keep their ids, missing or
// duplicate ids are reassigned. Live sources are dropped.
func (d *Document) Load(blocks []block.Block) error {
	loaded := make([]block.Block, 0, len(blocks))
	seen := make(map[string]struct{}, len(blocks))
	for _, b := range blocks {
		if !d.reg.Has(b.Type) {
			return fmt.Errorf("unable to load block %s: %s: %w", b.ID, b.Type, block.ErrUnknownType)
		}
		b = b.Clone()
		if _, dup := seen[b.ID]; dup || b.ID == "" {
			id, err := d.assignID()
			if err != nil {
				return err
			}
			d.log.Debug("Block id reassigned", zap.String("was", b.ID), zap.String("id", id))
			b.ID = id
		}
		seen[b.ID] = struct{}{}
		d.issued[b.ID] = struct{}{}
		loaded = append(loaded, b)
	}
	d.blocks = loaded
	d.sources = make(map[string][]Source)
	d.focus.Clear()
	return d.ensureTrailing()
}

func (d *Document) Len() int {
	return len(d.blocks)
}

// Index returns position of the block, -1 when absent.
func (d *Document) Index(id string) int {
	return slices.IndexFunc(d.blocks, func(b block.Block) bool { return b.ID == id })
}

// Block returns copy of the block.
func (d *Document) Block(id string) (block.Block, bool) {
	i := d.Index(id)
	if i < 0 {
		return block.Block{}, false
	}
	return d.blocks[i].Clone(), true
}

// At returns copy of the block at index.
func (d *Document) At(i int) (block.Block, bool) {
	if i < 0 || i >= len(d.blocks) {
		return block.Block{}, false
	}
	return d.blocks[i].Clone(), true
}
