// Package builder composes document model, editable surfaces, formatting,
// floating toolbar and table editing into single editor instance.
package builder

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"cbe/block"
	"cbe/config"
	"cbe/document"
	"cbe/dom"
	"cbe/format"
	"cbe/surface"
	"cbe/table"
	"cbe/toolbar"
)

// Image is result of completed upload.
type Image struct {
	Src string
	Alt string
}

// UploadFunc transfers image data, preview is shown while it runs.
type UploadFunc func(ctx context.Context, data []byte, preview string) (Image, error)

// ChangeListener receives serialized document after every change.
type ChangeListener func(blocks []block.Block)

var (
	ErrNoUploader = errors.New("image upload is not configured")
	ErrWrongType  = errors.New("operation is not supported by block type")
	ErrNoDrag     = errors.New("no block is being dragged")
)

type Builder struct {
	log *zap.Logger
	cfg *config.EditorConfig

	reg     *block.Registry
	doc     *document.Document
	host    *html.Node
	sel     *dom.Selection
	watcher dom.ChangeWatcher
	sched   dom.Scheduler

	surfaces   map[string]map[string]*surface.Surface
	engines    map[*html.Node]*format.Engine
	tables     map[string]*table.Controller
	toolbar    *toolbar.Toolbar
	tbLayout   toolbar.Layout
	upload     UploadFunc
	uploads    map[string]context.CancelFunc
	listeners  []ChangeListener
	dragging   int
	unsubFocus func()
	closed     bool
}

type Option func(*Builder)

func WithRegistry(reg *block.Registry) Option {
	return func(b *Builder) {
		b.reg = reg
	}
}

func WithUploader(fn UploadFunc) Option {
	return func(b *Builder) {
		b.upload = fn
	}
}

func WithChangeListener(fn ChangeListener) Option {
	return func(b *Builder) {
		b.listeners = append(b.listeners, fn)
	}
}

// WithWatcher sets host change notifications source. When watcher also
// accepts notifications formatting changes are reported to it.
func WithWatcher(w dom.ChangeWatcher) Option {
	return func(b *Builder) {
		b.watcher = w
	}
}

func WithScheduler(s dom.Scheduler) Option {
	return func(b *Builder) {
		b.sched = s
	}
}

// WithSelection shares host selection, private one is created otherwise.
func WithSelection(sel *dom.Selection) Option {
	return func(b *Builder) {
		b.sel = sel
	}
}

// WithToolbarLayout provides measurements for floating toolbar.
func WithToolbarLayout(l toolbar.Layout) Option {
	return func(b *Builder) {
		b.tbLayout = l
	}
}

// New creates editor over host node holding block surfaces.
func New(cfg *config.EditorConfig, host *html.Node, log *zap.Logger, options ...Option) (*Builder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg == nil {
		return nil, errors.New("editor configuration is required")
	}
	if host == nil {
		host = dom.Element("div")
	}
	b := &Builder{
		log:      log.Named("builder"),
		cfg:      cfg,
		host:     host,
		sched:    dom.Immediate{},
		surfaces: make(map[string]map[string]*surface.Surface),
		engines:  make(map[*html.Node]*format.Engine),
		tables:   make(map[string]*table.Controller),
		uploads:  make(map[string]context.CancelFunc),
		dragging: -1,
	}
	for _, o := range options {
		o(b)
	}
	if b.reg == nil {
		b.reg = block.DefaultRegistry()
	}
	if b.sel == nil {
		b.sel = dom.NewSelection()
	}
	if b.watcher == nil {
		b.log.Debug("Change watcher is not available, live content is read on serialize only")
	}

	doc, err := document.New(b.reg, log, document.WithDefaults(cfg.Defaults))
	if err != nil {
		return nil, fmt.Errorf("unable to create document: %w", err)
	}
	b.doc = doc
	b.unsubFocus = doc.Focus().Subscribe(b.focusChanged)

	b.toolbar = toolbar.New(host, b.sel, b.tbLayout, cfg.Toolbar, log,
		toolbar.WithScheduler(b.sched),
		toolbar.WithFormatter(formatter{b}),
	)
	return b, nil
}

func (b *Builder) Document() *document.Document {
	return b.doc
}

func (b *Builder) Registry() *block.Registry {
	return b.reg
}

func (b *Builder) Selection() *dom.Selection {
	return b.sel
}

func (b *Builder) Toolbar() *toolbar.Toolbar {
	return b.toolbar
}

func (b *Builder) Host() *html.Node {
	return b.host
}

// changed pulls live content and notifies listeners.
func (b *Builder) changed() {
	if b.closed || len(b.listeners) == 0 {
		return
	}
	blocks := b.doc.Serialize()
	for _, fn := range b.listeners {
		fn(blocks)
	}
}

// focusChanged moves keyboard focus to surface of the new holder. Tables
// other than the holder lose their cell selection.
func (b *Builder) focusChanged(id string) {
	for tid, ctrl := range b.tables {
		if tid != id {
			ctrl.Cells.Blur()
		}
	}
	if id == "" {
		return
	}
	parts := b.surfaces[id]
	if s, ok := parts[block.PartMain]; ok {
		s.Focus()
		return
	}
	if s, ok := parts[block.PartCite]; ok {
		s.Focus()
	}
}

// Load replaces document content, every mounted surface and table is
// unmounted.
func (b *Builder) Load(blocks []block.Block) error {
	b.unmountAll()
	if err := b.doc.Load(blocks); err != nil {
		return err
	}
	b.changed()
	return nil
}

// Insert adds new empty block.
func (b *Builder) Insert(t block.Type, index int, opts block.Options, focus bool) (block.Block, error) {
	blk, err := b.doc.Insert(t, index, opts, focus)
	if err != nil {
		return block.Block{}, err
	}
	b.changed()
	return blk, nil
}

// Delete removes block together with its surfaces.
func (b *Builder) Delete(id string) bool {
	b.UnmountBlock(id)
	if !b.doc.Delete(id) {
		return false
	}
	b.changed()
	return true
}

// Reorder moves block.
func (b *Builder) Reorder(from, to int) error {
	if err := b.doc.Reorder(from, to); err != nil {
		return err
	}
	b.changed()
	return nil
}

// SetContent replaces block content, mounted surfaces are reseeded.
func (b *Builder) SetContent(id string, content any) error {
	if err := b.doc.SetContent(id, content); err != nil {
		return err
	}
	// mounted table engine would keep editing replaced matrix
	b.UnmountTable(id)
	if err := b.remount(id); err != nil {
		return err
	}
	b.changed()
	return nil
}

// Blocks returns model copy without pulling live content.
func (b *Builder) Blocks() []block.Block {
	return b.doc.Blocks()
}

// Serialize returns current document with live content.
func (b *Builder) Serialize() []block.Block {
	return b.doc.Serialize()
}

// Close tears down every subscription and pending upload.
func (b *Builder) Close() {
	if b.closed {
		return
	}
	b.unmountAll()
	for id, cancel := range b.uploads {
		cancel()
		delete(b.uploads, id)
	}
	if b.unsubFocus != nil {
		b.unsubFocus()
		b.unsubFocus = nil
	}
	b.toolbar.Close()
	b.closed = true
	b.log.Debug("Editor closed")
}

func (b *Builder) unmountAll() {
	for id := range b.surfaces {
		b.UnmountBlock(id)
	}
	for id := range b.tables {
		b.UnmountTable(id)
	}
}
