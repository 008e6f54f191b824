package builder

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"cbe/block"
	"cbe/dom"
	"cbe/format"
	"cbe/surface"
	"cbe/table"
)

// MountBlock binds editable node to the main text part of the block.
func (b *Builder) MountBlock(id string, node *html.Node) (*surface.Surface, error) {
	return b.MountPart(id, block.PartMain, node)
}

// MountPart binds editable node to named text part of the block. Mounting
// the same part again replaces previous surface.
func (b *Builder) MountPart(id, part string, node *html.Node) (*surface.Surface, error) {
	blk, ok := b.doc.Block(id)
	if !ok {
		return nil, fmt.Errorf("unable to mount %s: unknown block", id)
	}
	text, err := blk.Text(part)
	if err != nil {
		return nil, fmt.Errorf("unable to mount: %w", err)
	}
	parts := b.surfaces[id]
	if parts == nil {
		parts = make(map[string]*surface.Surface)
		b.surfaces[id] = parts
	}
	if prev, ok := parts[part]; ok {
		prev.Unmount()
		delete(b.engines, prev.Node())
	}

	s := surface.New(node, b.watcher, b.sel, intents{b}, b.log, surface.WithPart(part))
	if err := s.Mount(id, text, func() int { return b.doc.Index(id) }); err != nil {
		return nil, err
	}
	parts[part] = s
	if err := b.doc.Attach(id, s); err != nil {
		return nil, err
	}
	b.log.Debug("Block mounted", zap.String("id", id), zap.String("part", part))
	if b.doc.Focus().Is(id) {
		s.Focus()
	}
	return s, nil
}

// UnmountBlock stops every surface of the block.
func (b *Builder) UnmountBlock(id string) {
	for _, s := range b.surfaces[id] {
		s.Unmount()
		delete(b.engines, s.Node())
	}
	delete(b.surfaces, id)
	b.doc.Detach(id)
	b.UnmountTable(id)
}

// remount reseeds mounted surfaces after content was replaced.
func (b *Builder) remount(id string) error {
	blk, ok := b.doc.Block(id)
	if !ok {
		return nil
	}
	for part, s := range b.surfaces[id] {
		text, err := blk.Text(part)
		if err != nil {
			return err
		}
		dom.RemoveChildren(s.Node())
		if err := s.Mount(id, text, func() int { return b.doc.Index(id) }); err != nil {
			return err
		}
	}
	return nil
}

// Surface returns mounted surface of block part.
func (b *Builder) Surface(id, part string) (*surface.Surface, bool) {
	s, ok := b.surfaces[id][part]
	return s, ok
}

// surfaceAt returns surface which node contains n.
func (b *Builder) surfaceAt(n *html.Node) *surface.Surface {
	for _, parts := range b.surfaces {
		for _, s := range parts {
			if dom.Contains(s.Node(), n) {
				return s
			}
		}
	}
	return nil
}

// Formatter returns formatting engine bound to surface holding selection.
func (b *Builder) Formatter() (*format.Engine, bool) {
	r, ok := b.sel.Range()
	if !ok {
		return nil, false
	}
	s := b.surfaceAt(r.Start.Node)
	if s == nil {
		return nil, false
	}
	if e, ok := b.engines[s.Node()]; ok {
		return e, true
	}
	var opts []format.Option
	if n, ok := b.watcher.(dom.Notifier); ok {
		opts = append(opts, format.WithNotifier(n))
	}
	e := format.New(s.Node(), b.sel, b.log, opts...)
	b.engines[s.Node()] = e
	return e, true
}

// Format runs named formatting command over selection.
func (b *Builder) Format(name string) (bool, error) {
	c, err := format.LookupCommand(name)
	if err != nil {
		return false, err
	}
	return formatter{b}.Apply(c), nil
}

type formatter struct {
	b *Builder
}

func (f formatter) Apply(c format.Command) bool {
	e, ok := f.b.Formatter()
	if !ok {
		return false
	}
	if !e.Apply(c) {
		return false
	}
	// without watcher nothing reports mutation back
	if _, notifies := f.b.watcher.(dom.Notifier); !notifies {
		if s := f.b.surfaceAt(e.Host()); s != nil {
			s.Sync()
			f.b.pushProps(s.BlockID(), s.Node())
		}
	}
	return true
}

// pushProps stores inline properties found on surface node over block
// properties, reporting change only when something differs.
func (b *Builder) pushProps(id string, node *html.Node) {
	blk, ok := b.doc.Block(id)
	if !ok {
		return
	}
	props := blk.Props.Clone()
	for _, p := range block.PropsFromAttrs(node.Attr) {
		props.Set(p.Name, p.Value)
	}
	if !props.Equal(blk.Props) {
		intents{b}.PropsChanged(id, props)
	}
}

// MountTable binds table editing to table block. Changes are written back to
// the document.
func (b *Builder) MountTable(id string, layout table.Layout, pointer table.PointerHost) (*table.Controller, error) {
	blk, ok := b.doc.Block(id)
	if !ok {
		return nil, fmt.Errorf("unable to mount table %s: unknown block", id)
	}
	tbl, ok := blk.Content.(*block.Table)
	if blk.Type != block.TypeTable || !ok {
		return nil, fmt.Errorf("unable to mount %s as table: %w", id, ErrWrongType)
	}
	b.UnmountTable(id)

	ctrl := table.New(tbl, &b.cfg.Table, layout, pointer, b.sched, b.log)
	ctrl.Engine.OnChange(func(c table.Change) {
		if err := b.doc.SetContent(id, ctrl.Engine.Table().Clone()); err != nil {
			b.log.Warn("Unable to store table", zap.String("id", id), zap.Error(err))
			return
		}
		b.changed()
	})
	b.tables[id] = ctrl
	b.log.Debug("Table mounted", zap.String("id", id))
	return ctrl, nil
}

func (b *Builder) UnmountTable(id string) {
	if ctrl, ok := b.tables[id]; ok {
		ctrl.Close()
		delete(b.tables, id)
	}
}

func (b *Builder) Table(id string) (*table.Controller, bool) {
	c, ok := b.tables[id]
	return c, ok
}

// intents applies surface intents to the document.
type intents struct {
	b *Builder
}

func (i intents) ContentChanged(ref surface.Ref, content string) {
	if err := i.b.doc.SetText(ref.BlockID, ref.Part, content); err != nil {
		i.b.log.Warn("Unable to store content", zap.String("id", ref.BlockID), zap.Error(err))
		return
	}
	i.b.changed()
}

func (i intents) PropsChanged(id string, props block.Props) {
	if err := i.b.doc.SetProps(id, props); err != nil {
		i.b.log.Warn("Unable to store props", zap.String("id", id), zap.Error(err))
		return
	}
	i.b.changed()
}

// Split inserts paragraph after block and focuses it.
func (i intents) Split(index int) {
	if index < 0 {
		return
	}
	if _, err := i.b.Insert(block.TypeParagraph, index+1, nil, true); err != nil {
		i.b.log.Warn("Unable to split block", zap.Int("index", index), zap.Error(err))
	}
}

// Remove deletes block and focuses its predecessor, sole block is kept.
func (i intents) Remove(index int) {
	doc := i.b.doc
	if doc.Len() <= 1 {
		return
	}
	blk, ok := doc.At(index)
	if !ok {
		return
	}
	next := index - 1
	if next < 0 {
		next = index + 1
	}
	target, _ := doc.At(next)
	i.b.Delete(blk.ID)
	if target.ID != "" {
		doc.Focus().Set(target.ID)
	}
}
