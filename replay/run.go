package replay

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cbe/block"
	"cbe/builder"
	"cbe/dom"
	"cbe/surface"
)

var ErrNoEffect = errors.New("step had no effect")

// Runner applies script steps to builder. Block surfaces are created on
// demand under builder host.
type Runner struct {
	log         *zap.Logger
	b           *builder.Builder
	notifier    dom.Notifier
	placeholder []byte
}

type Option func(*Runner)

// WithPlaceholder sets image uploaded by steps not naming a file.
func WithPlaceholder(data []byte) Option {
	return func(r *Runner) {
		r.placeholder = data
	}
}

// NewRunner creates runner. When notifier is nil surfaces are synchronized
// explicitly after every edit.
func NewRunner(b *builder.Builder, notifier dom.Notifier, log *zap.Logger, options ...Option) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Runner{log: log.Named("replay"), b: b, notifier: notifier}
	for _, o := range options {
		o(r)
	}
	return r
}

// Run executes the whole script. Failing steps are reported and skipped.
func Run(ctx context.Context, b *builder.Builder, notifier dom.Notifier, s *Script, log *zap.Logger) error {
	return NewRunner(b, notifier, log).Run(ctx, s)
}

func (r *Runner) Run(ctx context.Context, s *Script) error {
	var errs error
	for i := range s.Steps {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		kind, err := s.Steps[i].Kind()
		if err == nil {
			err = r.step(ctx, s, &s.Steps[i], kind)
		}
		if err != nil {
			r.log.Warn("Step failed", zap.Int("step", i), zap.String("action", kind), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("step %d (%s): %w", i, kind, err))
			continue
		}
		r.log.Debug("Step done", zap.Int("step", i), zap.String("action", kind))
	}
	return errs
}

func (r *Runner) step(ctx context.Context, s *Script, st *Step, kind string) error {
	switch kind {
	case "insert":
		t, err := block.ParseType(st.Insert.Type)
		if err != nil {
			return err
		}
		_, err = r.b.Insert(t, st.Insert.Index, block.Options(st.Insert.Options), st.Insert.Focus)
		return err
	case "delete":
		blk, err := r.at(st.Delete.Index)
		if err != nil {
			return err
		}
		if !r.b.Delete(blk.ID) {
			return ErrNoEffect
		}
		return nil
	case "type":
		sf, err := r.surface(st.Type.TargetStep)
		if err != nil {
			return err
		}
		if err := dom.SetInnerHTML(sf.Node(), st.Type.Markup); err != nil {
			return err
		}
		r.touched(sf)
		return nil
	case "select":
		sf, err := r.surface(st.Select.TargetStep)
		if err != nil {
			return err
		}
		r.b.Selection().SelectText(sf.Node(), st.Select.Start, st.Select.End)
		return nil
	case "command":
		done, err := r.b.Format(st.Command)
		if err != nil {
			return err
		}
		if !done {
			return ErrNoEffect
		}
		return nil
	case "key":
		sf, err := r.surface(st.Key.TargetStep)
		if err != nil {
			return err
		}
		if !sf.Key(st.Key.Key) {
			return ErrNoEffect
		}
		return nil
	case "drag":
		if !r.b.BeginBlockDrag(st.Drag.From) {
			return fmt.Errorf("unable to drag block %d", st.Drag.From)
		}
		return r.b.DropBlock(st.Drag.To)
	case "table":
		return r.table(st.Table)
	case "list":
		return r.list(st.List)
	case "upload":
		return r.upload(ctx, s, st.Upload)
	case "suggest":
		found := r.b.Suggestions(st.Suggest.Query)
		if st.Suggest.Pick < 0 || st.Suggest.Pick >= len(found) {
			return fmt.Errorf("no suggestion %d for %q", st.Suggest.Pick, st.Suggest.Query)
		}
		_, err := r.b.InsertSuggestion(found[st.Suggest.Pick], st.Suggest.Index)
		return err
	}
	return fmt.Errorf("unknown action %s", kind)
}

func (r *Runner) at(index int) (block.Block, error) {
	blk, ok := r.b.Document().At(index)
	if !ok {
		return block.Block{}, fmt.Errorf("no block at %d", index)
	}
	return blk, nil
}

// surface returns mounted surface of addressed part, mounting new node when
// necessary.
func (r *Runner) surface(ts TargetStep) (*surface.Surface, error) {
	blk, err := r.at(ts.Index)
	if err != nil {
		return nil, err
	}
	if sf, ok := r.b.Surface(blk.ID, ts.Part); ok {
		return sf, nil
	}
	node := dom.Element(surfaceTag(blk.Type, ts.Part), "data-block-id", blk.ID)
	r.b.Host().AppendChild(node)
	sf, err := r.b.MountPart(blk.ID, ts.Part, node)
	if err != nil {
		r.b.Host().RemoveChild(node)
		return nil, err
	}
	return sf, nil
}

func surfaceTag(t block.Type, part string) string {
	switch {
	case part == block.PartCite:
		return "blockquote"
	case part == block.PartCaption:
		return "figcaption"
	case t == block.TypeHeading:
		return "h2"
	case t == block.TypeCode:
		return "pre"
	}
	return "p"
}

// touched reports edit of surface node the way host change watcher would.
func (r *Runner) touched(sf *surface.Surface) {
	if r.notifier != nil {
		r.notifier.Notify(dom.Record{Type: dom.ChildList, Target: sf.Node()})
		return
	}
	sf.Sync()
}

func (r *Runner) table(ts *TableStep) error {
	blk, err := r.at(ts.Index)
	if err != nil {
		return err
	}
	ctrl, ok := r.b.Table(blk.ID)
	if !ok {
		if ctrl, err = r.b.MountTable(blk.ID, nil, nil); err != nil {
			return err
		}
	}
	e := ctrl.Engine
	switch ts.Op {
	case "add-column":
		if !e.AddColumn() {
			return ErrNoEffect
		}
	case "add-row":
		if !e.AddRow() {
			return ErrNoEffect
		}
	case "delete-column":
		if !e.DeleteColumn() {
			return ErrNoEffect
		}
	case "delete-row":
		if !e.DeleteRow() {
			return ErrNoEffect
		}
	case "move-column":
		return e.MoveColumn(ts.From, ts.To)
	case "move-row":
		return e.MoveRow(ts.From, ts.To)
	case "set-cell":
		return e.SetCell(ts.Row, ts.Col, ts.Markup)
	case "width":
		return e.SetColumnWidth(ts.Col, ts.Width)
	default:
		return fmt.Errorf("unknown table operation %q", ts.Op)
	}
	return nil
}

func (r *Runner) list(ls *ListStep) error {
	blk, err := r.at(ls.Index)
	if err != nil {
		return err
	}
	items, ok := blk.Content.([]block.ListItem)
	if blk.Type != block.TypeList || !ok {
		return fmt.Errorf("block %d is %s: %w", ls.Index, blk.Type, builder.ErrWrongType)
	}
	path := block.ItemPath(ls.Path)
	switch ls.Op {
	case "insert":
		items, err = block.ListInsert(items, path, block.ListItem{Content: ls.Markup})
	case "set":
		items, err = block.ListSetContent(items, path, ls.Markup)
	case "remove":
		items, _, err = block.ListRemove(items, path)
	case "indent":
		items, _, err = block.ListIndent(items, path)
	case "outdent":
		items, _, err = block.ListOutdent(items, path)
	default:
		return fmt.Errorf("unknown list operation %q", ls.Op)
	}
	if err != nil {
		return err
	}
	return r.b.SetContent(blk.ID, items)
}

func (r *Runner) upload(ctx context.Context, s *Script, us *UploadStep) error {
	blk, err := r.at(us.Index)
	if err != nil {
		return err
	}
	data := r.placeholder
	if us.File != "" {
		if data, err = s.file(us.File); err != nil {
			return fmt.Errorf("unable to read image: %w", err)
		}
	}
	if len(data) == 0 {
		return errors.New("no image to upload")
	}
	if us.Alt != "" {
		if err := r.b.SetContent(blk.ID, block.ImageContent{Alt: us.Alt}); err != nil {
			return err
		}
	}
	return r.b.UploadImage(ctx, blk.ID, data)
}
