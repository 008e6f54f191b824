package builder

import (
	"fmt"

	"go.uber.org/zap"
)

// BeginBlockDrag starts dragging block at index.
func (b *Builder) BeginBlockDrag(index int) bool {
	if b.dragging >= 0 || index < 0 || index >= b.doc.Len() {
		return false
	}
	b.dragging = index
	b.log.Debug("Block drag started", zap.Int("index", index))
	return true
}

// Dragging returns index of dragged block, -1 without drag.
func (b *Builder) Dragging() int {
	return b.dragging
}

// DropBlock moves dragged block to target index.
func (b *Builder) DropBlock(target int) error {
	if b.dragging < 0 {
		return ErrNoDrag
	}
	from := b.dragging
	b.dragging = -1
	if from == target {
		return nil
	}
	if err := b.Reorder(from, target); err != nil {
		return fmt.Errorf("unable to drop block: %w", err)
	}
	return nil
}

func (b *Builder) CancelBlockDrag() {
	b.dragging = -1
}
