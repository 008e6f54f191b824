package table

import (
	"go.uber.org/zap"

	"cbe/block"
	"cbe/config"
	"cbe/dom"
)

// Controller groups editing components of one mounted table. All of them
// share single session guard.
type Controller struct {
	Engine  *Engine
	Reorder *Reorderer
	Resize  *Resizer
	Cells   *CellSelection
}

// New binds controller to table. Nil layout or pointer host disables drag
// features, matrix editing keeps working.
func New(tbl *block.Table, cfg *config.TableConfig, layout Layout, pointer PointerHost, sched dom.Scheduler, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	if layout == nil || pointer == nil {
		log.Debug("Table layout or pointer capture is not available, drag features disabled")
	}
	engine := NewEngine(tbl, &Guard{}, log)
	return &Controller{
		Engine:  engine,
		Reorder: NewReorderer(engine, layout, pointer, sched, cfg.IndicatorWidth, log),
		Resize:  NewResizer(engine, layout, pointer, *cfg, log),
		Cells:   NewCellSelection(engine),
	}
}

// Close ends active sessions and stops observers.
func (c *Controller) Close() {
	c.Reorder.Cancel()
	c.Resize.End()
	c.Cells.Blur()
	c.Resize.Close()
}
