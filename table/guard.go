package table

import "fmt"

// Kind of pointer session run over the table.
// ENUM(none, reorder, resize, cell-select)
type Session int

const (
	SessionNone Session = iota
	SessionReorder
	SessionResize
	SessionCellSelect
)

var sessionNames = []string{"none", "reorder", "resize", "cell-select"}

func (x Session) String() string {
	if int(x) >= 0 && int(x) < len(sessionNames) {
		return sessionNames[x]
	}
	return fmt.Sprintf("Session(%d)", int(x))
}

// Guard makes pointer sessions over one table mutually exclusive.
type Guard struct {
	active Session
}

// Acquire starts session s, refused while any session is active.
func (g *Guard) Acquire(s Session) bool {
	if g.active != SessionNone {
		return false
	}
	g.active = s
	return true
}

// Release ends session s, releasing other session kind is ignored.
func (g *Guard) Release(s Session) {
	if g.active == s {
		g.active = SessionNone
	}
}

func (g *Guard) Active() Session {
	return g.active
}

func (g *Guard) Busy() bool {
	return g.active != SessionNone
}
