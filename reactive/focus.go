package reactive

// Focus is the exclusive focus register: at most one block id holds focus.
// Moving focus first clears the previous holder, so its observers see the
// register empty, and only then announces the new holder.
type Focus struct {
	cell *Value[string]
}

func NewFocus() *Focus {
	return &Focus{cell: NewValue("")}
}

// Current returns id of the focused block, empty when none.
func (f *Focus) Current() string {
	return f.cell.Get()
}

func (f *Focus) Is(id string) bool {
	return id != "" && f.cell.Get() == id
}

// Set moves focus to id.
func (f *Focus) Set(id string) {
	if f.cell.Get() == id {
		return
	}
	if f.cell.Get() != "" {
		f.cell.Set("")
	}
	f.cell.Set(id)
}

// Clear removes focus from whatever block holds it.
func (f *Focus) Clear() {
	f.cell.Set("")
}

// ClearIf removes focus only when id holds it.
func (f *Focus) ClearIf(id string) bool {
	if !f.Is(id) {
		return false
	}
	f.cell.Set("")
	return true
}

// Subscribe observes focus changes, fn receives the new holder (empty when
// focus was cleared).
func (f *Focus) Subscribe(fn func(id string)) (unsubscribe func()) {
	return f.cell.Subscribe(fn)
}
