// Package reactive provides observable state cells shared between editor
// components.
package reactive

// Value is an observable value holder. Subscribers are called synchronously
// after each change, in subscription order.
type Value[T comparable] struct {
	v    T
	next int
	subs map[int]func(T)
	ids  []int
}

func NewValue[T comparable](initial T) *Value[T] {
	return &Value[T]{v: initial, subs: make(map[int]func(T))}
}

func (c *Value[T]) Get() T {
	return c.v
}

// Set stores new value and notifies subscribers, returns false when value did
// not change.
func (c *Value[T]) Set(v T) bool {
	if c.v == v {
		return false
	}
	c.v = v
	for _, id := range append([]int(nil), c.ids...) {
		if fn, ok := c.subs[id]; ok {
			fn(v)
		}
	}
	return true
}

// Subscribe registers fn and returns function removing it.
func (c *Value[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	id := c.next
	c.next++
	c.subs[id] = fn
	c.ids = append(c.ids, id)
	return func() {
		if _, ok := c.subs[id]; !ok {
			return
		}
		delete(c.subs, id)
		for i, v := range c.ids {
			if v == id {
				c.ids = append(c.ids[:i], c.ids[i+1:]...)
				break
			}
		}
	}
}

// Subscribers returns number of registered subscribers.
func (c *Value[T]) Subscribers() int {
	return len(c.subs)
}
