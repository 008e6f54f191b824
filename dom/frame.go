package dom

// Scheduler is the host capability to run work after the next layout pass.
// Callbacks must re-validate whatever session scheduled them.
type Scheduler interface {
	NextFrame(fn func())
}

// FrameQueue is Scheduler whose frames are advanced by the owner.
type FrameQueue struct {
	pending []func()
}

func (q *FrameQueue) NextFrame(fn func()) {
	q.pending = append(q.pending, fn)
}

// Flush runs callbacks queued before the call and returns how many ran.
// Callbacks scheduled while flushing wait for the next frame.
func (q *FrameQueue) Flush() int {
	run := q.pending
	q.pending = nil
	for _, fn := range run {
		fn()
	}
	return len(run)
}

func (q *FrameQueue) Pending() int {
	return len(q.pending)
}

// Immediate is Scheduler running callbacks synchronously, useful for hosts
// without layout.
type Immediate struct{}

func (Immediate) NextFrame(fn func()) {
	fn()
}
