package sched

// task is one slot in the scheduler's fixed array.
//
// An empty name marks the slot deleted. While deleted, counter holds the
// free-list link to the next free slot; while live it holds the run count.
// Exactly one of the two meanings is valid at a time, gated by live().
type task struct {
	name string

	setup    func()
	loop     func()
	teardown func()

	interval uint32
	timeout  uint32
	lastRun  uint32

	// counter: run count while live, free-list link while deleted.
	counter uint32

	state     State
	priority  Priority
	autoStart bool
	suspended bool

	// ranTick is the serial of the last tick in which this task ran (or
	// claimed its run by being started mid-tick without immediate-run).
	// Comparing against the scheduler's current serial replaces a bulk
	// "ran this tick" reset pass.
	ranTick uint32
}

func (t *task) live() bool { return t.name != "" }

// runCount returns the task's run count, or 0 for a deleted slot. The
// free-list link sharing the field must never leak out as a count.
func (t *task) runCount() uint32 {
	if !t.live() {
		return 0
	}
	return t.counter
}

// bumpRunCount increments the run count, wrapping 0xFFFFFFFF to 1 so that 0
// always means "never run since start".
func (t *task) bumpRunCount() {
	t.counter++
	if t.counter == 0 {
		t.counter = 1
	}
}

// freeEnd terminates the free list.
const freeEnd = ^uint32(0)

func (t *task) nextFree() uint32 {
	if t.live() {
		return freeEnd
	}
	return t.counter
}

func (t *task) setNextFree(link uint32) {
	t.counter = link
}
