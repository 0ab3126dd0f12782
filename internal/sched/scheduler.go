package sched

import (
	"errors"
	"sync"
)

// Scheduler runs a bounded set of cooperative tasks on a single goroutine.
// See the package documentation for the execution model.
//
// Scheduler is not safe for concurrent use; all calls must come from the
// goroutine that drives Tick.
type Scheduler struct {
	cfg   Config
	clock Clock

	slots     []task
	freeHead  uint32 // freeEnd when the free list is empty
	highWater int    // slots ever claimed; never decremented
	live      int    // live (non-deleted) slots

	current TaskID // task whose loop callback is on the stack, else NoTask
	depth   int    // user callback frames on the stack
	tick    uint32 // tick serial, bumped at the start of every Tick
	inTick  bool
	begun   bool

	lastErr Err

	onTimeout      TimeoutFunc
	onStartFailure StartFailureFunc
	onTrace        TraceFunc
}

// New constructs a Scheduler with all task storage pre-allocated.
func New(cfg Config) *Scheduler {
	cfg = cfg.withDefaults()
	return &Scheduler{
		cfg:      cfg,
		clock:    cfg.Clock,
		slots:    make([]task, cfg.Capacity),
		freeHead: freeEnd,
		current:  NoTask,
	}
}

// Begin arms the scheduler and starts every task created with AutoStart.
// Auto-start failures do not abort Begin: each is reported through the
// start-failure hook and the scan continues.
func (s *Scheduler) Begin() error {
	if s.begun {
		return s.fail(ErrWrongState)
	}
	s.begun = true
	for i := 0; i < s.highWater; i++ {
		t := &s.slots[i]
		if !t.live() || !t.autoStart {
			continue
		}
		if _, err := s.start(TaskID(i), true); err != nil {
			if s.onStartFailure != nil {
				s.onStartFailure(TaskID(i), err)
			}
		}
	}
	s.ok()
	return nil
}

// Begun reports whether Begin has run since construction or the last Reset.
func (s *Scheduler) Begun() bool { return s.begun }

// Reset returns the scheduler to its freshly-constructed state, discarding
// every task. It is rejected from inside any callback: tearing down the
// scheduler under an active callback frame would invalidate that frame.
// Registered hooks survive when preserveHooks is true.
func (s *Scheduler) Reset(preserveHooks bool) error {
	if s.depth > 0 || s.inTick {
		return s.fail(ErrResetInCallback)
	}
	for i := range s.slots {
		s.slots[i] = task{}
	}
	s.freeHead = freeEnd
	s.highWater = 0
	s.live = 0
	s.current = NoTask
	s.tick = 0
	s.begun = false
	s.lastErr = ErrNone
	if !preserveHooks {
		s.onTimeout = nil
		s.onStartFailure = nil
		s.onTrace = nil
	}
	return nil
}

// taskFor resolves id to a live slot.
func (s *Scheduler) taskFor(id TaskID) (*task, Err) {
	if id < 0 || int(id) >= s.highWater {
		return nil, ErrInvalidTask
	}
	t := &s.slots[id]
	if !t.live() {
		return nil, ErrInvalidTask
	}
	return t, ErrNone
}

// invoke runs a user callback under the depth guard. The caller has already
// verified depth headroom.
func (s *Scheduler) invoke(fn func()) {
	s.depth++
	fn()
	s.depth--
}

func (s *Scheduler) trace(ev TraceEvent, id TaskID) {
	if s.onTrace != nil {
		s.onTrace(ev, id)
	}
}

// ---- Process-wide default instance ----

var (
	defaultMu    sync.Mutex
	defaultSched *Scheduler
)

// ErrDefaultSet is returned by Promote when a default instance already
// exists.
var ErrDefaultSet = errors.New("sched: default scheduler already promoted")

// Promote installs s as the process-wide default instance. Only one
// scheduler may hold the role at a time; promotion shares no state between
// instances beyond the pointer itself.
func Promote(s *Scheduler) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSched != nil && defaultSched != s {
		return ErrDefaultSet
	}
	defaultSched = s
	return nil
}

// Demote clears the default instance.
func Demote() {
	defaultMu.Lock()
	defaultSched = nil
	defaultMu.Unlock()
}

// Default returns the promoted instance, or nil.
func Default() *Scheduler {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultSched
}
