package sched

// Err is the scheduler's error taxonomy. The zero value ErrNone means the
// last mutating operation succeeded.
//
// Every mutating operation overwrites the scheduler's last-error register
// with one of these codes; queries never touch it.
type Err uint8

const (
	ErrNone Err = iota

	// Input validation.
	ErrInvalidName     // empty name or name longer than Config.MaxNameLen
	ErrDuplicateName   // another live task already owns the name
	ErrInvalidPriority // priority outside PriorityIdle..PriorityCritical

	// Capacity.
	ErrCapacity // all task slots in use

	// Identity.
	ErrInvalidTask // id out of range or slot deleted

	// State conflicts.
	ErrWrongState // operation not valid for the task's current state
	ErrNotBegun   // Tick before Begin

	// Execution safety.
	ErrTaskExecuting // task's own loop callback is on the stack
	ErrTaskSuspended // task is parked inside Yield

	// Reentrancy.
	ErrDepthExceeded   // callback nesting at Config.MaxCallbackDepth
	ErrReentrantTick   // Tick called from inside a callback
	ErrResetInCallback // Reset called from inside a callback
	ErrNotInCallback   // Yield called outside a loop callback
)

var errText = map[Err]string{
	ErrNone:            "ok",
	ErrInvalidName:     "invalid task name",
	ErrDuplicateName:   "duplicate task name",
	ErrInvalidPriority: "invalid priority",
	ErrCapacity:        "task capacity exhausted",
	ErrInvalidTask:     "invalid task id",
	ErrWrongState:      "operation invalid for task state",
	ErrNotBegun:        "scheduler not begun",
	ErrTaskExecuting:   "task is currently executing",
	ErrTaskSuspended:   "task is suspended in yield",
	ErrDepthExceeded:   "callback depth limit exceeded",
	ErrReentrantTick:   "reentrant tick call",
	ErrResetInCallback: "reset from inside a callback",
	ErrNotInCallback:   "not inside a loop callback",
}

func (e Err) Error() string {
	if s, ok := errText[e]; ok {
		return s
	}
	return "unknown scheduler error"
}

func (e Err) String() string { return e.Error() }

// fail records err in the last-error register and returns it as an error.
func (s *Scheduler) fail(err Err) error {
	s.lastErr = err
	return err
}

// ok clears the last-error register after a successful mutating operation.
func (s *Scheduler) ok() {
	s.lastErr = ErrNone
}

// LastError returns the outcome of the most recent mutating operation.
func (s *Scheduler) LastError() Err { return s.lastErr }

// ClearLastError resets the register to ErrNone.
func (s *Scheduler) ClearLastError() { s.lastErr = ErrNone }
