package sched

// TaskID is a task's slot index. IDs are stable for the lifetime of the task
// and are reused (LIFO) after deletion.
type TaskID int

// NoTask is the sentinel returned by queries that found no task.
const NoTask TaskID = -1

// State is a task's lifecycle state.
type State uint8

const (
	StateStopped State = iota
	StateRunning
	StatePaused

	// StateInvalid is returned by queries on nonexistent or deleted tasks.
	// It is never stored in a slot.
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return "invalid"
	}
}

// Priority orders task execution within a tick: higher priorities run first,
// ties break by ascending slot index.
type Priority uint8

const (
	PriorityIdle Priority = iota
	PriorityLow
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityIdle:
		return "idle"
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "invalid"
	}
}

// Config sizes a Scheduler. All limits are fixed at construction; the
// scheduler never allocates task storage afterwards.
type Config struct {
	// Capacity is the total number of task slots.
	Capacity int

	// MaxCallbackDepth bounds nested callback invocation. An operation that
	// would push a callback frame beyond this depth fails with
	// ErrDepthExceeded instead of recursing.
	MaxCallbackDepth int

	// MaxNameLen bounds task name length in bytes.
	MaxNameLen int

	// Clock supplies 32-bit millisecond time. Defaults to a monotonic clock
	// starting at zero when the scheduler is constructed.
	Clock Clock
}

func (c Config) withDefaults() Config {
	if c.Capacity <= 0 {
		c.Capacity = 16
	}
	if c.MaxCallbackDepth <= 0 {
		c.MaxCallbackDepth = 8
	}
	if c.MaxNameLen <= 0 {
		c.MaxNameLen = 24
	}
	if c.Clock == nil {
		c.Clock = NewSystemClock()
	}
	return c
}

// TaskSpec describes a task to create.
//
// Callbacks take no arguments: they reach the scheduler (their own or the
// process default) through whatever handle the host gave them when the
// closure was built.
type TaskSpec struct {
	Name string

	Setup    func() // once, on transition into Running
	Loop     func() // repeatedly while Running and due
	Teardown func() // once, on transition into Stopped

	Interval uint32 // ms between loop runs; 0 runs every tick
	Timeout  uint32 // ms a loop run may take before the timeout hook fires; 0 disables

	Priority Priority

	// AutoStart starts the task during Begin, or immediately on Create if
	// the scheduler has already begun.
	AutoStart bool
}

// StartOutcome reports the result of Start beyond plain success/failure.
type StartOutcome uint8

const (
	StartFailed StartOutcome = iota
	StartOK

	// StartSetupChangedState: the setup callback itself changed the task's
	// state (or deleted the task). The operation succeeded but the caller
	// must not assume the task is Running.
	StartSetupChangedState
)

// StopOutcome reports the result of Stop beyond plain success/failure.
type StopOutcome uint8

const (
	StopFailed StopOutcome = iota
	StopOK

	// StopTeardownSkipped: the task is Stopped but its teardown callback was
	// not invoked because the callback depth limit was reached.
	StopTeardownSkipped

	// StopTeardownChangedState: the teardown callback restarted or otherwise
	// mutated the task; it is not Stopped.
	StopTeardownChangedState
)

// BatchResult summarizes a batch operation. Batches continue past individual
// failures; the first error encountered is preserved even when later items
// succeed.
type BatchResult struct {
	Succeeded     int
	FirstErr      error
	FirstFailedID TaskID
}

// TraceEvent identifies a lifecycle transition reported through the trace
// hook.
type TraceEvent uint8

const (
	TraceStarting TraceEvent = iota
	TraceStarted
	TraceLoopBegin
	TraceLoopEnd
	TraceStopping
	TraceStopped
	TracePaused
	TraceResumed
	TraceDeleted
)

func (ev TraceEvent) String() string {
	switch ev {
	case TraceStarting:
		return "starting"
	case TraceStarted:
		return "started"
	case TraceLoopBegin:
		return "loop-begin"
	case TraceLoopEnd:
		return "loop-end"
	case TraceStopping:
		return "stopping"
	case TraceStopped:
		return "stopped"
	case TracePaused:
		return "paused"
	case TraceResumed:
		return "resumed"
	case TraceDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// TimeoutFunc is called when a loop invocation overran the task's timeout.
// elapsed is the measured duration in milliseconds.
type TimeoutFunc func(id TaskID, elapsed uint32)

// StartFailureFunc is called by Begin for each auto-start task that failed
// to start.
type StartFailureFunc func(id TaskID, err error)

// TraceFunc observes lifecycle transitions.
type TraceFunc func(ev TraceEvent, id TaskID)

// TaskInfo is a point-in-time view of one task, used by Snapshot.
type TaskInfo struct {
	ID       TaskID
	Name     string
	State    State
	Priority Priority
	Interval uint32
	Timeout  uint32
	RunCount uint32
	LastRun  uint32
}

// Snapshot is a lightweight diagnostic view of the whole scheduler.
type Snapshot struct {
	Capacity  int
	Allocated int // high-water slot count
	Live      int
	Running   int
	Begun     bool
	Now       uint32
	LastError Err
	Tasks     []TaskInfo
}
