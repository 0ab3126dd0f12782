// Package tracelog bridges the scheduler's hooks into structured logging.
//
// The scheduler core is log-free on purpose; hosts that want observability
// install these adapters. Timeout warnings are rate limited so a single
// wedged task cannot flood the log at tick frequency.
package tracelog

import (
	"golang.org/x/time/rate"

	"coopsched/internal/sched"
	logx "coopsched/pkg/logx"
)

// Config tunes the adapters.
type Config struct {
	// TimeoutWarnsPerSec caps timeout-warning log lines per second.
	// <= 0 applies a default of 1/s.
	TimeoutWarnsPerSec int

	// TraceLevelDebug logs per-loop events (loop-begin/loop-end) at debug
	// instead of trace.
	TraceLevelDebug bool
}

// Adapter holds hook implementations bound to a scheduler and a logger.
type Adapter struct {
	s   *sched.Scheduler
	log logx.Logger
	lim *rate.Limiter

	debugLoops bool

	// Dropped counts timeout warnings suppressed by the limiter.
	dropped uint64
}

// New builds an Adapter. Install installs its hooks on the scheduler.
func New(s *sched.Scheduler, log logx.Logger, cfg Config) *Adapter {
	rps := cfg.TimeoutWarnsPerSec
	if rps <= 0 {
		rps = 1
	}
	return &Adapter{
		s:          s,
		log:        log.With(logx.String("comp", "sched")),
		lim:        rate.NewLimiter(rate.Limit(rps), rps),
		debugLoops: cfg.TraceLevelDebug,
	}
}

// Install registers the adapter on its scheduler. Hooks survive
// Reset(preserveHooks=true).
func (a *Adapter) Install() {
	a.s.SetTraceHook(a.Trace)
	a.s.SetTimeoutHook(a.Timeout)
	a.s.SetStartFailureHook(a.StartFailure)
}

// Trace logs lifecycle transitions. Loop begin/end fire once per task
// execution and are kept at the lowest level; everything else is debug.
func (a *Adapter) Trace(ev sched.TraceEvent, id sched.TaskID) {
	fields := []logx.Field{
		logx.Stringer("event", ev),
		logx.Int("task", int(id)),
		logx.String("name", a.s.Name(id)),
	}
	switch ev {
	case sched.TraceLoopBegin, sched.TraceLoopEnd:
		if a.debugLoops {
			a.log.Debug("task loop", fields...)
		} else {
			a.log.Trace("task loop", fields...)
		}
	default:
		a.log.Debug("task lifecycle", fields...)
	}
}

// Timeout logs an overrun, subject to the rate limit.
func (a *Adapter) Timeout(id sched.TaskID, elapsed uint32) {
	if !a.lim.Allow() {
		a.dropped++
		return
	}
	a.log.Warn("task loop overran its timeout",
		logx.Int("task", int(id)),
		logx.String("name", a.s.Name(id)),
		logx.Uint32("elapsed_ms", elapsed),
		logx.Uint32("timeout_ms", a.s.TimeoutOf(id)),
		logx.Uint64("suppressed", a.dropped),
	)
	a.dropped = 0
}

// StartFailure logs a task Begin could not start.
func (a *Adapter) StartFailure(id sched.TaskID, err error) {
	a.log.Error("task auto-start failed",
		logx.Int("task", int(id)),
		logx.String("name", a.s.Name(id)),
		logx.Err(err),
	)
}
