package history

import (
	"context"
	"time"

	"coopsched/internal/sched"
	logx "coopsched/pkg/logx"
)

// Recorder adapts a Store to the scheduler's hook signatures. It records
// lifecycle transitions (not per-loop events, which would swamp the store
// at tick frequency) and every timeout overrun.
//
// Writes are best-effort: a failing store logs and drops, it never blocks
// or breaks dispatch.
type Recorder struct {
	s     *sched.Scheduler
	store Store
	log   logx.Logger
}

func NewRecorder(s *sched.Scheduler, store Store, log logx.Logger) *Recorder {
	return &Recorder{s: s, store: store, log: log}
}

// Trace implements sched.TraceFunc.
func (r *Recorder) Trace(ev sched.TraceEvent, id sched.TaskID) {
	if r.store == nil {
		return
	}
	switch ev {
	case sched.TraceLoopBegin, sched.TraceLoopEnd:
		return
	}
	r.append(RunEntry{
		Task:  int(id),
		Name:  r.s.Name(id),
		Event: ev.String(),
	})
}

// Timeout implements sched.TimeoutFunc.
func (r *Recorder) Timeout(id sched.TaskID, elapsed uint32) {
	if r.store == nil {
		return
	}
	r.append(RunEntry{
		Task:      int(id),
		Name:      r.s.Name(id),
		Event:     "timeout",
		ElapsedMS: int64(elapsed),
	})
}

// StartFailure implements sched.StartFailureFunc.
func (r *Recorder) StartFailure(id sched.TaskID, err error) {
	if r.store == nil {
		return
	}
	r.append(RunEntry{
		Task:  int(id),
		Name:  r.s.Name(id),
		Event: "start-failed",
		Error: err.Error(),
	})
}

func (r *Recorder) append(e RunEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := r.store.Append(ctx, e); err != nil {
		r.log.Warn("history append failed", logx.Err(err), logx.String("event", e.Event))
	}
}
