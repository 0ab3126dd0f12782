package sched

// SetTimeoutHook registers fn to be called whenever a loop invocation
// overruns its task's timeout. Pass nil to disable timeout reporting.
// The hook runs on the dispatch goroutine, after the offending callback
// has returned; it cannot interrupt anything.
func (s *Scheduler) SetTimeoutHook(fn TimeoutFunc) { s.onTimeout = fn }

// SetStartFailureHook registers fn to be called for each auto-start task
// that Begin (or Create-after-Begin) failed to start.
func (s *Scheduler) SetStartFailureHook(fn StartFailureFunc) { s.onStartFailure = fn }

// SetTraceHook registers fn to observe the nine lifecycle events. The hook
// must not call back into the scheduler.
func (s *Scheduler) SetTraceHook(fn TraceFunc) { s.onTrace = fn }
