package sched

// Queries never touch the last-error register. Absence is signalled by
// sentinel returns (StateInvalid, NoTask, "", 0); callers that must tell a
// legitimate zero from "no such task" check IsValid first.

// TaskCount returns the number of live tasks.
func (s *Scheduler) TaskCount() int { return s.live }

// AllocatedSlots returns the high-water slot count: how many slots have
// ever been claimed. It never decreases and bounds dispatch iteration.
func (s *Scheduler) AllocatedSlots() int { return s.highWater }

// Capacity returns the fixed slot capacity.
func (s *Scheduler) Capacity() int { return s.cfg.Capacity }

// IsValid reports whether id names a live task.
func (s *Scheduler) IsValid(id TaskID) bool {
	_, err := s.taskFor(id)
	return err == ErrNone
}

// Name returns the task's name, or "" for an invalid id.
func (s *Scheduler) Name(id TaskID) string {
	t, err := s.taskFor(id)
	if err != ErrNone {
		return ""
	}
	return t.name
}

// StateOf returns the task's state, or StateInvalid for an invalid id.
func (s *Scheduler) StateOf(id TaskID) State {
	t, err := s.taskFor(id)
	if err != ErrNone {
		return StateInvalid
	}
	return t.state
}

// RunCount returns how many loop invocations the task has completed since
// it was last started. 0 means "never run"; the counter wraps to 1, never
// back to 0. Invalid ids return 0.
func (s *Scheduler) RunCount(id TaskID) uint32 {
	t, err := s.taskFor(id)
	if err != ErrNone {
		return 0
	}
	return t.runCount()
}

// IntervalOf returns the task's loop interval in ms, or 0 for an invalid id.
func (s *Scheduler) IntervalOf(id TaskID) uint32 {
	t, err := s.taskFor(id)
	if err != ErrNone {
		return 0
	}
	return t.interval
}

// TimeoutOf returns the task's timeout in ms, or 0 for an invalid id.
func (s *Scheduler) TimeoutOf(id TaskID) uint32 {
	t, err := s.taskFor(id)
	if err != ErrNone {
		return 0
	}
	return t.timeout
}

// LastRun returns the clock value of the task's most recent loop completion
// (or its start/creation baseline), or 0 for an invalid id.
func (s *Scheduler) LastRun(id TaskID) uint32 {
	t, err := s.taskFor(id)
	if err != ErrNone {
		return 0
	}
	return t.lastRun
}

// PriorityOf returns the task's priority; ok is false for an invalid id.
func (s *Scheduler) PriorityOf(id TaskID) (Priority, bool) {
	t, err := s.taskFor(id)
	if err != ErrNone {
		return PriorityIdle, false
	}
	return t.priority, true
}

// CurrentTask returns the task whose loop callback is executing right now,
// or NoTask.
func (s *Scheduler) CurrentTask() TaskID { return s.current }

// FindByName returns the live task with the given name, or NoTask.
func (s *Scheduler) FindByName(name string) TaskID {
	if name == "" {
		return NoTask
	}
	for i := 0; i < s.highWater; i++ {
		if t := &s.slots[i]; t.live() && t.name == name {
			return TaskID(i)
		}
	}
	return NoTask
}

// TaskIDs copies live task ids into buf (ascending slot order) and returns
// the true live count, which may exceed len(buf).
func (s *Scheduler) TaskIDs(buf []TaskID) int {
	n := 0
	for i := 0; i < s.highWater; i++ {
		if !s.slots[i].live() {
			continue
		}
		if n < len(buf) {
			buf[n] = TaskID(i)
		}
		n++
	}
	return n
}

// Snapshot captures a diagnostic view of the scheduler and every live task.
func (s *Scheduler) Snapshot() Snapshot {
	snap := Snapshot{
		Capacity:  s.cfg.Capacity,
		Allocated: s.highWater,
		Live:      s.live,
		Begun:     s.begun,
		Now:       s.clock.Millis(),
		LastError: s.lastErr,
	}
	for i := 0; i < s.highWater; i++ {
		t := &s.slots[i]
		if !t.live() {
			continue
		}
		if t.state == StateRunning {
			snap.Running++
		}
		snap.Tasks = append(snap.Tasks, TaskInfo{
			ID:       TaskID(i),
			Name:     t.name,
			State:    t.state,
			Priority: t.priority,
			Interval: t.interval,
			Timeout:  t.timeout,
			RunCount: t.runCount(),
			LastRun:  t.lastRun,
		})
	}
	return snap
}
