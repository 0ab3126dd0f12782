package sched

// Create allocates a slot for spec and returns its id. The name must be
// non-empty, at most Config.MaxNameLen bytes, and unique among live tasks.
// If the scheduler has already begun and spec.AutoStart is set, the task is
// started immediately with immediate-run semantics.
func (s *Scheduler) Create(spec TaskSpec) (TaskID, error) {
	if err := s.checkName(spec.Name, NoTask); err != ErrNone {
		return NoTask, s.fail(err)
	}
	if spec.Priority > PriorityCritical {
		return NoTask, s.fail(ErrInvalidPriority)
	}
	i, aerr := s.allocSlot()
	if aerr != ErrNone {
		return NoTask, s.fail(aerr)
	}
	t := &s.slots[i]
	t.name = spec.Name
	t.setup = spec.Setup
	t.loop = spec.Loop
	t.teardown = spec.Teardown
	t.interval = spec.Interval
	t.timeout = spec.Timeout
	t.priority = spec.Priority
	t.autoStart = spec.AutoStart
	t.state = StateStopped
	t.lastRun = s.clock.Millis()

	id := TaskID(i)
	s.ok()
	if s.begun && spec.AutoStart {
		// Start maintains its own last-error state; a failed auto-start
		// leaves the created task Stopped and the failure code registered.
		if _, err := s.start(id, true); err != nil && s.onStartFailure != nil {
			s.onStartFailure(id, err)
		}
	}
	return id, nil
}

func (s *Scheduler) checkName(name string, self TaskID) Err {
	if name == "" || len(name) > s.cfg.MaxNameLen {
		return ErrInvalidName
	}
	for i := 0; i < s.highWater; i++ {
		if TaskID(i) == self {
			continue
		}
		if t := &s.slots[i]; t.live() && t.name == name {
			return ErrDuplicateName
		}
	}
	return ErrNone
}

// Rename changes a task's name, subject to the same validation as Create.
func (s *Scheduler) Rename(id TaskID, name string) error {
	t, terr := s.taskFor(id)
	if terr != ErrNone {
		return s.fail(terr)
	}
	if err := s.checkName(name, id); err != ErrNone {
		return s.fail(err)
	}
	t.name = name
	s.ok()
	return nil
}

// SetInterval changes a task's loop interval. With resetTiming the next due
// time is computed from now; without it, from the task's existing last-run.
func (s *Scheduler) SetInterval(id TaskID, ms uint32, resetTiming bool) error {
	t, terr := s.taskFor(id)
	if terr != ErrNone {
		return s.fail(terr)
	}
	t.interval = ms
	if resetTiming {
		t.lastRun = s.clock.Millis()
	}
	s.ok()
	return nil
}

// SetTimeout changes a task's loop timeout; 0 disables the check. A task may
// call this on itself from inside its own loop to extend a run it knows will
// overrun, which suppresses the timeout report for that run.
func (s *Scheduler) SetTimeout(id TaskID, ms uint32) error {
	t, terr := s.taskFor(id)
	if terr != ErrNone {
		return s.fail(terr)
	}
	t.timeout = ms
	s.ok()
	return nil
}

// SetPriority changes a task's dispatch priority.
func (s *Scheduler) SetPriority(id TaskID, p Priority) error {
	t, terr := s.taskFor(id)
	if terr != ErrNone {
		return s.fail(terr)
	}
	if p > PriorityCritical {
		return s.fail(ErrInvalidPriority)
	}
	t.priority = p
	s.ok()
	return nil
}

// Start transitions a Stopped task to Running and invokes its setup
// callback. With runImmediately the task is due on its next dispatch turn,
// even within the current tick; without it, a task started mid-tick sits
// out the tick it was started in.
//
// If setup itself changes the task's state (stopping or deleting the task),
// Start reports StartSetupChangedState: the operation succeeded but the
// task did not end up Running.
func (s *Scheduler) Start(id TaskID, runImmediately bool) (StartOutcome, error) {
	return s.start(id, runImmediately)
}

func (s *Scheduler) start(id TaskID, runImmediately bool) (StartOutcome, error) {
	t, terr := s.taskFor(id)
	if terr != ErrNone {
		return StartFailed, s.fail(terr)
	}
	if t.state != StateStopped {
		return StartFailed, s.fail(ErrWrongState)
	}
	if s.depth >= s.cfg.MaxCallbackDepth {
		return StartFailed, s.fail(ErrDepthExceeded)
	}

	now := s.clock.Millis()
	t.counter = 0 // run count resets on every start
	t.state = StateRunning
	if runImmediately {
		t.lastRun = now - t.interval // due on the next dispatch turn
		t.ranTick = s.tick - 1
	} else {
		t.lastRun = now
		if s.inTick {
			// Claim the current tick so the task cannot run before the tick
			// it was started in has fully passed.
			t.ranTick = s.tick
		} else {
			t.ranTick = s.tick - 1
		}
	}

	s.trace(TraceStarting, id)
	if t.setup != nil {
		// Setup may delete this task and a nested create may reuse the slot;
		// the name pin distinguishes "same task" from "slot recycled".
		name := t.name
		s.invoke(t.setup)
		if !t.live() || t.name != name || t.state != StateRunning {
			s.ok()
			return StartSetupChangedState, nil
		}
	}
	s.trace(TraceStarted, id)
	s.ok()
	return StartOK, nil
}

// Stop transitions a Running or Paused task to Stopped and invokes its
// teardown callback. The state flips before teardown runs, so teardown
// observes Stopped.
//
// A task cannot stop itself from its own loop callback, and a task parked
// in Yield cannot be stopped by others; both reject cleanly.
func (s *Scheduler) Stop(id TaskID) (StopOutcome, error) {
	return s.stop(id)
}

func (s *Scheduler) stop(id TaskID) (StopOutcome, error) {
	t, terr := s.taskFor(id)
	if terr != ErrNone {
		return StopFailed, s.fail(terr)
	}
	if t.state == StateStopped {
		return StopFailed, s.fail(ErrWrongState)
	}
	if id == s.current {
		return StopFailed, s.fail(ErrTaskExecuting)
	}
	if t.suspended {
		return StopFailed, s.fail(ErrTaskSuspended)
	}

	s.trace(TraceStopping, id)
	t.state = StateStopped

	if t.teardown != nil {
		if s.depth >= s.cfg.MaxCallbackDepth {
			// The task is Stopped but its teardown could not be invoked.
			s.ok()
			return StopTeardownSkipped, nil
		}
		name := t.name
		s.invoke(t.teardown)
		if !t.live() || t.name != name {
			// Teardown deleted its own task; it was genuinely stopped first.
			s.ok()
			return StopOK, nil
		}
		if t.state != StateStopped {
			s.ok()
			return StopTeardownChangedState, nil
		}
	}
	s.trace(TraceStopped, id)
	s.ok()
	return StopOK, nil
}

// Pause suspends loop dispatch for a Running task. No callbacks fire.
func (s *Scheduler) Pause(id TaskID) error {
	t, terr := s.taskFor(id)
	if terr != ErrNone {
		return s.fail(terr)
	}
	if t.state != StateRunning {
		return s.fail(ErrWrongState)
	}
	t.state = StatePaused
	s.trace(TracePaused, id)
	s.ok()
	return nil
}

// Resume returns a Paused task to Running. No callbacks fire.
func (s *Scheduler) Resume(id TaskID) error {
	t, terr := s.taskFor(id)
	if terr != ErrNone {
		return s.fail(terr)
	}
	if t.state != StatePaused {
		return s.fail(ErrWrongState)
	}
	t.state = StateRunning
	s.trace(TraceResumed, id)
	s.ok()
	return nil
}

// Delete destroys a task and recycles its slot. The task must be fully
// Stopped and must not be the currently executing task.
func (s *Scheduler) Delete(id TaskID) error {
	t, terr := s.taskFor(id)
	if terr != ErrNone {
		return s.fail(terr)
	}
	if id == s.current {
		return s.fail(ErrTaskExecuting)
	}
	if t.state != StateStopped {
		return s.fail(ErrWrongState)
	}
	s.trace(TraceDeleted, id)
	s.freeSlot(int(id))
	s.ok()
	return nil
}

// StopAndDelete stops the task if needed, then deletes it. If teardown
// restarts the task, the delete fails with ErrWrongState and the task
// survives, Running.
func (s *Scheduler) StopAndDelete(id TaskID) error {
	t, terr := s.taskFor(id)
	if terr != ErrNone {
		return s.fail(terr)
	}
	if t.state != StateStopped {
		if _, err := s.stop(id); err != nil {
			return err
		}
		if !t.live() {
			// Teardown already deleted the task.
			return nil
		}
	}
	return s.Delete(id)
}

// ---- Batch operations ----

// runBatch applies op to every id, continuing past failures. The first
// failure's code is preserved in the last-error register even when later
// items succeed.
func (s *Scheduler) runBatch(ids []TaskID, op func(TaskID) error) BatchResult {
	res := BatchResult{FirstFailedID: NoTask}
	var firstCode Err
	for _, id := range ids {
		if err := op(id); err != nil {
			if res.FirstErr == nil {
				res.FirstErr = err
				res.FirstFailedID = id
				if code, isCode := err.(Err); isCode {
					firstCode = code
				}
			}
			continue
		}
		res.Succeeded++
	}
	if res.FirstErr != nil {
		s.lastErr = firstCode
	} else {
		s.lastErr = ErrNone
	}
	return res
}

// StartMany starts each listed task, skipping failures.
func (s *Scheduler) StartMany(ids []TaskID, runImmediately bool) BatchResult {
	return s.runBatch(ids, func(id TaskID) error {
		_, err := s.start(id, runImmediately)
		return err
	})
}

// StopMany stops each listed task, skipping failures. A task whose teardown
// changed its state back out of Stopped does not count as a success.
func (s *Scheduler) StopMany(ids []TaskID) BatchResult {
	return s.runBatch(ids, func(id TaskID) error {
		out, err := s.stop(id)
		if err != nil {
			return err
		}
		if out == StopTeardownChangedState {
			return ErrWrongState
		}
		return nil
	})
}

// PauseMany pauses each listed task, skipping failures.
func (s *Scheduler) PauseMany(ids []TaskID) BatchResult {
	return s.runBatch(ids, s.Pause)
}

// ResumeMany resumes each listed task, skipping failures.
func (s *Scheduler) ResumeMany(ids []TaskID) BatchResult {
	return s.runBatch(ids, s.Resume)
}

// DeleteMany deletes each listed task, skipping failures.
func (s *Scheduler) DeleteMany(ids []TaskID) BatchResult {
	return s.runBatch(ids, s.Delete)
}

// StartAll starts every live Stopped task and returns how many started
// cleanly (including setup-changed-state outcomes).
func (s *Scheduler) StartAll(runImmediately bool) int {
	n := 0
	for i := 0; i < s.highWater; i++ {
		if t := &s.slots[i]; t.live() && t.state == StateStopped {
			if _, err := s.start(TaskID(i), runImmediately); err == nil {
				n++
			}
		}
	}
	return n
}

// StopAll stops every live non-Stopped task and returns how many ended up
// Stopped.
func (s *Scheduler) StopAll() int {
	n := 0
	for i := 0; i < s.highWater; i++ {
		t := &s.slots[i]
		if !t.live() || t.state == StateStopped {
			continue
		}
		out, err := s.stop(TaskID(i))
		if err == nil && out != StopTeardownChangedState {
			n++
		}
	}
	return n
}

// PauseAll pauses every Running task and returns the count paused.
func (s *Scheduler) PauseAll() int {
	n := 0
	for i := 0; i < s.highWater; i++ {
		if t := &s.slots[i]; t.live() && t.state == StateRunning && !t.suspended {
			if s.Pause(TaskID(i)) == nil {
				n++
			}
		}
	}
	return n
}

// ResumeAll resumes every Paused task and returns the count resumed.
func (s *Scheduler) ResumeAll() int {
	n := 0
	for i := 0; i < s.highWater; i++ {
		if t := &s.slots[i]; t.live() && t.state == StatePaused {
			if s.Resume(TaskID(i)) == nil {
				n++
			}
		}
	}
	return n
}
