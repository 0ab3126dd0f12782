package sched

// Tick runs one dispatch cycle: every live, Running, due task gets at most
// one loop invocation, in descending priority order with ascending slot
// index as the tie break. The host calls Tick once per iteration of its own
// main loop.
//
// Tick fails with ErrNotBegun before Begin and with ErrReentrantTick when
// called from inside any task callback.
func (s *Scheduler) Tick() error {
	if !s.begun {
		return s.fail(ErrNotBegun)
	}
	if s.inTick || s.depth > 0 {
		return s.fail(ErrReentrantTick)
	}
	s.inTick = true
	s.tick++
	s.dispatchPass()
	s.inTick = false
	s.ok()
	return nil
}

// dispatchPass visits every slot once in dispatch order. It is re-entered
// by Yield, in which case tasks that already ran this tick are fenced off
// by their tick serial.
func (s *Scheduler) dispatchPass() {
	p := PriorityCritical
	for {
		for i := 0; i < s.highWater; i++ {
			t := &s.slots[i]
			if !t.live() || t.priority != p {
				continue
			}
			s.turn(TaskID(i), t)
		}
		if p == PriorityIdle {
			return
		}
		p--
	}
}

// turn gives one task its dispatch turn for the current tick.
//
// The "ran this tick" bookkeeping is deliberately per-task, not a bulk
// reset: a task's serial is compared (and thereby retired) only when its
// own turn comes up. That is what keeps a task started mid-tick by an
// earlier task's callback from running before the tick it was started in
// has passed, no matter where its slot sits in the visit order.
func (s *Scheduler) turn(id TaskID, t *task) {
	if t.state != StateRunning || t.suspended {
		return
	}
	if t.ranTick == s.tick {
		return
	}
	now := s.clock.Millis()
	// Unsigned subtraction is wraparound-safe: after a 32-bit clock
	// rollover the delta still comes out as the true elapsed span.
	if t.interval != 0 && now-t.lastRun < t.interval {
		return
	}
	if s.depth >= s.cfg.MaxCallbackDepth {
		// No headroom for another callback frame; try again next tick.
		return
	}

	t.ranTick = s.tick
	if t.loop == nil {
		// Nothing to invoke; keep the due-time bookkeeping moving.
		t.lastRun = now
		return
	}

	entry := now
	s.trace(TraceLoopBegin, id)
	prev := s.current
	s.current = id
	s.invoke(t.loop)
	s.current = prev
	exit := s.clock.Millis()

	// lastRun records when the task actually finished, not when it became
	// due: a catch-up burst after a long stall collapses to one run and the
	// next due time counts from here.
	t.lastRun = exit
	t.bumpRunCount()
	s.trace(TraceLoopEnd, id)

	// Timeout detection is advisory and happens after the fact. The timeout
	// is re-read here so a task that extended or cleared its own timeout
	// mid-run suppresses a false alarm.
	elapsed := exit - entry
	if t.timeout != 0 && elapsed > t.timeout && s.onTimeout != nil {
		s.onTimeout(id, elapsed)
	}
}

// Yield lets the current tick dispatch other due tasks before returning
// control to the calling loop callback. It is a controlled recursive
// dispatch, not a coroutine switch: the yielding task's stack frame stays
// held, the task is flagged suspended, and other tasks cannot stop or
// delete it until Yield returns.
//
// Yield may only be called from inside a loop callback and is bounded by
// the same depth guard as every other callback entry point.
func (s *Scheduler) Yield() error {
	if !s.inTick || s.current == NoTask {
		return s.fail(ErrNotInCallback)
	}
	if s.depth >= s.cfg.MaxCallbackDepth {
		return s.fail(ErrDepthExceeded)
	}
	id := s.current
	t := &s.slots[id]
	t.suspended = true
	s.current = NoTask
	s.dispatchPass()
	s.current = id
	t.suspended = false
	s.ok()
	return nil
}
