package sched

import "testing"

func tick(t *testing.T, s *Scheduler) {
	t.Helper()
	if err := s.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
}

func begin(t *testing.T, s *Scheduler) {
	t.Helper()
	if err := s.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
}

func TestTickRequiresBegin(t *testing.T) {
	s, _ := newTestSched(t, 4)
	if err := s.Tick(); err != ErrNotBegun {
		t.Fatalf("Tick before Begin: err = %v, want ErrNotBegun", err)
	}
	begin(t, s)
	tick(t, s)
	if err := s.Begin(); err != ErrWrongState {
		t.Fatalf("second Begin: err = %v, want ErrWrongState", err)
	}
}

func TestIntervalDispatch(t *testing.T) {
	s, clk := newTestSched(t, 4)
	id := mustCreate(t, s, TaskSpec{Name: "every-100", Loop: func() {}, Interval: 100, AutoStart: true})
	begin(t, s)

	tick(t, s) // auto-start is immediate-run: due on the first tick
	if got := s.RunCount(id); got != 1 {
		t.Fatalf("RunCount after first tick = %d, want 1", got)
	}

	tick(t, s) // no time passed, not due
	if got := s.RunCount(id); got != 1 {
		t.Fatalf("RunCount without advancing clock = %d, want 1", got)
	}

	clk.Advance(99)
	tick(t, s)
	if got := s.RunCount(id); got != 1 {
		t.Fatalf("RunCount at 99ms = %d, want 1", got)
	}

	clk.Advance(1)
	tick(t, s)
	if got := s.RunCount(id); got != 2 {
		t.Fatalf("RunCount at 100ms = %d, want 2", got)
	}
}

func TestZeroIntervalRunsEveryTick(t *testing.T) {
	s, _ := newTestSched(t, 4)
	id := mustCreate(t, s, TaskSpec{Name: "spinner", Loop: func() {}, AutoStart: true})
	begin(t, s)
	for i := 1; i <= 5; i++ {
		tick(t, s)
		if got := s.RunCount(id); got != uint32(i) {
			t.Fatalf("tick %d: RunCount = %d, want %d", i, got, i)
		}
	}
}

func TestPausedTaskDoesNotRun(t *testing.T) {
	s, _ := newTestSched(t, 4)
	id := mustCreate(t, s, TaskSpec{Name: "pausable", Loop: func() {}, AutoStart: true})
	begin(t, s)
	tick(t, s)
	if err := s.Pause(id); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	tick(t, s)
	tick(t, s)
	if got := s.RunCount(id); got != 1 {
		t.Fatalf("RunCount while paused = %d, want 1", got)
	}
	if err := s.Resume(id); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	tick(t, s)
	if got := s.RunCount(id); got != 2 {
		t.Fatalf("RunCount after resume = %d, want 2", got)
	}
}

func TestPriorityOrder(t *testing.T) {
	s, _ := newTestSched(t, 4)
	var order []string
	// Low-priority task deliberately created first: priority must beat
	// creation/slot order.
	mustCreate(t, s, TaskSpec{Name: "low", Loop: func() { order = append(order, "low") }, Priority: PriorityLow, AutoStart: true})
	mustCreate(t, s, TaskSpec{Name: "high", Loop: func() { order = append(order, "high") }, Priority: PriorityHigh, AutoStart: true})
	mustCreate(t, s, TaskSpec{Name: "norm", Loop: func() { order = append(order, "norm") }, Priority: PriorityNormal, AutoStart: true})
	begin(t, s)
	tick(t, s)

	want := []string{"high", "norm", "low"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestEqualPriorityTiesBreakBySlotIndex(t *testing.T) {
	s, _ := newTestSched(t, 4)
	var order []TaskID
	loop := func(id *TaskID) func() {
		return func() { order = append(order, *id) }
	}
	var a, b, c TaskID
	a = mustCreate(t, s, TaskSpec{Name: "a", Loop: loop(&a), AutoStart: true})
	b = mustCreate(t, s, TaskSpec{Name: "b", Loop: loop(&b), AutoStart: true})
	c = mustCreate(t, s, TaskSpec{Name: "c", Loop: loop(&c), AutoStart: true})
	begin(t, s)
	tick(t, s)
	if len(order) != 3 || order[0] != a || order[1] != b || order[2] != c {
		t.Fatalf("order = %v, want [%d %d %d]", order, a, b, c)
	}
}

func TestMidTickStartExcludedFromCurrentTick(t *testing.T) {
	s, _ := newTestSched(t, 4)

	var late TaskID
	started := false
	mustCreate(t, s, TaskSpec{
		Name: "starter",
		Loop: func() {
			if !started {
				started = true
				if _, err := s.Start(late, false); err != nil {
					t.Errorf("mid-tick Start: %v", err)
				}
			}
		},
		AutoStart: true,
	})
	late = mustCreate(t, s, TaskSpec{Name: "late", Loop: func() {}})
	begin(t, s)

	tick(t, s)
	if got := s.RunCount(late); got != 0 {
		t.Fatalf("late ran in the tick it was started in: RunCount = %d", got)
	}
	tick(t, s)
	if got := s.RunCount(late); got != 1 {
		t.Fatalf("late RunCount after next tick = %d, want 1", got)
	}
}

func TestMidTickImmediateStartRunsSameTick(t *testing.T) {
	s, _ := newTestSched(t, 4)

	var late TaskID
	started := false
	mustCreate(t, s, TaskSpec{
		Name: "starter",
		Loop: func() {
			if !started {
				started = true
				if _, err := s.Start(late, true); err != nil {
					t.Errorf("mid-tick Start: %v", err)
				}
			}
		},
		AutoStart: true,
	})
	late = mustCreate(t, s, TaskSpec{Name: "eager", Loop: func() {}})
	begin(t, s)

	tick(t, s)
	if got := s.RunCount(late); got != 1 {
		t.Fatalf("eager RunCount after start tick = %d, want 1", got)
	}
}

func TestWraparoundDueTime(t *testing.T) {
	s, clk := newTestSched(t, 4)
	clk.Set(4294967200) // 96 ms below the 32-bit ceiling

	id := mustCreate(t, s, TaskSpec{Name: "wrapper", Loop: func() {}, Interval: 1000})
	begin(t, s)
	if _, err := s.Start(id, false); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// 100 ms of the interval elapse across the wrap: not due yet.
	clk.Set(4) // 96 ms to the ceiling + 4 past it
	tick(t, s)
	if got := s.RunCount(id); got != 0 {
		t.Fatalf("ran only 100ms into a 1000ms interval: RunCount = %d", got)
	}

	// Exactly one interval after the start, on the wrapped side.
	clk.Set(904)
	tick(t, s)
	if got := s.RunCount(id); got != 1 {
		t.Fatalf("RunCount at wrapped due time = %d, want 1", got)
	}
}

func TestNoCatchUpStorm(t *testing.T) {
	s, clk := newTestSched(t, 4)
	id := mustCreate(t, s, TaskSpec{Name: "stalled", Loop: func() {}, Interval: 10, AutoStart: true})
	begin(t, s)
	tick(t, s)
	if got := s.RunCount(id); got != 1 {
		t.Fatalf("RunCount = %d, want 1", got)
	}

	// A long stall covers many intervals; a single tick still runs once.
	clk.Advance(10_000)
	tick(t, s)
	if got := s.RunCount(id); got != 2 {
		t.Fatalf("RunCount after stall = %d, want 2 (one run per tick)", got)
	}
}

func TestLastRunRecordsActualExecutionTime(t *testing.T) {
	s, clk := newTestSched(t, 4)
	id := mustCreate(t, s, TaskSpec{
		Name:      "slow",
		Loop:      func() { clk.Advance(50) }, // the work itself takes 50ms
		Interval:  100,
		AutoStart: true,
	})
	begin(t, s)

	tick(t, s)
	// Entry was at t=0, exit at t=50: lastRun is the exit time, so the next
	// due time counts from when the task actually finished.
	if got := s.LastRun(id); got != 50 {
		t.Fatalf("LastRun = %d, want 50 (exit time)", got)
	}

	clk.Set(149)
	tick(t, s)
	if got := s.RunCount(id); got != 1 {
		t.Fatalf("ran before exit+interval: RunCount = %d", got)
	}
	clk.Set(150)
	tick(t, s)
	if got := s.RunCount(id); got != 2 {
		t.Fatalf("RunCount at exit+interval = %d, want 2", got)
	}
}

func TestSetIntervalTimingReset(t *testing.T) {
	s, clk := newTestSched(t, 4)
	id := mustCreate(t, s, TaskSpec{Name: "tunable", Loop: func() {}, Interval: 100, AutoStart: true})
	begin(t, s)
	tick(t, s) // runs at t=0, lastRun=0

	// Without resetTiming the due time still counts from the old lastRun.
	clk.Set(50)
	if err := s.SetInterval(id, 100, false); err != nil {
		t.Fatalf("SetInterval: %v", err)
	}
	clk.Set(100)
	tick(t, s)
	if got := s.RunCount(id); got != 2 {
		t.Fatalf("RunCount = %d, want 2 (due from original lastRun)", got)
	}

	// With resetTiming the interval restarts from the moment of the call.
	clk.Set(150)
	if err := s.SetInterval(id, 100, true); err != nil {
		t.Fatalf("SetInterval reset: %v", err)
	}
	clk.Set(200)
	tick(t, s)
	if got := s.RunCount(id); got != 2 {
		t.Fatalf("RunCount = %d, want 2 (timing was reset at t=150)", got)
	}
	clk.Set(250)
	tick(t, s)
	if got := s.RunCount(id); got != 3 {
		t.Fatalf("RunCount = %d, want 3", got)
	}
}

func TestRunCountWrapSkipsZero(t *testing.T) {
	s, _ := newTestSched(t, 4)
	id := mustCreate(t, s, TaskSpec{Name: "veteran", Loop: func() {}, AutoStart: true})
	begin(t, s)
	tick(t, s)

	s.slots[id].counter = 0xFFFFFFFF
	tick(t, s)
	if got := s.RunCount(id); got != 1 {
		t.Fatalf("RunCount after wrap = %d, want 1 (0 means never-run)", got)
	}
}

func TestTimeoutDetection(t *testing.T) {
	s, clk := newTestSched(t, 4)
	var reported []uint32
	s.SetTimeoutHook(func(id TaskID, elapsed uint32) { reported = append(reported, elapsed) })

	id := mustCreate(t, s, TaskSpec{
		Name:      "laggard",
		Loop:      func() { clk.Advance(50) },
		Timeout:   10,
		AutoStart: true,
	})
	begin(t, s)
	tick(t, s)

	if len(reported) != 1 || reported[0] != 50 {
		t.Fatalf("timeout reports = %v, want [50]", reported)
	}

	// A generous timeout stays quiet.
	if err := s.SetTimeout(id, 1000); err != nil {
		t.Fatalf("SetTimeout: %v", err)
	}
	tick(t, s)
	if len(reported) != 1 {
		t.Fatalf("timeout fired under generous limit: %v", reported)
	}
}

func TestTimeoutSelfExtensionSuppressesReport(t *testing.T) {
	s, clk := newTestSched(t, 4)
	fired := false
	s.SetTimeoutHook(func(TaskID, uint32) { fired = true })

	var id TaskID
	id = mustCreate(t, s, TaskSpec{
		Name: "aware",
		Loop: func() {
			// The task knows this run will overshoot and extends itself.
			_ = s.SetTimeout(id, 100)
			clk.Advance(50)
		},
		Timeout:   10,
		AutoStart: true,
	})
	begin(t, s)
	tick(t, s)

	if fired {
		t.Fatalf("timeout reported despite cooperative self-extension")
	}
}

func TestReentrantTickRejected(t *testing.T) {
	s, _ := newTestSched(t, 4)
	var inner error
	mustCreate(t, s, TaskSpec{
		Name:      "nester",
		Loop:      func() { inner = s.Tick() },
		AutoStart: true,
	})
	begin(t, s)
	tick(t, s)
	if inner != ErrReentrantTick {
		t.Fatalf("nested Tick err = %v, want ErrReentrantTick", inner)
	}
}

func TestResetFromCallbackRejected(t *testing.T) {
	s, _ := newTestSched(t, 4)
	var inner error
	id := mustCreate(t, s, TaskSpec{
		Name:      "vandal",
		Loop:      func() { inner = s.Reset(false) },
		AutoStart: true,
	})
	begin(t, s)
	tick(t, s)
	if inner != ErrResetInCallback {
		t.Fatalf("Reset from loop err = %v, want ErrResetInCallback", inner)
	}
	if !s.IsValid(id) {
		t.Fatalf("rejected Reset still destroyed state")
	}
}

func TestReset(t *testing.T) {
	s, _ := newTestSched(t, 4)
	traced := 0
	s.SetTraceHook(func(TraceEvent, TaskID) { traced++ })
	mustCreate(t, s, TaskSpec{Name: "doomed", Loop: func() {}, AutoStart: true})
	begin(t, s)
	tick(t, s)

	if err := s.Reset(true); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s.TaskCount() != 0 || s.AllocatedSlots() != 0 || s.Begun() {
		t.Fatalf("Reset left state behind: count=%d slots=%d begun=%v",
			s.TaskCount(), s.AllocatedSlots(), s.Begun())
	}

	// Hooks were preserved; a fresh task still traces.
	before := traced
	mustCreate(t, s, TaskSpec{Name: "fresh", Loop: func() {}, AutoStart: true})
	begin(t, s)
	tick(t, s)
	if traced == before {
		t.Fatalf("trace hook lost across Reset(preserveHooks=true)")
	}

	if err := s.Reset(false); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	before = traced
	mustCreate(t, s, TaskSpec{Name: "silent", Loop: func() {}, AutoStart: true})
	begin(t, s)
	tick(t, s)
	if traced != before {
		t.Fatalf("trace hook survived Reset(preserveHooks=false)")
	}
}

func TestYieldRunsOtherTasks(t *testing.T) {
	s, _ := newTestSched(t, 4)
	var order []string
	var yieldErr error

	mustCreate(t, s, TaskSpec{
		Name: "host",
		Loop: func() {
			order = append(order, "host-begin")
			yieldErr = s.Yield()
			order = append(order, "host-end")
		},
		AutoStart: true,
	})
	other := mustCreate(t, s, TaskSpec{
		Name:      "guest",
		Loop:      func() { order = append(order, "guest") },
		AutoStart: true,
	})
	begin(t, s)
	tick(t, s)

	if yieldErr != nil {
		t.Fatalf("Yield: %v", yieldErr)
	}
	want := []string{"host-begin", "guest", "host-end"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	// The guest ran inside the yield and must not run again in the same
	// tick's outer pass.
	if got := s.RunCount(other); got != 1 {
		t.Fatalf("guest RunCount = %d, want 1", got)
	}
}

func TestYieldedTaskCannotBeStopped(t *testing.T) {
	s, _ := newTestSched(t, 4)
	var host TaskID
	var stopErr, delErr error

	host = mustCreate(t, s, TaskSpec{
		Name:      "host",
		Loop:      func() { _ = s.Yield() },
		AutoStart: true,
	})
	mustCreate(t, s, TaskSpec{
		Name: "assassin",
		Loop: func() {
			_, stopErr = s.Stop(host)
			delErr = s.Delete(host)
		},
		AutoStart: true,
	})
	begin(t, s)
	tick(t, s)

	if stopErr != ErrTaskSuspended {
		t.Fatalf("Stop(yielded) err = %v, want ErrTaskSuspended", stopErr)
	}
	if delErr != ErrWrongState {
		t.Fatalf("Delete(yielded) err = %v, want ErrWrongState", delErr)
	}
	if st := s.StateOf(host); st != StateRunning {
		t.Fatalf("host state = %v, want running", st)
	}
}

func TestYieldOutsideCallbackRejected(t *testing.T) {
	s, _ := newTestSched(t, 4)
	begin(t, s)
	if err := s.Yield(); err != ErrNotInCallback {
		t.Fatalf("Yield outside callback: err = %v, want ErrNotInCallback", err)
	}
}
