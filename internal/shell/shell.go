// Package shell is a line-oriented control console for a scheduler.
//
// It is strictly a consumer of the scheduler's public API: every command
// maps onto one or a few engine calls. The shell owns the goroutine that
// ticks the scheduler; command lines arrive over a channel and are applied
// between ticks, which preserves the engine's single-threaded discipline.
//
// Task code cannot be typed into a terminal, so "create" binds callbacks
// from a named behavior registry populated by the host.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"coopsched/internal/history"
	"coopsched/internal/sched"
	logx "coopsched/pkg/logx"
)

// Behavior is a callback triple a task can be created from.
type Behavior struct {
	Setup    func()
	Loop     func()
	Teardown func()
}

// Factory builds a Behavior instance for one task. The scheduler handle
// lets behaviors call back into the public API (yield, self-tune, ...).
type Factory func(s *sched.Scheduler, taskName string) Behavior

// Registry maps behavior names to factories.
type Registry map[string]Factory

// Shell drives one scheduler from a line protocol.
type Shell struct {
	s   *sched.Scheduler
	reg Registry
	log logx.Logger

	// TickEvery paces automatic ticking. Zero disables the ticker; the
	// "tick" command then steps the scheduler manually (useful in tests
	// and for debugging timing issues).
	TickEvery time.Duration

	// Hist enables the "history" command when non-nil.
	Hist history.Store

	out io.Writer
}

func New(s *sched.Scheduler, reg Registry, log logx.Logger) *Shell {
	return &Shell{s: s, reg: reg, log: log}
}

// Run reads commands from in until EOF, "quit", or ctx cancellation,
// ticking the scheduler in between. Output goes to out.
func (sh *Shell) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	sh.out = out

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	var tickC <-chan time.Time
	if sh.TickEvery > 0 {
		ticker := time.NewTicker(sh.TickEvery)
		defer ticker.Stop()
		tickC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tickC:
			if err := sh.s.Tick(); err != nil {
				sh.log.Error("tick failed", logx.Err(err))
			}
		case line, open := <-lines:
			if !open {
				return nil
			}
			if quit := sh.exec(line); quit {
				return nil
			}
		}
	}
}

func (sh *Shell) printf(format string, args ...any) {
	fmt.Fprintf(sh.out, format+"\n", args...)
}

// resolve turns a task argument (name or numeric id) into a TaskID.
func (sh *Shell) resolve(arg string) (sched.TaskID, bool) {
	if id := sh.s.FindByName(arg); id != sched.NoTask {
		return id, true
	}
	if n, err := strconv.Atoi(arg); err == nil && sh.s.IsValid(sched.TaskID(n)) {
		return sched.TaskID(n), true
	}
	sh.printf("no such task: %s", arg)
	return sched.NoTask, false
}
