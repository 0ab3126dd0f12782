package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"coopsched/internal/sched"
	logx "coopsched/pkg/logx"
)

func newTestShell(t *testing.T) (*Shell, *sched.ManualClock, *bytes.Buffer) {
	t.Helper()
	clk := sched.NewManualClock(0)
	s := sched.New(sched.Config{Clock: clk})
	if err := s.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	counters := map[string]*int{}
	reg := Registry{
		"counter": func(_ *sched.Scheduler, name string) Behavior {
			n := new(int)
			counters[name] = n
			return Behavior{Loop: func() { *n++ }}
		},
	}
	sh := New(s, reg, logx.Nop())
	sh.out = &bytes.Buffer{}
	return sh, clk, sh.out.(*bytes.Buffer)
}

func run(sh *Shell, lines ...string) {
	for _, l := range lines {
		sh.exec(l)
	}
}

func TestCreateListAndTick(t *testing.T) {
	sh, clk, out := newTestShell(t)

	run(sh, "create beat counter 100", "start beat", "tick")
	clk.Advance(100)
	run(sh, "tick", "list")

	text := out.String()
	if !strings.Contains(text, "created 0") {
		t.Fatalf("missing create ack:\n%s", text)
	}
	if !strings.Contains(text, "started") {
		t.Fatalf("missing start ack:\n%s", text)
	}
	if !strings.Contains(text, "runs=1") {
		t.Fatalf("expected one run:\n%s", text)
	}
}

func TestResolveByNameAndID(t *testing.T) {
	sh, _, out := newTestShell(t)

	run(sh, "create a counter 10", "create b counter 10")
	out.Reset()
	run(sh, "info b")
	if !strings.Contains(out.String(), "name:     b") {
		t.Fatalf("info by name:\n%s", out.String())
	}
	out.Reset()
	run(sh, "info 0")
	if !strings.Contains(out.String(), "name:     a") {
		t.Fatalf("info by id:\n%s", out.String())
	}
	out.Reset()
	run(sh, "info ghost")
	if !strings.Contains(out.String(), "no such task") {
		t.Fatalf("bad task accepted:\n%s", out.String())
	}
}

func TestLifecycleCommands(t *testing.T) {
	sh, _, out := newTestShell(t)

	run(sh, "create a counter 10", "start a", "pause a", "resume a", "stop a", "delete a")
	text := out.String()
	for _, want := range []string{"started", "ok", "stopped"} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q:\n%s", want, text)
		}
	}
	if sh.s.TaskCount() != 0 {
		t.Fatalf("task survived delete")
	}

	out.Reset()
	run(sh, "delete a")
	if !strings.Contains(out.String(), "no such task") {
		t.Fatalf("deleted task still resolvable:\n%s", out.String())
	}
}

func TestErrAndClearErr(t *testing.T) {
	sh, _, out := newTestShell(t)

	run(sh, "create a counter 10", "pause a") // pause while Stopped fails
	out.Reset()
	run(sh, "err")
	if !strings.Contains(out.String(), "invalid for task state") {
		t.Fatalf("err register:\n%s", out.String())
	}
	run(sh, "clearerr")
	out.Reset()
	run(sh, "err")
	if got := strings.TrimSpace(out.String()); got != "ok" {
		t.Fatalf("clearerr: err reads %q", got)
	}
}

func TestUnknownCommandAndBehavior(t *testing.T) {
	sh, _, out := newTestShell(t)

	run(sh, "frobnicate", "create x nosuch 10")
	text := out.String()
	if !strings.Contains(text, "unknown command") || !strings.Contains(text, "unknown behavior") {
		t.Fatalf("diagnostics:\n%s", text)
	}
}

func TestRunExitsOnQuitAndEOF(t *testing.T) {
	sh, _, _ := newTestShell(t)

	done := make(chan error, 1)
	go func() {
		done <- sh.Run(context.Background(), strings.NewReader("list\nquit\n"), &bytes.Buffer{})
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit on quit")
	}

	sh2, _, _ := newTestShell(t)
	go func() {
		done <- sh2.Run(context.Background(), strings.NewReader("list\n"), &bytes.Buffer{})
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run after EOF: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit on EOF")
	}
}
