package shell

import (
	"context"
	"strconv"
	"strings"
	"time"

	"coopsched/internal/config"
	"coopsched/internal/sched"
)

// exec runs one command line. It returns true when the shell should exit.
func (sh *Shell) exec(line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}
	cmd, args := strings.ToLower(args[0]), args[1:]

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		sh.printf("%s", helpText)
	case "tick":
		if err := sh.s.Tick(); err != nil {
			sh.printf("tick: %v", err)
		}
	case "create":
		sh.cmdCreate(args)
	case "delete":
		sh.withTask(args, func(id sched.TaskID) {
			sh.report(sh.s.Delete(id))
		})
	case "zap":
		sh.withTask(args, func(id sched.TaskID) {
			sh.report(sh.s.StopAndDelete(id))
		})
	case "start":
		sh.withTask(args, func(id sched.TaskID) {
			now := len(args) > 1 && args[1] == "now"
			out, err := sh.s.Start(id, now)
			if err != nil {
				sh.printf("error: %v", err)
				return
			}
			sh.printf("%s", startOutcome(out))
		})
	case "stop":
		sh.withTask(args, func(id sched.TaskID) {
			out, err := sh.s.Stop(id)
			if err != nil {
				sh.printf("error: %v", err)
				return
			}
			sh.printf("%s", stopOutcome(out))
		})
	case "pause":
		sh.withTask(args, func(id sched.TaskID) { sh.report(sh.s.Pause(id)) })
	case "resume":
		sh.withTask(args, func(id sched.TaskID) { sh.report(sh.s.Resume(id)) })
	case "startall":
		sh.printf("started %d", sh.s.StartAll(len(args) > 0 && args[0] == "now"))
	case "stopall":
		sh.printf("stopped %d", sh.s.StopAll())
	case "pauseall":
		sh.printf("paused %d", sh.s.PauseAll())
	case "resumeall":
		sh.printf("resumed %d", sh.s.ResumeAll())
	case "interval":
		sh.withTaskU32(args, func(id sched.TaskID, ms uint32) {
			reset := len(args) > 2 && args[2] == "reset"
			sh.report(sh.s.SetInterval(id, ms, reset))
		})
	case "timeout":
		sh.withTaskU32(args, func(id sched.TaskID, ms uint32) {
			sh.report(sh.s.SetTimeout(id, ms))
		})
	case "priority":
		sh.withTask(args, func(id sched.TaskID) {
			if len(args) < 2 {
				sh.printf("usage: priority <task> <idle|low|normal|high|critical>")
				return
			}
			p, ok := config.ParsePriority(args[1])
			if !ok {
				sh.printf("bad priority: %s", args[1])
				return
			}
			sh.report(sh.s.SetPriority(id, p))
		})
	case "rename":
		sh.withTask(args, func(id sched.TaskID) {
			if len(args) < 2 {
				sh.printf("usage: rename <task> <new-name>")
				return
			}
			sh.report(sh.s.Rename(id, args[1]))
		})
	case "list":
		sh.cmdList()
	case "info":
		sh.withTask(args, sh.cmdInfo)
	case "find":
		if len(args) < 1 {
			sh.printf("usage: find <name>")
			break
		}
		if id := sh.s.FindByName(args[0]); id != sched.NoTask {
			sh.printf("%d", id)
		} else {
			sh.printf("not found")
		}
	case "current":
		if id := sh.s.CurrentTask(); id != sched.NoTask {
			sh.printf("%d %s", id, sh.s.Name(id))
		} else {
			sh.printf("none")
		}
	case "err":
		sh.printf("%s", sh.s.LastError())
	case "clearerr":
		sh.s.ClearLastError()
		sh.printf("ok")
	case "reset":
		keep := len(args) > 0 && args[0] == "keephooks"
		sh.report(sh.s.Reset(keep))
	case "history":
		sh.cmdHistory(args)
	default:
		sh.printf("unknown command: %s (try help)", cmd)
	}
	return false
}

func (sh *Shell) report(err error) {
	if err != nil {
		sh.printf("error: %v", err)
		return
	}
	sh.printf("ok")
}

func (sh *Shell) withTask(args []string, fn func(sched.TaskID)) {
	if len(args) < 1 {
		sh.printf("usage: <command> <task> ...")
		return
	}
	if id, ok := sh.resolve(args[0]); ok {
		fn(id)
	}
}

func (sh *Shell) withTaskU32(args []string, fn func(sched.TaskID, uint32)) {
	sh.withTask(args, func(id sched.TaskID) {
		if len(args) < 2 {
			sh.printf("usage: <command> <task> <ms>")
			return
		}
		ms, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			sh.printf("bad milliseconds: %s", args[1])
			return
		}
		fn(id, uint32(ms))
	})
}

// create <name> <behavior> <interval_ms> [priority] [timeout_ms]
func (sh *Shell) cmdCreate(args []string) {
	if len(args) < 3 {
		sh.printf("usage: create <name> <behavior> <interval_ms> [priority] [timeout_ms]")
		return
	}
	name, behavior := args[0], args[1]
	factory, ok := sh.reg[behavior]
	if !ok {
		sh.printf("unknown behavior: %s", behavior)
		return
	}
	interval, err := strconv.ParseUint(args[2], 10, 32)
	if err != nil {
		sh.printf("bad interval: %s", args[2])
		return
	}
	prio := sched.PriorityNormal
	if len(args) > 3 {
		if prio, ok = config.ParsePriority(args[3]); !ok {
			sh.printf("bad priority: %s", args[3])
			return
		}
	}
	var timeout uint64
	if len(args) > 4 {
		if timeout, err = strconv.ParseUint(args[4], 10, 32); err != nil {
			sh.printf("bad timeout: %s", args[4])
			return
		}
	}

	b := factory(sh.s, name)
	id, err := sh.s.Create(sched.TaskSpec{
		Name:     name,
		Setup:    b.Setup,
		Loop:     b.Loop,
		Teardown: b.Teardown,
		Interval: uint32(interval),
		Timeout:  uint32(timeout),
		Priority: prio,
	})
	if err != nil {
		sh.printf("error: %v", err)
		return
	}
	sh.printf("created %d", id)
}

func (sh *Shell) cmdList() {
	snap := sh.s.Snapshot()
	sh.printf("tasks %d/%d (running %d)", snap.Live, snap.Capacity, snap.Running)
	for _, t := range snap.Tasks {
		sh.printf("%3d  %-24s %-8s %-8s interval=%dms runs=%d",
			t.ID, t.Name, t.State, t.Priority, t.Interval, t.RunCount)
	}
}

func (sh *Shell) cmdInfo(id sched.TaskID) {
	sh.printf("id:       %d", id)
	sh.printf("name:     %s", sh.s.Name(id))
	sh.printf("state:    %s", sh.s.StateOf(id))
	if p, ok := sh.s.PriorityOf(id); ok {
		sh.printf("priority: %s", p)
	}
	sh.printf("interval: %dms", sh.s.IntervalOf(id))
	sh.printf("timeout:  %dms", sh.s.TimeoutOf(id))
	sh.printf("runs:     %d", sh.s.RunCount(id))
	sh.printf("lastrun:  %dms", sh.s.LastRun(id))
}

func (sh *Shell) cmdHistory(args []string) {
	if sh.Hist == nil {
		sh.printf("history disabled")
		return
	}
	limit := 20
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			limit = n
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	entries, err := sh.Hist.Recent(ctx, limit)
	if err != nil {
		sh.printf("history: %v", err)
		return
	}
	for _, e := range entries {
		line := e.At.Format(time.RFC3339) + " " + e.Name + " " + e.Event
		if e.Error != "" {
			line += " err=" + e.Error
		}
		sh.printf("%s", line)
	}
}

func startOutcome(out sched.StartOutcome) string {
	switch out {
	case sched.StartOK:
		return "started"
	case sched.StartSetupChangedState:
		return "started (setup changed state)"
	default:
		return "start failed"
	}
}

func stopOutcome(out sched.StopOutcome) string {
	switch out {
	case sched.StopOK:
		return "stopped"
	case sched.StopTeardownSkipped:
		return "stopped (teardown skipped)"
	case sched.StopTeardownChangedState:
		return "stopped (teardown changed state)"
	default:
		return "stop failed"
	}
}

const helpText = `commands:
  create <name> <behavior> <interval_ms> [priority] [timeout_ms]
  start <task> [now] | stop <task> | pause <task> | resume <task>
  delete <task> | zap <task>
  startall [now] | stopall | pauseall | resumeall
  interval <task> <ms> [reset] | timeout <task> <ms>
  priority <task> <level> | rename <task> <new-name>
  list | info <task> | find <name> | current
  err | clearerr | reset [keephooks] | tick | history [n]
  quit`
