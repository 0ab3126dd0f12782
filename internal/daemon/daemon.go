// Package daemon assembles the scheduler, its observability adapters, and
// the host services (config watching, snapshot reporting, systemd watchdog)
// into one runnable unit.
//
// The scheduler itself is single-threaded; every interaction with it happens
// on the tick goroutine. Other goroutines (cron, config reload) communicate
// with the tick loop over channels instead of touching the scheduler.
package daemon

import (
	"context"
	"fmt"
	"io"
	"time"

	"coopsched/internal/config"
	"coopsched/internal/history"
	"coopsched/internal/sched"
	"coopsched/internal/shell"
	"coopsched/internal/tracelog"
	logx "coopsched/pkg/logx"
)

type App struct {
	cfgm *config.Manager
	cfg  *config.Config

	logs *logx.Service
	log  logx.Logger

	s    *sched.Scheduler
	hist history.Store
	reg  shell.Registry

	rep *reporter
	wd  *watchdog

	sup *supervisor
}

// New loads the config and builds the full daemon. An empty cfgPath runs on
// defaults with no file watching.
func New(cfgPath string) (*App, error) {
	a := &App{}

	if cfgPath != "" {
		a.cfgm = config.NewManager(cfgPath)
		cfg, err := a.cfgm.Load()
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		a.cfg = cfg
	} else {
		a.cfg = config.Default()
	}

	a.logs, a.log = logx.New(logx.Config{
		Level:   a.cfg.Log.Level,
		Console: a.cfg.Log.Console,
		File: logx.FileConfig{
			Enabled: a.cfg.Log.File.Enabled,
			Path:    a.cfg.Log.File.Path,
		},
	})
	a.log = a.log.With(logx.String("comp", "daemon"))

	a.s = sched.New(sched.Config{
		Capacity:         a.cfg.Scheduler.Capacity,
		MaxCallbackDepth: a.cfg.Scheduler.MaxCallbackDepth,
		MaxNameLen:       a.cfg.Scheduler.MaxNameLen,
	})

	hist, err := history.Open(history.Config{
		Driver:      a.cfg.History.Driver,
		Path:        a.cfg.History.Path,
		BusyTimeout: a.cfg.History.BusyTimeoutDuration(),
		MaxAge:      a.cfg.History.MaxAgeDuration(),
	}, a.log.With(logx.String("comp", "history")))
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	a.hist = hist

	a.installHooks()

	a.reg = Builtins(a.log)
	if err := a.registerTasks(); err != nil {
		return nil, err
	}

	a.rep = newReporter(a.s, a.log)
	a.wd = newWatchdog(a.cfg.Watchdog.Enabled, a.log)

	// This scheduler is the process default so task behaviors can reach it
	// without plumbing.
	if err := sched.Promote(a.s); err != nil {
		return nil, err
	}
	return a, nil
}

// installHooks fans the scheduler's single hook slots out to the log adapter
// and, when history is enabled, the persistence recorder.
func (a *App) installHooks() {
	tl := tracelog.New(a.s, a.logs.Logger(), tracelog.Config{
		TimeoutWarnsPerSec: a.cfg.TraceLog.TimeoutWarnsPerSec,
		TraceLevelDebug:    a.cfg.TraceLog.DebugLoops,
	})
	if a.hist == nil {
		tl.Install()
		return
	}
	rec := history.NewRecorder(a.s, a.hist, a.log.With(logx.String("comp", "history")))
	a.s.SetTraceHook(func(ev sched.TraceEvent, id sched.TaskID) {
		tl.Trace(ev, id)
		rec.Trace(ev, id)
	})
	a.s.SetTimeoutHook(func(id sched.TaskID, elapsed uint32) {
		tl.Timeout(id, elapsed)
		rec.Timeout(id, elapsed)
	})
	a.s.SetStartFailureHook(func(id sched.TaskID, err error) {
		tl.StartFailure(id, err)
		rec.StartFailure(id, err)
	})
}

// registerTasks creates the tasks declared in config. Behaviors resolve
// against the builtin registry; an unknown behavior is a config error.
func (a *App) registerTasks() error {
	for _, tc := range a.cfg.Tasks {
		factory, ok := a.reg[tc.Behavior]
		if !ok {
			return fmt.Errorf("task %q: unknown behavior %q", tc.Name, tc.Behavior)
		}
		prio, _ := config.ParsePriority(tc.Priority)
		b := factory(a.s, tc.Name)
		if _, err := a.s.Create(sched.TaskSpec{
			Name:      tc.Name,
			Setup:     b.Setup,
			Loop:      b.Loop,
			Teardown:  b.Teardown,
			Interval:  tc.IntervalMS,
			Timeout:   tc.TimeoutMS,
			Priority:  prio,
			AutoStart: tc.AutoStart,
		}); err != nil {
			return fmt.Errorf("task %q: %w", tc.Name, err)
		}
	}
	return nil
}

// RunInteractive begins the scheduler and hands control to the command
// shell, which owns the tick loop. Returns when the shell exits.
func (a *App) RunInteractive(ctx context.Context, in io.Reader, out io.Writer) error {
	if err := a.s.Begin(); err != nil {
		return err
	}
	sh := shell.New(a.s, a.reg, a.log.With(logx.String("comp", "shell")))
	sh.TickEvery = a.cfg.Scheduler.TickInterval()
	sh.Hist = a.hist
	defer a.close()
	return sh.Run(ctx, in, out)
}

// Run begins the scheduler and drives it until ctx is canceled. Snapshot
// reporting, config watching, and the systemd watchdog run alongside.
func (a *App) Run(ctx context.Context) error {
	a.sup = newSupervisor(ctx, a.log)
	defer a.close()

	if err := a.s.Begin(); err != nil {
		return err
	}

	if a.cfg.Report.Enabled {
		if err := a.rep.start(a.cfg.Report.Spec); err != nil {
			return fmt.Errorf("report: %w", err)
		}
		defer a.rep.stop()
	}

	if a.cfgm != nil {
		a.sup.Go("config.watch", a.cfgm.Watch)
		a.sup.Go("config.reload", a.reloadLoop)
	}

	a.wd.notifyReady()
	a.sup.Go("sched.tick", a.tickLoop)

	a.log.Info("scheduler daemon started",
		logx.Int("tasks", a.s.TaskCount()),
		logx.Duration("tick_every", a.cfg.Scheduler.TickInterval()))

	<-a.sup.Context().Done()
	a.wd.notifyStopping()

	waitCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := a.sup.Wait(waitCtx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// tickLoop is the only goroutine that touches the scheduler after Begin.
func (a *App) tickLoop(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.Scheduler.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			n := a.s.StopAll()
			a.log.Info("tick loop stopping", logx.Int("stopped", n))
			return nil
		case <-ticker.C:
			if err := a.s.Tick(); err != nil {
				return fmt.Errorf("tick: %w", err)
			}
			a.wd.kick()
		case <-a.rep.requests():
			a.rep.emit()
		}
	}
}

// reloadLoop applies config rewrites that are safe to take live. Scheduler
// shape (capacity, depth) needs a restart; only logging is hot-swapped.
func (a *App) reloadLoop(ctx context.Context) error {
	sub := a.cfgm.Subscribe(4)
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg, ok := <-sub:
			if !ok {
				return nil
			}
			a.logs.Apply(logx.Config{
				Level:   cfg.Log.Level,
				Console: cfg.Log.Console,
				File: logx.FileConfig{
					Enabled: cfg.Log.File.Enabled,
					Path:    cfg.Log.File.Path,
				},
			})
			if cfg.Scheduler != a.cfg.Scheduler {
				a.log.Warn("scheduler settings changed on disk; restart to apply")
			}
			a.cfg = cfg
			a.log.Info("config reloaded", logx.String("level", cfg.Log.Level))
		}
	}
}

func (a *App) close() {
	if a.hist != nil {
		_ = a.hist.Close()
	}
	_ = a.logs.Close()
	sched.Demote()
}
