package daemon

import (
	"time"

	"coopsched/internal/sched"
	"coopsched/internal/shell"
	logx "coopsched/pkg/logx"
)

// Builtins returns the behaviors tasks can be created from, either in the
// config file or at the shell.
func Builtins(log logx.Logger) shell.Registry {
	log = log.With(logx.String("comp", "task"))
	return shell.Registry{
		// noop does nothing; useful for exercising scheduling itself.
		"noop": func(_ *sched.Scheduler, _ string) shell.Behavior {
			return shell.Behavior{Loop: func() {}}
		},

		// heartbeat logs each run with its run count.
		"heartbeat": func(s *sched.Scheduler, name string) shell.Behavior {
			return shell.Behavior{
				Setup: func() { log.Info("heartbeat up", logx.String("task", name)) },
				Loop: func() {
					id := s.FindByName(name)
					log.Info("heartbeat", logx.String("task", name), logx.Uint32("runs", s.RunCount(id)+1))
				},
				Teardown: func() { log.Info("heartbeat down", logx.String("task", name)) },
			}
		},

		// slowpoke burns 50ms per run; pair it with a timeout to watch the
		// overrun reporting fire.
		"slowpoke": func(_ *sched.Scheduler, _ string) shell.Behavior {
			return shell.Behavior{Loop: func() { time.Sleep(50 * time.Millisecond) }}
		},
	}
}
