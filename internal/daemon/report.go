package daemon

import (
	"github.com/robfig/cron/v3"

	"coopsched/internal/sched"
	logx "coopsched/pkg/logx"
)

// reporter logs a scheduler snapshot on a cron spec. The cron goroutine
// never touches the scheduler: firing only queues a request that the tick
// loop services between ticks.
type reporter struct {
	s   *sched.Scheduler
	log logx.Logger

	cron *cron.Cron
	reqs chan struct{}
}

func newReporter(s *sched.Scheduler, log logx.Logger) *reporter {
	return &reporter{
		s:    s,
		log:  log.With(logx.String("comp", "report")),
		reqs: make(chan struct{}, 1),
	}
}

func (r *reporter) start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, r.request); err != nil {
		return err
	}
	c.Start()
	r.cron = c
	return nil
}

func (r *reporter) stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

func (r *reporter) request() {
	select {
	case r.reqs <- struct{}{}:
	default:
	}
}

func (r *reporter) requests() <-chan struct{} { return r.reqs }

// emit runs on the tick goroutine.
func (r *reporter) emit() {
	snap := r.s.Snapshot()
	r.log.Info("scheduler snapshot",
		logx.Int("live", snap.Live),
		logx.Int("running", snap.Running),
		logx.Int("allocated", snap.Allocated),
		logx.Int("capacity", snap.Capacity),
		logx.Uint32("now_ms", snap.Now),
		logx.Stringer("last_error", snap.LastError),
	)
	for _, t := range snap.Tasks {
		r.log.Debug("task snapshot",
			logx.Int("task", int(t.ID)),
			logx.String("name", t.Name),
			logx.Stringer("state", t.State),
			logx.Stringer("priority", t.Priority),
			logx.Uint32("interval_ms", t.Interval),
			logx.Uint32("runs", t.RunCount),
		)
	}
}
