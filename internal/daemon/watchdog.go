package daemon

import (
	"time"

	sdnotify "github.com/coreos/go-systemd/v22/daemon"

	logx "coopsched/pkg/logx"
)

// watchdog pets the systemd watchdog from the tick loop, so a wedged task
// (which stalls ticking) stops the keepalives and systemd restarts us.
type watchdog struct {
	log logx.Logger

	interval time.Duration // 0 when disabled or not under systemd
	lastKick time.Time
}

func newWatchdog(enabled bool, log logx.Logger) *watchdog {
	w := &watchdog{log: log.With(logx.String("comp", "watchdog"))}
	if !enabled {
		return w
	}
	interval, err := sdnotify.SdWatchdogEnabled(false)
	if err != nil {
		w.log.Warn("watchdog query failed", logx.Err(err))
		return w
	}
	if interval <= 0 {
		w.log.Debug("systemd watchdog not configured")
		return w
	}
	// Kick at half the configured interval, per sd_watchdog_enabled(3).
	w.interval = interval / 2
	w.log.Info("systemd watchdog armed", logx.Duration("kick_every", w.interval))
	return w
}

func (w *watchdog) notifyReady() {
	if _, err := sdnotify.SdNotify(false, sdnotify.SdNotifyReady); err != nil {
		w.log.Debug("sd_notify ready failed", logx.Err(err))
	}
}

func (w *watchdog) notifyStopping() {
	if _, err := sdnotify.SdNotify(false, sdnotify.SdNotifyStopping); err != nil {
		w.log.Debug("sd_notify stopping failed", logx.Err(err))
	}
}

// kick runs after every healthy tick.
func (w *watchdog) kick() {
	if w.interval <= 0 {
		return
	}
	now := time.Now()
	if now.Sub(w.lastKick) < w.interval {
		return
	}
	if _, err := sdnotify.SdNotify(false, sdnotify.SdNotifyWatchdog); err != nil {
		w.log.Warn("watchdog kick failed", logx.Err(err))
		return
	}
	w.lastKick = now
}
