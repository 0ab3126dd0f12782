// Package history persists scheduler lifecycle events for operators.
//
// The engine itself persists nothing; this store hangs off the public trace
// and timeout hooks and only ever observes. It backs the shell's "history"
// command and the daemon's audit trail.
package history

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "coopsched/pkg/logx"
)

var ErrDisabled = errors.New("history disabled")

// Config configures the history store.
//
// Driver values:
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", history is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
	MaxAge      time.Duration // entries older than this are pruned; 0 keeps everything
}

// RunEntry records one observed scheduler event.
// Keep it compact and schema-stable.
type RunEntry struct {
	At        time.Time
	Task      int
	Name      string
	Event     string
	Error     string
	ElapsedMS int64
}

// Store is the persistence API used by the shell and daemon.
type Store interface {
	Append(ctx context.Context, e RunEntry) error
	Recent(ctx context.Context, limit int) ([]RunEntry, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if history is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown history driver: " + driver)
	}
}
