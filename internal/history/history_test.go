package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "coopsched/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	for _, driver := range []string{"", "none"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("Open(%q): %v", driver, err)
		}
		if st != nil {
			t.Fatalf("Open(%q) returned a store", driver)
		}
	}
	if _, err := Open(Config{Driver: "etcd"}, logx.Nop()); err == nil {
		t.Fatalf("unknown driver accepted")
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(Config{Driver: "sqlite", Path: filepath.Join(dir, "history.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	now := time.Now()
	events := []string{"starting", "started", "stopped"}
	for i, ev := range events {
		e := RunEntry{
			At:    now.Add(time.Duration(i) * time.Second),
			Task:  i,
			Name:  "worker",
			Event: ev,
		}
		if err := st.Append(ctx, e); err != nil {
			t.Fatalf("Append(%s): %v", ev, err)
		}
	}

	recent, err := st.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent returned %d entries, want 2", len(recent))
	}
	// Most recent first.
	if recent[0].Event != "stopped" || recent[1].Event != "started" {
		t.Fatalf("Recent order = %s,%s", recent[0].Event, recent[1].Event)
	}

	removed, err := st.PruneBefore(ctx, now.Add(1500*time.Millisecond))
	if err != nil {
		t.Fatalf("PruneBefore: %v", err)
	}
	if removed != 2 {
		t.Fatalf("pruned %d entries, want 2", removed)
	}
	recent, err = st.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent after prune: %v", err)
	}
	if len(recent) != 1 || recent[0].Event != "stopped" {
		t.Fatalf("unexpected survivors: %+v", recent)
	}
}
