package daemon

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewRegistersConfiguredTasks(t *testing.T) {
	path := writeConfig(t, `
log:
  level: error
  console: false
tasks:
  - name: beat
    behavior: noop
    interval_ms: 100
    autostart: true
`)
	app, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer app.close()

	if app.s.TaskCount() != 1 {
		t.Fatalf("task count = %d", app.s.TaskCount())
	}
	if id := app.s.FindByName("beat"); id < 0 {
		t.Fatal("configured task not found")
	}
}

func TestNewRejectsUnknownBehavior(t *testing.T) {
	path := writeConfig(t, `
tasks:
  - name: beat
    behavior: nosuch
`)
	if _, err := New(path); err == nil || !strings.Contains(err.Error(), "nosuch") {
		t.Fatalf("unknown behavior accepted: %v", err)
	}
}

func TestRunInteractiveQuits(t *testing.T) {
	app, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	if err := app.RunInteractive(ctx, strings.NewReader("list\nquit\n"), &out); err != nil {
		t.Fatalf("RunInteractive: %v", err)
	}
	if !strings.Contains(out.String(), "tasks 0/16") {
		t.Fatalf("list output:\n%s", out.String())
	}
}
