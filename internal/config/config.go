// Package config loads and watches the daemon configuration.
//
// Config files are YAML (or JSON); YAML is coerced to JSON so both formats
// share one strict decoder that rejects unknown fields. Durations are
// written as Go duration strings ("10ms", "1h30m").
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

type Config struct {
	Log       LogConfig       `json:"log"`
	Scheduler SchedulerConfig `json:"scheduler"`
	History   HistoryConfig   `json:"history"`
	Report    ReportConfig    `json:"report"`
	Watchdog  WatchdogConfig  `json:"watchdog"`
	TraceLog  TraceLogConfig  `json:"tracelog"`
	Tasks     []TaskConfig    `json:"tasks"`
}

type LogConfig struct {
	Level   string `json:"level"`
	Console bool   `json:"console"`
	File    struct {
		Enabled bool   `json:"enabled"`
		Path    string `json:"path"`
	} `json:"file"`
}

type SchedulerConfig struct {
	Capacity         int    `json:"capacity"`
	MaxCallbackDepth int    `json:"max_callback_depth"`
	MaxNameLen       int    `json:"max_name_len"`
	TickEvery        string `json:"tick_every"`

	tickEvery time.Duration
}

// TickInterval returns the resolved tick pacing for the host loop.
func (c SchedulerConfig) TickInterval() time.Duration { return c.tickEvery }

type HistoryConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout"`
	MaxAge      string `json:"max_age"`

	busyTimeout time.Duration
	maxAge      time.Duration
}

func (c HistoryConfig) BusyTimeoutDuration() time.Duration { return c.busyTimeout }
func (c HistoryConfig) MaxAgeDuration() time.Duration      { return c.maxAge }

type ReportConfig struct {
	Enabled bool   `json:"enabled"`
	Spec    string `json:"spec"` // cron spec or "@every 1m"
}

type WatchdogConfig struct {
	Enabled bool `json:"enabled"`
}

type TraceLogConfig struct {
	TimeoutWarnsPerSec int  `json:"timeout_warns_per_sec"`
	DebugLoops         bool `json:"debug_loops"`
}

// TaskConfig declares a task the daemon registers at startup. Behavior
// names resolve against the host's behavior registry.
type TaskConfig struct {
	Name       string `json:"name"`
	Behavior   string `json:"behavior"`
	IntervalMS uint32 `json:"interval_ms"`
	TimeoutMS  uint32 `json:"timeout_ms"`
	Priority   string `json:"priority"` // idle|low|normal|high|critical
	AutoStart  bool   `json:"autostart"`
}

// Default returns the config used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Log.Level = "info"
	cfg.Log.Console = true
	cfg.Scheduler.Capacity = 16
	cfg.Scheduler.MaxCallbackDepth = 8
	cfg.Scheduler.MaxNameLen = 24
	cfg.Scheduler.TickEvery = "10ms"
	cfg.History.Driver = "none"
	cfg.Report.Spec = "@every 1m"
	_ = cfg.normalize()
	return cfg
}

// Parse decodes and validates a config document. The path is only used for
// format detection and error messages.
func Parse(path string, data []byte) (*Config, error) {
	jb, format, err := coerceToJSONBytes(path, data)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	cfg := Default()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%s config decode: %w", format, err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Scheduler.tickEvery, err = parseDurationField("scheduler.tick_every", c.Scheduler.TickEvery); err != nil {
		return err
	}
	if c.Scheduler.tickEvery <= 0 {
		c.Scheduler.tickEvery = 10 * time.Millisecond
	}
	if c.History.busyTimeout, err = parseDurationField("history.busy_timeout", c.History.BusyTimeout); err != nil {
		return err
	}
	if c.History.maxAge, err = parseDurationField("history.max_age", c.History.MaxAge); err != nil {
		return err
	}
	if c.Scheduler.Capacity <= 0 {
		return fmt.Errorf("scheduler.capacity must be > 0")
	}
	seen := map[string]bool{}
	for i, tc := range c.Tasks {
		if strings.TrimSpace(tc.Name) == "" {
			return fmt.Errorf("tasks[%d]: name required", i)
		}
		if seen[tc.Name] {
			return fmt.Errorf("tasks[%d]: duplicate name %q", i, tc.Name)
		}
		seen[tc.Name] = true
		if strings.TrimSpace(tc.Behavior) == "" {
			return fmt.Errorf("tasks[%d] (%s): behavior required", i, tc.Name)
		}
		if _, ok := ParsePriority(tc.Priority); !ok {
			return fmt.Errorf("tasks[%d] (%s): invalid priority %q", i, tc.Name, tc.Priority)
		}
	}
	return nil
}

func parseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

// coerceToJSONBytes converts YAML config to JSON bytes so we can re-use the strict
// JSON decoder (DisallowUnknownFields) for both formats.
//
// Returns (jsonBytes, format, err) where format is "json" or "yaml".
func coerceToJSONBytes(path string, data []byte) ([]byte, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return data, "json", nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, "yaml", fmt.Errorf("yaml unmarshal: %w", err)
	}

	v = normalizeYAML(v)

	j, err := json.Marshal(v)
	if err != nil {
		return nil, "yaml", fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, "yaml", nil
}

// normalizeYAML ensures all map keys are strings so the result can be JSON-marshaled.
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalizeYAML(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}
