package config

import (
	"strings"

	"coopsched/internal/sched"
)

// ParsePriority maps a config string to a scheduler priority. The empty
// string means normal.
func ParsePriority(s string) (sched.Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return sched.PriorityNormal, true
	case "idle":
		return sched.PriorityIdle, true
	case "low":
		return sched.PriorityLow, true
	case "high":
		return sched.PriorityHigh, true
	case "critical":
		return sched.PriorityCritical, true
	default:
		return sched.PriorityNormal, false
	}
}
