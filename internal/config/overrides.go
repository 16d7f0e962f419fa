package config

import (
	"context"
	"fmt"

	"github.com/llm-d-incubation/session-matcher/api/v1alpha1"
	"github.com/llm-d-incubation/session-matcher/internal/logging"
	"github.com/llm-d-incubation/session-matcher/internal/utils/names"
)

// CapacityOverride replaces the capacity of one loaded session.
//
// Example config file entry:
//
//	overrides:
//	  - name: Robotics
//	    capacity: 40
type CapacityOverride struct {
	Name     string `yaml:"name" json:"name"`
	Capacity int    `yaml:"capacity" json:"capacity"`
}

// Validate checks for invalid override values.
func (o *CapacityOverride) Validate() error {
	if o.Name == "" {
		return v1alpha1.ErrMissingName
	}
	if o.Capacity < 1 {
		return fmt.Errorf("capacity must be >= 1, got %d", o.Capacity)
	}
	return nil
}

// ApplyOverrides returns sessions with overridden capacities. Invalid
// entries and entries naming no loaded session are skipped; when two entries
// name the same session the first one wins. sessions is not modified.
func ApplyOverrides(ctx context.Context, sessions []v1alpha1.SessionRecord, overrides []CapacityOverride, mode names.Mode) []v1alpha1.SessionRecord {
	logger := logging.FromContext(ctx)
	out := make([]v1alpha1.SessionRecord, len(sessions))
	copy(out, sessions)
	if len(overrides) == 0 {
		return out
	}

	index := make(map[string]int, len(out))
	for i, s := range out {
		index[s.Name] = i
	}

	applied := make(map[string]int, len(overrides))
	for i, o := range overrides {
		if err := o.Validate(); err != nil {
			logger.Info("Invalid capacity override, skipping", "entry", i, "error", err)
			continue
		}
		name := names.Canonical(o.Name, mode)
		if first, exists := applied[name]; exists {
			logger.Info("Duplicate capacity override - first entry wins",
				"session", name, "winningEntry", first, "duplicateEntry", i)
			continue
		}
		pos, ok := index[name]
		if !ok {
			logger.Info("Capacity override names no loaded session, skipping", "session", name)
			continue
		}
		applied[name] = i
		out[pos].Capacity = o.Capacity
	}

	logger.V(logging.DEBUG).Info("Applied capacity overrides", "count", len(applied))
	return out
}
