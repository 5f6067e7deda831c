// Package health runs dependency probes for the liveness endpoint.
package health

import (
	"context"
	"sync"
	"time"
)

// Status is the outcome of one probe run.
type Status struct {
	Name     string `json:"name"`
	Healthy  bool   `json:"healthy"`
	Detail   string `json:"detail,omitempty"`
	Optional bool   `json:"optional,omitempty"`

	// LatencyMS is how long the probe took; a healthy-but-slow
	// dependency shows up here before it starts failing.
	LatencyMS int64 `json:"latencyMs"`
}

// Probe checks one dependency. A nil error means healthy; detail carries
// extra context either way (version info on success, cause on failure).
type Probe func(ctx context.Context) (detail string, err error)

type entry struct {
	name     string
	optional bool
	probe    Probe
}

// Registry holds the service's probes in registration order.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
}

// NewRegistry creates an empty probe registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a probe whose failure marks the whole service unhealthy.
func (r *Registry) Register(name string, probe Probe) {
	r.mu.Lock()
	r.entries = append(r.entries, entry{name: name, probe: probe})
	r.mu.Unlock()
}

// RegisterOptional adds a probe that is reported but never fails the
// aggregate, for dependencies the service can keep serving without.
func (r *Registry) RegisterOptional(name string, probe Probe) {
	r.mu.Lock()
	r.entries = append(r.entries, entry{name: name, optional: true, probe: probe})
	r.mu.Unlock()
}

// Check runs every probe and returns the aggregate verdict plus the
// per-probe results in registration order.
func (r *Registry) Check(ctx context.Context) (healthy bool, statuses []Status) {
	r.mu.RLock()
	entries := make([]entry, len(r.entries))
	copy(entries, r.entries)
	r.mu.RUnlock()

	healthy = true
	statuses = make([]Status, len(entries))

	for i, e := range entries {
		start := time.Now()
		detail, err := e.probe(ctx)

		st := Status{
			Name:      e.name,
			Optional:  e.optional,
			Detail:    detail,
			LatencyMS: time.Since(start).Milliseconds(),
		}
		if err != nil {
			st.Detail = err.Error()
			if !e.optional {
				healthy = false
			}
		} else {
			st.Healthy = true
		}
		statuses[i] = st
	}

	return healthy, statuses
}
