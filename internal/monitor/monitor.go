// Package monitor tracks process health and recent errors for the
// procurement service. It keeps a bounded in-memory error log and derives a
// health report from runtime statistics and store counts.
package monitor

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"procurecore/pkg/domain"
)

const defaultMaxErrors = 1000

// ErrorEntry is one recorded error.
type ErrorEntry struct {
	Type      string            `json:"type"`
	Message   string            `json:"message"`
	Component string            `json:"component,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// ComponentHealth is the health of one subsystem.
type ComponentHealth struct {
	Name    string         `json:"name"`
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthReport is the aggregate health of the process.
type HealthReport struct {
	Status        string            `json:"status"`
	Timestamp     time.Time         `json:"timestamp"`
	UptimeSeconds float64           `json:"uptime_seconds"`
	Goroutines    int               `json:"goroutines"`
	HeapAllocMB   float64           `json:"heap_alloc_mb"`
	HeapSysMB     float64           `json:"heap_sys_mb"`
	NumGC         uint32            `json:"num_gc"`
	Components    []ComponentHealth `json:"components"`
}

// ErrorSummary aggregates the recorded errors.
type ErrorSummary struct {
	Count       int            `json:"count"`
	ByType      map[string]int `json:"by_type,omitempty"`
	ByComponent map[string]int `json:"by_component,omitempty"`
	Recent      []ErrorEntry   `json:"recent,omitempty"`
}

// ErrorFilter narrows RecentErrors results. Zero value matches everything.
type ErrorFilter struct {
	Type      string
	Component string
	Since     time.Time
	Limit     int
}

// Service observes process health and records errors. Safe for concurrent
// use.
type Service struct {
	store     domain.PersistentStore
	startedAt time.Time
	now       func() time.Time

	mu        sync.RWMutex
	errors    []ErrorEntry
	maxErrors int
}

// Option configures the monitor service.
type Option func(*Service)

// WithMaxErrors bounds the error log length.
func WithMaxErrors(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxErrors = n
		}
	}
}

// WithNowFunc replaces the clock, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a monitor bound to a persistent store. The store may be
// nil; the store component is then reported as unavailable.
func NewService(store domain.PersistentStore, options ...Option) *Service {
	s := &Service{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		maxErrors: defaultMaxErrors,
	}
	for _, opt := range options {
		opt(s)
	}
	s.startedAt = s.now()
	return s
}

// Health builds the current health report. Degraded when errors were recorded
// in the last five minutes, unavailable components force status down further.
func (s *Service) Health() HealthReport {
	now := s.now()
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	report := HealthReport{
		Status:        "healthy",
		Timestamp:     now,
		UptimeSeconds: now.Sub(s.startedAt).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		HeapAllocMB:   float64(mem.HeapAlloc) / (1 << 20),
		HeapSysMB:     float64(mem.HeapSys) / (1 << 20),
		NumGC:         mem.NumGC,
	}

	report.Components = append(report.Components, s.storeHealth())
	report.Components = append(report.Components, s.errorHealth(now))

	for _, c := range report.Components {
		switch c.Status {
		case "error":
			report.Status = "error"
		case "warning":
			if report.Status == "healthy" {
				report.Status = "warning"
			}
		}
	}
	return report
}

func (s *Service) storeHealth() ComponentHealth {
	health := ComponentHealth{Name: "store", Status: "healthy", Details: map[string]any{}}
	if s.store == nil {
		health.Status = "error"
		health.Details["error"] = "no store configured"
		return health
	}
	health.Details["materials"] = len(s.store.ListMaterials())
	health.Details["requisitions"] = len(s.store.ListRequisitions())
	health.Details["orders"] = len(s.store.ListOrders())
	return health
}

func (s *Service) errorHealth(now time.Time) ComponentHealth {
	recent := s.RecentErrors(ErrorFilter{Since: now.Add(-5 * time.Minute)})
	health := ComponentHealth{
		Name:    "errors",
		Status:  "healthy",
		Details: map[string]any{"recent_5m": len(recent), "total": s.ErrorCount()},
	}
	if len(recent) > 0 {
		health.Status = "warning"
	}
	return health
}

// LogError records an error entry, evicting the oldest once the bound is
// reached.
func (s *Service) LogError(errType, message, component string, kv map[string]string) ErrorEntry {
	entry := ErrorEntry{
		Type:      errType,
		Message:   message,
		Component: component,
		Context:   kv,
		Timestamp: s.now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, entry)
	if len(s.errors) > s.maxErrors {
		s.errors = s.errors[len(s.errors)-s.maxErrors:]
	}
	return entry
}

// RecentErrors returns recorded errors matching the filter, newest first.
func (s *Service) RecentErrors(filter ErrorFilter) []ErrorEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ErrorEntry
	for _, entry := range s.errors {
		if filter.Type != "" && entry.Type != filter.Type {
			continue
		}
		if filter.Component != "" && entry.Component != filter.Component {
			continue
		}
		if !filter.Since.IsZero() && !entry.Timestamp.After(filter.Since) {
			continue
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

// ErrorCount returns the number of retained error entries.
func (s *Service) ErrorCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.errors)
}

// Summary aggregates retained errors by type and component with the five most
// recent entries.
func (s *Service) Summary() ErrorSummary {
	entries := s.RecentErrors(ErrorFilter{})
	summary := ErrorSummary{Count: len(entries)}
	if len(entries) == 0 {
		return summary
	}
	summary.ByType = make(map[string]int)
	summary.ByComponent = make(map[string]int)
	for _, entry := range entries {
		summary.ByType[entry.Type]++
		if entry.Component != "" {
			summary.ByComponent[entry.Component]++
		}
	}
	limit := 5
	if len(entries) < limit {
		limit = len(entries)
	}
	summary.Recent = entries[:limit]
	return summary
}

// ClearErrors drops all retained error entries, returning how many were
// removed.
func (s *Service) ClearErrors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.errors)
	s.errors = nil
	return n
}
