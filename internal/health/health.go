// v1
// internal/health/health.go

// Package health tracks service lifecycle state and data-source
// availability for the liveness and readiness endpoints.
package health

import (
	"os"
	"sync"
	"time"
)

// State tracks readiness for the HTTP API. Liveness is always true
// while the process runs; readiness flips once the store is loaded and
// the router is serving, and flips back during shutdown.
type State struct {
	mu        sync.RWMutex
	ready     bool
	startedAt time.Time
	version   string
}

// NewState constructs the tracker with readiness false so upstream
// probes can tell when the service is actually able to take traffic.
func NewState(startedAt time.Time, version string) *State {
	return &State{startedAt: startedAt, version: version}
}

// SetReady flips the readiness flag. Called during startup once the
// store is loaded and again on shutdown.
func (s *State) SetReady(value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = value
}

// Ready reports the current readiness flag.
func (s *State) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Uptime reports how long the process has been running.
func (s *State) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startedAt)
}

// Version reports the model version the service was started with.
func (s *State) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// DataSource describes one on-disk input checked by the detailed
// health report.
type DataSource struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Available bool   `json:"available"`
	SizeBytes int64  `json:"size_bytes"`
}

// CheckFile probes a data file without reading it. A missing file is
// reported as unavailable rather than an error; the service runs with
// an empty store until ingest fills it.
func CheckFile(name, path string) DataSource {
	ds := DataSource{Name: name, Path: path}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ds
	}
	ds.Available = true
	ds.SizeBytes = info.Size()
	return ds
}

// Report is the payload served by the detailed health endpoint.
type Report struct {
	Status        string       `json:"status"`
	Timestamp     string       `json:"timestamp"`
	Version       string       `json:"version"`
	UptimeSeconds float64      `json:"uptime_seconds"`
	RecordsLoaded int          `json:"records_loaded"`
	DataSources   []DataSource `json:"data_sources"`
}

// BuildReport assembles the detailed health payload. Status degrades
// to "degraded" when any data source is missing, never to an HTTP
// error; a cold store is a valid state.
func (s *State) BuildReport(now time.Time, recordsLoaded int, sources []DataSource) Report {
	status := "healthy"
	for _, ds := range sources {
		if !ds.Available {
			status = "degraded"
			break
		}
	}
	return Report{
		Status:        status,
		Timestamp:     now.UTC().Format(time.RFC3339),
		Version:       s.Version(),
		UptimeSeconds: s.Uptime().Seconds(),
		RecordsLoaded: recordsLoaded,
		DataSources:   sources,
	}
}
