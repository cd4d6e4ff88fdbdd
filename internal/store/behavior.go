// v2
// internal/store/behavior.go

// Package store reads and serves the line-delimited behavior twin data
// files. Records are immutable once loaded; the store hands out
// defensive copies so callers can never corrupt the in-memory view.
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/anappleaday1984/cdp-visualization/internal/metrics"
	"github.com/anappleaday1984/cdp-visualization/internal/models"
)

// SkipInvalidJSON is the reason recorded for unparseable JSONL lines.
// Blank lines are ignored without an outcome, as in the original feed.
const SkipInvalidJSON = "invalid_json"

// LineOutcome reports the fate of one JSONL line so skip counts are
// observable and testable instead of being swallowed.
type LineOutcome struct {
	Line   int    `json:"line"`
	Kept   bool   `json:"kept"`
	Reason string `json:"reason,omitempty"`
}

// LoadReport summarizes one load pass over the behavior file.
type LoadReport struct {
	Path     string        `json:"path"`
	Kept     int           `json:"kept"`
	Skipped  int           `json:"skipped"`
	Outcomes []LineOutcome `json:"outcomes,omitempty"`
}

// BehaviorStore holds the parsed behavior records in memory and keeps
// the backing file open for appends from the ingest path.
type BehaviorStore struct {
	mu      sync.RWMutex
	path    string
	log     *slog.Logger
	records []models.BehaviorRecord
	report  LoadReport
}

// NewBehaviorStore loads the behavior file at path. A missing file is
// not an error: the store starts empty and the caller reports the "no
// data" condition when a simulation is attempted.
func NewBehaviorStore(path string, log *slog.Logger) (*BehaviorStore, error) {
	s := &BehaviorStore{path: path, log: log}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the backing file from scratch, replacing the
// in-memory view. Individual malformed lines are skipped with a
// recorded reason; only I/O failures abort the load.
func (s *BehaviorStore) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Warn("behavior file missing, starting empty", slog.String("path", s.path))
			s.records = nil
			s.report = LoadReport{Path: s.path}
			metrics.SetRecordsLoaded(0)
			return nil
		}
		return fmt.Errorf("open behavior file: %w", err)
	}
	defer f.Close()

	var (
		records []models.BehaviorRecord
		report  = LoadReport{Path: s.path}
		line    int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec models.BehaviorRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			report.Skipped++
			report.Outcomes = append(report.Outcomes, LineOutcome{Line: line, Reason: SkipInvalidJSON})
			metrics.IncRecordSkipped(SkipInvalidJSON)
			s.log.Warn("skipping malformed record", slog.Int("line", line), slog.Any("err", err))
			continue
		}
		records = append(records, rec)
		report.Kept++
		report.Outcomes = append(report.Outcomes, LineOutcome{Line: line, Kept: true})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read behavior file: %w", err)
	}

	s.records = records
	s.report = report
	metrics.SetRecordsLoaded(len(records))
	s.log.Info("behavior data loaded",
		slog.String("path", s.path),
		slog.Int("kept", report.Kept),
		slog.Int("skipped", report.Skipped))
	return nil
}

// Records returns a defensive copy of every loaded record, simulation
// artifacts included. Baseline derivation filters artifacts itself.
func (s *BehaviorStore) Records() []models.BehaviorRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.BehaviorRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Report returns the outcome summary of the most recent load pass.
func (s *BehaviorStore) Report() LoadReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := s.report
	r.Outcomes = append([]LineOutcome(nil), s.report.Outcomes...)
	return r
}

// Append persists one record to the backing file and the in-memory
// view. Used by the Kafka ingest path; API reads never mutate.
func (s *BehaviorStore) Append(rec models.BehaviorRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open behavior file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	s.records = append(s.records, rec)
	s.report.Kept++
	metrics.SetRecordsLoaded(len(s.records))
	return nil
}

// QueryFilter narrows behavior queries. Persona and region accept the
// documented aliases; dates use YYYY-MM-DD and bound the record
// timestamp inclusively. Limit caps the returned slice; zero means the
// default of 100.
type QueryFilter struct {
	Persona   string
	Region    string
	StartDate string
	EndDate   string
	Limit     int
}

// Query returns observed (non-artifact) records matching the filter in
// file order. Records missing required fields are excluded here the
// same way they are excluded from baselines.
func (s *BehaviorStore) Query(f QueryFilter) []models.BehaviorRecord {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	var start, end time.Time
	var hasStart, hasEnd bool
	if f.StartDate != "" {
		if t, err := time.Parse("2006-01-02", f.StartDate); err == nil {
			start, hasStart = t, true
		}
	}
	if f.EndDate != "" {
		if t, err := time.Parse("2006-01-02", f.EndDate); err == nil {
			end, hasEnd = t, true
		}
	}

	persona := models.CanonicalPersona(f.Persona)
	region := models.CanonicalRegion(f.Region)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.BehaviorRecord, 0, limit)
	for i := range s.records {
		rec := s.records[i]
		if rec.IsSimulationArtifact() {
			continue
		}
		if rec.Validate() != nil {
			continue
		}
		if f.Persona != "" && !strings.EqualFold(rec.Persona, persona) {
			continue
		}
		if f.Region != "" && !strings.EqualFold(rec.Region, region) {
			continue
		}
		if hasStart || hasEnd {
			// Unparseable timestamps pass date filters, matching the
			// permissive behavior of the original loader.
			if ts, ok := models.ParseRecordTimestamp(rec.Timestamp); ok {
				if hasStart && ts.Before(start) {
					continue
				}
				if hasEnd && ts.After(end) {
					continue
				}
			}
		}
		out = append(out, copyRecord(rec))
		if len(out) >= limit {
			break
		}
	}
	return out
}

func copyRecord(rec models.BehaviorRecord) models.BehaviorRecord {
	cp := rec
	if rec.BrandPercentages != nil {
		cp.BrandPercentages = make(map[string]float64, len(rec.BrandPercentages))
		for k, v := range rec.BrandPercentages {
			cp.BrandPercentages[k] = v
		}
	}
	if rec.KeyInsights != nil {
		cp.KeyInsights = append([]string(nil), rec.KeyInsights...)
	}
	return cp
}

