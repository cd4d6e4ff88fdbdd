// v1
// internal/metrics/metrics.go
// Package metrics provides a minimal Prometheus-compatible registry for
// insight service instrumentation.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type counterVec struct {
	mu     sync.RWMutex
	values map[string]uint64
}

func newCounterVec() *counterVec {
	return &counterVec{values: make(map[string]uint64)}
}

func (c *counterVec) inc(label string) {
	c.mu.Lock()
	c.values[label]++
	c.mu.Unlock()
}

func (c *counterVec) snapshot() map[string]uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]uint64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

func (c *counterVec) total() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var sum uint64
	for _, v := range c.values {
		sum += v
	}
	return sum
}

type gauge struct {
	mu    sync.Mutex
	value float64
}

func newGauge() *gauge { return &gauge{} }

func (g *gauge) set(v float64) {
	g.mu.Lock()
	g.value = v
	g.mu.Unlock()
}

func (g *gauge) snapshot() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

var (
	requestsTotal       = newCounterVec()
	simulationsTotal    = newCounterVec()
	recordsSkippedTotal = newCounterVec()
	ingestTotal         = newCounterVec()
	cacheTotal          = newCounterVec()
	recordsLoaded       = newGauge()
)

// IncRequest increments the HTTP request counter for the given route label.
func IncRequest(route string) {
	requestsTotal.inc(strings.TrimSpace(route))
}

// IncSimulation increments the simulation counter for the given event type.
func IncSimulation(eventType string) {
	simulationsTotal.inc(strings.TrimSpace(eventType))
}

// IncRecordSkipped increments the skip counter for the given reason label.
func IncRecordSkipped(reason string) {
	recordsSkippedTotal.inc(strings.TrimSpace(reason))
}

// IncIngest increments the Kafka ingest counter for the given result label.
func IncIngest(result string) {
	ingestTotal.inc(strings.TrimSpace(result))
}

// CacheHit and CacheMiss feed the cache observer counters.
func CacheHit()  { cacheTotal.inc("hit") }
func CacheMiss() { cacheTotal.inc("miss") }

// SetRecordsLoaded updates the gauge tracking records currently held by
// the behavior store.
func SetRecordsLoaded(n int) {
	if n < 0 {
		n = 0
	}
	recordsLoaded.set(float64(n))
}

// Snapshot is the JSON view served by /api/v1/metrics.
type Snapshot struct {
	TotalRequests        uint64    `json:"total_requests"`
	SimulationsRun       uint64    `json:"simulations_run"`
	DataRecordsProcessed float64   `json:"data_records_processed"`
	RecordsSkipped       uint64    `json:"records_skipped"`
	RecordsIngested      uint64    `json:"records_ingested"`
	CacheHits            uint64    `json:"cache_hits"`
	CacheMisses          uint64    `json:"cache_misses"`
	LastUpdated          time.Time `json:"last_updated"`
}

// Counters builds the JSON snapshot of all registry values.
func Counters() Snapshot {
	cache := cacheTotal.snapshot()
	return Snapshot{
		TotalRequests:        requestsTotal.total(),
		SimulationsRun:       simulationsTotal.total(),
		DataRecordsProcessed: recordsLoaded.snapshot(),
		RecordsSkipped:       recordsSkippedTotal.total(),
		RecordsIngested:      ingestTotal.total(),
		CacheHits:            cache["hit"],
		CacheMisses:          cache["miss"],
		LastUpdated:          time.Now().UTC(),
	}
}

// Render builds the Prometheus exposition for all registered metrics.
func Render() string {
	var b strings.Builder
	writeMetricHeader(&b, "insight_http_requests_total", "counter")
	writeCounter(&b, "insight_http_requests_total", "route", requestsTotal.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "insight_simulations_total", "counter")
	writeCounter(&b, "insight_simulations_total", "event", simulationsTotal.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "insight_records_skipped_total", "counter")
	writeCounter(&b, "insight_records_skipped_total", "reason", recordsSkippedTotal.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "insight_ingest_records_total", "counter")
	writeCounter(&b, "insight_ingest_records_total", "result", ingestTotal.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "insight_cache_requests_total", "counter")
	writeCounter(&b, "insight_cache_requests_total", "result", cacheTotal.snapshot())
	b.WriteByte('\n')

	writeMetricHeader(&b, "insight_behavior_records_loaded", "gauge")
	writeGauge(&b, "insight_behavior_records_loaded", recordsLoaded.snapshot())
	b.WriteByte('\n')

	return b.String()
}

func writeMetricHeader(b *strings.Builder, name, typ string) {
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(typ)
	b.WriteByte('\n')
}

func writeCounter(b *strings.Builder, name, label string, values map[string]uint64) {
	if len(values) == 0 {
		fmt.Fprintf(b, "%s{} %d\n", name, 0)
		return
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s{%s=\"%s\"} %d\n", name, label, escapeLabel(k), values[k])
	}
}

func writeGauge(b *strings.Builder, name string, value float64) {
	fmt.Fprintf(b, "%s{} %g\n", name, value)
}

func escapeLabel(v string) string {
	replacer := strings.NewReplacer("\\", "\\\\", "\n", "\\n", "\"", "\\\"")
	return replacer.Replace(v)
}
