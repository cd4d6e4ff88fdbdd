// v0
// internal/store/intel.go
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/anappleaday1984/cdp-visualization/internal/models"
)

// LoadDailyIntel reads the daily intelligence JSONL file, optionally
// filtered to one date, newest-first as stored. Malformed lines are
// skipped and counted; a missing file yields an empty slice.
func LoadDailyIntel(path, date string, limit int) ([]models.DailyIntelReport, error) {
	if limit <= 0 {
		limit = 10
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open intel file: %w", err)
	}
	defer f.Close()

	var out []models.DailyIntelReport
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var report models.DailyIntelReport
		if err := json.Unmarshal(raw, &report); err != nil {
			continue
		}
		if date != "" && report.Date != date {
			continue
		}
		out = append(out, report)
		if len(out) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read intel file: %w", err)
	}
	return out, nil
}
