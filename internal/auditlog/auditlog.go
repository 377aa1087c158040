// Package auditlog appends detected events to daily JSON-lines files, one
// object per line, so operators can grep a day's activity without touching
// the binary database.
package auditlog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"market-event-monitor/internal/types"
)

var mu sync.Mutex

type Entry struct {
	Time           string
	Symbol         string
	Date           string
	Type           string
	Magnitude      float64
	Impact         int8
	Description    string
	Source         string  `json:"source,omitempty"`
	URL            string  `json:"url,omitempty"`
	Sentiment      float32 `json:"sentiment,omitempty"`
	Recommendation string  `json:"recommendation,omitempty"`
}

func logDir() string {
	if v := os.Getenv("MONITOR_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(t time.Time) string {
	return filepath.Join(logDir(), t.UTC().Format(types.DateLayout)+".txt")
}

// Append writes one event to today's audit file, creating the directory and
// file as needed.
func Append(ev types.DetectedEvent, recommendation string) error {
	mu.Lock()
	defer mu.Unlock()

	now := time.Now().UTC()
	e := Entry{
		Time:           now.Format("2006-01-02 15:04:05"),
		Symbol:         ev.Symbol,
		Date:           ev.Date,
		Type:           ev.Type.String(),
		Magnitude:      ev.Magnitude,
		Impact:         ev.Impact,
		Description:    ev.Description,
		Source:         ev.Source,
		URL:            ev.URL,
		Sentiment:      ev.Sentiment,
		Recommendation: recommendation,
	}

	p := dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	b, _ := json.Marshal(e)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips audit files whose modification time is older than
// retentionDays and removes the originals. Zero or negative retention
// disables compression.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	return filepath.WalkDir(logDir(), func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := os.Stat(p)
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		return compressFile(p)
	})
}

func compressFile(p string) error {
	gz := p + ".gz"
	if _, err := os.Stat(gz); err == nil {
		// A previous pass compressed it but failed to remove the original.
		return os.Remove(p)
	}

	in, err := os.Open(p)
	if err != nil {
		return nil
	}
	defer in.Close()

	out, err := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		out.Close()
		return nil
	}
	if err := gw.Close(); err != nil {
		out.Close()
		return nil
	}
	if err := out.Close(); err != nil {
		return nil
	}
	return os.Remove(p)
}
