// Package recorder persists per-run pipeline summaries for offline
// inspection (e.g. Grafana over the sqlite file). It is observability
// plumbing, separate from the durable event database.
package recorder

// RunSummary captures one processing batch.
type RunSummary struct {
	Timestamp   int64
	Symbols     int
	Articles    int
	NewsEvents  int
	PriceEvents int
	Appended    int
	TotalStored int
	DurationMs  int64
}

type Recorder interface {
	RecordRun(s RunSummary) error
	Close() error
}
