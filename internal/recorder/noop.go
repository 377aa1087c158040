package recorder

// NoopRecorder discards everything. Used when no sqlite path is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (*NoopRecorder) RecordRun(RunSummary) error { return nil }
func (*NoopRecorder) Close() error               { return nil }
