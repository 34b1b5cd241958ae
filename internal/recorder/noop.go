package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignal(_ *SignalEvent) error              { return nil }
func (n *NoopRecorder) RecordScrape(_ *ScrapeRun) error                { return nil }
func (n *NoopRecorder) Signals(_ string, _ int) ([]SignalEvent, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                   { return nil }
