package normalize

import (
	"log/slog"
	"sync"
)

// EventSink receives observability events from the Normalizer. Implementations
// must be safe for concurrent use.
type EventSink interface {
	UnmappedCategory(raw string)
}

// NopSink discards all events.
type NopSink struct{}

// UnmappedCategory implements EventSink.
func (NopSink) UnmappedCategory(string) {}

// FuncSink adapts a function to EventSink.
type FuncSink func(raw string)

// UnmappedCategory implements EventSink.
func (f FuncSink) UnmappedCategory(raw string) {
	f(raw)
}

// MultiSink fans an event out to several sinks in order.
type MultiSink []EventSink

// UnmappedCategory implements EventSink.
func (m MultiSink) UnmappedCategory(raw string) {
	for _, s := range m {
		if s != nil {
			s.UnmappedCategory(raw)
		}
	}
}

// LogSink logs a warning the first time each distinct label is seen.
type LogSink struct {
	logger *slog.Logger
	seen   sync.Map
}

// NewLogSink creates a LogSink. A nil logger uses slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "normalize")}
}

// UnmappedCategory implements EventSink.
func (s *LogSink) UnmappedCategory(raw string) {
	key := Fold(raw)
	if _, loaded := s.seen.LoadOrStore(key, struct{}{}); loaded {
		return
	}
	s.logger.Warn("Unmapped category label, defaulting to other", "label", raw)
}
