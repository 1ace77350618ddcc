package events

import "log/slog"

// LogEmitter forwards every event to a structured logger. It is the default
// subscriber wired into a running node; indexers can replace it.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter creates an emitter logging through the supplied logger, or
// the process default when nil.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger}
}

// Emit implements the Emitter interface.
func (l *LogEmitter) Emit(evt Event) {
	if l == nil || evt == nil {
		return
	}
	attrs := []any{slog.String("type", evt.EventType())}
	if stateEvt, ok := evt.(StateEvent); ok && stateEvt.Evt != nil {
		for key, value := range stateEvt.Evt.Attributes {
			attrs = append(attrs, slog.String(key, value))
		}
	}
	l.logger.Info("event", attrs...)
}
