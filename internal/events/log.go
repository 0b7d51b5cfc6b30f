package events

import (
	"context"

	"smart-shopping-list/internal/ingest"
	"smart-shopping-list/internal/logger"
)

type logListener struct {
	log *logger.Logger
}

// NewLogListener logs every engine event. Drops are logged as errors.
func NewLogListener(log *logger.Logger) ingest.Listener {
	return &logListener{log: log.With("component", "events")}
}

func (l *logListener) OnEvent(_ context.Context, ev ingest.Event) {
	kv := []interface{}{"kind", string(ev.Kind), "list_id", ev.ListID, "entry_id", ev.EntryID}
	if ev.Item != nil {
		kv = append(kv, "item", ev.Item.Name, "qty", ev.Item.Qty)
	}
	if ev.Decision != "" {
		kv = append(kv, "decision", string(ev.Decision))
	}

	switch ev.Kind {
	case ingest.EventDropped:
		l.log.Error("list event", append(kv, "error", ev.Err)...)
	case ingest.EventNormalizationFallback:
		l.log.Warn("list event", append(kv, "error", ev.Err)...)
	default:
		l.log.Info("list event", kv...)
	}
}
