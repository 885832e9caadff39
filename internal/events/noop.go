package events

import (
	"context"

	"go.uber.org/zap"
)

// NopEmitter drops every event. It is used when no broker is configured.
type NopEmitter struct {
	log *zap.Logger
}

var _ Emitter = (*NopEmitter)(nil)

// NewNopEmitter returns an emitter that only logs at debug level.
func NewNopEmitter(log *zap.Logger) *NopEmitter {
	return &NopEmitter{log: log}
}

func (n *NopEmitter) PublishAuthorCreated(_ context.Context, authorID int64, _, _, _ string) error {
	n.log.Debug("Event dropped", zap.String("event_type", EventTypeAuthorCreated), zap.Int64("author_id", authorID))
	return nil
}

func (n *NopEmitter) PublishBookCreated(_ context.Context, bookID int64, _, _ string, _ int, _ int64) error {
	n.log.Debug("Event dropped", zap.String("event_type", EventTypeBookCreated), zap.Int64("book_id", bookID))
	return nil
}

func (n *NopEmitter) PublishBookDeleted(_ context.Context, bookID, _ int64, _ bool) error {
	n.log.Debug("Event dropped", zap.String("event_type", EventTypeBookDeleted), zap.Int64("book_id", bookID))
	return nil
}

// IsHealthy always reports true; there is no connection to lose.
func (n *NopEmitter) IsHealthy() bool { return true }

func (n *NopEmitter) Close() error { return nil }
