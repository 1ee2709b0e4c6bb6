package docstore

import (
	"context"
	"sync/atomic"

	"camp-export/internal/logging"

	"go.uber.org/zap"
)

// Counter wraps a Client and counts round trips to it.
type Counter struct {
	next    Client
	logger  *zap.Logger
	gets    atomic.Int64
	queries atomic.Int64
}

// NewCounter wraps next. A nil logger disables call logging.
func NewCounter(next Client, logger *zap.Logger) *Counter {
	logger = logging.OrNop(logger)
	return &Counter{next: next, logger: logger}
}

// Get implements Client.
func (c *Counter) Get(ctx context.Context, path string) (Document, error) {
	c.gets.Add(1)
	c.logger.Debug("docstore get", zap.String("path", path))
	return c.next.Get(ctx, path)
}

// Query implements Client.
func (c *Counter) Query(ctx context.Context, q Query) ([]Document, error) {
	c.queries.Add(1)
	c.logger.Debug("docstore query",
		zap.String("collection", q.Collection),
		zap.Bool("group", q.AllDescendants),
		zap.String("field", q.Filter.Field),
		zap.String("op", string(q.Filter.Op)))
	return c.next.Query(ctx, q)
}

// Gets returns the number of Get calls so far.
func (c *Counter) Gets() int64 { return c.gets.Load() }

// Queries returns the number of Query calls so far.
func (c *Counter) Queries() int64 { return c.queries.Load() }

// Total returns all round trips so far.
func (c *Counter) Total() int64 { return c.Gets() + c.Queries() }
