// Package feed consumes the database's change feed: a blocking long-poll
// loop that hands each conflicted-document record to a handler and
// checkpoints the last processed sequence.
package feed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openprocurement/concord/internal/concordlog"
	"github.com/openprocurement/concord/internal/document"
)

// Record is one change-feed entry: a winner document body carrying
// _conflicts, keyed by id.
type Record struct {
	ID  string
	Doc document.Document
}

// Response is one long-poll round's result.
type Response struct {
	Results []Record
	LastSeq string
}

// Client is the change-feed contract: a blocking long-poll that returns
// once new results are available or timeout elapses. The daemon requires
// neither ordering nor exactly-once delivery between records.
type Client interface {
	Poll(ctx context.Context, since string, timeout time.Duration) (Response, error)
}

// Handler processes one change-feed record. Consumer hands each record to
// Handler in turn; a Handler that needs cross-document parallelism should
// hand off to internal/dispatch rather than blocking here.
type Handler func(ctx context.Context, rec Record)

// Consumer drives the long-poll loop. Poll failures are logged and retried
// after retryDelay rather than aborting the process; a transient network
// blip should not take the daemon down.
type Consumer struct {
	client     Client
	handle     Handler
	checkpoint *Checkpoint
	timeout    time.Duration
	retryDelay time.Duration
}

// NewConsumer constructs a Consumer. checkpoint may be nil to disable
// persistence; every run then starts from since="".
func NewConsumer(client Client, handle Handler, checkpoint *Checkpoint, timeout time.Duration) *Consumer {
	if timeout <= 0 {
		timeout = 55 * time.Second
	}
	return &Consumer{client: client, handle: handle, checkpoint: checkpoint, timeout: timeout, retryDelay: time.Second}
}

// Run blocks, long-polling until ctx is cancelled. Cancellation between
// poll rounds is always safe; Run returns ctx.Err() once cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	since := ""
	if c.checkpoint != nil {
		since = c.checkpoint.Load()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp, err := c.client.Poll(ctx, since, c.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			concordlog.Warn("change feed poll failed", zap.Error(err), zap.String("since", since))
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		for _, rec := range resp.Results {
			c.handle(ctx, rec)
		}

		if resp.LastSeq != "" {
			since = resp.LastSeq
		}
		if c.checkpoint != nil {
			if err := c.checkpoint.Advance(since); err != nil {
				concordlog.Warn("checkpoint write failed", zap.Error(err), zap.String("since", since))
			}
		}
	}
}
