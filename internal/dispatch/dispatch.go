// Package dispatch provides a bounded worker pool: the change-feed
// consumer may hand documents to the resolver in parallel across
// documents, while each document's own resolution stays strictly
// sequential internally.
package dispatch

import (
	"context"
	"sync"
)

// Job is one unit of dispatched work — typically one call to
// (*resolver.Resolver).Resolve for a single document.
type Job func(ctx context.Context)

// Dispatcher runs a fixed number of worker goroutines draining a buffered
// job queue. Cancellation between documents is always safe; workers exit
// once ctx is done and any job already in flight finishes
// naturally, since the core never leaves partial state visible to readers.
type Dispatcher struct {
	jobs chan Job
	wg   sync.WaitGroup
}

// NewDispatcher starts workers goroutines. queueSize bounds how many
// pending jobs Submit will buffer before blocking; it defaults to workers
// when non-positive.
func NewDispatcher(ctx context.Context, workers, queueSize int) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers
	}
	d := &Dispatcher{jobs: make(chan Job, queueSize)}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker(ctx)
	}
	return d
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-d.jobs:
			if !ok {
				return
			}
			job(ctx)
		}
	}
}

// Submit enqueues job, blocking until a slot is free or ctx is cancelled.
// It returns ctx.Err() if cancelled first. It must not be called after
// Close.
func (d *Dispatcher) Submit(ctx context.Context, job Job) error {
	select {
	case d.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting new jobs and blocks until every worker has
// exited. Workers keep taking queued jobs until the queue is empty, but
// stop early once ctx is done, so jobs still queued then may never run.
func (d *Dispatcher) Close() {
	close(d.jobs)
	d.wg.Wait()
}
