package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mmuslimabdulj/inscribe/internal/logger"
)

// Job is a single best-effort store write
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Persister runs store writes off the hub loop on a single goroutine.
// The queue is bounded; Enqueue never blocks.
type Persister struct {
	log     *slog.Logger
	timeout time.Duration
	jobs    chan Job

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewPersister(queueSize int, timeout time.Duration, log *slog.Logger) *Persister {
	if queueSize < 1 {
		queueSize = 1
	}
	p := &Persister{
		log:     log.With(slog.String("op", "ws.persister")),
		timeout: timeout,
		jobs:    make(chan Job, queueSize),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Enqueue schedules job and reports whether it was accepted
func (p *Persister) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return false
	}

	select {
	case p.jobs <- job:
		return true
	default:
		p.log.Warn("persist queue full, dropping write", slog.String("job", job.Name))
		return false
	}
}

// Close stops accepting jobs and waits for queued ones until ctx expires
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Persister) run() {
	defer close(p.done)

	for job := range p.jobs {
		p.exec(job)
	}
}

func (p *Persister) exec(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := job.Run(ctx); err != nil {
		p.log.Error("persist failed", slog.String("job", job.Name), logger.Err(err))
	}
}
