package jobpoller

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelhq/authsync/pkg/logger"
)

// Poller drives server-side jobs to completion, one active job per target.
type Poller struct {
	client      Client
	base        time.Duration
	factor      float64
	maxInterval time.Duration
	log         *slog.Logger
	onCompleted func(Job)
	onFailed    func(Job)

	mu   sync.Mutex
	jobs map[uuid.UUID]*tracked
}

type tracked struct {
	job      Job
	notified bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a Poller on top of the given job client.
func New(client Client, opts ...Option) *Poller {
	p := &Poller{
		client:      client,
		base:        DefaultBaseInterval,
		factor:      DefaultFactor,
		maxInterval: DefaultMaxInterval,
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		jobs:        make(map[uuid.UUID]*tracked),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Request starts a new job for the target and begins polling it. While a
// previous job for the same target is still pending or processing, Request
// returns ErrJobInProgress and leaves the running poll loop, including its
// current backoff interval, untouched.
func (p *Poller) Request(ctx context.Context, targetID uuid.UUID, mode string) (Job, error) {
	p.mu.Lock()
	if t, ok := p.jobs[targetID]; ok && !t.job.Status.Terminal() {
		p.mu.Unlock()
		return t.job, ErrJobInProgress
	}
	// Reserve the slot before the request goes out so concurrent callers
	// are rejected instead of racing into duplicate jobs.
	placeholder := &tracked{
		job:  Job{TargetID: targetID, Status: StatusPending},
		done: make(chan struct{}),
	}
	p.jobs[targetID] = placeholder
	p.mu.Unlock()

	job, err := p.client.RequestJob(ctx, targetID, mode)
	if err != nil {
		p.mu.Lock()
		if p.jobs[targetID] == placeholder {
			delete(p.jobs, targetID)
		}
		p.mu.Unlock()
		close(placeholder.done)
		return Job{}, err
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.mu.Lock()
	placeholder.job = job
	placeholder.cancel = cancel
	p.mu.Unlock()

	p.log.InfoContext(ctx, "job requested",
		logger.JobID(job.ID),
		slog.String("target_id", targetID.String()),
		slog.String("mode", mode))

	go p.poll(loopCtx, targetID, placeholder)
	return job, nil
}

// Job returns the most recently observed job for the target, if any.
func (p *Poller) Job(targetID uuid.UUID) (Job, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.jobs[targetID]
	if !ok {
		return Job{}, false
	}
	return t.job, true
}

// Stop cancels all running poll loops and waits for them to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	loops := make([]*tracked, 0, len(p.jobs))
	for _, t := range p.jobs {
		if t.cancel != nil {
			t.cancel()
		}
		loops = append(loops, t)
	}
	p.mu.Unlock()
	for _, t := range loops {
		<-t.done
	}
}

// poll watches one job until it reaches a terminal status. The interval
// starts at the base and grows by the factor after every poll, capped at
// the maximum. It never resets within the lifetime of a single job.
func (p *Poller) poll(ctx context.Context, targetID uuid.UUID, t *tracked) {
	defer close(t.done)

	interval := p.base
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		job, err := p.client.JobStatus(ctx, t.job.ID)
		if err != nil {
			p.log.WarnContext(ctx, "job status poll failed",
				logger.JobID(t.job.ID),
				logger.Error(err))
		} else {
			if done := p.observe(targetID, t, job); done {
				return
			}
		}

		interval = nextInterval(interval, p.factor, p.maxInterval)
		timer.Reset(interval)
	}
}

// observe records a polled status and fires the terminal callback at most
// once. It returns true when the loop should stop.
func (p *Poller) observe(targetID uuid.UUID, t *tracked, job Job) bool {
	p.mu.Lock()
	t.job = job
	fire := job.Status.Terminal() && !t.notified
	if fire {
		t.notified = true
	}
	p.mu.Unlock()

	if !job.Status.Terminal() {
		return false
	}
	if fire {
		switch job.Status {
		case StatusCompleted:
			p.log.Info("job completed",
				logger.JobID(job.ID),
				slog.String("target_id", targetID.String()))
			if p.onCompleted != nil {
				p.onCompleted(job)
			}
		case StatusFailed:
			p.log.Warn("job failed",
				logger.JobID(job.ID),
				slog.String("target_id", targetID.String()),
				slog.String("error", job.Error))
			if p.onFailed != nil {
				p.onFailed(job)
			}
		}
	}
	return true
}

func nextInterval(cur time.Duration, factor float64, max time.Duration) time.Duration {
	next := time.Duration(float64(cur) * factor)
	if next > max {
		next = max
	}
	return next
}
