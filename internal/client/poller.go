package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPollInterval is how often a Poller refreshes when no interval is given.
const DefaultPollInterval = 30 * time.Second

// ErrPollerRunning is returned by Start on a poller that is already running.
var ErrPollerRunning = errors.New("poller already running")

// Poller calls a refresh function right away and then on every tick until its
// context is cancelled or Stop is called. Refresh errors are reported, never retried early.
type Poller struct {
	interval time.Duration
	refresh  func(ctx context.Context) error
	onError  func(error)
	logger   zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// PollerOption customises a Poller.
type PollerOption func(*Poller)

// WithInterval sets the refresh period. Non-positive values keep the default.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// OnError registers a callback for refresh failures.
func OnError(fn func(error)) PollerOption {
	return func(p *Poller) { p.onError = fn }
}

// WithPollerLogger sets the poller's logger.
func WithPollerLogger(l zerolog.Logger) PollerOption {
	return func(p *Poller) { p.logger = l }
}

// NewPoller creates a stopped poller.
func NewPoller(refresh func(ctx context.Context) error, opts ...PollerOption) *Poller {
	p := &Poller{
		interval: DefaultPollInterval,
		refresh:  refresh,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the polling goroutine. It stops on its own when ctx is done.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return ErrPollerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done

	go p.loop(ctx, done)
	return nil
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer p.release(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// release forgets a loop that ended because its parent context was cancelled.
func (p *Poller) release(done chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == done {
		p.cancel()
		p.cancel, p.done = nil, nil
	}
}

func (p *Poller) tick(ctx context.Context) {
	err := p.refresh(ctx)
	if err == nil || ctx.Err() != nil {
		return
	}
	p.logger.Debug().Err(err).Msg("Poll refresh failed")
	if p.onError != nil {
		p.onError(err)
	}
}

// Stop cancels polling and waits for an in-flight refresh to return. It is safe to
// call on a stopped poller, and the poller may be started again afterwards.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the poller has been started and not stopped.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}
