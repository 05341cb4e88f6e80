package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/wtldr/internal/model"
	"github.com/nhle/wtldr/internal/source"
)

// PollState represents the current state of the poller.
type PollState int

const (
	PollIdle PollState = iota
	PollRunning
	PollError
)

func (s PollState) String() string {
	switch s {
	case PollIdle:
		return "idle"
	case PollRunning:
		return "running"
	case PollError:
		return "error"
	default:
		return "unknown"
	}
}

// PollStatus is a snapshot of the poller.
type PollStatus struct {
	State   PollState
	LastRun time.Time
	Error   error
}

// PollResult is sent on the results channel after each cycle.
type PollResult struct {
	Run model.IngestRun
	Err error
}

// Runner performs one ingest cycle.
type Runner interface {
	Run(ctx context.Context) (model.IngestRun, error)
}

// runTimeout is the maximum time allowed for a single cycle.
const runTimeout = 5 * time.Minute

const defaultInterval = time.Hour

// Poller runs ingest cycles in the background: once on Start, then every
// interval and whenever triggered.
type Poller struct {
	runner    Runner
	interval  time.Duration
	log       zerolog.Logger
	status    PollStatus
	resultCh  chan PollResult
	triggerCh chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
	mu        sync.Mutex
	running   bool
}

// NewPoller creates a Poller. A non-positive interval means hourly.
func NewPoller(r Runner, interval time.Duration, log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{
		runner:    r,
		interval:  interval,
		log:       log.With().Str("component", "poller").Logger(),
		resultCh:  make(chan PollResult, 16),
		triggerCh: make(chan struct{}, 1),
	}
}

// Start launches the polling goroutine. Calling Start on a running poller
// does nothing.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})

	go p.loop(p.stopCh, p.doneCh)
}

// Stop halts polling and waits for an in-flight cycle to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	close(p.stopCh)
	done := p.doneCh
	p.running = false
	p.mu.Unlock()

	<-done
}

// Trigger requests an immediate cycle. Requests made while one is
// already pending are coalesced.
func (p *Poller) Trigger() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// Status returns the current poller status.
func (p *Poller) Status() PollStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Results delivers one PollResult per cycle. Results are dropped when the
// channel is full.
func (p *Poller) Results() <-chan PollResult {
	return p.resultCh
}

func (p *Poller) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Do an initial run immediately
	p.runOnce(stop)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.runOnce(stop)
		case <-p.triggerCh:
			p.runOnce(stop)
		}
	}
}

// runOnce performs a single cycle and publishes its result.
func (p *Poller) runOnce(stop <-chan struct{}) {
	p.setStatus(PollRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	run, err := p.runner.Run(ctx)
	if err != nil {
		p.setStatus(PollError, err)
		if source.IsAuthError(err) {
			p.log.Error().Err(err).Msg("mailbox rejected credentials; run `wtldr credential set` to update them")
		} else {
			p.log.Error().Err(err).Msg("ingest cycle failed")
		}
	} else {
		p.setStatus(PollIdle, nil)
	}

	p.sendResult(PollResult{Run: run, Err: err})
}

func (p *Poller) setStatus(state PollState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state != PollRunning {
		p.status.LastRun = time.Now()
	}
}

// sendResult sends a result without blocking.
func (p *Poller) sendResult(r PollResult) {
	select {
	case p.resultCh <- r:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}
