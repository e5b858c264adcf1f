// Package polling drives a bot by repeatedly fetching updates with getUpdates
// and handing each one to a Handler.
//
// The Poller owns the update offset. Before an update reaches the handler the
// offset is already advanced past it, so an update whose handler fails is
// never fetched again: delivery is at most once.
package polling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/runixer/botapi/pkg/telegram"
)

var (
	// ErrAlreadyRunning is returned by Start while the loop is running.
	ErrAlreadyRunning = errors.New("polling: already running")
	// ErrNotRunning is returned by Stop while the loop is idle.
	ErrNotRunning = errors.New("polling: not running")
)

// DefaultInterval is the pause between two fetch cycles.
const DefaultInterval = time.Second

// Updater fetches updates. *telegram.Client satisfies it.
type Updater interface {
	GetUpdates(ctx context.Context, req telegram.GetUpdatesRequest) ([]telegram.Update, error)
}

// Handler processes one update. It is called synchronously from the loop
// goroutine, in ascending update_id order.
type Handler interface {
	HandleUpdate(ctx context.Context, u *telegram.Update) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, u *telegram.Update) error

func (f HandlerFunc) HandleUpdate(ctx context.Context, u *telegram.Update) error {
	return f(ctx, u)
}

// OffsetStore persists the offset so a restarted process resumes where the
// previous one stopped.
type OffsetStore interface {
	LoadOffset(ctx context.Context) (int64, error)
	SaveOffset(ctx context.Context, offset int64) error
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the sleep between cycles. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithDevMode makes the first fetch or handler error terminate the loop
// instead of being logged and skipped. The error is returned by Wait.
func WithDevMode(enabled bool) Option {
	return func(p *Poller) { p.devMode = enabled }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithLongPollTimeout sets the server-side long poll duration in seconds.
// Zero means short polling.
func WithLongPollTimeout(seconds int) Option {
	return func(p *Poller) { p.timeout = seconds }
}

// WithLimit caps the number of updates fetched per cycle (1-100).
func WithLimit(n int) Option {
	return func(p *Poller) { p.limit = n }
}

// WithAllowedUpdates restricts the update kinds the server sends.
func WithAllowedUpdates(kinds ...string) Option {
	return func(p *Poller) { p.allowedUpdates = kinds }
}

// WithOffsetStore loads the offset on Start and saves it after every cycle
// that moved it.
func WithOffsetStore(store OffsetStore) Option {
	return func(p *Poller) { p.store = store }
}

// WithInitialOffset sets the offset the first fetch starts from.
func WithInitialOffset(offset int64) Option {
	return func(p *Poller) { p.offset.Store(offset) }
}

// Poller is a long-polling loop with two states, idle and running.
//
// Only the loop goroutine writes the offset; Offset reads an atomic copy.
type Poller struct {
	api     Updater
	handler Handler

	interval       time.Duration
	devMode        bool
	timeout        int
	limit          int
	allowedUpdates []string
	store          OffsetStore
	logger         *slog.Logger

	offset atomic.Int64

	mu      sync.Mutex
	current *session // nil while idle
	last    *session // most recently started session, for Wait
}

// session is one run of the loop goroutine.
type session struct {
	stop chan struct{}
	done chan struct{}
	err  error
}

// New creates an idle Poller.
func New(api Updater, handler Handler, opts ...Option) *Poller {
	p := &Poller{
		api:      api,
		handler:  handler,
		interval: DefaultInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "polling")
	return p
}

// Start launches the loop goroutine and returns immediately. The loop stops
// on Stop, when ctx is cancelled, or in dev mode on the first error.
//
// When a previous loop is still finishing its last cycle, the new goroutine
// waits for it before fetching, then resumes from the current offset.
func (p *Poller) Start(ctx context.Context) (*Poller, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		return p, ErrAlreadyRunning
	}
	prev := p.last
	s := &session{stop: make(chan struct{}), done: make(chan struct{})}
	p.current, p.last = s, s

	go p.run(ctx, prev, s)
	return p, nil
}

// Stop asks the loop to exit and returns at once. An in-flight fetch and the
// dispatch of its updates complete first; the sleep between cycles is cut
// short. Use Wait to block until the goroutine has exited.
func (p *Poller) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return ErrNotRunning
	}
	close(p.current.stop)
	p.current = nil
	return nil
}

// Wait blocks until the most recently started loop has exited and returns
// the error that terminated it (dev mode only), or nil.
func (p *Poller) Wait() error {
	p.mu.Lock()
	s := p.last
	p.mu.Unlock()

	if s == nil {
		return nil
	}
	<-s.done
	return s.err
}

// Running reports whether the poller is in the running state.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// Offset returns the id of the next update to fetch.
func (p *Poller) Offset() int64 {
	return p.offset.Load()
}

func (p *Poller) run(ctx context.Context, prev, s *session) {
	if prev != nil {
		<-prev.done
	}
	runningGauge.Set(1)
	p.logger.Debug("polling started", "offset", p.offset.Load(), "dev_mode", p.devMode)

	defer func() {
		p.mu.Lock()
		if p.current == s {
			p.current = nil
		}
		if p.current == nil {
			runningGauge.Set(0)
		}
		p.mu.Unlock()

		p.logger.Debug("polling stopped", "offset", p.offset.Load())
		close(s.done)
	}()

	p.loadOffset(ctx)
	offsetGauge.Set(float64(p.offset.Load()))

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := p.cycle(ctx); err != nil && p.devMode {
			s.err = err
			return
		}

		// Sleep after work: the pause starts once the batch is handled.
		timer.Reset(p.interval)
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// cycle fetches one batch and dispatches it. In production mode errors are
// logged and nil is returned; in dev mode the first error is returned.
func (p *Poller) cycle(ctx context.Context) error {
	before := p.offset.Load()

	updates, err := p.api.GetUpdates(ctx, telegram.GetUpdatesRequest{
		Offset:         before,
		Limit:          p.limit,
		Timeout:        p.timeout,
		AllowedUpdates: p.allowedUpdates,
	})
	if err != nil {
		if ctx.Err() != nil {
			// Shutting down, not a failure.
			return nil
		}
		cyclesTotal.WithLabelValues(resultFetchError).Inc()
		p.logger.Error("failed to get updates", "error", err, "offset", before)
		return fmt.Errorf("get updates: %w", err)
	}

	sort.SliceStable(updates, func(i, j int) bool {
		return updates[i].UpdateID < updates[j].UpdateID
	})

	var cycleErr error
	for i := range updates {
		u := &updates[i]
		if u.UpdateID < p.offset.Load() {
			p.logger.Debug("skipping stale update", "update_id", u.UpdateID, "offset", p.offset.Load())
			continue
		}

		p.offset.Store(u.UpdateID + 1)
		offsetGauge.Set(float64(u.UpdateID + 1))

		kind := u.Kind()
		if kind == "" {
			kind = "unknown"
		}
		dispatchedTotal.WithLabelValues(kind).Inc()

		if err := p.dispatch(ctx, u); err != nil {
			handlerErrorsTotal.Inc()
			p.logger.Error("update handler failed", "error", err, "update_id", u.UpdateID, "kind", kind)
			if p.devMode {
				cycleErr = fmt.Errorf("handle update %d: %w", u.UpdateID, err)
				break
			}
		}
	}

	p.saveOffset(ctx, before)

	if cycleErr != nil {
		cyclesTotal.WithLabelValues(resultHandlerError).Inc()
		return cycleErr
	}
	cyclesTotal.WithLabelValues(resultOK).Inc()
	return nil
}

// dispatch calls the handler, turning a panic into an error.
func (p *Poller) dispatch(ctx context.Context, u *telegram.Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("update handler panicked", "update_id", u.UpdateID, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return p.handler.HandleUpdate(ctx, u)
}

func (p *Poller) loadOffset(ctx context.Context) {
	if p.store == nil {
		return
	}
	stored, err := p.store.LoadOffset(ctx)
	if err != nil {
		p.logger.Warn("failed to load offset", "error", err)
		return
	}
	// Never move backwards: the in-memory offset may be ahead after a restart.
	if stored > p.offset.Load() {
		p.offset.Store(stored)
		p.logger.Info("resuming from stored offset", "offset", stored)
	}
}

func (p *Poller) saveOffset(ctx context.Context, before int64) {
	after := p.offset.Load()
	if p.store == nil || after == before {
		return
	}
	// Persist even when the run context is being cancelled.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.store.SaveOffset(saveCtx, after); err != nil {
		p.logger.Warn("failed to save offset", "error", err, "offset", after)
	}
}
