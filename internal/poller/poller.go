// Package poller keeps a local copy of one session fresh and dispatches the
// transition into "completed" or "expired" exactly once. Polling stands in
// for server push; swapping in a subscription would not change this contract.
package poller

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jachren-f4/together-reminder-sub003/internal/domain"
	"github.com/jachren-f4/together-reminder-sub003/internal/errors"
)

// Preset intervals, by how badly the screen needs freshness.
const (
	IntervalCritical   = 3 * time.Second
	IntervalActive     = 5 * time.Second
	IntervalBackground = 10 * time.Second
	IntervalIdle       = 60 * time.Second
)

// ErrRefreshPending is returned by Refresh while another fetch is in flight.
var ErrRefreshPending = stderrors.New("refresh already in flight")

type Mode string

const (
	// ModeAuto polls on a timer via Run.
	ModeAuto Mode = "auto"
	// ModeManual fetches only on explicit Refresh calls.
	ModeManual Mode = "manual"
)

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeExpired   Outcome = "expired"
)

// Getter is the read half of the session store.
type Getter interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type Config struct {
	Store     Getter
	SessionID string
	Mode      Mode
	Interval  time.Duration

	// OnOutcome fires at most once, with the session as fetched at the
	// transition.
	OnOutcome func(o Outcome, s *domain.Session)

	// Now and NewTickerFunc are injectable for tests.
	Now           func() time.Time
	NewTickerFunc func(d time.Duration) Ticker
}

// Poller polls a single session. One Poller per watched session; cancel the
// Run context on teardown.
type Poller struct {
	c Config

	inFlight atomic.Bool
	done     atomic.Bool
}

func New(c Config) (*Poller, error) {
	if c.Store == nil || c.SessionID == "" || c.OnOutcome == nil {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("poller needs a store, a session ID and an outcome callback"))
	}

	if c.Mode == "" {
		c.Mode = ModeAuto
	}
	if c.Interval <= 0 {
		c.Interval = IntervalActive
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewTickerFunc == nil {
		c.NewTickerFunc = newTicker
	}

	return &Poller{c: c}, nil
}

// Run polls until the outcome transition fires or ctx is canceled. Fetches
// once immediately, then on every tick. Fetch failures and not-found results
// are logged and retried on the next tick; a tick arriving while a fetch is
// still in flight is a no-op.
func (p *Poller) Run(ctx context.Context) error {
	if p.c.Mode != ModeAuto {
		return errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("Run is only valid in auto mode"))
	}

	if p.poll(ctx) {
		return nil
	}

	t := p.c.NewTickerFunc(p.c.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C():
			if p.poll(ctx) {
				return nil
			}
		}
	}
}

// Refresh performs one user-triggered fetch. Errors are returned for the
// caller to surface as a dismissible message; the transition contract is the
// same as in auto mode.
func (p *Poller) Refresh(ctx context.Context) (*domain.Session, error) {
	if p.done.Load() {
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("poller for %s already dispatched its outcome", p.c.SessionID))
	}
	if !p.inFlight.CompareAndSwap(false, true) {
		return nil, ErrRefreshPending
	}
	defer p.inFlight.Store(false)

	ss, err := p.c.Store.Get(ctx, p.c.SessionID)
	if err != nil {
		fetchesTotal.WithLabelValues(fetchResult(err)).Inc()
		return nil, err
	}
	fetchesTotal.WithLabelValues("ok").Inc()

	p.observe(ctx, ss)
	return ss, nil
}

// poll reports whether the poller is finished.
func (p *Poller) poll(ctx context.Context) bool {
	if p.done.Load() {
		return true
	}
	if !p.inFlight.CompareAndSwap(false, true) {
		return false
	}
	defer p.inFlight.Store(false)

	ss, err := p.c.Store.Get(ctx, p.c.SessionID)
	if err != nil {
		fetchesTotal.WithLabelValues(fetchResult(err)).Inc()

		// Transient in auto mode; a not-found may just be a propagation
		// race, so it does not stop polling either.
		slog.WarnContext(ctx, "poller: fetch failed",
			"session", p.c.SessionID,
			"error", err,
		)
		return false
	}
	fetchesTotal.WithLabelValues("ok").Inc()

	p.observe(ctx, ss)
	return p.done.Load()
}

// observe inspects a fetch result and dispatches the single-shot transition.
// Results racing a dispatched transition, or arriving after cancellation,
// are dropped.
func (p *Poller) observe(ctx context.Context, ss *domain.Session) {
	var o Outcome
	switch {
	case ss.Completed:
		o = OutcomeCompleted
	case ss.Expired(p.c.Now()):
		o = OutcomeExpired
	default:
		return
	}

	if ctx.Err() != nil {
		return
	}
	if !p.done.CompareAndSwap(false, true) {
		return
	}

	transitionsTotal.WithLabelValues(string(o)).Inc()
	slog.InfoContext(ctx, "poller: outcome dispatched",
		"session", p.c.SessionID,
		"outcome", o,
	)
	p.c.OnOutcome(o, ss)
}

func fetchResult(err error) string {
	if errors.Convert(err).Code == errors.CodeNotFound {
		return "not_found"
	}
	return "error"
}

type realTicker struct {
	t *time.Ticker
}

func newTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }
