package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrSessionExists = errors.New("payment session already running")
	ErrShuttingDown  = errors.New("payment sessions shutting down")
)

// Cancellation reasons reported in Outcome.Reason.
const (
	ReasonUser     = "user"
	ReasonShutdown = "shutdown"
)

// Outcome is the final word of one payment session.
type Outcome struct {
	OrderID     string        `json:"orderId"`
	State       State         `json:"state"`
	Transaction *Transaction  `json:"transaction,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	Waited      time.Duration `json:"-"`
	Err         error         `json:"-"`
}

// DoneFunc receives the outcome once the poll stops. ctx is detached from the
// session so follow-up writes are not cut short by the cancellation itself.
type DoneFunc func(ctx context.Context, o Outcome)

type SessionConfig struct {
	Account  string
	Interval time.Duration
	Timeout  time.Duration
	// Retain keeps finished outcomes queryable for this long.
	Retain time.Duration
}

type session struct {
	poller *Poller
	cancel context.CancelFunc
	reason string
}

// Sessions owns every running payment poll, keyed by order id.
type Sessions struct {
	feed Feed
	cfg  SessionConfig
	log  *zap.Logger

	base context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu       sync.Mutex
	active   map[string]*session
	finished map[string]finishedSession
	closed   bool
}

type finishedSession struct {
	outcome Outcome
	owner   *session
}

func NewSessions(feed Feed, cfg SessionConfig, log *zap.Logger) *Sessions {
	if cfg.Retain <= 0 {
		cfg.Retain = time.Hour
	}
	base, stop := context.WithCancel(context.Background())
	return &Sessions{
		feed:     feed,
		cfg:      cfg,
		log:      log,
		base:     base,
		stop:     stop,
		active:   map[string]*session{},
		finished: map[string]finishedSession{},
	}
}

// Start begins polling for orderID in the background. done is called exactly once.
func (s *Sessions) Start(orderID string, total decimal.Decimal, done DoneFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrShuttingDown
	}
	if _, ok := s.active[orderID]; ok {
		return ErrSessionExists
	}
	ctx, cancel := context.WithCancel(s.base)
	sess := &session{
		poller: &Poller{
			Feed:     s.feed,
			Criteria: Criteria{OrderID: orderID, Total: total, Account: s.cfg.Account},
			Interval: s.cfg.Interval,
			Timeout:  s.cfg.Timeout,
			Log:      s.log,
		},
		cancel: cancel,
	}
	// Polling from the moment Start returns, before the first feed request.
	if err := sess.poller.begin(); err != nil {
		cancel()
		return err
	}
	s.active[orderID] = sess
	delete(s.finished, orderID)

	s.wg.Add(1)
	go s.run(ctx, orderID, sess, done)
	return nil
}

func (s *Sessions) run(ctx context.Context, orderID string, sess *session, done DoneFunc) {
	defer s.wg.Done()
	defer sess.cancel()

	started := time.Now()
	txn, err := sess.poller.poll(ctx)
	o := Outcome{OrderID: orderID, State: sess.poller.State(), Waited: time.Since(started), Err: err}
	if err == nil {
		o.Transaction = &txn
	}

	s.mu.Lock()
	if o.State == StateCancelled {
		o.Reason = sess.reason
	}
	delete(s.active, orderID)
	s.finished[orderID] = finishedSession{outcome: o, owner: sess}
	s.mu.Unlock()

	time.AfterFunc(s.cfg.Retain, func() { s.forget(orderID, sess) })

	if done != nil {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		done(dctx, o)
	}
}

func (s *Sessions) forget(orderID string, owner *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.finished[orderID]; ok && f.owner == owner {
		delete(s.finished, orderID)
	}
}

// Cancel stops the poll for orderID. It reports whether one was running.
func (s *Sessions) Cancel(orderID string) bool {
	return s.cancel(orderID, ReasonUser)
}

func (s *Sessions) cancel(orderID, reason string) bool {
	s.mu.Lock()
	sess, ok := s.active[orderID]
	if ok && sess.reason == "" {
		sess.reason = reason
	}
	s.mu.Unlock()
	if ok {
		sess.cancel()
	}
	return ok
}

// Status returns the live state of a running session or the outcome of a
// recently finished one.
func (s *Sessions) Status(orderID string) (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.active[orderID]; ok {
		return Outcome{OrderID: orderID, State: sess.poller.State()}, true
	}
	f, ok := s.finished[orderID]
	return f.outcome, ok
}

// Active is the number of running sessions.
func (s *Sessions) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Shutdown cancels every session and waits for their done callbacks.
func (s *Sessions) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	ids := make([]string, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.cancel(id, ReasonShutdown)
	}
	s.stop()

	waited := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
