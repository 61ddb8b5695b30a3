package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

type State string

const (
	StateIdle      State = "Idle"
	StatePolling   State = "Polling"
	StateMatched   State = "Matched"
	StateTimedOut  State = "TimedOut"
	StateCancelled State = "Cancelled"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateMatched || s == StateTimedOut || s == StateCancelled
}

const (
	DefaultInterval = 2 * time.Second
	DefaultTimeout  = 10 * time.Minute
)

var (
	ErrPaymentTimeout = errors.New("payment not received in time")
	ErrAlreadyStarted = errors.New("poller already started")
)

// Feed is the source of recent bank transactions.
type Feed interface {
	Transactions(ctx context.Context) ([]Transaction, error)
}

// Poller waits for one order's transfer to show up in the feed. A Poller runs
// once: Idle -> Polling -> Matched | TimedOut | Cancelled.
type Poller struct {
	Feed     Feed
	Criteria Criteria
	Interval time.Duration
	Timeout  time.Duration
	Log      *zap.Logger

	mu    sync.Mutex
	state State
	polls int
}

func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == "" {
		return StateIdle
	}
	return p.state
}

// Polls is the number of feed requests issued so far.
func (p *Poller) Polls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polls
}

func (p *Poller) set(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Poller) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != "" && p.state != StateIdle {
		return ErrAlreadyStarted
	}
	p.state = StatePolling
	return nil
}

// Run polls every Interval until a matching transaction appears, Timeout
// elapses (ErrPaymentTimeout) or ctx is cancelled (ctx.Err()). Feed errors
// are logged and polling continues. Both timers are released on return.
func (p *Poller) Run(ctx context.Context) (Transaction, error) {
	if err := p.begin(); err != nil {
		return Transaction{}, err
	}
	return p.poll(ctx)
}

// poll is the loop behind Run for a poller already moved to Polling.
func (p *Poller) poll(ctx context.Context) (Transaction, error) {
	interval, timeout := p.Interval, p.Timeout
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("order_id", p.Criteria.OrderID))

	pollCtx, stop := context.WithTimeout(ctx, timeout)
	defer stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				p.set(StateCancelled)
				return Transaction{}, ctx.Err()
			}
			p.set(StateTimedOut)
			return Transaction{}, ErrPaymentTimeout
		case <-ticker.C:
		}

		p.mu.Lock()
		p.polls++
		p.mu.Unlock()

		txns, err := p.Feed.Transactions(pollCtx)
		if err != nil {
			if pollCtx.Err() == nil {
				log.Warn("payment feed poll failed", zap.Error(err))
			}
			continue
		}
		if t, ok := FirstMatch(txns, p.Criteria); ok {
			p.set(StateMatched)
			log.Info("payment matched", zap.String("transaction_id", t.ID), zap.String("amount", t.Amount.String()))
			return t, nil
		}
	}
}
