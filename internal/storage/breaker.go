package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/neexbeast/wanderplan/internal/metrics"
)

// BreakerSettings configures the circuit breaker guarding Postgres.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// BreakerQuerier runs every query through a circuit breaker. Once
// FailureThreshold consecutive queries fail, queries are rejected with
// gobreaker.ErrOpenState until Timeout elapses.
//
// A query's outcome is recorded when it finishes: for Query that is when the
// returned rows are closed, so errors surfacing from rows.Err count too.
type BreakerQuerier struct {
	q    Querier
	cb   *gobreaker.TwoStepCircuitBreaker[any]
	name string
}

// NewBreakerQuerier wraps q with a circuit breaker.
func NewBreakerQuerier(q Querier, s BreakerSettings, log *slog.Logger) *BreakerQuerier {
	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewTwoStepCircuitBreaker[any](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		IsSuccessful: isSuccessful,
	})

	return &BreakerQuerier{q: q, cb: cb, name: s.Name}
}

// Query implements Querier. The caller must close the returned rows.
func (b *BreakerQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	done, err := b.allow()
	if err != nil {
		return nil, err
	}

	rows, err := b.q.Query(ctx, sql, args...)
	if err != nil {
		done(err)
		return nil, err
	}
	return &breakerRows{Rows: rows, done: done}, nil
}

// QueryRow implements Querier. The breaker is consulted when the row is scanned.
func (b *BreakerQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return &breakerRow{b: b, ctx: ctx, sql: sql, args: args}
}

// State reports the current breaker state.
func (b *BreakerQuerier) State() gobreaker.State {
	return b.cb.State()
}

// allow asks the breaker for a slot, counting rejections.
func (b *BreakerQuerier) allow() (func(error), error) {
	done, err := b.cb.Allow()
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRejections.WithLabelValues(b.name).Inc()
		}
		return nil, err
	}
	return done, nil
}

// breakerRows reports the iteration outcome to the breaker on the first Close.
type breakerRows struct {
	pgx.Rows
	done func(error)
	once sync.Once
}

func (r *breakerRows) Close() {
	r.Rows.Close()
	r.once.Do(func() { r.done(r.Rows.Err()) })
}

type breakerRow struct {
	b    *BreakerQuerier
	ctx  context.Context
	sql  string
	args []any
}

func (r *breakerRow) Scan(dest ...any) error {
	done, err := r.b.allow()
	if err != nil {
		return err
	}

	err = r.b.q.QueryRow(r.ctx, r.sql, r.args...).Scan(dest...)
	done(err)
	return err
}

// isSuccessful treats misses and caller cancellations as healthy outcomes.
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, context.Canceled)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
