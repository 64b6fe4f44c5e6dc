package storage_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/wanderplan/internal/storage"
)

func newBreaker(t *testing.T, q storage.Querier) *storage.BreakerQuerier {
	t.Helper()
	return storage.NewBreakerQuerier(q, storage.BreakerSettings{
		Name:             t.Name(),
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Hour,
		FailureThreshold: 3,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			calls++
			return nil, errors.New("connection refused")
		},
	}
	b := newBreaker(t, q)

	for i := 0; i < 3; i++ {
		_, err := b.Query(context.Background(), "SELECT 1")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Query(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, calls)
}

func TestBreaker_PassesRowsThrough(t *testing.T) {
	rows := rowsOf([]any{int64(1)})
	b := newBreaker(t, queryReturning(nil, rows))

	got, err := b.Query(context.Background(), "SELECT 1")
	require.NoError(t, err)

	require.True(t, got.Next())
	var id int64
	require.NoError(t, got.Scan(&id))
	assert.Equal(t, int64(1), id)
	assert.False(t, got.Next())

	got.Close()
	assert.Equal(t, 1, rows.closed)
	assert.NoError(t, got.Err())
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_DeferredRowErrorsCount(t *testing.T) {
	calls := 0
	q := &mockQuerier{
		queryFn: func(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
			calls++
			return &fakeRows{rowErr: errors.New("connection reset mid-stream")}, nil
		},
	}
	repo := storage.NewRepositoryWithQuerier(newBreaker(t, q))

	for i := 0; i < 3; i++ {
		_, err := repo.CitiesWithPOICounts(context.Background(), 33, nil)
		require.Error(t, err)
	}

	_, err := repo.CitiesWithPOICounts(context.Background(), 33, nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, calls)
}

func TestBreaker_RowsReportOnce(t *testing.T) {
	rows := &fakeRows{rowErr: errors.New("boom")}
	b := newBreaker(t, queryReturning(nil, rows))

	for i := 0; i < 2; i++ {
		got, err := b.Query(context.Background(), "SELECT 1")
		require.NoError(t, err)
		got.Close()
		got.Close()
	}

	// Two failed queries, four closes: below the threshold of three.
	assert.Equal(t, 4, rows.closed)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_NoRowsIsNotAFailure(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{scanFn: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}
	b := newBreaker(t, q)

	for i := 0; i < 5; i++ {
		var id int64
		err := b.QueryRow(context.Background(), "SELECT 1").Scan(&id)
		assert.ErrorIs(t, err, pgx.ErrNoRows)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_RepositorySurfacesOpenState(t *testing.T) {
	q := &mockQuerier{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &fakeRow{scanFn: func(dest ...any) error { return errors.New("timeout") }}
		},
	}
	repo := storage.NewRepositoryWithQuerier(newBreaker(t, q))

	for i := 0; i < 3; i++ {
		_, err := repo.CityInfo(context.Background(), 1)
		require.Error(t, err)
	}

	city, err := repo.CityInfo(context.Background(), 1)
	assert.Nil(t, city)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}
