package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/wanderplan/internal/storage"
)

func TestConnect_InvalidURL(t *testing.T) {
	_, err := storage.Connect(context.Background(), storage.PoolSettings{URL: "postgres://%zz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing database URL")
}

func TestConnect_UnreachableWithinTimeout(t *testing.T) {
	start := time.Now()
	_, err := storage.Connect(context.Background(), storage.PoolSettings{
		URL:            "postgres://travel@127.0.0.1:1/travel?sslmode=disable",
		MaxConns:       2,
		ConnectTimeout: 500 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pinging database")
	assert.Less(t, time.Since(start), 5*time.Second)
}
