package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/wanderplan/internal/cache"
	"github.com/neexbeast/wanderplan/internal/destination"
)

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewCache(client, time.Hour), mr
}

func sampleCity() *destination.CityDetail {
	temp, food := 13.1, 15.0
	year := 2023
	return &destination.CityDetail{
		CityID:         7,
		CountryID:      33,
		Name:           "Lyon",
		AvgTemperature: &temp,
		LatestTempYear: &year,
		AvgFoodPrice:   &food,
		POICount:       120,
		HotelCount:     35,
	}
}

func TestCache_SetAndGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetCity(ctx, sampleCity()))

	got, err := c.GetCity(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Lyon", got.Name)
	assert.Equal(t, 13.1, *got.AvgTemperature)
	assert.Equal(t, 2023, *got.LatestTempYear)
	assert.Nil(t, got.AvgGasPrice)
	assert.Equal(t, 35, got.HotelCount)
}

func TestCache_Get_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	got, err := c.GetCity(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, got, "cache miss should return nil, nil")
}

func TestCache_KeyLayout(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, c.SetCity(context.Background(), sampleCity()))
	assert.True(t, mr.Exists("city:7"))
}

func TestCache_Get_CorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("city:7", "not-json"))

	_, err := c.GetCity(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshaling")
}

func TestCache_Set_Nil(t *testing.T) {
	c, _ := newTestCache(t)
	err := c.SetCity(context.Background(), nil)
	require.NoError(t, err)
}

func TestCache_TTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetCity(ctx, sampleCity()))

	mr.FastForward(2 * time.Hour)

	got, err := c.GetCity(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got, "entry should be expired after TTL")
}

func TestCache_DefaultTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := cache.NewCache(client, 0)
	require.NoError(t, c.SetCity(context.Background(), sampleCity()))
	assert.Equal(t, cache.DefaultTTL, mr.TTL("city:7"))
}

func TestCache_Get_ServerDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, err := c.GetCity(context.Background(), 7)
	require.Error(t, err)
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), cache.Options{URL: "not-a-url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing redis URL")
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := cache.Connect(context.Background(), cache.Options{
		URL:         "redis://localhost:19999",
		DialTimeout: 200 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pinging redis at localhost:19999")
}

func TestConnect_AppliesOptions(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := cache.Connect(context.Background(), cache.Options{
		URL:         "redis://" + mr.Addr(),
		PoolSize:    4,
		DialTimeout: 2 * time.Second,
		ReadTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	opts := client.Options()
	assert.Equal(t, 4, opts.PoolSize)
	assert.Equal(t, 2*time.Second, opts.DialTimeout)
	assert.Equal(t, time.Second, opts.ReadTimeout)
}

func TestConnect_ZeroOptionsKeepDefaults(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := cache.Connect(context.Background(), cache.Options{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, 5*time.Second, client.Options().DialTimeout)
}
