package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"worldfolio/internal/catalog/mocks"
	"worldfolio/internal/country"
)

// unreachableRedis points at a closed port so every command fails fast.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestCachedFailsOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockCatalog(ctrl)
	rdb := unreachableRedis()
	defer rdb.Close()

	cached := NewCached(next, rdb, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	want := []country.Country{{Code: "DEU"}}
	next.EXPECT().FilterByRegion(gomock.Any(), country.RegionEurope).Return(want, nil)

	got, err := cached.FilterByRegion(context.Background(), country.RegionEurope)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCachedPropagatesErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockCatalog(ctrl)
	rdb := unreachableRedis()
	defer rdb.Close()

	cached := NewCached(next, rdb, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	boom := errors.New("boom")
	next.EXPECT().ListAll(gomock.Any()).Return(nil, boom)

	_, err := cached.ListAll(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCachedEmptyCodes(t *testing.T) {
	ctrl := gomock.NewController(t)
	cached := NewCached(mocks.NewMockCatalog(ctrl), unreachableRedis(), time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	got, err := cached.GetManyByCodes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "catalog:v1:name:germa", cacheKey("name", "Germa"))
	assert.Equal(t, "catalog:v1:all:", cacheKey("all", ""))
}
