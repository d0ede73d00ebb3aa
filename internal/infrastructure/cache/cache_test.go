package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainerrors "github.com/cardguard/cardguard-backend/internal/domain/errors"
	"github.com/cardguard/cardguard-backend/internal/domain/values"
	"github.com/cardguard/cardguard-backend/internal/service/scoring"
)

func newTestCache(t *testing.T) (Cache, *redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisCacheFromClient(client, zap.NewNop()), client, mr
}

func TestRedisCache_BasicOps(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCache(t)

	_, err := c.Get(ctx, "missing")
	var notFound ErrCacheKeyNotFound
	require.ErrorAs(t, err, &notFound)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Delete(ctx, "k"))
	exists, err = c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisCache_JSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCache(t)

	in := map[string]int{"score": 42}
	require.NoError(t, c.SetJSON(ctx, "json", in, time.Minute))

	var out map[string]int
	require.NoError(t, c.GetJSON(ctx, "json", &out))
	assert.Equal(t, in, out)
}

func TestRedisCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCache(t)

	require.NoError(t, c.Set(ctx, "cardguard:analysis:u1:a", "1", 0))
	require.NoError(t, c.Set(ctx, "cardguard:analysis:u1:b", "2", 0))
	require.NoError(t, c.Set(ctx, "cardguard:analysis:u2:a", "3", 0))

	require.NoError(t, c.DeletePattern(ctx, "cardguard:analysis:u1:*"))

	exists, err := c.Exists(ctx, "cardguard:analysis:u1:a")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = c.Exists(ctx, "cardguard:analysis:u2:a")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRedisRateLimiter(t *testing.T) {
	ctx := context.Background()
	_, client, _ := newTestCache(t)

	rl := NewRedisRateLimiter(client, zap.NewNop())

	for i := 0; i < 3; i++ {
		allowed, err := rl.Allow(ctx, "user-1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := rl.Allow(ctx, "user-1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed, "fourth request should be rejected")

	count, err := rl.Count(ctx, "user-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Other keys are unaffected.
	allowed, err = rl.Allow(ctx, "user-2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, rl.Reset(ctx, "user-1"))
	allowed, err = rl.Allow(ctx, "user-1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

// countingRepository counts repository hits behind the cache.
type countingRepository struct {
	records map[uuid.UUID]*scoring.AnalysisRecord
	gets    int
	lists   int
}

func (r *countingRepository) SaveAnalysis(_ context.Context, record *scoring.AnalysisRecord) error {
	r.records[record.ID] = record
	return nil
}

func (r *countingRepository) GetAnalysis(_ context.Context, userID, id uuid.UUID) (*scoring.AnalysisRecord, error) {
	r.gets++
	record, ok := r.records[id]
	if !ok || record.UserID != userID {
		return nil, domainerrors.ErrAnalysisNotFound
	}
	return record, nil
}

func (r *countingRepository) ListAnalyses(_ context.Context, userID uuid.UUID, _ int) ([]*scoring.AnalysisRecord, error) {
	r.lists++
	var out []*scoring.AnalysisRecord
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *countingRepository) DeleteAnalysis(_ context.Context, userID, id uuid.UUID) error {
	delete(r.records, id)
	return nil
}

func (r *countingRepository) DeleteAnalyses(_ context.Context, userID uuid.UUID) error {
	for id, rec := range r.records {
		if rec.UserID == userID {
			delete(r.records, id)
		}
	}
	return nil
}

func TestAnalysisCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCache(t)

	repo := &countingRepository{records: map[uuid.UUID]*scoring.AnalysisRecord{}}
	cached := NewAnalysisCache(repo, c, zap.NewNop(), time.Minute)

	userID := uuid.New()
	record := &scoring.AnalysisRecord{
		ID:         uuid.New(),
		UserID:     userID,
		MaskedCard: "****0366",
		Amount:     values.MustNewMoneyFromFloat(500, values.INR),
		RiskLevel:  scoring.RiskLevelLow,
	}
	require.NoError(t, cached.SaveAnalysis(ctx, record))

	for i := 0; i < 3; i++ {
		got, err := cached.GetAnalysis(ctx, userID, record.ID)
		require.NoError(t, err)
		assert.Equal(t, record.ID, got.ID)
		assert.Equal(t, "****0366", got.MaskedCard)
	}
	assert.Equal(t, 1, repo.gets, "repeated reads should hit the cache")

	// A delete invalidates the cached entry.
	require.NoError(t, cached.DeleteAnalyses(ctx, userID))
	_, err := cached.GetAnalysis(ctx, userID, record.ID)
	assert.Error(t, err)
}
