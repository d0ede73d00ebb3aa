package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cardguard/cardguard-backend/internal/service/scoring"
)

// AnalysisCache decorates a scoring.Repository with read-through
// caching. Writes and deletes invalidate the owning user's entries so
// reads never serve a deleted analysis.
type AnalysisCache struct {
	repo   scoring.Repository
	cache  Cache
	logger *zap.Logger
	ttl    time.Duration
}

// NewAnalysisCache wraps a repository with caching.
func NewAnalysisCache(repo scoring.Repository, cache Cache, logger *zap.Logger, ttl time.Duration) *AnalysisCache {
	if ttl <= 0 {
		ttl = AnalysisTTL
	}
	return &AnalysisCache{repo: repo, cache: cache, logger: logger, ttl: ttl}
}

func analysisKey(userID, id uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", AnalysisPrefix, userID, id)
}

func listKey(userID uuid.UUID, limit int) string {
	return fmt.Sprintf("%s%s:list:%d", AnalysisPrefix, userID, limit)
}

func userPattern(userID uuid.UUID) string {
	return fmt.Sprintf("%s%s:*", AnalysisPrefix, userID)
}

func (c *AnalysisCache) SaveAnalysis(ctx context.Context, record *scoring.AnalysisRecord) error {
	if err := c.repo.SaveAnalysis(ctx, record); err != nil {
		return err
	}

	c.invalidateUser(ctx, record.UserID)
	return nil
}

func (c *AnalysisCache) GetAnalysis(ctx context.Context, userID, id uuid.UUID) (*scoring.AnalysisRecord, error) {
	key := analysisKey(userID, id)

	var cached scoring.AnalysisRecord
	err := c.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	var notFound ErrCacheKeyNotFound
	if !errors.As(err, &notFound) {
		c.logger.Warn("analysis cache read failed", zap.String("key", key), zap.Error(err))
	}

	record, err := c.repo.GetAnalysis(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetJSON(ctx, key, record, c.ttl); err != nil {
		c.logger.Warn("analysis cache write failed", zap.String("key", key), zap.Error(err))
	}

	return record, nil
}

func (c *AnalysisCache) ListAnalyses(ctx context.Context, userID uuid.UUID, limit int) ([]*scoring.AnalysisRecord, error) {
	key := listKey(userID, limit)

	var cached []*scoring.AnalysisRecord
	if err := c.cache.GetJSON(ctx, key, &cached); err == nil {
		return cached, nil
	}

	records, err := c.repo.ListAnalyses(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetJSON(ctx, key, records, c.ttl); err != nil {
		c.logger.Warn("analysis cache write failed", zap.String("key", key), zap.Error(err))
	}

	return records, nil
}

func (c *AnalysisCache) DeleteAnalysis(ctx context.Context, userID, id uuid.UUID) error {
	if err := c.repo.DeleteAnalysis(ctx, userID, id); err != nil {
		return err
	}

	c.invalidateUser(ctx, userID)
	return nil
}

func (c *AnalysisCache) DeleteAnalyses(ctx context.Context, userID uuid.UUID) error {
	if err := c.repo.DeleteAnalyses(ctx, userID); err != nil {
		return err
	}

	c.invalidateUser(ctx, userID)
	return nil
}

func (c *AnalysisCache) invalidateUser(ctx context.Context, userID uuid.UUID) {
	if err := c.cache.DeletePattern(ctx, userPattern(userID)); err != nil {
		c.logger.Warn("analysis cache invalidation failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}
