package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/Mohannad35/market-hub-sub000/pkg/mylogger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const productCacheTTL = 5 * time.Minute

// cachedProductService decorates ProductService with a read-through Redis
// cache on single-product lookups. Writes (Rate) invalidate the entry so the
// aggregate never serves stale.
type cachedProductService struct {
	inner  ProductService
	client *redis.Client
	logger *zap.Logger
}

func NewCachedProductService(inner ProductService, client *redis.Client, logger *zap.Logger) ProductService {
	return &cachedProductService{
		inner:  inner,
		client: client,
		logger: logger,
	}
}

func productCacheKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func (s *cachedProductService) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	key := productCacheKey(id)

	cached, err := s.client.Get(ctx, key).Result()
	if err == nil {
		var product domain.Product
		if err := json.Unmarshal([]byte(cached), &product); err == nil {
			return &product, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		mylogger.Warn(
			ctx,
			s.logger,
			"Redis get failed, falling through to database",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	product, err := s.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(product); err == nil {
		if err := s.client.Set(ctx, key, data, productCacheTTL).Err(); err != nil {
			mylogger.Warn(
				ctx,
				s.logger,
				"Redis set failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	return product, nil
}

func (s *cachedProductService) List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	return s.inner.List(ctx, limit, offset, search)
}

func (s *cachedProductService) Rate(ctx context.Context, input RateInput) (*domain.Rate, error) {
	rate, err := s.inner.Rate(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.client.Del(ctx, productCacheKey(input.ProductID)).Err(); err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Redis invalidation failed",
			zap.Int64("product_id", input.ProductID),
			zap.Error(err),
		)
	}

	return rate, nil
}
