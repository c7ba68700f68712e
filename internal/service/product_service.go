package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/Mohannad35/market-hub-sub000/internal/repository"
	"github.com/Mohannad35/market-hub-sub000/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type RateInput struct {
	ProductID int64
	UserID    int64
	Value     int32
	Comment   *string
}

type ProductService interface {
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error)
	Rate(ctx context.Context, input RateInput) (*domain.Rate, error)
}

type productService struct {
	pool     *pgxpool.Pool
	logger   *zap.Logger
	products repository.ProductRepository
	rates    repository.RateRepository
	tracer   trace.Tracer
}

func NewProductService(
	pool *pgxpool.Pool,
	logger *zap.Logger,
	products repository.ProductRepository,
	rates repository.RateRepository,
) ProductService {
	return &productService{
		pool:     pool,
		logger:   logger,
		products: products,
		rates:    rates,
		tracer:   otel.Tracer("product_service"),
	}
}

func (s *productService) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", id),
	)

	return s.products.GetByID(ctx, id)
}

func (s *productService) List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.List")
	defer span.End()

	return s.products.List(ctx, limit, offset, search)
}

// Rate records or edits the caller's rating and maintains the product's
// running average in the same transaction. The product row is locked first,
// so concurrent raters serialize and neither update is lost.
func (s *productService) Rate(ctx context.Context, input RateInput) (*domain.Rate, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.Rate")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", input.ProductID),
		attribute.Int64("user_id", input.UserID),
		attribute.Int("value", int(input.Value)),
	)

	if input.Value < 1 || input.Value > 5 {
		return nil, ErrRateValueOutOfRange
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		mylogger.Error(ctx, s.logger, "Failed to begin transaction", zap.Error(err))

		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)

		err := tx.Rollback(cleanupCtx)
		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(
				cleanupCtx,
				s.logger,
				"Error rolling back transaction",
				zap.Error(err),
			)
		}
	}()

	rating, count, err := s.products.GetRatingForUpdate(ctx, tx, input.ProductID)
	if err != nil {
		return nil, err
	}

	existing, err := s.rates.GetByProductAndUser(ctx, tx, input.ProductID, input.UserID)
	if err != nil && !errors.Is(err, repository.ErrRateNotFound) {
		return nil, err
	}

	var rate *domain.Rate
	var newRating float64
	var newCount int64

	if existing == nil {
		rate = &domain.Rate{
			ProductID: input.ProductID,
			UserID:    input.UserID,
			Value:     input.Value,
			Comment:   input.Comment,
		}
		if err := s.rates.Insert(ctx, tx, rate); err != nil {
			return nil, err
		}

		newCount = count + 1
		newRating = (rating*float64(count) + float64(input.Value)) / float64(newCount)
	} else {
		oldValue := existing.Value
		existing.Value = input.Value
		existing.Comment = input.Comment
		if err := s.rates.Update(ctx, tx, existing); err != nil {
			return nil, err
		}
		rate = existing

		newCount = count
		newRating = (rating*float64(count) - float64(oldValue) + float64(input.Value)) / float64(count)
	}

	if err := s.products.UpdateRating(ctx, tx, input.ProductID, newRating, newCount); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))

		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Rated product",
		zap.Int64("product_id", input.ProductID),
		zap.Int64("user_id", input.UserID),
		zap.Float64("rating", newRating),
		zap.Int64("rating_count", newCount),
	)

	return rate, nil
}
