package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type RateRepository interface {
	GetByProductAndUser(ctx context.Context, tx pgx.Tx, productID, userID int64) (*domain.Rate, error)
	Insert(ctx context.Context, tx pgx.Tx, rate *domain.Rate) error
	Update(ctx context.Context, tx pgx.Tx, rate *domain.Rate) error
}

type rateRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewRateRepository(pool *pgxpool.Pool, logger *zap.Logger) RateRepository {
	return &rateRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("markethub/rate_repo"),
	}
}

func (r *rateRepo) GetByProductAndUser(ctx context.Context, tx pgx.Tx, productID, userID int64) (*domain.Rate, error) {
	ctx, span := r.tracer.Start(ctx, "RateRepository.GetByProductAndUser")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", productID),
		attribute.Int64("user_id", userID),
	)

	query := `
		SELECT id, product_id, user_id, value, comment, created_at, updated_at
		FROM rates
		WHERE product_id = $1 AND user_id = $2;
	`

	var rate domain.Rate
	if err := tx.QueryRow(ctx, query, productID, userID).Scan(
		&rate.ID,
		&rate.ProductID,
		&rate.UserID,
		&rate.Value,
		&rate.Comment,
		&rate.CreatedAt,
		&rate.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRateNotFound
		}

		span.RecordError(err)

		return nil, fmt.Errorf("error getting rate: %w", err)
	}

	return &rate, nil
}

func (r *rateRepo) Insert(ctx context.Context, tx pgx.Tx, rate *domain.Rate) error {
	ctx, span := r.tracer.Start(ctx, "RateRepository.Insert")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", rate.ProductID),
		attribute.Int64("user_id", rate.UserID),
	)

	query := `
		INSERT INTO rates (product_id, user_id, value, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at;
	`

	if err := tx.QueryRow(
		ctx,
		query,
		rate.ProductID,
		rate.UserID,
		rate.Value,
		rate.Comment,
	).Scan(&rate.ID, &rate.CreatedAt, &rate.UpdatedAt); err != nil {
		span.RecordError(err)

		return fmt.Errorf("error inserting rate: %w", err)
	}

	return nil
}

func (r *rateRepo) Update(ctx context.Context, tx pgx.Tx, rate *domain.Rate) error {
	ctx, span := r.tracer.Start(ctx, "RateRepository.Update")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("rate_id", rate.ID),
	)

	query := `
		UPDATE rates
		SET value = $1, comment = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at;
	`

	if err := tx.QueryRow(ctx, query, rate.Value, rate.Comment, rate.ID).
		Scan(&rate.UpdatedAt); err != nil {
		span.RecordError(err)

		return fmt.Errorf("error updating rate: %w", err)
	}

	return nil
}
