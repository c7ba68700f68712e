package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/Mohannad35/market-hub-sub000/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error)
	// GetRatingForUpdate row-locks the product so the rating aggregate is
	// recomputed against a stable snapshot.
	GetRatingForUpdate(ctx context.Context, tx pgx.Tx, id int64) (rating float64, count int64, err error)
	UpdateRating(ctx context.Context, tx pgx.Tx, id int64, rating float64, count int64) error
}

type productRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewProductRepository(pool *pgxpool.Pool, logger *zap.Logger) ProductRepository {
	return &productRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("markethub/product_repo"),
	}
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", id),
	)

	query := `
		SELECT id, vendor_id, name, description, price, rating, rating_count,
			created_at, updated_at
		FROM products
		WHERE id = $1;
	`

	var p domain.Product
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.VendorID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Rating,
		&p.RatingCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query product",
			zap.Int64("product_id", id),
			zap.Error(err),
		)

		return nil, fmt.Errorf("error getting product: %w", err)
	}

	return &p, nil
}

func (r *productRepo) List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.List")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("limit", limit),
		attribute.Int64("offset", offset),
		attribute.String("search", search),
	)

	baseQuery := `
		SELECT id, vendor_id, name, description, price, rating, rating_count,
			created_at, updated_at
		FROM products
		WHERE TRUE`
	countQuery := `SELECT COUNT(*) FROM products WHERE TRUE`

	var args []interface{}
	argID := 1

	if search != "" {
		filter := fmt.Sprintf(" AND name ILIKE $%d", argID)
		baseQuery += filter
		countQuery += filter

		args = append(args, "%"+search+"%")
		argID++
	}

	baseQuery += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argID, argID+1)
	listArgs := append(args, limit, offset)

	rows, err := r.pool.Query(ctx, baseQuery, listArgs...)
	if err != nil {
		span.RecordError(err)

		return nil, 0, fmt.Errorf("error selecting products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.VendorID,
			&p.Name,
			&p.Description,
			&p.Price,
			&p.Rating,
			&p.RatingCount,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			span.RecordError(err)

			return nil, 0, fmt.Errorf("error scanning product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)

		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	var totalCount int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		span.RecordError(err)

		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	return products, totalCount, nil
}

func (r *productRepo) GetRatingForUpdate(ctx context.Context, tx pgx.Tx, id int64) (float64, int64, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetRatingForUpdate")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", id),
	)

	query := `
		SELECT rating, rating_count
		FROM products
		WHERE id = $1
		FOR UPDATE;
	`

	var rating float64
	var count int64
	if err := tx.QueryRow(ctx, query, id).Scan(&rating, &count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, ErrProductNotFound
		}

		span.RecordError(err)

		return 0, 0, fmt.Errorf("error locking product rating: %w", err)
	}

	return rating, count, nil
}

func (r *productRepo) UpdateRating(ctx context.Context, tx pgx.Tx, id int64, rating float64, count int64) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.UpdateRating")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", id),
		attribute.Float64("rating", rating),
		attribute.Int64("rating_count", count),
	)

	query := `
		UPDATE products
		SET rating = $1, rating_count = $2, updated_at = NOW()
		WHERE id = $3;
	`

	commandTag, err := tx.Exec(ctx, query, rating, count, id)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to update product rating",
			zap.Int64("product_id", id),
			zap.Error(err),
		)

		return fmt.Errorf("error updating product rating: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}
