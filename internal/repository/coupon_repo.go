package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/Mohannad35/market-hub-sub000/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type CouponRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Coupon, error)
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	Create(ctx context.Context, coupon *domain.Coupon) error
}

type couponRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewCouponRepository(pool *pgxpool.Pool, logger *zap.Logger) CouponRepository {
	return &couponRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("markethub/coupon_repo"),
	}
}

const couponColumns = `id, code, value, min_amount, max_amount, starts_at, ends_at,
	scope, is_active, owner_id, created_at, updated_at`

func (r *couponRepo) scanCoupon(row pgx.Row) (*domain.Coupon, error) {
	var c domain.Coupon
	if err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Value,
		&c.MinAmount,
		&c.MaxAmount,
		&c.StartsAt,
		&c.EndsAt,
		&c.Scope,
		&c.IsActive,
		&c.OwnerID,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("error scanning coupon: %w", err)
	}

	return &c, nil
}

func (r *couponRepo) GetByID(ctx context.Context, id int64) (*domain.Coupon, error) {
	ctx, span := r.tracer.Start(ctx, "CouponRepository.GetByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("coupon_id", id),
	)

	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1;`

	return r.scanCoupon(r.pool.QueryRow(ctx, query, id))
}

func (r *couponRepo) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	ctx, span := r.tracer.Start(ctx, "CouponRepository.GetByCode")
	defer span.End()

	span.SetAttributes(
		attribute.String("coupon_code", code),
	)

	query := `SELECT ` + couponColumns + ` FROM coupons WHERE lower(code) = lower($1);`

	return r.scanCoupon(r.pool.QueryRow(ctx, query, code))
}

func (r *couponRepo) Create(ctx context.Context, coupon *domain.Coupon) error {
	ctx, span := r.tracer.Start(ctx, "CouponRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("coupon_code", coupon.Code),
		attribute.String("scope", string(coupon.Scope)),
	)

	query := `
		INSERT INTO coupons (code, value, min_amount, max_amount, starts_at, ends_at,
			scope, is_active, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id, created_at, updated_at;
	`

	err := r.pool.QueryRow(
		ctx,
		query,
		coupon.Code,
		coupon.Value,
		coupon.MinAmount,
		coupon.MaxAmount,
		coupon.StartsAt,
		coupon.EndsAt,
		coupon.Scope,
		coupon.IsActive,
		coupon.OwnerID,
	).Scan(&coupon.ID, &coupon.CreatedAt, &coupon.UpdatedAt)
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == "23505" {
			return ErrCouponExists
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert coupon",
			zap.String("code", coupon.Code),
			zap.Error(err),
		)

		return fmt.Errorf("error creating coupon: %w", err)
	}

	return nil
}
