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

type OrderRepository interface {
	Create(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	GetByCode(ctx context.Context, code string) (*domain.Order, error)
	ChangeStatus(ctx context.Context, tx pgx.Tx, orderID int64, status domain.OrderStatus) error
}

type orderRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewOrderRepository(pool *pgxpool.Pool, logger *zap.Logger) OrderRepository {
	return &orderRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("markethub/order_repo"),
	}
}

func (r *orderRepo) Create(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_code", order.Code),
		attribute.Int64("cart_id", order.CartID),
	)

	query := `
		INSERT INTO orders (code, user_id, cart_id, coupon_id, address, phone, email,
			payment_method, bill, discount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id, created_at, updated_at;
	`

	err := tx.QueryRow(
		ctx,
		query,
		order.Code,
		order.UserID,
		order.CartID,
		order.CouponID,
		order.Address,
		order.Phone,
		order.Email,
		order.Payment,
		order.Bill,
		order.Discount,
		order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == "23505" {
			mylogger.Warn(
				ctx,
				r.logger,
				"Order code collision",
				zap.String("code", order.Code),
			)

			return ErrDuplicateOrderCode
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert order",
			zap.String("code", order.Code),
			zap.Error(err),
		)

		return fmt.Errorf("error creating order: %w", err)
	}

	return nil
}

func (r *orderRepo) GetByCode(ctx context.Context, code string) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetByCode")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_code", code),
	)

	query := `
		SELECT id, code, user_id, cart_id, coupon_id, address, phone, email,
			payment_method, bill, discount, status, created_at, updated_at
		FROM orders
		WHERE code = $1;
	`

	var o domain.Order
	if err := r.pool.QueryRow(ctx, query, code).Scan(
		&o.ID,
		&o.Code,
		&o.UserID,
		&o.CartID,
		&o.CouponID,
		&o.Address,
		&o.Phone,
		&o.Email,
		&o.Payment,
		&o.Bill,
		&o.Discount,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}

		span.RecordError(err)

		return nil, fmt.Errorf("error getting order: %w", err)
	}

	return &o, nil
}

func (r *orderRepo) ChangeStatus(ctx context.Context, tx pgx.Tx, orderID int64, status domain.OrderStatus) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.ChangeStatus")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.String("status", string(status)),
	)

	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2;
	`

	commandTag, err := tx.Exec(ctx, query, status, orderID)
	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("error updating order status: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}
