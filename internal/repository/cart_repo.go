package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/Mohannad35/market-hub-sub000/pkg/mylogger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type CartRepository interface {
	GetActiveCart(ctx context.Context, userID int64) (*domain.Cart, error)
	GetByID(ctx context.Context, cartID int64) (*domain.Cart, error)
	GetBySessionToken(ctx context.Context, token uuid.UUID) (*domain.Cart, error)
	GetItems(ctx context.Context, cartID int64) ([]domain.CartItem, error)
	Create(ctx context.Context, tx pgx.Tx, cart *domain.Cart) error
	SetActiveCart(ctx context.Context, tx pgx.Tx, userID, cartID int64) error
	ClearActiveCart(ctx context.Context, tx pgx.Tx, userID, cartID int64) error
	UpsertItem(ctx context.Context, tx pgx.Tx, item *domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, tx pgx.Tx, cartID, productID int64, quantity int32) error
	RemoveItem(ctx context.Context, tx pgx.Tx, cartID, productID int64) error
	UpdateItemPrice(ctx context.Context, tx pgx.Tx, itemID int64, priceAfter decimal.Decimal) error
	MarkOrdered(ctx context.Context, tx pgx.Tx, cartID int64) error
}

type cartRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewCartRepository(pool *pgxpool.Pool, logger *zap.Logger) CartRepository {
	return &cartRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("markethub/cart_repo"),
	}
}

const cartColumns = `id, user_id, session_token, status, created_at, updated_at`

func (r *cartRepo) scanCart(row pgx.Row) (*domain.Cart, error) {
	var c domain.Cart
	if err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.SessionToken,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("error scanning cart: %w", err)
	}

	return &c, nil
}

func (r *cartRepo) GetActiveCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	ctx, span := r.tracer.Start(ctx, "CartRepository.GetActiveCart")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	query := `
		SELECT c.id, c.user_id, c.session_token, c.status, c.created_at, c.updated_at
		FROM carts c
		JOIN users u ON u.active_cart_id = c.id
		WHERE u.id = $1;
	`

	return r.scanCart(r.pool.QueryRow(ctx, query, userID))
}

func (r *cartRepo) GetByID(ctx context.Context, cartID int64) (*domain.Cart, error) {
	ctx, span := r.tracer.Start(ctx, "CartRepository.GetByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("cart_id", cartID),
	)

	query := `SELECT ` + cartColumns + ` FROM carts WHERE id = $1;`

	return r.scanCart(r.pool.QueryRow(ctx, query, cartID))
}

func (r *cartRepo) GetBySessionToken(ctx context.Context, token uuid.UUID) (*domain.Cart, error) {
	ctx, span := r.tracer.Start(ctx, "CartRepository.GetBySessionToken")
	defer span.End()

	query := `SELECT ` + cartColumns + ` FROM carts WHERE session_token = $1 AND status = 'open';`

	return r.scanCart(r.pool.QueryRow(ctx, query, token))
}

func (r *cartRepo) GetItems(ctx context.Context, cartID int64) ([]domain.CartItem, error) {
	ctx, span := r.tracer.Start(ctx, "CartRepository.GetItems")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("cart_id", cartID),
	)

	query := `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.unit_price, ci.price_after,
			p.name, p.vendor_id
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id;
	`

	rows, err := r.pool.Query(ctx, query, cartID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query cart items",
			zap.Int64("cart_id", cartID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("error querying cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPrice,
			&item.PriceAfter,
			&item.ProductName,
			&item.VendorID,
		); err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("error scanning cart item: %w", err)
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *cartRepo) Create(ctx context.Context, tx pgx.Tx, cart *domain.Cart) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.Create")
	defer span.End()

	query := `
		INSERT INTO carts (user_id, session_token, status, created_at, updated_at)
		VALUES ($1, $2, 'open', NOW(), NOW())
		RETURNING id, status, created_at, updated_at;
	`

	if err := tx.QueryRow(ctx, query, cart.UserID, cart.SessionToken).Scan(
		&cart.ID,
		&cart.Status,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert cart",
			zap.Error(err),
		)

		return fmt.Errorf("error creating cart: %w", err)
	}

	return nil
}

func (r *cartRepo) SetActiveCart(ctx context.Context, tx pgx.Tx, userID, cartID int64) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.SetActiveCart")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("cart_id", cartID),
	)

	query := `
		UPDATE users
		SET active_cart_id = $1
		WHERE id = $2;
	`

	commandTag, err := tx.Exec(ctx, query, cartID, userID)
	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("error setting active cart: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ClearActiveCart resets the pointer only when it still references the cart
// being checked out, so a concurrently created cart is left alone.
func (r *cartRepo) ClearActiveCart(ctx context.Context, tx pgx.Tx, userID, cartID int64) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.ClearActiveCart")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("cart_id", cartID),
	)

	query := `
		UPDATE users
		SET active_cart_id = NULL
		WHERE id = $1 AND active_cart_id = $2;
	`

	if _, err := tx.Exec(ctx, query, userID, cartID); err != nil {
		span.RecordError(err)

		return fmt.Errorf("error clearing active cart: %w", err)
	}

	return nil
}

func (r *cartRepo) UpsertItem(ctx context.Context, tx pgx.Tx, item *domain.CartItem) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.UpsertItem")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("cart_id", item.CartID),
		attribute.Int64("product_id", item.ProductID),
	)

	query := `
		INSERT INTO cart_items (cart_id, product_id, quantity, unit_price, price_after)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, quantity, price_after;
	`

	if err := tx.QueryRow(
		ctx,
		query,
		item.CartID,
		item.ProductID,
		item.Quantity,
		item.UnitPrice,
	).Scan(&item.ID, &item.Quantity, &item.PriceAfter); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to upsert cart item",
			zap.Int64("cart_id", item.CartID),
			zap.Int64("product_id", item.ProductID),
			zap.Error(err),
		)

		return fmt.Errorf("error upserting cart item: %w", err)
	}

	return nil
}

func (r *cartRepo) UpdateItemQuantity(ctx context.Context, tx pgx.Tx, cartID, productID int64, quantity int32) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.UpdateItemQuantity")
	defer span.End()

	query := `
		UPDATE cart_items
		SET quantity = $3
		WHERE cart_id = $1 AND product_id = $2;
	`

	commandTag, err := tx.Exec(ctx, query, cartID, productID, quantity)
	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("error updating cart item quantity: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (r *cartRepo) RemoveItem(ctx context.Context, tx pgx.Tx, cartID, productID int64) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.RemoveItem")
	defer span.End()

	query := `
		DELETE FROM cart_items
		WHERE cart_id = $1 AND product_id = $2;
	`

	commandTag, err := tx.Exec(ctx, query, cartID, productID)
	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("error removing cart item: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (r *cartRepo) UpdateItemPrice(ctx context.Context, tx pgx.Tx, itemID int64, priceAfter decimal.Decimal) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.UpdateItemPrice")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("item_id", itemID),
	)

	query := `
		UPDATE cart_items
		SET price_after = $1
		WHERE id = $2;
	`

	if _, err := tx.Exec(ctx, query, priceAfter, itemID); err != nil {
		span.RecordError(err)

		return fmt.Errorf("error updating cart item price: %w", err)
	}

	return nil
}

// MarkOrdered flips an open cart to ordered. The status guard in the WHERE
// clause is what makes concurrent checkouts lose cleanly: the second
// transaction updates zero rows and gets ErrCartNotOpen.
func (r *cartRepo) MarkOrdered(ctx context.Context, tx pgx.Tx, cartID int64) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.MarkOrdered")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("cart_id", cartID),
	)

	query := `
		UPDATE carts
		SET status = 'ordered', updated_at = NOW()
		WHERE id = $1 AND status = 'open';
	`

	commandTag, err := tx.Exec(ctx, query, cartID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to mark cart ordered",
			zap.Int64("cart_id", cartID),
			zap.Error(err),
		)

		return fmt.Errorf("error marking cart ordered: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		mylogger.Warn(
			ctx,
			r.logger,
			"Cart already ordered or missing",
			zap.Int64("cart_id", cartID),
		)

		return ErrCartNotOpen
	}

	return nil
}
