package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/Mohannad35/market-hub-sub000/internal/repository"
	"github.com/Mohannad35/market-hub-sub000/pkg/mylogger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Identity is the caller: a signed-in user, an anonymous session, or both
// (in which case the user wins).
type Identity struct {
	UserID       *int64
	SessionToken *uuid.UUID
}

type CartService interface {
	AddItem(ctx context.Context, identity Identity, productID int64, quantity int32) (*domain.Cart, error)
	GetCart(ctx context.Context, identity Identity) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, identity Identity, productID int64, quantity int32) (*domain.Cart, error)
	RemoveItem(ctx context.Context, identity Identity, productID int64) (*domain.Cart, error)
}

type cartService struct {
	pool     *pgxpool.Pool
	logger   *zap.Logger
	carts    repository.CartRepository
	products repository.ProductRepository
	tracer   trace.Tracer
}

func NewCartService(
	pool *pgxpool.Pool,
	logger *zap.Logger,
	carts repository.CartRepository,
	products repository.ProductRepository,
) CartService {
	return &cartService{
		pool:     pool,
		logger:   logger,
		carts:    carts,
		products: products,
		tracer:   otel.Tracer("cart_service"),
	}
}

// AddItem puts a product into the caller's open cart, creating the cart on
// demand inside the same transaction. Adding the same product again
// accumulates quantity.
func (s *cartService) AddItem(ctx context.Context, identity Identity, productID int64, quantity int32) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.AddItem")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", productID),
		attribute.Int("quantity", int(quantity)),
	)

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
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

	cart, err := s.findOpenCart(ctx, identity)
	if errors.Is(err, repository.ErrCartNotFound) {
		cart, err = s.createCart(ctx, tx, identity)
	}
	if err != nil {
		return nil, err
	}

	item := &domain.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: product.Price,
	}
	if err := s.carts.UpsertItem(ctx, tx, item); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))

		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.loadCart(ctx, cart.ID)
}

func (s *cartService) GetCart(ctx context.Context, identity Identity) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.GetCart")
	defer span.End()

	cart, err := s.findOpenCart(ctx, identity)
	if err != nil {
		return nil, err
	}

	return s.loadCart(ctx, cart.ID)
}

// UpdateQuantity sets an item's quantity; zero removes the line item.
func (s *cartService) UpdateQuantity(ctx context.Context, identity Identity, productID int64, quantity int32) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.UpdateQuantity")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", productID),
		attribute.Int("quantity", int(quantity)),
	)

	if quantity == 0 {
		return s.RemoveItem(ctx, identity, productID)
	}

	return s.withCartTx(ctx, identity, func(tx pgx.Tx, cart *domain.Cart) error {
		return s.carts.UpdateItemQuantity(ctx, tx, cart.ID, productID, quantity)
	})
}

func (s *cartService) RemoveItem(ctx context.Context, identity Identity, productID int64) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.RemoveItem")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", productID),
	)

	return s.withCartTx(ctx, identity, func(tx pgx.Tx, cart *domain.Cart) error {
		return s.carts.RemoveItem(ctx, tx, cart.ID, productID)
	})
}

func (s *cartService) findOpenCart(ctx context.Context, identity Identity) (*domain.Cart, error) {
	if identity.UserID != nil {
		return s.carts.GetActiveCart(ctx, *identity.UserID)
	}
	if identity.SessionToken != nil {
		return s.carts.GetBySessionToken(ctx, *identity.SessionToken)
	}

	return nil, repository.ErrCartNotFound
}

func (s *cartService) createCart(ctx context.Context, tx pgx.Tx, identity Identity) (*domain.Cart, error) {
	cart := &domain.Cart{
		UserID:       identity.UserID,
		SessionToken: identity.SessionToken,
	}
	if cart.UserID != nil && cart.SessionToken == nil {
		token := uuid.New()
		cart.SessionToken = &token
	}

	if err := s.carts.Create(ctx, tx, cart); err != nil {
		return nil, err
	}

	if identity.UserID != nil {
		if err := s.carts.SetActiveCart(ctx, tx, *identity.UserID, cart.ID); err != nil {
			return nil, err
		}
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Created cart",
		zap.Int64("cart_id", cart.ID),
	)

	return cart, nil
}

func (s *cartService) loadCart(ctx context.Context, cartID int64) (*domain.Cart, error) {
	cart, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}

	cart.Items, err = s.carts.GetItems(ctx, cartID)
	if err != nil {
		return nil, err
	}

	return cart, nil
}

func (s *cartService) withCartTx(ctx context.Context, identity Identity, fn func(tx pgx.Tx, cart *domain.Cart) error) (*domain.Cart, error) {
	cart, err := s.findOpenCart(ctx, identity)
	if err != nil {
		return nil, err
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

	if err := fn(tx, cart); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))

		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.loadCart(ctx, cart.ID)
}
