package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/Mohannad35/market-hub-sub000/internal/pricing"
	"github.com/Mohannad35/market-hub-sub000/internal/repository"
	"github.com/Mohannad35/market-hub-sub000/pkg/mylogger"
	outboxDomain "github.com/Mohannad35/market-hub-sub000/pkg/outbox/domain"
	"github.com/Mohannad35/market-hub-sub000/pkg/outbox/worker"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// orderCodeAttempts bounds the regenerate-and-retry loop on an order code
// unique-index conflict.
const orderCodeAttempts = 3

type CheckoutInput struct {
	UserID   int64
	Address  string
	Phone    domain.Phone
	Email    string
	Payment  domain.PaymentMethod
	CartID   *int64
	CouponID *int64
}

type CheckoutService interface {
	Checkout(ctx context.Context, input CheckoutInput) (*domain.Order, error)
}

type checkoutService struct {
	pool       *pgxpool.Pool
	logger     *zap.Logger
	carts      repository.CartRepository
	coupons    repository.CouponRepository
	orders     repository.OrderRepository
	outboxRepo worker.OutboxRepository
	topic      string
	now        func() time.Time
	tracer     trace.Tracer
}

func NewCheckoutService(
	pool *pgxpool.Pool,
	logger *zap.Logger,
	carts repository.CartRepository,
	coupons repository.CouponRepository,
	orders repository.OrderRepository,
	outboxRepo worker.OutboxRepository,
	topic string,
) CheckoutService {
	return &checkoutService{
		pool:       pool,
		logger:     logger,
		carts:      carts,
		coupons:    coupons,
		orders:     orders,
		outboxRepo: outboxRepo,
		topic:      topic,
		now:        time.Now,
		tracer:     otel.Tracer("checkout_service"),
	}
}

// Checkout turns the user's cart into an immutable order. Pricing runs
// before the transaction (it is pure); the item prices, the order row, the
// cart status flip, the active-cart pointer clear and the order-placed
// outbox event all commit atomically or not at all.
func (s *checkoutService) Checkout(ctx context.Context, input CheckoutInput) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.Checkout")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", input.UserID),
	)

	cart, err := s.resolveCart(ctx, input)
	if err != nil {
		return nil, err
	}

	items, err := s.carts.GetItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		mylogger.Warn(
			ctx,
			s.logger,
			"Checkout on empty cart",
			zap.Int64("cart_id", cart.ID),
		)

		return nil, ErrEmptyCart
	}

	var coupon *domain.Coupon
	if input.CouponID != nil {
		coupon, err = s.coupons.GetByID(ctx, *input.CouponID)
		if err != nil {
			return nil, err
		}
	}

	at := s.now()
	quote := pricing.Price(items, coupon, at)

	// The minimum-amount gate runs against the undiscounted subtotal,
	// before any discount is applied.
	if coupon != nil && coupon.MinAmount != nil && quote.Subtotal.LessThan(*coupon.MinAmount) {
		mylogger.Warn(
			ctx,
			s.logger,
			"Coupon minimum amount not reached",
			zap.Int64("coupon_id", coupon.ID),
			zap.String("subtotal", quote.Subtotal.String()),
			zap.String("min_amount", coupon.MinAmount.String()),
		)

		return nil, ErrMinAmountNotReached
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

	if coupon != nil {
		for _, item := range quote.Items {
			if err := s.carts.UpdateItemPrice(ctx, tx, item.CartItemID, item.PriceAfter); err != nil {
				return nil, err
			}
		}
	}

	order := &domain.Order{
		UserID:   input.UserID,
		CartID:   cart.ID,
		Address:  input.Address,
		Phone:    input.Phone,
		Email:    input.Email,
		Payment:  input.Payment,
		Bill:     quote.Total,
		Discount: quote.DiscountTotal,
		Status:   domain.OrderStatusPending,
	}
	if coupon != nil {
		order.CouponID = &coupon.ID
	}

	if err := s.createWithUniqueCode(ctx, tx, order, at); err != nil {
		return nil, err
	}

	if err := s.carts.MarkOrdered(ctx, tx, cart.ID); err != nil {
		if errors.Is(err, repository.ErrCartNotOpen) {
			return nil, ErrCheckoutConflict
		}
		return nil, err
	}

	if err := s.carts.ClearActiveCart(ctx, tx, input.UserID, cart.ID); err != nil {
		return nil, err
	}

	if err := s.emitOrderPlaced(ctx, tx, order); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))

		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Checkout succeeded",
		zap.Int64("order_id", order.ID),
		zap.String("order_code", order.Code),
		zap.Int64("cart_id", cart.ID),
	)

	return order, nil
}

// resolveCart prefers the user's active-cart pointer and falls back to an
// explicitly supplied cart id.
func (s *checkoutService) resolveCart(ctx context.Context, input CheckoutInput) (*domain.Cart, error) {
	cart, err := s.carts.GetActiveCart(ctx, input.UserID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repository.ErrCartNotFound) {
		return nil, err
	}

	if input.CartID == nil {
		return nil, repository.ErrCartNotFound
	}

	return s.carts.GetByID(ctx, *input.CartID)
}

func (s *checkoutService) createWithUniqueCode(ctx context.Context, tx pgx.Tx, order *domain.Order, at time.Time) error {
	var err error
	for attempt := 0; attempt < orderCodeAttempts; attempt++ {
		order.Code = domain.NewOrderCode(at)

		err = s.orders.Create(ctx, tx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateOrderCode) {
			return err
		}
	}

	return err
}

func (s *checkoutService) emitOrderPlaced(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	event := domain.OrderPlacedEvent{
		OrderID:  order.ID,
		Code:     order.Code,
		UserID:   order.UserID,
		Email:    order.Email,
		Bill:     order.Bill.String(),
		Discount: order.Discount.String(),
	}

	envelope := map[string]any{
		"event":   "OrderPlaced",
		"payload": event,
	}

	payloadBytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	outboxEvent := &outboxDomain.OutboxEvent{
		AggregateType: "Order",
		AggregateID:   fmt.Sprintf("%d", order.ID),
		EventType:     "OrderPlaced",
		Payload:       payloadBytes,
		Topic:         s.topic,
	}

	if err := s.outboxRepo.SaveOutboxEvent(ctx, tx, outboxEvent); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to save outbox event",
			zap.Error(err),
		)

		return fmt.Errorf("failed to save outbox event: %w", err)
	}

	return nil
}
