package service

import (
	"context"
	"errors"
	"time"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/Mohannad35/market-hub-sub000/internal/pricing"
	"github.com/Mohannad35/market-hub-sub000/internal/repository"
	"github.com/Mohannad35/market-hub-sub000/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CouponQuote is a dry-run of a coupon against the caller's cart: the same
// pricing the checkout would apply, with nothing persisted.
type CouponQuote struct {
	Coupon *domain.Coupon
	Quote  pricing.Quote
}

type CouponService interface {
	// ApplyByCode resolves a coupon by code and previews it against the
	// identity's open cart. A caller with no cart (or an empty one) still
	// gets the coupon back with a zero quote; applicability is re-checked
	// at checkout time, not cached from this step.
	ApplyByCode(ctx context.Context, identity Identity, code string) (*CouponQuote, error)
	Create(ctx context.Context, coupon *domain.Coupon) error
}

type couponService struct {
	logger  *zap.Logger
	coupons repository.CouponRepository
	carts   repository.CartRepository
	now     func() time.Time
	tracer  trace.Tracer
}

func NewCouponService(
	logger *zap.Logger,
	coupons repository.CouponRepository,
	carts repository.CartRepository,
) CouponService {
	return &couponService{
		logger:  logger,
		coupons: coupons,
		carts:   carts,
		now:     time.Now,
		tracer:  otel.Tracer("coupon_service"),
	}
}

func (s *couponService) ApplyByCode(ctx context.Context, identity Identity, code string) (*CouponQuote, error) {
	ctx, span := s.tracer.Start(ctx, "CouponService.ApplyByCode")
	defer span.End()

	span.SetAttributes(
		attribute.String("coupon_code", code),
	)

	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	var cart *domain.Cart
	if identity.UserID != nil {
		cart, err = s.carts.GetActiveCart(ctx, *identity.UserID)
	} else if identity.SessionToken != nil {
		cart, err = s.carts.GetBySessionToken(ctx, *identity.SessionToken)
	} else {
		err = repository.ErrCartNotFound
	}
	if errors.Is(err, repository.ErrCartNotFound) {
		return &CouponQuote{Coupon: coupon, Quote: pricing.Price(nil, coupon, s.now())}, nil
	}
	if err != nil {
		return nil, err
	}

	items, err := s.carts.GetItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return &CouponQuote{Coupon: coupon, Quote: pricing.Price(nil, coupon, s.now())}, nil
	}

	quote := pricing.Price(items, coupon, s.now())

	if coupon.MinAmount != nil && quote.Subtotal.LessThan(*coupon.MinAmount) {
		mylogger.Warn(
			ctx,
			s.logger,
			"Coupon minimum amount not reached",
			zap.String("code", coupon.Code),
			zap.String("subtotal", quote.Subtotal.String()),
		)

		return nil, ErrMinAmountNotReached
	}

	return &CouponQuote{Coupon: coupon, Quote: quote}, nil
}

func (s *couponService) Create(ctx context.Context, coupon *domain.Coupon) error {
	ctx, span := s.tracer.Start(ctx, "CouponService.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("coupon_code", coupon.Code),
	)

	if err := coupon.Validate(); err != nil {
		return err
	}

	if err := s.coupons.Create(ctx, coupon); err != nil {
		return err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Created coupon",
		zap.Int64("coupon_id", coupon.ID),
		zap.String("code", coupon.Code),
	)

	return nil
}
