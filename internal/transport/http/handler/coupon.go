package handler

import (
	"time"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/Mohannad35/market-hub-sub000/internal/service"
	"github.com/Mohannad35/market-hub-sub000/internal/transport/http/middleware"
	"github.com/Mohannad35/market-hub-sub000/pkg/mylogger"
	"github.com/Mohannad35/market-hub-sub000/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CouponHandler struct {
	coupons  service.CouponService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewCouponHandler(coupons service.CouponService, logger *zap.Logger) *CouponHandler {
	return &CouponHandler{
		coupons:  coupons,
		validate: validator.New(),
		logger:   logger,
	}
}

type ApplyCouponInput struct {
	Code string `json:"code" validate:"required,min=3,max=50"`
}

type CreateCouponInput struct {
	Code      string           `json:"code" validate:"required,min=3,max=50"`
	Value     int32            `json:"value" validate:"required,gt=0,lt=100"`
	MinAmount *decimal.Decimal `json:"min_amount"`
	MaxAmount *decimal.Decimal `json:"max_amount"`
	StartsAt  time.Time        `json:"starts_at" validate:"required"`
	EndsAt    time.Time        `json:"ends_at" validate:"required"`
	Scope     string           `json:"scope" validate:"required,oneof=admin vendor"`
}

// Apply previews the coupon against the caller's cart without persisting
// anything; the checkout re-evaluates from scratch.
func (h *CouponHandler) Apply(c *fiber.Ctx) error {
	ctx := c.UserContext()

	input := new(ApplyCouponInput)
	if err := c.BodyParser(input); err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"failed to parse body in apply coupon",
			zap.Error(err),
		)

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": utils.FormatValidationError(err),
		})
	}

	result, err := h.coupons.ApplyByCode(ctx, middleware.Identity(c), input.Code)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"coupon_id": result.Coupon.ID,
		"code":      result.Coupon.Code,
		"subtotal":  result.Quote.Subtotal,
		"discount":  result.Quote.DiscountTotal,
		"total":     result.Quote.Total,
	})
}

func (h *CouponHandler) Create(c *fiber.Ctx) error {
	ctx := c.UserContext()

	input := new(CreateCouponInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": utils.FormatValidationError(err),
		})
	}

	identity := middleware.Identity(c)

	coupon := &domain.Coupon{
		Code:      input.Code,
		Value:     input.Value,
		MinAmount: input.MinAmount,
		MaxAmount: input.MaxAmount,
		StartsAt:  input.StartsAt,
		EndsAt:    input.EndsAt,
		Scope:     domain.CouponScope(input.Scope),
		IsActive:  true,
		OwnerID:   *identity.UserID,
	}

	if err := h.coupons.Create(ctx, coupon); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"coupon_id": coupon.ID,
		"code":      coupon.Code,
	})
}
