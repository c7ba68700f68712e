package handler

import (
	"context"
	"time"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/Mohannad35/market-hub-sub000/internal/service"
	"github.com/Mohannad35/market-hub-sub000/internal/transport/http/middleware"
	"github.com/Mohannad35/market-hub-sub000/pkg/mylogger"
	"github.com/Mohannad35/market-hub-sub000/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	checkouts service.CheckoutService
	validate  *validator.Validate
	logger    *zap.Logger
	timeout   time.Duration
}

func NewCheckoutHandler(checkouts service.CheckoutService, logger *zap.Logger, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkouts: checkouts,
		validate:  validator.New(),
		logger:    logger,
		timeout:   timeout,
	}
}

type CheckoutInput struct {
	Address      string `json:"address" validate:"required,min=5,max=500"`
	Phone        string `json:"phone" validate:"required"`
	PhoneCountry string `json:"phone_country" validate:"omitempty,len=2"`
	Email        string `json:"email" validate:"required,email"`
	Payment      string `json:"payment_method" validate:"required,oneof=cod card"`
	CartID       *int64 `json:"cart_id" validate:"omitempty,gt=0"`
	CouponID     *int64 `json:"coupon_id" validate:"omitempty,gt=0"`
}

func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	// Bounding the whole operation keeps a wedged transaction from holding
	// row locks past the client's patience; the rollback is automatic.
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	input := new(CheckoutInput)
	if err := c.BodyParser(input); err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"failed to parse body in checkout",
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

	identity := middleware.Identity(c)

	phone, err := domain.ParsePhone(input.Phone, input.PhoneCountry)
	if err != nil {
		return errorResponse(c, err)
	}

	order, err := h.checkouts.Checkout(ctx, service.CheckoutInput{
		UserID:   *identity.UserID,
		Address:  input.Address,
		Phone:    phone,
		Email:    input.Email,
		Payment:  domain.PaymentMethod(input.Payment),
		CartID:   input.CartID,
		CouponID: input.CouponID,
	})
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"checkout failed",
			zap.Error(err),
		)

		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order_code": order.Code,
		"bill":       order.Bill,
		"discount":   order.Discount,
		"status":     order.Status,
	})
}
