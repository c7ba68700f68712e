package handler

import (
	"errors"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/Mohannad35/market-hub-sub000/internal/repository"
	"github.com/Mohannad35/market-hub-sub000/internal/service"
	"github.com/gofiber/fiber/v2"
)

// statusFromError maps domain and repository sentinels to HTTP codes:
// missing resources are 404, malformed input 400, business-rule rejections
// 422, lost races 409, everything else 500.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, repository.ErrCartNotFound),
		errors.Is(err, repository.ErrCouponNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return fiber.StatusNotFound

	case errors.Is(err, domain.ErrInvalidPhone),
		errors.Is(err, domain.ErrInvalidCouponScope),
		errors.Is(err, domain.ErrInvalidCouponValue),
		errors.Is(err, domain.ErrInvalidCouponDates),
		errors.Is(err, service.ErrRateValueOutOfRange):
		return fiber.StatusBadRequest

	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrMinAmountNotReached):
		return fiber.StatusUnprocessableEntity

	case errors.Is(err, service.ErrCheckoutConflict),
		errors.Is(err, repository.ErrCartNotOpen),
		errors.Is(err, repository.ErrCouponExists):
		return fiber.StatusConflict

	default:
		return fiber.StatusInternalServerError
	}
}

func errorResponse(c *fiber.Ctx, err error) error {
	status := statusFromError(err)

	message := err.Error()
	if status == fiber.StatusInternalServerError {
		message = "internal error"
	}

	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}
