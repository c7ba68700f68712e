package handler

import (
	"strconv"

	"github.com/Mohannad35/market-hub-sub000/internal/service"
	"github.com/Mohannad35/market-hub-sub000/internal/transport/http/middleware"
	"github.com/Mohannad35/market-hub-sub000/pkg/mylogger"
	"github.com/Mohannad35/market-hub-sub000/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ProductHandler struct {
	products service.ProductService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewProductHandler(products service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		validate: validator.New(),
		logger:   logger,
	}
}

type RateInput struct {
	Value   int32   `json:"value" validate:"required,gte=1,lte=5"`
	Comment *string `json:"comment" validate:"omitempty,max=1000"`
}

func (h *ProductHandler) FindByID(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid product id",
		})
	}

	product, err := h.products.FindByID(c.UserContext(), id)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(product)
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	limit := int64(c.QueryInt("limit", 20))
	offset := int64(c.QueryInt("offset", 0))
	search := c.Query("search")

	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	products, total, err := h.products.List(c.UserContext(), limit, offset, search)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"products": products,
		"total":    total,
	})
}

func (h *ProductHandler) Rate(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid product id",
		})
	}

	input := new(RateInput)
	if err := c.BodyParser(input); err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"failed to parse body in rate",
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

	rate, err := h.products.Rate(ctx, service.RateInput{
		ProductID: id,
		UserID:    *identity.UserID,
		Value:     input.Value,
		Comment:   input.Comment,
	})
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"rate_id": rate.ID,
		"value":   rate.Value,
	})
}
