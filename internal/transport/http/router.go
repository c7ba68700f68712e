package http

import (
	"github.com/Mohannad35/market-hub-sub000/internal/transport/http/handler"
	"github.com/Mohannad35/market-hub-sub000/internal/transport/http/middleware"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Coupon   *handler.CouponHandler
	Product  *handler.ProductHandler
	Order    *handler.OrderHandler
}

func RegisterRoutes(app *fiber.App, h *Handlers) {
	api := app.Group("/api", middleware.NewIdentityMiddleware())

	product := api.Group("/products")
	product.Get("/:id", h.Product.FindByID)
	product.Get("", h.Product.List)
	product.Post("/:id/rate", middleware.RequireUser(), h.Product.Rate)

	cart := api.Group("/cart")
	cart.Get("", h.Cart.GetCart)
	cart.Post("/items", h.Cart.AddItem)
	cart.Patch("/items/:productId", h.Cart.UpdateQuantity)
	cart.Delete("/items/:productId", h.Cart.RemoveItem)

	coupon := api.Group("/coupons")
	coupon.Post("/apply", h.Coupon.Apply)
	coupon.Post("", middleware.RequireUser(), h.Coupon.Create)

	api.Post("/checkout", middleware.RequireUser(), h.Checkout.Checkout)
	api.Get("/orders/:code", middleware.RequireUser(), h.Order.FindByCode)
}
