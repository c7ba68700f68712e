package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/Mohannad35/market-hub-sub000/internal/repository"
	"github.com/Mohannad35/market-hub-sub000/internal/service"
	outboxRepository "github.com/Mohannad35/market-hub-sub000/pkg/outbox/repository"
	"github.com/Mohannad35/market-hub-sub000/pkg/testsuite"
)

type IntegrationTestSuite struct {
	testsuite.BaseSuite

	CartService     service.CartService
	CheckoutService service.CheckoutService
	CouponService   service.CouponService
	ProductService  service.ProductService

	CartRepo   repository.CartRepository
	CouponRepo repository.CouponRepository
	OrderRepo  repository.OrderRepository
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.BaseSuite.SetupInfrastructure("../../migrations")
}

func (s *IntegrationTestSuite) TearDownSuite() {
	s.BaseSuite.TearDownInfrastructure()
}

func (s *IntegrationTestSuite) SetupTest() {
	s.BaseSuite.TruncateTable("orders")
	s.BaseSuite.TruncateTable("rates")
	s.BaseSuite.TruncateTable("cart_items")
	s.BaseSuite.TruncateTable("carts")
	s.BaseSuite.TruncateTable("coupons")
	s.BaseSuite.TruncateTable("products")
	s.BaseSuite.TruncateTable("users")
	s.BaseSuite.TruncateTable("outbox")

	logger := zap.NewNop()

	s.CartRepo = repository.NewCartRepository(s.DbPool, logger)
	s.CouponRepo = repository.NewCouponRepository(s.DbPool, logger)
	s.OrderRepo = repository.NewOrderRepository(s.DbPool, logger)
	productRepo := repository.NewProductRepository(s.DbPool, logger)
	rateRepo := repository.NewRateRepository(s.DbPool, logger)
	outboxRepo := outboxRepository.NewOutboxRepository(s.DbPool, logger)

	s.CartService = service.NewCartService(s.DbPool, logger, s.CartRepo, productRepo)
	s.CouponService = service.NewCouponService(logger, s.CouponRepo, s.CartRepo)
	s.ProductService = service.NewProductService(s.DbPool, logger, productRepo, rateRepo)
	s.CheckoutService = service.NewCheckoutService(
		s.DbPool, logger, s.CartRepo, s.CouponRepo, s.OrderRepo, outboxRepo, "order_events",
	)
}

func (s *IntegrationTestSuite) seedUser(id int64, email string) {
	_, err := s.DbPool.Exec(s.Ctx,
		`INSERT INTO users (id, email) VALUES ($1, $2)`, id, email)
	s.Require().NoError(err)
}

func (s *IntegrationTestSuite) seedProduct(id, vendorID int64, name, price string) {
	_, err := s.DbPool.Exec(s.Ctx,
		`INSERT INTO products (id, vendor_id, name, price) VALUES ($1, $2, $3, $4)`,
		id, vendorID, name, price)
	s.Require().NoError(err)
}

func (s *IntegrationTestSuite) seedCoupon(coupon *domain.Coupon) *domain.Coupon {
	s.Require().NoError(s.CouponRepo.Create(s.Ctx, coupon))
	return coupon
}

func (s *IntegrationTestSuite) identity(userID int64) service.Identity {
	return service.Identity{UserID: &userID}
}

func (s *IntegrationTestSuite) checkoutInput(userID int64) service.CheckoutInput {
	phone, err := domain.ParsePhone("+14155552671", "")
	s.Require().NoError(err)

	return service.CheckoutInput{
		UserID:  userID,
		Address: "42 Market Street, Springfield",
		Phone:   phone,
		Email:   "buyer@example.com",
		Payment: domain.PaymentCOD,
	}
}

func (s *IntegrationTestSuite) dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (s *IntegrationTestSuite) TestCheckoutHappyPath() {
	s.seedUser(1, "buyer@example.com")
	s.seedProduct(10, 100, "Keyboard", "50.00")
	s.seedProduct(11, 200, "Mouse", "30.00")

	_, err := s.CartService.AddItem(s.Ctx, s.identity(1), 10, 2)
	s.Require().NoError(err)
	cart, err := s.CartService.AddItem(s.Ctx, s.identity(1), 11, 1)
	s.Require().NoError(err)

	order, err := s.CheckoutService.Checkout(s.Ctx, s.checkoutInput(1))
	s.Require().NoError(err)

	s.Require().Regexp(`^[0-9a-f]+-[0-9a-z]{8}$`, order.Code)
	s.Require().True(order.Bill.Equal(s.dec("130.00")), "bill = %s", order.Bill)
	s.Require().True(order.Discount.IsZero())
	s.Require().Equal(domain.OrderStatusPending, order.Status)

	// The cart is sealed and the active pointer released.
	sealed, err := s.CartRepo.GetByID(s.Ctx, cart.ID)
	s.Require().NoError(err)
	s.Require().Equal(domain.CartStatusOrdered, sealed.Status)

	var activeCartID *int64
	err = s.DbPool.QueryRow(s.Ctx,
		`SELECT active_cart_id FROM users WHERE id = 1`).Scan(&activeCartID)
	s.Require().NoError(err)
	s.Require().Nil(activeCartID)

	// The order-placed event is in the outbox, same transaction.
	var outboxCount int
	err = s.DbPool.QueryRow(s.Ctx,
		`SELECT COUNT(*) FROM outbox WHERE event_type = 'OrderPlaced'`).Scan(&outboxCount)
	s.Require().NoError(err)
	s.Require().Equal(1, outboxCount)

	fetched, err := s.OrderRepo.GetByCode(s.Ctx, order.Code)
	s.Require().NoError(err)
	s.Require().Equal(order.ID, fetched.ID)
	s.Require().Equal("+14155552671", fetched.Phone.Number)
}

func (s *IntegrationTestSuite) TestCheckoutWithAdminCoupon() {
	s.seedUser(1, "buyer@example.com")
	s.seedProduct(10, 100, "Keyboard", "50.00")
	s.seedProduct(11, 200, "Mouse", "30.00")

	_, err := s.CartService.AddItem(s.Ctx, s.identity(1), 10, 2)
	s.Require().NoError(err)
	cart, err := s.CartService.AddItem(s.Ctx, s.identity(1), 11, 1)
	s.Require().NoError(err)

	coupon := s.seedCoupon(&domain.Coupon{
		Code:     "TEN",
		Value:    10,
		StartsAt: time.Now().Add(-time.Hour),
		EndsAt:   time.Now().Add(time.Hour),
		Scope:    domain.CouponScopeAdmin,
		IsActive: true,
		OwnerID:  1,
	})

	input := s.checkoutInput(1)
	input.CouponID = &coupon.ID

	order, err := s.CheckoutService.Checkout(s.Ctx, input)
	s.Require().NoError(err)

	s.Require().True(order.Discount.Equal(s.dec("13.00")), "discount = %s", order.Discount)
	s.Require().True(order.Bill.Equal(s.dec("117.00")), "bill = %s", order.Bill)

	// Discounted prices are frozen on the cart items.
	items, err := s.CartRepo.GetItems(s.Ctx, cart.ID)
	s.Require().NoError(err)
	for _, item := range items {
		switch item.ProductID {
		case 10:
			s.Require().True(item.PriceAfter.Equal(s.dec("45.00")))
		case 11:
			s.Require().True(item.PriceAfter.Equal(s.dec("27.00")))
		}
	}
}

func (s *IntegrationTestSuite) TestCheckoutVendorCouponScopesDiscount() {
	s.seedUser(1, "buyer@example.com")
	s.seedProduct(10, 100, "Keyboard", "80.00")
	s.seedProduct(11, 200, "Mouse", "80.00")

	_, err := s.CartService.AddItem(s.Ctx, s.identity(1), 10, 1)
	s.Require().NoError(err)
	_, err = s.CartService.AddItem(s.Ctx, s.identity(1), 11, 1)
	s.Require().NoError(err)

	coupon := s.seedCoupon(&domain.Coupon{
		Code:     "VENDOR25",
		Value:    25,
		StartsAt: time.Now().Add(-time.Hour),
		EndsAt:   time.Now().Add(time.Hour),
		Scope:    domain.CouponScopeVendor,
		IsActive: true,
		OwnerID:  100,
	})

	input := s.checkoutInput(1)
	input.CouponID = &coupon.ID

	order, err := s.CheckoutService.Checkout(s.Ctx, input)
	s.Require().NoError(err)

	// Only the vendor's own 80.00 item is discounted.
	s.Require().True(order.Discount.Equal(s.dec("20.00")), "discount = %s", order.Discount)
	s.Require().True(order.Bill.Equal(s.dec("140.00")), "bill = %s", order.Bill)
}

func (s *IntegrationTestSuite) TestCheckoutEmptyCartRejected() {
	s.seedUser(1, "buyer@example.com")
	s.seedProduct(10, 100, "Keyboard", "50.00")

	_, err := s.CartService.AddItem(s.Ctx, s.identity(1), 10, 1)
	s.Require().NoError(err)
	_, err = s.CartService.RemoveItem(s.Ctx, s.identity(1), 10)
	s.Require().NoError(err)

	_, err = s.CheckoutService.Checkout(s.Ctx, s.checkoutInput(1))
	s.Require().ErrorIs(err, service.ErrEmptyCart)
}

func (s *IntegrationTestSuite) TestCheckoutNoCartRejected() {
	s.seedUser(1, "buyer@example.com")

	_, err := s.CheckoutService.Checkout(s.Ctx, s.checkoutInput(1))
	s.Require().ErrorIs(err, repository.ErrCartNotFound)
}

func (s *IntegrationTestSuite) TestCheckoutMinAmountNotReached() {
	s.seedUser(1, "buyer@example.com")
	s.seedProduct(10, 100, "Keyboard", "50.00")

	_, err := s.CartService.AddItem(s.Ctx, s.identity(1), 10, 1)
	s.Require().NoError(err)

	minAmount := s.dec("100.00")
	coupon := s.seedCoupon(&domain.Coupon{
		Code:      "BIGSPEND",
		Value:     10,
		MinAmount: &minAmount,
		StartsAt:  time.Now().Add(-time.Hour),
		EndsAt:    time.Now().Add(time.Hour),
		Scope:     domain.CouponScopeAdmin,
		IsActive:  true,
		OwnerID:   1,
	})

	input := s.checkoutInput(1)
	input.CouponID = &coupon.ID

	_, err = s.CheckoutService.Checkout(s.Ctx, input)
	s.Require().ErrorIs(err, service.ErrMinAmountNotReached)

	// Nothing persisted on the rejected path.
	var orderCount int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx,
		`SELECT COUNT(*) FROM orders`).Scan(&orderCount))
	s.Require().Zero(orderCount)
}

func (s *IntegrationTestSuite) TestCheckoutMinAmountBoundaryPasses() {
	s.seedUser(1, "buyer@example.com")
	s.seedProduct(10, 100, "Keyboard", "50.00")

	_, err := s.CartService.AddItem(s.Ctx, s.identity(1), 10, 2)
	s.Require().NoError(err)

	minAmount := s.dec("100.00")
	coupon := s.seedCoupon(&domain.Coupon{
		Code:      "EXACT",
		Value:     10,
		MinAmount: &minAmount,
		StartsAt:  time.Now().Add(-time.Hour),
		EndsAt:    time.Now().Add(time.Hour),
		Scope:     domain.CouponScopeAdmin,
		IsActive:  true,
		OwnerID:   1,
	})

	input := s.checkoutInput(1)
	input.CouponID = &coupon.ID

	order, err := s.CheckoutService.Checkout(s.Ctx, input)
	s.Require().NoError(err)
	s.Require().True(order.Discount.Equal(s.dec("10.00")))
}

func (s *IntegrationTestSuite) TestCheckoutSameCartTwiceConflicts() {
	s.seedUser(1, "buyer@example.com")
	s.seedProduct(10, 100, "Keyboard", "50.00")

	cart, err := s.CartService.AddItem(s.Ctx, s.identity(1), 10, 1)
	s.Require().NoError(err)

	_, err = s.CheckoutService.Checkout(s.Ctx, s.checkoutInput(1))
	s.Require().NoError(err)

	// The active pointer is gone, so target the cart explicitly.
	input := s.checkoutInput(1)
	input.CartID = &cart.ID

	_, err = s.CheckoutService.Checkout(s.Ctx, input)
	s.Require().ErrorIs(err, service.ErrCheckoutConflict)

	var orderCount int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx,
		`SELECT COUNT(*) FROM orders WHERE cart_id = $1`, cart.ID).Scan(&orderCount))
	s.Require().Equal(1, orderCount)
}

func (s *IntegrationTestSuite) TestConcurrentCheckoutsProduceOneOrder() {
	s.seedUser(1, "buyer@example.com")
	s.seedProduct(10, 100, "Keyboard", "50.00")

	cart, err := s.CartService.AddItem(s.Ctx, s.identity(1), 10, 1)
	s.Require().NoError(err)

	input := s.checkoutInput(1)
	input.CartID = &cart.ID

	const attempts = 5
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.CheckoutService.Checkout(s.Ctx, input)
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.Require().ErrorIs(err, service.ErrCheckoutConflict)
		}
	}
	s.Require().Equal(1, succeeded)

	var orderCount int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx,
		`SELECT COUNT(*) FROM orders WHERE cart_id = $1`, cart.ID).Scan(&orderCount))
	s.Require().Equal(1, orderCount)
}

// faultyCartRepo simulates a storage failure on the cart status flip, after
// the order row has already been written inside the transaction.
type faultyCartRepo struct {
	repository.CartRepository
}

func (r *faultyCartRepo) MarkOrdered(ctx context.Context, tx pgx.Tx, cartID int64) error {
	return errors.New("storage failure")
}

func (s *IntegrationTestSuite) TestCheckoutRollsBackWhenStatusFlipFails() {
	s.seedUser(1, "buyer@example.com")
	s.seedProduct(10, 100, "Keyboard", "50.00")

	cart, err := s.CartService.AddItem(s.Ctx, s.identity(1), 10, 1)
	s.Require().NoError(err)

	logger := zap.NewNop()
	outboxRepo := outboxRepository.NewOutboxRepository(s.DbPool, logger)
	checkout := service.NewCheckoutService(
		s.DbPool, logger,
		&faultyCartRepo{CartRepository: s.CartRepo},
		s.CouponRepo, s.OrderRepo, outboxRepo, "order_events",
	)

	_, err = checkout.Checkout(s.Ctx, s.checkoutInput(1))
	s.Require().Error(err)

	// The whole transaction unwound: cart still open, pointer intact,
	// no order and no outbox event.
	fresh, err := s.CartRepo.GetByID(s.Ctx, cart.ID)
	s.Require().NoError(err)
	s.Require().Equal(domain.CartStatusOpen, fresh.Status)

	var activeCartID *int64
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx,
		`SELECT active_cart_id FROM users WHERE id = 1`).Scan(&activeCartID))
	s.Require().NotNil(activeCartID)
	s.Require().Equal(cart.ID, *activeCartID)

	var orderCount, outboxCount int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx,
		`SELECT COUNT(*) FROM orders`).Scan(&orderCount))
	s.Require().Zero(orderCount)
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx,
		`SELECT COUNT(*) FROM outbox`).Scan(&outboxCount))
	s.Require().Zero(outboxCount)
}

func (s *IntegrationTestSuite) TestCheckoutCanceledContextLeavesCartOpen() {
	s.seedUser(1, "buyer@example.com")
	s.seedProduct(10, 100, "Keyboard", "50.00")

	cart, err := s.CartService.AddItem(s.Ctx, s.identity(1), 10, 1)
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(s.Ctx)
	cancel()

	_, err = s.CheckoutService.Checkout(ctx, s.checkoutInput(1))
	s.Require().Error(err)

	fresh, err := s.CartRepo.GetByID(s.Ctx, cart.ID)
	s.Require().NoError(err)
	s.Require().Equal(domain.CartStatusOpen, fresh.Status)

	var activeCartID *int64
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx,
		`SELECT active_cart_id FROM users WHERE id = 1`).Scan(&activeCartID))
	s.Require().NotNil(activeCartID)

	var orderCount int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx,
		`SELECT COUNT(*) FROM orders`).Scan(&orderCount))
	s.Require().Zero(orderCount)
}

func (s *IntegrationTestSuite) TestApplyCouponPreviewPersistsNothing() {
	s.seedUser(1, "buyer@example.com")
	s.seedProduct(10, 100, "Keyboard", "50.00")

	cart, err := s.CartService.AddItem(s.Ctx, s.identity(1), 10, 2)
	s.Require().NoError(err)

	s.seedCoupon(&domain.Coupon{
		Code:     "TEN",
		Value:    10,
		StartsAt: time.Now().Add(-time.Hour),
		EndsAt:   time.Now().Add(time.Hour),
		Scope:    domain.CouponScopeAdmin,
		IsActive: true,
		OwnerID:  1,
	})

	result, err := s.CouponService.ApplyByCode(s.Ctx, s.identity(1), "ten")
	s.Require().NoError(err)
	s.Require().True(result.Quote.DiscountTotal.Equal(s.dec("10.00")))
	s.Require().True(result.Quote.Total.Equal(s.dec("90.00")))

	// Preview leaves cart item prices untouched.
	items, err := s.CartRepo.GetItems(s.Ctx, cart.ID)
	s.Require().NoError(err)
	s.Require().True(items[0].PriceAfter.Equal(items[0].UnitPrice))
}

func (s *IntegrationTestSuite) TestApplyCouponWithoutCartStillResolves() {
	s.seedUser(1, "buyer@example.com")

	s.seedCoupon(&domain.Coupon{
		Code:     "TEN",
		Value:    10,
		StartsAt: time.Now().Add(-time.Hour),
		EndsAt:   time.Now().Add(time.Hour),
		Scope:    domain.CouponScopeAdmin,
		IsActive: true,
		OwnerID:  1,
	})

	// No cart yet: the coupon still resolves, with an empty quote.
	result, err := s.CouponService.ApplyByCode(s.Ctx, s.identity(1), "TEN")
	s.Require().NoError(err)
	s.Require().Equal("TEN", result.Coupon.Code)
	s.Require().True(result.Quote.Subtotal.IsZero())
	s.Require().True(result.Quote.Total.IsZero())

	// Same for a cart emptied back to zero items.
	s.seedProduct(10, 100, "Keyboard", "50.00")
	_, err = s.CartService.AddItem(s.Ctx, s.identity(1), 10, 1)
	s.Require().NoError(err)
	_, err = s.CartService.RemoveItem(s.Ctx, s.identity(1), 10)
	s.Require().NoError(err)

	result, err = s.CouponService.ApplyByCode(s.Ctx, s.identity(1), "TEN")
	s.Require().NoError(err)
	s.Require().Equal("TEN", result.Coupon.Code)
	s.Require().True(result.Quote.DiscountTotal.IsZero())
}

func (s *IntegrationTestSuite) TestRateFirstTimeUpdatesAggregate() {
	s.seedUser(1, "rater@example.com")
	s.seedProduct(10, 100, "Keyboard", "50.00")

	_, err := s.DbPool.Exec(s.Ctx,
		`UPDATE products SET rating = 4, rating_count = 2 WHERE id = 10`)
	s.Require().NoError(err)

	_, err = s.ProductService.Rate(s.Ctx, service.RateInput{
		ProductID: 10,
		UserID:    1,
		Value:     5,
	})
	s.Require().NoError(err)

	product, err := s.ProductService.FindByID(s.Ctx, 10)
	s.Require().NoError(err)
	s.Require().InDelta(13.0/3.0, product.Rating, 1e-9)
	s.Require().Equal(int64(3), product.RatingCount)
}

func (s *IntegrationTestSuite) TestRateEditKeepsCount() {
	s.seedUser(1, "rater@example.com")
	s.seedProduct(10, 100, "Keyboard", "50.00")

	_, err := s.ProductService.Rate(s.Ctx, service.RateInput{
		ProductID: 10,
		UserID:    1,
		Value:     5,
	})
	s.Require().NoError(err)

	comment := "changed my mind"
	rate, err := s.ProductService.Rate(s.Ctx, service.RateInput{
		ProductID: 10,
		UserID:    1,
		Value:     2,
		Comment:   &comment,
	})
	s.Require().NoError(err)
	s.Require().Equal(int32(2), rate.Value)

	product, err := s.ProductService.FindByID(s.Ctx, 10)
	s.Require().NoError(err)
	s.Require().InDelta(2.0, product.Rating, 1e-9)
	s.Require().Equal(int64(1), product.RatingCount)

	var rateCount int
	s.Require().NoError(s.DbPool.QueryRow(s.Ctx,
		`SELECT COUNT(*) FROM rates WHERE product_id = 10 AND user_id = 1`).Scan(&rateCount))
	s.Require().Equal(1, rateCount)
}

func (s *IntegrationTestSuite) TestRateValueOutOfRange() {
	s.seedUser(1, "rater@example.com")
	s.seedProduct(10, 100, "Keyboard", "50.00")

	_, err := s.ProductService.Rate(s.Ctx, service.RateInput{
		ProductID: 10,
		UserID:    1,
		Value:     6,
	})
	s.Require().ErrorIs(err, service.ErrRateValueOutOfRange)
}

func (s *IntegrationTestSuite) TestAddItemAccumulatesQuantity() {
	s.seedUser(1, "buyer@example.com")
	s.seedProduct(10, 100, "Keyboard", "50.00")

	_, err := s.CartService.AddItem(s.Ctx, s.identity(1), 10, 2)
	s.Require().NoError(err)
	cart, err := s.CartService.AddItem(s.Ctx, s.identity(1), 10, 3)
	s.Require().NoError(err)

	s.Require().Len(cart.Items, 1)
	s.Require().Equal(int32(5), cart.Items[0].Quantity)
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationTestSuite))
}
