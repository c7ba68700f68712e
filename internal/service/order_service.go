package service

import (
	"context"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/Mohannad35/market-hub-sub000/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OrderService interface {
	FindByCode(ctx context.Context, code string) (*domain.Order, error)
}

type orderService struct {
	logger *zap.Logger
	orders repository.OrderRepository
	tracer trace.Tracer
}

func NewOrderService(logger *zap.Logger, orders repository.OrderRepository) OrderService {
	return &orderService{
		logger: logger,
		orders: orders,
		tracer: otel.Tracer("order_service"),
	}
}

func (s *orderService) FindByCode(ctx context.Context, code string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.FindByCode")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_code", code),
	)

	return s.orders.GetByCode(ctx, code)
}
