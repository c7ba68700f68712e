package service

import (
	"context"
	"time"

	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/Mohannad35/market-hub-sub000/internal/notification/email"
	outboxUtils "github.com/Mohannad35/market-hub-sub000/pkg/outbox/utils"
	"github.com/Mohannad35/market-hub-sub000/pkg/utils"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type NotificationService struct {
	emailSender email.Sender
	logger      *zap.Logger
	pool        *pgxpool.Pool
	cb          *gobreaker.CircuitBreaker
	tracer      trace.Tracer
}

func NewNotificationService(emailSender email.Sender, logger *zap.Logger, pool *pgxpool.Pool) *NotificationService {
	settings := gobreaker.Settings{
		Name:        "SMTP",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(
				"Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &NotificationService{
		emailSender: emailSender,
		logger:      logger,
		pool:        pool,
		cb:          gobreaker.NewCircuitBreaker(settings),
		tracer:      otel.Tracer("notification-service"),
	}
}

// HandleOrderPlaced sends the confirmation email at most once per event id.
// SMTP sits behind a circuit breaker so a dead mail server does not stall
// the consumer group.
func (s *NotificationService) HandleOrderPlaced(ctx context.Context, event domain.OrderPlacedEvent) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandleOrderPlaced")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", event.EventID),
		attribute.String("order_code", event.Code),
	)

	return outboxUtils.ProcessWithDeduplication(ctx, s.pool, s.logger, event.EventID, func() error {
		_, err := utils.ExecuteWithBreaker(s.cb, func() (struct{}, error) {
			return struct{}{}, s.emailSender.SendOrderPlacedEmail(ctx, event.Email, event.Code, event.Bill, event.Discount)
		})

		return err
	})
}
