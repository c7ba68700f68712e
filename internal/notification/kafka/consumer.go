package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/Mohannad35/market-hub-sub000/internal/domain"
	"github.com/Mohannad35/market-hub-sub000/internal/notification/service"
	"github.com/Mohannad35/market-hub-sub000/pkg/kafka"
	"github.com/Mohannad35/market-hub-sub000/pkg/mylogger"
	"go.uber.org/zap"
)

type Consumer struct {
	service *service.NotificationService
	logger  *zap.Logger
	topic   string
}

func NewConsumer(service *service.NotificationService, logger *zap.Logger, topic string) *Consumer {
	return &Consumer{
		service: service,
		logger:  logger,
		topic:   topic,
	}
}

func (c *Consumer) Start(ctx context.Context, brokers []string) {
	consumerGroup := kafka.NewConsumerGroup(
		brokers,
		"notifier-group",
		[]string{c.topic},
		c.processMessage,
		c.logger,
	)

	consumerGroup.Run(ctx)
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	mylogger.Info(
		ctx,
		c.logger,
		"Processing message",
		zap.String("topic", msg.Topic),
	)

	type EventWrapper struct {
		Event   string          `json:"event"`
		EventID int64           `json:"event_id"`
		Payload json.RawMessage `json:"payload"`
	}

	var wrapper EventWrapper
	if err := json.Unmarshal(msg.Value, &wrapper); err != nil {
		mylogger.Error(ctx, c.logger, "Error unmarshalling wrapper", zap.Error(err))
		return err
	}

	switch wrapper.Event {
	case "OrderPlaced":
		var event domain.OrderPlacedEvent
		if err := json.Unmarshal(wrapper.Payload, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Error parsing order placed event", zap.Error(err))
			return nil
		}
		event.EventID = wrapper.EventID

		if err := c.service.HandleOrderPlaced(ctx, event); err != nil {
			mylogger.Error(ctx, c.logger, "Error processing order placed event", zap.Error(err))
			return err
		}
	default:
		mylogger.Warn(
			ctx,
			c.logger,
			"Ignored event type",
			zap.String("event", wrapper.Event),
		)
	}

	return nil
}
