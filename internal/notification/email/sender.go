package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/Mohannad35/market-hub-sub000/pkg/config"
	"github.com/Mohannad35/market-hub-sub000/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Sender interface {
	SendOrderPlacedEmail(ctx context.Context, to, orderCode, bill, discount string) error
}

type smtpSender struct {
	from     string
	password string
	host     string
	port     string
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewSMTPSender(cfg config.SMTP, logger *zap.Logger) Sender {
	return &smtpSender{
		from:     cfg.User,
		password: cfg.Password,
		host:     cfg.Host,
		port:     cfg.Port,
		logger:   logger,
		tracer:   otel.Tracer("notification/email"),
	}
}

func (s *smtpSender) SendOrderPlacedEmail(ctx context.Context, to, orderCode, bill, discount string) error {
	ctx, span := s.tracer.Start(ctx, "smtp.SendOrderPlacedEmail")
	defer span.End()

	span.SetAttributes(
		attribute.String("to.email", to),
		attribute.String("order_code", orderCode),
	)

	subject := "Subject: Your order is confirmed.\n"
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	body := fmt.Sprintf(`
		<h1>Thanks for your order! 🎉</h1>
		<p>Order code: <b>%s</b></p>
		<p>Total: %s (discount applied: %s)</p>
		<p>You can track your order with the code above.</p>
	`, orderCode, bill, discount)

	msg := []byte(subject + mime + body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	auth := smtp.PlainAuth("", s.from, s.password, s.host)

	mylogger.Info(
		ctx,
		s.logger,
		"Sending order placed email",
		zap.String("to", to),
		zap.String("order_code", orderCode),
	)

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, msg); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			s.logger,
			"Error sending order placed email",
			zap.String("to", to),
			zap.Error(err),
		)

		return fmt.Errorf("failed to send mail: %w", err)
	}

	mylogger.Info(ctx, s.logger, "Order placed email sent successfully")

	return nil
}
