// Package mail delivers magic-link emails over SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"academy/config"
	"academy/internal/domain/service"
	"academy/internal/errors"

	gomail "github.com/wneessen/go-mail"
)

const (
	magicLinkSubject = "Your sign-in link"
	defaultSMTPPort  = 587
)

// sendFunc matches gomail.Client.DialAndSendWithContext.
type sendFunc func(ctx context.Context, messages ...*gomail.Msg) error

// smtpSender implements service.MailSender.
type smtpSender struct {
	host   string
	from   string
	send   sendFunc
	now    func() time.Time
	logger *slog.Logger
}

// NewSMTPSender builds a sender for the configured relay.
func NewSMTPSender(cfg *config.Config, logger *slog.Logger) (service.MailSender, error) {
	mc := cfg.Mailer
	if mc == nil || mc.SMTPHost == "" || mc.From == "" {
		return nil, errors.New("mailer smtpHost and from must be configured")
	}

	port := mc.SMTPPort
	if port == 0 {
		port = defaultSMTPPort
	}

	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if mc.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(mc.Username),
			gomail.WithPassword(mc.Password),
		)
	}

	client, err := gomail.NewClient(mc.SMTPHost, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create smtp client")
	}

	return &smtpSender{
		host:   mc.SMTPHost,
		from:   mc.From,
		send:   client.DialAndSendWithContext,
		now:    time.Now,
		logger: logger,
	}, nil
}

// SendMagicLink renders and sends the sign-in email.
func (s *smtpSender) SendMagicLink(ctx context.Context, event *service.MagicLinkEvent) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	if strings.ContainsAny(event.Email, "\r\n") {
		return errors.New("recipient contains a line break")
	}

	msg, err := s.render(event)
	if err != nil {
		return err
	}

	if err := s.send(ctx, msg); err != nil {
		return errors.Wrap(err, "smtp send failed")
	}

	s.logger.Info("Magic link email sent",
		slog.String("request_id", event.RequestID),
		slog.String("relay", s.host),
	)

	return nil
}

func (s *smtpSender) render(event *service.MagicLinkEvent) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return nil, errors.Wrap(err, "invalid sender address")
	}
	if err := msg.To(event.Email); err != nil {
		return nil, errors.Wrap(err, "invalid recipient address")
	}

	msg.Subject(magicLinkSubject)
	msg.SetDateWithValue(s.now())

	var body strings.Builder
	body.WriteString("Click the link below to sign in to the Academy:\r\n\r\n")
	body.WriteString(event.URL + "\r\n\r\n")
	fmt.Fprintf(&body, "The link can be used once and expires at %s.\r\n", event.ExpiresAt.UTC().Format(time.RFC1123))
	body.WriteString("If you did not request it, you can ignore this email.\r\n")
	msg.SetBodyString(gomail.TypeTextPlain, body.String())

	return msg, nil
}
