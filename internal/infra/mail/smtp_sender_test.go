package mail

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"academy/config"
	"academy/internal/domain/service"
	"academy/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

func newTestSender(t *testing.T, send sendFunc) *smtpSender {
	t.Helper()

	cfg := &config.Config{Mailer: &config.MailerConfig{
		SMTPHost: "smtp.academy.dev",
		SMTPPort: 2525,
		Username: "mailer",
		Password: "secret",
		From:     "Academy <no-reply@academy.dev>",
	}}

	sender, err := NewSMTPSender(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	s := sender.(*smtpSender)
	s.send = send
	s.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	return s
}

func TestSMTPSender_SendMagicLink(t *testing.T) {
	var sent []*gomail.Msg

	sender := newTestSender(t, func(_ context.Context, messages ...*gomail.Msg) error {
		sent = append(sent, messages...)

		return nil
	})

	event := &service.MagicLinkEvent{
		Email:     "ana@academy.dev",
		URL:       "https://academy.dev/auth/magic-link/verify?token=abc",
		ExpiresAt: time.Date(2026, 1, 1, 0, 15, 0, 0, time.UTC),
	}
	require.NoError(t, sender.SendMagicLink(context.Background(), event))
	require.Len(t, sent, 1)
	msg := sent[0]

	from, err := msg.GetSender(false)
	require.NoError(t, err)
	assert.Equal(t, "<no-reply@academy.dev>", from)

	recipients, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"<ana@academy.dev>"}, recipients)
	assert.Equal(t, []string{magicLinkSubject}, msg.GetGenHeader(gomail.HeaderSubject))

	parts := msg.GetParts()
	require.Len(t, parts, 1)
	assert.Equal(t, gomail.TypeTextPlain, parts[0].GetContentType())
	body, err := parts[0].GetContent()
	require.NoError(t, err)
	assert.Contains(t, string(body), event.URL)
}

func TestSMTPSender_Failures(t *testing.T) {
	sender := newTestSender(t, func(context.Context, ...*gomail.Msg) error {
		return errors.New("421 service not available")
	})

	err := sender.SendMagicLink(context.Background(), &service.MagicLinkEvent{Email: "ana@academy.dev"})
	assert.ErrorContains(t, err, "smtp send failed")

	err = sender.SendMagicLink(context.Background(), &service.MagicLinkEvent{Email: "ana@academy.dev\r\nBcc: x@y.z"})
	assert.Error(t, err)

	err = sender.SendMagicLink(context.Background(), &service.MagicLinkEvent{Email: "not an address"})
	assert.ErrorContains(t, err, "invalid recipient address")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = sender.SendMagicLink(ctx, &service.MagicLinkEvent{Email: "ana@academy.dev"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSMTPSender_RequiresRelay(t *testing.T) {
	_, err := NewSMTPSender(&config.Config{Mailer: &config.MailerConfig{}}, slog.Default())
	assert.Error(t, err)
}
