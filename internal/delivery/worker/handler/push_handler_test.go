package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"academy/config"
	"academy/internal/domain/constants"
	"academy/internal/domain/service"
	"academy/internal/errors"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

type mockMailSender struct {
	mock.Mock
}

func (m *mockMailSender) SendMagicLink(ctx context.Context, event *service.MagicLinkEvent) error {
	args := m.Called(ctx, event)

	return args.Error(0)
}

func newTestHandler(t *testing.T, env string, mailer service.MailSender) *PushHandler {
	t.Helper()

	cfg := &config.Config{}
	cfg.Env.Env = env
	cfg.PubSub = &config.PubSubConfig{Provider: constants.PubSubProviderGoogle, PushAudience: "https://mailer.academy.test/push"}

	return NewPushHandler(PushHandlerParams{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Mailer: mailer,
	})
}

func pushBody(t *testing.T, event any, attributes map[string]string) string {
	t.Helper()

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var msg PubSubMessage
	msg.Message.Data = base64.StdEncoding.EncodeToString(data)
	msg.Message.MessageID = "msg-1"
	msg.Message.Attributes = attributes

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	return string(body)
}

func servePush(h *PushHandler, body string, header http.Header) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/push", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	rec := httptest.NewRecorder()

	_ = h.HandlePush(e.NewContext(req, rec))

	return rec
}

func TestHandlePush_SendsMagicLink(t *testing.T) {
	mailer := new(mockMailSender)
	event := &service.MagicLinkEvent{
		Email:     "ada@example.com",
		URL:       "https://academy.test/auth/magic-link/verify?token=abc",
		ExpiresAt: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	mailer.On("SendMagicLink", mock.Anything, mock.MatchedBy(func(got *service.MagicLinkEvent) bool {
		return got.Email == event.Email && got.URL == event.URL && got.ExpiresAt.Equal(event.ExpiresAt)
	})).Return(nil).Once()

	rec := servePush(newTestHandler(t, constants.EnvDevelop, mailer), pushBody(t, event, map[string]string{"request_id": "req-1"}), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	mailer.AssertExpectations(t)
}

func TestHandlePush_RetriesOnSendFailure(t *testing.T) {
	mailer := new(mockMailSender)
	mailer.On("SendMagicLink", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	event := &service.MagicLinkEvent{Email: "ada@example.com", URL: "https://academy.test/x"}
	rec := servePush(newTestHandler(t, constants.EnvDevelop, mailer), pushBody(t, event, nil), nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	mailer.AssertExpectations(t)
}

func TestHandlePush_MalformedMessages(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "not json", body: `{`, status: http.StatusBadRequest},
		{name: "bad base64", body: `{"message":{"data":"%%%"}}`, status: http.StatusBadRequest},
		{name: "bad event", body: `{"message":{"data":"` + base64.StdEncoding.EncodeToString([]byte("[1]")) + `"}}`, status: http.StatusBadRequest},
		{name: "incomplete event is acknowledged", body: pushBody(t, map[string]string{"email": "ada@example.com"}, nil), status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := new(mockMailSender)

			rec := servePush(newTestHandler(t, constants.EnvDevelop, mailer), tt.body, nil)

			assert.Equal(t, tt.status, rec.Code)
			mailer.AssertNotCalled(t, "SendMagicLink", mock.Anything, mock.Anything)
		})
	}
}

func TestHandlePush_VerifiesPushTokenOutsideDevelop(t *testing.T) {
	event := &service.MagicLinkEvent{Email: "ada@example.com", URL: "https://academy.test/x"}

	t.Run("missing header", func(t *testing.T) {
		mailer := new(mockMailSender)
		h := newTestHandler(t, constants.EnvProduction, mailer)

		rec := servePush(h, pushBody(t, event, nil), nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		mailer.AssertNotCalled(t, "SendMagicLink", mock.Anything, mock.Anything)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		mailer := new(mockMailSender)
		h := newTestHandler(t, constants.EnvProduction, mailer)
		h.validate = func(context.Context, string, string) (*idtoken.Payload, error) {
			return &idtoken.Payload{Issuer: "https://evil.example"}, nil
		}

		rec := servePush(h, pushBody(t, event, nil), http.Header{"Authorization": {"Bearer t"}})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		mailer := new(mockMailSender)
		mailer.On("SendMagicLink", mock.Anything, mock.Anything).Return(nil).Once()
		h := newTestHandler(t, constants.EnvProduction, mailer)

		var audience string
		h.validate = func(_ context.Context, token, aud string) (*idtoken.Payload, error) {
			audience = aud
			if token != "good" {
				return nil, errors.New("bad token")
			}

			return &idtoken.Payload{Issuer: "https://accounts.google.com", Claims: map[string]any{"email_verified": true}}, nil
		}

		rec := servePush(h, pushBody(t, event, nil), http.Header{"Authorization": {"Bearer good"}})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://mailer.academy.test/push", audience)
		mailer.AssertExpectations(t)
	})
}
