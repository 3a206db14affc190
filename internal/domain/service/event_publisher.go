package service

import (
	"context"
	"time"
)

// MagicLinkEvent asks the mailer to deliver a sign-in link.
type MagicLinkEvent struct {
	RequestID string    `json:"request_id,omitempty"` // For distributed tracing
	Email     string    `json:"email"`
	URL       string    `json:"url"` // Contains the raw single-use token
	ExpiresAt time.Time `json:"expires_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishMagicLink hands the link to the delivery pipeline. An error means the
	// link will not reach the user.
	PublishMagicLink(ctx context.Context, event *MagicLinkEvent) error

	// Close releases any resources held by the publisher
	Close() error
}

// MailSender delivers magic-link emails.
type MailSender interface {
	SendMagicLink(ctx context.Context, event *MagicLinkEvent) error
}
