package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
)

// CustomerContact is the reachable surface of a customer: where lifecycle
// notifications can be delivered and which optional channels are enabled.
type CustomerContact struct {
	CustomerID     kernel.UUID
	Email          string
	Phone          string
	MessagingOptIn bool
	PushToken      string
}

// CustomerDirectory resolves customer ids to contact details.
type CustomerDirectory interface {
	// GetContact returns the contact record for a customer, or
	// errs.ErrObjectNotFound when the customer is unknown.
	GetContact(ctx context.Context, customerID kernel.UUID) (CustomerContact, error)
}

// EmailSender delivers a notification over email. Email is sent for every
// lifecycle event.
type EmailSender interface {
	SendEmail(ctx context.Context, to string, subject string, body string) error
}

// MessageSender delivers a short text notification. Used only for customers
// who opted in to messaging.
type MessageSender interface {
	SendMessage(ctx context.Context, phone string, body string) error
}

// PushSender delivers a push notification to a registered device token.
type PushSender interface {
	SendPush(ctx context.Context, token string, title string, body string) error
}
