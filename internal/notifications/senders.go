package notifications

import (
	"context"
	"log/slog"
	"sync"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// LogSenders implements every channel sender by writing structured log lines.
// It stands in for real email, messaging, and push providers, which live
// behind the same ports.
type LogSenders struct {
	logger *slog.Logger
}

// NewLogSenders creates log-backed channel senders.
func NewLogSenders(logger *slog.Logger) *LogSenders {
	return &LogSenders{logger: logger.With("component", "notification_senders")}
}

// SendEmail logs an email delivery.
func (s *LogSenders) SendEmail(ctx context.Context, to, subject, body string) error {
	s.logger.InfoContext(ctx, "email sent", "to", to, "subject", subject, "body", body)
	return nil
}

// SendMessage logs a text message delivery.
func (s *LogSenders) SendMessage(ctx context.Context, phone, body string) error {
	s.logger.InfoContext(ctx, "message sent", "phone", phone, "body", body)
	return nil
}

// SendPush logs a push delivery.
func (s *LogSenders) SendPush(ctx context.Context, token, title, body string) error {
	s.logger.InfoContext(ctx, "push sent", "token", token, "title", title, "body", body)
	return nil
}

// InMemoryDirectory is a customer directory held in process memory. A real
// deployment replaces it with an adapter over the customer system of record.
type InMemoryDirectory struct {
	mu       sync.RWMutex
	contacts map[string]ports.CustomerContact
}

// NewInMemoryDirectory creates an empty in-memory customer directory.
func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{
		contacts: make(map[string]ports.CustomerContact),
	}
}

// Register stores or replaces a customer's contact record.
func (d *InMemoryDirectory) Register(contact ports.CustomerContact) error {
	if err := contact.CustomerID.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.contacts[contact.CustomerID.String()] = contact
	return nil
}

// GetContact returns the contact record for a customer, or
// errs.ErrObjectNotFound when the customer is unknown.
func (d *InMemoryDirectory) GetContact(_ context.Context, customerID kernel.UUID) (ports.CustomerContact, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	contact, ok := d.contacts[customerID.String()]
	if !ok {
		return ports.CustomerContact{}, errs.NewObjectNotFoundError("customer", customerID.String())
	}

	return contact, nil
}
