// Package notifications delivers order lifecycle events to customers. A
// single queue topic carries both the fan-out job emitted by command handlers
// and the per-channel sub-jobs the router derives from it, so each channel
// retries independently without blocking the others.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// Notification channels.
const (
	ChannelEmail   = "email"
	ChannelMessage = "message"
	ChannelPush    = "push"
)

// Router consumes the notification topic. Jobs without a channel are fanned
// out into one sub-job per channel the customer has enabled; jobs with a
// channel are delivered through the matching sender.
type Router struct {
	directory ports.CustomerDirectory
	email     ports.EmailSender
	message   ports.MessageSender
	push      ports.PushSender
	queue     ports.JobQueue
	logger    *slog.Logger
}

// NewRouter creates a notification router.
func NewRouter(
	directory ports.CustomerDirectory,
	email ports.EmailSender,
	message ports.MessageSender,
	push ports.PushSender,
	queue ports.JobQueue,
	logger *slog.Logger,
) *Router {
	return &Router{
		directory: directory,
		email:     email,
		message:   message,
		push:      push,
		queue:     queue,
		logger:    logger.With("component", "notifications"),
	}
}

// Register subscribes the router to the notification topic.
func (r *Router) Register() error {
	return r.queue.Subscribe(ports.TopicNotification, r.Handle)
}

// Handle processes one notification job. Fan-out jobs enqueue per-channel
// sub-jobs; channel jobs deliver through the matching sender. Unknown
// customers are dropped with a log line since retrying cannot resolve them.
func (r *Router) Handle(ctx context.Context, job ports.Job) error {
	var payload ports.NotificationPayload
	if err := ports.UnmarshalPayload(job.Payload, &payload); err != nil {
		r.logger.ErrorContext(ctx, "dropping malformed notification payload",
			"job_id", job.ID, "payload", string(job.Payload), "error", err)
		return nil
	}

	customerID, err := kernel.UUIDFromString(payload.CustomerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "dropping notification with invalid customer id",
			"job_id", job.ID, "customer_id", payload.CustomerID, "error", err)
		return nil
	}

	contact, err := r.directory.GetContact(ctx, customerID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			r.logger.WarnContext(ctx, "dropping notification for unknown customer",
				"job_id", job.ID, "customer_id", payload.CustomerID)
			return nil
		}
		return fmt.Errorf("failed to resolve customer contact: %w", err)
	}

	if payload.Channel == "" {
		return r.fanOut(ctx, payload, contact)
	}

	return r.deliver(ctx, payload, contact)
}

// fanOut enqueues one sub-job per channel the contact has enabled.
func (r *Router) fanOut(ctx context.Context, payload ports.NotificationPayload, contact ports.CustomerContact) error {
	channels := make([]string, 0, 3)
	if contact.Email != "" {
		channels = append(channels, ChannelEmail)
	}
	if contact.MessagingOptIn && contact.Phone != "" {
		channels = append(channels, ChannelMessage)
	}
	if contact.PushToken != "" {
		channels = append(channels, ChannelPush)
	}

	for _, channel := range channels {
		sub := payload
		sub.Channel = channel

		body, err := ports.MarshalPayload(sub)
		if err != nil {
			return fmt.Errorf("failed to marshal channel notification: %w", err)
		}

		if err = r.queue.Enqueue(ctx, ports.TopicNotification, body); err != nil {
			return fmt.Errorf("failed to enqueue %s notification: %w", channel, err)
		}
	}

	r.logger.InfoContext(ctx, "notification fanned out",
		"order_id", payload.OrderID, "status", payload.Status, "channels", channels)
	return nil
}

// deliver sends one per-channel sub-job through the matching sender.
func (r *Router) deliver(ctx context.Context, payload ports.NotificationPayload, contact ports.CustomerContact) error {
	subject, body := composeMessage(payload)

	switch payload.Channel {
	case ChannelEmail:
		return r.email.SendEmail(ctx, contact.Email, subject, body)
	case ChannelMessage:
		return r.message.SendMessage(ctx, contact.Phone, body)
	case ChannelPush:
		return r.push.SendPush(ctx, contact.PushToken, subject, body)
	default:
		r.logger.ErrorContext(ctx, "dropping notification for unknown channel",
			"order_id", payload.OrderID, "channel", payload.Channel)
		return nil
	}
}

// composeMessage renders the customer-facing text for a lifecycle event.
func composeMessage(payload ports.NotificationPayload) (subject, body string) {
	subject = fmt.Sprintf("Your order is %s", payload.Status)
	body = fmt.Sprintf("Order %s is now %s.", payload.OrderID, payload.Status)
	if payload.Note != "" {
		body = fmt.Sprintf("%s %s", body, payload.Note)
	}
	return subject, body
}
