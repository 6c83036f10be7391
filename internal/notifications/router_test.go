package notifications_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQueue struct {
	payloads []ports.NotificationPayload
	err      error
}

func (q *recordingQueue) Enqueue(_ context.Context, topic string, payload []byte) error {
	if q.err != nil {
		return q.err
	}
	if topic != ports.TopicNotification {
		return errors.New("unexpected topic")
	}

	var decoded ports.NotificationPayload
	if err := ports.UnmarshalPayload(payload, &decoded); err != nil {
		return err
	}
	q.payloads = append(q.payloads, decoded)
	return nil
}

func (q *recordingQueue) Subscribe(string, ports.JobHandler) error { return nil }
func (q *recordingQueue) Close() error                             { return nil }

func (q *recordingQueue) channels() []string {
	out := make([]string, 0, len(q.payloads))
	for _, p := range q.payloads {
		out = append(out, p.Channel)
	}
	return out
}

type recordingSenders struct {
	emails   []string
	messages []string
	pushes   []string
	bodies   []string
	err      error
}

func (s *recordingSenders) SendEmail(_ context.Context, to, _, body string) error {
	if s.err != nil {
		return s.err
	}
	s.emails = append(s.emails, to)
	s.bodies = append(s.bodies, body)
	return nil
}

func (s *recordingSenders) SendMessage(_ context.Context, phone, body string) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, phone)
	s.bodies = append(s.bodies, body)
	return nil
}

func (s *recordingSenders) SendPush(_ context.Context, token, _, body string) error {
	if s.err != nil {
		return s.err
	}
	s.pushes = append(s.pushes, token)
	s.bodies = append(s.bodies, body)
	return nil
}

type routerFixture struct {
	router    *notifications.Router
	queue     *recordingQueue
	senders   *recordingSenders
	directory *notifications.InMemoryDirectory
	contact   ports.CustomerContact
}

func newRouterFixture(t *testing.T, contact ports.CustomerContact) routerFixture {
	t.Helper()

	queue := &recordingQueue{}
	senders := &recordingSenders{}
	directory := notifications.NewInMemoryDirectory()
	require.NoError(t, directory.Register(contact))

	router := notifications.NewRouter(
		directory, senders, senders, senders, queue, slog.New(slog.DiscardHandler))

	return routerFixture{
		router:    router,
		queue:     queue,
		senders:   senders,
		directory: directory,
		contact:   contact,
	}
}

func fullContact() ports.CustomerContact {
	return ports.CustomerContact{
		CustomerID:     kernel.NewUUID(),
		Email:          "ada@example.com",
		Phone:          "+4915123456789",
		MessagingOptIn: true,
		PushToken:      "device-token-1",
	}
}

func notificationJob(t *testing.T, payload ports.NotificationPayload) ports.Job {
	t.Helper()

	body, err := ports.MarshalPayload(payload)
	require.NoError(t, err)

	return ports.Job{ID: "job-1", Topic: ports.TopicNotification, Payload: body, Attempt: 1}
}

func TestRouter_FanOut(t *testing.T) {
	t.Run("should enqueue one sub-job per enabled channel", func(t *testing.T) {
		fixture := newRouterFixture(t, fullContact())

		job := notificationJob(t, ports.NotificationPayload{
			OrderID:    kernel.NewUUID().String(),
			CustomerID: fixture.contact.CustomerID.String(),
			Status:     "confirmed",
		})

		require.NoError(t, fixture.router.Handle(context.Background(), job))

		assert.Equal(t, []string{
			notifications.ChannelEmail,
			notifications.ChannelMessage,
			notifications.ChannelPush,
		}, fixture.queue.channels())
		assert.Empty(t, fixture.senders.emails, "fan-out must not deliver directly")
	})

	t.Run("should fan out to email only without opt-in and device token", func(t *testing.T) {
		contact := fullContact()
		contact.MessagingOptIn = false
		contact.PushToken = ""
		fixture := newRouterFixture(t, contact)

		job := notificationJob(t, ports.NotificationPayload{
			OrderID:    kernel.NewUUID().String(),
			CustomerID: contact.CustomerID.String(),
			Status:     "ready",
		})

		require.NoError(t, fixture.router.Handle(context.Background(), job))

		assert.Equal(t, []string{notifications.ChannelEmail}, fixture.queue.channels())
	})

	t.Run("should drop notifications for unknown customers", func(t *testing.T) {
		fixture := newRouterFixture(t, fullContact())

		job := notificationJob(t, ports.NotificationPayload{
			OrderID:    kernel.NewUUID().String(),
			CustomerID: kernel.NewUUID().String(),
			Status:     "confirmed",
		})

		require.NoError(t, fixture.router.Handle(context.Background(), job))

		assert.Empty(t, fixture.queue.payloads)
	})

	t.Run("should drop malformed payloads instead of retrying them", func(t *testing.T) {
		fixture := newRouterFixture(t, fullContact())

		job := ports.Job{ID: "job-1", Topic: ports.TopicNotification, Payload: []byte("{not json"), Attempt: 1}

		require.NoError(t, fixture.router.Handle(context.Background(), job))
		assert.Empty(t, fixture.queue.payloads)
	})

	t.Run("should surface enqueue failures for retry", func(t *testing.T) {
		fixture := newRouterFixture(t, fullContact())
		fixture.queue.err = errors.New("broker unavailable")

		job := notificationJob(t, ports.NotificationPayload{
			OrderID:    kernel.NewUUID().String(),
			CustomerID: fixture.contact.CustomerID.String(),
			Status:     "confirmed",
		})

		require.Error(t, fixture.router.Handle(context.Background(), job))
	})
}

func TestRouter_Deliver(t *testing.T) {
	t.Run("should send the email channel through the email sender", func(t *testing.T) {
		fixture := newRouterFixture(t, fullContact())
		orderID := kernel.NewUUID().String()

		job := notificationJob(t, ports.NotificationPayload{
			OrderID:    orderID,
			CustomerID: fixture.contact.CustomerID.String(),
			Status:     "delivering",
			Note:       "Driver is on the way.",
			Channel:    notifications.ChannelEmail,
		})

		require.NoError(t, fixture.router.Handle(context.Background(), job))

		require.Equal(t, []string{"ada@example.com"}, fixture.senders.emails)
		assert.Contains(t, fixture.senders.bodies[0], orderID)
		assert.Contains(t, fixture.senders.bodies[0], "delivering")
		assert.Contains(t, fixture.senders.bodies[0], "Driver is on the way.")
		assert.Empty(t, fixture.queue.payloads, "channel jobs must not fan out again")
	})

	t.Run("should send the message channel to the customer's phone", func(t *testing.T) {
		fixture := newRouterFixture(t, fullContact())

		job := notificationJob(t, ports.NotificationPayload{
			OrderID:    kernel.NewUUID().String(),
			CustomerID: fixture.contact.CustomerID.String(),
			Status:     "delivered",
			Channel:    notifications.ChannelMessage,
		})

		require.NoError(t, fixture.router.Handle(context.Background(), job))
		assert.Equal(t, []string{"+4915123456789"}, fixture.senders.messages)
	})

	t.Run("should send the push channel to the registered device", func(t *testing.T) {
		fixture := newRouterFixture(t, fullContact())

		job := notificationJob(t, ports.NotificationPayload{
			OrderID:    kernel.NewUUID().String(),
			CustomerID: fixture.contact.CustomerID.String(),
			Status:     "cancelled",
			Channel:    notifications.ChannelPush,
		})

		require.NoError(t, fixture.router.Handle(context.Background(), job))
		assert.Equal(t, []string{"device-token-1"}, fixture.senders.pushes)
	})

	t.Run("should surface sender failures for retry", func(t *testing.T) {
		fixture := newRouterFixture(t, fullContact())
		fixture.senders.err = errors.New("smtp unavailable")

		job := notificationJob(t, ports.NotificationPayload{
			OrderID:    kernel.NewUUID().String(),
			CustomerID: fixture.contact.CustomerID.String(),
			Status:     "confirmed",
			Channel:    notifications.ChannelEmail,
		})

		require.Error(t, fixture.router.Handle(context.Background(), job))
	})

	t.Run("should drop unknown channels", func(t *testing.T) {
		fixture := newRouterFixture(t, fullContact())

		job := notificationJob(t, ports.NotificationPayload{
			OrderID:    kernel.NewUUID().String(),
			CustomerID: fixture.contact.CustomerID.String(),
			Status:     "confirmed",
			Channel:    "fax",
		})

		require.NoError(t, fixture.router.Handle(context.Background(), job))
	})
}

func TestInMemoryDirectory(t *testing.T) {
	t.Run("should return registered contacts", func(t *testing.T) {
		directory := notifications.NewInMemoryDirectory()
		contact := fullContact()
		require.NoError(t, directory.Register(contact))

		found, err := directory.GetContact(context.Background(), contact.CustomerID)

		require.NoError(t, err)
		assert.Equal(t, contact, found)
	})

	t.Run("should reject contacts without a customer id", func(t *testing.T) {
		directory := notifications.NewInMemoryDirectory()

		require.Error(t, directory.Register(ports.CustomerContact{Email: "a@b.c"}))
	})
}
