package ports

import (
	"encoding/json"
)

// OptimizeDeliveriesPayload is the payload of TopicOptimizeDeliveries jobs.
// An empty Zone means every zone.
type OptimizeDeliveriesPayload struct {
	Zone string `json:"zone,omitempty"`
}

// KitchenOrderPayload is the payload of TopicKitchenOrder jobs.
type KitchenOrderPayload struct {
	OrderID string `json:"order_id"`
}

// NotificationPayload is the payload of TopicNotification jobs. One job per
// lifecycle event; the notification router fans it out per channel.
type NotificationPayload struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	Status     string `json:"status"`
	Note       string `json:"note,omitempty"`

	// Channel is empty on the fan-out job and names one of email, message,
	// or push on the per-channel sub-jobs.
	Channel string `json:"channel,omitempty"`
}

// MarshalPayload encodes a job payload as JSON.
func MarshalPayload(v any) ([]byte, error) {
	return json.Marshal(v)
}

// UnmarshalPayload decodes a job payload from JSON.
func UnmarshalPayload(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
