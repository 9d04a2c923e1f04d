package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	PaymentCompleted   = "payment.completed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

func NewEnvelope(producer, eventType, correlationID string, payload interface{}) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Payload:       b,
	}, nil
}

// ---- payloads ----

type OrderCreatedPayload struct {
	OrderID       uint64 `json:"order_id"`
	UserID        uint64 `json:"user_id"`
	ProductID     uint64 `json:"product_id"`
	PackageType   string `json:"package_type"`
	TotalAmount   string `json:"total_amount"`
	TransactionID string `json:"transaction_id"`
}

type OrderStatusChangedPayload struct {
	OrderID  uint64 `json:"order_id"`
	From     string `json:"from"`
	To       string `json:"to"`
	ActorID  uint64 `json:"actor_id"`
	Progress int    `json:"progress"`
}

type PaymentCompletedPayload struct {
	PaymentID     uint64 `json:"payment_id"`
	OrderID       uint64 `json:"order_id"`
	UserID        uint64 `json:"user_id"`
	Method        string `json:"method"`
	TotalAmount   string `json:"total_amount"`
	TransactionID string `json:"transaction_id"`
}
