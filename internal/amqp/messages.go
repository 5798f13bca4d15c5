package amqp

import (
	"encoding/json"
	"time"
)

// Reasons a refresh can be requested.
const (
	ReasonManual    = "manual"    // POST /api/refresh
	ReasonScheduled = "scheduled" // worker cron
	ReasonStartup   = "startup"   // worker catch-up at boot
)

// RefreshRequestMessage asks the worker to re-fetch earnings from the
// source. It is intentionally small: the worker decides the date window
// itself from its own bookkeeping.
type RefreshRequestMessage struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewRefreshRequestMessage(reason string) *RefreshRequestMessage {
	return &RefreshRequestMessage{
		Reason:      reason,
		RequestedAt: time.Now(),
	}
}

func (m *RefreshRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RefreshRequestMessageFromJSON(data []byte) (*RefreshRequestMessage, error) {
	var msg RefreshRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
