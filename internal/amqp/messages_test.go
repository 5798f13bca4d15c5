package amqp

import (
	"testing"
	"time"
)

func TestRefreshRequestMessageRoundTrip(t *testing.T) {
	msg := NewRefreshRequestMessage(ReasonManual)
	if msg.RequestedAt.IsZero() {
		t.Error("RequestedAt should be set")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() unexpected error: %v", err)
	}

	got, err := RefreshRequestMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON() unexpected error: %v", err)
	}
	if got.Reason != ReasonManual {
		t.Errorf("Reason = %q, want %q", got.Reason, ReasonManual)
	}
	if !got.RequestedAt.Truncate(time.Millisecond).Equal(msg.RequestedAt.Truncate(time.Millisecond)) {
		t.Errorf("RequestedAt = %v, want %v", got.RequestedAt, msg.RequestedAt)
	}
}

func TestRefreshRequestMessageFromJSONInvalid(t *testing.T) {
	if _, err := RefreshRequestMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
