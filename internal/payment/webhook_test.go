package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/haraherri/LMS-System/internal/app_errors"
)

const testSecret = "whsec_test"

var completedPayload = []byte(`{
	"id": "evt_1",
	"type": "checkout.session.completed",
	"data": {"object": {"id": "cs_test_123", "metadata": {"courseId": "c1"}}}
}`)

func TestConstructEvent_ValidSignature(t *testing.T) {
	now := time.Now()
	header := SignatureHeader(completedPayload, now.Unix(), testSecret)

	event, err := ConstructEventWithTolerance(completedPayload, header, testSecret, DefaultTolerance, now)
	if err != nil {
		t.Fatalf("ConstructEvent: %v", err)
	}
	if event.Type != EventCheckoutCompleted {
		t.Errorf("type = %q, want %q", event.Type, EventCheckoutCompleted)
	}
	if event.ID != "evt_1" {
		t.Errorf("id = %q, want evt_1", event.ID)
	}
}

func TestConstructEvent_WrongSecret(t *testing.T) {
	now := time.Now()
	header := SignatureHeader(completedPayload, now.Unix(), "whsec_other")

	_, err := ConstructEventWithTolerance(completedPayload, header, testSecret, DefaultTolerance, now)
	if !errors.Is(err, app_errors.ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestConstructEvent_TamperedPayload(t *testing.T) {
	now := time.Now()
	header := SignatureHeader(completedPayload, now.Unix(), testSecret)
	tampered := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_evil"}}}`)

	_, err := ConstructEventWithTolerance(tampered, header, testSecret, DefaultTolerance, now)
	if !errors.Is(err, app_errors.ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestConstructEvent_StaleTimestamp(t *testing.T) {
	now := time.Now()
	signedAt := now.Add(-10 * time.Minute)
	header := SignatureHeader(completedPayload, signedAt.Unix(), testSecret)

	_, err := ConstructEventWithTolerance(completedPayload, header, testSecret, DefaultTolerance, now)
	if !errors.Is(err, app_errors.ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestConstructEvent_MalformedHeader(t *testing.T) {
	for _, header := range []string{"", "t=abc,v1=00", "v1=00", "t=123"} {
		_, err := ConstructEventWithTolerance(completedPayload, header, testSecret, DefaultTolerance, time.Now())
		if !errors.Is(err, app_errors.ErrInvalidSignature) {
			t.Errorf("header %q: err = %v, want ErrInvalidSignature", header, err)
		}
	}
}

func TestConstructEvent_SessionData(t *testing.T) {
	now := time.Now()
	header := SignatureHeader(completedPayload, now.Unix(), testSecret)

	event, err := ConstructEventWithTolerance(completedPayload, header, testSecret, DefaultTolerance, now)
	if err != nil {
		t.Fatalf("ConstructEvent: %v", err)
	}

	var session CheckoutSessionData
	if err := event.UnmarshalData(&session); err != nil {
		t.Fatalf("UnmarshalData: %v", err)
	}
	if session.ID != "cs_test_123" {
		t.Errorf("session id = %q, want cs_test_123", session.ID)
	}
	if session.Metadata["courseId"] != "c1" {
		t.Errorf("metadata courseId = %q, want c1", session.Metadata["courseId"])
	}
}
