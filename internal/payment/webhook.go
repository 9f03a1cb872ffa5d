package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/haraherri/LMS-System/internal/app_errors"
)

// DefaultTolerance bounds how old a signed event may be before it is
// rejected as a possible replay.
const DefaultTolerance = 5 * time.Minute

// Event is a provider webhook event. Data holds the raw inner object so
// callers decode only the event types they act on.
type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"-"`
}

// CheckoutSessionData is the inner object of checkout.session.* events.
type CheckoutSessionData struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

// UnmarshalData decodes the event's inner object into v.
func (e Event) UnmarshalData(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no data object", e.ID)
	}
	return json.Unmarshal(e.Data, v)
}

type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ConstructEvent verifies the signature header against the shared secret and
// parses the payload. The header carries a unix timestamp and one or more
// HMAC-SHA256 signatures over "<timestamp>.<payload>":
//
//	t=1699000000,v1=5257a869e7...
//
// Any signature mismatch, a missing header element, or a timestamp outside
// the tolerance window yields app_errors.ErrInvalidSignature; state must not
// be mutated for such deliveries.
func ConstructEvent(payload []byte, sigHeader, secret string) (Event, error) {
	return ConstructEventWithTolerance(payload, sigHeader, secret, DefaultTolerance, time.Now())
}

func ConstructEventWithTolerance(payload []byte, sigHeader, secret string, tolerance time.Duration, now time.Time) (Event, error) {
	timestamp, signatures, err := parseSigHeader(sigHeader)
	if err != nil {
		return Event{}, app_errors.ErrInvalidSignature
	}

	if now.Sub(time.Unix(timestamp, 0)) > tolerance {
		return Event{}, app_errors.ErrInvalidSignature
	}

	expected := Sign(payload, timestamp, secret)
	ok := false
	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			ok = true
			break
		}
	}
	if !ok {
		return Event{}, app_errors.ErrInvalidSignature
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return Event{}, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	return Event{ID: envelope.ID, Type: envelope.Type, Data: envelope.Data.Object}, nil
}

// Sign computes the raw HMAC-SHA256 of "<timestamp>.<payload>".
func Sign(payload []byte, timestamp int64, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignatureHeader renders a header value the way the provider does. Used by
// tests and by local tooling that replays captured events.
func SignatureHeader(payload []byte, timestamp int64, secret string) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(Sign(payload, timestamp, secret)))
}

func parseSigHeader(header string) (timestamp int64, signatures []string, err error) {
	if header == "" {
		return 0, nil, fmt.Errorf("empty signature header")
	}
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return 0, nil, fmt.Errorf("malformed signature header element %q", part)
		}
		switch k {
		case "t":
			timestamp, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("malformed timestamp: %w", err)
			}
		case "v1":
			signatures = append(signatures, v)
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return 0, nil, fmt.Errorf("signature header missing timestamp or signature")
	}
	return timestamp, signatures, nil
}
