// Package payment integrates the external checkout provider: session
// creation over its REST API and verification of the asynchronous
// confirmation events it delivers by webhook.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

// Session is a created checkout session. ID is the opaque reference the
// provider echoes back in webhook events; URL is where the buyer is sent.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CheckoutParams describes one single-course checkout.
type CheckoutParams struct {
	CourseID     string
	Title        string
	Description  string
	ThumbnailURL string
	AmountCents  int64
	Currency     string
	SuccessURL   string
	CancelURL    string
}

type Client struct {
	apiBase    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(apiBase, secretKey string) *Client {
	return &Client{
		apiBase:    strings.TrimRight(apiBase, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateCheckoutSession creates a one-time payment session for a single
// course. The course ID travels in the session metadata so webhook payloads
// stay self-describing even though the purchase row is keyed by session ID.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*Session, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", p.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(p.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", p.Title)
	if p.Description != "" {
		form.Set("line_items[0][price_data][product_data][description]", p.Description)
	}
	if p.ThumbnailURL != "" {
		form.Set("line_items[0][price_data][product_data][images][0]", p.ThumbnailURL)
	}
	form.Set("metadata[courseId]", p.CourseID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBase+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checkout session request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("checkout session creation failed: status %d: %s", resp.StatusCode, body)
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	if session.ID == "" || session.URL == "" {
		return nil, fmt.Errorf("checkout session response missing id or url")
	}
	return &session, nil
}
