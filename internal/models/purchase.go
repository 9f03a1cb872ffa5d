package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PurchasePending = "Pending"
	PurchaseSuccess = "Success"
	PurchaseFailed  = "Failed"
)

// Purchase is one purchase attempt. PaymentRef is the checkout session ID
// the gateway issued; exactly one Purchase row carries a given ref. Price is
// a snapshot taken at checkout time and never changes afterwards.
type Purchase struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	CourseID   uuid.UUID `json:"course_id"`
	PriceCents int64     `json:"price_cents"`
	PaymentRef string    `json:"payment_ref"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PurchasedCourse pairs a successful purchase with its course details.
type PurchasedCourse struct {
	Purchase Purchase     `json:"purchase"`
	Course   CourseDetail `json:"course"`
}
