package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haraherri/LMS-System/internal/app_errors"
	"github.com/haraherri/LMS-System/internal/models"
)

type PurchasePostgres struct {
	db *pgxpool.Pool
}

func NewPurchasePostgres(db *pgxpool.Pool) *PurchasePostgres {
	return &PurchasePostgres{db: db}
}

const purchaseColumns = `id, user_id, course_id, price_cents, payment_ref, status, created_at, updated_at`

func scanPurchase(row pgx.Row) (*models.Purchase, error) {
	var p models.Purchase
	err := row.Scan(&p.ID, &p.UserID, &p.CourseID, &p.PriceCents, &p.PaymentRef,
		&p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrPurchaseNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreatePurchase inserts a new Pending purchase attempt. Repeated checkouts
// for the same (user, course) pair before payment completes each get their
// own row; only the one the webhook names by payment_ref is ever activated.
func (r *PurchasePostgres) CreatePurchase(ctx context.Context, purchase models.Purchase) (*models.Purchase, error) {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	now := time.Now().UTC()
	purchase.CreatedAt = now
	purchase.UpdatedAt = now
	if purchase.Status == "" {
		purchase.Status = models.PurchasePending
	}

	query := `
		INSERT INTO purchases (id, user_id, course_id, price_cents, payment_ref, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		purchase.ID, purchase.UserID, purchase.CourseID, purchase.PriceCents,
		purchase.PaymentRef, purchase.Status, purchase.CreatedAt, purchase.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}
	return &purchase, nil
}

func (r *PurchasePostgres) PurchaseByPaymentRef(ctx context.Context, paymentRef string) (*models.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE payment_ref = $1`
	return scanPurchase(r.db.QueryRow(ctx, query, paymentRef))
}

// TransitionStatus moves a purchase out of Pending. The WHERE clause makes
// the transition idempotent under duplicate webhook delivery: re-applying the
// same event matches zero rows and the current row keeps its terminal status.
// Returns whether a row actually changed.
func (r *PurchasePostgres) TransitionStatus(ctx context.Context, id uuid.UUID, status string) (bool, error) {
	if status != models.PurchaseSuccess && status != models.PurchaseFailed {
		return false, fmt.Errorf("invalid purchase status transition target %q", status)
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE purchases SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		status, time.Now().UTC(), id, models.PurchasePending)
	if err != nil {
		return false, fmt.Errorf("failed to transition purchase status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SuccessfulPurchase returns the authoritative purchase for a (user, course)
// pair: the one that reached Success. Pending and Failed attempts are not
// access grants and are ignored here.
func (r *PurchasePostgres) SuccessfulPurchase(ctx context.Context, userID, courseID uuid.UUID) (*models.Purchase, error) {
	query := `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE user_id = $1 AND course_id = $2 AND status = $3
		ORDER BY updated_at DESC
		LIMIT 1
	`
	return scanPurchase(r.db.QueryRow(ctx, query, userID, courseID, models.PurchaseSuccess))
}

func (r *PurchasePostgres) ListSuccessfulByUser(ctx context.Context, userID uuid.UUID) ([]models.Purchase, error) {
	query := `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE user_id = $1 AND status = $2
		ORDER BY updated_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID, models.PurchaseSuccess)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchased courses: %w", err)
	}
	defer rows.Close()

	var purchases []models.Purchase
	for rows.Next() {
		var p models.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.CourseID, &p.PriceCents, &p.PaymentRef,
			&p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// RevenueByCreator aggregates successful sales per course for all courses the
// creator owns.
func (r *PurchasePostgres) RevenueByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.CourseRevenue, error) {
	query := `
		SELECT c.id, c.title, COUNT(p.id), COALESCE(SUM(p.price_cents), 0)
		FROM courses c
		LEFT JOIN purchases p ON p.course_id = c.id AND p.status = $1
		WHERE c.creator_id = $2
		GROUP BY c.id, c.title
		ORDER BY c.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, models.PurchaseSuccess, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue: %w", err)
	}
	defer rows.Close()

	var revenue []models.CourseRevenue
	for rows.Next() {
		var cr models.CourseRevenue
		if err := rows.Scan(&cr.CourseID, &cr.Title, &cr.SalesCount, &cr.RevenueCents); err != nil {
			return nil, err
		}
		revenue = append(revenue, cr)
	}
	return revenue, rows.Err()
}
