package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/models"
)

const paymentColumns = `id, booking_id, user_id, payment_intent_id, amount, currency,
	status, created_at, updated_at`

type CreatePaymentInput struct {
	BookingID       int64
	UserID          int64
	PaymentIntentID string
	Amount          decimal.Decimal
	Currency        string
	Status          string
}

type PaymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var payment models.Payment
	err := row.Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.UserID,
		&payment.PaymentIntentID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// Create inserts one payment attempt. The unique index on payment_intent_id is
// the idempotency guard against recording the same processor transaction twice.
func (r *PaymentRepository) Create(ctx context.Context, input CreatePaymentInput) (*models.Payment, error) {
	query := fmt.Sprintf(`
		INSERT INTO payments (booking_id, user_id, payment_intent_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s
	`, paymentColumns)

	return scanPayment(r.db.QueryRow(ctx, query,
		input.BookingID,
		input.UserID,
		input.PaymentIntentID,
		input.Amount,
		input.Currency,
		input.Status,
	))
}

func (r *PaymentRepository) GetByIntentIDForUser(ctx context.Context, paymentIntentID string, userID int64) (*models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE payment_intent_id = $1 AND user_id = $2`, paymentColumns)
	return scanPayment(r.db.QueryRow(ctx, query, paymentIntentID, userID))
}

// GetByIntentIDForUpdate locks the row for the duration of the surrounding
// transaction so concurrent confirmations of the same intent serialize.
func (r *PaymentRepository) GetByIntentIDForUpdate(ctx context.Context, paymentIntentID string) (*models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE payment_intent_id = $1 FOR UPDATE`, paymentColumns)
	return scanPayment(r.db.QueryRow(ctx, query, paymentIntentID))
}

func (r *PaymentRepository) ExistsByIntentID(ctx context.Context, paymentIntentID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM payments WHERE payment_intent_id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, paymentIntentID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListByBookingIDs returns the most recent payment attempt per booking.
func (r *PaymentRepository) ListByBookingIDs(ctx context.Context, bookingIDs []int64) (map[int64]models.Payment, error) {
	payments := make(map[int64]models.Payment, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return payments, nil
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT ON (booking_id) %s
		FROM payments
		WHERE booking_id = ANY($1)
		ORDER BY booking_id, id DESC
	`, paymentColumns)

	rows, err := r.db.Query(ctx, query, bookingIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments[payment.BookingID] = *payment
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *PaymentRepository) GetLatestByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE booking_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, paymentColumns)
	return scanPayment(r.db.QueryRow(ctx, query, bookingID))
}

func (r *PaymentRepository) UpdateStatusIfCurrent(ctx context.Context, paymentID int64, currentStatus, nextStatus string) (*models.Payment, error) {
	query := fmt.Sprintf(`
		UPDATE payments
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, paymentColumns)
	return scanPayment(r.db.QueryRow(ctx, query, paymentID, currentStatus, nextStatus))
}
