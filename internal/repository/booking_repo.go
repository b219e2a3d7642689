package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/models"
)

const bookingColumns = `id, mentee_id, mentor_id, session_type, session_date::text,
	session_time::text, duration_minutes, topic, description, total_amount, is_paid,
	status, meeting_link, onsite_address, payment_intent_id, created_at, updated_at`

type CreateBookingInput struct {
	MenteeID        int64
	MentorID        int64
	SessionType     string
	SessionDate     *string
	SessionTime     *string
	DurationMinutes int
	Topic           string
	Description     *string
	TotalAmount     decimal.Decimal
	Status          string
	IsPaid          bool
	MeetingLink     *string
	OnsiteAddress   *string
	PaymentIntentID *string
}

type BookingListFilter struct {
	ActorID int64
	Role    string
}

type BookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var booking models.Booking
	err := row.Scan(
		&booking.ID,
		&booking.MenteeID,
		&booking.MentorID,
		&booking.SessionType,
		&booking.SessionDate,
		&booking.SessionTime,
		&booking.DurationMinutes,
		&booking.Topic,
		&booking.Description,
		&booking.TotalAmount,
		&booking.IsPaid,
		&booking.Status,
		&booking.MeetingLink,
		&booking.OnsiteAddress,
		&booking.PaymentIntentID,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) Create(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	query := fmt.Sprintf(`
		INSERT INTO bookings (mentee_id, mentor_id, session_type, session_date, session_time,
			duration_minutes, topic, description, total_amount, status, is_paid,
			meeting_link, onsite_address, payment_intent_id)
		VALUES ($1, $2, $3, $4::date, $5::time, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING %s
	`, bookingColumns)

	return scanBooking(r.db.QueryRow(ctx, query,
		input.MenteeID,
		input.MentorID,
		input.SessionType,
		input.SessionDate,
		input.SessionTime,
		input.DurationMinutes,
		input.Topic,
		input.Description,
		input.TotalAmount,
		input.Status,
		input.IsPaid,
		input.MeetingLink,
		input.OnsiteAddress,
		input.PaymentIntentID,
	))
}

func (r *BookingRepository) GetByID(ctx context.Context, bookingID int64) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)
	return scanBooking(r.db.QueryRow(ctx, query, bookingID))
}

func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, bookingID int64) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1 FOR UPDATE`, bookingColumns)
	return scanBooking(r.db.QueryRow(ctx, query, bookingID))
}

// ListForActor returns every booking the actor is a party to, soonest session
// first with undated bookings last.
func (r *BookingRepository) ListForActor(ctx context.Context, filter BookingListFilter) ([]models.Booking, error) {
	actorColumn := "mentee_id"
	if filter.Role == models.RoleMentor {
		actorColumn = "mentor_id"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM bookings
		WHERE %s = $1
		ORDER BY session_date ASC NULLS LAST, session_time ASC NULLS LAST, id ASC
	`, bookingColumns, actorColumn)

	rows, err := r.db.Query(ctx, query, filter.ActorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListByStatuses returns every booking currently in one of the given statuses,
// regardless of party. Used by the scheduled reconciliation sweep.
func (r *BookingRepository) ListByStatuses(ctx context.Context, statuses []string) ([]models.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bookings
		WHERE status = ANY($1)
		ORDER BY id ASC
	`, bookingColumns)

	rows, err := r.db.Query(ctx, query, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateStatusIfCurrent applies a transition only when the stored status still
// matches what the caller read; pgx.ErrNoRows signals a lost race or an
// already-applied sweep.
func (r *BookingRepository) UpdateStatusIfCurrent(ctx context.Context, bookingID int64, currentStatus, nextStatus string) (*models.Booking, error) {
	query := fmt.Sprintf(`
		UPDATE bookings
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, bookingColumns)
	return scanBooking(r.db.QueryRow(ctx, query, bookingID, currentStatus, nextStatus))
}

func (r *BookingRepository) SetMeetingLink(ctx context.Context, bookingID int64, meetingLink string) (*models.Booking, error) {
	query := fmt.Sprintf(`
		UPDATE bookings
		SET meeting_link = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, bookingColumns)
	return scanBooking(r.db.QueryRow(ctx, query, bookingID, meetingLink))
}

// ConfirmPaid flips a booking to confirmed and records the processor intent
// that settled it.
func (r *BookingRepository) ConfirmPaid(ctx context.Context, bookingID int64, paymentIntentID string) (*models.Booking, error) {
	query := fmt.Sprintf(`
		UPDATE bookings
		SET status = $2, is_paid = TRUE, payment_intent_id = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, bookingColumns)
	return scanBooking(r.db.QueryRow(ctx, query, bookingID, models.BookingStatusConfirmed, paymentIntentID))
}
