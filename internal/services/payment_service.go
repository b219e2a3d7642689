package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/metrics"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/models"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/repository"
)

var (
	ErrPaymentNotSucceeded = errors.New("payment has not succeeded")
	ErrIntentConsumed      = errors.New("payment intent already processed")
	ErrIntentNotFound      = errors.New("payment intent not found")
	ErrPaymentProvider     = errors.New("payment processor error")
)

const defaultCurrency = "usd"

type PaymentService struct {
	db          *pgxpool.Pool
	bookings    *BookingService
	bookingRepo *repository.BookingRepository
	paymentRepo *repository.PaymentRepository
	provider    PaymentProvider
	notifier    Notifier
	logger      zerolog.Logger
}

func NewPaymentService(
	db *pgxpool.Pool,
	bookings *BookingService,
	bookingRepo *repository.BookingRepository,
	paymentRepo *repository.PaymentRepository,
	provider PaymentProvider,
	notifier Notifier,
	logger zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		db:          db,
		bookings:    bookings,
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		provider:    provider,
		notifier:    notifier,
		logger:      logger,
	}
}

type PaymentIntentResult struct {
	PaymentIntentID string          `json:"payment_intent_id"`
	ClientSecret    string          `json:"client_secret"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
}

// CreatePaymentIntent starts the pay-after-booking flow: the booking already
// exists and the mentee opens a processor intent for its total.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, menteeID int64, bookingID int64) (*PaymentIntentResult, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.MenteeID != menteeID {
		return nil, fmt.Errorf("%w: you can only pay for your own bookings", ErrForbidden)
	}
	if booking.IsPaid {
		return nil, fmt.Errorf("%w: booking is already paid", ErrInvalidInput)
	}
	if booking.Status == models.BookingStatusCancelled || booking.Status == models.BookingStatusCompleted {
		return nil, fmt.Errorf("%w: booking is no longer payable", ErrInvalidInput)
	}

	intent, err := s.provider.CreateIntent(ctx, booking.TotalAmount, defaultCurrency, map[string]string{
		"booking_id": strconv.FormatInt(booking.ID, 10),
		"mentee_id":  strconv.FormatInt(booking.MenteeID, 10),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPaymentProvider, err)
	}

	_, err = s.paymentRepo.Create(ctx, repository.CreatePaymentInput{
		BookingID:       booking.ID,
		UserID:          menteeID,
		PaymentIntentID: intent.ID,
		Amount:          booking.TotalAmount,
		Currency:        intent.Currency,
		Status:          models.PaymentStatusPending,
	})
	if err != nil {
		return nil, err
	}

	return &PaymentIntentResult{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          booking.TotalAmount,
		Currency:        intent.Currency,
	}, nil
}

// ConfirmPayment settles a pay-after-booking intent. The processor is the
// source of truth: the intent must have succeeded before anything is written.
func (s *PaymentService) ConfirmPayment(ctx context.Context, menteeID int64, paymentIntentID string) (*models.Payment, error) {
	intent, err := s.retrieveIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != intentStatusSucceeded {
		return nil, fmt.Errorf("%w: intent status is %s", ErrPaymentNotSucceeded, intent.Status)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	txPayments := repository.NewPaymentRepository(tx)
	txBookings := repository.NewBookingRepository(tx)

	// Lock the payment row so two confirmations of the same intent serialize
	// instead of both observing pending.
	payment, err := txPayments.GetByIntentIDForUpdate(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != menteeID {
		return nil, pgx.ErrNoRows
	}
	if payment.Status == models.PaymentStatusCompleted {
		return payment, nil
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, fmt.Errorf("%w: payment is %s", ErrIntentConsumed, payment.Status)
	}

	completed, err := txPayments.UpdateStatusIfCurrent(ctx, payment.ID, models.PaymentStatusPending, models.PaymentStatusCompleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIntentConsumed
		}
		return nil, err
	}

	// Lock the booking row too; a concurrent decline or cancel must not
	// interleave with the paid confirmation.
	booking, err := txBookings.GetByIDForUpdate(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}

	booking, err = txBookings.ConfirmPaid(ctx, booking.ID, paymentIntentID)
	if err != nil {
		return nil, err
	}
	if booking.SessionType == models.SessionTypeVideoCall && booking.MeetingLink == nil {
		booking, err = txBookings.SetMeetingLink(ctx, booking.ID, meetingLinkFor(booking.ID))
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.IncPaymentConfirmed()
	metrics.IncTransition(models.BookingStatusConfirmed)
	s.notifier.NotifyMenteeConfirmed(ctx, booking)
	s.notifier.NotifyStatusUpdate(ctx, booking, notifyAccepted)

	return completed, nil
}

// CreateBookingWithPayment starts the payment-first flow. Nothing is written
// to the database: the booking request rides along as intent metadata and is
// materialized only once the payment succeeds.
func (s *PaymentService) CreateBookingWithPayment(ctx context.Context, menteeID int64, input CreateBookingInput) (*PaymentIntentResult, error) {
	normalized, totalAmount, err := s.bookings.normalizeAndPrice(ctx, menteeID, input)
	if err != nil {
		return nil, err
	}

	intent, err := s.provider.CreateIntent(ctx, totalAmount, defaultCurrency, encodeBookingMetadata(menteeID, normalized))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPaymentProvider, err)
	}

	return &PaymentIntentResult{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          totalAmount,
		Currency:        intent.Currency,
	}, nil
}

// ConfirmBookingPayment completes the payment-first flow: verify the intent
// succeeded, decode the booking request from its metadata and materialize the
// booking and its payment atomically. An intent id can be consumed once.
func (s *PaymentService) ConfirmBookingPayment(ctx context.Context, menteeID int64, paymentIntentID string) (*models.BookingDetail, error) {
	intent, err := s.retrieveIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != intentStatusSucceeded {
		return nil, fmt.Errorf("%w: intent status is %s", ErrPaymentNotSucceeded, intent.Status)
	}

	ownerID, input, err := decodeBookingMetadata(intent.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if ownerID != menteeID {
		return nil, fmt.Errorf("%w: payment intent belongs to another user", ErrForbidden)
	}

	consumed, err := s.paymentRepo.ExistsByIntentID(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}
	if consumed {
		return nil, ErrIntentConsumed
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	txBookings := repository.NewBookingRepository(tx)
	txPayments := repository.NewPaymentRepository(tx)

	booking, err := s.bookings.insertBooking(ctx, txBookings, menteeID, input, models.BookingStatusConfirmed, true, &paymentIntentID)
	if err != nil {
		return nil, err
	}

	payment, err := txPayments.Create(ctx, repository.CreatePaymentInput{
		BookingID:       booking.ID,
		UserID:          menteeID,
		PaymentIntentID: paymentIntentID,
		Amount:          booking.TotalAmount,
		Currency:        intent.Currency,
		Status:          models.PaymentStatusCompleted,
	})
	if err != nil {
		// The unique index on payment_intent_id is the atomic guard: a racing
		// confirmation that won between the ExistsByIntentID check and this
		// insert surfaces here as a duplicate key.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrIntentConsumed
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.IncBookingCreated()
	metrics.IncPaymentConfirmed()
	s.notifier.NotifyMentorNewRequest(ctx, booking)
	s.notifier.NotifyMenteeConfirmed(ctx, booking)

	return &models.BookingDetail{Booking: *booking, Payment: payment}, nil
}

// PaymentStatus reports where a payment attempt stands, scoped to its owner.
func (s *PaymentService) PaymentStatus(ctx context.Context, userID int64, paymentIntentID string) (*models.Payment, error) {
	return s.paymentRepo.GetByIntentIDForUser(ctx, paymentIntentID, userID)
}

// retrieveIntent keeps the processor's failure modes distinct: an unknown
// intent id stays a lookup miss, anything else is a processor fault surfaced
// with its message.
func (s *PaymentService) retrieveIntent(ctx context.Context, paymentIntentID string) (*Intent, error) {
	intent, err := s.provider.RetrieveIntent(ctx, paymentIntentID)
	if err != nil {
		if errors.Is(err, ErrIntentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrPaymentProvider, err)
	}
	return intent, nil
}

func encodeBookingMetadata(menteeID int64, input CreateBookingInput) map[string]string {
	metadata := map[string]string{
		"mentee_id":        strconv.FormatInt(menteeID, 10),
		"mentor_id":        strconv.FormatInt(input.MentorID, 10),
		"session_type":     input.SessionType,
		"duration_minutes": strconv.Itoa(input.DurationMinutes),
		"topic":            input.Topic,
	}
	if input.SessionDate != nil {
		metadata["session_date"] = *input.SessionDate
	}
	if input.SessionTime != nil {
		metadata["session_time"] = *input.SessionTime
	}
	if input.Description != nil {
		metadata["description"] = *input.Description
	}
	if input.OnsiteAddress != nil {
		metadata["onsite_address"] = *input.OnsiteAddress
	}
	return metadata
}

func decodeBookingMetadata(metadata map[string]string) (int64, CreateBookingInput, error) {
	var input CreateBookingInput

	menteeID, err := strconv.ParseInt(metadata["mentee_id"], 10, 64)
	if err != nil {
		return 0, input, errors.New("metadata is missing mentee_id")
	}
	input.MentorID, err = strconv.ParseInt(metadata["mentor_id"], 10, 64)
	if err != nil {
		return 0, input, errors.New("metadata is missing mentor_id")
	}
	input.SessionType = metadata["session_type"]
	input.Topic = metadata["topic"]
	if raw, ok := metadata["duration_minutes"]; ok {
		input.DurationMinutes, err = strconv.Atoi(raw)
		if err != nil {
			return 0, input, errors.New("metadata has a malformed duration_minutes")
		}
	}
	if value, ok := metadata["session_date"]; ok {
		input.SessionDate = &value
	}
	if value, ok := metadata["session_time"]; ok {
		input.SessionTime = &value
	}
	if value, ok := metadata["description"]; ok {
		input.Description = &value
	}
	if value, ok := metadata["onsite_address"]; ok {
		input.OnsiteAddress = &value
	}
	return menteeID, input, nil
}
