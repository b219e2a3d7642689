package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/models"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/repository"
)

func TestConfirmPaymentCompletesOnceAndConfirmsBooking(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	bookings := newIntegrationBookingService(pool)

	menteeID := createTestAccount(t, ctx, pool, models.RoleMentee, 0)
	mentorID := createTestAccount(t, ctx, pool, models.RoleMentor, 100)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, menteeID, mentorID) })

	detail, err := bookings.CreateBooking(ctx, menteeID, CreateBookingInput{
		MentorID:    mentorID,
		SessionType: models.SessionTypeVideoCall,
		Topic:       "Mock interview",
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	intentID := fmt.Sprintf("pi_confirm_%d", time.Now().UnixNano())
	provider := &fakeProvider{retrieve: &Intent{ID: intentID, Status: intentStatusSucceeded, Currency: "usd"}}
	payments := NewPaymentService(
		pool,
		bookings,
		repository.NewBookingRepository(pool),
		repository.NewPaymentRepository(pool),
		provider,
		&fakeNotifier{},
		zerolog.Nop(),
	)

	if _, err := repository.NewPaymentRepository(pool).Create(ctx, repository.CreatePaymentInput{
		BookingID:       detail.ID,
		UserID:          menteeID,
		PaymentIntentID: intentID,
		Amount:          detail.TotalAmount,
		Currency:        "usd",
		Status:          models.PaymentStatusPending,
	}); err != nil {
		t.Fatalf("Create payment: %v", err)
	}

	completed, err := payments.ConfirmPayment(ctx, menteeID, intentID)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if completed.Status != models.PaymentStatusCompleted {
		t.Fatalf("expected completed payment, got %q", completed.Status)
	}

	again, err := payments.ConfirmPayment(ctx, menteeID, intentID)
	if err != nil {
		t.Fatalf("second ConfirmPayment: %v", err)
	}
	if again.Status != models.PaymentStatusCompleted {
		t.Fatalf("expected second confirm to report the completed payment, got %q", again.Status)
	}

	booking, err := repository.NewBookingRepository(pool).GetByID(ctx, detail.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if booking.Status != models.BookingStatusConfirmed || !booking.IsPaid {
		t.Fatalf("expected paid confirmed booking, got status=%q is_paid=%v", booking.Status, booking.IsPaid)
	}
	if booking.PaymentIntentID == nil || *booking.PaymentIntentID != intentID {
		t.Fatalf("expected stored intent id %q, got %v", intentID, booking.PaymentIntentID)
	}
}

func TestConfirmBookingPaymentConsumesIntentOnce(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	bookings := newIntegrationBookingService(pool)

	menteeID := createTestAccount(t, ctx, pool, models.RoleMentee, 0)
	mentorID := createTestAccount(t, ctx, pool, models.RoleMentor, 80)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, menteeID, mentorID) })

	input := CreateBookingInput{
		MentorID:        mentorID,
		SessionType:     models.SessionTypeOther,
		DurationMinutes: 60,
		Topic:           "Portfolio feedback",
	}
	intentID := fmt.Sprintf("pi_first_%d", time.Now().UnixNano())
	provider := &fakeProvider{retrieve: &Intent{
		ID:       intentID,
		Status:   intentStatusSucceeded,
		Currency: "usd",
		Metadata: encodeBookingMetadata(menteeID, input),
	}}
	payments := NewPaymentService(
		pool,
		bookings,
		repository.NewBookingRepository(pool),
		repository.NewPaymentRepository(pool),
		provider,
		&fakeNotifier{},
		zerolog.Nop(),
	)

	detail, err := payments.ConfirmBookingPayment(ctx, menteeID, intentID)
	if err != nil {
		t.Fatalf("ConfirmBookingPayment: %v", err)
	}
	if detail.Status != models.BookingStatusConfirmed || !detail.IsPaid {
		t.Fatalf("expected paid confirmed booking, got status=%q is_paid=%v", detail.Status, detail.IsPaid)
	}
	if detail.Payment == nil || detail.Payment.Status != models.PaymentStatusCompleted {
		t.Fatalf("expected completed payment attached, got %+v", detail.Payment)
	}

	if _, err := payments.ConfirmBookingPayment(ctx, menteeID, intentID); !errors.Is(err, ErrIntentConsumed) {
		t.Fatalf("expected consumed intent rejection, got %v", err)
	}
}
