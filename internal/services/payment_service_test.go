package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/models"
)

type stubUserReader struct {
	users map[int64]*models.User
}

func (s *stubUserReader) GetByID(_ context.Context, id int64) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, pgx.ErrNoRows
}

type stubMentorReader struct {
	profiles map[int64]*models.MentorProfile
}

func (s *stubMentorReader) GetByUserID(_ context.Context, userID int64) (*models.MentorProfile, error) {
	if profile, ok := s.profiles[userID]; ok {
		return profile, nil
	}
	return nil, pgx.ErrNoRows
}

type fakeNotifier struct {
	mentorRequests int
	menteeConfirms int
	statusUpdates  []string
}

func (f *fakeNotifier) NotifyMentorNewRequest(_ context.Context, _ *models.Booking) {
	f.mentorRequests++
}

func (f *fakeNotifier) NotifyMenteeConfirmed(_ context.Context, _ *models.Booking) {
	f.menteeConfirms++
}

func (f *fakeNotifier) NotifyStatusUpdate(_ context.Context, _ *models.Booking, action string) {
	f.statusUpdates = append(f.statusUpdates, action)
}

type fakeProvider struct {
	created  []*Intent
	retrieve *Intent
	err      error
}

func (f *fakeProvider) CreateIntent(_ context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*Intent, error) {
	if f.err != nil {
		return nil, f.err
	}
	intent := &Intent{
		ID:           "pi_test_1",
		ClientSecret: "pi_test_1_secret",
		Status:       "requires_payment_method",
		Amount:       amount,
		Currency:     currency,
		Metadata:     metadata,
	}
	f.created = append(f.created, intent)
	return intent, nil
}

func (f *fakeProvider) RetrieveIntent(_ context.Context, _ string) (*Intent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.retrieve, nil
}

func newTestBookingService(users map[int64]*models.User, mentors map[int64]*models.MentorProfile) *BookingService {
	return NewBookingService(
		nil, nil,
		&stubUserReader{users: users},
		&stubMentorReader{profiles: mentors},
		&fakeNotifier{},
		zerolog.Nop(),
	)
}

func mentorFixture(userID int64, rate string) (map[int64]*models.User, map[int64]*models.MentorProfile) {
	hourlyRate := decimal.RequireFromString(rate)
	users := map[int64]*models.User{
		userID: {ID: userID, Email: "mentor@example.com", Role: models.RoleMentor},
	}
	mentors := map[int64]*models.MentorProfile{
		userID: {UserID: userID, HourlyRate: &hourlyRate, OnboardingComplete: true},
	}
	return users, mentors
}

func TestEncodeDecodeBookingMetadata(t *testing.T) {
	input := CreateBookingInput{
		MentorID:        20,
		SessionType:     models.SessionTypeOnsite,
		SessionDate:     strPtr("2026-03-15"),
		SessionTime:     strPtr("14:00:00"),
		DurationMinutes: 90,
		Topic:           "system design",
		Description:     strPtr("prep for interviews"),
		OnsiteAddress:   strPtr("12 Main St"),
	}

	menteeID, decoded, err := decodeBookingMetadata(encodeBookingMetadata(10, input))
	require.NoError(t, err)
	assert.Equal(t, int64(10), menteeID)
	assert.Equal(t, input, decoded)
}

func TestEncodeDecodeBookingMetadataOmitsOptionalFields(t *testing.T) {
	input := CreateBookingInput{
		MentorID:        20,
		SessionType:     models.SessionTypeOther,
		DurationMinutes: 60,
		Topic:           "catch up",
	}

	metadata := encodeBookingMetadata(10, input)
	for _, key := range []string{"session_date", "session_time", "description", "onsite_address"} {
		if _, ok := metadata[key]; ok {
			t.Fatalf("metadata should not carry %s when unset", key)
		}
	}

	menteeID, decoded, err := decodeBookingMetadata(metadata)
	require.NoError(t, err)
	assert.Equal(t, int64(10), menteeID)
	assert.Equal(t, input, decoded)
}

func TestDecodeBookingMetadataRejectsMissingParties(t *testing.T) {
	_, _, err := decodeBookingMetadata(map[string]string{"mentor_id": "20"})
	require.Error(t, err)

	_, _, err = decodeBookingMetadata(map[string]string{"mentee_id": "10"})
	require.Error(t, err)
}

func TestCreateBookingWithPaymentPricesFromMentorRate(t *testing.T) {
	users, mentors := mentorFixture(20, "50")
	bookings := newTestBookingService(users, mentors)
	provider := &fakeProvider{}
	payments := NewPaymentService(nil, bookings, nil, nil, provider, &fakeNotifier{}, zerolog.Nop())

	result, err := payments.CreateBookingWithPayment(context.Background(), 10, CreateBookingInput{
		MentorID:        20,
		SessionType:     models.SessionTypeVideoCall,
		DurationMinutes: 90,
		Topic:           "career growth",
	})
	require.NoError(t, err)

	assert.True(t, result.Amount.Equal(decimal.RequireFromString("75")), "amount = %s", result.Amount)
	assert.Equal(t, "pi_test_1", result.PaymentIntentID)
	assert.Equal(t, "pi_test_1_secret", result.ClientSecret)

	require.Len(t, provider.created, 1)
	metadata := provider.created[0].Metadata
	assert.Equal(t, "10", metadata["mentee_id"])
	assert.Equal(t, "20", metadata["mentor_id"])
	assert.Equal(t, "career growth", metadata["topic"])
}

func TestCreateBookingWithPaymentValidatesInput(t *testing.T) {
	users, mentors := mentorFixture(20, "50")
	bookings := newTestBookingService(users, mentors)
	payments := NewPaymentService(nil, bookings, nil, nil, &fakeProvider{}, &fakeNotifier{}, zerolog.Nop())

	cases := []struct {
		name    string
		input   CreateBookingInput
		wantErr error
	}{
		{
			name:    "unknown session type",
			input:   CreateBookingInput{MentorID: 20, SessionType: "phone", Topic: "x"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "booking yourself",
			input:   CreateBookingInput{MentorID: 10, SessionType: models.SessionTypeOther, Topic: "x"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "missing topic",
			input:   CreateBookingInput{MentorID: 20, SessionType: models.SessionTypeOther, Topic: "   "},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown mentor",
			input:   CreateBookingInput{MentorID: 99, SessionType: models.SessionTypeOther, Topic: "x"},
			wantErr: ErrMentorNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := payments.CreateBookingWithPayment(context.Background(), 10, tc.input)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestConfirmBookingPaymentRequiresSuccess(t *testing.T) {
	provider := &fakeProvider{retrieve: &Intent{
		ID:     "pi_test_1",
		Status: "requires_payment_method",
	}}
	payments := NewPaymentService(nil, nil, nil, nil, provider, &fakeNotifier{}, zerolog.Nop())

	_, err := payments.ConfirmBookingPayment(context.Background(), 10, "pi_test_1")
	require.ErrorIs(t, err, ErrPaymentNotSucceeded)
}

func TestConfirmBookingPaymentRejectsForeignIntent(t *testing.T) {
	input := CreateBookingInput{
		MentorID:        20,
		SessionType:     models.SessionTypeOther,
		DurationMinutes: 60,
		Topic:           "catch up",
	}
	provider := &fakeProvider{retrieve: &Intent{
		ID:       "pi_test_1",
		Status:   intentStatusSucceeded,
		Metadata: encodeBookingMetadata(10, input),
	}}
	payments := NewPaymentService(nil, nil, nil, nil, provider, &fakeNotifier{}, zerolog.Nop())

	_, err := payments.ConfirmBookingPayment(context.Background(), 11, "pi_test_1")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestConfirmPaymentUnknownIntent(t *testing.T) {
	provider := &fakeProvider{err: fmt.Errorf("%w: pi_missing", ErrIntentNotFound)}
	payments := NewPaymentService(nil, nil, nil, nil, provider, &fakeNotifier{}, zerolog.Nop())

	_, err := payments.ConfirmPayment(context.Background(), 10, "pi_missing")
	require.ErrorIs(t, err, ErrIntentNotFound)
}

func TestConfirmPaymentWrapsProcessorFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("stripe: connection reset")}
	payments := NewPaymentService(nil, nil, nil, nil, provider, &fakeNotifier{}, zerolog.Nop())

	_, err := payments.ConfirmPayment(context.Background(), 10, "pi_test_1")
	require.ErrorIs(t, err, ErrPaymentProvider)
	require.NotErrorIs(t, err, ErrIntentNotFound)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestCreateBookingWithPaymentWrapsProcessorFailure(t *testing.T) {
	users, mentors := mentorFixture(20, "50")
	bookings := newTestBookingService(users, mentors)
	provider := &fakeProvider{err: errors.New("stripe: api key expired")}
	payments := NewPaymentService(nil, bookings, nil, nil, provider, &fakeNotifier{}, zerolog.Nop())

	_, err := payments.CreateBookingWithPayment(context.Background(), 10, CreateBookingInput{
		MentorID:    20,
		SessionType: models.SessionTypeOther,
		Topic:       "career growth",
	})
	require.ErrorIs(t, err, ErrPaymentProvider)
	assert.Contains(t, err.Error(), "api key expired")
}

func TestConfirmPaymentRequiresSuccess(t *testing.T) {
	provider := &fakeProvider{retrieve: &Intent{
		ID:     "pi_test_1",
		Status: "processing",
	}}
	payments := NewPaymentService(nil, nil, nil, nil, provider, &fakeNotifier{}, zerolog.Nop())

	_, err := payments.ConfirmPayment(context.Background(), 10, "pi_test_1")
	require.ErrorIs(t, err, ErrPaymentNotSucceeded)
}

func TestCentsConversion(t *testing.T) {
	assert.Equal(t, int64(7550), toCents(decimal.RequireFromString("75.50")))
	assert.Equal(t, int64(7550), toCents(decimal.RequireFromString("75.499")))
	assert.True(t, fromCents(7550).Equal(decimal.RequireFromString("75.5")))
}
