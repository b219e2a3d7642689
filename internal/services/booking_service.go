package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/metrics"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/models"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/repository"
)

var (
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrInvalidInput      = errors.New("invalid input")
	ErrMentorNotFound    = errors.New("mentor not found")
)

const (
	notifyAccepted  = "accepted"
	notifyDeclined  = "declined"
	notifyCompleted = "completed"
	notifyCancelled = "cancelled"
)

type mentorProfileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.MentorProfile, error)
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Notifier dispatches booking lifecycle email. Implementations are
// best-effort: they log failures and never return them.
type Notifier interface {
	NotifyMentorNewRequest(ctx context.Context, booking *models.Booking)
	NotifyMenteeConfirmed(ctx context.Context, booking *models.Booking)
	NotifyStatusUpdate(ctx context.Context, booking *models.Booking, action string)
}

type BookingService struct {
	bookingRepo *repository.BookingRepository
	paymentRepo *repository.PaymentRepository
	userRepo    userReader
	mentorRepo  mentorProfileReader
	notifier    Notifier
	logger      zerolog.Logger
	now         func() time.Time
}

func NewBookingService(
	bookingRepo *repository.BookingRepository,
	paymentRepo *repository.PaymentRepository,
	userRepo userReader,
	mentorRepo mentorProfileReader,
	notifier Notifier,
	logger zerolog.Logger,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		paymentRepo: paymentRepo,
		userRepo:    userRepo,
		mentorRepo:  mentorRepo,
		notifier:    notifier,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type CreateBookingInput struct {
	MentorID        int64
	SessionType     string
	SessionDate     *string
	SessionTime     *string
	DurationMinutes int
	Topic           string
	Description     *string
	MeetingLink     *string
	OnsiteAddress   *string
}

func (s *BookingService) CreateBooking(ctx context.Context, menteeID int64, input CreateBookingInput) (*models.BookingDetail, error) {
	booking, err := s.insertBooking(ctx, s.bookingRepo, menteeID, input, models.BookingStatusPending, false, nil)
	if err != nil {
		return nil, err
	}

	metrics.IncBookingCreated()
	s.notifier.NotifyMentorNewRequest(ctx, booking)

	return &models.BookingDetail{Booking: *booking}, nil
}

// insertBooking validates and persists a booking on the given repository,
// which may be transaction-scoped. Shared by the plain create path and the
// payment-first materialization.
func (s *BookingService) insertBooking(
	ctx context.Context,
	repo *repository.BookingRepository,
	menteeID int64,
	input CreateBookingInput,
	status string,
	isPaid bool,
	paymentIntentID *string,
) (*models.Booking, error) {
	input, totalAmount, err := s.normalizeAndPrice(ctx, menteeID, input)
	if err != nil {
		return nil, err
	}

	meetingLink := input.MeetingLink
	if input.SessionType == models.SessionTypeVideoCall && meetingLink == nil {
		link := newMeetingLink()
		meetingLink = &link
	}

	return repo.Create(ctx, repository.CreateBookingInput{
		MenteeID:        menteeID,
		MentorID:        input.MentorID,
		SessionType:     input.SessionType,
		SessionDate:     input.SessionDate,
		SessionTime:     input.SessionTime,
		DurationMinutes: input.DurationMinutes,
		Topic:           input.Topic,
		Description:     input.Description,
		TotalAmount:     totalAmount,
		Status:          status,
		IsPaid:          isPaid,
		MeetingLink:     meetingLink,
		OnsiteAddress:   input.OnsiteAddress,
		PaymentIntentID: paymentIntentID,
	})
}

// normalizeAndPrice validates the request, fills in defaults and computes the
// session price from the mentor's hourly rate. It does not touch the bookings
// table, so the payment-first flow can price a session before anything is
// persisted.
func (s *BookingService) normalizeAndPrice(ctx context.Context, menteeID int64, input CreateBookingInput) (CreateBookingInput, decimal.Decimal, error) {
	var zero decimal.Decimal
	if input.MentorID <= 0 {
		return input, zero, fmt.Errorf("%w: mentor is required", ErrInvalidInput)
	}
	if menteeID == input.MentorID {
		return input, zero, fmt.Errorf("%w: cannot book a session with yourself", ErrInvalidInput)
	}
	if !models.ValidSessionType(input.SessionType) {
		return input, zero, fmt.Errorf("%w: session_type must be video_call, onsite or other", ErrInvalidInput)
	}
	input.Topic = strings.TrimSpace(input.Topic)
	if input.Topic == "" {
		return input, zero, fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}

	if input.DurationMinutes == 0 {
		input.DurationMinutes = 60
	}
	if input.DurationMinutes < 0 {
		return input, zero, fmt.Errorf("%w: duration_minutes must be greater than 0", ErrInvalidInput)
	}

	if input.SessionDate != nil {
		if _, err := time.Parse("2006-01-02", *input.SessionDate); err != nil {
			return input, zero, fmt.Errorf("%w: session_date must be YYYY-MM-DD", ErrInvalidInput)
		}
	}
	if input.SessionTime != nil {
		if _, err := parseSessionClock(*input.SessionTime); err != nil {
			return input, zero, fmt.Errorf("%w: session_time must be HH:MM or HH:MM:SS", ErrInvalidInput)
		}
	}

	if input.OnsiteAddress != nil && input.SessionType != models.SessionTypeOnsite {
		return input, zero, fmt.Errorf("%w: onsite_address is only valid for onsite sessions", ErrInvalidInput)
	}
	if input.MeetingLink != nil && input.SessionType != models.SessionTypeVideoCall {
		return input, zero, fmt.Errorf("%w: meeting_link is only valid for video_call sessions", ErrInvalidInput)
	}

	mentor, err := s.userRepo.GetByID(ctx, input.MentorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return input, zero, ErrMentorNotFound
		}
		return input, zero, err
	}
	if mentor.Role != models.RoleMentor {
		return input, zero, ErrMentorNotFound
	}

	profile, err := s.mentorRepo.GetByUserID(ctx, input.MentorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return input, zero, ErrMentorNotFound
		}
		return input, zero, err
	}
	if !profile.OnboardingComplete || profile.HourlyRate == nil || profile.HourlyRate.Sign() <= 0 {
		return input, zero, fmt.Errorf("%w: mentor has no hourly rate configured", ErrInvalidInput)
	}

	return input, TotalAmount(*profile.HourlyRate, input.DurationMinutes), nil
}

func (s *BookingService) GetBooking(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isParty(role, actorID, booking) {
		return nil, fmt.Errorf("%w: you are not a party to this booking", ErrForbidden)
	}
	return s.attachPayment(ctx, booking)
}

// Accept confirms a pending booking. Mentor-only.
func (s *BookingService) Accept(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleMentor || booking.MentorID != actorID {
		return nil, fmt.Errorf("%w: only the mentor can accept this booking", ErrForbidden)
	}
	if booking.Status != models.BookingStatusPending {
		return nil, fmt.Errorf("%w: only pending bookings can be accepted", ErrInvalidTransition)
	}

	updated, err := s.bookingRepo.UpdateStatusIfCurrent(ctx, bookingID, models.BookingStatusPending, models.BookingStatusConfirmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: only pending bookings can be accepted", ErrInvalidTransition)
		}
		return nil, err
	}

	if updated.SessionType == models.SessionTypeVideoCall && updated.MeetingLink == nil {
		updated, err = s.bookingRepo.SetMeetingLink(ctx, bookingID, meetingLinkFor(bookingID))
		if err != nil {
			return nil, err
		}
	}

	metrics.IncTransition(models.BookingStatusConfirmed)
	s.notifier.NotifyMenteeConfirmed(ctx, updated)

	return s.attachPayment(ctx, updated)
}

// Decline cancels a pending booking. Mentor-only.
func (s *BookingService) Decline(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleMentor || booking.MentorID != actorID {
		return nil, fmt.Errorf("%w: only the mentor can decline this booking", ErrForbidden)
	}
	if booking.Status != models.BookingStatusPending {
		return nil, fmt.Errorf("%w: only pending bookings can be declined", ErrInvalidTransition)
	}

	updated, err := s.bookingRepo.UpdateStatusIfCurrent(ctx, bookingID, models.BookingStatusPending, models.BookingStatusCancelled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: only pending bookings can be declined", ErrInvalidTransition)
		}
		return nil, err
	}

	metrics.IncTransition(models.BookingStatusCancelled)
	s.notifier.NotifyStatusUpdate(ctx, updated, notifyDeclined)

	return s.attachPayment(ctx, updated)
}

// Complete marks a confirmed booking as completed. Mentor-only.
func (s *BookingService) Complete(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleMentor || booking.MentorID != actorID {
		return nil, fmt.Errorf("%w: only the mentor can complete this booking", ErrForbidden)
	}
	if booking.Status != models.BookingStatusConfirmed {
		return nil, fmt.Errorf("%w: only confirmed bookings can be completed", ErrInvalidTransition)
	}

	updated, err := s.bookingRepo.UpdateStatusIfCurrent(ctx, bookingID, models.BookingStatusConfirmed, models.BookingStatusCompleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: only confirmed bookings can be completed", ErrInvalidTransition)
		}
		return nil, err
	}

	metrics.IncTransition(models.BookingStatusCompleted)
	s.notifier.NotifyStatusUpdate(ctx, updated, notifyCompleted)

	return s.attachPayment(ctx, updated)
}

// Cancel cancels a booking that has not finished. Either party may cancel;
// both are notified.
func (s *BookingService) Cancel(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isParty(role, actorID, booking) {
		return nil, fmt.Errorf("%w: you can only cancel your own bookings", ErrForbidden)
	}
	if booking.Status == models.BookingStatusCompleted || booking.Status == models.BookingStatusCancelled {
		return nil, fmt.Errorf("%w: only pending, confirmed or in-progress bookings can be cancelled", ErrInvalidTransition)
	}

	updated, err := s.bookingRepo.UpdateStatusIfCurrent(ctx, bookingID, booking.Status, models.BookingStatusCancelled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: only pending, confirmed or in-progress bookings can be cancelled", ErrInvalidTransition)
		}
		return nil, err
	}

	metrics.IncTransition(models.BookingStatusCancelled)
	s.notifier.NotifyStatusUpdate(ctx, updated, notifyCancelled)

	return s.attachPayment(ctx, updated)
}

// MarkConfirmed is the simple confirmation path: flip to confirmed, record the
// intent id and make sure a video call has a meeting link. Used by the legacy
// confirm endpoint.
func (s *BookingService) MarkConfirmed(ctx context.Context, bookingID int64, paymentIntentID string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingStatusCompleted || booking.Status == models.BookingStatusCancelled {
		return nil, fmt.Errorf("%w: only open bookings can be confirmed", ErrInvalidTransition)
	}

	updated, err := s.bookingRepo.ConfirmPaid(ctx, bookingID, paymentIntentID)
	if err != nil {
		return nil, err
	}
	if updated.SessionType == models.SessionTypeVideoCall && updated.MeetingLink == nil {
		updated, err = s.bookingRepo.SetMeetingLink(ctx, bookingID, meetingLinkFor(bookingID))
		if err != nil {
			return nil, err
		}
	}

	metrics.IncTransition(models.BookingStatusConfirmed)
	return updated, nil
}

// ListBookings returns every booking visible to the actor, after running the
// auto-complete sweep over them.
func (s *BookingService) ListBookings(ctx context.Context, actorID int64, role string) ([]models.BookingDetail, error) {
	bookings, err := s.reconciledBookings(ctx, actorID, role)
	if err != nil {
		return nil, err
	}
	return s.attachPayments(ctx, bookings)
}

// ListUpcoming returns visible bookings whose session window has not elapsed
// and that are still live. Bookings without a scheduled date and time have no
// window and are excluded.
func (s *BookingService) ListUpcoming(ctx context.Context, actorID int64, role string) ([]models.BookingDetail, error) {
	bookings, err := s.reconciledBookings(ctx, actorID, role)
	if err != nil {
		return nil, err
	}

	now := s.now()
	upcoming := make([]models.Booking, 0, len(bookings))
	for _, booking := range bookings {
		_, end, ok := sessionWindow(&booking)
		if !ok || !end.After(now) {
			continue
		}
		switch booking.Status {
		case models.BookingStatusPending, models.BookingStatusConfirmed, models.BookingStatusInProgress:
			upcoming = append(upcoming, booking)
		}
	}
	return s.attachPayments(ctx, upcoming)
}

// ListPast returns visible bookings that are finished: terminal status, or a
// session window that has already elapsed.
func (s *BookingService) ListPast(ctx context.Context, actorID int64, role string) ([]models.BookingDetail, error) {
	bookings, err := s.reconciledBookings(ctx, actorID, role)
	if err != nil {
		return nil, err
	}

	now := s.now()
	past := make([]models.Booking, 0, len(bookings))
	for _, booking := range bookings {
		if booking.Status == models.BookingStatusCompleted || booking.Status == models.BookingStatusCancelled {
			past = append(past, booking)
			continue
		}
		if _, end, ok := sessionWindow(&booking); ok && !end.After(now) {
			past = append(past, booking)
		}
	}
	return s.attachPayments(ctx, past)
}

func (s *BookingService) reconciledBookings(ctx context.Context, actorID int64, role string) ([]models.Booking, error) {
	bookings, err := s.bookingRepo.ListForActor(ctx, repository.BookingListFilter{ActorID: actorID, Role: role})
	if err != nil {
		return nil, err
	}
	if _, err := s.reconcile(ctx, bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// ReconcileAll runs the auto-complete sweep over every live booking in the
// system. Called from the scheduled job.
func (s *BookingService) ReconcileAll(ctx context.Context) (int, error) {
	bookings, err := s.bookingRepo.ListByStatuses(ctx, []string{
		models.BookingStatusPending,
		models.BookingStatusConfirmed,
		models.BookingStatusInProgress,
	})
	if err != nil {
		return 0, err
	}
	return s.reconcile(ctx, bookings)
}

// reconcile moves each booking to the status its session window dictates:
// in_progress while the window is open, completed once it has elapsed.
// Conditional updates make the sweep idempotent and safe to race; the slice is
// updated in place so callers see the reconciled statuses.
func (s *BookingService) reconcile(ctx context.Context, bookings []models.Booking) (int, error) {
	now := s.now()
	updated := 0
	for i := range bookings {
		target, ok := reconcileTarget(&bookings[i], now)
		if !ok {
			continue
		}
		fresh, err := s.bookingRepo.UpdateStatusIfCurrent(ctx, bookings[i].ID, bookings[i].Status, target)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			return updated, err
		}
		bookings[i] = *fresh
		updated++
		metrics.IncReconciled()
		s.logger.Info().
			Int64("booking_id", fresh.ID).
			Str("status", target).
			Msg("auto-completed booking")
	}
	return updated, nil
}

func (s *BookingService) attachPayment(ctx context.Context, booking *models.Booking) (*models.BookingDetail, error) {
	detail := &models.BookingDetail{Booking: *booking}
	payment, err := s.paymentRepo.GetLatestByBookingID(ctx, booking.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err == nil {
		detail.Payment = payment
	}
	return detail, nil
}

func (s *BookingService) attachPayments(ctx context.Context, bookings []models.Booking) ([]models.BookingDetail, error) {
	bookingIDs := make([]int64, 0, len(bookings))
	for _, booking := range bookings {
		bookingIDs = append(bookingIDs, booking.ID)
	}

	paymentsByBooking, err := s.paymentRepo.ListByBookingIDs(ctx, bookingIDs)
	if err != nil {
		return nil, err
	}

	details := make([]models.BookingDetail, 0, len(bookings))
	for _, booking := range bookings {
		detail := models.BookingDetail{Booking: booking}
		if payment, ok := paymentsByBooking[booking.ID]; ok {
			paymentCopy := payment
			detail.Payment = &paymentCopy
		}
		details = append(details, detail)
	}
	return details, nil
}

func isParty(role string, actorID int64, booking *models.Booking) bool {
	if role == models.RoleMentee {
		return booking.MenteeID == actorID
	}
	if role == models.RoleMentor {
		return booking.MentorID == actorID
	}
	return false
}

// TotalAmount prices a session: hourly rate times duration in hours, rounded
// to cents. Computed once at creation and never recomputed.
func TotalAmount(hourlyRate decimal.Decimal, durationMinutes int) decimal.Decimal {
	return hourlyRate.
		Mul(decimal.NewFromInt(int64(durationMinutes))).
		Div(decimal.NewFromInt(60)).
		Round(2)
}

// sessionWindow derives [start, start+duration) from the booking's date and
// time fields. A booking missing either has no window.
func sessionWindow(booking *models.Booking) (time.Time, time.Time, bool) {
	if booking.SessionDate == nil || booking.SessionTime == nil {
		return time.Time{}, time.Time{}, false
	}
	clock, err := parseSessionClock(*booking.SessionTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	date, err := time.Parse("2006-01-02", *booking.SessionDate)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	start := date.Add(clock)
	duration := booking.DurationMinutes
	if duration <= 0 {
		duration = 60
	}
	return start, start.Add(time.Duration(duration) * time.Minute), true
}

// reconcileTarget returns the status the sweep should move the booking to, if
// any. Bookings without a session window never expire.
func reconcileTarget(booking *models.Booking, now time.Time) (string, bool) {
	switch booking.Status {
	case models.BookingStatusPending, models.BookingStatusConfirmed, models.BookingStatusInProgress:
	default:
		return "", false
	}

	start, end, ok := sessionWindow(booking)
	if !ok {
		return "", false
	}

	if !now.Before(start) && now.Before(end) {
		if booking.Status != models.BookingStatusInProgress {
			return models.BookingStatusInProgress, true
		}
		return "", false
	}
	if !now.Before(end) {
		return models.BookingStatusCompleted, true
	}
	return "", false
}

// parseSessionClock parses "HH:MM" or "HH:MM:SS" into an offset from midnight.
func parseSessionClock(value string) (time.Duration, error) {
	value = strings.SplitN(strings.TrimSpace(value), ".", 2)[0]
	for _, layout := range []string{"15:04:05", "15:04"} {
		if clock, err := time.Parse(layout, value); err == nil {
			return time.Duration(clock.Hour())*time.Hour +
				time.Duration(clock.Minute())*time.Minute +
				time.Duration(clock.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid time of day: %q", value)
}

func newMeetingLink() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return "https://meet.google.com/mentor-" + suffix
}

func meetingLinkFor(bookingID int64) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("https://meet.google.com/mentor-%d-%s", bookingID, suffix)
}
