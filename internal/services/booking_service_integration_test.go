package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/models"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/repository"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestBookingServiceRequestAndAcceptFlow(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationBookingService(pool)

	menteeID := createTestAccount(t, ctx, pool, models.RoleMentee, 0)
	mentorID := createTestAccount(t, ctx, pool, models.RoleMentor, 120)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, menteeID, mentorID) })

	date := "2030-03-15"
	clock := "09:00:00"
	detail, err := service.CreateBooking(ctx, menteeID, CreateBookingInput{
		MentorID:        mentorID,
		SessionType:     models.SessionTypeVideoCall,
		SessionDate:     &date,
		SessionTime:     &clock,
		DurationMinutes: 90,
		Topic:           "Distributed systems review",
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	if detail.Status != models.BookingStatusPending {
		t.Fatalf("expected pending booking, got %q", detail.Status)
	}
	if !detail.TotalAmount.Equal(decimal.NewFromInt(180)) {
		t.Fatalf("expected total 180, got %s", detail.TotalAmount)
	}
	if detail.MeetingLink == nil || !strings.HasPrefix(*detail.MeetingLink, "https://meet.google.com/mentor-") {
		t.Fatalf("expected generated meeting link, got %v", detail.MeetingLink)
	}

	accepted, err := service.Accept(ctx, mentorID, models.RoleMentor, detail.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if accepted.Status != models.BookingStatusConfirmed {
		t.Fatalf("expected confirmed booking after accept, got %q", accepted.Status)
	}

	if _, err := service.Accept(ctx, mentorID, models.RoleMentor, detail.ID); err == nil {
		t.Fatal("expected second accept to fail")
	}
}

func TestBookingServiceListsForBothParties(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationBookingService(pool)

	menteeID := createTestAccount(t, ctx, pool, models.RoleMentee, 0)
	mentorID := createTestAccount(t, ctx, pool, models.RoleMentor, 95)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, menteeID, mentorID) })

	date := "2030-05-10"
	clock := "08:00:00"
	booked, err := service.CreateBooking(ctx, menteeID, CreateBookingInput{
		MentorID:    mentorID,
		SessionType: models.SessionTypeVideoCall,
		SessionDate: &date,
		SessionTime: &clock,
		Topic:       "Career planning",
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	menteeBookings, err := service.ListUpcoming(ctx, menteeID, models.RoleMentee)
	if err != nil {
		t.Fatalf("ListUpcoming mentee: %v", err)
	}
	if len(menteeBookings) != 1 || menteeBookings[0].ID != booked.ID {
		t.Fatalf("expected mentee to see booking %d, got %+v", booked.ID, menteeBookings)
	}

	mentorBookings, err := service.ListBookings(ctx, mentorID, models.RoleMentor)
	if err != nil {
		t.Fatalf("ListBookings mentor: %v", err)
	}
	if len(mentorBookings) != 1 || mentorBookings[0].ID != booked.ID {
		t.Fatalf("expected mentor to see booking %d, got %+v", booked.ID, mentorBookings)
	}

	past, err := service.ListPast(ctx, menteeID, models.RoleMentee)
	if err != nil {
		t.Fatalf("ListPast mentee: %v", err)
	}
	if len(past) != 0 {
		t.Fatalf("expected no past bookings, got %+v", past)
	}
}

func TestBookingServiceMarkConfirmedSetsPaid(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationBookingService(pool)

	menteeID := createTestAccount(t, ctx, pool, models.RoleMentee, 0)
	mentorID := createTestAccount(t, ctx, pool, models.RoleMentor, 80)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, menteeID, mentorID) })

	detail, err := service.CreateBooking(ctx, menteeID, CreateBookingInput{
		MentorID:    mentorID,
		SessionType: models.SessionTypeOther,
		Topic:       "Portfolio feedback",
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}

	confirmed, err := service.MarkConfirmed(ctx, detail.ID, "pi_integration_test")
	if err != nil {
		t.Fatalf("MarkConfirmed: %v", err)
	}
	if confirmed.Status != models.BookingStatusConfirmed || !confirmed.IsPaid {
		t.Fatalf("expected paid confirmed booking, got %+v", confirmed)
	}
	if confirmed.PaymentIntentID == nil || *confirmed.PaymentIntentID != "pi_integration_test" {
		t.Fatalf("expected stored intent id, got %v", confirmed.PaymentIntentID)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func newIntegrationBookingService(pool *pgxpool.Pool) *BookingService {
	return NewBookingService(
		repository.NewBookingRepository(pool),
		repository.NewPaymentRepository(pool),
		repository.NewUserRepository(pool),
		repository.NewMentorProfileRepository(pool),
		&fakeNotifier{},
		zerolog.Nop(),
	)
}

func createTestAccount(t *testing.T, ctx context.Context, pool *pgxpool.Pool, role string, hourlyRate int64) int64 {
	t.Helper()

	userRepo := repository.NewUserRepository(pool)
	user := &models.User{
		Email:        fmt.Sprintf("booking-test-%s-%d@example.com", role, time.Now().UnixNano()),
		PasswordHash: "test-hash",
		Role:         role,
	}
	if err := userRepo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser(%s): %v", role, err)
	}

	if role == models.RoleMentee {
		menteeRepo := repository.NewMenteeProfileRepository(pool)
		if err := menteeRepo.CreateEmpty(ctx, user.ID); err != nil {
			t.Fatalf("CreateEmpty mentee profile: %v", err)
		}
		return user.ID
	}

	mentorRepo := repository.NewMentorProfileRepository(pool)
	if err := mentorRepo.CreateEmpty(ctx, user.ID); err != nil {
		t.Fatalf("CreateEmpty mentor profile: %v", err)
	}
	if _, err := mentorRepo.UpdateOnboarding(ctx, user.ID, repository.MentorOnboardingInput{
		FullName:        "Test Mentor",
		Bio:             "Test Bio",
		Expertise:       []string{"go"},
		ExperienceYears: 5,
		HourlyRate:      decimal.NewFromInt(hourlyRate),
	}); err != nil {
		t.Fatalf("UpdateOnboarding mentor profile: %v", err)
	}

	return user.ID
}

func cleanupTestUsers(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userIDs ...int64) {
	t.Helper()

	if len(userIDs) == 0 {
		return
	}

	if _, err := pool.Exec(ctx, "DELETE FROM payments WHERE user_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup payments: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM bookings WHERE mentee_id = ANY($1) OR mentor_id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup bookings: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM users WHERE id = ANY($1)", userIDs); err != nil {
		t.Fatalf("cleanup users: %v", err)
	}
}
