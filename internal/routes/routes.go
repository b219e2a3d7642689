package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/config"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/handlers"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/middleware"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/repository"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/services"
)

// RegisterRoutes wires repositories, services and handlers onto the app.
// The returned BookingService is shared with the background reconcile job.
func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, logger zerolog.Logger) (*services.BookingService, error) {
	userRepo := repository.NewUserRepository(db)
	menteeProfileRepo := repository.NewMenteeProfileRepository(db)
	mentorProfileRepo := repository.NewMentorProfileRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	var avatarStorage services.AvatarStorage
	if cfg.SupabaseURL != "" && cfg.SupabaseBucket != "" && cfg.SupabaseServiceKey != "" {
		avatarStorage = services.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}

	var mailer services.Mailer
	if cfg.MailConfigured() {
		mailer = services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		logger.Warn().Msg("smtp not configured, booking email will be logged instead of sent")
		mailer = &services.LogMailer{Logger: logger}
	}
	notifier := services.NewNotificationService(mailer, userRepo, mentorProfileRepo, menteeProfileRepo, logger)

	bookingService := services.NewBookingService(bookingRepo, paymentRepo, userRepo, mentorProfileRepo, notifier, logger)
	paymentProvider := services.NewStripeProvider(cfg.StripeSecretKey)
	paymentService := services.NewPaymentService(db, bookingService, bookingRepo, paymentRepo, paymentProvider, notifier, logger)
	recommendationService := services.NewRecommendationService(mentorProfileRepo)
	profileService := services.NewProfileService(menteeProfileRepo, mentorProfileRepo)

	authHandler := handlers.NewAuthHandler(db, userRepo, menteeProfileRepo, mentorProfileRepo, cfg.JWTSecret)
	onboardingHandler := handlers.NewOnboardingHandler(menteeProfileRepo, mentorProfileRepo)
	profileHandler := handlers.NewProfileHandler(profileService, menteeProfileRepo, mentorProfileRepo, avatarStorage)
	mentorDiscoveryHandler := handlers.NewMentorDiscoveryHandler(mentorProfileRepo, menteeProfileRepo, recommendationService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	mentees := authProtected.Group("/mentees")
	mentees.Post("/onboarding", onboardingHandler.MenteeOnboarding)
	mentees.Get("/profile", profileHandler.GetMenteeProfile)
	mentees.Put("/profile", profileHandler.UpdateMenteeProfile)
	mentees.Post("/profile/avatar", profileHandler.UploadMenteeAvatar)

	mentors := authProtected.Group("/mentors")
	mentors.Get("", mentorDiscoveryHandler.ListMentors)
	mentors.Post("/onboarding", onboardingHandler.MentorOnboarding)
	mentors.Get("/profile", profileHandler.GetMentorProfile)
	mentors.Put("/profile", profileHandler.UpdateMentorProfile)
	mentors.Post("/profile/avatar", profileHandler.UploadMentorAvatar)
	mentors.Get("/recommended", mentorDiscoveryHandler.GetRecommendedMentors)
	mentors.Get("/:id", mentorDiscoveryHandler.GetMentorDetail)

	bookings := authProtected.Group("/bookings")
	bookings.Post("", bookingHandler.CreateBooking)
	bookings.Get("", bookingHandler.ListBookings)
	bookings.Get("/upcoming", bookingHandler.ListUpcoming)
	bookings.Get("/past", bookingHandler.ListPast)
	bookings.Post("/confirm", bookingHandler.ConfirmBooking)
	bookings.Get("/:id", bookingHandler.GetBooking)
	bookings.Post("/:id/accept", bookingHandler.AcceptBooking)
	bookings.Post("/:id/decline", bookingHandler.DeclineBooking)
	bookings.Post("/:id/complete", bookingHandler.CompleteBooking)
	bookings.Post("/:id/cancel", bookingHandler.CancelBooking)

	payments := authProtected.Group("/payments")
	payments.Post("/create-intent", paymentHandler.CreatePaymentIntent)
	payments.Post("/confirm", paymentHandler.ConfirmPayment)
	payments.Post("/create-booking-intent", paymentHandler.CreateBookingWithPayment)
	payments.Post("/confirm-booking", paymentHandler.ConfirmBookingPayment)
	payments.Get("/status/:intent_id", paymentHandler.PaymentStatus)

	if err := registerDocsRoutes(app, cfg); err != nil {
		return nil, err
	}

	return bookingService, nil
}
