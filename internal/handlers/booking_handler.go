package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/models"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/services"
)

type BookingHandler struct {
	service bookingApplicationService
}

type bookingApplicationService interface {
	CreateBooking(ctx context.Context, menteeID int64, input services.CreateBookingInput) (*models.BookingDetail, error)
	GetBooking(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error)
	ListBookings(ctx context.Context, actorID int64, role string) ([]models.BookingDetail, error)
	ListUpcoming(ctx context.Context, actorID int64, role string) ([]models.BookingDetail, error)
	ListPast(ctx context.Context, actorID int64, role string) ([]models.BookingDetail, error)
	Accept(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error)
	Decline(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error)
	Complete(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error)
	Cancel(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error)
	MarkConfirmed(ctx context.Context, bookingID int64, paymentIntentID string) (*models.Booking, error)
}

func NewBookingHandler(service *services.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

type createBookingRequest struct {
	MentorID        int64   `json:"mentor_id"`
	SessionType     string  `json:"session_type"`
	SessionDate     *string `json:"session_date"`
	SessionTime     *string `json:"session_time"`
	DurationMinutes int     `json:"duration_minutes"`
	Topic           string  `json:"topic"`
	Description     *string `json:"description"`
	MeetingLink     *string `json:"meeting_link"`
	OnsiteAddress   *string `json:"onsite_address"`
}

type confirmBookingRequest struct {
	BookingID       int64  `json:"booking_id"`
	PaymentIntentID string `json:"payment_intent_id"`
}

func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleMentee {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	detail, err := h.service.CreateBooking(c.Context(), userID, services.CreateBookingInput{
		MentorID:        req.MentorID,
		SessionType:     req.SessionType,
		SessionDate:     req.SessionDate,
		SessionTime:     req.SessionTime,
		DurationMinutes: req.DurationMinutes,
		Topic:           req.Topic,
		Description:     req.Description,
		MeetingLink:     req.MeetingLink,
		OnsiteAddress:   req.OnsiteAddress,
	})
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": detail})
}

func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	return h.list(c, h.service.ListBookings)
}

func (h *BookingHandler) ListUpcoming(c *fiber.Ctx) error {
	return h.list(c, h.service.ListUpcoming)
}

func (h *BookingHandler) ListPast(c *fiber.Ctx) error {
	return h.list(c, h.service.ListPast)
}

func (h *BookingHandler) list(
	c *fiber.Ctx,
	fetch func(ctx context.Context, actorID int64, role string) ([]models.BookingDetail, error),
) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != models.RoleMentee && role != models.RoleMentor) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	bookings, err := fetch(c.Context(), userID, role)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"bookings": bookings})
}

func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	return h.act(c, h.service.GetBooking)
}

func (h *BookingHandler) AcceptBooking(c *fiber.Ctx) error {
	return h.act(c, h.service.Accept)
}

func (h *BookingHandler) DeclineBooking(c *fiber.Ctx) error {
	return h.act(c, h.service.Decline)
}

func (h *BookingHandler) CompleteBooking(c *fiber.Ctx) error {
	return h.act(c, h.service.Complete)
}

func (h *BookingHandler) CancelBooking(c *fiber.Ctx) error {
	return h.act(c, h.service.Cancel)
}

func (h *BookingHandler) act(
	c *fiber.Ctx,
	operation func(ctx context.Context, actorID int64, role string, bookingID int64) (*models.BookingDetail, error),
) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != models.RoleMentee && role != models.RoleMentor) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	bookingID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || bookingID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	booking, err := operation(c.Context(), userID, role, bookingID)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"booking": booking})
}

// ConfirmBooking is the simple confirmation endpoint kept for clients that
// handled the payment themselves: it marks the booking paid and confirmed
// without consulting the payment processor.
func (h *BookingHandler) ConfirmBooking(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != models.RoleMentee {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req confirmBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.BookingID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "booking_id is required"})
	}
	if req.PaymentIntentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payment_intent_id is required"})
	}

	userID, err := parseProfileUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	existing, err := h.service.GetBooking(c.Context(), userID, role, req.BookingID)
	if err != nil {
		return mapBookingError(c, err)
	}

	booking, err := h.service.MarkConfirmed(c.Context(), existing.ID, req.PaymentIntentID)
	if err != nil {
		return mapBookingError(c, err)
	}

	return c.JSON(fiber.Map{"booking": booking})
}

func mapBookingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidTransition):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		// The service message names the role the action requires.
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrMentorNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Mentor not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process booking request"})
	}
}
