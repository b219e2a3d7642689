package services

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/metrics"
	"github.com/SriraghavanK/MentorConnect-Workcohol-Project/internal/models"
)

// Mailer delivers a single message.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password, from: from}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	var message strings.Builder
	message.WriteString(fmt.Sprintf("From: MentorConnect <%s>\r\n", m.from))
	message.WriteString(fmt.Sprintf("To: %s\r\n", to))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	message.WriteString("\r\n")
	message.WriteString(htmlBody)

	conn, err := smtp.Dial(fmt.Sprintf("%s:%d", m.host, m.port))
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if err := conn.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	if err := conn.Auth(smtp.PlainAuth("", m.username, m.password, m.host)); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err := conn.Mail(m.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := conn.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := conn.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write([]byte(message.String())); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return conn.Quit()
}

// LogMailer stands in when SMTP is not configured: it logs the message
// instead of delivering it.
type LogMailer struct {
	Logger zerolog.Logger
}

func (m *LogMailer) Send(to, subject, _ string) error {
	m.Logger.Info().Str("recipient", to).Str("subject", subject).Msg("mail not configured, skipping delivery")
	return nil
}

type menteeProfileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.MenteeProfile, error)
}

// NotificationService sends booking lifecycle email. Delivery is best-effort:
// failures are logged and counted, never returned, so a broken mailbox cannot
// fail a booking operation.
type NotificationService struct {
	mailer  Mailer
	users   userReader
	mentors mentorProfileReader
	mentees menteeProfileReader
	logger  zerolog.Logger
}

func NewNotificationService(
	mailer Mailer,
	users userReader,
	mentors mentorProfileReader,
	mentees menteeProfileReader,
	logger zerolog.Logger,
) *NotificationService {
	return &NotificationService{
		mailer:  mailer,
		users:   users,
		mentors: mentors,
		mentees: mentees,
		logger:  logger,
	}
}

func (s *NotificationService) NotifyMentorNewRequest(ctx context.Context, booking *models.Booking) {
	mentor, mentorName := s.resolveParty(ctx, booking.MentorID, models.RoleMentor)
	_, menteeName := s.resolveParty(ctx, booking.MenteeID, models.RoleMentee)
	if mentor == nil {
		return
	}

	subject := fmt.Sprintf("New Session Request from %s", menteeName)
	body := fmt.Sprintf(`<html><body>
<h2>New Session Request</h2>
<p>Hello %s,</p>
<p>You have received a new session request from %s.</p>
%s
<p>Please log in to your dashboard to accept or decline this request.</p>
<p>Best regards,<br>MentorConnect Team</p>
</body></html>`, mentorName, menteeName, sessionDetailsHTML(booking, true))

	s.deliver(mentor.Email, subject, body, booking.ID)
}

func (s *NotificationService) NotifyMenteeConfirmed(ctx context.Context, booking *models.Booking) {
	mentee, menteeName := s.resolveParty(ctx, booking.MenteeID, models.RoleMentee)
	_, mentorName := s.resolveParty(ctx, booking.MentorID, models.RoleMentor)
	if mentee == nil {
		return
	}

	subject := fmt.Sprintf("Session Confirmed with %s", mentorName)
	body := fmt.Sprintf(`<html><body>
<h2>Session Confirmed!</h2>
<p>Hello %s,</p>
<p>Your session with %s has been confirmed!</p>
%s
%s
<p>Please log in to your dashboard to view full details and manage your session.</p>
<p>Best regards,<br>MentorConnect Team</p>
</body></html>`, menteeName, mentorName, sessionDetailsHTML(booking, true), locationHTML(booking))

	s.deliver(mentee.Email, subject, body, booking.ID)
}

func (s *NotificationService) NotifyStatusUpdate(ctx context.Context, booking *models.Booking, action string) {
	mentee, menteeName := s.resolveParty(ctx, booking.MenteeID, models.RoleMentee)
	mentor, mentorName := s.resolveParty(ctx, booking.MentorID, models.RoleMentor)

	var subject, message string
	var recipients []*models.User

	switch action {
	case notifyAccepted:
		subject = fmt.Sprintf("Session Accepted by %s", mentorName)
		message = fmt.Sprintf("Your session request has been accepted by %s.", mentorName)
		recipients = []*models.User{mentee}
	case notifyDeclined:
		subject = fmt.Sprintf("Session Declined by %s", mentorName)
		message = fmt.Sprintf("Your session request has been declined by %s.", mentorName)
		recipients = []*models.User{mentee}
	case notifyCompleted:
		subject = fmt.Sprintf("Session Completed with %s", menteeName)
		message = fmt.Sprintf("Your session with %s has been marked as completed.", menteeName)
		recipients = []*models.User{mentor}
	case notifyCancelled:
		subject = "Session Cancelled"
		message = fmt.Sprintf("Your session scheduled for %s at %s has been cancelled.",
			orUnscheduled(booking.SessionDate), orUnscheduled(booking.SessionTime))
		recipients = []*models.User{mentee, mentor}
	default:
		return
	}

	body := fmt.Sprintf(`<html><body>
<h2>%s</h2>
<p>%s</p>
%s
%s
<p>Please log in to your dashboard for more details.</p>
<p>Best regards,<br>MentorConnect Team</p>
</body></html>`, subject, message, sessionDetailsHTML(booking, false), locationHTML(booking))

	for _, recipient := range recipients {
		if recipient == nil {
			continue
		}
		s.deliver(recipient.Email, subject, body, booking.ID)
	}
}

func (s *NotificationService) deliver(to, subject, body string, bookingID int64) {
	if err := s.mailer.Send(to, subject, body); err != nil {
		metrics.IncNotificationFailure()
		s.logger.Warn().
			Err(err).
			Int64("booking_id", bookingID).
			Str("recipient", to).
			Msg("failed to send booking email")
		return
	}
	s.logger.Debug().
		Int64("booking_id", bookingID).
		Str("recipient", to).
		Msg("booking email sent")
}

// resolveParty loads a user and their display name. A missing user yields a
// nil user and a generic name so the notification can still address the other
// party.
func (s *NotificationService) resolveParty(ctx context.Context, userID int64, role string) (*models.User, string) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().Err(err).Int64("user_id", userID).Msg("failed to load notification recipient")
		}
		return nil, "a MentorConnect user"
	}

	name := user.Email
	switch role {
	case models.RoleMentor:
		if profile, err := s.mentors.GetByUserID(ctx, userID); err == nil && profile.FullName != nil && *profile.FullName != "" {
			name = *profile.FullName
		}
	case models.RoleMentee:
		if profile, err := s.mentees.GetByUserID(ctx, userID); err == nil && profile.FullName != nil && *profile.FullName != "" {
			name = *profile.FullName
		}
	}
	return user, name
}

func sessionDetailsHTML(booking *models.Booking, withAmount bool) string {
	var b strings.Builder
	b.WriteString("<h3>Session Details:</h3>\n<ul>\n")
	fmt.Fprintf(&b, "<li><strong>Date:</strong> %s</li>\n", orUnscheduled(booking.SessionDate))
	fmt.Fprintf(&b, "<li><strong>Time:</strong> %s</li>\n", orUnscheduled(booking.SessionTime))
	fmt.Fprintf(&b, "<li><strong>Duration:</strong> %d minutes</li>\n", booking.DurationMinutes)
	fmt.Fprintf(&b, "<li><strong>Session Type:</strong> %s</li>\n", sessionTypeLabel(booking.SessionType))
	fmt.Fprintf(&b, "<li><strong>Topic:</strong> %s</li>\n", booking.Topic)
	if withAmount {
		fmt.Fprintf(&b, "<li><strong>Amount:</strong> $%s</li>\n", booking.TotalAmount.StringFixed(2))
	}
	b.WriteString("</ul>\n")
	if booking.Description != nil && *booking.Description != "" {
		fmt.Fprintf(&b, "<p><strong>Description:</strong> %s</p>\n", *booking.Description)
	}
	return b.String()
}

func locationHTML(booking *models.Booking) string {
	if booking.SessionType == models.SessionTypeVideoCall && booking.MeetingLink != nil {
		return fmt.Sprintf(`<p><strong>Meeting Link:</strong> <a href="%s">%s</a></p>`, *booking.MeetingLink, *booking.MeetingLink)
	}
	if booking.SessionType == models.SessionTypeOnsite && booking.OnsiteAddress != nil {
		return fmt.Sprintf("<p><strong>Location:</strong> %s</p>", *booking.OnsiteAddress)
	}
	return ""
}

func sessionTypeLabel(sessionType string) string {
	switch sessionType {
	case models.SessionTypeVideoCall:
		return "Video Call"
	case models.SessionTypeOnsite:
		return "On-site"
	default:
		return "Other"
	}
}

func orUnscheduled(value *string) string {
	if value == nil || *value == "" {
		return "not scheduled"
	}
	return *value
}
