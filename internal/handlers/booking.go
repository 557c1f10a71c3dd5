package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/roamly/grouptrip-api/internal/auth"
	"github.com/roamly/grouptrip-api/internal/config"
	"github.com/roamly/grouptrip-api/internal/metrics"
	"github.com/roamly/grouptrip-api/internal/models"
	"github.com/roamly/grouptrip-api/internal/notifier"
	"gorm.io/gorm"
)

type BookingHandler struct {
	db          *gorm.DB
	notifier    notifier.Notifier
	authHandler *auth.AuthHandler
	cfg         *config.Config
}

func NewBookingHandler(db *gorm.DB, notifier notifier.Notifier, authHandler *auth.AuthHandler, cfg *config.Config) *BookingHandler {
	return &BookingHandler{db: db, notifier: notifier, authHandler: authHandler, cfg: cfg}
}

// loadSession fetches a booking session with its payment rows.
func loadSession(tx *gorm.DB, id uint) (*models.BookingSession, error) {
	var session models.BookingSession
	if err := tx.Preload("Payments").First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Booking session not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load booking session: " + err.Error())
	}
	return &session, nil
}

type SessionResponse struct {
	Body struct {
		models.BookingSession
		PaidParticipants int     `json:"paid_participants"`
		TotalCollected   float64 `json:"total_collected"`
		PaymentProgress  int     `json:"payment_progress"`
		IsReadyToBook    bool    `json:"is_ready_to_book"`
	}
}

func sessionResponse(session *models.BookingSession) *SessionResponse {
	res := &SessionResponse{}
	res.Body.BookingSession = *session
	res.Body.PaidParticipants = session.PaidParticipants()
	res.Body.TotalCollected = session.TotalCollected()
	res.Body.PaymentProgress = session.PaymentProgress()
	res.Body.IsReadyToBook = session.IsReadyToBook()
	return res
}

type InitializeBookingRequest struct {
	auth.AuthInput
	GroupID uint `path:"id"`
}

// HandleInitializeBooking creates the booking session for a decided group,
// or returns the existing one. Find-or-create keyed on the group makes the
// "start booking" action safe to retry.
func (h *BookingHandler) HandleInitializeBooking(ctx context.Context, input *InitializeBookingRequest) (*SessionResponse, error) {
	actorID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	var session models.BookingSession
	err = h.db.Transaction(func(tx *gorm.DB) error {
		group, err := loadGroup(tx, input.GroupID)
		if err != nil {
			return err
		}
		if !group.IsAdmin(actorID) {
			return huma.Error403Forbidden("Only a group admin can initialize booking")
		}

		err = tx.Preload("Payments").Where("group_id = ?", group.ID).First(&session).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if group.Status != models.GroupStatusDecided || group.WinningProposalID == nil {
			return huma.Error422UnprocessableEntity("Group has not decided on a winning proposal")
		}

		var winner models.Proposal
		if err := tx.First(&winner, *group.WinningProposalID).Error; err != nil {
			return err
		}

		deadlineDays := h.cfg.PaymentDeadlineDays
		if deadlineDays <= 0 {
			deadlineDays = 7
		}

		// Snapshot the terms now; later proposal or group edits must not
		// change what members agreed to pay.
		participants := group.MemberCount()
		session = models.BookingSession{
			GroupID:           group.ID,
			WinningProposalID: winner.ID,
			Status:            models.BookingStatusCollectingPayments,
			FinalDetails: models.FinalDetails{
				DepartureDate:     winner.DepartureDate,
				ReturnDate:        winner.ReturnDate,
				TotalParticipants: participants,
				PricePerPerson:    winner.PricePerPerson,
				TotalPrice:        winner.PricePerPerson * float64(participants),
				Destination:       winner.Destination,
				HotelName:         winner.HotelName,
			},
			PaymentDeadline: time.Now().AddDate(0, 0, deadlineDays),
		}
		for _, member := range group.Members {
			session.Payments = append(session.Payments, models.Payment{
				UserID: member.UserID,
				Amount: winner.PricePerPerson,
				Status: models.PaymentStatusPending,
			})
		}
		if err := tx.Create(&session).Error; err != nil {
			return err
		}

		group.Status = models.GroupStatusBooking
		return tx.Save(group).Error
	})
	if err != nil {
		return nil, wrapError(err, "Failed to initialize booking")
	}

	return sessionResponse(&session), nil
}

type GetSessionRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *BookingHandler) HandleGetSession(ctx context.Context, input *GetSessionRequest) (*SessionResponse, error) {
	if _, err := h.authHandler.Authorize(ctx, input.Cookie); err != nil {
		return nil, err
	}

	session, err := loadSession(h.db, input.ID)
	if err != nil {
		return nil, err
	}
	return sessionResponse(session), nil
}

// transitionPayment runs one payment-row mutation as a unit of work:
// reload the session, authorize the actor against the target row, apply
// the change, re-derive the session status, persist both.
func (h *BookingHandler) transitionPayment(sessionID, actorID, targetUserID uint, apply func(*models.Payment)) (*models.BookingSession, error) {
	var session *models.BookingSession
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var err error
		session, err = loadSession(tx, sessionID)
		if err != nil {
			return err
		}
		if session.Status == models.BookingStatusBooked || session.Status == models.BookingStatusCancelled {
			return huma.Error422UnprocessableEntity("Booking session is " + string(session.Status))
		}

		group, err := loadGroup(tx, session.GroupID)
		if err != nil {
			return err
		}
		if actorID != targetUserID && !group.IsAdmin(actorID) {
			return huma.Error403Forbidden("Only the member or a group admin can update this payment")
		}

		payment, ok := session.Payment(targetUserID)
		if !ok {
			return huma.Error404NotFound("Payment not found")
		}

		apply(payment)
		if err := tx.Save(payment).Error; err != nil {
			return err
		}

		// Readiness drives the workflow: derive it here rather than from a
		// polling job.
		session.RefreshStatus()
		return tx.Save(session).Error
	})
	if err != nil {
		return nil, wrapError(err, "Failed to update payment")
	}
	return session, nil
}

type ReserveSpotRequest struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body struct {
		UserID uint   `json:"user_id" doc:"Member whose spot to reserve" required:"true"`
		Notes  string `json:"notes" doc:"Optional note on the reservation"`
	}
}

func (h *BookingHandler) HandleReserveSpot(ctx context.Context, input *ReserveSpotRequest) (*SessionResponse, error) {
	actorID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	session, err := h.transitionPayment(input.ID, actorID, input.Body.UserID, func(p *models.Payment) {
		p.Status = models.PaymentStatusReserved
		if input.Body.Notes != "" {
			p.Notes = input.Body.Notes
		}
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentTransitions.WithLabelValues(string(models.PaymentStatusReserved)).Inc()
	return sessionResponse(session), nil
}

type MarkPaidRequest struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body struct {
		UserID        uint   `json:"user_id" doc:"Member whose payment to record" required:"true"`
		PaymentMethod string `json:"payment_method" doc:"How the money arrived (transfer, cash, ...)" required:"true"`
		Notes         string `json:"notes" doc:"Optional note on the payment"`
	}
}

func (h *BookingHandler) HandleMarkPaid(ctx context.Context, input *MarkPaidRequest) (*SessionResponse, error) {
	actorID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session, err := h.transitionPayment(input.ID, actorID, input.Body.UserID, func(p *models.Payment) {
		p.Status = models.PaymentStatusPaid
		p.PaidAt = &now
		p.PaymentMethod = input.Body.PaymentMethod
		if input.Body.Notes != "" {
			p.Notes = input.Body.Notes
		}
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentTransitions.WithLabelValues(string(models.PaymentStatusPaid)).Inc()
	return sessionResponse(session), nil
}

type CancelParticipationRequest struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body struct {
		UserID uint `json:"user_id" doc:"Member cancelling their participation" required:"true"`
	}
}

// HandleCancelParticipation flips the member's row to refunded. The row
// stays in the session; no money moves here.
func (h *BookingHandler) HandleCancelParticipation(ctx context.Context, input *CancelParticipationRequest) (*SessionResponse, error) {
	actorID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	session, err := h.transitionPayment(input.ID, actorID, input.Body.UserID, func(p *models.Payment) {
		p.Status = models.PaymentStatusRefunded
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentTransitions.WithLabelValues(string(models.PaymentStatusRefunded)).Inc()
	return sessionResponse(session), nil
}

type SendReminderRequest struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body struct {
		UserID uint `json:"user_id" doc:"Member to remind" required:"true"`
	}
}

func (h *BookingHandler) HandleSendReminder(ctx context.Context, input *SendReminderRequest) (*MessageResponse, error) {
	actorID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	cooldown := time.Duration(h.cfg.ReminderCooldownHours) * time.Hour
	if cooldown <= 0 {
		cooldown = 24 * time.Hour
	}

	var session *models.BookingSession
	var target models.User
	err = h.db.Transaction(func(tx *gorm.DB) error {
		session, err = loadSession(tx, input.ID)
		if err != nil {
			return err
		}

		group, err := loadGroup(tx, session.GroupID)
		if err != nil {
			return err
		}
		if !group.IsAdmin(actorID) {
			return huma.Error403Forbidden("Only a group admin can send reminders")
		}

		payment, ok := session.Payment(input.Body.UserID)
		if !ok {
			return huma.Error404NotFound("Payment not found")
		}
		if !session.CanSendReminder(input.Body.UserID, time.Now(), cooldown) {
			return huma.Error429TooManyRequests("A reminder was already sent recently")
		}

		if err := tx.First(&target, input.Body.UserID).Error; err != nil {
			return err
		}

		now := time.Now()
		payment.ReminderSentAt = &now
		return tx.Save(payment).Error
	})
	if err != nil {
		return nil, wrapError(err, "Failed to send reminder")
	}

	if h.notifier != nil {
		payment, _ := session.Payment(input.Body.UserID)
		if err := h.notifier.NotifyPaymentReminder(target, *payment, *session); err != nil {
			slog.Warn("Failed to deliver payment reminder", "session_id", session.ID, "user_id", target.ID, "error", err)
		}
	}

	return messageResponse("Reminder recorded"), nil
}

type FinalizeBookingRequest struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body struct {
		ConfirmationData string `json:"confirmation_data" doc:"Booking reference from the travel provider (generated when empty)"`
		Notes            string `json:"notes" doc:"Confirmation details to keep with the booking"`
	}
}

func (h *BookingHandler) HandleFinalizeBooking(ctx context.Context, input *FinalizeBookingRequest) (*SessionResponse, error) {
	actorID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	var session *models.BookingSession
	var group *models.Group
	err = h.db.Transaction(func(tx *gorm.DB) error {
		session, err = loadSession(tx, input.ID)
		if err != nil {
			return err
		}
		if session.Status == models.BookingStatusBooked {
			return huma.Error409Conflict("Booking is already finalized")
		}
		if session.Status == models.BookingStatusCancelled {
			return huma.Error422UnprocessableEntity("Booking session is cancelled")
		}

		group, err = loadGroup(tx, session.GroupID)
		if err != nil {
			return err
		}
		if !group.IsAdmin(actorID) {
			return huma.Error403Forbidden("Only a group admin can finalize the booking")
		}

		reference := input.Body.ConfirmationData
		if reference == "" {
			reference = uuid.NewString()
		}

		now := time.Now()
		session.Status = models.BookingStatusBooked
		session.FinalBooking = models.FinalBooking{
			BookingReference:    reference,
			BookedAt:            &now,
			BookedByID:          actorID,
			BookingConfirmation: input.Body.Notes,
		}
		if err := tx.Save(session).Error; err != nil {
			return err
		}

		group.Status = models.GroupStatusBooked
		return tx.Save(group).Error
	})
	if err != nil {
		return nil, wrapError(err, "Failed to finalize booking")
	}

	metrics.BookingsFinalized.Inc()

	if h.notifier != nil {
		if err := h.notifier.NotifyBookingFinalized(*group, *session); err != nil {
			slog.Warn("Failed to send booking notification", "session_id", session.ID, "error", err)
		}
	}

	return sessionResponse(session), nil
}
