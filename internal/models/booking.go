package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusInitialized        BookingStatus = "initialized"
	BookingStatusCollectingPayments BookingStatus = "collecting_payments"
	BookingStatusReadyToBook        BookingStatus = "ready_to_book"
	BookingStatusInProgress         BookingStatus = "booking_in_progress"
	BookingStatusBooked             BookingStatus = "booked"
	BookingStatusCancelled          BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusReserved PaymentStatus = "reserved"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// FinalDetails is the snapshot of the winning proposal taken when the
// session is created. Later edits to the proposal or group must not change
// the terms the members agreed to pay for.
type FinalDetails struct {
	DepartureDate     time.Time `json:"departure_date"`
	ReturnDate        time.Time `json:"return_date"`
	TotalParticipants int       `json:"total_participants"`
	PricePerPerson    float64   `json:"price_per_person"`
	TotalPrice        float64   `json:"total_price"`
	Destination       string    `json:"destination"`
	HotelName         string    `json:"hotel_name"`
}

// FinalBooking is populated once, when an admin finalizes the booking.
type FinalBooking struct {
	BookingReference    string     `json:"booking_reference"`
	BookedAt            *time.Time `json:"booked_at"`
	BookedByID          uint       `json:"booked_by_id"`
	BookingConfirmation string     `json:"booking_confirmation"`
}

// BookingSession collects per-member payments for a group's winning
// proposal. The unique index on GroupID guarantees at most one session per
// group; the payment rows are fixed at creation and only change status.
type BookingSession struct {
	gorm.Model
	GroupID           uint          `json:"group_id" gorm:"uniqueIndex"`
	WinningProposalID uint          `json:"winning_proposal_id"`
	Status            BookingStatus `json:"status" gorm:"size:24;index"`
	FinalDetails      `json:"final_details" gorm:"embedded;embeddedPrefix:final_"`
	PaymentDeadline   time.Time `json:"payment_deadline"`
	Payments          []Payment `json:"payments" gorm:"foreignKey:SessionID"`
	FinalBooking      `json:"final_booking" gorm:"embedded;embeddedPrefix:booking_"`
}

// Payment is one member's payment obligation within a session. Rows are
// never removed; a member backing out flips the row to refunded.
type Payment struct {
	gorm.Model
	SessionID      uint          `json:"session_id" gorm:"uniqueIndex:idx_session_user"`
	UserID         uint          `json:"user_id" gorm:"uniqueIndex:idx_session_user"`
	Amount         float64       `json:"amount"`
	Status         PaymentStatus `json:"status" gorm:"size:16"`
	PaidAt         *time.Time    `json:"paid_at"`
	PaymentMethod  string        `json:"payment_method"`
	Notes          string        `json:"notes"`
	ReminderSentAt *time.Time    `json:"reminder_sent_at"`
}

// Counted reports whether the row counts toward collected money and
// readiness. Reserved spots count the same as paid ones.
func (p *Payment) Counted() bool {
	return p.Status == PaymentStatusPaid || p.Status == PaymentStatusReserved
}

// Payment returns the row for userID, if any.
func (s *BookingSession) Payment(userID uint) (*Payment, bool) {
	for i := range s.Payments {
		if s.Payments[i].UserID == userID {
			return &s.Payments[i], true
		}
	}
	return nil, false
}

func (s *BookingSession) PaidParticipants() int {
	n := 0
	for i := range s.Payments {
		if s.Payments[i].Counted() {
			n++
		}
	}
	return n
}

func (s *BookingSession) TotalCollected() float64 {
	var total float64
	for i := range s.Payments {
		if s.Payments[i].Counted() {
			total += s.Payments[i].Amount
		}
	}
	return total
}

// PaymentProgress is the share of settled rows as a whole percentage.
func (s *BookingSession) PaymentProgress() int {
	if len(s.Payments) == 0 {
		return 0
	}
	return int(math.Round(100 * float64(s.PaidParticipants()) / float64(len(s.Payments))))
}

// IsReadyToBook holds when every row is paid or reserved. An empty
// session is never ready.
func (s *BookingSession) IsReadyToBook() bool {
	if len(s.Payments) == 0 {
		return false
	}
	for i := range s.Payments {
		if !s.Payments[i].Counted() {
			return false
		}
	}
	return true
}

// RefreshStatus re-derives the collecting/ready status after a payment
// transition. It only toggles between those two states; booked and
// cancelled are terminal.
func (s *BookingSession) RefreshStatus() {
	switch s.Status {
	case BookingStatusInitialized, BookingStatusCollectingPayments:
		if s.IsReadyToBook() {
			s.Status = BookingStatusReadyToBook
		}
	case BookingStatusReadyToBook:
		if !s.IsReadyToBook() {
			s.Status = BookingStatusCollectingPayments
		}
	}
}

// CanSendReminder gates the reminder for one member to at most once per
// cool-down window.
func (s *BookingSession) CanSendReminder(userID uint, now time.Time, cooldown time.Duration) bool {
	p, ok := s.Payment(userID)
	if !ok {
		return false
	}
	if p.ReminderSentAt == nil {
		return true
	}
	return now.Sub(*p.ReminderSentAt) >= cooldown
}
