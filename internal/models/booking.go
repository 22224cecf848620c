package models

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingBooked     BookingStatus = "booked"
	BookingWaitlisted BookingStatus = "waitlisted"
	BookingAttended   BookingStatus = "attended"
	BookingNoShow     BookingStatus = "no_show"
	BookingCancelled  BookingStatus = "cancelled"
)

// AllBookingStatuses lists every booking status in display order.
var AllBookingStatuses = []BookingStatus{
	BookingBooked,
	BookingWaitlisted,
	BookingAttended,
	BookingNoShow,
	BookingCancelled,
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingBooked:     {BookingAttended, BookingNoShow, BookingCancelled},
	BookingWaitlisted: {BookingBooked, BookingCancelled},
}

// LiveBookingStatuses hold a seat or a waitlist place.
var LiveBookingStatuses = []BookingStatus{BookingBooked, BookingWaitlisted}

// SeatHoldingStatuses count against a session's capacity.
var SeatHoldingStatuses = []BookingStatus{BookingBooked, BookingAttended}

func (s BookingStatus) Valid() bool {
	for _, st := range AllBookingStatuses {
		if st == s {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsLive() bool {
	return s == BookingBooked || s == BookingWaitlisted
}

func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// CanTransitionTo reports whether the booking state machine allows s -> next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// FreesSeat reports whether moving from s to next releases a confirmed seat.
func (s BookingStatus) FreesSeat(next BookingStatus) bool {
	return s == BookingBooked && (next == BookingCancelled || next == BookingNoShow)
}

type Booking struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	SessionID    uint          `gorm:"not null;index" json:"session_id"`
	MemberID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"member_id"`
	Status       BookingStatus `gorm:"type:varchar(20);not null;default:'booked'" json:"status"`
	BookedAt     time.Time     `gorm:"not null" json:"booked_at"`
	CancelledAt  *time.Time    `json:"cancelled_at,omitempty"`
	CancelReason string        `gorm:"type:text" json:"cancel_reason,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	Session *Session `gorm:"foreignKey:SessionID" json:"session,omitempty"`
}
