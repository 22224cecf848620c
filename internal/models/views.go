package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionView is a session joined with its template and class type, with
// seat counts computed at read time.
type SessionView struct {
	ID                uint          `json:"id"`
	TemplateID        uint          `json:"template_id"`
	BranchID          uint          `json:"branch_id"`
	SessionDate       time.Time     `json:"session_date"`
	StartTime         string        `json:"start_time"`
	EndTime           string        `json:"end_time"`
	Room              string        `json:"room"`
	InstructorID      *uuid.UUID    `json:"instructor_id,omitempty"`
	Status            SessionStatus `json:"status"`
	Notes             string        `json:"notes,omitempty"`
	CancelledReason   string        `json:"cancelled_reason,omitempty"`
	CapacityOverride  *int          `json:"capacity_override,omitempty"`
	EffectiveCapacity int           `json:"effective_capacity"`
	BookedCount       int64         `json:"booked_count"`
	WaitlistCount     int64         `json:"waitlist_count"`
	ClassTypeID       uint          `json:"class_type_id"`
	ClassTypeName     string        `json:"class_type_name"`
	ClassTypeColor    string        `json:"class_type_color,omitempty"`
	ClassTypeIcon     string        `json:"class_type_icon,omitempty"`
}

// MemberBookingView is a booking with the display fields of its session.
type MemberBookingView struct {
	ID             uint          `json:"id"`
	SessionID      uint          `json:"session_id"`
	MemberID       uuid.UUID     `json:"member_id"`
	Status         BookingStatus `json:"status"`
	BookedAt       time.Time     `json:"booked_at"`
	CancelledAt    *time.Time    `json:"cancelled_at,omitempty"`
	CancelReason   string        `json:"cancel_reason,omitempty"`
	SessionDate    time.Time     `json:"session_date"`
	SessionStatus  SessionStatus `json:"session_status"`
	StartTime      string        `json:"start_time"`
	EndTime        string        `json:"end_time"`
	Room           string        `json:"room"`
	BranchID       uint          `json:"branch_id"`
	ClassTypeID    uint          `json:"class_type_id"`
	ClassTypeName  string        `json:"class_type_name"`
	ClassTypeColor string        `json:"class_type_color,omitempty"`
	ClassTypeIcon  string        `json:"class_type_icon,omitempty"`
}

type Page[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}
