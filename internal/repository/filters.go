package repository

import (
	"time"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/google/uuid"
)

const (
	DefaultPerPage = 25
	MaxPerPage     = 200
)

// Pagination is 1-based. Zero values select page 1 and DefaultPerPage.
type Pagination struct {
	Page    int
	PerPage int
}

func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// ClassTypeFilter: nil fields do not filter. With IncludeShared, a branch filter
// also matches types whose branch is unset.
type ClassTypeFilter struct {
	BranchID      *uint
	IncludeShared bool
	Category      *string
	IsActive      *bool
}

type TemplateFilter struct {
	BranchID    *uint
	ClassTypeID *uint
	DayOfWeek   *int
	IsActive    *bool
}

// SessionFilter selects sessions for listing. From and To are inclusive dates.
type SessionFilter struct {
	BranchID     *uint
	From         *time.Time
	To           *time.Time
	ClassTypeID  *uint
	InstructorID *uuid.UUID
	Status       *models.SessionStatus
	Pagination
}

// MemberBookingFilter selects a member's bookings. From and To bound the
// session date, inclusive.
type MemberBookingFilter struct {
	Status *models.BookingStatus
	From   *time.Time
	To     *time.Time
	Pagination
}
