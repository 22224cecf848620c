package dto

import (
	"time"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/service"
	"github.com/google/uuid"
)

type ClassTypeResponse struct {
	ID                     uint      `json:"id"`
	BranchID               *uint     `json:"branch_id"`
	Name                   string    `json:"name"`
	Category               string    `json:"category"`
	DefaultDurationMinutes int       `json:"default_duration_minutes"`
	DefaultCapacity        int       `json:"default_capacity"`
	Color                  string    `json:"color,omitempty"`
	Icon                   string    `json:"icon,omitempty"`
	IsActive               bool      `json:"is_active"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

type TemplateResponse struct {
	ID           uint       `json:"id"`
	ClassTypeID  uint       `json:"class_type_id"`
	BranchID     uint       `json:"branch_id"`
	InstructorID *uuid.UUID `json:"instructor_id"`
	Room         string     `json:"room"`
	DayOfWeek    int        `json:"day_of_week"`
	StartTime    string     `json:"start_time"`
	EndTime      string     `json:"end_time"`
	Capacity     int        `json:"capacity"`
	IsRecurring  bool       `json:"is_recurring"`
	ValidFrom    *string    `json:"valid_from"`
	ValidUntil   *string    `json:"valid_until"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type SessionResponse struct {
	ID                uint                 `json:"id"`
	TemplateID        uint                 `json:"template_id"`
	BranchID          uint                 `json:"branch_id"`
	SessionDate       string               `json:"session_date"`
	StartTime         string               `json:"start_time"`
	EndTime           string               `json:"end_time"`
	Room              string               `json:"room"`
	InstructorID      *uuid.UUID           `json:"instructor_id"`
	Status            models.SessionStatus `json:"status"`
	Notes             string               `json:"notes,omitempty"`
	CancelledReason   string               `json:"cancelled_reason,omitempty"`
	CapacityOverride  *int                 `json:"capacity_override"`
	EffectiveCapacity int                  `json:"effective_capacity"`
	BookedCount       int64                `json:"booked_count"`
	WaitlistCount     int64                `json:"waitlist_count"`
	ClassType         ClassTypeSummary     `json:"class_type"`
}

type ClassTypeSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

type BookingResponse struct {
	ID           uint                 `json:"id"`
	SessionID    uint                 `json:"session_id"`
	MemberID     uuid.UUID            `json:"member_id"`
	MemberName   string               `json:"member_name,omitempty"`
	Status       models.BookingStatus `json:"status"`
	BookedAt     time.Time            `json:"booked_at"`
	CancelledAt  *time.Time           `json:"cancelled_at,omitempty"`
	CancelReason string               `json:"cancel_reason,omitempty"`
}

type BookResponse struct {
	Booking    BookingResponse `json:"booking"`
	Waitlisted bool            `json:"waitlisted"`
	Position   *int            `json:"position"`
	Message    string          `json:"message"`
}

type SessionBookingsResponse struct {
	Bookings []BookingResponse           `json:"bookings"`
	Summary  map[models.BookingStatus]int `json:"summary"`
}

type MemberBookingResponse struct {
	BookingResponse
	Session MemberSessionSummary `json:"session"`
}

type MemberSessionSummary struct {
	SessionDate string               `json:"session_date"`
	Status      models.SessionStatus `json:"status"`
	StartTime   string               `json:"start_time"`
	EndTime     string               `json:"end_time"`
	Room        string               `json:"room"`
	BranchID    uint                 `json:"branch_id"`
	ClassType   ClassTypeSummary     `json:"class_type"`
}

type GenerateSessionsResponse struct {
	Created int `json:"created"`
}

type PageResponse[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

func ToClassTypeResponse(ct *models.ClassType) ClassTypeResponse {
	return ClassTypeResponse{
		ID:                     ct.ID,
		BranchID:               ct.BranchID,
		Name:                   ct.Name,
		Category:               ct.Category,
		DefaultDurationMinutes: ct.DefaultDurationMinutes,
		DefaultCapacity:        ct.DefaultCapacity,
		Color:                  ct.Color,
		Icon:                   ct.Icon,
		IsActive:               ct.IsActive,
		CreatedAt:              ct.CreatedAt,
		UpdatedAt:              ct.UpdatedAt,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(models.DateLayout)
	return &s
}

func ToTemplateResponse(t *models.ScheduleTemplate) TemplateResponse {
	return TemplateResponse{
		ID:           t.ID,
		ClassTypeID:  t.ClassTypeID,
		BranchID:     t.BranchID,
		InstructorID: t.InstructorID,
		Room:         t.Room,
		DayOfWeek:    t.DayOfWeek,
		StartTime:    t.StartTime,
		EndTime:      t.EndTime,
		Capacity:     t.Capacity,
		IsRecurring:  t.IsRecurring,
		ValidFrom:    formatDate(t.ValidFrom),
		ValidUntil:   formatDate(t.ValidUntil),
		IsActive:     t.IsActive,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func ToSessionResponse(v *models.SessionView) SessionResponse {
	return SessionResponse{
		ID:                v.ID,
		TemplateID:        v.TemplateID,
		BranchID:          v.BranchID,
		SessionDate:       v.SessionDate.Format(models.DateLayout),
		StartTime:         v.StartTime,
		EndTime:           v.EndTime,
		Room:              v.Room,
		InstructorID:      v.InstructorID,
		Status:            v.Status,
		Notes:             v.Notes,
		CancelledReason:   v.CancelledReason,
		CapacityOverride:  v.CapacityOverride,
		EffectiveCapacity: v.EffectiveCapacity,
		BookedCount:       v.BookedCount,
		WaitlistCount:     v.WaitlistCount,
		ClassType: ClassTypeSummary{
			ID:    v.ClassTypeID,
			Name:  v.ClassTypeName,
			Color: v.ClassTypeColor,
			Icon:  v.ClassTypeIcon,
		},
	}
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:           b.ID,
		SessionID:    b.SessionID,
		MemberID:     b.MemberID,
		Status:       b.Status,
		BookedAt:     b.BookedAt,
		CancelledAt:  b.CancelledAt,
		CancelReason: b.CancelReason,
	}
}

func ToBookResponse(r *service.BookResult) BookResponse {
	return BookResponse{
		Booking:    ToBookingResponse(r.Booking),
		Waitlisted: r.Waitlisted,
		Position:   r.Position,
		Message:    r.Message,
	}
}

func ToSessionBookingsResponse(sb *service.SessionBookings) SessionBookingsResponse {
	resp := SessionBookingsResponse{
		Bookings: make([]BookingResponse, len(sb.Bookings)),
		Summary:  sb.Summary,
	}
	for i := range sb.Bookings {
		resp.Bookings[i] = ToBookingResponse(&sb.Bookings[i].Booking)
		resp.Bookings[i].MemberName = sb.Bookings[i].MemberName
	}
	return resp
}

func ToMemberBookingResponse(v *models.MemberBookingView) MemberBookingResponse {
	return MemberBookingResponse{
		BookingResponse: BookingResponse{
			ID:           v.ID,
			SessionID:    v.SessionID,
			MemberID:     v.MemberID,
			Status:       v.Status,
			BookedAt:     v.BookedAt,
			CancelledAt:  v.CancelledAt,
			CancelReason: v.CancelReason,
		},
		Session: MemberSessionSummary{
			SessionDate: v.SessionDate.Format(models.DateLayout),
			Status:      v.SessionStatus,
			StartTime:   v.StartTime,
			EndTime:     v.EndTime,
			Room:        v.Room,
			BranchID:    v.BranchID,
			ClassType: ClassTypeSummary{
				ID:    v.ClassTypeID,
				Name:  v.ClassTypeName,
				Color: v.ClassTypeColor,
				Icon:  v.ClassTypeIcon,
			},
		},
	}
}

// ToPageResponse converts a page of models with conv.
func ToPageResponse[M, R any](p *models.Page[M], conv func(*M) R) PageResponse[R] {
	items := make([]R, len(p.Items))
	for i := range p.Items {
		items[i] = conv(&p.Items[i])
	}
	return PageResponse[R]{Items: items, Total: p.Total, Page: p.Page, PerPage: p.PerPage}
}
