package models

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCancelled SessionStatus = "cancelled"
	SessionCompleted SessionStatus = "completed"
)

// CancelledBySessionReason is recorded on bookings cancelled by a session cancel.
const CancelledBySessionReason = "Session cancelled"

var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionScheduled: {SessionCancelled, SessionCompleted},
}

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionCancelled, SessionCompleted:
		return true
	}
	return false
}

func (s SessionStatus) IsTerminal() bool {
	return len(sessionTransitions[s]) == 0
}

// CanTransitionTo reports whether the session state machine allows s -> next.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Session is one dated occurrence of a ScheduleTemplate.
// At most one session exists per (template_id, session_date).
type Session struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	TemplateID       uint          `gorm:"not null;uniqueIndex:idx_session_template_date" json:"template_id"`
	BranchID         uint          `gorm:"not null;index" json:"branch_id"`
	SessionDate      time.Time     `gorm:"type:date;not null;uniqueIndex:idx_session_template_date;index" json:"session_date"`
	InstructorID     *uuid.UUID    `gorm:"type:uuid" json:"instructor_id,omitempty"`
	CapacityOverride *int          `json:"capacity_override,omitempty"`
	Status           SessionStatus `gorm:"type:varchar(20);not null;default:'scheduled'" json:"status"`
	Notes            string        `gorm:"type:text" json:"notes,omitempty"`
	CancelledReason  string        `gorm:"type:text" json:"cancelled_reason,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`

	Template *ScheduleTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
}

// EffectiveCapacity is the per-occurrence override, falling back to the template capacity.
func (s *Session) EffectiveCapacity(templateCapacity int) int {
	if s.CapacityOverride != nil {
		return *s.CapacityOverride
	}
	return templateCapacity
}
