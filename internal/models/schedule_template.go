package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScheduleTemplate is a weekly rule from which sessions are generated.
// DayOfWeek follows time.Weekday: 0 is Sunday.
type ScheduleTemplate struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	ClassTypeID  uint           `gorm:"not null;index" json:"class_type_id"`
	BranchID     uint           `gorm:"not null;index:idx_template_branch_active" json:"branch_id"`
	InstructorID *uuid.UUID     `gorm:"type:uuid" json:"instructor_id,omitempty"`
	Room         string         `gorm:"type:varchar(100)" json:"room"`
	DayOfWeek    int            `gorm:"not null" json:"day_of_week"`
	StartTime    string         `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime      string         `gorm:"type:varchar(5);not null" json:"end_time"`
	Capacity     int            `gorm:"not null" json:"capacity"`
	IsRecurring  bool           `gorm:"not null" json:"is_recurring"`
	ValidFrom    *time.Time     `gorm:"type:date" json:"valid_from,omitempty"`
	ValidUntil   *time.Time     `gorm:"type:date" json:"valid_until,omitempty"`
	IsActive     bool           `gorm:"not null;index:idx_template_branch_active" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	ClassType *ClassType `gorm:"foreignKey:ClassTypeID" json:"class_type,omitempty"`
}

// Weekday returns the template's day as a time.Weekday.
func (t *ScheduleTemplate) Weekday() time.Weekday {
	return time.Weekday(t.DayOfWeek)
}

// ActiveOn reports whether date falls inside the template's optional bounds.
func (t *ScheduleTemplate) ActiveOn(date time.Time) bool {
	if t.ValidFrom != nil && date.Before(TruncateDate(*t.ValidFrom)) {
		return false
	}
	if t.ValidUntil != nil && date.After(TruncateDate(*t.ValidUntil)) {
		return false
	}
	return true
}
