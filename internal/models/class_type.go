package models

import (
	"time"

	"gorm.io/gorm"
)

// ClassType is catalog metadata shared by templates. A nil BranchID means the
// type is shared across all branches of the tenant.
type ClassType struct {
	ID                     uint           `gorm:"primaryKey" json:"id"`
	BranchID               *uint          `gorm:"index" json:"branch_id,omitempty"`
	Name                   string         `gorm:"type:varchar(120);not null" json:"name"`
	Category               string         `gorm:"type:varchar(60)" json:"category"`
	DefaultDurationMinutes int            `gorm:"not null" json:"default_duration_minutes"`
	DefaultCapacity        int            `gorm:"not null" json:"default_capacity"`
	Color                  string         `gorm:"type:varchar(20)" json:"color,omitempty"`
	Icon                   string         `gorm:"type:varchar(60)" json:"icon,omitempty"`
	IsActive               bool           `gorm:"not null" json:"is_active"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`
}
