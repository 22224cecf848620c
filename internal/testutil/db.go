// Package testutil provides an in-memory store for service and repository tests.
package testutil

import (
	"testing"
	"time"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const Tenant = "acme"

// NewDB opens a private in-memory SQLite database with the scheduling schema.
// The pool is pinned to one connection, so concurrent transactions run one at a
// time; row locks are not emitted by the SQLite dialect.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS users (id TEXT PRIMARY KEY, full_name TEXT)`).Error)
	return db
}

func Date(s string) time.Time {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func CreateClassType(t *testing.T, db *gorm.DB, name string) *models.ClassType {
	t.Helper()
	ct := &models.ClassType{
		Name:                   name,
		Category:               "cardio",
		DefaultDurationMinutes: 45,
		DefaultCapacity:        20,
		Color:                  "#ff6600",
		Icon:                   "bike",
		IsActive:               true,
	}
	require.NoError(t, db.Create(ct).Error)
	return ct
}

func CreateTemplate(t *testing.T, db *gorm.DB, classTypeID uint, dayOfWeek, capacity int) *models.ScheduleTemplate {
	t.Helper()
	tpl := &models.ScheduleTemplate{
		ClassTypeID: classTypeID,
		BranchID:    1,
		Room:        "Studio A",
		DayOfWeek:   dayOfWeek,
		StartTime:   "07:00",
		EndTime:     "07:45",
		Capacity:    capacity,
		IsRecurring: true,
		IsActive:    true,
	}
	require.NoError(t, db.Create(tpl).Error)
	return tpl
}

func CreateSession(t *testing.T, db *gorm.DB, tpl *models.ScheduleTemplate, date string) *models.Session {
	t.Helper()
	s := &models.Session{
		TemplateID:   tpl.ID,
		BranchID:     tpl.BranchID,
		SessionDate:  Date(date),
		InstructorID: tpl.InstructorID,
		Status:       models.SessionScheduled,
	}
	require.NoError(t, db.Create(s).Error)
	return s
}

func CreateUser(t *testing.T, db *gorm.DB, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec(`INSERT INTO users (id, full_name) VALUES (?, ?)`, id.String(), name).Error)
	return id
}
