package database

import (
	"fmt"
	"time"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	return db, nil
}

// Migrate creates the scheduling tables in the connection's current schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.ClassType{},
		&models.ScheduleTemplate{},
		&models.Session{},
		&models.Booking{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// A member holds at most one live (booked or waitlisted) booking per session.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_live
		ON bookings (session_id, member_id)
		WHERE status IN ('booked', 'waitlisted')
	`).Error; err != nil {
		return fmt.Errorf("create live booking index: %w", err)
	}

	return nil
}

// LockForUpdate scopes a query to take an exclusive row lock.
func LockForUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
