package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error)
	FindLive(ctx context.Context, tx *gorm.DB, sessionID uint, memberID uuid.UUID) (*models.Booking, error)
	CountByStatuses(ctx context.Context, tx *gorm.DB, sessionID uint, statuses ...models.BookingStatus) (int64, error)
	FindFirstWaitlisted(ctx context.Context, tx *gorm.DB, sessionID uint) (*models.Booking, error)
	WaitlistPosition(ctx context.Context, tx *gorm.DB, booking *models.Booking) (int, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, booking *models.Booking, status models.BookingStatus, reason string) error
	CancelLiveForSession(ctx context.Context, tx *gorm.DB, sessionID uint, reason string) (int64, error)
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uint) ([]models.Booking, error)
	ListByMember(ctx context.Context, tx *gorm.DB, memberID uuid.UUID, filter MemberBookingFilter) ([]models.MemberBookingView, int64, error)
}

type bookingRepository struct {
	now func() time.Time
}

func NewBookingRepository() BookingRepository {
	return &bookingRepository{now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }}
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	if booking.BookedAt.IsZero() {
		booking.BookedAt = r.now()
	}
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := tx.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := database.LockForUpdate(tx.WithContext(ctx)).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindLive(ctx context.Context, tx *gorm.DB, sessionID uint, memberID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := tx.WithContext(ctx).
		Where("session_id = ? AND member_id = ? AND status IN ?", sessionID, memberID, models.LiveBookingStatuses).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) CountByStatuses(ctx context.Context, tx *gorm.DB, sessionID uint, statuses ...models.BookingStatus) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("session_id = ? AND status IN ?", sessionID, statuses).
		Count(&count).Error
	return count, err
}

// FindFirstWaitlisted locks and returns the oldest waitlisted booking, first in first out.
func (r *bookingRepository) FindFirstWaitlisted(ctx context.Context, tx *gorm.DB, sessionID uint) (*models.Booking, error) {
	var booking models.Booking
	err := database.LockForUpdate(tx.WithContext(ctx)).
		Where("session_id = ? AND status = ?", sessionID, models.BookingWaitlisted).
		Order("booked_at ASC, id ASC").
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// WaitlistPosition is the 1-based place of a waitlisted booking in its
// session's queue.
func (r *bookingRepository) WaitlistPosition(ctx context.Context, tx *gorm.DB, booking *models.Booking) (int, error) {
	var ahead int64
	err := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("session_id = ? AND status = ?", booking.SessionID, models.BookingWaitlisted).
		Where("(booked_at < ? OR (booked_at = ? AND id < ?))", booking.BookedAt, booking.BookedAt, booking.ID).
		Count(&ahead).Error
	return int(ahead) + 1, err
}

// UpdateStatus applies the status to the row and to booking. Moving to
// cancelled stamps cancelled_at and records reason.
func (r *bookingRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, booking *models.Booking, status models.BookingStatus, reason string) error {
	fields := map[string]any{"status": status}
	var cancelledAt *time.Time
	if status == models.BookingCancelled {
		now := r.now()
		cancelledAt = &now
		fields["cancelled_at"] = now
		fields["cancel_reason"] = reason
	}

	if err := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", booking.ID).
		Updates(fields).Error; err != nil {
		return err
	}

	booking.Status = status
	if cancelledAt != nil {
		booking.CancelledAt = cancelledAt
		booking.CancelReason = reason
	}
	return nil
}

// CancelLiveForSession cancels every booked or waitlisted booking of the session.
func (r *bookingRepository) CancelLiveForSession(ctx context.Context, tx *gorm.DB, sessionID uint, reason string) (int64, error) {
	res := tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("session_id = ? AND status IN ?", sessionID, models.LiveBookingStatuses).
		Updates(map[string]any{
			"status":        models.BookingCancelled,
			"cancelled_at":  r.now(),
			"cancel_reason": reason,
		})
	return res.RowsAffected, res.Error
}

func (r *bookingRepository) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := tx.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("booked_at ASC, id ASC").
		Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

const memberBookingColumns = `b.id, b.session_id, b.member_id, b.status, b.booked_at, b.cancelled_at, b.cancel_reason,
	s.session_date, s.status AS session_status, s.branch_id,
	t.start_time, t.end_time, t.room,
	ct.id AS class_type_id, ct.name AS class_type_name, ct.color AS class_type_color, ct.icon AS class_type_icon`

func (r *bookingRepository) ListByMember(ctx context.Context, tx *gorm.DB, memberID uuid.UUID, filter MemberBookingFilter) ([]models.MemberBookingView, int64, error) {
	page := filter.Pagination.Normalize()

	filtered := func() *gorm.DB {
		q := tx.WithContext(ctx).
			Table("bookings AS b").
			Joins("JOIN sessions s ON s.id = b.session_id").
			Joins("JOIN schedule_templates t ON t.id = s.template_id").
			Joins("JOIN class_types ct ON ct.id = t.class_type_id").
			Where("b.member_id = ?", memberID)
		if filter.Status != nil {
			q = q.Where("b.status = ?", *filter.Status)
		}
		if filter.From != nil {
			q = q.Where("s.session_date >= ?", models.TruncateDate(*filter.From))
		}
		if filter.To != nil {
			q = q.Where("s.session_date <= ?", models.TruncateDate(*filter.To))
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	views := []models.MemberBookingView{}
	if err := filtered().
		Select(memberBookingColumns).
		Order("s.session_date DESC, t.start_time DESC, b.id DESC").
		Limit(page.PerPage).
		Offset(page.Offset()).
		Scan(&views).Error; err != nil {
		return nil, 0, err
	}
	return views, total, nil
}
