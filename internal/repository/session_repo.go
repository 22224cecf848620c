package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository interface {
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Session, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Session, error)
	Exists(ctx context.Context, tx *gorm.DB, templateID uint, date time.Time) (bool, error)
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, session *models.Session) (bool, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, fields map[string]any) error
	CountForTemplate(ctx context.Context, tx *gorm.DB, templateID uint) (int64, error)
	LockInheritingCapacity(ctx context.Context, tx *gorm.DB, templateID uint) ([]models.Session, error)
	FindView(ctx context.Context, tx *gorm.DB, id uint) (*models.SessionView, error)
	List(ctx context.Context, tx *gorm.DB, filter SessionFilter) ([]models.SessionView, int64, error)
}

type sessionRepository struct{}

func NewSessionRepository() SessionRepository {
	return &sessionRepository{}
}

const sessionViewColumns = `s.id, s.template_id, s.branch_id, s.session_date, s.instructor_id,
	s.status, s.notes, s.cancelled_reason, s.capacity_override,
	t.start_time, t.end_time, t.room,
	COALESCE(s.capacity_override, t.capacity) AS effective_capacity,
	(SELECT COUNT(*) FROM bookings b WHERE b.session_id = s.id AND b.status IN ('booked', 'attended')) AS booked_count,
	(SELECT COUNT(*) FROM bookings b WHERE b.session_id = s.id AND b.status = 'waitlisted') AS waitlist_count,
	ct.id AS class_type_id, ct.name AS class_type_name, ct.color AS class_type_color, ct.icon AS class_type_icon`

func (r *sessionRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Session, error) {
	var session models.Session
	if err := tx.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// FindByIDForUpdate acquires a row-level lock on the session within the given transaction.
func (r *sessionRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Session, error) {
	var session models.Session
	if err := database.LockForUpdate(tx.WithContext(ctx)).First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Exists(ctx context.Context, tx *gorm.DB, templateID uint, date time.Time) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Session{}).
		Where("template_id = ? AND session_date = ?", templateID, date).
		Count(&count).Error
	return count > 0, err
}

// CreateIfAbsent inserts the session unless (template_id, session_date) is taken.
// It reports whether a row was inserted.
func (r *sessionRepository) CreateIfAbsent(ctx context.Context, tx *gorm.DB, session *models.Session) (bool, error) {
	res := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(session)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *sessionRepository) Update(ctx context.Context, tx *gorm.DB, id uint, fields map[string]any) error {
	return tx.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *sessionRepository) CountForTemplate(ctx context.Context, tx *gorm.DB, templateID uint) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Session{}).
		Where("template_id = ?", templateID).
		Count(&count).Error
	return count, err
}

// LockInheritingCapacity locks, in id order, the scheduled sessions of a
// template whose capacity comes from the template itself.
func (r *sessionRepository) LockInheritingCapacity(ctx context.Context, tx *gorm.DB, templateID uint) ([]models.Session, error) {
	var sessions []models.Session
	err := database.LockForUpdate(tx.WithContext(ctx)).
		Where("template_id = ? AND status = ? AND capacity_override IS NULL", templateID, models.SessionScheduled).
		Order("id ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *sessionRepository) viewQuery(ctx context.Context, tx *gorm.DB) *gorm.DB {
	return tx.WithContext(ctx).
		Table("sessions AS s").
		Joins("JOIN schedule_templates t ON t.id = s.template_id").
		Joins("JOIN class_types ct ON ct.id = t.class_type_id")
}

func (r *sessionRepository) FindView(ctx context.Context, tx *gorm.DB, id uint) (*models.SessionView, error) {
	var views []models.SessionView
	if err := r.viewQuery(ctx, tx).
		Select(sessionViewColumns).
		Where("s.id = ?", id).
		Limit(1).
		Scan(&views).Error; err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &views[0], nil
}

func (r *sessionRepository) List(ctx context.Context, tx *gorm.DB, filter SessionFilter) ([]models.SessionView, int64, error) {
	page := filter.Pagination.Normalize()

	filtered := func() *gorm.DB {
		q := r.viewQuery(ctx, tx)
		if filter.BranchID != nil {
			q = q.Where("s.branch_id = ?", *filter.BranchID)
		}
		if filter.From != nil {
			q = q.Where("s.session_date >= ?", models.TruncateDate(*filter.From))
		}
		if filter.To != nil {
			q = q.Where("s.session_date <= ?", models.TruncateDate(*filter.To))
		}
		if filter.ClassTypeID != nil {
			q = q.Where("t.class_type_id = ?", *filter.ClassTypeID)
		}
		if filter.InstructorID != nil {
			q = q.Where("s.instructor_id = ?", *filter.InstructorID)
		}
		if filter.Status != nil {
			q = q.Where("s.status = ?", *filter.Status)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	views := []models.SessionView{}
	if err := filtered().
		Select(sessionViewColumns).
		Order("s.session_date ASC, t.start_time ASC, s.id ASC").
		Limit(page.PerPage).
		Offset(page.Offset()).
		Scan(&views).Error; err != nil {
		return nil, 0, err
	}
	return views, total, nil
}
