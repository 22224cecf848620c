package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"gorm.io/gorm"
)

type ClassTypeRepository interface {
	Create(ctx context.Context, tx *gorm.DB, ct *models.ClassType) error
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ClassType, error)
	List(ctx context.Context, tx *gorm.DB, filter ClassTypeFilter) ([]models.ClassType, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, fields map[string]any) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uint) error
	CountSessions(ctx context.Context, tx *gorm.DB, id uint) (int64, error)
	CountActiveTemplates(ctx context.Context, tx *gorm.DB, id uint) (int64, error)
}

type classTypeRepository struct{}

func NewClassTypeRepository() ClassTypeRepository {
	return &classTypeRepository{}
}

func (r *classTypeRepository) Create(ctx context.Context, tx *gorm.DB, ct *models.ClassType) error {
	return tx.WithContext(ctx).Create(ct).Error
}

func (r *classTypeRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ClassType, error) {
	var ct models.ClassType
	if err := tx.WithContext(ctx).First(&ct, id).Error; err != nil {
		return nil, err
	}
	return &ct, nil
}

func (r *classTypeRepository) List(ctx context.Context, tx *gorm.DB, filter ClassTypeFilter) ([]models.ClassType, error) {
	var types []models.ClassType
	q := tx.WithContext(ctx).Model(&models.ClassType{})
	if filter.BranchID != nil {
		if filter.IncludeShared {
			q = q.Where("branch_id = ? OR branch_id IS NULL", *filter.BranchID)
		} else {
			q = q.Where("branch_id = ?", *filter.BranchID)
		}
	}
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if err := q.Order("name ASC, id ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (r *classTypeRepository) Update(ctx context.Context, tx *gorm.DB, id uint, fields map[string]any) error {
	return tx.WithContext(ctx).
		Model(&models.ClassType{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// SoftDelete deactivates the type and stamps deleted_at.
func (r *classTypeRepository) SoftDelete(ctx context.Context, tx *gorm.DB, id uint) error {
	return tx.WithContext(ctx).
		Model(&models.ClassType{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": false, "deleted_at": time.Now().UTC()}).Error
}

// CountSessions counts sessions generated from any template of the class type,
// including soft-deleted templates.
func (r *classTypeRepository) CountSessions(ctx context.Context, tx *gorm.DB, id uint) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Session{}).
		Joins("JOIN schedule_templates t ON t.id = sessions.template_id").
		Where("t.class_type_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *classTypeRepository) CountActiveTemplates(ctx context.Context, tx *gorm.DB, id uint) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.ScheduleTemplate{}).
		Where("class_type_id = ? AND is_active = ?", id, true).
		Count(&count).Error
	return count, err
}
