package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"gorm.io/gorm"
)

type TemplateRepository interface {
	Create(ctx context.Context, tx *gorm.DB, tpl *models.ScheduleTemplate) error
	FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ScheduleTemplate, error)
	FindByIDUnscoped(ctx context.Context, tx *gorm.DB, id uint) (*models.ScheduleTemplate, error)
	List(ctx context.Context, tx *gorm.DB, filter TemplateFilter) ([]models.ScheduleTemplate, error)
	FindActive(ctx context.Context, tx *gorm.DB, branchID, templateID *uint) ([]models.ScheduleTemplate, error)
	Update(ctx context.Context, tx *gorm.DB, id uint, fields map[string]any) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uint) error
}

type templateRepository struct{}

func NewTemplateRepository() TemplateRepository {
	return &templateRepository{}
}

func (r *templateRepository) Create(ctx context.Context, tx *gorm.DB, tpl *models.ScheduleTemplate) error {
	return tx.WithContext(ctx).Create(tpl).Error
}

func (r *templateRepository) FindByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ScheduleTemplate, error) {
	var tpl models.ScheduleTemplate
	if err := tx.WithContext(ctx).First(&tpl, id).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

// FindByIDUnscoped also returns soft-deleted templates. Sessions outlive the
// template that produced them and still need its capacity and times.
func (r *templateRepository) FindByIDUnscoped(ctx context.Context, tx *gorm.DB, id uint) (*models.ScheduleTemplate, error) {
	var tpl models.ScheduleTemplate
	if err := tx.WithContext(ctx).Unscoped().First(&tpl, id).Error; err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *templateRepository) List(ctx context.Context, tx *gorm.DB, filter TemplateFilter) ([]models.ScheduleTemplate, error) {
	var templates []models.ScheduleTemplate
	q := tx.WithContext(ctx).Model(&models.ScheduleTemplate{})
	if filter.BranchID != nil {
		q = q.Where("branch_id = ?", *filter.BranchID)
	}
	if filter.ClassTypeID != nil {
		q = q.Where("class_type_id = ?", *filter.ClassTypeID)
	}
	if filter.DayOfWeek != nil {
		q = q.Where("day_of_week = ?", *filter.DayOfWeek)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if err := q.Order("day_of_week ASC, start_time ASC, id ASC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// FindActive returns active, non-deleted templates for session generation.
func (r *templateRepository) FindActive(ctx context.Context, tx *gorm.DB, branchID, templateID *uint) ([]models.ScheduleTemplate, error) {
	active := true
	filter := TemplateFilter{BranchID: branchID, IsActive: &active}
	if templateID == nil {
		return r.List(ctx, tx, filter)
	}

	var templates []models.ScheduleTemplate
	q := tx.WithContext(ctx).Where("id = ? AND is_active = ?", *templateID, true)
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	if err := q.Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepository) Update(ctx context.Context, tx *gorm.DB, id uint, fields map[string]any) error {
	return tx.WithContext(ctx).
		Model(&models.ScheduleTemplate{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *templateRepository) SoftDelete(ctx context.Context, tx *gorm.DB, id uint) error {
	return tx.WithContext(ctx).
		Model(&models.ScheduleTemplate{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": false, "deleted_at": time.Now().UTC()}).Error
}
