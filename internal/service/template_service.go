package service

import (
	"context"
	"time"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/apperrors"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/database"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const clockLayout = "15:04"

// TemplatePatch is a sparse update; nil fields are left unchanged.
// ClearX flags null out the optional fields.
type TemplatePatch struct {
	ClassTypeID     *uint
	BranchID        *uint
	InstructorID    *uuid.UUID
	ClearInstructor bool
	Room            *string
	DayOfWeek       *int
	StartTime       *string
	EndTime         *string
	Capacity        *int
	IsRecurring     *bool
	ValidFrom       *time.Time
	ClearValidFrom  bool
	ValidUntil      *time.Time
	ClearValidUntil bool
	IsActive        *bool
}

type TemplateService interface {
	Create(ctx context.Context, tenant string, tpl *models.ScheduleTemplate) error
	Get(ctx context.Context, tenant string, id uint) (*models.ScheduleTemplate, error)
	List(ctx context.Context, tenant string, filter repository.TemplateFilter) ([]models.ScheduleTemplate, error)
	Update(ctx context.Context, tenant string, id uint, patch TemplatePatch) (*models.ScheduleTemplate, error)
	Delete(ctx context.Context, tenant string, id uint) error
}

type templateService struct {
	runner database.TenantRunner
	repos  repository.Repositories
	log    logrus.FieldLogger
}

func NewTemplateService(runner database.TenantRunner, repos repository.Repositories, log logrus.FieldLogger) TemplateService {
	return &templateService{runner: runner, repos: repos, log: log}
}

func validateTemplate(tpl *models.ScheduleTemplate) error {
	details := map[string]any{}
	if tpl.BranchID == 0 {
		details["branch_id"] = "is required"
	}
	if tpl.DayOfWeek < 0 || tpl.DayOfWeek > 6 {
		details["day_of_week"] = "must be between 0 (Sunday) and 6 (Saturday)"
	}
	start, startErr := time.Parse(clockLayout, tpl.StartTime)
	if startErr != nil {
		details["start_time"] = "must be HH:MM"
	}
	end, endErr := time.Parse(clockLayout, tpl.EndTime)
	if endErr != nil {
		details["end_time"] = "must be HH:MM"
	}
	if startErr == nil && endErr == nil && !end.After(start) {
		details["end_time"] = "must be after start_time"
	}
	if tpl.Capacity <= 0 {
		details["capacity"] = "must be positive"
	}
	if tpl.ValidFrom != nil && tpl.ValidUntil != nil && tpl.ValidFrom.After(*tpl.ValidUntil) {
		details["valid_until"] = "must not be before valid_from"
	}
	if len(details) > 0 {
		return apperrors.Validation("invalid schedule template", details)
	}
	return nil
}

// activeClassType loads a class type a template may reference.
func (s *templateService) activeClassType(ctx context.Context, tx *gorm.DB, id uint) (*models.ClassType, error) {
	ct, err := s.repos.ClassTypes.FindByID(ctx, tx, id)
	if err != nil {
		return nil, storeError(err, "class type", id, "failed to load class type")
	}
	if !ct.IsActive {
		return nil, apperrors.Conflict("class type is inactive").
			WithDetails(map[string]any{"class_type_id": id})
	}
	return ct, nil
}

func normalizeBounds(tpl *models.ScheduleTemplate) {
	if tpl.ValidFrom != nil {
		d := models.TruncateDate(*tpl.ValidFrom)
		tpl.ValidFrom = &d
	}
	if tpl.ValidUntil != nil {
		d := models.TruncateDate(*tpl.ValidUntil)
		tpl.ValidUntil = &d
	}
}

// Create stores a template. A zero capacity takes the class type's default.
func (s *templateService) Create(ctx context.Context, tenant string, tpl *models.ScheduleTemplate) error {
	normalizeBounds(tpl)

	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		ct, err := s.activeClassType(ctx, tx, tpl.ClassTypeID)
		if err != nil {
			return err
		}
		if tpl.Capacity == 0 {
			tpl.Capacity = ct.DefaultCapacity
		}
		if err := validateTemplate(tpl); err != nil {
			return err
		}
		if err := s.repos.Templates.Create(ctx, tx, tpl); err != nil {
			return apperrors.Internal("failed to create template", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"tenant": tenant, "template_id": tpl.ID}).Info("schedule template created")
	return nil
}

func (s *templateService) Get(ctx context.Context, tenant string, id uint) (*models.ScheduleTemplate, error) {
	var tpl *models.ScheduleTemplate
	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		var err error
		tpl, err = s.repos.Templates.FindByID(ctx, tx, id)
		if err != nil {
			return storeError(err, "template", id, "failed to load template")
		}
		return nil
	})
	return tpl, err
}

func (s *templateService) List(ctx context.Context, tenant string, filter repository.TemplateFilter) ([]models.ScheduleTemplate, error) {
	var templates []models.ScheduleTemplate
	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		var err error
		templates, err = s.repos.Templates.List(ctx, tx, filter)
		if err != nil {
			return apperrors.Internal("failed to list templates", err)
		}
		return nil
	})
	return templates, err
}

// Update applies patch and re-validates the merged template. Sessions already
// generated keep their date, branch and instructor.
func (s *templateService) Update(ctx context.Context, tenant string, id uint, patch TemplatePatch) (*models.ScheduleTemplate, error) {
	var (
		updated  *models.ScheduleTemplate
		promoted int
	)
	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		promoted = 0
		current, err := s.repos.Templates.FindByID(ctx, tx, id)
		if err != nil {
			return storeError(err, "template", id, "failed to load template")
		}

		merged := *current
		fields := map[string]any{}
		if patch.ClassTypeID != nil {
			if _, err := s.activeClassType(ctx, tx, *patch.ClassTypeID); err != nil {
				return err
			}
			merged.ClassTypeID = *patch.ClassTypeID
			fields["class_type_id"] = *patch.ClassTypeID
		}
		if patch.BranchID != nil {
			merged.BranchID = *patch.BranchID
			fields["branch_id"] = *patch.BranchID
		}
		switch {
		case patch.ClearInstructor:
			merged.InstructorID = nil
			fields["instructor_id"] = nil
		case patch.InstructorID != nil:
			merged.InstructorID = patch.InstructorID
			fields["instructor_id"] = *patch.InstructorID
		}
		if patch.Room != nil {
			merged.Room = *patch.Room
			fields["room"] = *patch.Room
		}
		if patch.DayOfWeek != nil {
			merged.DayOfWeek = *patch.DayOfWeek
			fields["day_of_week"] = *patch.DayOfWeek
		}
		if patch.StartTime != nil {
			merged.StartTime = *patch.StartTime
			fields["start_time"] = *patch.StartTime
		}
		if patch.EndTime != nil {
			merged.EndTime = *patch.EndTime
			fields["end_time"] = *patch.EndTime
		}
		if patch.Capacity != nil {
			merged.Capacity = *patch.Capacity
			fields["capacity"] = *patch.Capacity
		}
		if patch.IsRecurring != nil {
			merged.IsRecurring = *patch.IsRecurring
			fields["is_recurring"] = *patch.IsRecurring
		}
		if patch.IsActive != nil {
			merged.IsActive = *patch.IsActive
			fields["is_active"] = *patch.IsActive
		}
		switch {
		case patch.ClearValidFrom:
			merged.ValidFrom = nil
			fields["valid_from"] = nil
		case patch.ValidFrom != nil:
			merged.ValidFrom = patch.ValidFrom
		}
		switch {
		case patch.ClearValidUntil:
			merged.ValidUntil = nil
			fields["valid_until"] = nil
		case patch.ValidUntil != nil:
			merged.ValidUntil = patch.ValidUntil
		}
		normalizeBounds(&merged)
		if patch.ValidFrom != nil && !patch.ClearValidFrom {
			fields["valid_from"] = *merged.ValidFrom
		}
		if patch.ValidUntil != nil && !patch.ClearValidUntil {
			fields["valid_until"] = *merged.ValidUntil
		}

		if err := validateTemplate(&merged); err != nil {
			return err
		}

		// Sessions without an override follow the template capacity
		var inheriting []models.Session
		if merged.Capacity != current.Capacity {
			inheriting, err = s.lockInheritingSessions(ctx, tx, id, merged.Capacity)
			if err != nil {
				return err
			}
		}

		if len(fields) > 0 {
			if err := s.repos.Templates.Update(ctx, tx, id, fields); err != nil {
				return apperrors.Internal("failed to update template", err)
			}
		}

		if merged.Capacity > current.Capacity {
			for i := range inheriting {
				p, err := promoteWaitlist(ctx, tx, s.repos, &inheriting[i])
				if err != nil {
					return err
				}
				promoted += len(p)
			}
		}

		updated, err = s.repos.Templates.FindByID(ctx, tx, id)
		if err != nil {
			return storeError(err, "template", id, "failed to reload template")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"tenant": tenant, "template_id": id, "promoted": promoted}).Info("schedule template updated")
	return updated, nil
}

// lockInheritingSessions locks the scheduled sessions that take their capacity
// from template id and rejects a capacity below any of their held seats.
func (s *templateService) lockInheritingSessions(ctx context.Context, tx *gorm.DB, id uint, capacity int) ([]models.Session, error) {
	sessions, err := s.repos.Sessions.LockInheritingCapacity(ctx, tx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to lock template sessions", err)
	}
	for _, session := range sessions {
		seated, err := s.repos.Bookings.CountByStatuses(ctx, tx, session.ID, models.SeatHoldingStatuses...)
		if err != nil {
			return nil, apperrors.Internal("failed to count booked seats", err)
		}
		if int(seated) > capacity {
			return nil, apperrors.Conflict("capacity is below the booked count of a generated session").
				WithDetails(map[string]any{
					"template_id":  id,
					"session_id":   session.ID,
					"booked_count": seated,
					"capacity":     capacity,
				})
		}
	}
	return sessions, nil
}

// Delete soft-deletes the template. Its sessions remain and stay bookable.
func (s *templateService) Delete(ctx context.Context, tenant string, id uint) error {
	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		if _, err := s.repos.Templates.FindByID(ctx, tx, id); err != nil {
			return storeError(err, "template", id, "failed to load template")
		}
		if err := s.repos.Templates.SoftDelete(ctx, tx, id); err != nil {
			return apperrors.Internal("failed to delete template", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"tenant": tenant, "template_id": id}).Info("schedule template deleted")
	return nil
}
