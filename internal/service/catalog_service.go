package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/apperrors"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/database"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// ClassTypeCache is satisfied by pkg/cache.ClassTypeCache. Get returns
// (nil, nil) on a miss.
type ClassTypeCache interface {
	Get(ctx context.Context, tenant string, id uint) (*models.ClassType, error)
	Set(ctx context.Context, tenant string, ct *models.ClassType) error
	Invalidate(ctx context.Context, tenant string, id uint) error
}

// ClassTypePatch is a sparse update; nil fields are left unchanged.
// ClearBranch makes the type shared across branches.
type ClassTypePatch struct {
	Name                   *string
	Category               *string
	DefaultDurationMinutes *int
	DefaultCapacity        *int
	Color                  *string
	Icon                   *string
	IsActive               *bool
	BranchID               *uint
	ClearBranch            bool
}

// touchesShape reports whether the patch changes a field that sessions
// already depend on.
func (p ClassTypePatch) touchesShape() bool {
	return p.Category != nil || p.DefaultDurationMinutes != nil || p.DefaultCapacity != nil ||
		p.BranchID != nil || p.ClearBranch
}

type CatalogService interface {
	Create(ctx context.Context, tenant string, ct *models.ClassType) error
	Get(ctx context.Context, tenant string, id uint) (*models.ClassType, error)
	List(ctx context.Context, tenant string, filter repository.ClassTypeFilter) ([]models.ClassType, error)
	Update(ctx context.Context, tenant string, id uint, patch ClassTypePatch) (*models.ClassType, error)
	Delete(ctx context.Context, tenant string, id uint) error
}

type catalogService struct {
	runner database.TenantRunner
	repos  repository.Repositories
	cache  ClassTypeCache
	group  singleflight.Group
	log    logrus.FieldLogger
}

// NewCatalogService returns the class type catalog. A nil cache reads through
// to the store every time.
func NewCatalogService(runner database.TenantRunner, repos repository.Repositories, cache ClassTypeCache, log logrus.FieldLogger) CatalogService {
	return &catalogService{
		runner: runner,
		repos:  repos,
		cache:  cache,
		log:    log,
	}
}

func validateClassType(ct *models.ClassType) error {
	details := map[string]any{}
	if strings.TrimSpace(ct.Name) == "" {
		details["name"] = "is required"
	}
	if strings.TrimSpace(ct.Category) == "" {
		details["category"] = "is required"
	}
	if ct.DefaultDurationMinutes <= 0 {
		details["default_duration_minutes"] = "must be positive"
	}
	if ct.DefaultCapacity <= 0 {
		details["default_capacity"] = "must be positive"
	}
	if len(details) > 0 {
		return apperrors.Validation("invalid class type", details)
	}
	return nil
}

func (s *catalogService) Create(ctx context.Context, tenant string, ct *models.ClassType) error {
	if err := validateClassType(ct); err != nil {
		return err
	}

	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		if err := s.repos.ClassTypes.Create(ctx, tx, ct); err != nil {
			return apperrors.Internal("failed to create class type", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"tenant": tenant, "class_type_id": ct.ID}).Info("class type created")
	return nil
}

func (s *catalogService) Get(ctx context.Context, tenant string, id uint) (*models.ClassType, error) {
	log := s.log.WithFields(logrus.Fields{"tenant": tenant, "class_type_id": id})

	if s.cache != nil {
		ct, err := s.cache.Get(ctx, tenant, id)
		if err != nil {
			log.WithError(err).Warn("class type cache read failed")
		} else if ct != nil {
			return ct, nil
		}
	}

	// Concurrent misses on one key share a single store read.
	v, err, _ := s.group.Do(fmt.Sprintf("%s:%d", tenant, id), func() (any, error) {
		return s.load(ctx, tenant, id)
	})
	if err != nil {
		return nil, err
	}
	ct := v.(*models.ClassType)

	if s.cache != nil {
		if err := s.cache.Set(ctx, tenant, ct); err != nil {
			log.WithError(err).Warn("class type cache write failed")
		}
	}
	// Callers sharing a flight must not see each other's mutations.
	out := *ct
	return &out, nil
}

func (s *catalogService) load(ctx context.Context, tenant string, id uint) (*models.ClassType, error) {
	var ct *models.ClassType
	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		var err error
		ct, err = s.repos.ClassTypes.FindByID(ctx, tx, id)
		if err != nil {
			return storeError(err, "class type", id, "failed to load class type")
		}
		return nil
	})
	return ct, err
}

func (s *catalogService) List(ctx context.Context, tenant string, filter repository.ClassTypeFilter) ([]models.ClassType, error) {
	var types []models.ClassType
	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		var err error
		types, err = s.repos.ClassTypes.List(ctx, tx, filter)
		if err != nil {
			return apperrors.Internal("failed to list class types", err)
		}
		return nil
	})
	return types, err
}

func (s *catalogService) Update(ctx context.Context, tenant string, id uint, patch ClassTypePatch) (*models.ClassType, error) {
	var updated *models.ClassType
	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		current, err := s.repos.ClassTypes.FindByID(ctx, tx, id)
		if err != nil {
			return storeError(err, "class type", id, "failed to load class type")
		}

		if patch.touchesShape() {
			sessions, err := s.repos.ClassTypes.CountSessions(ctx, tx, id)
			if err != nil {
				return apperrors.Internal("failed to count class type sessions", err)
			}
			if sessions > 0 {
				return apperrors.Conflict("category, duration, capacity and branch cannot change once sessions exist").
					WithDetails(map[string]any{"class_type_id": id, "sessions": sessions})
			}
		}

		merged := *current
		fields := map[string]any{}
		if patch.Name != nil {
			merged.Name = *patch.Name
			fields["name"] = *patch.Name
		}
		if patch.Category != nil {
			merged.Category = *patch.Category
			fields["category"] = *patch.Category
		}
		if patch.DefaultDurationMinutes != nil {
			merged.DefaultDurationMinutes = *patch.DefaultDurationMinutes
			fields["default_duration_minutes"] = *patch.DefaultDurationMinutes
		}
		if patch.DefaultCapacity != nil {
			merged.DefaultCapacity = *patch.DefaultCapacity
			fields["default_capacity"] = *patch.DefaultCapacity
		}
		if patch.Color != nil {
			merged.Color = *patch.Color
			fields["color"] = *patch.Color
		}
		if patch.Icon != nil {
			merged.Icon = *patch.Icon
			fields["icon"] = *patch.Icon
		}
		if patch.IsActive != nil {
			merged.IsActive = *patch.IsActive
			fields["is_active"] = *patch.IsActive
		}
		switch {
		case patch.ClearBranch:
			merged.BranchID = nil
			fields["branch_id"] = nil
		case patch.BranchID != nil:
			merged.BranchID = patch.BranchID
			fields["branch_id"] = *patch.BranchID
		}

		if err := validateClassType(&merged); err != nil {
			return err
		}
		if len(fields) > 0 {
			if err := s.repos.ClassTypes.Update(ctx, tx, id, fields); err != nil {
				return apperrors.Internal("failed to update class type", err)
			}
		}

		updated, err = s.repos.ClassTypes.FindByID(ctx, tx, id)
		if err != nil {
			return storeError(err, "class type", id, "failed to reload class type")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, tenant, id)
	s.log.WithFields(logrus.Fields{"tenant": tenant, "class_type_id": id}).Info("class type updated")
	return updated, nil
}

// Delete soft-deletes the type. Sessions keep rendering its name; new
// templates can no longer reference it.
func (s *catalogService) Delete(ctx context.Context, tenant string, id uint) error {
	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		if _, err := s.repos.ClassTypes.FindByID(ctx, tx, id); err != nil {
			return storeError(err, "class type", id, "failed to load class type")
		}
		templates, err := s.repos.ClassTypes.CountActiveTemplates(ctx, tx, id)
		if err != nil {
			return apperrors.Internal("failed to count class type templates", err)
		}
		if templates > 0 {
			return apperrors.Conflict("class type is still used by active templates").
				WithDetails(map[string]any{"class_type_id": id, "active_templates": templates})
		}
		if err := s.repos.ClassTypes.SoftDelete(ctx, tx, id); err != nil {
			return apperrors.Internal("failed to delete class type", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, tenant, id)
	s.log.WithFields(logrus.Fields{"tenant": tenant, "class_type_id": id}).Info("class type deleted")
	return nil
}

func (s *catalogService) invalidate(ctx context.Context, tenant string, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, tenant, id); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"tenant": tenant, "class_type_id": id}).Warn("class type cache invalidation failed")
	}
}
