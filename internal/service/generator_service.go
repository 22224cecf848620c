package service

import (
	"context"
	"time"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/apperrors"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/database"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/metrics"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MaxGenerationSpan bounds To - From for one generation run.
const MaxGenerationSpan = 90 * 24 * time.Hour

type GenerateInput struct {
	From       time.Time
	To         time.Time
	BranchID   *uint
	TemplateID *uint
}

type GenerateResult struct {
	Created int `json:"created"`
}

type SessionsGeneratedEvent struct {
	Tenant     string `json:"tenant"`
	Created    int    `json:"created"`
	From       string `json:"from"`
	To         string `json:"to"`
	BranchID   *uint  `json:"branch_id,omitempty"`
	TemplateID *uint  `json:"template_id,omitempty"`
}

type GeneratorService interface {
	Generate(ctx context.Context, tenant string, in GenerateInput) (*GenerateResult, error)
}

type generatorService struct {
	runner    database.TenantRunner
	repos     repository.Repositories
	publisher EventPublisher
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
}

func NewGeneratorService(
	runner database.TenantRunner,
	repos repository.Repositories,
	publisher EventPublisher,
	m *metrics.Metrics,
	log logrus.FieldLogger,
) GeneratorService {
	return &generatorService{
		runner:    runner,
		repos:     repos,
		publisher: publisher,
		metrics:   m,
		log:       log,
	}
}

func validateRange(from, to time.Time) error {
	details := map[string]any{"from": from.Format(models.DateLayout), "to": to.Format(models.DateLayout)}
	if from.After(to) {
		return apperrors.Validation("from date must not be after to date", details)
	}
	if to.Sub(from) > MaxGenerationSpan {
		return apperrors.Validation("date range must not exceed 90 days", details)
	}
	return nil
}

// Generate materializes sessions for every active template matching in, one
// per matching UTC date. Dates that already have a session are skipped, so
// reruns over the same range create nothing.
func (s *generatorService) Generate(ctx context.Context, tenant string, in GenerateInput) (*GenerateResult, error) {
	from, to := models.TruncateDate(in.From), models.TruncateDate(in.To)
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{
		"tenant": tenant,
		"from":   from.Format(models.DateLayout),
		"to":     to.Format(models.DateLayout),
	})
	result := &GenerateResult{}

	observe := s.metrics.ObserveTx("generate_sessions")
	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		if in.TemplateID != nil {
			if _, err := s.repos.Templates.FindByID(ctx, tx, *in.TemplateID); err != nil {
				return storeError(err, "template", *in.TemplateID, "failed to load template")
			}
		}

		templates, err := s.repos.Templates.FindActive(ctx, tx, in.BranchID, in.TemplateID)
		if err != nil {
			return apperrors.Internal("failed to load templates", err)
		}

		for i := range templates {
			created, err := s.generateForTemplate(ctx, tx, &templates[i], from, to)
			if err != nil {
				return err
			}
			result.Created += created
		}
		return nil
	})
	observe()

	if err != nil {
		logFailure(log, err, "session generation failed")
		return nil, err
	}

	s.metrics.SessionsGeneratedTotal.Add(float64(result.Created))
	log.WithField("created", result.Created).Info("sessions generated")

	if result.Created > 0 {
		publish(ctx, s.publisher, log, EventSessionsGenerated, SessionsGeneratedEvent{
			Tenant:     tenant,
			Created:    result.Created,
			From:       from.Format(models.DateLayout),
			To:         to.Format(models.DateLayout),
			BranchID:   in.BranchID,
			TemplateID: in.TemplateID,
		})
	}
	return result, nil
}

func (s *generatorService) generateForTemplate(ctx context.Context, tx *gorm.DB, tpl *models.ScheduleTemplate, from, to time.Time) (int, error) {
	// A one-off template yields a single session over its lifetime.
	if !tpl.IsRecurring {
		existing, err := s.repos.Sessions.CountForTemplate(ctx, tx, tpl.ID)
		if err != nil {
			return 0, apperrors.Internal("failed to count template sessions", err)
		}
		if existing > 0 {
			return 0, nil
		}
	}

	created := 0
	for date := firstWeekday(from, tpl.Weekday()); !date.After(to); date = date.AddDate(0, 0, 7) {
		if !tpl.ActiveOn(date) {
			continue
		}

		exists, err := s.repos.Sessions.Exists(ctx, tx, tpl.ID, date)
		if err != nil {
			return 0, apperrors.Internal("failed to check existing session", err)
		}
		if exists {
			continue
		}

		session := &models.Session{
			TemplateID:   tpl.ID,
			BranchID:     tpl.BranchID,
			SessionDate:  date,
			InstructorID: tpl.InstructorID,
			Status:       models.SessionScheduled,
		}
		inserted, err := s.repos.Sessions.CreateIfAbsent(ctx, tx, session)
		if err != nil {
			return 0, apperrors.Internal("failed to create session", err)
		}
		if inserted {
			created++
		}
		if !tpl.IsRecurring {
			break
		}
	}
	return created, nil
}

// firstWeekday returns the first date on or after from whose UTC weekday is day.
func firstWeekday(from time.Time, day time.Weekday) time.Time {
	offset := (int(day) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, offset)
}
