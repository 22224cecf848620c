package service

import (
	"context"
	"fmt"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/apperrors"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/database"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/metrics"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UpdateSessionInput is a sparse patch; nil fields are left unchanged.
type UpdateSessionInput struct {
	Status           *models.SessionStatus
	InstructorID     *uuid.UUID
	Notes            *string
	CancelledReason  *string
	CapacityOverride *int
}

type SessionStatusChangedEvent struct {
	Tenant            string               `json:"tenant"`
	SessionID         uint                 `json:"session_id"`
	From              models.SessionStatus `json:"from"`
	To                models.SessionStatus `json:"to"`
	CancelledBookings int64                `json:"cancelled_bookings"`
}

type SessionService interface {
	ListSessions(ctx context.Context, tenant string, filter repository.SessionFilter) (*models.Page[models.SessionView], error)
	GetSession(ctx context.Context, tenant string, id uint) (*models.SessionView, error)
	UpdateSessionStatus(ctx context.Context, tenant string, id uint, in UpdateSessionInput) (*models.SessionView, error)
}

type sessionService struct {
	runner    database.TenantRunner
	repos     repository.Repositories
	publisher EventPublisher
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
}

func NewSessionService(
	runner database.TenantRunner,
	repos repository.Repositories,
	publisher EventPublisher,
	m *metrics.Metrics,
	log logrus.FieldLogger,
) SessionService {
	return &sessionService{
		runner:    runner,
		repos:     repos,
		publisher: publisher,
		metrics:   m,
		log:       log,
	}
}

func (s *sessionService) ListSessions(ctx context.Context, tenant string, filter repository.SessionFilter) (*models.Page[models.SessionView], error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, apperrors.Validation("from must not be after to", nil)
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown session status %q", *filter.Status), nil)
	}

	page := filter.Pagination.Normalize()
	filter.Pagination = page

	var (
		items []models.SessionView
		total int64
	)
	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		var err error
		items, total, err = s.repos.Sessions.List(ctx, tx, filter)
		if err != nil {
			return apperrors.Internal("failed to list sessions", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &models.Page[models.SessionView]{Items: items, Total: total, Page: page.Page, PerPage: page.PerPage}, nil
}

func (s *sessionService) GetSession(ctx context.Context, tenant string, id uint) (*models.SessionView, error) {
	var view *models.SessionView
	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		var err error
		view, err = s.repos.Sessions.FindView(ctx, tx, id)
		if err != nil {
			return storeError(err, "session", id, "failed to load session")
		}
		return nil
	})
	return view, err
}

func (s *sessionService) UpdateSessionStatus(ctx context.Context, tenant string, id uint, in UpdateSessionInput) (*models.SessionView, error) {
	if in.Status != nil && !in.Status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown session status %q", *in.Status), map[string]any{"status": *in.Status})
	}
	if in.CapacityOverride != nil && *in.CapacityOverride < 0 {
		return nil, apperrors.Validation("capacity_override must not be negative", map[string]any{"capacity_override": *in.CapacityOverride})
	}

	log := s.log.WithFields(logrus.Fields{"tenant": tenant, "session_id": id})
	var (
		view      *models.SessionView
		previous  models.SessionStatus
		cancelled int64
		promoted  []models.Booking
	)

	observe := s.metrics.ObserveTx("update_session_status")
	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		session, err := s.repos.Sessions.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return storeError(err, "session", id, "failed to lock session")
		}
		previous = session.Status

		if in.Status != nil && !session.Status.CanTransitionTo(*in.Status) {
			return apperrors.IllegalTransition("session", id, string(session.Status), string(*in.Status))
		}
		if session.Status != models.SessionScheduled && (in.InstructorID != nil || in.CapacityOverride != nil) {
			return apperrors.Conflict(fmt.Sprintf("session %d is %s, instructor and capacity can no longer change", id, session.Status)).
				WithDetails(map[string]any{"session_id": id, "status": session.Status})
		}

		fields := map[string]any{}
		if in.InstructorID != nil {
			fields["instructor_id"] = *in.InstructorID
		}
		if in.Notes != nil {
			fields["notes"] = *in.Notes
		}
		if in.CapacityOverride != nil {
			seated, err := s.repos.Bookings.CountByStatuses(ctx, tx, id, models.SeatHoldingStatuses...)
			if err != nil {
				return apperrors.Internal("failed to count booked seats", err)
			}
			if int64(*in.CapacityOverride) < seated {
				return apperrors.Conflict("capacity override is below the current booked count").
					WithDetails(map[string]any{"session_id": id, "booked": seated, "requested": *in.CapacityOverride})
			}
			fields["capacity_override"] = *in.CapacityOverride
			session.CapacityOverride = in.CapacityOverride
		}
		if in.Status != nil {
			fields["status"] = *in.Status
			if *in.Status == models.SessionCancelled && in.CancelledReason != nil {
				fields["cancelled_reason"] = *in.CancelledReason
			}
		}

		if len(fields) > 0 {
			if err := s.repos.Sessions.Update(ctx, tx, id, fields); err != nil {
				return apperrors.Internal("failed to update session", err)
			}
		}

		switch {
		case in.Status != nil && *in.Status == models.SessionCancelled:
			// The cascade commits or rolls back with the status change.
			cancelled, err = s.repos.Bookings.CancelLiveForSession(ctx, tx, id, models.CancelledBySessionReason)
			if err != nil {
				return apperrors.Internal("failed to cancel session bookings", err)
			}
		case in.CapacityOverride != nil && in.Status == nil:
			promoted, err = promoteWaitlist(ctx, tx, s.repos, session)
			if err != nil {
				return err
			}
		}

		view, err = s.repos.Sessions.FindView(ctx, tx, id)
		if err != nil {
			return storeError(err, "session", id, "failed to reload session")
		}
		return nil
	})
	observe()

	if err != nil {
		logFailure(log, err, "session update rejected")
		return nil, err
	}

	for _, p := range promoted {
		s.metrics.WaitlistPromotionsTotal.Inc()
		log.WithField("promoted_booking_id", p.ID).Info("waitlisted booking promoted")
	}
	if view.Status == previous {
		log.Info("session updated")
		return view, nil
	}

	if view.Status == models.SessionCancelled {
		s.metrics.SessionCancellationsTotal.Inc()
	}
	log.WithFields(logrus.Fields{"from": previous, "to": view.Status, "cancelled_bookings": cancelled}).Info("session status changed")

	event := SessionStatusChangedEvent{
		Tenant:            tenant,
		SessionID:         id,
		From:              previous,
		To:                view.Status,
		CancelledBookings: cancelled,
	}
	publish(ctx, s.publisher, log, EventSessionStatusChanged, event)
	return view, nil
}
