package service

import (
	"context"
	"errors"

	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/apperrors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// EventPublisher delivers domain events after their transaction commits.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

const (
	EventSessionsGenerated    = "sessions.generated"
	EventSessionStatusChanged = "session.status_changed"
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
)

// storeError maps repository errors to the service error taxonomy. AppErrors
// raised inside a unit of work pass through unchanged.
func storeError(err error, resource string, id any, message string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource, id)
	}
	return apperrors.Internal(message, err)
}

// publish sends an event if a publisher is configured. A failed publish never
// undoes the committed change; it is logged.
func publish(ctx context.Context, p EventPublisher, log logrus.FieldLogger, key string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, key, payload); err != nil {
		log.WithError(err).WithField("routing_key", key).Error("failed to publish event")
	}
}

func ptr[T any](v T) *T {
	return &v
}

// logFailure logs domain rejections at warn and store failures at error.
func logFailure(log logrus.FieldLogger, err error, msg string) {
	appErr := apperrors.AsAppError(err)
	entry := log.WithField("code", appErr.Code)
	if appErr.Code == apperrors.CodeInternal {
		entry.WithError(err).Error(msg)
		return
	}
	entry.Warn(msg + ": " + appErr.Message)
}
