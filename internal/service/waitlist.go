package service

import (
	"context"
	"errors"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/apperrors"
	"gorm.io/gorm"
)

// openSeats is the effective capacity of session minus its seat-holding bookings.
func openSeats(ctx context.Context, tx *gorm.DB, repos repository.Repositories, session *models.Session) (int, error) {
	tpl, err := repos.Templates.FindByIDUnscoped(ctx, tx, session.TemplateID)
	if err != nil {
		return 0, storeError(err, "template", session.TemplateID, "failed to load session template")
	}
	seated, err := repos.Bookings.CountByStatuses(ctx, tx, session.ID, models.SeatHoldingStatuses...)
	if err != nil {
		return 0, apperrors.Internal("failed to count booked seats", err)
	}
	return session.EffectiveCapacity(tpl.Capacity) - int(seated), nil
}

// promoteWaitlist moves waitlisted bookings, oldest first, into the open seats
// of session. The caller must hold the session row lock; every writer of a
// session's bookings takes that lock first, so the locked head of the queue
// cannot change underneath us.
func promoteWaitlist(ctx context.Context, tx *gorm.DB, repos repository.Repositories, session *models.Session) ([]models.Booking, error) {
	open, err := openSeats(ctx, tx, repos, session)
	if err != nil {
		return nil, err
	}

	var promoted []models.Booking
	for ; open > 0; open-- {
		next, err := repos.Bookings.FindFirstWaitlisted(ctx, tx, session.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			break
		}
		if err != nil {
			return nil, apperrors.Internal("failed to lock waitlisted booking", err)
		}
		if err := repos.Bookings.UpdateStatus(ctx, tx, next, models.BookingBooked, ""); err != nil {
			return nil, apperrors.Internal("failed to promote waitlisted booking", err)
		}
		promoted = append(promoted, *next)
	}
	return promoted, nil
}
