package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/directory"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/apperrors"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/database"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/metrics"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type BookResult struct {
	Booking    *models.Booking `json:"booking"`
	Waitlisted bool            `json:"waitlisted"`
	Position   *int            `json:"position"`
	Message    string          `json:"message"`
}

type UpdateBookingInput struct {
	Status       models.BookingStatus
	CancelReason string
}

// SessionBooking is a booking with the member's display name.
type SessionBooking struct {
	models.Booking
	MemberName string `json:"member_name"`
}

type SessionBookings struct {
	Bookings []SessionBooking            `json:"bookings"`
	Summary  map[models.BookingStatus]int `json:"summary"`
}

type BookingCreatedEvent struct {
	Tenant    string               `json:"tenant"`
	BookingID uint                 `json:"booking_id"`
	SessionID uint                 `json:"session_id"`
	MemberID  uuid.UUID            `json:"member_id"`
	Status    models.BookingStatus `json:"status"`
	Position  *int                 `json:"position,omitempty"`
}

type BookingStatusChangedEvent struct {
	Tenant             string               `json:"tenant"`
	BookingID          uint                 `json:"booking_id"`
	SessionID          uint                 `json:"session_id"`
	From               models.BookingStatus `json:"from"`
	To                 models.BookingStatus `json:"to"`
	PromotedBookingIDs []uint               `json:"promoted_booking_ids,omitempty"`
}

type BookingService interface {
	BookSession(ctx context.Context, tenant string, sessionID uint, memberID uuid.UUID) (*BookResult, error)
	UpdateBookingStatus(ctx context.Context, tenant string, bookingID uint, in UpdateBookingInput, caller models.Caller) (*models.Booking, error)
	GetBooking(ctx context.Context, tenant string, bookingID uint, caller models.Caller) (*models.Booking, error)
	ListBookingsForSession(ctx context.Context, tenant string, sessionID uint) (*SessionBookings, error)
	ListBookingsForMember(ctx context.Context, tenant string, memberID uuid.UUID, filter repository.MemberBookingFilter, caller models.Caller) (*models.Page[models.MemberBookingView], error)
}

type bookingService struct {
	runner    database.TenantRunner
	repos     repository.Repositories
	names     directory.Directory
	publisher EventPublisher
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
}

// NewBookingService wires the booking engine. names and publisher may be nil.
func NewBookingService(
	runner database.TenantRunner,
	repos repository.Repositories,
	names directory.Directory,
	publisher EventPublisher,
	m *metrics.Metrics,
	log logrus.FieldLogger,
) BookingService {
	return &bookingService{
		runner:    runner,
		repos:     repos,
		names:     names,
		publisher: publisher,
		metrics:   m,
		log:       log,
	}
}

func (s *bookingService) BookSession(ctx context.Context, tenant string, sessionID uint, memberID uuid.UUID) (*BookResult, error) {
	log := s.log.WithFields(logrus.Fields{"tenant": tenant, "session_id": sessionID, "member_id": memberID})
	var result *BookResult

	observe := s.metrics.ObserveTx("book_session")
	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		// 1. Lock the session row; serializes concurrent reservations against it
		session, err := s.repos.Sessions.FindByIDForUpdate(ctx, tx, sessionID)
		if err != nil {
			return storeError(err, "session", sessionID, "failed to lock session")
		}

		// 2. Only scheduled sessions take bookings
		if session.Status != models.SessionScheduled {
			return apperrors.Conflict(fmt.Sprintf("session %d is %s and cannot be booked", sessionID, session.Status)).
				WithDetails(map[string]any{"session_id": sessionID, "status": session.Status})
		}

		// 3. Check double-booking
		existing, err := s.repos.Bookings.FindLive(ctx, tx, sessionID, memberID)
		if err == nil {
			return duplicateBooking(sessionID, memberID).WithDetails(map[string]any{
				"session_id": sessionID,
				"member_id":  memberID,
				"booking_id": existing.ID,
				"status":     existing.Status,
			})
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Internal("failed to check existing booking", err)
		}

		// 4. Count held seats against the effective capacity
		open, err := openSeats(ctx, tx, s.repos, session)
		if err != nil {
			return err
		}

		// 5. Seat the member, or queue them
		booking := &models.Booking{
			SessionID: sessionID,
			MemberID:  memberID,
			Status:    models.BookingBooked,
		}
		if open <= 0 {
			booking.Status = models.BookingWaitlisted
		}
		if err := s.repos.Bookings.Create(ctx, tx, booking); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateBooking(sessionID, memberID)
			}
			return apperrors.Internal("failed to create booking", err)
		}

		result = &BookResult{Booking: booking, Message: "Session booked"}
		if booking.Status == models.BookingWaitlisted {
			position, err := s.repos.Bookings.WaitlistPosition(ctx, tx, booking)
			if err != nil {
				return apperrors.Internal("failed to compute waitlist position", err)
			}
			result.Waitlisted = true
			result.Position = &position
			result.Message = fmt.Sprintf("Session is full, you are number %d on the waitlist", position)
		}
		return nil
	})
	observe()

	if err != nil {
		s.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		logFailure(log, err, "booking rejected")
		return nil, err
	}

	outcome := metrics.OutcomeBooked
	if result.Waitlisted {
		outcome = metrics.OutcomeWaitlisted
	}
	s.metrics.BookingsTotal.WithLabelValues(outcome).Inc()
	log.WithFields(logrus.Fields{"booking_id": result.Booking.ID, "status": result.Booking.Status}).Info("booking created")

	publish(ctx, s.publisher, log, EventBookingCreated, BookingCreatedEvent{
		Tenant:    tenant,
		BookingID: result.Booking.ID,
		SessionID: sessionID,
		MemberID:  memberID,
		Status:    result.Booking.Status,
		Position:  result.Position,
	})
	return result, nil
}

func duplicateBooking(sessionID uint, memberID uuid.UUID) *apperrors.AppError {
	return apperrors.Conflict("member already holds a live booking for this session").
		WithDetails(map[string]any{"session_id": sessionID, "member_id": memberID})
}

func (s *bookingService) UpdateBookingStatus(ctx context.Context, tenant string, bookingID uint, in UpdateBookingInput, caller models.Caller) (*models.Booking, error) {
	if !in.Status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown booking status %q", in.Status), map[string]any{"status": in.Status})
	}

	log := s.log.WithFields(logrus.Fields{"tenant": tenant, "booking_id": bookingID, "caller_id": caller.MemberID})
	var (
		result   *models.Booking
		previous models.BookingStatus
		promoted []models.Booking
	)

	observe := s.metrics.ObserveTx("update_booking_status")
	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		// 1. Lock the session, then the booking, in that order everywhere
		peek, err := s.repos.Bookings.FindByID(ctx, tx, bookingID)
		if err != nil {
			return storeError(err, "booking", bookingID, "failed to load booking")
		}
		session, err := s.repos.Sessions.FindByIDForUpdate(ctx, tx, peek.SessionID)
		if err != nil {
			return storeError(err, "session", peek.SessionID, "failed to lock session")
		}
		booking, err := s.repos.Bookings.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return storeError(err, "booking", bookingID, "failed to lock booking")
		}

		// 2. Authorize the caller
		if !caller.CanActFor(booking.MemberID) {
			return apperrors.Forbidden("members may only change their own bookings").
				WithDetails(map[string]any{"booking_id": bookingID})
		}
		if !caller.Role.Privileged() && in.Status != models.BookingCancelled {
			return apperrors.Forbidden("members may only cancel a booking").
				WithDetails(map[string]any{"booking_id": bookingID, "requested": in.Status})
		}

		// 3. Validate against the state machine
		if !booking.Status.CanTransitionTo(in.Status) {
			return apperrors.IllegalTransition("booking", bookingID, string(booking.Status), string(in.Status))
		}
		if booking.Status == models.BookingWaitlisted && in.Status == models.BookingBooked {
			open, err := openSeats(ctx, tx, s.repos, session)
			if err != nil {
				return err
			}
			if open <= 0 {
				return apperrors.Conflict("session is full").
					WithDetails(map[string]any{"session_id": session.ID, "booking_id": bookingID})
			}
		}

		// 4. Apply
		previous = booking.Status
		if err := s.repos.Bookings.UpdateStatus(ctx, tx, booking, in.Status, in.CancelReason); err != nil {
			return apperrors.Internal("failed to update booking", err)
		}
		result = booking

		// 5. A freed seat goes to the head of the waitlist
		if previous.FreesSeat(in.Status) {
			promoted, err = promoteWaitlist(ctx, tx, s.repos, session)
			if err != nil {
				return err
			}
		}
		return nil
	})
	observe()

	if err != nil {
		logFailure(log, err, "booking status change rejected")
		return nil, err
	}

	log.WithFields(logrus.Fields{"from": previous, "to": result.Status}).Info("booking status changed")
	event := BookingStatusChangedEvent{
		Tenant:    tenant,
		BookingID: result.ID,
		SessionID: result.SessionID,
		From:      previous,
		To:        result.Status,
	}
	for _, p := range promoted {
		s.metrics.WaitlistPromotionsTotal.Inc()
		log.WithField("promoted_booking_id", p.ID).Info("waitlisted booking promoted")
		event.PromotedBookingIDs = append(event.PromotedBookingIDs, p.ID)
	}
	publish(ctx, s.publisher, log, EventBookingStatusChanged, event)
	return result, nil
}

func (s *bookingService) GetBooking(ctx context.Context, tenant string, bookingID uint, caller models.Caller) (*models.Booking, error) {
	var booking *models.Booking
	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		var err error
		booking, err = s.repos.Bookings.FindByID(ctx, tx, bookingID)
		if err != nil {
			return storeError(err, "booking", bookingID, "failed to load booking")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !caller.CanActFor(booking.MemberID) {
		return nil, apperrors.Forbidden("members may only view their own bookings")
	}
	return booking, nil
}

func (s *bookingService) ListBookingsForSession(ctx context.Context, tenant string, sessionID uint) (*SessionBookings, error) {
	var bookings []models.Booking
	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		if _, err := s.repos.Sessions.FindByID(ctx, tx, sessionID); err != nil {
			return storeError(err, "session", sessionID, "failed to load session")
		}
		var err error
		bookings, err = s.repos.Bookings.ListBySession(ctx, tx, sessionID)
		if err != nil {
			return apperrors.Internal("failed to list bookings", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Resolved outside the unit of work; a directory outage only blanks names.
	names := s.memberNames(ctx, tenant, bookings)

	out := &SessionBookings{
		Bookings: make([]SessionBooking, 0, len(bookings)),
		Summary:  make(map[models.BookingStatus]int, len(models.AllBookingStatuses)),
	}
	for _, st := range models.AllBookingStatuses {
		out.Summary[st] = 0
	}
	for _, b := range bookings {
		out.Bookings = append(out.Bookings, SessionBooking{Booking: b, MemberName: names[b.MemberID]})
		out.Summary[b.Status]++
	}
	return out, nil
}

func (s *bookingService) memberNames(ctx context.Context, tenant string, bookings []models.Booking) map[uuid.UUID]string {
	if s.names == nil || len(bookings) == 0 {
		return map[uuid.UUID]string{}
	}
	ids := make([]uuid.UUID, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.MemberID)
	}
	names, err := s.names.Names(ctx, tenant, ids)
	if err != nil {
		s.log.WithError(err).WithField("tenant", tenant).Warn("member directory lookup failed")
		return map[uuid.UUID]string{}
	}
	return names
}

func (s *bookingService) ListBookingsForMember(ctx context.Context, tenant string, memberID uuid.UUID, filter repository.MemberBookingFilter, caller models.Caller) (*models.Page[models.MemberBookingView], error) {
	if !caller.CanActFor(memberID) {
		return nil, apperrors.Forbidden("members may only list their own bookings").
			WithDetails(map[string]any{"member_id": memberID})
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown booking status %q", *filter.Status), nil)
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, apperrors.Validation("from must not be after to", nil)
	}

	page := filter.Pagination.Normalize()
	filter.Pagination = page

	var (
		items []models.MemberBookingView
		total int64
	)
	err := s.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		var err error
		items, total, err = s.repos.Bookings.ListByMember(ctx, tx, memberID, filter)
		if err != nil {
			return apperrors.Internal("failed to list member bookings", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &models.Page[models.MemberBookingView]{Items: items, Total: total, Page: page.Page, PerPage: page.PerPage}, nil
}
