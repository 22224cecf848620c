package service

import (
	"sort"
	"sync"
	"testing"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/testutil"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/apperrors"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/metrics"
	"github.com/google/uuid"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookSession_SingleSeatWaitlistFlow(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 1)
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	resA := h.book(t, s.ID, a)
	assert.Equal(t, models.BookingBooked, resA.Booking.Status)
	assert.False(t, resA.Waitlisted)
	assert.Nil(t, resA.Position)

	resB := h.book(t, s.ID, b)
	assert.Equal(t, models.BookingWaitlisted, resB.Booking.Status)
	assert.True(t, resB.Waitlisted)
	require.NotNil(t, resB.Position)
	assert.Equal(t, 1, *resB.Position)
	assert.Contains(t, resB.Message, "waitlist")

	_, err := h.bookings.UpdateBookingStatus(h.ctx, testutil.Tenant, resA.Booking.ID,
		UpdateBookingInput{Status: models.BookingCancelled}, member(a))
	require.NoError(t, err)
	assert.Equal(t, models.BookingBooked, h.reload(t, resB.Booking.ID).Status)

	resC := h.book(t, s.ID, c)
	assert.Equal(t, models.BookingWaitlisted, resC.Booking.Status)
	require.NotNil(t, resC.Position)
	assert.Equal(t, 1, *resC.Position)
}

func TestBookSession_WaitlistPositionsGrow(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 1)
	h.book(t, s.ID, uuid.New())

	for want := 1; want <= 3; want++ {
		res := h.book(t, s.ID, uuid.New())
		require.NotNil(t, res.Position)
		assert.Equal(t, want, *res.Position)
	}
}

func TestBookSession_RejectsSecondLiveBooking(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 5)
	m := uuid.New()
	first := h.book(t, s.ID, m)

	_, err := h.bookings.BookSession(h.ctx, testutil.Tenant, s.ID, m)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	assert.Equal(t, int64(1), h.count(t, s.ID, models.AllBookingStatuses...))

	// Cancelling releases the member to book again.
	_, err = h.bookings.UpdateBookingStatus(h.ctx, testutil.Tenant, first.Booking.ID,
		UpdateBookingInput{Status: models.BookingCancelled}, member(m))
	require.NoError(t, err)
	again := h.book(t, s.ID, m)
	assert.Equal(t, models.BookingBooked, again.Booking.Status)
}

func TestBookSession_SessionNotScheduled(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 5)
	require.NoError(t, h.db.Model(s).Update("status", models.SessionCompleted).Error)

	_, err := h.bookings.BookSession(h.ctx, testutil.Tenant, s.ID, uuid.New())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	assert.Equal(t, float64(1), promtest.ToFloat64(h.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeRejected)))
}

func TestBookSession_SessionNotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.bookings.BookSession(h.ctx, testutil.Tenant, 999, uuid.New())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestBookSession_CapacityOverrideWins(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 10)
	require.NoError(t, h.db.Model(s).Update("capacity_override", 1).Error)

	h.book(t, s.ID, uuid.New())
	res := h.book(t, s.ID, uuid.New())
	assert.True(t, res.Waitlisted)
}

func TestBookSession_ConcurrentNeverExceedsCapacity(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 3)

	const attempts = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		positions []int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.bookings.BookSession(h.ctx, testutil.Tenant, s.ID, uuid.New())
			if !assert.NoError(t, err) {
				return
			}
			if res.Position != nil {
				mu.Lock()
				positions = append(positions, *res.Position)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(3), h.count(t, s.ID, models.BookingBooked))
	assert.Equal(t, int64(attempts-3), h.count(t, s.ID, models.BookingWaitlisted))

	sort.Ints(positions)
	for i, p := range positions {
		assert.Equal(t, i+1, p)
	}
	assert.Equal(t, float64(3), promtest.ToFloat64(h.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeBooked)))
}

func TestBookSession_PublishesCreatedEvent(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 1)
	m := uuid.New()
	res := h.book(t, s.ID, m)

	events := h.publisher.byKey(EventBookingCreated)
	require.Len(t, events, 1)
	ev := events[0].(BookingCreatedEvent)
	assert.Equal(t, res.Booking.ID, ev.BookingID)
	assert.Equal(t, m, ev.MemberID)
	assert.Equal(t, testutil.Tenant, ev.Tenant)
}

func TestBookSession_PublishFailureKeepsBooking(t *testing.T) {
	h := newHarness(t)
	h.publisher.err = assert.AnError
	s := h.session(t, 1)

	res, err := h.bookings.BookSession(h.ctx, testutil.Tenant, s.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, models.BookingBooked, h.reload(t, res.Booking.ID).Status)
}

func TestUpdateBookingStatus_MemberCannotTouchOthers(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 2)
	owner := uuid.New()
	res := h.book(t, s.ID, owner)

	_, err := h.bookings.UpdateBookingStatus(h.ctx, testutil.Tenant, res.Booking.ID,
		UpdateBookingInput{Status: models.BookingCancelled}, member(uuid.New()))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	assert.Equal(t, models.BookingBooked, h.reload(t, res.Booking.ID).Status)
}

func TestUpdateBookingStatus_MemberMayOnlyCancel(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 2)
	owner := uuid.New()
	res := h.book(t, s.ID, owner)

	_, err := h.bookings.UpdateBookingStatus(h.ctx, testutil.Tenant, res.Booking.ID,
		UpdateBookingInput{Status: models.BookingAttended}, member(owner))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	assert.Equal(t, models.BookingBooked, h.reload(t, res.Booking.ID).Status)
}

func TestUpdateBookingStatus_IllegalTransitionMutatesNothing(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 2)
	res := h.book(t, s.ID, uuid.New())

	_, err := h.bookings.UpdateBookingStatus(h.ctx, testutil.Tenant, res.Booking.ID,
		UpdateBookingInput{Status: models.BookingAttended}, staff())
	require.NoError(t, err)

	_, err = h.bookings.UpdateBookingStatus(h.ctx, testutil.Tenant, res.Booking.ID,
		UpdateBookingInput{Status: models.BookingWaitlisted}, staff())
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeIllegalTransition, appErr.Code)
	assert.Equal(t, "attended", appErr.Details["current"])
	assert.Equal(t, "waitlisted", appErr.Details["requested"])
	assert.Equal(t, models.BookingAttended, h.reload(t, res.Booking.ID).Status)
}

func TestUpdateBookingStatus_UnknownStatus(t *testing.T) {
	h := newHarness(t)
	_, err := h.bookings.UpdateBookingStatus(h.ctx, testutil.Tenant, 1,
		UpdateBookingInput{Status: "lost"}, staff())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestUpdateBookingStatus_NotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.bookings.UpdateBookingStatus(h.ctx, testutil.Tenant, 42,
		UpdateBookingInput{Status: models.BookingCancelled}, staff())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestUpdateBookingStatus_NoShowPromotesOldestWaitlisted(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 1)
	a := h.book(t, s.ID, uuid.New())
	b := h.book(t, s.ID, uuid.New())
	c := h.book(t, s.ID, uuid.New())

	_, err := h.bookings.UpdateBookingStatus(h.ctx, testutil.Tenant, a.Booking.ID,
		UpdateBookingInput{Status: models.BookingNoShow}, staff())
	require.NoError(t, err)

	assert.Equal(t, models.BookingBooked, h.reload(t, b.Booking.ID).Status)
	assert.Equal(t, models.BookingWaitlisted, h.reload(t, c.Booking.ID).Status)
	assert.Equal(t, int64(1), h.count(t, s.ID, models.BookingBooked))
	assert.Equal(t, float64(1), promtest.ToFloat64(h.metrics.WaitlistPromotionsTotal))

	events := h.publisher.byKey(EventBookingStatusChanged)
	require.Len(t, events, 1)
	ev := events[0].(BookingStatusChangedEvent)
	assert.Equal(t, models.BookingBooked, ev.From)
	assert.Equal(t, models.BookingNoShow, ev.To)
	assert.Equal(t, []uint{b.Booking.ID}, ev.PromotedBookingIDs)
}

func TestUpdateBookingStatus_CancelRecordsReason(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 1)
	m := uuid.New()
	res := h.book(t, s.ID, m)

	updated, err := h.bookings.UpdateBookingStatus(h.ctx, testutil.Tenant, res.Booking.ID,
		UpdateBookingInput{Status: models.BookingCancelled, CancelReason: "Travelling"}, member(m))
	require.NoError(t, err)
	assert.Equal(t, "Travelling", updated.CancelReason)
	require.NotNil(t, updated.CancelledAt)

	stored := h.reload(t, res.Booking.ID)
	assert.Equal(t, "Travelling", stored.CancelReason)
	assert.NotNil(t, stored.CancelledAt)
}

func TestUpdateBookingStatus_WithdrawingFromWaitlistPromotesNobody(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 1)
	h.book(t, s.ID, uuid.New())
	bm := uuid.New()
	b := h.book(t, s.ID, bm)
	c := h.book(t, s.ID, uuid.New())

	_, err := h.bookings.UpdateBookingStatus(h.ctx, testutil.Tenant, b.Booking.ID,
		UpdateBookingInput{Status: models.BookingCancelled}, member(bm))
	require.NoError(t, err)

	assert.Equal(t, models.BookingWaitlisted, h.reload(t, c.Booking.ID).Status)
	assert.Equal(t, float64(0), promtest.ToFloat64(h.metrics.WaitlistPromotionsTotal))
}

func TestUpdateBookingStatus_ManualPromotionRespectsCapacity(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 1)
	h.book(t, s.ID, uuid.New())
	b := h.book(t, s.ID, uuid.New())

	_, err := h.bookings.UpdateBookingStatus(h.ctx, testutil.Tenant, b.Booking.ID,
		UpdateBookingInput{Status: models.BookingBooked}, staff())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	assert.Equal(t, models.BookingWaitlisted, h.reload(t, b.Booking.ID).Status)
}

func TestUpdateBookingStatus_ConcurrentCancellationsKeepSessionFull(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 3)

	var booked []*BookResult
	for i := 0; i < 3; i++ {
		booked = append(booked, h.book(t, s.ID, uuid.New()))
	}
	for i := 0; i < 5; i++ {
		h.book(t, s.ID, uuid.New())
	}

	var wg sync.WaitGroup
	for _, res := range booked {
		wg.Add(1)
		go func(b *models.Booking) {
			defer wg.Done()
			_, err := h.bookings.UpdateBookingStatus(h.ctx, testutil.Tenant, b.ID,
				UpdateBookingInput{Status: models.BookingCancelled}, member(b.MemberID))
			assert.NoError(t, err)
		}(res.Booking)
	}
	wg.Wait()

	assert.Equal(t, int64(3), h.count(t, s.ID, models.BookingBooked))
	assert.Equal(t, int64(2), h.count(t, s.ID, models.BookingWaitlisted))
}

func TestGetBooking_Authorization(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 1)
	m := uuid.New()
	res := h.book(t, s.ID, m)

	got, err := h.bookings.GetBooking(h.ctx, testutil.Tenant, res.Booking.ID, member(m))
	require.NoError(t, err)
	assert.Equal(t, res.Booking.ID, got.ID)

	_, err = h.bookings.GetBooking(h.ctx, testutil.Tenant, res.Booking.ID, member(uuid.New()))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = h.bookings.GetBooking(h.ctx, testutil.Tenant, res.Booking.ID, staff())
	assert.NoError(t, err)
}

func TestListBookingsForSession_NamesAndSummary(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 1)
	alice := testutil.CreateUser(t, h.db, "Alice Nguyen")
	bob := testutil.CreateUser(t, h.db, "Bob Ortiz")
	h.book(t, s.ID, alice)
	h.book(t, s.ID, bob)
	h.book(t, s.ID, uuid.New())

	out, err := h.bookings.ListBookingsForSession(h.ctx, testutil.Tenant, s.ID)
	require.NoError(t, err)
	require.Len(t, out.Bookings, 3)
	assert.Equal(t, "Alice Nguyen", out.Bookings[0].MemberName)
	assert.Equal(t, "Bob Ortiz", out.Bookings[1].MemberName)
	assert.Empty(t, out.Bookings[2].MemberName)

	assert.Equal(t, 1, out.Summary[models.BookingBooked])
	assert.Equal(t, 2, out.Summary[models.BookingWaitlisted])
	assert.Equal(t, 0, out.Summary[models.BookingCancelled])
	assert.Len(t, out.Summary, len(models.AllBookingStatuses))
}

func TestListBookingsForSession_NotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.bookings.ListBookingsForSession(h.ctx, testutil.Tenant, 7)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestListBookingsForMember(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 3)
	m := uuid.New()
	h.book(t, s.ID, m)
	h.book(t, s.ID, uuid.New())

	page, err := h.bookings.ListBookingsForMember(h.ctx, testutil.Tenant, m, repository.MemberBookingFilter{}, member(m))
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, repository.DefaultPerPage, page.PerPage)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Spin", page.Items[0].ClassTypeName)
	assert.Equal(t, "07:00", page.Items[0].StartTime)
	assert.Equal(t, "Studio A", page.Items[0].Room)

	_, err = h.bookings.ListBookingsForMember(h.ctx, testutil.Tenant, m, repository.MemberBookingFilter{}, member(uuid.New()))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}
