package service

import (
	"testing"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/testutil"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/apperrors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTemplate(classTypeID uint) *models.ScheduleTemplate {
	return &models.ScheduleTemplate{
		ClassTypeID: classTypeID,
		BranchID:    1,
		Room:        "Studio B",
		DayOfWeek:   2,
		StartTime:   "18:00",
		EndTime:     "19:00",
		IsRecurring: true,
		IsActive:    true,
	}
}

func TestTemplate_CreateDefaultsCapacity(t *testing.T) {
	h := newHarness(t)
	ct := testutil.CreateClassType(t, h.db, "Yoga")

	tpl := newTemplate(ct.ID)
	require.NoError(t, h.templates.Create(h.ctx, testutil.Tenant, tpl))
	assert.NotZero(t, tpl.ID)
	assert.Equal(t, ct.DefaultCapacity, tpl.Capacity)

	got, err := h.templates.Get(h.ctx, testutil.Tenant, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "18:00", got.StartTime)
	assert.True(t, got.IsActive)
}

func TestTemplate_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.ScheduleTemplate)
		field  string
	}{
		{"end before start", func(t *models.ScheduleTemplate) { t.EndTime = "17:30" }, "end_time"},
		{"end equals start", func(t *models.ScheduleTemplate) { t.EndTime = "18:00" }, "end_time"},
		{"bad clock", func(t *models.ScheduleTemplate) { t.StartTime = "6pm" }, "start_time"},
		{"day out of range", func(t *models.ScheduleTemplate) { t.DayOfWeek = 7 }, "day_of_week"},
		{"negative capacity", func(t *models.ScheduleTemplate) { t.Capacity = -2 }, "capacity"},
		{"missing branch", func(t *models.ScheduleTemplate) { t.BranchID = 0 }, "branch_id"},
		{"inverted validity", func(t *models.ScheduleTemplate) {
			from, until := testutil.Date("2024-03-01"), testutil.Date("2024-02-01")
			t.ValidFrom, t.ValidUntil = &from, &until
		}, "valid_until"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ct := testutil.CreateClassType(t, h.db, "Yoga")
			tpl := newTemplate(ct.ID)
			tt.mutate(tpl)

			err := h.templates.Create(h.ctx, testutil.Tenant, tpl)
			require.Error(t, err)
			appErr := apperrors.AsAppError(err)
			assert.Equal(t, apperrors.CodeValidation, appErr.Code)
			assert.Contains(t, appErr.Details, tt.field)
		})
	}
}

func TestTemplate_CreateNeedsActiveClassType(t *testing.T) {
	h := newHarness(t)
	err := h.templates.Create(h.ctx, testutil.Tenant, newTemplate(999))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	ct := testutil.CreateClassType(t, h.db, "Yoga")
	require.NoError(t, h.db.Model(ct).Update("is_active", false).Error)
	err = h.templates.Create(h.ctx, testutil.Tenant, newTemplate(ct.ID))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestTemplate_UpdateMergesAndRevalidates(t *testing.T) {
	h := newHarness(t)
	ct := testutil.CreateClassType(t, h.db, "Yoga")
	tpl := newTemplate(ct.ID)
	require.NoError(t, h.templates.Create(h.ctx, testutil.Tenant, tpl))

	// End time alone would land before the existing start.
	_, err := h.templates.Update(h.ctx, testutil.Tenant, tpl.ID, TemplatePatch{EndTime: ptr("17:00")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	until := testutil.Date("2024-06-30")
	updated, err := h.templates.Update(h.ctx, testutil.Tenant, tpl.ID, TemplatePatch{
		StartTime:  ptr("06:30"),
		EndTime:    ptr("07:15"),
		ValidUntil: &until,
		IsActive:   ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "06:30", updated.StartTime)
	assert.Equal(t, "Studio B", updated.Room)
	assert.False(t, updated.IsActive)
	require.NotNil(t, updated.ValidUntil)
	assert.Equal(t, "2024-06-30", updated.ValidUntil.Format(models.DateLayout))

	cleared, err := h.templates.Update(h.ctx, testutil.Tenant, tpl.ID, TemplatePatch{ClearValidUntil: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.ValidUntil)
}

func TestTemplate_UpdateCapacityBelowBooked(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 3)
	for i := 0; i < 3; i++ {
		h.book(t, s.ID, uuid.New())
	}

	lower := 1
	_, err := h.templates.Update(h.ctx, testutil.Tenant, s.TemplateID, TemplatePatch{Capacity: &lower})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	tpl, err := h.templates.Get(h.ctx, testutil.Tenant, s.TemplateID)
	require.NoError(t, err)
	assert.Equal(t, 3, tpl.Capacity)

	view, err := h.sessions.GetSession(h.ctx, testutil.Tenant, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, view.EffectiveCapacity)
	assert.EqualValues(t, 3, h.count(t, s.ID, models.BookingBooked))

	two := 2
	_, err = h.templates.Update(h.ctx, testutil.Tenant, s.TemplateID, TemplatePatch{Capacity: &two})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestTemplate_UpdateCapacityIgnoresOverrides(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 3)
	override := 5
	require.NoError(t, h.db.Model(&models.Session{}).Where("id = ?", s.ID).
		Update("capacity_override", override).Error)
	for i := 0; i < 4; i++ {
		h.book(t, s.ID, uuid.New())
	}

	lower := 1
	tpl, err := h.templates.Update(h.ctx, testutil.Tenant, s.TemplateID, TemplatePatch{Capacity: &lower})
	require.NoError(t, err)
	assert.Equal(t, 1, tpl.Capacity)

	view, err := h.sessions.GetSession(h.ctx, testutil.Tenant, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, view.EffectiveCapacity)
}

func TestTemplate_UpdateCapacityPromotesWaitlist(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 1)
	first := h.book(t, s.ID, uuid.New())
	second := h.book(t, s.ID, uuid.New())
	third := h.book(t, s.ID, uuid.New())
	require.True(t, second.Waitlisted)
	require.True(t, third.Waitlisted)

	raised := 2
	_, err := h.templates.Update(h.ctx, testutil.Tenant, s.TemplateID, TemplatePatch{Capacity: &raised})
	require.NoError(t, err)

	assert.Equal(t, models.BookingBooked, h.reload(t, first.Booking.ID).Status)
	assert.Equal(t, models.BookingBooked, h.reload(t, second.Booking.ID).Status)
	assert.Equal(t, models.BookingWaitlisted, h.reload(t, third.Booking.ID).Status)
	assert.EqualValues(t, 2, h.count(t, s.ID, models.BookingBooked))
	assert.EqualValues(t, 1, h.count(t, s.ID, models.BookingWaitlisted))
}

func TestTemplate_DeleteKeepsSessions(t *testing.T) {
	h := newHarness(t)
	s := h.session(t, 5)

	require.NoError(t, h.templates.Delete(h.ctx, testutil.Tenant, s.TemplateID))
	_, err := h.templates.Get(h.ctx, testutil.Tenant, s.TemplateID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	view, err := h.sessions.GetSession(h.ctx, testutil.Tenant, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, view.EffectiveCapacity)

	err = h.templates.Delete(h.ctx, testutil.Tenant, s.TemplateID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestTemplate_List(t *testing.T) {
	h := newHarness(t)
	ct := testutil.CreateClassType(t, h.db, "Yoga")
	testutil.CreateTemplate(t, h.db, ct.ID, 1, 10)
	testutil.CreateTemplate(t, h.db, ct.ID, 3, 10)

	day := 3
	templates, err := h.templates.List(h.ctx, testutil.Tenant, repository.TemplateFilter{DayOfWeek: &day})
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, 3, templates[0].DayOfWeek)
}
