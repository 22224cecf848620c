package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/middleware"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
)

const tenant = "acme"

// --- Mock services ---

type mockCatalogService struct {
	createFn func(ctx context.Context, tenant string, ct *models.ClassType) error
	getFn    func(ctx context.Context, tenant string, id uint) (*models.ClassType, error)
	listFn   func(ctx context.Context, tenant string, filter repository.ClassTypeFilter) ([]models.ClassType, error)
	updateFn func(ctx context.Context, tenant string, id uint, patch service.ClassTypePatch) (*models.ClassType, error)
	deleteFn func(ctx context.Context, tenant string, id uint) error
}

func (m *mockCatalogService) Create(ctx context.Context, tenant string, ct *models.ClassType) error {
	return m.createFn(ctx, tenant, ct)
}
func (m *mockCatalogService) Get(ctx context.Context, tenant string, id uint) (*models.ClassType, error) {
	return m.getFn(ctx, tenant, id)
}
func (m *mockCatalogService) List(ctx context.Context, tenant string, filter repository.ClassTypeFilter) ([]models.ClassType, error) {
	return m.listFn(ctx, tenant, filter)
}
func (m *mockCatalogService) Update(ctx context.Context, tenant string, id uint, patch service.ClassTypePatch) (*models.ClassType, error) {
	return m.updateFn(ctx, tenant, id, patch)
}
func (m *mockCatalogService) Delete(ctx context.Context, tenant string, id uint) error {
	return m.deleteFn(ctx, tenant, id)
}

type mockTemplateService struct {
	createFn func(ctx context.Context, tenant string, tpl *models.ScheduleTemplate) error
	getFn    func(ctx context.Context, tenant string, id uint) (*models.ScheduleTemplate, error)
	listFn   func(ctx context.Context, tenant string, filter repository.TemplateFilter) ([]models.ScheduleTemplate, error)
	updateFn func(ctx context.Context, tenant string, id uint, patch service.TemplatePatch) (*models.ScheduleTemplate, error)
	deleteFn func(ctx context.Context, tenant string, id uint) error
}

func (m *mockTemplateService) Create(ctx context.Context, tenant string, tpl *models.ScheduleTemplate) error {
	return m.createFn(ctx, tenant, tpl)
}
func (m *mockTemplateService) Get(ctx context.Context, tenant string, id uint) (*models.ScheduleTemplate, error) {
	return m.getFn(ctx, tenant, id)
}
func (m *mockTemplateService) List(ctx context.Context, tenant string, filter repository.TemplateFilter) ([]models.ScheduleTemplate, error) {
	return m.listFn(ctx, tenant, filter)
}
func (m *mockTemplateService) Update(ctx context.Context, tenant string, id uint, patch service.TemplatePatch) (*models.ScheduleTemplate, error) {
	return m.updateFn(ctx, tenant, id, patch)
}
func (m *mockTemplateService) Delete(ctx context.Context, tenant string, id uint) error {
	return m.deleteFn(ctx, tenant, id)
}

type mockSessionService struct {
	listFn   func(ctx context.Context, tenant string, filter repository.SessionFilter) (*models.Page[models.SessionView], error)
	getFn    func(ctx context.Context, tenant string, id uint) (*models.SessionView, error)
	updateFn func(ctx context.Context, tenant string, id uint, in service.UpdateSessionInput) (*models.SessionView, error)
}

func (m *mockSessionService) ListSessions(ctx context.Context, tenant string, filter repository.SessionFilter) (*models.Page[models.SessionView], error) {
	return m.listFn(ctx, tenant, filter)
}
func (m *mockSessionService) GetSession(ctx context.Context, tenant string, id uint) (*models.SessionView, error) {
	return m.getFn(ctx, tenant, id)
}
func (m *mockSessionService) UpdateSessionStatus(ctx context.Context, tenant string, id uint, in service.UpdateSessionInput) (*models.SessionView, error) {
	return m.updateFn(ctx, tenant, id, in)
}

type mockGeneratorService struct {
	generateFn func(ctx context.Context, tenant string, in service.GenerateInput) (*service.GenerateResult, error)
}

func (m *mockGeneratorService) Generate(ctx context.Context, tenant string, in service.GenerateInput) (*service.GenerateResult, error) {
	return m.generateFn(ctx, tenant, in)
}

type mockBookingService struct {
	bookFn          func(ctx context.Context, tenant string, sessionID uint, memberID uuid.UUID) (*service.BookResult, error)
	updateFn        func(ctx context.Context, tenant string, bookingID uint, in service.UpdateBookingInput, caller models.Caller) (*models.Booking, error)
	getFn           func(ctx context.Context, tenant string, bookingID uint, caller models.Caller) (*models.Booking, error)
	listForSession  func(ctx context.Context, tenant string, sessionID uint) (*service.SessionBookings, error)
	listForMemberFn func(ctx context.Context, tenant string, memberID uuid.UUID, filter repository.MemberBookingFilter, caller models.Caller) (*models.Page[models.MemberBookingView], error)
}

func (m *mockBookingService) BookSession(ctx context.Context, tenant string, sessionID uint, memberID uuid.UUID) (*service.BookResult, error) {
	return m.bookFn(ctx, tenant, sessionID, memberID)
}
func (m *mockBookingService) UpdateBookingStatus(ctx context.Context, tenant string, bookingID uint, in service.UpdateBookingInput, caller models.Caller) (*models.Booking, error) {
	return m.updateFn(ctx, tenant, bookingID, in, caller)
}
func (m *mockBookingService) GetBooking(ctx context.Context, tenant string, bookingID uint, caller models.Caller) (*models.Booking, error) {
	return m.getFn(ctx, tenant, bookingID, caller)
}
func (m *mockBookingService) ListBookingsForSession(ctx context.Context, tenant string, sessionID uint) (*service.SessionBookings, error) {
	return m.listForSession(ctx, tenant, sessionID)
}
func (m *mockBookingService) ListBookingsForMember(ctx context.Context, tenant string, memberID uuid.UUID, filter repository.MemberBookingFilter, caller models.Caller) (*models.Page[models.MemberBookingView], error) {
	return m.listForMemberFn(ctx, tenant, memberID, filter, caller)
}

// --- Helpers ---

// newContext builds a handler context with the identity middleware's values
// already set.
func newContext(method, target, body string, caller models.Caller) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = middleware.NewRequestValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.SetIdentity(c, tenant, caller)
	return c, rec
}

// newServer mounts every handler the way main does, for route-level tests.
func newServer(t *testing.T, catalog service.CatalogService, templates service.TemplateService,
	sessions service.SessionService, generator service.GeneratorService, bookings service.BookingService) *echo.Echo {
	t.Helper()
	log, _ := test.NewNullLogger()
	e := echo.New()
	e.Validator = middleware.NewRequestValidator()
	e.HTTPErrorHandler = middleware.ErrorHandler(log)

	api := e.Group("/api/v1", middleware.Identity())
	NewClassTypeHandler(catalog).RegisterRoutes(api.Group("/class-types"))
	NewTemplateHandler(templates).RegisterRoutes(api.Group("/templates"))
	NewSessionHandler(sessions, generator, bookings).RegisterRoutes(api.Group("/sessions"))
	NewBookingHandler(bookings).RegisterRoutes(api)
	return e
}

func serve(e *echo.Echo, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set(middleware.HeaderTenantID, tenant)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func memberCaller(id uuid.UUID) models.Caller {
	return models.Caller{MemberID: id, Role: models.RoleMember}
}

func staffCaller() models.Caller {
	return models.Caller{MemberID: uuid.New(), Role: models.RoleStaff}
}

func staffHeaders() map[string]string {
	return map[string]string{middleware.HeaderMemberRole: string(models.RoleStaff)}
}

