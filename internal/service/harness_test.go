package service

import (
	"context"
	"sync"
	"testing"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/directory"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/testutil"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/database"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/metrics"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type publishedEvent struct {
	key     string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{key: routingKey, payload: payload})
	return nil
}

func (p *recordingPublisher) byKey(key string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []any
	for _, e := range p.events {
		if e.key == key {
			out = append(out, e.payload)
		}
	}
	return out
}

type harness struct {
	ctx       context.Context
	db        *gorm.DB
	runner    database.TenantRunner
	repos     repository.Repositories
	metrics   *metrics.Metrics
	hook      *test.Hook
	publisher *recordingPublisher

	bookings  BookingService
	sessions  SessionService
	generator GeneratorService
	catalog   CatalogService
	templates TemplateService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	log, hook := test.NewNullLogger()

	h := &harness{
		ctx:       context.Background(),
		db:        db,
		runner:    database.NewSharedRunner(db),
		repos:     repository.NewRepositories(),
		metrics:   metrics.New(nil),
		hook:      hook,
		publisher: &recordingPublisher{},
	}
	names := directory.NewGormDirectory(h.runner)
	h.bookings = NewBookingService(h.runner, h.repos, names, h.publisher, h.metrics, log)
	h.sessions = NewSessionService(h.runner, h.repos, h.publisher, h.metrics, log)
	h.generator = NewGeneratorService(h.runner, h.repos, h.publisher, h.metrics, log)
	h.catalog = NewCatalogService(h.runner, h.repos, nil, log)
	h.templates = NewTemplateService(h.runner, h.repos, log)
	return h
}

// session creates a class type, a Monday template with capacity and one
// session on 2024-01-01.
func (h *harness) session(t *testing.T, capacity int) *models.Session {
	t.Helper()
	ct := testutil.CreateClassType(t, h.db, "Spin")
	tpl := testutil.CreateTemplate(t, h.db, ct.ID, 1, capacity)
	return testutil.CreateSession(t, h.db, tpl, "2024-01-01")
}

func (h *harness) book(t *testing.T, sessionID uint, member uuid.UUID) *BookResult {
	t.Helper()
	res, err := h.bookings.BookSession(h.ctx, testutil.Tenant, sessionID, member)
	require.NoError(t, err)
	return res
}

func (h *harness) reload(t *testing.T, bookingID uint) *models.Booking {
	t.Helper()
	var b models.Booking
	require.NoError(t, h.db.First(&b, bookingID).Error)
	return &b
}

func (h *harness) count(t *testing.T, sessionID uint, statuses ...models.BookingStatus) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(&models.Booking{}).
		Where("session_id = ? AND status IN ?", sessionID, statuses).
		Count(&n).Error)
	return n
}

func member(id uuid.UUID) models.Caller {
	return models.Caller{MemberID: id, Role: models.RoleMember}
}

func staff() models.Caller {
	return models.Caller{MemberID: uuid.New(), Role: models.RoleStaff}
}
