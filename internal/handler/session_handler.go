package handler

import (
	"net/http"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/dto"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/middleware"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/service"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/apperrors"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type SessionHandler struct {
	sessions  service.SessionService
	generator service.GeneratorService
	bookings  service.BookingService
}

func NewSessionHandler(sessions service.SessionService, generator service.GeneratorService, bookings service.BookingService) *SessionHandler {
	return &SessionHandler{sessions: sessions, generator: generator, bookings: bookings}
}

func (h *SessionHandler) RegisterRoutes(g *echo.Group) {
	staff := middleware.RequireStaff()
	g.POST("/generate", h.GenerateSessions, staff)
	g.GET("", h.ListSessions)
	g.GET("/:id", h.GetSession)
	g.PATCH("/:id/status", h.UpdateSessionStatus, staff)
	g.GET("/:id/bookings", h.ListSessionBookings, staff)
	g.POST("/:id/bookings", h.BookSession)
}

func (h *SessionHandler) GenerateSessions(c echo.Context) error {
	var req dto.GenerateSessionsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	from, err := parseDate(&req.From, "from")
	if err != nil {
		return err
	}
	to, err := parseDate(&req.To, "to")
	if err != nil {
		return err
	}

	res, err := h.generator.Generate(c.Request().Context(), middleware.TenantFrom(c), service.GenerateInput{
		From:       *from,
		To:         *to,
		BranchID:   req.BranchID,
		TemplateID: req.TemplateID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.GenerateSessionsResponse{Created: res.Created})
}

func (h *SessionHandler) ListSessions(c echo.Context) error {
	var (
		filter repository.SessionFilter
		err    error
	)
	if filter.BranchID, err = queryUint(c, "branch_id"); err != nil {
		return err
	}
	if filter.From, err = queryDate(c, "from"); err != nil {
		return err
	}
	if filter.To, err = queryDate(c, "to"); err != nil {
		return err
	}
	if filter.ClassTypeID, err = queryUint(c, "class_type_id"); err != nil {
		return err
	}
	if filter.InstructorID, err = queryUUID(c, "instructor_id"); err != nil {
		return err
	}
	if raw := queryString(c, "status"); raw != nil {
		status := models.SessionStatus(*raw)
		if !status.Valid() {
			return apperrors.InvalidInput("invalid status")
		}
		filter.Status = &status
	}
	if filter.Pagination, err = queryPagination(c); err != nil {
		return err
	}

	page, err := h.sessions.ListSessions(c.Request().Context(), middleware.TenantFrom(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToPageResponse(page, dto.ToSessionResponse))
}

func (h *SessionHandler) GetSession(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	view, err := h.sessions.GetSession(c.Request().Context(), middleware.TenantFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToSessionResponse(view))
}

func (h *SessionHandler) UpdateSessionStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateSessionStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := service.UpdateSessionInput{
		Notes:            req.Notes,
		CancelledReason:  req.CancelledReason,
		CapacityOverride: req.CapacityOverride,
	}
	if req.Status != nil {
		status := models.SessionStatus(*req.Status)
		in.Status = &status
	}
	if in.InstructorID, err = parseUUID(req.InstructorID, "instructor_id"); err != nil {
		return err
	}

	view, err := h.sessions.UpdateSessionStatus(c.Request().Context(), middleware.TenantFrom(c), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToSessionResponse(view))
}

func (h *SessionHandler) ListSessionBookings(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	bookings, err := h.bookings.ListBookingsForSession(c.Request().Context(), middleware.TenantFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToSessionBookingsResponse(bookings))
}

// BookSession books the caller into a session. Staff may book on behalf of
// another member by passing member_id.
func (h *SessionHandler) BookSession(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.CreateBookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	memberID, err := bookingMember(middleware.CallerFrom(c), req.MemberID)
	if err != nil {
		return err
	}

	res, err := h.bookings.BookSession(c.Request().Context(), middleware.TenantFrom(c), id, memberID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.ToBookResponse(res))
}

func bookingMember(caller models.Caller, requested string) (uuid.UUID, error) {
	if requested != "" {
		id, err := uuid.Parse(requested)
		if err != nil {
			return uuid.Nil, apperrors.InvalidInput("invalid member_id")
		}
		if !caller.CanActFor(id) {
			return uuid.Nil, apperrors.Forbidden("cannot book on behalf of another member")
		}
		return id, nil
	}
	if caller.MemberID == uuid.Nil {
		return uuid.Nil, apperrors.InvalidInput("member_id is required")
	}
	return caller.MemberID, nil
}
