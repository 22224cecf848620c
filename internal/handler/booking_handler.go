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

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

// RegisterRoutes mounts the booking routes on the api root, since member
// listings live outside /bookings.
func (h *BookingHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/bookings/:id", h.GetBooking)
	g.PATCH("/bookings/:id/status", h.UpdateBookingStatus)
	g.GET("/members/:id/bookings", h.ListMemberBookings)
	g.GET("/me/bookings", h.ListMyBookings)
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	booking, err := h.svc.GetBooking(c.Request().Context(), middleware.TenantFrom(c), id, middleware.CallerFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) UpdateBookingStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateBookingStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := service.UpdateBookingInput{
		Status:       models.BookingStatus(req.Status),
		CancelReason: req.CancelReason,
	}
	booking, err := h.svc.UpdateBookingStatus(c.Request().Context(), middleware.TenantFrom(c), id, in, middleware.CallerFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ListMemberBookings(c echo.Context) error {
	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.InvalidInput("invalid member id")
	}
	return h.listForMember(c, memberID)
}

func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	caller := middleware.CallerFrom(c)
	if caller.MemberID == uuid.Nil {
		return apperrors.InvalidInput(middleware.HeaderMemberID + " header is required")
	}
	return h.listForMember(c, caller.MemberID)
}

func (h *BookingHandler) listForMember(c echo.Context, memberID uuid.UUID) error {
	var (
		filter repository.MemberBookingFilter
		err    error
	)
	if raw := queryString(c, "status"); raw != nil {
		status := models.BookingStatus(*raw)
		if !status.Valid() {
			return apperrors.InvalidInput("invalid status")
		}
		filter.Status = &status
	}
	if filter.From, err = queryDate(c, "from"); err != nil {
		return err
	}
	if filter.To, err = queryDate(c, "to"); err != nil {
		return err
	}
	if filter.Pagination, err = queryPagination(c); err != nil {
		return err
	}

	page, err := h.svc.ListBookingsForMember(c.Request().Context(), middleware.TenantFrom(c), memberID, filter, middleware.CallerFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToPageResponse(page, dto.ToMemberBookingResponse))
}
