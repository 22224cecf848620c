package handler

import (
	"net/http"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/dto"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/middleware"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/service"
	"github.com/labstack/echo/v4"
)

type TemplateHandler struct {
	svc service.TemplateService
}

func NewTemplateHandler(svc service.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

func (h *TemplateHandler) RegisterRoutes(g *echo.Group) {
	staff := middleware.RequireStaff()
	g.POST("", h.CreateTemplate, staff)
	g.GET("", h.ListTemplates)
	g.GET("/:id", h.GetTemplate)
	g.PATCH("/:id", h.UpdateTemplate, staff)
	g.DELETE("/:id", h.DeleteTemplate, staff)
}

func (h *TemplateHandler) CreateTemplate(c echo.Context) error {
	var req dto.CreateTemplateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	instructorID, err := parseUUID(req.InstructorID, "instructor_id")
	if err != nil {
		return err
	}
	validFrom, err := parseDate(req.ValidFrom, "valid_from")
	if err != nil {
		return err
	}
	validUntil, err := parseDate(req.ValidUntil, "valid_until")
	if err != nil {
		return err
	}

	tpl := &models.ScheduleTemplate{
		ClassTypeID:  req.ClassTypeID,
		BranchID:     req.BranchID,
		InstructorID: instructorID,
		Room:         req.Room,
		DayOfWeek:    *req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Capacity:     req.Capacity,
		IsRecurring:  true,
		ValidFrom:    validFrom,
		ValidUntil:   validUntil,
		IsActive:     true,
	}
	if req.IsRecurring != nil {
		tpl.IsRecurring = *req.IsRecurring
	}
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}

	if err := h.svc.Create(c.Request().Context(), middleware.TenantFrom(c), tpl); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.ToTemplateResponse(tpl))
}

func (h *TemplateHandler) GetTemplate(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	tpl, err := h.svc.Get(c.Request().Context(), middleware.TenantFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToTemplateResponse(tpl))
}

func (h *TemplateHandler) ListTemplates(c echo.Context) error {
	var (
		filter repository.TemplateFilter
		err    error
	)
	if filter.BranchID, err = queryUint(c, "branch_id"); err != nil {
		return err
	}
	if filter.ClassTypeID, err = queryUint(c, "class_type_id"); err != nil {
		return err
	}
	if filter.DayOfWeek, err = queryInt(c, "day_of_week"); err != nil {
		return err
	}
	if filter.IsActive, err = queryBool(c, "is_active"); err != nil {
		return err
	}

	templates, err := h.svc.List(c.Request().Context(), middleware.TenantFrom(c), filter)
	if err != nil {
		return err
	}

	resp := make([]dto.TemplateResponse, len(templates))
	for i := range templates {
		resp[i] = dto.ToTemplateResponse(&templates[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *TemplateHandler) UpdateTemplate(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateTemplateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	patch := service.TemplatePatch{
		ClassTypeID:     req.ClassTypeID,
		BranchID:        req.BranchID,
		ClearInstructor: req.ClearInstructor,
		Room:            req.Room,
		DayOfWeek:       req.DayOfWeek,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Capacity:        req.Capacity,
		IsRecurring:     req.IsRecurring,
		ClearValidFrom:  req.ClearValidFrom,
		ClearValidUntil: req.ClearValidUntil,
		IsActive:        req.IsActive,
	}
	if patch.InstructorID, err = parseUUID(req.InstructorID, "instructor_id"); err != nil {
		return err
	}
	if patch.ValidFrom, err = parseDate(req.ValidFrom, "valid_from"); err != nil {
		return err
	}
	if patch.ValidUntil, err = parseDate(req.ValidUntil, "valid_until"); err != nil {
		return err
	}

	tpl, err := h.svc.Update(c.Request().Context(), middleware.TenantFrom(c), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToTemplateResponse(tpl))
}

func (h *TemplateHandler) DeleteTemplate(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), middleware.TenantFrom(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
