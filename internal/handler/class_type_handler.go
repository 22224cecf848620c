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

type ClassTypeHandler struct {
	svc service.CatalogService
}

func NewClassTypeHandler(svc service.CatalogService) *ClassTypeHandler {
	return &ClassTypeHandler{svc: svc}
}

func (h *ClassTypeHandler) RegisterRoutes(g *echo.Group) {
	staff := middleware.RequireStaff()
	g.POST("", h.CreateClassType, staff)
	g.GET("", h.ListClassTypes)
	g.GET("/:id", h.GetClassType)
	g.PATCH("/:id", h.UpdateClassType, staff)
	g.DELETE("/:id", h.DeleteClassType, staff)
}

func (h *ClassTypeHandler) CreateClassType(c echo.Context) error {
	var req dto.CreateClassTypeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ct := &models.ClassType{
		BranchID:               req.BranchID,
		Name:                   req.Name,
		Category:               req.Category,
		DefaultDurationMinutes: req.DefaultDurationMinutes,
		DefaultCapacity:        req.DefaultCapacity,
		Color:                  req.Color,
		Icon:                   req.Icon,
		IsActive:               true,
	}
	if req.IsActive != nil {
		ct.IsActive = *req.IsActive
	}

	if err := h.svc.Create(c.Request().Context(), middleware.TenantFrom(c), ct); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.ToClassTypeResponse(ct))
}

func (h *ClassTypeHandler) GetClassType(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ct, err := h.svc.Get(c.Request().Context(), middleware.TenantFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToClassTypeResponse(ct))
}

func (h *ClassTypeHandler) ListClassTypes(c echo.Context) error {
	branchID, err := queryUint(c, "branch_id")
	if err != nil {
		return err
	}
	includeShared, err := queryBool(c, "include_shared")
	if err != nil {
		return err
	}
	active, err := queryBool(c, "is_active")
	if err != nil {
		return err
	}

	filter := repository.ClassTypeFilter{
		BranchID:      branchID,
		IncludeShared: includeShared == nil || *includeShared,
		Category:      queryString(c, "category"),
		IsActive:      active,
	}
	types, err := h.svc.List(c.Request().Context(), middleware.TenantFrom(c), filter)
	if err != nil {
		return err
	}

	resp := make([]dto.ClassTypeResponse, len(types))
	for i := range types {
		resp[i] = dto.ToClassTypeResponse(&types[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ClassTypeHandler) UpdateClassType(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateClassTypeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	patch := service.ClassTypePatch{
		Name:                   req.Name,
		Category:               req.Category,
		DefaultDurationMinutes: req.DefaultDurationMinutes,
		DefaultCapacity:        req.DefaultCapacity,
		Color:                  req.Color,
		Icon:                   req.Icon,
		IsActive:               req.IsActive,
		BranchID:               req.BranchID,
		ClearBranch:            req.ClearBranch,
	}
	ct, err := h.svc.Update(c.Request().Context(), middleware.TenantFrom(c), id, patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToClassTypeResponse(ct))
}

func (h *ClassTypeHandler) DeleteClassType(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), middleware.TenantFrom(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
