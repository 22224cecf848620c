package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/apperrors"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.InvalidInput(fmt.Sprintf("invalid %s", name))
	}
	return uint(id), nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperrors.InvalidInput("invalid request body")
	}
	return c.Validate(req)
}

func queryUint(c echo.Context, name string) (*uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid %s", name))
	}
	u := uint(v)
	return &u, nil
}

func queryInt(c echo.Context, name string) (*int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid %s", name))
	}
	return &v, nil
}

func queryBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid %s", name))
	}
	return &v, nil
}

func queryDate(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	return parseDate(&raw, name)
}

func queryUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	return parseUUID(&raw, name)
}

func queryString(c echo.Context, name string) *string {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	return &raw
}

func queryPagination(c echo.Context) (repository.Pagination, error) {
	var p repository.Pagination
	page, err := queryInt(c, "page")
	if err != nil {
		return p, err
	}
	perPage, err := queryInt(c, "per_page")
	if err != nil {
		return p, err
	}
	if page != nil {
		p.Page = *page
	}
	if perPage != nil {
		p.PerPage = *perPage
	}
	return p, nil
}

// parseDate reads an optional YYYY-MM-DD value; nil and "" are absent.
func parseDate(raw *string, name string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(*raw)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid %s, expected YYYY-MM-DD", name))
	}
	return &d, nil
}

func parseUUID(raw *string, name string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid %s", name))
	}
	return &id, nil
}
