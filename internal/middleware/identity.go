package middleware

import (
	"fmt"
	"strings"

	"github.com/Eursukkul/booking-microservice/scheduling-service/internal/models"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/apperrors"
	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/database"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Headers set by the upstream auth gateway.
const (
	HeaderTenantID   = "X-Tenant-ID"
	HeaderMemberID   = "X-Member-ID"
	HeaderMemberRole = "X-Member-Role"
)

const (
	tenantKey = "tenant"
	callerKey = "caller"
)

// Identity resolves the tenant and caller of every request. The tenant is
// mandatory; the member id may be absent for staff tooling.
func Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenant := strings.TrimSpace(c.Request().Header.Get(HeaderTenantID))
			if tenant == "" {
				return apperrors.InvalidInput(HeaderTenantID + " header is required")
			}
			if err := database.ValidateTenant(tenant); err != nil {
				return err
			}

			caller := models.Caller{Role: models.RoleMember}
			if raw := c.Request().Header.Get(HeaderMemberID); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					return apperrors.InvalidInput(fmt.Sprintf("invalid %s header", HeaderMemberID))
				}
				caller.MemberID = id
			}
			if raw := c.Request().Header.Get(HeaderMemberRole); raw != "" {
				role := models.Role(strings.ToLower(raw))
				if !role.Valid() {
					return apperrors.InvalidInput(fmt.Sprintf("unknown role %q", raw))
				}
				caller.Role = role
			}

			c.Set(tenantKey, tenant)
			c.Set(callerKey, caller)
			return next(c)
		}
	}
}

// RequireStaff rejects callers without a privileged role.
func RequireStaff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !CallerFrom(c).Role.Privileged() {
				return apperrors.Forbidden("staff or admin role required")
			}
			return next(c)
		}
	}
}

func TenantFrom(c echo.Context) string {
	tenant, _ := c.Get(tenantKey).(string)
	return tenant
}

func CallerFrom(c echo.Context) models.Caller {
	caller, ok := c.Get(callerKey).(models.Caller)
	if !ok {
		return models.Caller{Role: models.RoleMember}
	}
	return caller
}

// SetIdentity stores tenant and caller on c, as Identity does.
func SetIdentity(c echo.Context, tenant string, caller models.Caller) {
	c.Set(tenantKey, tenant)
	c.Set(callerKey, caller)
}
