package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/apperrors"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantLogged bool
	}{
		{"app error", apperrors.Conflict("session is not open for booking"), http.StatusConflict, apperrors.CodeConflict, false},
		{"not found", apperrors.NotFound("session", 9), http.StatusNotFound, apperrors.CodeNotFound, false},
		{"echo not found", echo.ErrNotFound, http.StatusNotFound, apperrors.CodeNotFound, false},
		{"echo method", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, apperrors.CodeInvalidInput, false},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, apperrors.CodeInternal, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, hook := test.NewNullLogger()
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/9", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			ErrorHandler(log)(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			if tt.wantLogged {
				require.NotNil(t, hook.LastEntry())
				assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
			} else {
				assert.Empty(t, hook.AllEntries())
			}
		})
	}
}

func TestErrorHandler_InternalHidesCause(t *testing.T) {
	log, _ := test.NewNullLogger()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	ErrorHandler(log)(apperrors.Internal("failed to load session", errors.New("pq: connection refused")), c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}
