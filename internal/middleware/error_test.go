package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"uti-assess/internal/domain"
	"uti-assess/internal/dto"
	"uti-assess/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorApp(err error) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	app.Get("/", func(c *fiber.Ctx) error { return err })
	return app
}

func TestErrorHandler_StatusMapping(t *testing.T) {
	verrs := domain.ValidationErrors{domain.NewMissingFieldError("Frequency")}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantFields []string
	}{
		{"validation wrapped", domain.NewError(domain.CodeValidation, verrs.Error(), verrs), 400, "VALIDATION_ERROR", []string{"Frequency"}},
		{"bare validation errors", verrs, 400, "VALIDATION_ERROR", []string{"Frequency"}},
		{"invalid input", domain.NewInvalidInputError("bad"), 400, "INVALID_INPUT", nil},
		{"auth", domain.NewAuthError("Invalid email or password", nil), 401, "AUTH_ERROR", nil},
		{"forbidden", domain.NewForbiddenError("no"), 403, "FORBIDDEN", nil},
		{"not found", domain.NewNotFoundError("gone"), 404, "NOT_FOUND", nil},
		{"conflict", domain.NewConflictError("taken"), 409, "CONFLICT", nil},
		{"scoring", domain.NewScoringError("failed", nil), 500, "SCORING_ERROR", nil},
		{"persistence", domain.NewPersistenceError("db", errors.New("down")), 500, "PERSISTENCE_ERROR", nil},
		{"fiber error", fiber.NewError(fiber.StatusMethodNotAllowed, "nope"), 405, "HTTP_ERROR", nil},
		{"unknown", errors.New("kaboom"), 500, "INTERNAL_ERROR", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := errorApp(tc.err).Test(httptest.NewRequest("GET", "/", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)

			var body dto.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.wantCode, body.Code)
			assert.Equal(t, tc.wantStatus, body.Status)
			assert.NotEmpty(t, body.Error)

			var fields []string
			for _, f := range body.Errors {
				fields = append(fields, f.Field)
			}
			assert.Equal(t, tc.wantFields, fields)
		})
	}
}

func TestErrorHandler_InternalMessageNotLeaked(t *testing.T) {
	resp, err := errorApp(errors.New("password=hunter2")).Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Internal server error", body.Error)
}

func TestErrorHandler_Details(t *testing.T) {
	derr := domain.NewInvalidInputError("too many").WithContext("limit", 100)
	resp, err := errorApp(derr).Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(100), body.Details["limit"])
}
