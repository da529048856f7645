package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"uti-assess/internal/adapter"
	"uti-assess/internal/adapter/scorer"
	"uti-assess/internal/config"
	"uti-assess/internal/database"
	"uti-assess/internal/domain"
	"uti-assess/internal/dto"
	"uti-assess/internal/handler"
	"uti-assess/internal/middleware"
	"uti-assess/internal/repository"
	"uti-assess/internal/service"
	"uti-assess/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	app         *fiber.App
	db          *sqlx.DB
	users       domain.UserRepository
	assessments service.AssessmentService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{
		DB: config.DBConfig{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "api.db")},
		JWT: config.JWTConfig{
			SecretKey:       "handler-tests-secret-key-at-least-32-bytes",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: time.Hour,
		},
	}
	db, err := database.Open(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(ctx, db, cfg.DB.Driver))

	cache := adapter.NewMemoryCache()
	validator := validation.NewValidator()
	userRepo := repository.NewSQLXUserRepository(db)
	historyService := service.NewHistoryService(repository.NewAssessmentDatabaseAdapter(db), userRepo)
	localHistory := service.NewLocalHistoryService(cache, time.Hour)
	assessmentService := service.NewAssessmentService(validator, scorer.NewRuleScorer(), historyService, localHistory, time.Second)
	authService, err := service.NewAuthService(userRepo, cache, cfg, validator)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	handler.RegisterRoutes(app, handler.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Users:       handler.NewUserHandler(authService),
		Assessments: handler.NewAssessmentHandler(assessmentService, historyService, cache),
		History:     handler.NewHistoryHandler(historyService, localHistory),
	}, authService, time.Hour)

	ts := &testServer{app: app, db: db, users: userRepo, assessments: assessmentService}
	t.Cleanup(func() {
		assessmentService.Wait()
		db.Close()
	})
	return ts
}

type call struct {
	method  string
	path    string
	body    interface{}
	token   string
	session string
}

func (ts *testServer) do(t *testing.T, c call) *http.Response {
	t.Helper()
	var body io.Reader
	switch b := c.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(c.method, c.path, body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.session != "" {
		req.Header.Set(middleware.SessionHeader, c.session)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// signUp creates an account and returns its access token.
func (ts *testServer) signUp(t *testing.T, email, role string) dto.AuthResponse {
	t.Helper()
	resp := ts.do(t, call{method: "POST", path: "/api/auth/signup", body: dto.SignUpRequest{
		Email: email, Password: "secret123", Name: "Test", Role: role,
	}})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var out dto.AuthResponse
	decode(t, resp, &out)
	return out
}

func highRiskIntake() map[string]interface{} {
	return map[string]interface{}{
		"Age":                  25,
		"Sex":                  "Female",
		"Previous_UTI":         "Yes",
		"Diabetes":             "No",
		"Dysuria":              "Yes",
		"Frequency":            "Yes",
		"Lower_Abdominal_Pain": "Yes",
		"Fever":                "No",
		"Leukocyte_Esterase":   "Positive",
		"Nitrite":              "Positive",
		"WBC_Count":            15,
		"Hematuria":            "Yes",
		"Urine_Culture":        "Unknown",
	}
}

func lowRiskIntake() map[string]interface{} {
	return map[string]interface{}{
		"Age":                  40,
		"Sex":                  "Male",
		"Previous_UTI":         "No",
		"Diabetes":             "No",
		"Dysuria":              "No",
		"Frequency":            "No",
		"Lower_Abdominal_Pain": "No",
		"Fever":                "No",
		"Leukocyte_Esterase":   "Negative",
		"Nitrite":              "Negative",
		"WBC_Count":            5,
		"Hematuria":            "No",
		"Urine_Culture":        "Negative",
	}
}
