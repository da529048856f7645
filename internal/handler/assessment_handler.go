package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"uti-assess/internal/domain"
	"uti-assess/internal/dto"
	"uti-assess/internal/logger"
	"uti-assess/internal/middleware"
	"uti-assess/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

// AssessmentHandler serves scoring and health endpoints.
type AssessmentHandler struct {
	assessments service.AssessmentService
	history     service.HistoryService
	cache       domain.Cache
}

// NewAssessmentHandler creates a new AssessmentHandler. cache may be nil.
func NewAssessmentHandler(assessments service.AssessmentService, history service.HistoryService, cache domain.Cache) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments, history: history, cache: cache}
}

func requester(c *fiber.Ctx) service.Requester {
	return service.Requester{UserID: middleware.UserID(c), SessionID: middleware.SessionID(c)}
}

// Predict godoc
// @Summary Assess UTI risk
// @Description Scores one intake record with both models. The result is saved to history in the background.
// @Tags assessment
// @Accept json
// @Produce json
// @Param record body domain.IntakeRecord true "Intake record"
// @Success 200 {object} dto.PredictResponse
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 500 {object} dto.ErrorResponse
// @Router /predict [post]
func (h *AssessmentHandler) Predict(c *fiber.Ctx) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(c.Body(), &raw); err != nil || raw == nil {
		return domain.NewInvalidInputError("Request body must be a JSON object")
	}

	res, err := h.assessments.Assess(c.UserContext(), raw, requester(c))
	if err != nil {
		return err
	}

	return c.JSON(dto.PredictResponse{
		Success:         true,
		Prediction:      res.Prediction,
		AssessmentID:    res.ID,
		Risk:            res.Risk,
		Recommendations: res.Recommendation,
	})
}

// BatchPredict godoc
// @Summary Assess a batch of records
// @Description Scores each record independently. Invalid records get an error in their slot.
// @Tags assessment
// @Accept json
// @Produce json
// @Param records body []domain.IntakeRecord true "Intake records"
// @Success 200 {array} dto.BatchPredictItem
// @Failure 400 {object} dto.ErrorResponse "Body is not an array or too large"
// @Router /batch-predict [post]
func (h *AssessmentHandler) BatchPredict(c *fiber.Ctx) error {
	var items []interface{}
	if err := json.Unmarshal(c.Body(), &items); err != nil || items == nil {
		return domain.NewInvalidInputError("Request body must be a JSON array")
	}

	results, err := h.assessments.AssessBatch(c.UserContext(), items, requester(c))
	if err != nil {
		return err
	}

	out := make([]dto.BatchPredictItem, 0, len(results))
	for _, r := range results {
		item := dto.BatchPredictItem{Input: r.Input}
		if r.Err != nil {
			item.Error = batchErrorMessage(r.Err)
			var verrs domain.ValidationErrors
			if errors.As(r.Err, &verrs) {
				item.Errors = middleware.FieldErrors(verrs)
			}
		} else {
			rf, xgb := r.Result.Prediction.RandomForest, r.Result.Prediction.XGBoost
			item.RandomForest = &rf
			item.XGBoost = &xgb
			item.AssessmentID = r.Result.ID
		}
		out = append(out, item)
	}
	return c.JSON(out)
}

func batchErrorMessage(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "failed to assess record"
}

// Health godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse "Database unreachable"
// @Router /health [get]
func (h *AssessmentHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
	defer cancel()

	resp := dto.HealthResponse{
		Status:   "ok",
		Database: "ok",
		Cache:    "ok",
		Models:   map[string]bool{domain.ModelRandomForest: true, domain.ModelXGBoost: true},
		Time:     time.Now().UTC(),
	}
	status := fiber.StatusOK

	if err := h.history.Ping(ctx); err != nil {
		logger.Get().Warn("Health check: database unreachable", zap.Error(err))
		resp.Status = "unavailable"
		resp.Database = "error"
		status = fiber.StatusServiceUnavailable
	}

	if h.cache == nil {
		resp.Cache = "disabled"
	} else if err := h.cache.Ping(ctx); err != nil {
		// Scoring still works without the cache.
		logger.Get().Warn("Health check: cache unreachable", zap.Error(err))
		resp.Cache = "error"
		if status == fiber.StatusOK {
			resp.Status = "degraded"
		}
	} else if v, ok := h.cache.(domain.VolatileCache); ok && v.Volatile() {
		// Local history survives only until restart.
		resp.Cache = "memory"
	}

	return c.Status(status).JSON(resp)
}
