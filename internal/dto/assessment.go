package dto

import (
	"time"

	"uti-assess/internal/domain"
)

// PredictResponse is the body of a successful POST /api/predict.
// @Description Two model opinions, the derived risk and advice
type PredictResponse struct {
	Success         bool                  `json:"success"`
	Prediction      domain.Prediction     `json:"prediction"`
	AssessmentID    string                `json:"assessment_id"`
	Risk            domain.RiskLevel      `json:"risk"`
	Recommendations domain.Recommendation `json:"recommendations"`
}

// BatchPredictItem is one slot of the batch response: either the scored input or an error.
type BatchPredictItem struct {
	Input        interface{}         `json:"input,omitempty"`
	RandomForest *domain.ScoreResult `json:"random_forest,omitempty"`
	XGBoost      *domain.ScoreResult `json:"xgboost,omitempty"`
	AssessmentID string              `json:"assessment_id,omitempty"`
	Error        string              `json:"error,omitempty"`
	Errors       []FieldError        `json:"errors,omitempty"`
}

// HealthResponse reports the service and dependency status.
type HealthResponse struct {
	Status   string          `json:"status"`
	Database string          `json:"database"`
	Cache    string          `json:"cache"`
	Models   map[string]bool `json:"models"`
	Time     time.Time       `json:"time"`
}

// HistoryEntryResponse is one row of a history listing.
type HistoryEntryResponse struct {
	ID         string              `json:"id"`
	Date       time.Time           `json:"date"`
	Record     domain.IntakeRecord `json:"record"`
	Prediction domain.Prediction   `json:"prediction"`
	Risk       domain.RiskLevel    `json:"risk"`
}

// HistoryResponse wraps a history listing with its summary counts.
type HistoryResponse struct {
	Source      string                 `json:"source"` // "account" or "local"
	Assessments []HistoryEntryResponse `json:"assessments"`
	Stats       domain.HistoryStats    `json:"stats"`
}

// NewHistoryResponse converts entries, keeping their order.
func NewHistoryResponse(source string, entries []domain.AssessmentEntry) HistoryResponse {
	items := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, HistoryEntryResponse{
			ID:         e.ID,
			Date:       e.CreatedAt,
			Record:     e.Record,
			Prediction: e.Prediction,
			Risk:       e.Risk(),
		})
	}
	return HistoryResponse{
		Source:      source,
		Assessments: items,
		Stats:       domain.SummarizeHistory(entries),
	}
}
