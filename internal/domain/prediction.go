package domain

// Label is the classification one model opinion reports.
type Label string

const (
	LabelUTI   Label = "UTI"
	LabelNoUTI Label = "No UTI"
)

// Model names under which the two opinions are reported.
const (
	ModelRandomForest = "random_forest"
	ModelXGBoost      = "xgboost"
)

// ScoreResult is one model opinion: a label and a rounded percentage in [0, 100].
type ScoreResult struct {
	Prediction  Label `json:"prediction"`
	Probability int   `json:"probability"`
}

// IsUTI reports whether the opinion classifies the record as an infection.
func (s ScoreResult) IsUTI() bool {
	return s.Prediction == LabelUTI
}

// Prediction holds both opinions produced for a single assessment.
type Prediction struct {
	RandomForest ScoreResult `json:"random_forest"`
	XGBoost      ScoreResult `json:"xgboost"`
}

// RiskLevel is the coarse classification shown in history views.
type RiskLevel string

const (
	RiskHigh RiskLevel = "High"
	RiskLow  RiskLevel = "Low"
)

// Risk follows the random_forest opinion, which history views treat as the primary one.
func (p Prediction) Risk() RiskLevel {
	if p.RandomForest.IsUTI() {
		return RiskHigh
	}
	return RiskLow
}

// AnyUTI reports whether either opinion classifies the record as an infection.
func (p Prediction) AnyUTI() bool {
	return p.RandomForest.IsUTI() || p.XGBoost.IsUTI()
}

// RiskScorer maps a validated intake record to two model opinions.
// Implementations must be safe for concurrent use.
type RiskScorer interface {
	Score(record *IntakeRecord) (*Prediction, error)
}
