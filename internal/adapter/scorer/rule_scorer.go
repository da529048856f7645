// Package scorer implements the rule-table risk scorer.
//
// The two reported opinions, "random_forest" and "xgboost", are not separate models.
// Both come from the same priority table evaluated with different constants, and the
// per-call jitter is synthetic variance kept for compatibility with existing clients.
package scorer

import (
	"math"
	"math/rand/v2"

	"uti-assess/internal/domain"
)

const (
	jitterSpan     = 0.10
	minProbability = 0.05
	maxProbability = 0.95
	labelThreshold = 0.5
)

// JitterSource yields uniform values in [0, 1).
type JitterSource interface {
	Float64() float64
}

type globalSource struct{}

// Float64 uses the package-level generator, which is safe for concurrent use.
func (globalSource) Float64() float64 { return rand.Float64() }

// tableRow maps an indicator triple to a base probability.
type tableRow struct {
	severe, risk, labs bool
	base               float64
}

// ModelTable is the constant table for one reported opinion, in priority order.
type ModelTable struct {
	Name string
	rows []tableRow
}

func newTable(name string, bases [8]float64) ModelTable {
	triples := [8][3]bool{
		{true, true, true},
		{true, true, false},
		{true, false, true},
		{false, true, true},
		{true, false, false},
		{false, false, true},
		{false, true, false},
		{false, false, false},
	}
	rows := make([]tableRow, len(triples))
	for i, t := range triples {
		rows[i] = tableRow{severe: t[0], risk: t[1], labs: t[2], base: bases[i]}
	}
	return ModelTable{Name: name, rows: rows}
}

var (
	RandomForestTable = newTable(domain.ModelRandomForest, [8]float64{0.95, 0.85, 0.80, 0.75, 0.65, 0.60, 0.35, 0.15})
	XGBoostTable      = newTable(domain.ModelXGBoost, [8]float64{0.97, 0.88, 0.82, 0.78, 0.68, 0.62, 0.38, 0.18})
)

// Row returns the 1-based index of the first row matching ind, and its base probability.
func (t ModelTable) Row(ind domain.Indicators) (int, float64) {
	for i, r := range t.rows {
		if r.severe == ind.SevereSymptoms && r.risk == ind.RiskFactors && r.labs == ind.PositiveLabs {
			return i + 1, r.base
		}
	}
	// Every triple is covered above; keep the lowest row as the floor.
	last := len(t.rows) - 1
	return last + 1, t.rows[last].base
}

// RuleScorer implements domain.RiskScorer.
type RuleScorer struct {
	jitter JitterSource
}

// Option configures a RuleScorer.
type Option func(*RuleScorer)

// WithJitterSource replaces the random source, mainly for tests.
func WithJitterSource(src JitterSource) Option {
	return func(s *RuleScorer) {
		if src != nil {
			s.jitter = src
		}
	}
}

// NewRuleScorer creates a scorer backed by the global random source.
func NewRuleScorer(opts ...Option) *RuleScorer {
	s := &RuleScorer{jitter: globalSource{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ domain.RiskScorer = (*RuleScorer)(nil)

// Score derives the indicator triple once and evaluates both tables against it.
func (s *RuleScorer) Score(record *domain.IntakeRecord) (*domain.Prediction, error) {
	if record == nil {
		return nil, domain.NewScoringError("cannot score an empty intake record", nil)
	}
	ind := domain.DeriveIndicators(record)
	return &domain.Prediction{
		RandomForest: scoreWith(RandomForestTable, ind, s.jitter),
		XGBoost:      scoreWith(XGBoostTable, ind, s.jitter),
	}, nil
}

func scoreWith(table ModelTable, ind domain.Indicators, src JitterSource) domain.ScoreResult {
	_, base := table.Row(ind)
	p := clamp(base + src.Float64()*jitterSpan - jitterSpan/2)
	return ToScoreResult(p)
}

// ToScoreResult labels a probability and converts it to a rounded percentage.
func ToScoreResult(p float64) domain.ScoreResult {
	label := domain.LabelNoUTI
	if p > labelThreshold {
		label = domain.LabelUTI
	}
	return domain.ScoreResult{
		Prediction:  label,
		Probability: int(math.Round(p * 100)),
	}
}

func clamp(p float64) float64 {
	return math.Min(maxProbability, math.Max(minProbability, p))
}
