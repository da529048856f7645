package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"uti-assess/internal/domain"
	"uti-assess/internal/repository/models"
	"uti-assess/internal/util"

	"github.com/jmoiron/sqlx"
)

// AssessmentDatabaseAdapter stores history entries in the uti_predictions table.
type AssessmentDatabaseAdapter struct {
	db *sqlx.DB
}

// NewAssessmentDatabaseAdapter creates a new instance of AssessmentDatabaseAdapter
func NewAssessmentDatabaseAdapter(db *sqlx.DB) domain.AssessmentRepository {
	return &AssessmentDatabaseAdapter{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAssessment(row rowScanner) (*models.Assessment, error) {
	var m models.Assessment
	if err := row.Scan(m.ScanTargets()...); err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateAssessment inserts one entry.
func (r *AssessmentDatabaseAdapter) CreateAssessment(ctx context.Context, entry *domain.AssessmentEntry) error {
	if entry == nil {
		return domain.NewInvalidInputError("assessment entry is nil")
	}
	query := `INSERT INTO uti_predictions (id, user_id, age, sex, previous_uti, diabetes, dysuria, frequency,
		lower_abdominal_pain, fever, leukocyte_esterase, nitrite, wbc_count, hematuria, urine_culture,
		rf_prediction, rf_probability, xgb_prediction, xgb_probability, created_at)
		VALUES (:id, :user_id, :age, :sex, :previous_uti, :diabetes, :dysuria, :frequency,
		:lower_abdominal_pain, :fever, :leukocyte_esterase, :nitrite, :wbc_count, :hematuria, :urine_culture,
		:rf_prediction, :rf_probability, :xgb_prediction, :xgb_probability, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, fromDomainAssessment(entry)); err != nil {
		return fmt.Errorf("failed to create assessment %s: %w", entry.ID, err)
	}
	return nil
}

// GetAssessmentByID returns (nil, nil) when no entry has the id.
func (r *AssessmentDatabaseAdapter) GetAssessmentByID(ctx context.Context, id string) (*domain.AssessmentEntry, error) {
	query := r.db.Rebind(`SELECT ` + models.AssessmentColumns + ` FROM uti_predictions WHERE id = ?`)
	m, err := scanAssessment(r.db.QueryRowxContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assessment by id: %w", err)
	}
	return toDomainAssessment(m), nil
}

// ListAssessmentsByOwner returns the owner's entries, newest first.
func (r *AssessmentDatabaseAdapter) ListAssessmentsByOwner(ctx context.Context, ownerID string) ([]domain.AssessmentEntry, error) {
	query := r.db.Rebind(`SELECT ` + models.AssessmentColumns +
		` FROM uti_predictions WHERE user_id = ? ORDER BY created_at DESC, id DESC`)
	return r.list(ctx, query, ownerID)
}

// ListAllAssessments returns every entry, newest first. Callers gate access by role.
func (r *AssessmentDatabaseAdapter) ListAllAssessments(ctx context.Context) ([]domain.AssessmentEntry, error) {
	query := `SELECT ` + models.AssessmentColumns + ` FROM uti_predictions ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query)
}

func (r *AssessmentDatabaseAdapter) list(ctx context.Context, query string, args ...interface{}) ([]domain.AssessmentEntry, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	entries := []domain.AssessmentEntry{}
	for rows.Next() {
		m, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		entries = append(entries, *toDomainAssessment(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assessments: %w", err)
	}
	return entries, nil
}

// DeleteAssessment removes one entry. A missing id is a NOT_FOUND error.
func (r *AssessmentDatabaseAdapter) DeleteAssessment(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM uti_predictions WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("assessment %s not found", id))
	}
	return nil
}

// Ping checks the connection to the history store.
func (r *AssessmentDatabaseAdapter) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func toDomainAssessment(m *models.Assessment) *domain.AssessmentEntry {
	if m == nil {
		return nil
	}
	e := &domain.AssessmentEntry{
		ID:      m.ID,
		OwnerID: util.NullStringToPtr(m.UserID),
		Record: domain.IntakeRecord{
			Age:                m.Age,
			Sex:                domain.Sex(m.Sex),
			PreviousUTI:        domain.YesNo(m.PreviousUTI),
			Diabetes:           domain.YesNo(m.Diabetes),
			Dysuria:            domain.YesNo(m.Dysuria),
			Frequency:          domain.YesNo(m.Frequency),
			LowerAbdominalPain: domain.YesNo(m.LowerAbdominalPain),
			Fever:              domain.YesNo(m.Fever),
			WBCCount:           util.NullFloat64ToPtr(m.WBCCount),
		},
		Prediction: domain.Prediction{
			RandomForest: domain.ScoreResult{Prediction: domain.Label(m.RFPrediction), Probability: m.RFProbability},
			XGBoost:      domain.ScoreResult{Prediction: domain.Label(m.XGBPrediction), Probability: m.XGBProbability},
		},
		CreatedAt: m.CreatedAt,
	}
	if m.LeukocyteEsterase.Valid {
		e.Record.LeukocyteEsterase = domain.LabResultPtr(domain.LabResult(m.LeukocyteEsterase.String))
	}
	if m.Nitrite.Valid {
		e.Record.Nitrite = domain.LabResultPtr(domain.LabResult(m.Nitrite.String))
	}
	if m.Hematuria.Valid {
		e.Record.Hematuria = domain.YesNoPtr(domain.YesNo(m.Hematuria.String))
	}
	if m.UrineCulture.Valid {
		e.Record.UrineCulture = domain.LabResultPtr(domain.LabResult(m.UrineCulture.String))
	}
	return e
}

func fromDomainAssessment(e *domain.AssessmentEntry) *models.Assessment {
	if e == nil {
		return nil
	}
	rec := e.Record
	m := &models.Assessment{
		ID:                 e.ID,
		UserID:             util.StringPtrToNullString(e.OwnerID),
		Age:                rec.Age,
		Sex:                string(rec.Sex),
		PreviousUTI:        string(rec.PreviousUTI),
		Diabetes:           string(rec.Diabetes),
		Dysuria:            string(rec.Dysuria),
		Frequency:          string(rec.Frequency),
		LowerAbdominalPain: string(rec.LowerAbdominalPain),
		Fever:              string(rec.Fever),
		WBCCount:           util.Float64PtrToNullFloat64(rec.WBCCount),
		RFPrediction:       string(e.Prediction.RandomForest.Prediction),
		RFProbability:      e.Prediction.RandomForest.Probability,
		XGBPrediction:      string(e.Prediction.XGBoost.Prediction),
		XGBProbability:     e.Prediction.XGBoost.Probability,
		CreatedAt:          e.CreatedAt,
	}
	if rec.LeukocyteEsterase != nil {
		m.LeukocyteEsterase = util.StringToNullString(string(*rec.LeukocyteEsterase))
	}
	if rec.Nitrite != nil {
		m.Nitrite = util.StringToNullString(string(*rec.Nitrite))
	}
	if rec.Hematuria != nil {
		m.Hematuria = util.StringToNullString(string(*rec.Hematuria))
	}
	if rec.UrineCulture != nil {
		m.UrineCulture = util.StringToNullString(string(*rec.UrineCulture))
	}
	return m
}
