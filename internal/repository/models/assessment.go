package models

import (
	"database/sql"
	"time"
)

// Assessment is a row of the uti_predictions table. Optional lab columns are NULL
// when the value was not entered.
type Assessment struct {
	ID                 string          `db:"id"`
	UserID             sql.NullString  `db:"user_id"`
	Age                int             `db:"age"`
	Sex                string          `db:"sex"`
	PreviousUTI        string          `db:"previous_uti"`
	Diabetes           string          `db:"diabetes"`
	Dysuria            string          `db:"dysuria"`
	Frequency          string          `db:"frequency"`
	LowerAbdominalPain string          `db:"lower_abdominal_pain"`
	Fever              string          `db:"fever"`
	LeukocyteEsterase  sql.NullString  `db:"leukocyte_esterase"`
	Nitrite            sql.NullString  `db:"nitrite"`
	WBCCount           sql.NullFloat64 `db:"wbc_count"`
	Hematuria          sql.NullString  `db:"hematuria"`
	UrineCulture       sql.NullString  `db:"urine_culture"`
	RFPrediction       string          `db:"rf_prediction"`
	RFProbability      int             `db:"rf_probability"`
	XGBPrediction      string          `db:"xgb_prediction"`
	XGBProbability     int             `db:"xgb_probability"`
	CreatedAt          time.Time       `db:"created_at"`
}

// AssessmentColumns is the select list matching Assessment.ScanTargets.
const AssessmentColumns = `id, user_id, age, sex, previous_uti, diabetes, dysuria, frequency,
	lower_abdominal_pain, fever, leukocyte_esterase, nitrite, wbc_count, hematuria,
	urine_culture, rf_prediction, rf_probability, xgb_prediction, xgb_probability, created_at`

// ScanTargets returns pointers in AssessmentColumns order. Positional scanning keeps the
// mapping independent of how the driver cases column names.
func (a *Assessment) ScanTargets() []interface{} {
	return []interface{}{
		&a.ID, &a.UserID, &a.Age, &a.Sex, &a.PreviousUTI, &a.Diabetes, &a.Dysuria, &a.Frequency,
		&a.LowerAbdominalPain, &a.Fever, &a.LeukocyteEsterase, &a.Nitrite, &a.WBCCount, &a.Hematuria,
		&a.UrineCulture, &a.RFPrediction, &a.RFProbability, &a.XGBPrediction, &a.XGBProbability, &a.CreatedAt,
	}
}
