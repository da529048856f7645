package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"uti-assess/internal/domain"
)

// Filename is the attachment name used for history downloads.
const Filename = "uti_assessments.csv"

// Header is the fixed column layout of an export.
var Header = []string{
	"ID", "Date", "Age", "Sex", "Previous UTI", "Diabetes", "Dysuria", "Frequency",
	"Lower Abdominal Pain", "Fever", "Leukocyte Esterase", "Nitrite", "WBC Count",
	"Hematuria", "Urine Culture", "RF Prediction", "RF Probability",
	"XGBoost Prediction", "XGBoost Probability",
}

// WriteCSV writes entries in the order given. Absent optional values are written as "Unknown".
func WriteCSV(w io.Writer, entries []domain.AssessmentEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write(row(e)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(e domain.AssessmentEntry) []string {
	r := e.Record
	return []string{
		e.ID,
		e.CreatedAt.UTC().Format(time.RFC3339),
		strconv.Itoa(r.Age),
		string(r.Sex),
		string(r.PreviousUTI),
		string(r.Diabetes),
		string(r.Dysuria),
		string(r.Frequency),
		string(r.LowerAbdominalPain),
		string(r.Fever),
		labResult(r.LeukocyteEsterase),
		labResult(r.Nitrite),
		wbc(r.WBCCount),
		yesNo(r.Hematuria),
		labResult(r.UrineCulture),
		string(e.Prediction.RandomForest.Prediction),
		strconv.Itoa(e.Prediction.RandomForest.Probability),
		string(e.Prediction.XGBoost.Prediction),
		strconv.Itoa(e.Prediction.XGBoost.Probability),
	}
}

func labResult(v *domain.LabResult) string {
	if v == nil {
		return domain.Unknown
	}
	return string(*v)
}

func yesNo(v *domain.YesNo) string {
	if v == nil {
		return domain.Unknown
	}
	return string(*v)
}

func wbc(v *float64) string {
	if v == nil {
		return domain.Unknown
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
