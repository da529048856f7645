package domain

// Sex of the patient as collected on the intake form.
type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
)

// YesNo is the answer to a yes/no question.
type YesNo string

const (
	Yes YesNo = "Yes"
	No  YesNo = "No"
)

// LabResult is the outcome of a dipstick or culture test.
type LabResult string

const (
	Positive LabResult = "Positive"
	Negative LabResult = "Negative"
)

// Unknown is the placeholder the intake form submits for an optional field that was not tested.
const Unknown = "Unknown"

// Wire names of the intake fields.
const (
	FieldAge                = "Age"
	FieldSex                = "Sex"
	FieldPreviousUTI        = "Previous_UTI"
	FieldDiabetes           = "Diabetes"
	FieldDysuria            = "Dysuria"
	FieldFrequency          = "Frequency"
	FieldLowerAbdominalPain = "Lower_Abdominal_Pain"
	FieldFever              = "Fever"
	FieldLeukocyteEsterase  = "Leukocyte_Esterase"
	FieldNitrite            = "Nitrite"
	FieldWBCCount           = "WBC_Count"
	FieldHematuria          = "Hematuria"
	FieldUrineCulture       = "Urine_Culture"
)

// MaxAge is the upper bound accepted for Age.
const MaxAge = 120

// WBCThreshold is the white blood cell count above which the lab factor counts as positive.
const WBCThreshold = 10.0

// IntakeRecord is one filled assessment. Optional lab fields are nil when absent;
// a validated record never carries the "Unknown" placeholder or a zero WBC count.
type IntakeRecord struct {
	Age                int        `json:"Age"`
	Sex                Sex        `json:"Sex"`
	PreviousUTI        YesNo      `json:"Previous_UTI"`
	Diabetes           YesNo      `json:"Diabetes"`
	Dysuria            YesNo      `json:"Dysuria"`
	Frequency          YesNo      `json:"Frequency"`
	LowerAbdominalPain YesNo      `json:"Lower_Abdominal_Pain"`
	Fever              YesNo      `json:"Fever"`
	LeukocyteEsterase  *LabResult `json:"Leukocyte_Esterase,omitempty"`
	Nitrite            *LabResult `json:"Nitrite,omitempty"`
	WBCCount           *float64   `json:"WBC_Count,omitempty"`
	Hematuria          *YesNo     `json:"Hematuria,omitempty"`
	UrineCulture       *LabResult `json:"Urine_Culture,omitempty"`
}

// HasElevatedWBC reports whether a WBC count was entered and is strictly above the threshold.
func (r *IntakeRecord) HasElevatedWBC() bool {
	return r.WBCCount != nil && *r.WBCCount > WBCThreshold
}

func isPositive(v *LabResult) bool {
	return v != nil && *v == Positive
}

func isYes(v *YesNo) bool {
	return v != nil && *v == Yes
}

// Indicators are the three derived booleans the risk table is keyed on.
type Indicators struct {
	SevereSymptoms bool `json:"severe_symptoms"`
	RiskFactors    bool `json:"risk_factors"`
	PositiveLabs   bool `json:"positive_labs"`
}

// DeriveIndicators computes the indicator triple. It is a pure function of the record.
func DeriveIndicators(r *IntakeRecord) Indicators {
	return Indicators{
		SevereSymptoms: r.Dysuria == Yes && r.Frequency == Yes &&
			(r.LowerAbdominalPain == Yes || r.Fever == Yes),
		RiskFactors: r.PreviousUTI == Yes || r.Diabetes == Yes || r.Sex == SexFemale,
		PositiveLabs: isPositive(r.LeukocyteEsterase) ||
			isPositive(r.Nitrite) ||
			r.HasElevatedWBC() ||
			isYes(r.Hematuria) ||
			isPositive(r.UrineCulture),
	}
}

// LabResultPtr and YesNoPtr are helpers for building records with optional fields.
func LabResultPtr(v LabResult) *LabResult { return &v }

func YesNoPtr(v YesNo) *YesNo { return &v }

func Float64Ptr(v float64) *float64 { return &v }
