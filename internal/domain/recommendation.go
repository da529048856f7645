package domain

// Recommendation is the advice shown next to a result.
type Recommendation struct {
	RiskLevel  string   `json:"risk_level"`
	Summary    string   `json:"summary"`
	Advice     []string `json:"advice"`
	Disclaimer string   `json:"disclaimer,omitempty"`
}

const medicalDisclaimer = "This assessment is not a substitute for professional medical advice. " +
	"Please consult with a healthcare provider for proper diagnosis and treatment."

var highRiskAdvice = []string{
	"Consult with a healthcare provider as soon as possible",
	"Drink plenty of water to help flush bacteria from your urinary tract",
	"Avoid caffeine, alcohol, and spicy foods which can irritate your bladder",
	"Take over-the-counter pain relievers if needed for discomfort",
	"Complete the full course of antibiotics if prescribed by your doctor",
}

var lowRiskAdvice = []string{
	"Stay hydrated by drinking plenty of water",
	"Urinate when you feel the need; don't hold it in",
	"Wipe from front to back after using the toilet",
	"Empty your bladder before and after sexual activity",
	"Consider cranberry products which may help prevent UTIs",
	"If you develop symptoms such as painful urination, frequent urination, or lower abdominal pain, please consult with a healthcare provider",
}

// Recommend returns high-risk advice when either opinion reports an infection.
func Recommend(p Prediction) Recommendation {
	if p.AnyUTI() {
		return Recommendation{
			RiskLevel:  "high",
			Summary:    "Based on your assessment, you have a high risk of having a Urinary Tract Infection.",
			Advice:     append([]string(nil), highRiskAdvice...),
			Disclaimer: medicalDisclaimer,
		}
	}
	return Recommendation{
		RiskLevel: "low",
		Summary:   "Based on your assessment, you have a low risk of having a Urinary Tract Infection.",
		Advice:    append([]string(nil), lowRiskAdvice...),
	}
}
