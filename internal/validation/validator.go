package validation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"uti-assess/internal/domain"
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

var (
	sexValues       = []string{string(domain.SexMale), string(domain.SexFemale)}
	yesNoValues     = []string{string(domain.Yes), string(domain.No)}
	labResultValues = []string{string(domain.Positive), string(domain.Negative)}
)

// ValidateIntake checks a decoded JSON object against the intake schema and returns a
// cleaned record. All failing fields are reported, in form order. Placeholder values for
// optional fields ("Unknown", null, "", a WBC count of 0) come back as absent.
func (v *Validator) ValidateIntake(raw map[string]interface{}) (*domain.IntakeRecord, domain.ValidationErrors) {
	var errs domain.ValidationErrors
	rec := &domain.IntakeRecord{}

	if raw == nil {
		raw = map[string]interface{}{}
	}

	if age, err := requiredAge(raw); err != nil {
		errs = append(errs, *err)
	} else {
		rec.Age = age
	}

	if s, err := requiredEnum(raw, domain.FieldSex, sexValues); err != nil {
		errs = append(errs, *err)
	} else {
		rec.Sex = domain.Sex(s)
	}

	yesNoTargets := []struct {
		field string
		dst   *domain.YesNo
	}{
		{domain.FieldPreviousUTI, &rec.PreviousUTI},
		{domain.FieldDiabetes, &rec.Diabetes},
		{domain.FieldDysuria, &rec.Dysuria},
		{domain.FieldFrequency, &rec.Frequency},
		{domain.FieldLowerAbdominalPain, &rec.LowerAbdominalPain},
		{domain.FieldFever, &rec.Fever},
	}
	for _, t := range yesNoTargets {
		s, err := requiredEnum(raw, t.field, yesNoValues)
		if err != nil {
			errs = append(errs, *err)
			continue
		}
		*t.dst = domain.YesNo(s)
	}

	if s, err := optionalEnum(raw, domain.FieldLeukocyteEsterase, labResultValues); err != nil {
		errs = append(errs, *err)
	} else if s != "" {
		rec.LeukocyteEsterase = domain.LabResultPtr(domain.LabResult(s))
	}

	if s, err := optionalEnum(raw, domain.FieldNitrite, labResultValues); err != nil {
		errs = append(errs, *err)
	} else if s != "" {
		rec.Nitrite = domain.LabResultPtr(domain.LabResult(s))
	}

	if wbc, err := optionalWBC(raw); err != nil {
		errs = append(errs, *err)
	} else {
		rec.WBCCount = wbc
	}

	if s, err := optionalEnum(raw, domain.FieldHematuria, yesNoValues); err != nil {
		errs = append(errs, *err)
	} else if s != "" {
		rec.Hematuria = domain.YesNoPtr(domain.YesNo(s))
	}

	if s, err := optionalEnum(raw, domain.FieldUrineCulture, labResultValues); err != nil {
		errs = append(errs, *err)
	} else if s != "" {
		rec.UrineCulture = domain.LabResultPtr(domain.LabResult(s))
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return rec, nil
}

// ValidateSignUp validates the sign-up form. An empty role defaults to patient upstream.
func (v *Validator) ValidateSignUp(email, password, name, role string) domain.ValidationErrors {
	var errs domain.ValidationErrors

	email = strings.TrimSpace(email)
	if email == "" {
		errs = append(errs, domain.NewMissingFieldError("email"))
	} else if !isValidEmail(email) {
		errs = append(errs, domain.NewInvalidFormatError("email", email))
	}

	if password == "" {
		errs = append(errs, domain.NewMissingFieldError("password"))
	} else if len(password) < 6 || len(password) > 72 {
		errs = append(errs, domain.NewOutOfRangeError("password", len(password), 6, 72))
	}

	if len(name) > 100 {
		errs = append(errs, domain.NewOutOfRangeError("name", len(name), 0, 100))
	}

	if role != "" && !domain.Role(role).CanSelfAssign() {
		errs = append(errs, domain.NewInvalidFormatError("role", role,
			string(domain.RolePatient), string(domain.RoleDoctor)))
	}

	return errs
}

// ValidateSignIn validates the sign-in form.
func (v *Validator) ValidateSignIn(email, password string) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if strings.TrimSpace(email) == "" {
		errs = append(errs, domain.NewMissingFieldError("email"))
	}
	if password == "" {
		errs = append(errs, domain.NewMissingFieldError("password"))
	}
	return errs
}

// Helper functions for validation

func requiredAge(raw map[string]interface{}) (int, *domain.ValidationError) {
	val, ok := raw[domain.FieldAge]
	if !ok || val == nil || isBlankString(val) {
		e := domain.NewMissingFieldError(domain.FieldAge)
		return 0, &e
	}
	n, ok := toNumber(val)
	if !ok || n != math.Trunc(n) {
		e := domain.NewInvalidFormatError(domain.FieldAge, val)
		e.Message = "Age must be a whole number"
		return 0, &e
	}
	if n < 0 || n > domain.MaxAge {
		e := domain.NewOutOfRangeError(domain.FieldAge, val, 0, domain.MaxAge)
		return 0, &e
	}
	return int(n), nil
}

// requiredEnum and optionalEnum both ignore surrounding whitespace; case still matters.
func requiredEnum(raw map[string]interface{}, field string, allowed []string) (string, *domain.ValidationError) {
	val, ok := raw[field]
	if !ok || val == nil || isBlankString(val) {
		e := domain.NewMissingFieldError(field)
		return "", &e
	}
	s, ok := val.(string)
	if !ok {
		e := domain.NewInvalidFormatError(field, val, allowed...)
		return "", &e
	}
	s = strings.TrimSpace(s)
	if !contains(allowed, s) {
		e := domain.NewInvalidFormatError(field, val, allowed...)
		return "", &e
	}
	return s, nil
}

// optionalEnum returns "" when the field is absent or holds a placeholder.
func optionalEnum(raw map[string]interface{}, field string, allowed []string) (string, *domain.ValidationError) {
	val, ok := raw[field]
	if !ok || val == nil {
		return "", nil
	}
	s, ok := val.(string)
	if !ok {
		e := domain.NewInvalidFormatError(field, val, allowed...)
		return "", &e
	}
	s = strings.TrimSpace(s)
	if s == "" || s == domain.Unknown {
		return "", nil
	}
	if !contains(allowed, s) {
		e := domain.NewInvalidFormatError(field, val, allowed...)
		return "", &e
	}
	return s, nil
}

// optionalWBC returns nil for an absent count. Zero is indistinguishable from
// "not entered" on the form, so it is treated as absent too.
func optionalWBC(raw map[string]interface{}) (*float64, *domain.ValidationError) {
	val, ok := raw[domain.FieldWBCCount]
	if !ok || val == nil || isBlankString(val) {
		return nil, nil
	}
	if s, isStr := val.(string); isStr && strings.TrimSpace(s) == domain.Unknown {
		return nil, nil
	}
	n, ok := toNumber(val)
	if !ok {
		e := domain.NewInvalidFormatError(domain.FieldWBCCount, val)
		e.Message = "WBC_Count must be a number"
		return nil, &e
	}
	if n < 0 {
		e := domain.NewOutOfRangeError(domain.FieldWBCCount, val, 0, -1)
		return nil, &e
	}
	if n == 0 {
		return nil, nil
	}
	return domain.Float64Ptr(n), nil
}

// toNumber accepts JSON numbers and numeric strings.
func toNumber(val interface{}) (float64, bool) {
	switch n := val.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func isBlankString(val interface{}) bool {
	s, ok := val.(string)
	return ok && strings.TrimSpace(s) == ""
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

// isValidEmail is a shape check only; ownership is proven at sign-in.
func isValidEmail(s string) bool {
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	return strings.Contains(s[at+1:], ".") && !strings.ContainsAny(s, " \t\n")
}
