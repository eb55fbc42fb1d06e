package domain

import (
	"fmt"
	"strings"
)

// Symptom is a patient-reported symptom flag.
type Symptom string

const (
	SymptomDizziness       Symptom = "dizziness"
	SymptomLightheadedness Symptom = "lightheadedness"
	SymptomSyncope         Symptom = "syncope"
	SymptomPresyncope      Symptom = "presyncope"
	SymptomFatigue         Symptom = "fatigue"
)

var knownSymptoms = [...]Symptom{
	SymptomDizziness, SymptomLightheadedness, SymptomSyncope, SymptomPresyncope, SymptomFatigue,
}

// Symptoms returns the recognised symptom names.
func Symptoms() []Symptom {
	out := make([]Symptom, len(knownSymptoms))
	copy(out, knownSymptoms[:])
	return out
}

// ParseSymptom resolves a reported name, ignoring case and surrounding space.
func ParseSymptom(name string) (Symptom, error) {
	s := Symptom(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range knownSymptoms {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSymptom, name)
}

// ParseSymptoms resolves every name, failing on the first unknown one.
func ParseSymptoms(names []string) ([]Symptom, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]Symptom, 0, len(names))
	for _, n := range names {
		s, err := ParseSymptom(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Sex is used only for the eGFR estimate.
type Sex string

const (
	SexFemale Sex = "F"
	SexMale   Sex = "M"
)

// IsFemale reports whether s is "F" or "female" in any case.
func (s Sex) IsFemale() bool {
	v := strings.ToUpper(strings.TrimSpace(string(s)))
	return v == "F" || v == "FEMALE"
}

// IsMale reports whether s is "M" or "male" in any case.
func (s Sex) IsMale() bool {
	v := strings.ToUpper(strings.TrimSpace(string(s)))
	return v == "M" || v == "MALE"
}

// ClinicalSignals carries the readings for one evaluation.
// A nil pointer means the reading was not taken.
type ClinicalSignals struct {
	HeartRate  *float64 `json:"heart_rate,omitempty"`  // beats/min
	SystolicBP *float64 `json:"systolic_bp,omitempty"` // mmHg
	Potassium  *float64 `json:"potassium,omitempty"`   // mmol/L

	// Percent of home readings below the low SBP / HR cutoffs.
	LowSystolicTimePct  *float64 `json:"low_systolic_time_pct,omitempty"`
	LowHeartRateTimePct *float64 `json:"low_heart_rate_time_pct,omitempty"`

	Creatinine          *float64 `json:"creatinine,omitempty"` // mg/dL
	CreatininePctChange *float64 `json:"creatinine_pct_change,omitempty"`
	EGFR                *float64 `json:"egfr,omitempty"` // mL/min/1.73m2
	Age                 *float64 `json:"age,omitempty"`
	Sex                 Sex      `json:"sex,omitempty"`

	Symptoms []Symptom `json:"symptoms,omitempty"`
}

// HasSymptom reports whether s was reported. Names compare without regard
// to case or surrounding space.
func (cs ClinicalSignals) HasSymptom(s Symptom) bool {
	want := strings.TrimSpace(string(s))
	for _, have := range cs.Symptoms {
		if strings.EqualFold(strings.TrimSpace(string(have)), want) {
			return true
		}
	}
	return false
}

// CanonicalSymptoms returns a copy of cs with every symptom resolved by
// ParseSymptom. Unknown names are an error.
func (cs ClinicalSignals) CanonicalSymptoms() (ClinicalSignals, error) {
	if len(cs.Symptoms) == 0 {
		return cs, nil
	}
	out := cs
	out.Symptoms = make([]Symptom, 0, len(cs.Symptoms))
	for _, have := range cs.Symptoms {
		s, err := ParseSymptom(string(have))
		if err != nil {
			return ClinicalSignals{}, err
		}
		out.Symptoms = append(out.Symptoms, s)
	}
	return out, nil
}

// Float returns a pointer to v, for building signals inline.
func Float(v float64) *float64 {
	return &v
}
