package policy

import (
	"fmt"

	"github.com/aretw0/titrate/pkg/domain"
)

// Thresholds are the numeric cutoffs applied by the signal normalizer.
// A nil optional threshold disables its check.
type Thresholds struct {
	// Required.
	BradycardiaHeartRate  *float64 `yaml:"bradycardia_heart_rate" json:"bradycardia_heart_rate,omitempty" mapstructure:"bradycardia_heart_rate"`
	HypotensionSystolic   *float64 `yaml:"hypotension_systolic" json:"hypotension_systolic,omitempty" mapstructure:"hypotension_systolic"`
	HyperkalemiaPotassium *float64 `yaml:"hyperkalemia_potassium" json:"hyperkalemia_potassium,omitempty" mapstructure:"hyperkalemia_potassium"`

	// Optional: percent of home readings below range.
	LowTimeInRangePct *float64 `yaml:"low_time_in_range_pct" json:"low_time_in_range_pct,omitempty" mapstructure:"low_time_in_range_pct"`
}

// Rule maps one trigger kind to the classes it down-titrates.
type Rule struct {
	// Classes are tried in order; the first above level 0 is reduced.
	Classes []domain.MedicationClass `yaml:"classes" json:"classes" mapstructure:"classes"`
	// PreferLastUptitrated tries DoseState.LastUptitrated before Classes.
	PreferLastUptitrated bool `yaml:"prefer_last_uptitrated" json:"prefer_last_uptitrated,omitempty" mapstructure:"prefer_last_uptitrated"`
	// Step is the number of levels removed. Zero means 1.
	Step int `yaml:"step" json:"step,omitempty" mapstructure:"step"`
}

// Mapping is the trigger-to-class table consulted by the safety evaluator.
type Mapping map[domain.TriggerKind]Rule

// RenalRule holds the renal cutoffs of one class. Any crossed cutoff flags
// the class for down-titration. A nil cutoff is not checked.
type RenalRule struct {
	// Creatinine in mg/dL, at or above.
	Creatinine *float64 `yaml:"creatinine" json:"creatinine,omitempty" mapstructure:"creatinine"`
	// CreatinineFemale replaces Creatinine when the patient is female.
	CreatinineFemale *float64 `yaml:"creatinine_female" json:"creatinine_female,omitempty" mapstructure:"creatinine_female"`
	// CreatininePctChange is the rise from baseline in percent, at or above.
	CreatininePctChange *float64 `yaml:"creatinine_pct_change" json:"creatinine_pct_change,omitempty" mapstructure:"creatinine_pct_change"`
	// EGFR in mL/min/1.73m2, at or below. Estimated from creatinine when
	// the reading is absent.
	EGFR *float64 `yaml:"egfr" json:"egfr,omitempty" mapstructure:"egfr"`
}

// Enabled reports whether any cutoff is set.
func (r RenalRule) Enabled() bool {
	return r.Creatinine != nil || r.CreatinineFemale != nil || r.CreatininePctChange != nil || r.EGFR != nil
}

// CreatinineFor returns the creatinine cutoff that applies to sex.
func (r RenalRule) CreatinineFor(sex domain.Sex) *float64 {
	if r.CreatinineFemale != nil && sex.IsFemale() {
		return r.CreatinineFemale
	}
	return r.Creatinine
}

func (r RenalRule) clone() RenalRule {
	return RenalRule{
		Creatinine:          cp(r.Creatinine),
		CreatinineFemale:    cp(r.CreatinineFemale),
		CreatininePctChange: cp(r.CreatininePctChange),
		EGFR:                cp(r.EGFR),
	}
}

// RenalRules are the per-class renal cutoffs. Classes without a rule are
// never flagged by the renal check.
type RenalRules map[domain.MedicationClass]RenalRule

// SymptomMap lists which reported symptoms raise which trigger.
type SymptomMap map[domain.TriggerKind][]domain.Symptom

// Policy is the complete clinical configuration of an engine.
type Policy struct {
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds" mapstructure:"thresholds"`
	Mapping    Mapping    `yaml:"mapping" json:"mapping,omitempty" mapstructure:"mapping"`
	Symptoms   SymptomMap `yaml:"symptoms" json:"symptoms,omitempty" mapstructure:"symptoms"`
	Renal      RenalRules `yaml:"renal,omitempty" json:"renal,omitempty" mapstructure:"renal"`
}

// RenalEnabled reports whether any class carries a renal cutoff.
func (p Policy) RenalEnabled() bool {
	for _, r := range p.Renal {
		if r.Enabled() {
			return true
		}
	}
	return false
}

// DefaultMapping is the audited trigger-to-class table.
//
//	Hypotension  -> last up-titrated class, else RAASi
//	Bradycardia  -> BetaBlocker
//	Hyperkalemia -> RAASi, then MRA
//	RenalDecline -> the classes flagged by their renal rule, in Order
func DefaultMapping() Mapping {
	return Mapping{
		domain.Hypotension:  {Classes: []domain.MedicationClass{domain.RAASi}, PreferLastUptitrated: true, Step: 1},
		domain.Bradycardia:  {Classes: []domain.MedicationClass{domain.BetaBlocker}, Step: 1},
		domain.Hyperkalemia: {Classes: []domain.MedicationClass{domain.RAASi, domain.MRA}, Step: 1},
		domain.RenalDecline: {Classes: []domain.MedicationClass{domain.RAASi, domain.MRA, domain.SGLT2i}, Step: 1},
	}
}

// DefaultSymptoms returns the symptom lists used when a policy names none.
func DefaultSymptoms() SymptomMap {
	return SymptomMap{
		domain.Hypotension: {domain.SymptomDizziness, domain.SymptomLightheadedness, domain.SymptomSyncope},
		domain.Bradycardia: {domain.SymptomPresyncope, domain.SymptomFatigue},
	}
}

// Clone returns a deep copy so a prepared policy cannot be changed through
// a caller's reference.
func (p Policy) Clone() Policy {
	out := Policy{Thresholds: p.Thresholds.clone()}
	if p.Mapping != nil {
		out.Mapping = make(Mapping, len(p.Mapping))
		for k, r := range p.Mapping {
			r.Classes = append([]domain.MedicationClass(nil), r.Classes...)
			out.Mapping[k] = r
		}
	}
	if p.Symptoms != nil {
		out.Symptoms = make(SymptomMap, len(p.Symptoms))
		for k, s := range p.Symptoms {
			out.Symptoms[k] = append([]domain.Symptom(nil), s...)
		}
	}
	if p.Renal != nil {
		out.Renal = make(RenalRules, len(p.Renal))
		for c, r := range p.Renal {
			out.Renal[c] = r.clone()
		}
	}
	return out
}

func (t Thresholds) clone() Thresholds {
	return Thresholds{
		BradycardiaHeartRate:  cp(t.BradycardiaHeartRate),
		HypotensionSystolic:   cp(t.HypotensionSystolic),
		HyperkalemiaPotassium: cp(t.HyperkalemiaPotassium),
		LowTimeInRangePct:     cp(t.LowTimeInRangePct),
	}
}

func cp(v *float64) *float64 {
	if v == nil {
		return nil
	}
	x := *v
	return &x
}

// Prepare fills the mapping and symptom defaults, canonicalises class and
// symptom names and validates the result. The returned policy is independent of p.
func Prepare(p Policy) (*Policy, error) {
	out := p.Clone()

	mapping := DefaultMapping()
	for kind, rule := range out.Mapping {
		mapping[kind] = rule
	}
	for kind, rule := range mapping {
		if rule.Step == 0 {
			rule.Step = 1
		}
		for i, c := range rule.Classes {
			if parsed, err := domain.ParseMedicationClass(string(c)); err == nil {
				rule.Classes[i] = parsed
			}
		}
		mapping[kind] = rule
	}
	out.Mapping = mapping

	symptoms := DefaultSymptoms()
	for kind, list := range out.Symptoms {
		for i, sym := range list {
			if parsed, err := domain.ParseSymptom(string(sym)); err == nil {
				list[i] = parsed
			}
		}
		symptoms[kind] = list
	}
	out.Symptoms = symptoms

	if len(out.Renal) > 0 {
		renal := make(RenalRules, len(out.Renal))
		for c, r := range out.Renal {
			if parsed, err := domain.ParseMedicationClass(string(c)); err == nil {
				c = parsed
			}
			if _, dup := renal[c]; dup {
				return nil, &ValidationError{Problems: []string{fmt.Sprintf("renal: %s is named twice", c)}}
			}
			renal[c] = r
		}
		out.Renal = renal
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}
