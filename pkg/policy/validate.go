package policy

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aretw0/titrate/pkg/domain"
)

var (
	// ErrMissingThreshold is returned when a required cutoff is not configured.
	ErrMissingThreshold = errors.New("missing required threshold")
	// ErrInvalidPolicy is returned for any other malformed policy field.
	ErrInvalidPolicy = errors.New("invalid policy")
	// ErrPolicyNotFound is returned by sources that hold no policy document.
	ErrPolicyNotFound = errors.New("policy not found")
)

// ValidationError collects every problem found in a policy.
type ValidationError struct {
	Missing  []string
	Problems []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("%s: %s", ErrMissingThreshold, strings.Join(e.Missing, ", ")))
	}
	if len(e.Problems) > 0 {
		parts = append(parts, fmt.Sprintf("%s: %s", ErrInvalidPolicy, strings.Join(e.Problems, "; ")))
	}
	return strings.Join(parts, "; ")
}

// Is matches both sentinels depending on what was found.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrMissingThreshold:
		return len(e.Missing) > 0
	case ErrInvalidPolicy:
		return len(e.Problems) > 0
	}
	return false
}

// Validate checks a prepared policy.
func (p Policy) Validate() error {
	var verr ValidationError

	required := []struct {
		name string
		v    *float64
	}{
		{"bradycardia_heart_rate", p.Thresholds.BradycardiaHeartRate},
		{"hypotension_systolic", p.Thresholds.HypotensionSystolic},
		{"hyperkalemia_potassium", p.Thresholds.HyperkalemiaPotassium},
	}
	for _, r := range required {
		switch {
		case r.v == nil:
			verr.Missing = append(verr.Missing, r.name)
		case !finite(*r.v) || *r.v <= 0:
			verr.Problems = append(verr.Problems, fmt.Sprintf("%s must be a positive number", r.name))
		}
	}

	optional := []struct {
		name string
		v    *float64
	}{
		{"low_time_in_range_pct", p.Thresholds.LowTimeInRangePct},
	}
	for _, o := range optional {
		if o.v != nil && (!finite(*o.v) || *o.v < 0) {
			verr.Problems = append(verr.Problems, fmt.Sprintf("%s must be a non-negative number", o.name))
		}
	}
	if v := p.Thresholds.LowTimeInRangePct; v != nil && *v > 100 {
		verr.Problems = append(verr.Problems, "low_time_in_range_pct must not exceed 100")
	}

	for _, kind := range sortedKinds(p.Mapping) {
		rule := p.Mapping[kind]
		if kind.Rank() < 0 {
			verr.Problems = append(verr.Problems, fmt.Sprintf("mapping: unknown trigger %q", kind))
			continue
		}
		if len(rule.Classes) == 0 {
			verr.Problems = append(verr.Problems, fmt.Sprintf("mapping %s: at least one class is required", kind))
		}
		for _, c := range rule.Classes {
			if !c.Valid() {
				verr.Problems = append(verr.Problems, fmt.Sprintf("mapping %s: unknown class %q", kind, c))
			}
		}
		if rule.Step < 1 || rule.Step > domain.MaxDoseLevel {
			verr.Problems = append(verr.Problems, fmt.Sprintf("mapping %s: step must be in [1, %d]", kind, domain.MaxDoseLevel))
		}
	}
	for _, kind := range domain.TriggerPriority() {
		if _, ok := p.Mapping[kind]; !ok {
			verr.Problems = append(verr.Problems, fmt.Sprintf("mapping: no rule for %s", kind))
		}
	}

	for kind, symptoms := range p.Symptoms {
		if kind != domain.Hypotension && kind != domain.Bradycardia {
			verr.Problems = append(verr.Problems, fmt.Sprintf("symptoms: trigger %q does not take symptoms", kind))
		}
		for _, s := range symptoms {
			if strings.TrimSpace(string(s)) == "" {
				verr.Problems = append(verr.Problems, fmt.Sprintf("symptoms %s: empty symptom name", kind))
			} else if _, err := domain.ParseSymptom(string(s)); err != nil {
				verr.Problems = append(verr.Problems, fmt.Sprintf("symptoms %s: unknown symptom %q", kind, s))
			}
		}
	}

	for c, rule := range p.Renal {
		if !c.Valid() {
			verr.Problems = append(verr.Problems, fmt.Sprintf("renal: unknown class %q", c))
			continue
		}
		if !rule.Enabled() {
			verr.Problems = append(verr.Problems, fmt.Sprintf("renal %s: no cutoff set", c))
		}
		cutoffs := []struct {
			name string
			v    *float64
		}{
			{"creatinine", rule.Creatinine},
			{"creatinine_female", rule.CreatinineFemale},
			{"creatinine_pct_change", rule.CreatininePctChange},
			{"egfr", rule.EGFR},
		}
		for _, o := range cutoffs {
			if o.v != nil && (!finite(*o.v) || *o.v < 0) {
				verr.Problems = append(verr.Problems, fmt.Sprintf("renal %s: %s must be a non-negative number", c, o.name))
			}
		}
	}

	if len(verr.Missing) > 0 || len(verr.Problems) > 0 {
		sort.Strings(verr.Problems)
		return &verr
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func sortedKinds(m Mapping) []domain.TriggerKind {
	kinds := make([]domain.TriggerKind, 0, len(m))
	for k := range m {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
