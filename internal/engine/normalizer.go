package engine

import (
	"math"

	"github.com/aretw0/titrate/pkg/domain"
	"github.com/aretw0/titrate/pkg/policy"
)

// bounds is the physiologically plausible range of a reading.
// Readings outside it are treated as absent rather than as errors.
type bounds struct{ lo, hi float64 }

var (
	heartRateBounds  = bounds{15, 300}
	systolicBounds   = bounds{40, 300}
	potassiumBounds  = bounds{1, 12}
	percentBounds    = bounds{0, 100}
	creatinineBounds = bounds{0.05, 25}
	crChangeBounds   = bounds{-100, 1000}
	egfrBounds       = bounds{0.5, 200}
	ageBounds        = bounds{18, 120}
)

func reading(v *float64, b bounds) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	if *v < b.lo || *v > b.hi {
		return 0, false
	}
	return *v, true
}

func criterion(signal string, cmp domain.Comparator, threshold, measured float64) domain.Criterion {
	return domain.Criterion{
		Signal:     signal,
		Comparator: cmp,
		Threshold:  domain.Float(threshold),
		Measured:   domain.Float(measured),
	}
}

// Normalize converts raw signals into the active safety triggers, ordered by
// domain.TriggerPriority. It never fails.
func Normalize(s domain.ClinicalSignals, p *policy.Policy) []domain.SafetyTrigger {
	th := p.Thresholds
	triggers := make([]domain.SafetyTrigger, 0, 4)

	add := func(kind domain.TriggerKind, criteria []domain.Criterion) {
		if len(criteria) > 0 {
			triggers = append(triggers, domain.SafetyTrigger{Kind: kind, Criteria: criteria})
		}
	}

	// Hypotension
	var hypo []domain.Criterion
	if sbp, ok := reading(s.SystolicBP, systolicBounds); ok && th.HypotensionSystolic != nil && sbp < *th.HypotensionSystolic {
		hypo = append(hypo, criterion("systolic_bp", domain.Below, *th.HypotensionSystolic, sbp))
	}
	if pct, ok := reading(s.LowSystolicTimePct, percentBounds); ok && th.LowTimeInRangePct != nil && pct > *th.LowTimeInRangePct {
		hypo = append(hypo, criterion("low_systolic_time_pct", domain.Above, *th.LowTimeInRangePct, pct))
	}
	hypo = append(hypo, symptomCriteria(s, p.Symptoms[domain.Hypotension])...)
	add(domain.Hypotension, hypo)

	// Bradycardia
	var brady []domain.Criterion
	if hr, ok := reading(s.HeartRate, heartRateBounds); ok && th.BradycardiaHeartRate != nil && hr < *th.BradycardiaHeartRate {
		brady = append(brady, criterion("heart_rate", domain.Below, *th.BradycardiaHeartRate, hr))
	}
	if pct, ok := reading(s.LowHeartRateTimePct, percentBounds); ok && th.LowTimeInRangePct != nil && pct > *th.LowTimeInRangePct {
		brady = append(brady, criterion("low_heart_rate_time_pct", domain.Above, *th.LowTimeInRangePct, pct))
	}
	brady = append(brady, symptomCriteria(s, p.Symptoms[domain.Bradycardia])...)
	add(domain.Bradycardia, brady)

	// Hyperkalemia
	if k, ok := reading(s.Potassium, potassiumBounds); ok && th.HyperkalemiaPotassium != nil && k >= *th.HyperkalemiaPotassium {
		add(domain.Hyperkalemia, []domain.Criterion{criterion("potassium", domain.AtOrAbove, *th.HyperkalemiaPotassium, k)})
	}

	// Renal decline
	if p.RenalEnabled() {
		criteria, classes := renalCriteria(s, p.Renal)
		if len(criteria) > 0 {
			triggers = append(triggers, domain.SafetyTrigger{Kind: domain.RenalDecline, Criteria: criteria, Classes: classes})
		}
	}

	return triggers
}

func symptomCriteria(s domain.ClinicalSignals, watched []domain.Symptom) []domain.Criterion {
	var out []domain.Criterion
	seen := make(map[domain.Symptom]bool, len(watched))
	for _, sym := range watched {
		if seen[sym] || !s.HasSymptom(sym) {
			continue
		}
		seen[sym] = true
		out = append(out, domain.Criterion{
			Signal:     "symptom:" + string(sym),
			Comparator: domain.Reported,
		})
	}
	return out
}

// renalCriteria checks every class rule in domain.Order and reports the
// crossed cutoffs with the classes they flag.
func renalCriteria(s domain.ClinicalSignals, rules policy.RenalRules) ([]domain.Criterion, []domain.MedicationClass) {
	cr, crOK := reading(s.Creatinine, creatinineBounds)
	pct, pctOK := reading(s.CreatininePctChange, crChangeBounds)
	gfr := egfrReading(s, cr, crOK)

	var out []domain.Criterion
	var classes []domain.MedicationClass
	for _, class := range domain.Order() {
		rule, ok := rules[class]
		if !ok {
			continue
		}
		before := len(out)
		if cutoff := rule.CreatinineFor(s.Sex); crOK && cutoff != nil && cr >= *cutoff {
			c := criterion("creatinine", domain.AtOrAbove, *cutoff, cr)
			if rule.CreatinineFemale != nil && cutoff == rule.CreatinineFemale {
				c.Detail = "female cutoff"
			}
			out = append(out, c)
		}
		if pctOK && rule.CreatininePctChange != nil && pct >= *rule.CreatininePctChange {
			out = append(out, criterion("creatinine_pct_change", domain.AtOrAbove, *rule.CreatininePctChange, pct))
		}
		if gfr.ok && rule.EGFR != nil && gfr.value <= *rule.EGFR {
			c := criterion("egfr", domain.AtOrBelow, *rule.EGFR, gfr.value)
			c.Detail = gfr.detail
			out = append(out, c)
		}
		if len(out) > before {
			for i := before; i < len(out); i++ {
				out[i].Class = class
			}
			classes = append(classes, class)
		}
	}
	return out, classes
}

type egfr struct {
	value  float64
	detail string
	ok     bool
}

// egfrReading prefers the reported eGFR and falls back to the CKD-EPI
// estimate from creatinine, age and sex.
func egfrReading(s domain.ClinicalSignals, cr float64, crOK bool) egfr {
	if v, ok := reading(s.EGFR, egfrBounds); ok {
		return egfr{value: v, ok: true}
	}
	age, ok := reading(s.Age, ageBounds)
	if !ok || !crOK {
		return egfr{}
	}
	v, ok := EstimateGFR(cr, age, s.Sex)
	if !ok {
		return egfr{}
	}
	return egfr{value: round1(v), detail: "estimated (CKD-EPI 2021)", ok: true}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
