package engine

import (
	"slices"

	"github.com/aretw0/titrate/pkg/domain"
	"github.com/aretw0/titrate/pkg/policy"
)

// EvaluateSafety acts on the single highest-priority active trigger.
// It reports false only when no trigger is active; an active trigger whose
// mapped classes are all at level 0 yields a hold proposal. A trigger that
// names its own classes is only ever applied to those classes.
func EvaluateSafety(triggers []domain.SafetyTrigger, doses domain.DoseState, mapping policy.Mapping) (*Proposal, bool) {
	top := -1
	for i, t := range triggers {
		if t.Kind.Rank() < 0 {
			continue
		}
		if top < 0 || t.Kind.Rank() < triggers[top].Kind.Rank() {
			top = i
		}
	}
	if top < 0 {
		return nil, false
	}

	trig := triggers[top]
	rule, ok := mapping[trig.Kind]
	if !ok {
		rule = policy.DefaultMapping()[trig.Kind]
	}
	step := rule.Step
	if step < 1 {
		step = 1
	}

	candidates := narrow(candidateClasses(rule, doses), trig.Classes)
	for _, c := range candidates {
		lvl := doses.Levels[c]
		if lvl <= domain.MinDoseLevel {
			continue
		}
		return &Proposal{
			Class:     c,
			Action:    domain.ActionDowntitrate,
			Delta:     -min(step, lvl),
			FromLevel: lvl,
			Trigger:   &trig,
			Criteria:  criteriaFor(trig.Criteria, c),
		}, true
	}

	// No mapped class can go lower: halt escalation on the first candidate.
	hold := domain.RAASi
	if len(candidates) > 0 {
		hold = candidates[0]
	}
	criteria := append([]domain.Criterion(nil), trig.Criteria...)
	criteria = append(criteria, domain.Criterion{
		Signal:     "mapped_classes",
		Comparator: domain.Precondition,
		Detail:     "no mapped class above dose 0",
	})
	return &Proposal{
		Class:     hold,
		Action:    domain.ActionHold,
		Delta:     0,
		FromLevel: doses.Levels[hold],
		Trigger:   &trig,
		Criteria:  criteria,
	}, true
}

func candidateClasses(rule policy.Rule, doses domain.DoseState) []domain.MedicationClass {
	out := make([]domain.MedicationClass, 0, len(rule.Classes)+1)
	if rule.PreferLastUptitrated && doses.LastUptitrated.Valid() {
		out = append(out, doses.LastUptitrated)
	}
	for _, c := range rule.Classes {
		if len(out) > 0 && out[0] == c {
			continue
		}
		out = append(out, c)
	}
	return out
}

// narrow keeps the candidates that the trigger flagged. When the mapping
// names none of them the flagged classes are used in their own order.
func narrow(candidates, flagged []domain.MedicationClass) []domain.MedicationClass {
	if len(flagged) == 0 {
		return candidates
	}
	out := make([]domain.MedicationClass, 0, len(flagged))
	for _, c := range candidates {
		if slices.Contains(flagged, c) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return append(out, flagged...)
	}
	return out
}

// criteriaFor keeps the criteria that apply to class: those without a class
// and those raised by the class's own cutoffs.
func criteriaFor(criteria []domain.Criterion, class domain.MedicationClass) []domain.Criterion {
	out := make([]domain.Criterion, 0, len(criteria))
	for _, c := range criteria {
		if c.Class == "" || c.Class == class {
			out = append(out, c)
		}
	}
	return out
}
