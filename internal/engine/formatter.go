package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/titrate/pkg/domain"
)

// Format assembles the Recommendation for a proposal. Sequence is always 1.
func Format(p Proposal) domain.Recommendation {
	criteria := append([]domain.Criterion{}, p.Criteria...)
	rec := domain.Recommendation{
		Sequence:  1,
		Class:     p.Class,
		Action:    p.Action,
		Delta:     p.Delta,
		FromLevel: p.FromLevel,
		ToLevel:   p.FromLevel + p.Delta,
		Criteria:  criteria,
	}
	if p.Trigger != nil {
		t := *p.Trigger
		t.Criteria = append([]domain.Criterion{}, t.Criteria...)
		rec.Trigger = &t
	}
	rec.Rationale = rationale(rec)
	return rec
}

func rationale(r domain.Recommendation) string {
	var head string
	switch r.Action {
	case domain.ActionDowntitrate:
		head = fmt.Sprintf("Down-titrate %s by %d (level %d -> %d)", r.Class, -r.Delta, r.FromLevel, r.ToLevel)
	case domain.ActionHold:
		head = fmt.Sprintf("Hold titration of %s (level %d)", r.Class, r.FromLevel)
	case domain.ActionInitiate:
		head = fmt.Sprintf("Initiate %s (level %d -> %d)", r.Class, r.FromLevel, r.ToLevel)
	case domain.ActionUptitrate:
		head = fmt.Sprintf("Up-titrate %s (level %d -> %d)", r.Class, r.FromLevel, r.ToLevel)
	default:
		head = fmt.Sprintf("%s %s", r.Action, r.Class)
	}

	parts := make([]string, 0, len(r.Criteria))
	for _, c := range r.Criteria {
		parts = append(parts, RenderCriterion(c))
	}

	if r.Trigger != nil {
		return fmt.Sprintf("%s because of %s: %s.", head, r.Trigger.Kind, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("%s: %s.", head, strings.Join(parts, "; "))
}

// RenderCriterion writes a criterion as "signal measured cmp threshold",
// followed by the detail and the class it belongs to when present.
func RenderCriterion(c domain.Criterion) string {
	var s string
	switch c.Comparator {
	case domain.Reported:
		s = c.Signal + " reported"
	case domain.Precondition:
		return c.Detail
	default:
		s = fmt.Sprintf("%s %s %s %s", c.Signal, num(c.Measured), c.Comparator, num(c.Threshold))
	}
	if c.Detail != "" {
		s += " (" + c.Detail + ")"
	}
	if c.Class != "" {
		s += " for " + string(c.Class)
	}
	return s
}

func num(v *float64) string {
	if v == nil {
		return "?"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
