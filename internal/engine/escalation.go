package engine

import (
	"strings"

	"github.com/aretw0/titrate/pkg/domain"
)

var orderText = func() string {
	names := make([]string, 0, 4)
	for _, c := range domain.Order() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}()

// EvaluateEscalation runs the two-phase scan over domain.Order(): initiate
// the first class at level 0; otherwise up-titrate the first class below
// the maximum. It reports false when every class is at the maximum.
func EvaluateEscalation(doses domain.DoseState) (*Proposal, bool) {
	classes := domain.Order()

	for _, c := range classes {
		if lvl := doses.Levels[c]; lvl == domain.MinDoseLevel {
			crit := criterion("dose."+string(c), domain.Equal, domain.MinDoseLevel, float64(lvl))
			crit.Detail = "first class at dose 0 in order " + orderText
			return &Proposal{
				Class:     c,
				Action:    domain.ActionInitiate,
				Delta:     1,
				FromLevel: lvl,
				Criteria:  []domain.Criterion{crit},
			}, true
		}
	}

	for _, c := range classes {
		if lvl := doses.Levels[c]; lvl < domain.MaxDoseLevel {
			crit := criterion("dose."+string(c), domain.Below, domain.MaxDoseLevel, float64(lvl))
			crit.Detail = "first class below dose 4 in order " + orderText
			return &Proposal{
				Class:     c,
				Action:    domain.ActionUptitrate,
				Delta:     1,
				FromLevel: lvl,
				Criteria: []domain.Criterion{
					{Signal: "all_classes", Comparator: domain.Precondition, Detail: "all classes at dose ≥1"},
					crit,
				},
			}, true
		}
	}

	return nil, false
}
