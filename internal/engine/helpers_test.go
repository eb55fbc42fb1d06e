package engine_test

import (
	"testing"

	"github.com/aretw0/titrate/pkg/domain"
	"github.com/aretw0/titrate/pkg/policy"
	"github.com/stretchr/testify/require"
)

// corePolicy carries only the required cutoffs.
func corePolicy(t *testing.T) *policy.Policy {
	t.Helper()
	p, err := policy.Prepare(policy.Policy{Thresholds: policy.Thresholds{
		BradycardiaHeartRate:  domain.Float(50),
		HypotensionSystolic:   domain.Float(90),
		HyperkalemiaPotassium: domain.Float(5.5),
	}})
	require.NoError(t, err)
	return p
}

// fullPolicy adds the time-in-range and renal checks.
func fullPolicy(t *testing.T) *policy.Policy {
	t.Helper()
	p := corePolicy(t).Clone()
	p.Thresholds.LowTimeInRangePct = domain.Float(10)
	p.Renal = policy.RenalRules{
		domain.RAASi: {Creatinine: domain.Float(3), CreatininePctChange: domain.Float(50)},
		domain.MRA: {
			EGFR:                domain.Float(30),
			Creatinine:          domain.Float(2.5),
			CreatinineFemale:    domain.Float(2),
			CreatininePctChange: domain.Float(50),
		},
		domain.SGLT2i: {EGFR: domain.Float(25)},
	}
	prepared, err := policy.Prepare(p)
	require.NoError(t, err)
	return prepared
}

// stable are signals that raise no trigger.
func stable() domain.ClinicalSignals {
	return domain.ClinicalSignals{
		HeartRate:  domain.Float(72),
		SystolicBP: domain.Float(112),
		Potassium:  domain.Float(4.4),
	}
}

func kinds(triggers []domain.SafetyTrigger) []domain.TriggerKind {
	out := make([]domain.TriggerKind, len(triggers))
	for i, tr := range triggers {
		out[i] = tr.Kind
	}
	return out
}
