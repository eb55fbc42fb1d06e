/*
Package titrate is a deterministic, safety-ordered decision engine for
heart-failure medication titration (GDMT for HFrEF).

Given the current dose level (0 to 4) of the four pillar classes (RAASi,
BetaBlocker, MRA, SGLT2i) and the patient's clinical signals, the engine
returns exactly one recommended step, or an explicit "no action".

# Rule

Safety comes first. Signals are normalized into triggers (Hypotension,
Bradycardia, Hyperkalemia, RenalDecline, in that priority). The highest
priority active trigger down-titrates its mapped class, or holds titration
when that class is already at 0. Only when no trigger is active does
escalation run: initiate the first class at dose 0, otherwise up-titrate the
first class below the target dose, always walking the fixed order
RAASi, BetaBlocker, MRA, SGLT2i.

# Usage

The engine refuses to start without the core cutoffs (heart rate, systolic
pressure, potassium), which come from a policy file, a Loam document
repository or Redis.

	eng, err := titrate.New(titrate.WithPolicyFile("policy.yaml"))
	if err != nil {
		log.Fatal(err)
	}

	rec, err := eng.Evaluate(ctx, domain.NewDoseState(2, 1, 3, 4), domain.ClinicalSignals{
		HeartRate:  domain.Float(72),
		SystolicBP: domain.Float(112),
		Potassium:  domain.Float(4.4),
	})
	if err != nil {
		log.Fatal(err)
	}
	if rec == nil {
		fmt.Println("no action")
		return
	}
	fmt.Println(rec.Rationale)

Every evaluation is a pure function of its inputs and the policy. The engine
keeps no history and is safe for concurrent use.
*/
package titrate
