package domain

// Action is the kind of change proposed.
type Action string

const (
	ActionInitiate    Action = "initiate"
	ActionUptitrate   Action = "uptitrate"
	ActionDowntitrate Action = "downtitrate"
	// ActionHold halts escalation when a trigger is active but its mapped
	// classes are already at level 0.
	ActionHold Action = "hold"
)

// Recommendation is the single action emitted by one evaluation.
type Recommendation struct {
	// Sequence is always 1: step one of the ongoing care plan.
	Sequence  int             `json:"sequence"`
	Class     MedicationClass `json:"class"`
	Action    Action          `json:"action"`
	Delta     int             `json:"delta"`
	FromLevel int             `json:"from_level"`
	ToLevel   int             `json:"to_level"`
	Rationale string          `json:"rationale"`
	Criteria  []Criterion     `json:"criteria"`
	Trigger   *SafetyTrigger  `json:"trigger,omitempty"`
}

// Outcome is the terminal state of an evaluation.
type Outcome string

const (
	OutcomeSafetyAction     Outcome = "STOP_WITH_SAFETY_ACTION"
	OutcomeEscalationAction Outcome = "STOP_WITH_ESCALATION_ACTION"
	OutcomeNoAction         Outcome = "STOP_NO_ACTION"
)

// Phase is a state of the evaluation state machine.
type Phase string

const (
	PhaseValidate        Phase = "VALIDATE"
	PhaseNormalize       Phase = "NORMALIZE"
	PhaseSafetyCheck     Phase = "SAFETY_CHECK"
	PhaseEscalationCheck Phase = "ESCALATION_CHECK"
)

// Evaluation is the auditable record of one engine call.
type Evaluation struct {
	Outcome        Outcome         `json:"outcome"`
	Recommendation *Recommendation `json:"recommendation"`
	// Triggers lists every active trigger, in priority order, including
	// those outranked by the one acted on.
	Triggers []SafetyTrigger `json:"triggers"`
	Path     []Phase         `json:"path"`
}
