package domain

// TriggerKind is a safety trigger category.
type TriggerKind string

const (
	Hypotension  TriggerKind = "Hypotension"
	Bradycardia  TriggerKind = "Bradycardia"
	Hyperkalemia TriggerKind = "Hyperkalemia"
	RenalDecline TriggerKind = "RenalDecline"
)

var triggerPriority = [...]TriggerKind{Hypotension, Bradycardia, Hyperkalemia, RenalDecline}

// TriggerPriority returns trigger kinds from most to least acute.
func TriggerPriority() []TriggerKind {
	out := make([]TriggerKind, len(triggerPriority))
	copy(out, triggerPriority[:])
	return out
}

// Rank is the position of k in TriggerPriority, or -1 if unknown.
func (k TriggerKind) Rank() int {
	for i, known := range triggerPriority {
		if k == known {
			return i
		}
	}
	return -1
}

// Comparator describes how a measurement crossed its threshold.
type Comparator string

const (
	Equal        Comparator = "="
	Below        Comparator = "<"
	AtOrBelow    Comparator = "<="
	Above        Comparator = ">"
	AtOrAbove    Comparator = ">="
	Reported     Comparator = "reported"
	Precondition Comparator = "holds"
)

// Criterion records one fact that justified a decision.
type Criterion struct {
	Signal     string     `json:"signal"`
	Comparator Comparator `json:"comparator"`
	Threshold  *float64   `json:"threshold,omitempty"`
	Measured   *float64   `json:"measured,omitempty"`
	Detail     string     `json:"detail,omitempty"`
	// Class is set when the cutoff belongs to one medication class.
	Class MedicationClass `json:"class,omitempty"`
}

// SafetyTrigger is an active safety signal with the criteria that raised it.
type SafetyTrigger struct {
	Kind     TriggerKind `json:"kind"`
	Criteria []Criterion `json:"criteria"`
	// Classes narrows the down-titration candidates to the classes whose own
	// cutoffs were crossed, in Order. Empty means the mapping decides alone.
	Classes []MedicationClass `json:"classes,omitempty"`
}
