package engine

import "github.com/aretw0/titrate/pkg/domain"

// Proposal is a chosen action before formatting.
type Proposal struct {
	Class     domain.MedicationClass
	Action    domain.Action
	Delta     int
	FromLevel int
	Trigger   *domain.SafetyTrigger
	Criteria  []domain.Criterion
}
