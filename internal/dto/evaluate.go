package dto

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/titrate/pkg/domain"
)

// EvaluateRequest is the wire form of one evaluation, shared by the HTTP
// body, the CLI --input file and the MCP structured arguments.
type EvaluateRequest struct {
	Doses          map[string]int         `json:"doses" mapstructure:"doses"`
	LastUptitrated string                 `json:"last_uptitrated,omitempty" mapstructure:"last_uptitrated"`
	Signals        domain.ClinicalSignals `json:"signals" mapstructure:"signals"`
}

// UnmarshalJSON reads dose levels as JSON numbers so that 2.0 is level 2 and
// an overflowing or fractional level is an ErrInvalidDoseLevel rather than a
// syntax error.
func (r *EvaluateRequest) UnmarshalJSON(data []byte) error {
	type plain EvaluateRequest
	var wire struct {
		plain
		Doses map[string]json.Number `json:"doses"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = EvaluateRequest(wire.plain)
	if wire.Doses == nil {
		r.Doses = nil
		return nil
	}
	r.Doses = make(map[string]int, len(wire.Doses))
	for name, n := range wire.Doses {
		class, err := domain.ParseMedicationClass(name)
		if err != nil {
			class = domain.MedicationClass(name)
		}
		v, err := n.Float64()
		if err != nil {
			return fmt.Errorf("%w: %s level %s is not a number in range", domain.ErrInvalidDoseLevel, class, n)
		}
		lvl, err := domain.LevelFromFloat(class, v)
		if err != nil {
			return err
		}
		r.Doses[name] = lvl
	}
	return nil
}

// DoseState resolves class aliases; validation is left to the engine.
func (r EvaluateRequest) DoseState() (domain.DoseState, error) {
	return domain.DoseStateFromNames(r.Doses, r.LastUptitrated)
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// OrderResponse lists the fixed orders the engine walks.
type OrderResponse struct {
	Classes         []domain.MedicationClass `json:"classes"`
	TriggerPriority []domain.TriggerKind     `json:"trigger_priority"`
}

// NewOrderResponse snapshots domain.Order and domain.TriggerPriority.
func NewOrderResponse() OrderResponse {
	return OrderResponse{
		Classes:         domain.Order(),
		TriggerPriority: domain.TriggerPriority(),
	}
}
