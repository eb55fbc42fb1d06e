package domain

import (
	"fmt"
	"strings"
)

// MedicationClass identifies one of the four GDMT pillars.
type MedicationClass string

const (
	RAASi       MedicationClass = "RAASi"
	BetaBlocker MedicationClass = "BetaBlocker"
	MRA         MedicationClass = "MRA"
	SGLT2i      MedicationClass = "SGLT2i"
)

// Dose level bounds.
const (
	MinDoseLevel = 0
	MaxDoseLevel = 4
)

// order is the one precedence list shared by initiation and up-titration.
var order = [...]MedicationClass{RAASi, BetaBlocker, MRA, SGLT2i}

// Order returns the fixed medication-class precedence.
// The returned slice is a copy; callers cannot reorder the engine.
func Order() []MedicationClass {
	out := make([]MedicationClass, len(order))
	copy(out, order[:])
	return out
}

// Valid reports whether c is one of the four known classes.
func (c MedicationClass) Valid() bool {
	for _, known := range order {
		if c == known {
			return true
		}
	}
	return false
}

func (c MedicationClass) String() string {
	return string(c)
}

var classAliases = map[string]MedicationClass{
	"raasi":        RAASi,
	"acei":         RAASi,
	"arb":          RAASi,
	"arni":         RAASi,
	"betablocker":  BetaBlocker,
	"beta_blocker": BetaBlocker,
	"bb":           BetaBlocker,
	"mra":          MRA,
	"sglt2i":       SGLT2i,
	"sglt2":        SGLT2i,
}

// ParseMedicationClass resolves a class name, accepting common aliases
// ("BB", "beta_blocker", "SGLT2") case-insensitively.
func ParseMedicationClass(s string) (MedicationClass, error) {
	if c, ok := classAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMedicationClass, s)
}
