package domain

import (
	"fmt"
	"math"
	"sort"
)

// DoseState is the caller-owned titration record for one patient.
type DoseState struct {
	// Levels maps every class to an integer level in [0, 4].
	Levels map[MedicationClass]int `json:"levels"`

	// LastUptitrated is the class most recently increased, when the caller
	// keeps that history. Empty means unknown.
	LastUptitrated MedicationClass `json:"last_uptitrated,omitempty"`
}

// NewDoseState builds a DoseState from levels given in Order().
func NewDoseState(raasi, betaBlocker, mra, sglt2i int) DoseState {
	return DoseState{Levels: map[MedicationClass]int{
		RAASi:       raasi,
		BetaBlocker: betaBlocker,
		MRA:         mra,
		SGLT2i:      sglt2i,
	}}
}

// DoseStateFromNames builds a DoseState from loosely named levels as sent by
// adapters ("BB", "acei", "SGLT2i", ...). Names that are not classes are kept
// verbatim so Validate reports them; two names for one class are an error.
func DoseStateFromNames(levels map[string]int, lastUptitrated string) (DoseState, error) {
	d := DoseState{Levels: make(map[MedicationClass]int, len(levels))}
	seen := make(map[MedicationClass]string, len(levels))

	names := make([]string, 0, len(levels))
	for name := range levels {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c, err := ParseMedicationClass(name)
		if err != nil {
			c = MedicationClass(name)
		}
		if prev, dup := seen[c]; dup {
			return DoseState{}, fmt.Errorf("%w: %q and %q both name %s", ErrDuplicateMedicationClass, prev, name, c)
		}
		seen[c] = name
		d.Levels[c] = levels[name]
	}

	if lastUptitrated != "" {
		c, err := ParseMedicationClass(lastUptitrated)
		if err != nil {
			c = MedicationClass(lastUptitrated)
		}
		d.LastUptitrated = c
	}
	return d, nil
}

// LevelFromFloat converts a wire number to a dose level. Whole values such
// as 2.0 are accepted; fractions and values too large for a level are an
// ErrInvalidDoseLevel. The [0, 4] range is left to Validate.
func LevelFromFloat(class MedicationClass, v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: %s level %v is not a whole number", ErrInvalidDoseLevel, class, v)
	}
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("%w: %s level %v outside [%d, %d]", ErrInvalidDoseLevel, class, v, MinDoseLevel, MaxDoseLevel)
	}
	return int(v), nil
}

// Level returns the level for c and whether it was present.
func (d DoseState) Level(c MedicationClass) (int, bool) {
	lvl, ok := d.Levels[c]
	return lvl, ok
}

// Validate checks coverage and range before any rule runs.
// Unknown keys are rejected so a typo cannot hide a missing class.
func (d DoseState) Validate() error {
	var unknown []string
	for c := range d.Levels {
		if !c.Valid() {
			unknown = append(unknown, string(c))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &UnknownClassError{Names: unknown}
	}

	var missing []MedicationClass
	for _, c := range order {
		if _, ok := d.Levels[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &IncompleteDoseStateError{Missing: missing}
	}

	for _, c := range order {
		lvl := d.Levels[c]
		if lvl < MinDoseLevel || lvl > MaxDoseLevel {
			return &DoseLevelError{Class: c, Level: lvl}
		}
	}

	if d.LastUptitrated != "" && !d.LastUptitrated.Valid() {
		return &UnknownClassError{Names: []string{string(d.LastUptitrated)}}
	}
	return nil
}
