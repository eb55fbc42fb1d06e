package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDoseLevel is returned when a class level lies outside [0, 4].
var ErrInvalidDoseLevel = errors.New("invalid dose level")

// ErrIncompleteDoseState is returned when a medication class is missing from the dose state.
var ErrIncompleteDoseState = errors.New("incomplete dose state")

// ErrUnknownMedicationClass is returned for a class name outside the fixed set.
var ErrUnknownMedicationClass = errors.New("unknown medication class")

// ErrDuplicateMedicationClass is returned when two names resolve to the same class.
var ErrDuplicateMedicationClass = errors.New("duplicate medication class")

// ErrUnknownSymptom is returned for a symptom name outside the recognised set.
var ErrUnknownSymptom = errors.New("unknown symptom")

// DoseLevelError reports the offending class and level.
type DoseLevelError struct {
	Class MedicationClass
	Level int
}

func (e *DoseLevelError) Error() string {
	return fmt.Sprintf("%s: %s level %d outside [%d, %d]", ErrInvalidDoseLevel, e.Class, e.Level, MinDoseLevel, MaxDoseLevel)
}

func (e *DoseLevelError) Unwrap() error { return ErrInvalidDoseLevel }

// IncompleteDoseStateError lists the classes absent from the input, in Order().
type IncompleteDoseStateError struct {
	Missing []MedicationClass
}

func (e *IncompleteDoseStateError) Error() string {
	names := make([]string, len(e.Missing))
	for i, c := range e.Missing {
		names[i] = string(c)
	}
	return fmt.Sprintf("%s: missing %s", ErrIncompleteDoseState, strings.Join(names, ", "))
}

func (e *IncompleteDoseStateError) Unwrap() error { return ErrIncompleteDoseState }

// UnknownClassError lists class names that are not part of the fixed set.
type UnknownClassError struct {
	Names []string
}

func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownMedicationClass, strings.Join(e.Names, ", "))
}

func (e *UnknownClassError) Unwrap() error { return ErrUnknownMedicationClass }

// IsInputError reports whether err is a caller input validation failure.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidDoseLevel) ||
		errors.Is(err, ErrIncompleteDoseState) ||
		errors.Is(err, ErrUnknownMedicationClass) ||
		errors.Is(err, ErrDuplicateMedicationClass) ||
		errors.Is(err, ErrUnknownSymptom)
}

// RejectReason maps a validation error to a short stable label.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidDoseLevel):
		return "invalid_dose_level"
	case errors.Is(err, ErrIncompleteDoseState):
		return "incomplete_dose_state"
	case errors.Is(err, ErrUnknownMedicationClass):
		return "unknown_medication_class"
	case errors.Is(err, ErrDuplicateMedicationClass):
		return "duplicate_medication_class"
	case errors.Is(err, ErrUnknownSymptom):
		return "unknown_symptom"
	default:
		return "other"
	}
}
