package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/titrate/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// ParseOverrides splits "name=value" pairs as given on the command line.
func ParseOverrides(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("override %q: expected name=value", pair)
		}
		out[name] = strings.TrimSpace(value)
	}
	return out, nil
}

// ApplyOverrides decodes overrides onto p and re-prepares it. Threshold
// names are their mapstructure names; renal cutoffs are written
// "renal.<class>.<cutoff>", e.g. "renal.MRA.egfr". Unknown names are
// rejected.
func ApplyOverrides(p *Policy, overrides map[string]string) (*Policy, error) {
	if len(overrides) == 0 && p != nil {
		return p, nil
	}

	var out Policy
	if p != nil {
		out = p.Clone()
	}

	thresholds := make(map[string]string, len(overrides))
	renal := make(map[domain.MedicationClass]map[string]string)
	for name, value := range overrides {
		rest, ok := strings.CutPrefix(name, "renal.")
		if !ok {
			thresholds[name] = value
			continue
		}
		className, cutoff, ok := strings.Cut(rest, ".")
		if !ok || cutoff == "" {
			return nil, fmt.Errorf("invalid renal override %q: expected renal.<class>.<cutoff>", name)
		}
		class, err := domain.ParseMedicationClass(className)
		if err != nil {
			return nil, fmt.Errorf("invalid renal override %q: %w", name, err)
		}
		if renal[class] == nil {
			renal[class] = make(map[string]string)
		}
		renal[class][cutoff] = value
	}

	if err := decodeOverrides(thresholds, &out.Thresholds); err != nil {
		return nil, fmt.Errorf("invalid threshold override: %w", err)
	}

	classes := make([]domain.MedicationClass, 0, len(renal))
	for c := range renal {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	for _, c := range classes {
		rule := out.Renal[c]
		if err := decodeOverrides(renal[c], &rule); err != nil {
			return nil, fmt.Errorf("invalid renal override for %s: %w", c, err)
		}
		if out.Renal == nil {
			out.Renal = make(RenalRules)
		}
		out.Renal[c] = rule
	}
	return Prepare(out)
}

func decodeOverrides(values map[string]string, target any) error {
	if len(values) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to create override decoder: %w", err)
	}
	return decoder.Decode(values)
}
