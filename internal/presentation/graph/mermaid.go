package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/titrate/pkg/domain"
)

// Overlay marks the states one evaluation went through.
type Overlay struct {
	Visited []string
	Current string
}

// OverlayFor builds the overlay of eval: its path, ending on its outcome.
func OverlayFor(eval *domain.Evaluation) *Overlay {
	o := &Overlay{Current: string(eval.Outcome)}
	for _, p := range eval.Path {
		o.Visited = append(o.Visited, string(p))
	}
	return o
}

type edge struct {
	from, to, label string
}

// Transitions of the evaluation state machine. Rejected input never leaves VALIDATE.
var edges = []edge{
	{string(domain.PhaseValidate), string(domain.PhaseNormalize), "doses complete, levels 0-4"},
	{string(domain.PhaseNormalize), string(domain.PhaseSafetyCheck), ""},
	{string(domain.PhaseSafetyCheck), string(domain.OutcomeSafetyAction), "trigger active"},
	{string(domain.PhaseSafetyCheck), string(domain.PhaseEscalationCheck), "no trigger"},
	{string(domain.PhaseEscalationCheck), string(domain.OutcomeEscalationAction), "class below 4"},
	{string(domain.PhaseEscalationCheck), string(domain.OutcomeNoAction), "all classes at 4"},
}

var states = []string{
	string(domain.PhaseValidate),
	string(domain.PhaseNormalize),
	string(domain.PhaseSafetyCheck),
	string(domain.PhaseEscalationCheck),
	string(domain.OutcomeSafetyAction),
	string(domain.OutcomeEscalationAction),
	string(domain.OutcomeNoAction),
}

// GenerateMermaid produces a Mermaid flowchart of the evaluation state
// machine. The entry state is drawn as a circle and terminal states as
// stadiums. Overlay styles are applied when overlay is not nil.
func GenerateMermaid(overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, s := range states {
		opener, closer := "[", "]"
		switch {
		case s == string(domain.PhaseValidate):
			opener, closer = "((", "))"
		case strings.HasPrefix(s, "STOP_"):
			opener, closer = "([", "])"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", s, opener, s, closer))
	}

	for _, e := range edges {
		arrow := "-->"
		if e.label != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", e.label)
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", e.from, arrow, e.to))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Visited {
			if !seen[id] && id != "" {
				seen[id] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", id))
			}
		}
		if overlay.Current != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", overlay.Current))
		}
	}

	return sb.String()
}
