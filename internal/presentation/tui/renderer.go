package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/titrate/internal/engine"
	"github.com/aretw0/titrate/pkg/domain"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)

	return func(markdown string) (string, error) {
		if err != nil {
			return "", err
		}
		return r.Render(markdown)
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// PrintEvaluation writes the report for eval. Terminals get the glamour
// rendering; pipes and files get the plain markdown.
func PrintEvaluation(w io.Writer, eval *domain.Evaluation) error {
	md := EvaluationMarkdown(eval)
	if IsTerminal(w) {
		out, err := NewRenderer()(md)
		if err == nil {
			md = out
		}
	}
	_, err := io.WriteString(w, md)
	return err
}

// EvaluationMarkdown is the single-result report printed by the CLI.
func EvaluationMarkdown(eval *domain.Evaluation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s\n\n", outcomeTitle(eval.Outcome))

	if r := eval.Recommendation; r != nil {
		fmt.Fprintf(&b, "**%s**\n\n", headline(r))
		fmt.Fprintf(&b, "> %s\n\n", r.Rationale)
	} else {
		b.WriteString("**No action**: every class is at target dose and no safety trigger is active.\n\n")
	}

	if len(eval.Triggers) > 0 {
		b.WriteString("### Active safety triggers\n\n")
		for _, t := range eval.Triggers {
			parts := make([]string, 0, len(t.Criteria))
			for _, c := range t.Criteria {
				parts = append(parts, engine.RenderCriterion(c))
			}
			fmt.Fprintf(&b, "- **%s**: %s\n", t.Kind, strings.Join(parts, "; "))
		}
		b.WriteString("\n")
	}

	path := make([]string, len(eval.Path))
	for i, p := range eval.Path {
		path[i] = string(p)
	}
	fmt.Fprintf(&b, "_%s -> %s_\n", strings.Join(path, " -> "), eval.Outcome)
	return b.String()
}

func outcomeTitle(o domain.Outcome) string {
	switch o {
	case domain.OutcomeSafetyAction:
		return "Safety action"
	case domain.OutcomeEscalationAction:
		return "Escalation"
	default:
		return "No action"
	}
}

func headline(r *domain.Recommendation) string {
	switch r.Action {
	case domain.ActionDowntitrate:
		return fmt.Sprintf("Down-titrate %s: level %d -> %d", r.Class, r.FromLevel, r.ToLevel)
	case domain.ActionHold:
		return fmt.Sprintf("Hold %s at level %d", r.Class, r.FromLevel)
	case domain.ActionInitiate:
		return fmt.Sprintf("Initiate %s: level %d -> %d", r.Class, r.FromLevel, r.ToLevel)
	default:
		return fmt.Sprintf("Up-titrate %s: level %d -> %d", r.Class, r.FromLevel, r.ToLevel)
	}
}
