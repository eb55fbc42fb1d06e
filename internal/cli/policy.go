package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	loamadapter "github.com/aretw0/titrate/pkg/adapters/loam"
	"github.com/aretw0/titrate/pkg/domain"
	"github.com/aretw0/titrate/pkg/policy"
)

// ShowPolicy prints the effective policy (after overrides) in format.
func ShowPolicy(ctx context.Context, opts Options, format policy.Format, w io.Writer) error {
	p, err := resolvePolicy(ctx, opts)
	if err != nil {
		return err
	}
	data, err := policy.Marshal(p, format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ValidatePolicy loads the policy and reports a one-line summary.
func ValidatePolicy(ctx context.Context, opts Options, w io.Writer) error {
	src, closeSource, err := opts.openSource()
	if err != nil {
		return err
	}
	defer closeSource()

	p, err := opts.loadPolicy(ctx, src)
	if err != nil {
		return err
	}

	th := p.Thresholds
	fmt.Fprintf(w, "✓ Policy is valid: heart rate < %g, systolic < %g, potassium >= %g\n",
		*th.BradycardiaHeartRate, *th.HypotensionSystolic, *th.HyperkalemiaPotassium)

	kinds := make([]string, 0, len(p.Mapping))
	for _, k := range domain.TriggerPriority() {
		if _, ok := p.Mapping[k]; ok {
			kinds = append(kinds, string(k))
		}
	}
	fmt.Fprintf(w, "  Mapped triggers: %s\n", strings.Join(kinds, ", "))
	if p.RenalEnabled() {
		classes := make([]string, 0, len(p.Renal))
		for _, c := range domain.Order() {
			if r, ok := p.Renal[c]; ok && r.Enabled() {
				classes = append(classes, string(c))
			}
		}
		fmt.Fprintf(w, "  Renal cutoffs for: %s\n", strings.Join(classes, ", "))
	} else {
		fmt.Fprintln(w, "  Renal decline check disabled")
	}

	if doc, ok := src.(*loamadapter.Source); ok {
		if notes, err := doc.Notes(ctx); err == nil && notes != "" {
			fmt.Fprintf(w, "  Notes: %s\n", notes)
		}
	}
	return nil
}

// PublishOptions configures 'policy publish'.
type PublishOptions struct {
	Options
	// From is the policy file to publish.
	From string
}

// PublishPolicy validates a policy file and stores it in Redis.
func PublishPolicy(ctx context.Context, opts PublishOptions, w io.Writer) error {
	if opts.RedisAddr == "" {
		return errors.New("publish requires --redis-addr")
	}
	if opts.From == "" {
		return errors.New("publish requires --from")
	}

	p, err := opts.loadPolicy(ctx, policy.NewFileSource(opts.From))
	if err != nil {
		return err
	}

	store := opts.redisSource()
	defer store.Close()

	if err := store.Publish(ctx, p); err != nil {
		return err
	}
	rev, err := store.Revision(ctx)
	if err != nil {
		return err
	}
	printSystemMessage(w, "Published %s to %s (revision %d)", opts.From, store.Key(), rev)
	return nil
}

func resolvePolicy(ctx context.Context, opts Options) (*policy.Policy, error) {
	src, closeSource, err := opts.openSource()
	if err != nil {
		return nil, err
	}
	defer closeSource()
	return opts.loadPolicy(ctx, src)
}

// ParseFormat accepts "yaml" or "json".
func ParseFormat(s string) (policy.Format, error) {
	switch strings.ToLower(s) {
	case "", "yaml", "yml":
		return policy.FormatYAML, nil
	case "json":
		return policy.FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown policy format %q", s)
	}
}

