package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/titrate/pkg/policy"
	"github.com/mitchellh/mapstructure"
)

// DefaultDocument is the policy document ID (policy.md, policy.yaml, ...).
const DefaultDocument = "policy"

// Source adapts a Loam repository to ports.PolicySource.
// The policy lives in the frontmatter of one document; its body is free
// text for the clinical team and is exposed through Notes.
type Source struct {
	Repo       *loam.TypedRepository[PolicyMetadata]
	DocumentID string
}

// Option defines a functional option for configuring the Source.
type Option func(*Source)

// WithDocument selects a document other than DefaultDocument.
func WithDocument(id string) Option {
	return func(s *Source) {
		s.DocumentID = id
	}
}

// New creates a policy source over an existing typed repository.
func New(repo *loam.TypedRepository[PolicyMetadata], opts ...Option) *Source {
	s := &Source{
		Repo:       repo,
		DocumentID: DefaultDocument,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open initializes a read-only Loam repository at dir.
// Strict mode keeps numbers as json.Number so thresholds decode exactly.
func Open(dir string, opts ...Option) (*Source, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[PolicyMetadata](repo), opts...), nil
}

// Load reads the policy document and prepares it.
func (s *Source) Load(ctx context.Context) (*policy.Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := s.Repo.Get(ctx, s.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("%w: loam document %s: %w", policy.ErrPolicyNotFound, s.DocumentID, err)
	}

	p, err := decodeMetadata(doc.Data)
	if err != nil {
		return nil, fmt.Errorf("loam document %s: %w", s.DocumentID, err)
	}
	prepared, err := policy.Prepare(p)
	if err != nil {
		return nil, fmt.Errorf("loam document %s: %w", s.DocumentID, err)
	}
	return prepared, nil
}

// Notes returns the body of the policy document.
func (s *Source) Notes(ctx context.Context) (string, error) {
	doc, err := s.Repo.Get(ctx, s.DocumentID)
	if err != nil {
		return "", fmt.Errorf("%w: loam document %s: %w", policy.ErrPolicyNotFound, s.DocumentID, err)
	}
	return strings.TrimSpace(doc.Content), nil
}

func decodeMetadata(meta PolicyMetadata) (policy.Policy, error) {
	var p policy.Policy
	sections := []struct {
		name string
		src  map[string]any
		dst  any
	}{
		{"thresholds", meta.Thresholds, &p.Thresholds},
		{"mapping", meta.Mapping, &p.Mapping},
		{"symptoms", meta.Symptoms, &p.Symptoms},
		{"renal", meta.Renal, &p.Renal},
	}
	for _, sec := range sections {
		if sec.src == nil {
			continue
		}
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           sec.dst,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			TagName:          "mapstructure",
		})
		if err != nil {
			return p, err
		}
		if err := decoder.Decode(sec.src); err != nil {
			return p, fmt.Errorf("%w: %s: %v", policy.ErrInvalidPolicy, sec.name, err)
		}
	}
	return p, nil
}

// Watch signals whenever the policy document changes on disk.
func (s *Source) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := s.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				if trimExtension(evt.ID) != trimExtension(s.DocumentID) {
					continue
				}
				// Coalesce bursts: one pending signal is enough to reload.
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()
	return ch, nil
}

func trimExtension(id string) string {
	id = filepath.ToSlash(id)
	return strings.TrimSuffix(id, filepath.Ext(id))
}
