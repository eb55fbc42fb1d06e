package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/titrate/pkg/policy"
	backend "github.com/redis/go-redis/v9"
)

// Source implements ports.PolicyPublisher using Redis.
// The policy is stored as one JSON document; a revision counter next to it
// is bumped on every publish.
type Source struct {
	client *backend.Client
	prefix string
	key    string
	ttl    time.Duration
}

// Option defines a functional option for configuring the Source.
type Option func(*Source)

// WithPrefix sets the key prefix (default "titrate:").
func WithPrefix(prefix string) Option {
	return func(s *Source) {
		s.prefix = prefix
	}
}

// WithKey sets the policy key below the prefix (default "policy").
func WithKey(key string) Option {
	return func(s *Source) {
		s.key = key
	}
}

// WithTTL sets an expiration on published policies. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Source) {
		s.ttl = ttl
	}
}

// New creates a Redis policy source.
func New(addr string, password string, db int, opts ...Option) *Source {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a source from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Source {
	s := &Source{
		client: client,
		prefix: "titrate:",
		key:    "policy",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key is the full Redis key holding the policy document.
func (s *Source) Key() string {
	return s.prefix + s.key
}

func (s *Source) revisionKey() string {
	return s.Key() + ":revision"
}

// Load fetches and prepares the stored policy.
func (s *Source) Load(ctx context.Context) (*policy.Policy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, s.Key()).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("%w: redis key %s", policy.ErrPolicyNotFound, s.Key())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read policy from redis: %w", err)
	}
	p, err := policy.Parse(data, policy.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("redis key %s: %w", s.Key(), err)
	}
	return p, nil
}

// Publish validates p and stores it, replacing the previous policy.
// An invalid policy is refused and the stored one is left untouched.
func (s *Source) Publish(ctx context.Context, p *policy.Policy) error {
	if p == nil {
		return fmt.Errorf("publish: %w", policy.ErrMissingThreshold)
	}
	prepared, err := policy.Prepare(*p)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	data, err := policy.Marshal(prepared, policy.FormatJSON)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Set(ctx, s.Key(), data, s.ttl)
		pipe.Incr(ctx, s.revisionKey())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish policy: %w", err)
	}
	return nil
}

// Revision returns how many times a policy was published, 0 if never.
func (s *Source) Revision(ctx context.Context) (int64, error) {
	n, err := s.client.Get(ctx, s.revisionKey()).Int64()
	if errors.Is(err, backend.Nil) {
		return 0, nil
	}
	return n, err
}

// Close releases the underlying client.
func (s *Source) Close() error {
	return s.client.Close()
}
