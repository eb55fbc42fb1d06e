package ports

import (
	"context"

	"github.com/aretw0/titrate/pkg/policy"
)

// PolicySource defines how the engine retrieves its clinical policy.
type PolicySource interface {
	// Load returns a prepared policy. Implementations must run
	// policy.Prepare so that a policy missing its core thresholds is
	// rejected before any evaluation happens.
	Load(ctx context.Context) (*policy.Policy, error)
}

// PolicyPublisher is implemented by sources that can also be written to.
type PolicyPublisher interface {
	PolicySource
	Publish(ctx context.Context, p *policy.Policy) error
}
