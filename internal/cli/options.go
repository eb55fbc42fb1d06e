package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/titrate/internal/logging"
	loamadapter "github.com/aretw0/titrate/pkg/adapters/loam"
	redisadapter "github.com/aretw0/titrate/pkg/adapters/redis"
	"github.com/aretw0/titrate/pkg/policy"
	"github.com/aretw0/titrate/pkg/ports"
)

// ErrNoPolicySource is returned when no policy flag is set.
var ErrNoPolicySource = errors.New("no policy source: set --policy, --policy-dir or --redis-addr")

// Options holds the flags shared by every command.
type Options struct {
	PolicyFile     string
	PolicyDir      string
	PolicyDocument string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	// Overrides are "name=value" threshold pairs applied after loading.
	Overrides []string

	LogLevel  string
	LogFormat string
}

// NewLogger builds the process logger from the log flags.
// An empty level means info.
func (o Options) NewLogger() (*slog.Logger, error) {
	level := slog.LevelInfo
	if o.LogLevel != "" {
		var err error
		if level, err = logging.ParseLevel(o.LogLevel); err != nil {
			return nil, err
		}
	}
	format, err := logging.ParseFormat(o.LogFormat)
	if err != nil {
		return nil, err
	}
	return logging.New(level, format), nil
}

// openSource resolves the policy source. Redis wins over a document
// directory, which wins over a file. The returned closer is never nil.
func (o Options) openSource() (ports.PolicySource, func() error, error) {
	noop := func() error { return nil }

	switch {
	case o.RedisAddr != "":
		src := o.redisSource()
		return src, src.Close, nil
	case o.PolicyDir != "":
		var lopts []loamadapter.Option
		if o.PolicyDocument != "" {
			lopts = append(lopts, loamadapter.WithDocument(o.PolicyDocument))
		}
		src, err := loamadapter.Open(o.PolicyDir, lopts...)
		if err != nil {
			return nil, noop, err
		}
		return src, noop, nil
	case o.PolicyFile != "":
		return policy.NewFileSource(o.PolicyFile), noop, nil
	default:
		return nil, noop, ErrNoPolicySource
	}
}

func (o Options) redisSource() *redisadapter.Source {
	var ropts []redisadapter.Option
	if o.RedisKey != "" {
		ropts = append(ropts, redisadapter.WithKey(o.RedisKey))
	}
	return redisadapter.New(o.RedisAddr, o.RedisPassword, o.RedisDB, ropts...)
}

// loadPolicy reads the policy from src and applies the threshold overrides.
func (o Options) loadPolicy(ctx context.Context, src ports.PolicySource) (*policy.Policy, error) {
	p, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	overrides, err := policy.ParseOverrides(o.Overrides)
	if err != nil {
		return nil, err
	}
	return policy.ApplyOverrides(p, overrides)
}
