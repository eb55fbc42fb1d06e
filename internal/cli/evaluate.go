package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/titrate/internal/dto"
	"github.com/aretw0/titrate/internal/presentation/graph"
	"github.com/aretw0/titrate/internal/presentation/tui"
	"github.com/aretw0/titrate/internal/validator"
	"github.com/aretw0/titrate/pkg/domain"
)

// EvaluateOptions configures the 'evaluate' command.
type EvaluateOptions struct {
	Options

	// InputPath is a JSON request file ("-" for stdin). When set it
	// replaces Request.
	InputPath string
	Request   dto.EvaluateRequest

	JSON bool
	Out  io.Writer
	In   io.Reader
}

// Evaluate runs one evaluation and prints the result.
func Evaluate(ctx context.Context, opts EvaluateOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	eval, err := runEvaluation(ctx, opts)
	if err != nil {
		return err
	}
	return printEvaluation(opts.Out, eval, opts.JSON)
}

// Graph prints the evaluation state machine as Mermaid. When a request is
// given, the states it visits are highlighted.
func Graph(ctx context.Context, opts EvaluateOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	var overlay *graph.Overlay
	if opts.InputPath != "" || len(opts.Request.Doses) > 0 {
		eval, err := runEvaluation(ctx, opts)
		if err != nil {
			return err
		}
		overlay = graph.OverlayFor(eval)
	}
	_, err := io.WriteString(opts.Out, graph.GenerateMermaid(overlay))
	return err
}

func runEvaluation(ctx context.Context, opts EvaluateOptions) (*domain.Evaluation, error) {
	logger, err := opts.NewLogger()
	if err != nil {
		return nil, err
	}

	req := opts.Request
	if opts.InputPath != "" {
		if req, err = readRequest(opts.InputPath, opts.In); err != nil {
			return nil, err
		}
	}

	src, closeSource, err := opts.openSource()
	if err != nil {
		return nil, err
	}
	defer closeSource()

	engine, err := createEngine(ctx, opts.Options, src, logger, debugHooks(logger))
	if err != nil {
		return nil, err
	}

	doses, err := req.DoseState()
	if err != nil {
		return nil, err
	}
	eval, err := engine.Run(ctx, doses, req.Signals)
	if err != nil {
		return nil, fmt.Errorf("evaluation rejected: %w", err)
	}
	return eval, nil
}

// readRequest loads a request file and checks it against the API schema.
func readRequest(path string, stdin io.Reader) (dto.EvaluateRequest, error) {
	var req dto.EvaluateRequest

	var raw []byte
	var err error
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return req, fmt.Errorf("failed to read input: %w", err)
	}

	v, err := validator.New()
	if err != nil {
		return req, err
	}
	if err := v.ValidateEvaluate(raw); err != nil {
		return req, err
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("failed to decode input: %w", err)
	}
	return req, nil
}

func printEvaluation(w io.Writer, eval *domain.Evaluation, asJSON bool) error {
	if !asJSON {
		return tui.PrintEvaluation(w, eval)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(eval)
}
