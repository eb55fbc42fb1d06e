package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/titrate"
	"github.com/aretw0/titrate/internal/dto"
	"github.com/aretw0/titrate/pkg/domain"
	"github.com/aretw0/titrate/pkg/policy"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

const (
	policyURI = "titrate://policy"
	orderURI  = "titrate://order"
)

// Engine defines the interface required by the MCP server.
type Engine interface {
	Run(ctx context.Context, doses domain.DoseState, signals domain.ClinicalSignals) (*domain.Evaluation, error)
	Policy() policy.Policy
}

// Server wraps the titrate Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("titrate-mcp", strings.TrimSpace(titrate.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when
// ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: evaluate_titration
	evaluateTool := mcp.NewTool("evaluate_titration",
		mcp.WithDescription("Return the single next GDMT titration step for one visit. Safety triggers (hypotension, bradycardia, hyperkalemia, renal decline) are handled before any escalation."),
		mcp.WithNumber("raasi", mcp.Required(), mcp.Description("RAASi (ACEi/ARB/ARNI) dose level, 0-4")),
		mcp.WithNumber("beta_blocker", mcp.Required(), mcp.Description("Beta blocker dose level, 0-4")),
		mcp.WithNumber("mra", mcp.Required(), mcp.Description("MRA dose level, 0-4")),
		mcp.WithNumber("sglt2i", mcp.Required(), mcp.Description("SGLT2 inhibitor dose level, 0-4")),
		mcp.WithString("last_uptitrated", mcp.Description("Class most recently up-titrated, if known")),
		mcp.WithNumber("heart_rate", mcp.Description("Heart rate, beats/min")),
		mcp.WithNumber("systolic_bp", mcp.Description("Systolic blood pressure, mmHg")),
		mcp.WithNumber("potassium", mcp.Description("Serum potassium, mmol/L")),
		mcp.WithNumber("low_systolic_time_pct", mcp.Description("Percent of home readings below the hypotension cutoff")),
		mcp.WithNumber("low_heart_rate_time_pct", mcp.Description("Percent of home readings below the bradycardia cutoff")),
		mcp.WithNumber("creatinine", mcp.Description("Serum creatinine, mg/dL")),
		mcp.WithNumber("creatinine_pct_change", mcp.Description("Creatinine change from baseline, percent")),
		mcp.WithNumber("egfr", mcp.Description("eGFR, mL/min/1.73m2")),
		mcp.WithNumber("age", mcp.Description("Age in years (for eGFR estimation)")),
		mcp.WithString("sex", mcp.Description("F or M (for eGFR estimation)")),
		mcp.WithString("symptoms", mcp.Description("Comma separated: dizziness, lightheadedness, syncope, presyncope, fatigue")),
		mcp.WithOutputSchema[domain.Evaluation](),
	)
	s.mcpServer.AddTool(evaluateTool, mcp.NewStructuredToolHandler(s.handleEvaluate))

	// TOOL: get_policy
	s.mcpServer.AddTool(mcp.NewTool("get_policy",
		mcp.WithDescription("Get the active thresholds, trigger-to-class mapping and symptom lists."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.engine.Policy())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("policy encode failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// evaluateArgs mirrors the evaluate_titration input schema.
type evaluateArgs struct {
	RAASi       float64 `mapstructure:"raasi"`
	BetaBlocker float64 `mapstructure:"beta_blocker"`
	MRA         float64 `mapstructure:"mra"`
	SGLT2i      float64 `mapstructure:"sglt2i"`

	LastUptitrated string `mapstructure:"last_uptitrated"`

	HeartRate           *float64 `mapstructure:"heart_rate"`
	SystolicBP          *float64 `mapstructure:"systolic_bp"`
	Potassium           *float64 `mapstructure:"potassium"`
	LowSystolicTimePct  *float64 `mapstructure:"low_systolic_time_pct"`
	LowHeartRateTimePct *float64 `mapstructure:"low_heart_rate_time_pct"`
	Creatinine          *float64 `mapstructure:"creatinine"`
	CreatininePctChange *float64 `mapstructure:"creatinine_pct_change"`
	EGFR                *float64 `mapstructure:"egfr"`
	Age                 *float64 `mapstructure:"age"`
	Sex                 string   `mapstructure:"sex"`
	Symptoms            string   `mapstructure:"symptoms"`
}

func (a evaluateArgs) request() (dto.EvaluateRequest, error) {
	req := dto.EvaluateRequest{
		Doses:          make(map[string]int, 4),
		LastUptitrated: a.LastUptitrated,
		Signals: domain.ClinicalSignals{
			HeartRate:           a.HeartRate,
			SystolicBP:          a.SystolicBP,
			Potassium:           a.Potassium,
			LowSystolicTimePct:  a.LowSystolicTimePct,
			LowHeartRateTimePct: a.LowHeartRateTimePct,
			Creatinine:          a.Creatinine,
			CreatininePctChange: a.CreatininePctChange,
			EGFR:                a.EGFR,
			Age:                 a.Age,
			Sex:                 domain.Sex(strings.TrimSpace(a.Sex)),
		},
	}

	levels := []struct {
		class domain.MedicationClass
		value float64
	}{
		{domain.RAASi, a.RAASi},
		{domain.BetaBlocker, a.BetaBlocker},
		{domain.MRA, a.MRA},
		{domain.SGLT2i, a.SGLT2i},
	}
	for _, l := range levels {
		lvl, err := domain.LevelFromFloat(l.class, l.value)
		if err != nil {
			return req, err
		}
		req.Doses[string(l.class)] = lvl
	}

	for _, name := range strings.Split(a.Symptoms, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		sym, err := domain.ParseSymptom(name)
		if err != nil {
			return req, err
		}
		req.Signals.Symptoms = append(req.Signals.Symptoms, sym)
	}
	return req, nil
}

// Handler methods for structured tools

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.Evaluation, error) {
	var parsed evaluateArgs
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &parsed,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return domain.Evaluation{}, err
	}
	if err := decoder.Decode(args); err != nil {
		return domain.Evaluation{}, fmt.Errorf("invalid arguments: %w", err)
	}
	for _, required := range []string{"raasi", "beta_blocker", "mra", "sglt2i"} {
		if _, ok := args[required]; !ok {
			return domain.Evaluation{}, fmt.Errorf("%w: missing %s", domain.ErrIncompleteDoseState, required)
		}
	}

	req, err := parsed.request()
	if err != nil {
		return domain.Evaluation{}, err
	}
	doses, err := req.DoseState()
	if err != nil {
		return domain.Evaluation{}, err
	}

	eval, err := s.engine.Run(ctx, doses, req.Signals)
	if err != nil {
		if !domain.IsInputError(err) && !errors.Is(err, context.Canceled) {
			slog.Error("MCP Evaluate failed", "error", err)
		}
		return domain.Evaluation{}, fmt.Errorf("evaluation rejected: %w", err)
	}
	return *eval, nil
}

func (s *Server) registerResources() {
	// EXPOSE: titrate://policy
	s.mcpServer.AddResource(mcp.NewResource(policyURI, "Active Titration Policy",
		mcp.WithMIMEType("application/json"),
	), s.readPolicy)

	// EXPOSE: titrate://order
	s.mcpServer.AddResource(mcp.NewResource(orderURI, "Medication Class Order",
		mcp.WithMIMEType("application/json"),
	), s.readOrder)
}

func (s *Server) readPolicy(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(s.engine.Policy())
	if err != nil {
		return nil, fmt.Errorf("failed to encode policy: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      policyURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func (s *Server) readOrder(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(dto.NewOrderResponse())
	if err != nil {
		return nil, fmt.Errorf("failed to encode order: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      orderURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
