package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/draftops/refinery/pkg/config"
	"github.com/draftops/refinery/pkg/domain"
	"github.com/draftops/refinery/pkg/health"
	"github.com/draftops/refinery/pkg/observability"
	"github.com/draftops/refinery/pkg/orchestrator"
	"github.com/draftops/refinery/pkg/verify"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"

	telemetry *observability.Telemetry
	metrics   *observability.Metrics
	tracer    trace.Tracer
)

func main() {
	var (
		configPath = flag.String("config", "configs/default.yaml", "Path to configuration file")
		version    = flag.Bool("version", false, "Show version information")
		docPath    = flag.String("doc", "", "Path to a document snapshot (JSON)")
		execute    = flag.Bool("execute", false, "Execute the created plan")
		healthLog  = flag.String("health-log", "", "Path to the health history file (YAML)")
		verifyPath = flag.String("verify", "", "Path to a text file to scan for references")
		evidence   = flag.String("evidence", "", "Path to tool-call evidence records (JSON)")
	)
	flag.Parse()

	if *version {
		fmt.Printf("Refinery\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	cfg := config.LoadOrDefault(*configPath)

	ctx := context.Background()
	if err := initObservability(ctx, cfg); err != nil {
		log.Fatalf("Failed to initialize observability: %v", err)
	}
	defer shutdownObservability(ctx)

	ctx, span := tracer.Start(ctx, "main",
		trace.WithAttributes(
			attribute.String("version", Version),
		),
	)
	defer span.End()

	log.Printf("Starting Refinery v%s (built: %s)", Version, BuildTime)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	if err := run(ctx, cfg, *docPath, *execute, *healthLog, *verifyPath, *evidence); err != nil {
		span.RecordError(err)
		log.Fatalf("Application failed: %v", err)
	}
}

func initObservability(ctx context.Context, cfg *config.Config) error {
	telConfig := &observability.TelemetryConfig{
		ServiceName:    "refinery",
		ServiceVersion: Version,
		Environment:    getEnvironment(),
		OTLPEndpoint:   cfg.Observability.Tracing.Endpoint,
		PrometheusPort: cfg.Observability.Metrics.Port,
		SamplingRate:   cfg.Observability.Tracing.SamplingRate,
		EnableTracing:  cfg.Observability.Tracing.Enabled,
		EnableMetrics:  cfg.Observability.Metrics.Enabled,
	}

	var err error
	telemetry, err = observability.NewTelemetry(telConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	tracer = telemetry.Tracer()

	if cfg.Observability.Metrics.Enabled {
		metrics, err = observability.NewMetrics(telemetry.Meter())
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	return nil
}

func shutdownObservability(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}
}

func run(ctx context.Context, cfg *config.Config, docPath string, execute bool, healthLog, verifyPath, evidencePath string) error {
	if verifyPath != "" {
		return runVerification(ctx, cfg, verifyPath, evidencePath, docPath)
	}
	if docPath == "" {
		return fmt.Errorf("no document snapshot provided (use -doc)")
	}

	doc, err := loadDocument(docPath)
	if err != nil {
		return err
	}

	monitor := health.NewMonitor(cfg, metrics)
	if healthLog != "" {
		if _, statErr := os.Stat(healthLog); statErr == nil {
			if err := monitor.LoadHistory(healthLog); err != nil {
				return err
			}
		}
	}

	blocking := 0
	for _, stub := range doc.Stubs {
		if stub.Form == domain.StubFormBlocking {
			blocking++
		}
	}
	snapshot := monitor.RecordSnapshot(ctx, doc.Path, doc.Refinement, len(doc.Stubs), blocking, doc.Audience)
	fmt.Printf("Health: %.2f (refinement %.2f, %d stubs, margin %+.2f)\n",
		snapshot.Health, snapshot.Refinement, snapshot.StubCount, snapshot.UsefulnessMargin)

	if trend, ok := monitor.AnalyzeTrend(doc.Path); ok {
		fmt.Printf("Trend: %s (slope %+.4f/day, confidence %.2f over %d snapshots)\n",
			trend.Direction, trend.Slope, trend.Confidence, trend.SnapshotCount)
	}
	if forecast, ok := monitor.ForecastDaysToTarget(doc.Path); ok && forecast.Gap > 0 {
		fmt.Printf("Target %.2f: gap %.2f", forecast.TargetRefinement, forecast.Gap)
		if forecast.EstimatedDays > 0 {
			fmt.Printf(", about %d days at current velocity", forecast.EstimatedDays)
		}
		fmt.Println()
		for _, risk := range forecast.Risks {
			fmt.Printf("  risk: %s\n", risk)
		}
	}

	orch := orchestrator.New(cfg, loggingExecutor(), nil, telemetry, metrics)
	plan, err := orch.CreatePlan(ctx, doc)
	if err != nil {
		return err
	}

	fmt.Printf("\nPlan %s: %d tasks, %d estimated sessions (confidence %.2f)\n",
		plan.ID, len(plan.Tasks), plan.Forecast.EstimatedSessions, plan.Forecast.Confidence)
	for _, taskID := range plan.ExecutionOrder {
		assignment := plan.Assignments[taskID]
		for _, task := range plan.Tasks {
			if task.ID == taskID {
				marker := " "
				if task.Blocking {
					marker = "!"
				}
				fmt.Printf("  %s [%s/%s] %.2f %s\n",
					marker, assignment.VectorFamily, assignment.Tier, task.PriorityScore, task.Description)
				break
			}
		}
	}
	for _, risk := range plan.Forecast.Risks {
		fmt.Printf("  risk: %s\n", risk)
	}

	if execute {
		result, err := orch.ExecuteWithMonitoring(ctx, plan.ID, func(progress domain.ExecutionProgress) {
			if progress.CurrentTaskID != "" {
				fmt.Printf("  running %s (%.0f%%)\n", progress.CurrentTaskID, progress.PercentComplete*100)
			}
		})
		if err != nil {
			return err
		}
		fmt.Printf("\nResult: %s (refinement delta %+.3f, %s)\n",
			result.Summary, result.ActualRefinementDelta, result.Duration.Round(time.Millisecond))
	}

	if healthLog != "" {
		if err := monitor.SaveHistory(healthLog); err != nil {
			return err
		}
	}

	return nil
}

func runVerification(ctx context.Context, cfg *config.Config, textPath, evidencePath, docPath string) error {
	data, err := os.ReadFile(textPath)
	if err != nil {
		return fmt.Errorf("failed to read text: %w", err)
	}

	verifier := verify.NewVerifier(cfg, metrics)

	if evidencePath != "" {
		records, err := loadEvidence(evidencePath)
		if err != nil {
			return err
		}
		for _, record := range records {
			verifier.RecordToolCall(ctx, record)
		}
	}

	if docPath != "" {
		doc, err := loadDocument(docPath)
		if err != nil {
			return err
		}
		verifier.SetDocumentContext(domain.DocumentContext{
			Path:  doc.Path,
			Title: doc.Title,
		})
	}

	candidates := verify.ExtractReferences(string(data))
	verified := verifier.VerifyAll(ctx, candidates)

	for _, ref := range verified {
		badge := verify.Badge(ref)
		fmt.Printf("[%s] %s (%s, confidence %.2f)\n",
			badge.Label, ref.Reference, ref.Method, ref.Confidence)
	}

	summary := verify.Summarize(verified)
	fmt.Printf("\n%d/%d verified (%.0f%%)\n",
		summary.Verified, summary.Total, summary.VerificationRate*100)

	return nil
}

// loggingExecutor is the placeholder unit of work for CLI runs. Real task
// execution is supplied by the host application.
func loggingExecutor() domain.TaskExecutor {
	return domain.TaskExecutorFunc(func(ctx context.Context, task domain.Task, _ domain.TaskAssignment) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Printf("Task %s acknowledged: %s", task.ID, task.Description)
		return nil
	})
}

func loadDocument(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to read document snapshot: %w", err)
	}
	doc := domain.Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("failed to parse document snapshot: %w", err)
	}
	return doc, nil
}

func loadEvidence(path string) ([]domain.ToolCallRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read evidence records: %w", err)
	}
	var records []domain.ToolCallRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse evidence records: %w", err)
	}
	return records, nil
}

func getEnvironment() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	return "development"
}
