// Remedyd turns incident tickets into proposed remediation playbooks.
//
// The daemon polls a ticketing backend for the most recent incident filed
// by a configured reporter. If a playbook in the reference catalog already
// addresses it, the ticket is pointed at that playbook; otherwise a new
// playbook is drafted with an LLM, opened as a pull request for review, and
// the ticket is moved to "awaiting user info".
//
// Configuration comes from environment variables, optionally layered over a
// YAML file. See internal/config for details.
//
// Usage:
//
//	# Start the daemon
//	remedyd
//
//	# Start with a config file
//	remedyd -config /etc/remedyd/config.yaml
//
//	# Show version information
//	remedyd version
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/catalog"
	"github.com/fyrsmithlabs/remedyd/internal/config"
	"github.com/fyrsmithlabs/remedyd/internal/llm"
	"github.com/fyrsmithlabs/remedyd/internal/logging"
	"github.com/fyrsmithlabs/remedyd/internal/loop"
	"github.com/fyrsmithlabs/remedyd/internal/publish"
	"github.com/fyrsmithlabs/remedyd/internal/remedy"
	"github.com/fyrsmithlabs/remedyd/internal/server"
	"github.com/fyrsmithlabs/remedyd/internal/ticketing"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  remedyd            Start the daemon\n")
			fmt.Fprintf(os.Stderr, "  remedyd version    Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && err != context.Canceled {
		log.Fatalf("remedyd error: %v", err)
	}

	log.Println("Shutdown complete")
}

func printVersion() {
	fmt.Printf("remedyd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires all components and blocks until context cancellation.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("starting remedyd",
		zap.String("version", version),
		zap.String("ticketing_url", cfg.Ticketing.URL),
		zap.String("reporter", cfg.Ticketing.Reporter),
		zap.String("catalog", cfg.Catalog.RepoURL),
		zap.String("target", fmt.Sprintf("%s/%s", cfg.Publish.Owner, cfg.Publish.Repo)))

	tickets, err := ticketing.NewClient(cfg.Ticketing, logger.Named("ticketing"))
	if err != nil {
		return fmt.Errorf("failed to create ticketing client: %w", err)
	}

	completer, err := llm.NewClient(cfg.LLM, logger.Named("llm"))
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	library := catalog.NewLibrary(cfg.Catalog, logger.Named("catalog"))
	evaluator := remedy.NewEvaluator(completer, logger.Named("evaluator"))
	generator := remedy.NewGenerator(completer, logger.Named("generator"))

	requester, err := publish.NewGitHubRequester(ctx, cfg.Publish)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}
	pipeline := publish.NewPipeline(cfg.Publish, requester, logger.Named("publish"))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	workflow := loop.New(
		cfg.Loop,
		cfg.Ticketing.AwaitingStateID,
		tickets,
		tickets,
		library,
		evaluator,
		generator,
		pipeline,
		loop.NewMetrics(registry),
		logger.Named("loop"),
	)

	ops := server.New(cfg.Server, registry)

	errCh := make(chan error, 1)
	go func() {
		if err := ops.Start(ctx); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("ops server: %w", err)
		}
	}()

	go func() {
		errCh <- workflow.Run(ctx)
	}()

	return <-errCh
}
