// Command stagehand runs a declarative API workflow: ordered task
// groups of validated HTTP calls, with concurrency ramps for tasks
// marked as load tests.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"stagehand/internal/api"
	"stagehand/internal/collector"
	"stagehand/internal/config"
	"stagehand/internal/engine"
	"stagehand/internal/logging"
	"stagehand/internal/metrics"
	"stagehand/internal/progress"
	"stagehand/internal/request"
)

const (
	ExitSuccess        = 0
	ExitWorkflowFailed = 1
	ExitError          = 2
)

func main() {
	configPath := flag.String("config", "", "path to YAML workflow file (required)")
	output := flag.String("output", "text", "output format: text, json")
	quiet := flag.Bool("quiet", false, "suppress progress output during the run")
	verbose := flag.Bool("verbose", false, "enable debug output (request/response logging)")
	failFast := flag.Bool("fail-fast", false, "stop admitting new task groups after a failure")
	serve := flag.Bool("serve", false, "start the control API server instead of running once")
	addr := flag.String("addr", "", "control server listen address (overrides config)")
	printConfig := flag.Bool("print-config", false, "print the effective settings as YAML and exit")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "error: --config is required")
		flag.Usage()
		os.Exit(ExitError)
	}

	if *output != "text" && *output != "json" {
		fmt.Fprintf(os.Stderr, "error: --output must be 'text' or 'json', got %q\n", *output)
		os.Exit(ExitError)
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}
	if *failFast {
		settings.Execution.FailFast = true
	}
	if *addr != "" {
		settings.Server.Addr = *addr
	}

	if *printConfig {
		out, err := yaml.Marshal(settings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(ExitError)
		}
		os.Stdout.Write(out)
		os.Exit(ExitSuccess)
	}

	log := logging.New(settings.Log, os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	interrupted := false
	go func() {
		<-sigCh
		interrupted = true
		if !*quiet {
			fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		}
		cancel()
	}()

	if *serve {
		runServer(ctx, settings, log)
		os.Exit(ExitSuccess)
	}

	eng := engine.New(settings, log)
	if *verbose {
		eng.SetDebug(request.NewDebugLogger(os.Stderr))
	}

	coll := collector.NewCollector()
	prog := progress.NewProgress(coll, *quiet)
	prog.Printf("Stagehand starting: workflow %q, %d tasks",
		settings.Workflow.Name, len(settings.Workflow.Tasks))
	prog.Start()

	report, runErr := eng.RunWith(ctx, coll)
	prog.Stop()

	if runErr != nil && report == nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(ExitError)
	}

	if *output == "json" {
		if err := collector.FormatJSON(os.Stdout, report); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(ExitError)
		}
	} else {
		collector.FormatText(os.Stdout, report)
	}

	if interrupted {
		os.Exit(ExitSuccess)
	}
	if !report.OverallPass {
		if *output == "text" {
			fmt.Fprintln(os.Stderr, "\nWorkflow failed!")
		}
		os.Exit(ExitWorkflowFailed)
	}
	os.Exit(ExitSuccess)
}

func runServer(ctx context.Context, settings *config.Settings, log *slog.Logger) {
	var m *metrics.Manager
	if settings.Server.Metrics {
		m = metrics.NewManager()
	}

	server := api.NewServer(settings, log, m)
	httpServer := &http.Server{
		Addr:    settings.Server.Addr,
		Handler: server.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("control server listening", "addr", settings.Server.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}
}
