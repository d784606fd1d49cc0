package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/allenbenz/cargo-testify/internal/config"
	"github.com/allenbenz/cargo-testify/internal/coordinator"
	"github.com/allenbenz/cargo-testify/internal/debounce"
	"github.com/allenbenz/cargo-testify/internal/filter"
	"github.com/allenbenz/cargo-testify/internal/metrics"
	"github.com/allenbenz/cargo-testify/internal/notify"
	"github.com/allenbenz/cargo-testify/internal/report"
	"github.com/allenbenz/cargo-testify/internal/runner"
	"github.com/allenbenz/cargo-testify/internal/transport/channel"
	"github.com/allenbenz/cargo-testify/internal/watch"
)

// runnerAdapter adapts internal/runner.Runner to the coordinator.Runner interface.
type runnerAdapter struct {
	runner *runner.Runner
}

func (a *runnerAdapter) Start(ctx context.Context) (coordinator.Handle, error) {
	handle, err := a.runner.Start(ctx)
	if err != nil {
		return nil, err
	}
	return handle, nil
}

// emitTimeout bounds the watcher when the event bus saturates; the source is
// bursty and duplicated, so dropping under sustained overflow is safe.
const emitTimeout = 250 * time.Millisecond

// Build-time variables set via -ldflags
var (
	version = "dev"
	commit  = "unknown"
)

const (
	exitSuccess       = 0
	exitRuntimeError  = 1
	exitInvalidConfig = 2
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitRuntimeError)
	}

	cmd := os.Args[1]

	switch cmd {
	case "watch":
		os.Exit(runWatch())
	case "validate":
		os.Exit(runValidate())
	case "config":
		os.Exit(runConfig())
	case "version":
		os.Exit(runVersion())
	case "--help", "-h", "help":
		printUsage()
		os.Exit(exitSuccess)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(exitRuntimeError)
	}
}

func printUsage() {
	fmt.Println(`cargo-testify - watch a project, run its tests, get notified

Usage:
  cargo-testify <command>

Commands:
  watch      Watch the project and run tests on change
  validate   Validate configuration (no watchers started)
  config     Print effective configuration as JSON
  version    Print version information

Environment Variables:
  PROJECT_DIR           Project root to watch (default: ".")
  TEST_CMD              Test command to run (default: "cargo test")
  IGNORE_PATTERNS       Comma-separated ignore globs, added to the defaults
  QUIET_PERIOD          Quiet period before a run triggers (default: "750ms")
  GRACE_PERIOD          Grace before a cancelled run is killed (default: "5s")
  INITIAL_RUN           Run tests once at startup (default: "true")
  NOTIFY_BACKEND        auto|notify-send|osascript|powershell|console (default: "auto")

  EVENTBUS_BUFFER_SIZE  Change-event buffer size (default: "256")

  METRICS_ENABLED       Enable Prometheus metrics (default: "false")
  METRICS_PATH          Metrics endpoint path (default: "/metrics")
  METRICS_PORT          Metrics server port (default: "9090")

A cargo-testify.toml in the project root may set test_command, quiet_period,
grace_period, initial_run, notify_backend, ignore and [patterns] sets; the
environment overrides the file.`)
}

func runWatch() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitInvalidConfig
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitInvalidConfig
	}

	filt, err := filter.New(cfg.IgnorePatterns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitInvalidConfig
	}

	classifier, err := report.New(cfg.SummaryPatterns, cfg.ErrorPatterns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitInvalidConfig
	}

	sender, err := notify.ForBackend(cfg.NotifyBackend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitInvalidConfig
	}
	notifier := notify.New(sender)

	// Initialize metrics sink (optional)
	var metricsSink *metrics.PrometheusSink
	var metricsServer *http.Server

	if cfg.MetricsEnabled {
		metricsSink = metrics.NewPrometheusSink(prometheus.DefaultRegisterer)
		log.Printf("cargo-testify: metrics enabled (port=%s, path=%s)", cfg.MetricsPort, cfg.MetricsPath)

		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.MetricsPath, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:    ":" + cfg.MetricsPort,
			Handler: metricsMux,
		}
		go func() {
			log.Printf("cargo-testify: metrics server listening on :%s", cfg.MetricsPort)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("cargo-testify: metrics server error: %v", err)
			}
		}()

		notifier = notifier.WithMetrics(metricsSink)
	}

	// Create event bus with optional metrics
	busOpts := []channel.Option{channel.WithEmitTimeout(emitTimeout)}
	if metricsSink != nil {
		busOpts = append(busOpts, channel.WithMetrics(metricsSink))
	}
	bus := channel.NewEventBus(cfg.EventBusBufferSize, busOpts...)

	watcher, err := watch.New(cfg.ProjectDir, filt, bus)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start watcher: %v\n", err)
		return exitRuntimeError
	}
	defer watcher.Close()

	deb := debounce.New(debounce.Config{QuietPeriod: cfg.QuietPeriod})

	testRunner := runner.New(cfg.Command(), cfg.ProjectDir).WithEcho(os.Stdout, os.Stderr)

	coord := coordinator.New(
		coordinator.Config{
			GracePeriod: cfg.GracePeriod,
			InitialRun:  cfg.InitialRun,
		},
		&runnerAdapter{runner: testRunner},
		classifier,
		notifier,
	)

	if metricsSink != nil {
		watcher = watcher.WithMetrics(metricsSink)
		deb = deb.WithMetrics(metricsSink)
		coord = coord.WithMetrics(metricsSink)
	}

	// Use separate contexts for watcher, debouncer, and coordinator to enable
	// ordered shutdown.
	watcherCtx, cancelWatcher := context.WithCancel(context.Background())
	debounceCtx, cancelDebounce := context.WithCancel(context.Background())
	coordCtx, cancelCoord := context.WithCancel(context.Background())

	var watcherWg sync.WaitGroup
	var debounceWg sync.WaitGroup
	var coordWg sync.WaitGroup

	watcherWg.Add(1)
	go func() {
		defer watcherWg.Done()
		watcher.Run(watcherCtx)
	}()

	debounceWg.Add(1)
	go func() {
		defer debounceWg.Done()
		deb.Run(debounceCtx, bus.Channel())
	}()

	coordWg.Add(1)
	go func() {
		defer coordWg.Done()
		coord.Run(coordCtx, deb.Triggers())
	}()

	log.Printf("cargo-testify: started (project=%s, cmd=%q, quiet=%s)",
		cfg.ProjectDir, cfg.TestCmd, cfg.QuietPeriod)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig

	log.Printf("cargo-testify: received signal %v, shutting down", received)

	// Phase 1: Stop the watcher (no new change events observed)
	log.Println("cargo-testify: stopping watcher...")
	cancelWatcher()
	watcherWg.Wait()
	log.Println("cargo-testify: watcher stopped")

	// Phase 2: Stop the debouncer (no new triggers emitted)
	log.Println("cargo-testify: stopping debouncer...")
	cancelDebounce()
	debounceWg.Wait()
	log.Println("cargo-testify: debouncer stopped")

	// Phase 3: Stop the coordinator (terminates any active run within grace)
	log.Println("cargo-testify: stopping coordinator...")
	cancelCoord()
	coordWg.Wait()
	log.Println("cargo-testify: coordinator stopped")

	// Phase 4: Stop the metrics server if running
	if metricsServer != nil {
		log.Println("cargo-testify: stopping metrics server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("cargo-testify: metrics server shutdown error: %v", err)
		}
		log.Println("cargo-testify: metrics server stopped")
	}

	log.Println("cargo-testify: stopped")
	return exitSuccess
}

func runValidate() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitInvalidConfig
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitInvalidConfig
	}

	fmt.Println("configuration valid")
	return exitSuccess
}

func runConfig() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitInvalidConfig
	}

	data, err := cfg.JSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal config: %v\n", err)
		return exitRuntimeError
	}

	fmt.Println(string(data))
	return exitSuccess
}

func runVersion() int {
	fmt.Printf("cargo-testify version %s (commit: %s)\n", version, commit)
	return exitSuccess
}
