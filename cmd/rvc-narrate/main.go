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

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kedrpeek/Voice-RVC/internal/audio"
	"github.com/kedrpeek/Voice-RVC/internal/browser"
	"github.com/kedrpeek/Voice-RVC/internal/config"
	"github.com/kedrpeek/Voice-RVC/internal/fsutil"
	"github.com/kedrpeek/Voice-RVC/internal/metrics"
	"github.com/kedrpeek/Voice-RVC/internal/pipeline"
	"github.com/kedrpeek/Voice-RVC/internal/text"
)

const (
	toolName    = "rvc-narrate"
	toolVersion = "1.0.0"

	// Grace delay before driving the UI, so the operator can bring the
	// RVC window to the front.
	startupGrace = 3 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	// Best effort; a missing .env file is fine.
	_ = godotenv.Load()

	input := flag.String("input", "input.txt", "Path to input text file")
	out := flag.String("out", "", "Destination output audio file (required)")
	format := flag.String("format", "mp3", "Audio format to download and merge (mp3 or wav)")
	chunkSize := flag.Int("chunk-size", 1000, "Approximate characters per chunk (sentence aligned)")
	maxWait := flag.Int("max-wait", 120, "Seconds to wait for each download")
	quiet := flag.Bool("quiet", false, "Suppress progress logging")
	configPath := flag.String("config", "", "Path to optional YAML configuration file")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
	flag.Parse()

	if *out == "" {
		fmt.Fprintln(os.Stderr, "missing required flag: -out")
		flag.Usage()
		return 2
	}
	if *format != "mp3" && *format != "wav" {
		fmt.Fprintf(os.Stderr, "unsupported format %q: must be mp3 or wav\n", *format)
		return 2
	}
	if *chunkSize < 1 {
		fmt.Fprintf(os.Stderr, "chunk-size must be positive, got %d\n", *chunkSize)
		return 2
	}
	if *maxWait < 1 {
		fmt.Fprintf(os.Stderr, "max-wait must be at least 1 second, got %d\n", *maxWait)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	cfg.Timeouts.Download = *maxWait
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if *quiet {
		cfg.Logging.Level = "warn"
	}

	logger := initLogger(cfg.Logging).With(slog.String("run_id", uuid.NewString()[:8]))
	logger.Info("Starting narration run",
		slog.String("tool", toolName),
		slog.String("version", toolVersion),
		slog.String("input", *input),
		slog.String("output", *out),
		slog.String("format", *format),
		slog.Int("chunk_size", *chunkSize),
		slog.String("debugger_addr", cfg.Browser.DebuggerAddr),
		slog.String("page_url", cfg.Browser.PageURL),
	)

	raw, err := os.ReadFile(*input)
	if err != nil {
		logger.Error("Failed to read input file", slog.String("path", *input), slog.String("error", err.Error()))
		return 1
	}
	chunks := text.Split(string(raw), *chunkSize)
	if len(chunks) == 0 {
		logger.Error("Input file contains no text", slog.String("path", *input))
		return 1
	}
	logger.Info("Split input into chunks", slog.Int("chunks", len(chunks)))

	var codec audio.Codec = audio.WAVCodec{}
	if *format == "mp3" {
		ffmpeg := audio.NewFFmpegCodec()
		if err := ffmpeg.Available(); err != nil {
			logger.Error("Cannot produce mp3 output", slog.String("error", err.Error()))
			return 1
		}
		codec = ffmpeg
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	appMetrics := metrics.New(registry)
	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr, registry, logger)
	}

	logger.Info("Waiting before driving the browser; switch to the RVC window if needed",
		slog.Duration("grace", startupGrace))
	select {
	case <-time.After(startupGrace):
	case <-ctx.Done():
		logger.Error("Interrupted before start")
		return 1
	}

	session, err := browser.Connect(ctx, browser.SessionConfig{
		DebuggerAddr: cfg.Browser.DebuggerAddr,
		PageURL:      cfg.Browser.PageURL,
	}, cfg.Timeouts.GetPollInterval(), logger, appMetrics)
	if err != nil {
		logger.Error("Failed to connect to browser", slog.String("error", err.Error()))
		return 1
	}

	orchestrator := pipeline.New(session, pipelineConfig(cfg, *format), logger, appMetrics)

	start := time.Now()
	partsDir, err := orchestrator.Run(ctx, chunks)
	if err != nil {
		logger.Error("Narration run failed", slog.String("error", err.Error()))
		return 1
	}

	assembler := audio.NewAssembler(codec, logger)
	if err := assembler.Concatenate(ctx, partsDir, *out); err != nil {
		logger.Error("Failed to assemble output", slog.String("error", err.Error()))
		return 1
	}
	appMetrics.RecordPartsAssembled(len(chunks))
	appMetrics.RecordRunDuration(time.Since(start).Seconds())

	// Cleanup failure never masks a successful conversion.
	fsutil.RemoveAllForce(partsDir, fsutil.DefaultRemoveAttempts, fsutil.DefaultRemoveBackoff, logger)

	logger.Info("Narration complete",
		slog.String("output", *out),
		slog.Int("chunks", len(chunks)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return 0
}

// pipelineConfig maps the loaded configuration onto the orchestrator's
// config.
func pipelineConfig(cfg *config.Config, format string) pipeline.Config {
	signals := make([]pipeline.Signal, len(cfg.Selectors.Signals))
	for i, sig := range cfg.Selectors.Signals {
		signals[i] = pipeline.Signal{Selector: sig.Selector, Attribute: sig.Attribute}
	}
	return pipeline.Config{
		Selectors: pipeline.Selectors{
			TextInput:      cfg.Selectors.TextInput,
			GenerateButton: cfg.Selectors.GenerateButton,
			DownloadButton: cfg.Selectors.DownloadButton,
			Signals:        signals,
		},
		Timeouts: pipeline.Timeouts{
			Generation:      cfg.Timeouts.GetGenerationTimeout(),
			DownloadControl: cfg.Timeouts.GetDownloadControlTimeout(),
			Download:        cfg.Timeouts.GetDownloadTimeout(),
			PollInterval:    cfg.Timeouts.GetPollInterval(),
		},
		Format: format,
	}
}

// serveMetrics exposes the run's Prometheus metrics while the pipeline is in
// flight; useful when narrating a whole book.
func serveMetrics(addr string, registry *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	logger.Info("Serving metrics", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("Metrics endpoint stopped", slog.String("error", err.Error()))
	}
}

// initLogger creates the structured logger based on configuration.
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stdout":
		output = os.Stdout
	case "stderr", "":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stderr\n", cfg.Output, err)
			output = os.Stderr
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
