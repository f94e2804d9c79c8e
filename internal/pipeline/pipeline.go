package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kedrpeek/Voice-RVC/internal/metrics"
	"github.com/kedrpeek/Voice-RVC/internal/poll"
	"github.com/kedrpeek/Voice-RVC/internal/text"
	"github.com/kedrpeek/Voice-RVC/internal/watch"
)

// UIAdapter is everything the orchestrator needs from the browser session.
// All selectors are opaque identifiers supplied by configuration.
type UIAdapter interface {
	// Prepare routes downloads into downloadDir for the session.
	Prepare(ctx context.Context, downloadDir string) error
	// Locate reports whether a selector resolves to an element.
	Locate(ctx context.Context, selector string) (bool, error)
	// SetValue replaces the element's value with text.
	SetValue(ctx context.Context, selector, text string) error
	// NotifyInputChanged makes the page react as if the value was typed.
	NotifyInputChanged(ctx context.Context, selector string) error
	// Click activates the element.
	Click(ctx context.Context, selector string) error
	// GetAttribute samples an observable; absent elements yield "".
	GetAttribute(ctx context.Context, selector, name string) (string, error)
	// WaitInteractable blocks until the element can be clicked.
	WaitInteractable(ctx context.Context, selector string, ceiling time.Duration) error
	// Release detaches from the browser; called on every exit path.
	Release() error
}

// Signal is one observable whose change indicates generation completed.
type Signal struct {
	Selector  string
	Attribute string
}

// Selectors are the pre-identified interaction points of the TTS web UI.
type Selectors struct {
	TextInput      string
	GenerateButton string
	DownloadButton string
	Signals        []Signal
}

// Timeouts are the independent wait ceilings of the per-chunk cycle.
// Generation latency and download latency have unrelated distributions, so
// each stage carries its own ceiling.
type Timeouts struct {
	Generation      time.Duration
	DownloadControl time.Duration
	Download        time.Duration
	PollInterval    time.Duration
}

// Config drives one orchestration run.
type Config struct {
	Selectors Selectors
	Timeouts  Timeouts
	// Format is the artifact extension used when renaming downloads.
	Format string
	// WorkDir is where the run-scoped parts directory is created.
	// Defaults to the current directory.
	WorkDir string
}

// Orchestrator runs the full chunk cycle against the web UI, one chunk at a
// time, and owns the parts directory for the duration of the run.
type Orchestrator struct {
	ui      UIAdapter
	cfg     Config
	waiter  poll.Waiter
	watcher *watch.Watcher
	clock   poll.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates an orchestrator. The adapter is owned by the orchestrator from
// this point on and released when Run returns.
func New(ui UIAdapter, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		ui:      ui,
		cfg:     cfg,
		waiter:  poll.NewWaiter(cfg.Timeouts.PollInterval),
		watcher: watch.NewWatcher(cfg.Timeouts.PollInterval),
		clock:   poll.SystemClock{},
		logger:  logger,
		metrics: m,
	}
}

// Run processes every chunk in order and returns the parts directory holding
// one renamed artifact per chunk. On failure the partially filled directory
// is returned alongside the error so the caller can inspect or discard it.
// The UI adapter is released on every exit path.
func (o *Orchestrator) Run(ctx context.Context, chunks []text.Chunk) (partsDir string, err error) {
	defer func() {
		if rerr := o.ui.Release(); rerr != nil {
			o.logger.Warn("Failed to release browser session", slog.String("error", rerr.Error()))
		}
	}()

	partsDir, err = o.createPartsDir()
	if err != nil {
		return "", err
	}

	if err := o.ui.Prepare(ctx, partsDir); err != nil {
		return partsDir, fmt.Errorf("failed to prepare browser session: %w", err)
	}

	// Fail before the first chunk if the input surface cannot be found;
	// selectors drift with UI versions and a clear early error beats a
	// generation timeout.
	found, err := o.ui.Locate(ctx, o.cfg.Selectors.TextInput)
	if err != nil {
		return partsDir, fmt.Errorf("failed to probe text input: %w", err)
	}
	if !found {
		return partsDir, fmt.Errorf("text input %s not found; check the configured selectors", o.cfg.Selectors.TextInput)
	}

	for _, chunk := range chunks {
		if err := o.processChunk(ctx, chunk, partsDir); err != nil {
			o.metrics.RecordChunkFailed()
			return partsDir, err
		}
		o.metrics.RecordChunkProcessed(len(chunk.Text))
	}

	o.logger.Info("All chunks generated", slog.Int("chunks", len(chunks)), slog.String("parts_dir", partsDir))
	return partsDir, nil
}

// processChunk walks one chunk through the full state cycle:
// Submitted -> AwaitingGeneration -> AwaitingDownloadControl -> Downloading
// -> Renamed.
func (o *Orchestrator) processChunk(ctx context.Context, chunk text.Chunk, partsDir string) error {
	logger := o.logger.With(slog.Int("chunk", chunk.Index))
	logger.Info("Submitting chunk", slog.Int("chars", len(chunk.Text)))

	if err := o.submit(ctx, chunk); err != nil {
		return &ChunkError{Index: chunk.Index, Stage: StageSubmit, Err: err}
	}

	if err := o.awaitGeneration(ctx, logger); err != nil {
		return &ChunkError{Index: chunk.Index, Stage: StageGeneration, Err: err}
	}

	if err := o.awaitDownloadControl(ctx, logger); err != nil {
		return &ChunkError{Index: chunk.Index, Stage: StageDownloadControl, Err: err}
	}

	downloaded, err := o.download(ctx, partsDir, logger)
	if err != nil {
		return &ChunkError{Index: chunk.Index, Stage: StageDownload, Err: err}
	}

	if err := o.rename(downloaded, chunk.Index, partsDir, logger); err != nil {
		return &ChunkError{Index: chunk.Index, Stage: StageRename, Err: err}
	}

	logger.Info("Chunk completed")
	return nil
}

// submit injects the chunk text into the input surface and notifies the page
// so it reacts as if a human typed it.
func (o *Orchestrator) submit(ctx context.Context, chunk text.Chunk) error {
	if err := o.ui.SetValue(ctx, o.cfg.Selectors.TextInput, chunk.Text); err != nil {
		return fmt.Errorf("failed to set input text: %w", err)
	}
	if err := o.ui.NotifyInputChanged(ctx, o.cfg.Selectors.TextInput); err != nil {
		return fmt.Errorf("failed to notify input change: %w", err)
	}
	return nil
}

// awaitGeneration snapshots the completion signals, triggers generation, and
// polls until any signal transitions. The UI offers no completion event; a
// changed, non-empty observable is the only reliable evidence that
// generation finished.
func (o *Orchestrator) awaitGeneration(ctx context.Context, logger *slog.Logger) error {
	before := o.sampleSignals(ctx)

	if err := o.ui.Click(ctx, o.cfg.Selectors.GenerateButton); err != nil {
		return fmt.Errorf("failed to trigger generation: %w", err)
	}

	logger.Info("Waiting for audio generation")
	start := o.clock.Now()
	err := o.waiter.AnyChanged(ctx, o.cfg.Timeouts.Generation, before, o.sampleSignals)
	o.metrics.RecordGeneration(o.clock.Now().Sub(start).Seconds())

	if errors.Is(err, poll.ErrTimeout) {
		o.metrics.RecordStageTimeout(string(StageGeneration))
		return fmt.Errorf("audio generation timed out after %v", o.cfg.Timeouts.Generation)
	}
	return err
}

// awaitDownloadControl waits for the download trigger to become clickable.
// The control may only appear once generation finished, which is a second
// asynchronous gap with its own, shorter ceiling.
func (o *Orchestrator) awaitDownloadControl(ctx context.Context, logger *slog.Logger) error {
	logger.Info("Waiting for download control")
	start := o.clock.Now()
	err := o.ui.WaitInteractable(ctx, o.cfg.Selectors.DownloadButton, o.cfg.Timeouts.DownloadControl)
	o.metrics.RecordDownloadControlWait(o.clock.Now().Sub(start).Seconds())

	if errors.Is(err, poll.ErrTimeout) {
		o.metrics.RecordStageTimeout(string(StageDownloadControl))
		return fmt.Errorf("download control never became interactable within %v", o.cfg.Timeouts.DownloadControl)
	}
	return err
}

// download records the files already present, clicks the download trigger,
// and waits for a new completed file to land.
func (o *Orchestrator) download(ctx context.Context, partsDir string, logger *slog.Logger) (string, error) {
	before, err := watch.ListFiles(partsDir)
	if err != nil {
		return "", err
	}

	if err := o.ui.Click(ctx, o.cfg.Selectors.DownloadButton); err != nil {
		return "", fmt.Errorf("failed to trigger download: %w", err)
	}

	logger.Info("Waiting for download")
	start := o.clock.Now()
	path, err := o.watcher.AwaitNewFile(ctx, partsDir, before, o.cfg.Timeouts.Download)
	o.metrics.RecordDownload(o.clock.Now().Sub(start).Seconds())

	if errors.Is(err, poll.ErrTimeout) {
		o.metrics.RecordStageTimeout(string(StageDownload))
		return "", fmt.Errorf("download did not complete within %v", o.cfg.Timeouts.Download)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// rename moves the downloaded file to its ordered artifact name. The
// zero-padded index makes lexicographic order equal chunk order, which is
// what the assembler relies on; a rename failure would corrupt ordering and
// is fatal.
func (o *Orchestrator) rename(downloaded string, index int, partsDir string, logger *slog.Logger) error {
	target := filepath.Join(partsDir, fmt.Sprintf("part_%04d.%s", index, o.cfg.Format))
	if err := os.Rename(downloaded, target); err != nil {
		return fmt.Errorf("failed to rename %s: %w", filepath.Base(downloaded), err)
	}
	logger.Info("Stored audio part", slog.String("file", filepath.Base(target)))
	return nil
}

// sampleSignals reads every tracked observable. Sampling failures (element
// transiently absent, page mid-update) yield "" and count as no signal yet.
func (o *Orchestrator) sampleSignals(ctx context.Context) []string {
	values := make([]string, len(o.cfg.Selectors.Signals))
	for i, sig := range o.cfg.Selectors.Signals {
		value, err := o.ui.GetAttribute(ctx, sig.Selector, sig.Attribute)
		if err != nil {
			continue
		}
		values[i] = value
	}
	return values
}

// createPartsDir creates the run-scoped directory the ordered artifacts are
// collected in.
func (o *Orchestrator) createPartsDir() (string, error) {
	workDir := o.cfg.WorkDir
	if workDir == "" {
		workDir = "."
	}
	name := fmt.Sprintf("rvc_parts_%s_%s",
		time.Now().Format("20060102_150405"), uuid.NewString()[:8])
	dir := filepath.Join(workDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create parts directory %s: %w", dir, err)
	}
	return dir, nil
}
