package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the narration pipeline.
type Metrics struct {
	// Chunk pipeline metrics
	ChunksProcessed prometheus.Counter
	ChunksFailed    prometheus.Counter
	ChunkTextLength prometheus.Histogram

	// Per-stage wait durations
	GenerationDuration      prometheus.Histogram
	DownloadControlDuration prometheus.Histogram
	DownloadDuration        prometheus.Histogram

	// Stage timeouts, labelled by stage name
	StageTimeouts *prometheus.CounterVec

	// Browser adapter metrics
	BrowserCommands prometheus.Counter
	BrowserErrors   prometheus.Counter

	// Assembly metrics
	PartsAssembled prometheus.Counter
	RunDuration    prometheus.Histogram
}

// New creates and registers all pipeline metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ChunksProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "narrate_chunks_processed_total",
			Help: "Total number of text chunks fully generated, downloaded and renamed",
		}),
		ChunksFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "narrate_chunks_failed_total",
			Help: "Total number of chunks that aborted the run",
		}),
		ChunkTextLength: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "narrate_chunk_text_length_chars",
			Help:    "Length of submitted text chunks in characters",
			Buckets: prometheus.ExponentialBuckets(64, 2, 8), // 64 chars to ~8K
		}),

		GenerationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "narrate_generation_duration_seconds",
			Help:    "Time from triggering generation to a completion signal change",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~17 minutes
		}),
		DownloadControlDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "narrate_download_control_wait_seconds",
			Help:    "Time waiting for the download control to become interactable",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~1 minute
		}),
		DownloadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "narrate_download_duration_seconds",
			Help:    "Time from clicking download to the file appearing on disk",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 9), // 0.5s to ~2 minutes
		}),

		StageTimeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "narrate_stage_timeouts_total",
			Help: "Total number of per-chunk stage timeouts",
		}, []string{"stage"}),

		BrowserCommands: factory.NewCounter(prometheus.CounterOpts{
			Name: "narrate_browser_commands_total",
			Help: "Total number of DevTools protocol commands issued",
		}),
		BrowserErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "narrate_browser_errors_total",
			Help: "Total number of failed DevTools protocol commands",
		}),

		PartsAssembled: factory.NewCounter(prometheus.CounterOpts{
			Name: "narrate_parts_assembled_total",
			Help: "Total number of audio parts concatenated into the output",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "narrate_run_duration_seconds",
			Help:    "Wall-clock duration of complete narration runs",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10s to ~3 hours
		}),
	}
}

// RecordChunkProcessed records a successfully completed chunk.
func (m *Metrics) RecordChunkProcessed(textLength int) {
	m.ChunksProcessed.Inc()
	m.ChunkTextLength.Observe(float64(textLength))
}

// RecordChunkFailed records a chunk that aborted the run.
func (m *Metrics) RecordChunkFailed() {
	m.ChunksFailed.Inc()
}

// RecordGeneration records the generation wait for one chunk.
func (m *Metrics) RecordGeneration(seconds float64) {
	m.GenerationDuration.Observe(seconds)
}

// RecordDownloadControlWait records the wait for the download control.
func (m *Metrics) RecordDownloadControlWait(seconds float64) {
	m.DownloadControlDuration.Observe(seconds)
}

// RecordDownload records the download wait for one chunk.
func (m *Metrics) RecordDownload(seconds float64) {
	m.DownloadDuration.Observe(seconds)
}

// RecordStageTimeout records a timeout in the named stage.
func (m *Metrics) RecordStageTimeout(stage string) {
	m.StageTimeouts.WithLabelValues(stage).Inc()
}

// RecordBrowserCommand records an issued DevTools command and its outcome.
func (m *Metrics) RecordBrowserCommand(failed bool) {
	m.BrowserCommands.Inc()
	if failed {
		m.BrowserErrors.Inc()
	}
}

// RecordPartsAssembled records the number of parts joined at assembly time.
func (m *Metrics) RecordPartsAssembled(count int) {
	m.PartsAssembled.Add(float64(count))
}

// RecordRunDuration records the wall-clock duration of a run.
func (m *Metrics) RecordRunDuration(seconds float64) {
	m.RunDuration.Observe(seconds)
}
