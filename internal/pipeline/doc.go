// Package pipeline orchestrates the per-chunk generation cycle against the
// TTS web UI: submit text, await generation by watching completion signals,
// trigger the download, await the file, and rename it into chunk order.
// Chunks are processed strictly sequentially; the UI has one shared input
// surface, so overlapping chunks would make the completion signals
// ambiguous.
package pipeline
