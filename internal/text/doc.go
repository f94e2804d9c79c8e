// Package text splits source documents into bounded, sentence-aligned chunks
// suitable for submission to the TTS web UI one request at a time.
package text
