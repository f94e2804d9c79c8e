// Package audio handles decoding, ordered concatenation, and export of the
// per-chunk audio parts downloaded from the TTS web UI. WAV files are handled
// natively; other formats go through an ffmpeg-backed codec.
package audio
