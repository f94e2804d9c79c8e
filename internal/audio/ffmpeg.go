package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// FFmpegCodec decodes and encodes compressed formats by shelling out to
// ffmpeg, going through canonical WAV intermediates in a temporary directory.
type FFmpegCodec struct {
	Bin string
}

// NewFFmpegCodec creates a codec using the ffmpeg binary found on PATH.
func NewFFmpegCodec() *FFmpegCodec {
	return &FFmpegCodec{Bin: "ffmpeg"}
}

// Available verifies that the ffmpeg binary can be located.
func (c *FFmpegCodec) Available() error {
	if _, err := exec.LookPath(c.Bin); err != nil {
		return fmt.Errorf("ffmpeg not found (required for mp3 output): %w", err)
	}
	return nil
}

// Decode converts path to a mono WAV intermediate and reads it back as a
// segment.
func (c *FFmpegCodec) Decode(ctx context.Context, path string) (*Segment, error) {
	tmpDir, err := os.MkdirTemp("", "rvc_decode_")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// -bitexact keeps the WAV header canonical (44 bytes, no LIST chunk),
	// which is what DecodeWAV expects.
	tmpWAV := filepath.Join(tmpDir, "part.wav")
	args := []string{"-y", "-i", path, "-ac", "1", "-bitexact", tmpWAV}
	if out, err := exec.CommandContext(ctx, c.Bin, args...).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode of %s failed: %w: %s", path, err, out)
	}

	data, err := os.ReadFile(tmpWAV)
	if err != nil {
		return nil, fmt.Errorf("failed to read decoded audio: %w", err)
	}
	seg, err := DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse decoded audio for %s: %w", path, err)
	}
	return seg, nil
}

// Encode writes the segment to a WAV intermediate and converts it to the
// requested format at path.
func (c *FFmpegCodec) Encode(ctx context.Context, seg *Segment, path string, format string) error {
	if format == "wav" {
		return WAVCodec{}.Encode(ctx, seg, path, format)
	}

	tmpDir, err := os.MkdirTemp("", "rvc_encode_")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpWAV := filepath.Join(tmpDir, "combined.wav")
	data, err := EncodeWAV(seg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmpWAV, data, 0644); err != nil {
		return fmt.Errorf("failed to write intermediate: %w", err)
	}

	args := []string{"-y", "-i", tmpWAV, "-f", format, path}
	if out, err := exec.CommandContext(ctx, c.Bin, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg export to %s failed: %w: %s", path, err, out)
	}
	return nil
}
