package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Codec loads downloaded audio parts and exports the assembled result.
// Format names follow file extensions ("mp3", "wav").
type Codec interface {
	Decode(ctx context.Context, path string) (*Segment, error)
	Encode(ctx context.Context, seg *Segment, path string, format string) error
}

// WAVCodec handles WAV files natively, without external tooling.
type WAVCodec struct{}

// Decode reads a WAV file into a segment.
func (WAVCodec) Decode(_ context.Context, path string) (*Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	seg, err := DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return seg, nil
}

// Encode writes a segment to path as WAV.
func (WAVCodec) Encode(_ context.Context, seg *Segment, path string, format string) error {
	if format != "wav" {
		return fmt.Errorf("wav codec cannot export format %q", format)
	}
	data, err := EncodeWAV(seg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// FormatFromPath derives the codec format from a file extension.
func FormatFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
