package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
)

// ErrNoArtifacts is returned when the parts directory contains no ordered
// audio artifacts, meaning orchestration produced nothing to assemble.
var ErrNoArtifacts = errors.New("no audio parts found to concatenate")

// ArtifactPattern matches the renamed per-chunk audio files. The zero-padded
// index makes lexicographic order equal chunk order.
const ArtifactPattern = "part_*"

// Assembler concatenates ordered audio parts into one output file.
type Assembler struct {
	codec  Codec
	logger *slog.Logger
}

// NewAssembler creates an assembler using the given codec.
func NewAssembler(codec Codec, logger *slog.Logger) *Assembler {
	return &Assembler{codec: codec, logger: logger}
}

// Concatenate loads every ordered artifact in partsDir, appends them in
// chunk-index order, and exports the combined audio to outPath in the format
// implied by its extension.
func (a *Assembler) Concatenate(ctx context.Context, partsDir, outPath string) error {
	files, err := filepath.Glob(filepath.Join(partsDir, ArtifactPattern))
	if err != nil {
		return fmt.Errorf("failed to list parts in %s: %w", partsDir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %s", ErrNoArtifacts, partsDir)
	}
	sort.Strings(files)

	combined := &Segment{}
	for _, file := range files {
		seg, err := a.codec.Decode(ctx, file)
		if err != nil {
			return fmt.Errorf("failed to decode part %s: %w", filepath.Base(file), err)
		}
		if err := combined.Append(seg); err != nil {
			return fmt.Errorf("failed to append part %s: %w", filepath.Base(file), err)
		}
		a.logger.Debug("Appended audio part",
			slog.String("file", filepath.Base(file)),
			slog.Duration("part_duration", seg.Duration()),
			slog.Duration("total_duration", combined.Duration()),
		)
	}

	format := FormatFromPath(outPath)
	if format == "" {
		return fmt.Errorf("cannot infer audio format from output path %s", outPath)
	}
	if err := a.codec.Encode(ctx, combined, outPath, format); err != nil {
		return fmt.Errorf("failed to export %s: %w", outPath, err)
	}

	a.logger.Info("Wrote final audio",
		slog.String("output", outPath),
		slog.Int("parts", len(files)),
		slog.Duration("duration", combined.Duration()),
	)
	return nil
}
