package pipeline

import "fmt"

// Stage names the step of the per-chunk cycle where a failure occurred.
type Stage string

const (
	StageSubmit          Stage = "submit"
	StageGeneration      Stage = "generation"
	StageDownloadControl Stage = "download-control"
	StageDownload        Stage = "download"
	StageRename          Stage = "rename"
)

// ChunkError reports a failure processing one chunk. Any chunk failure is
// fatal to the whole run; skipping a chunk would silently corrupt the final
// narration.
type ChunkError struct {
	Index int
	Stage Stage
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d (%s): %v", e.Index, e.Stage, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}
