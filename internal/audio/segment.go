package audio

import (
	"fmt"
	"time"
)

// Segment is an in-memory run of mono 16-bit PCM audio.
type Segment struct {
	SampleRate int
	Samples    []int16
}

// Empty reports whether the segment holds no audio.
func (s *Segment) Empty() bool {
	return len(s.Samples) == 0
}

// Duration returns the playback length of the segment.
func (s *Segment) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(s.Samples)) / float64(s.SampleRate) * float64(time.Second))
}

// Append concatenates other onto s. An empty segment adopts the sample rate
// of the first appended part; after that, rates must match exactly — the
// parts all come from the same generator, so a mismatch means a corrupted
// download rather than something to resample over.
func (s *Segment) Append(other *Segment) error {
	if other == nil || other.Empty() {
		return fmt.Errorf("cannot append empty audio segment")
	}
	if s.Empty() {
		s.SampleRate = other.SampleRate
	} else if s.SampleRate != other.SampleRate {
		return fmt.Errorf("sample rate mismatch: segment has %d Hz, part has %d Hz",
			s.SampleRate, other.SampleRate)
	}
	s.Samples = append(s.Samples, other.Samples...)
	return nil
}
