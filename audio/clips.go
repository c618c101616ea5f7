package audio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/maastricht-university/pasat-pipeline/scoring"
)

type Clip struct {
	Index   int
	Path    string
	StartMs int
	EndMs   int
}

// ClipExtractor writes one padded wav clip per speech interval.
type ClipExtractor struct {
	Dir       string
	PaddingMs int
}

func ClipPath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("chunk%d.wav", index))
}

// Bounds returns the padded clip range for an interval, kept inside the
// recording.
func (e ClipExtractor) Bounds(iv scoring.SpeechInterval, durationMs int) (int, int) {
	start := int(iv.Start*1000+0.5) - e.PaddingMs
	end := int(iv.End*1000+0.5) + e.PaddingMs
	if start < 0 {
		start = 0
	}
	if end > durationMs {
		end = durationMs
	}
	if end < start {
		end = start
	}
	return start, end
}

func (e ClipExtractor) Extract(rec *Recording, intervals []scoring.SpeechInterval) ([]Clip, error) {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return nil, err
	}
	dur := rec.DurationMs()
	clips := make([]Clip, 0, len(intervals))
	for _, iv := range intervals {
		start, end := e.Bounds(iv, dur)
		c := Clip{Index: iv.SourceIndex, Path: ClipPath(e.Dir, iv.SourceIndex), StartMs: start, EndMs: end}
		if err := rec.Slice(start, end).WriteWAV(c.Path); err != nil {
			return nil, fmt.Errorf("clip %d: %w", iv.SourceIndex, err)
		}
		clips = append(clips, c)
	}
	return clips, nil
}
