package scoring

import "errors"

// ErrNoSpeechDetected means the recording has no usable non-silent interval.
// It usually points at miscalibrated detector thresholds.
var ErrNoSpeechDetected = errors.New("no speech detected in recording; silence threshold or minimum silence period may need tuning")

// FilterIntervals drops the leading intervals that start at exactly 0 ms and
// converts the rest to seconds. SourceIndex is the position in the result,
// which is also the clip number used when clips are written.
func FilterIntervals(raw []RawInterval) []SpeechInterval {
	skip := 0
	for skip < len(raw) && raw[skip].StartMs == 0 {
		skip++
	}
	out := make([]SpeechInterval, 0, len(raw)-skip)
	for _, r := range raw[skip:] {
		out = append(out, SpeechInterval{
			Start:       float64(r.StartMs) / 1000.0,
			End:         float64(r.EndMs) / 1000.0,
			SourceIndex: len(out),
		})
	}
	return out
}

// Onsets returns the start time of every interval.
func Onsets(intervals []SpeechInterval) []float64 {
	out := make([]float64, len(intervals))
	for i, iv := range intervals {
		out[i] = iv.Start
	}
	return out
}
