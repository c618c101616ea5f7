package audio

import (
	"math"

	"github.com/maastricht-university/pasat-pipeline/scoring"
)

type DetectParams struct {
	// SilenceThresholdDB is the loudest level, in dBFS, still counted as silence.
	SilenceThresholdDB float64
	// MinSilenceMs is the shortest pause that separates two responses.
	MinSilenceMs int
	SeekStepMs   int
}

// DetectSilence returns the silent ranges, in ms. A window of MinSilenceMs is
// silent when its RMS level is at or below the threshold; overlapping silent
// windows are joined.
func DetectSilence(rec *Recording, p DetectParams) [][2]int {
	segLen := rec.DurationMs()
	if p.MinSilenceMs <= 0 || segLen < p.MinSilenceMs {
		return nil
	}
	step := p.SeekStepMs
	if step <= 0 {
		step = 1
	}
	thresh := math.Pow(10, p.SilenceThresholdDB/20)
	energy := prefixEnergy(rec.Samples)

	lastStart := segLen - p.MinSilenceMs
	var starts []int
	check := func(i int) {
		a, b := rec.sampleAt(i), rec.sampleAt(i+p.MinSilenceMs)
		level := 0.0
		if b > a {
			level = math.Sqrt((energy[b] - energy[a]) / float64(b-a))
		}
		if level <= thresh {
			starts = append(starts, i)
		}
	}
	for i := 0; i <= lastStart; i += step {
		check(i)
	}
	if lastStart%step != 0 {
		check(lastStart)
	}
	if len(starts) == 0 {
		return nil
	}

	var ranges [][2]int
	prev := starts[0]
	cur := prev
	for _, s := range starts[1:] {
		continuous := s == prev+step
		gap := s > prev+p.MinSilenceMs
		if !continuous && gap {
			ranges = append(ranges, [2]int{cur, prev + p.MinSilenceMs})
			cur = s
		}
		prev = s
	}
	return append(ranges, [2]int{cur, prev + p.MinSilenceMs})
}

// DetectNonSilent returns the complement of DetectSilence in ascending order.
func DetectNonSilent(rec *Recording, p DetectParams) []scoring.RawInterval {
	segLen := rec.DurationMs()
	silent := DetectSilence(rec, p)
	if len(silent) == 0 {
		if segLen == 0 {
			return nil
		}
		return []scoring.RawInterval{{StartMs: 0, EndMs: segLen}}
	}
	if silent[0][0] == 0 && silent[0][1] == segLen {
		return nil
	}

	var out []scoring.RawInterval
	prevEnd := 0
	for _, s := range silent {
		if s[0] > prevEnd {
			out = append(out, scoring.RawInterval{StartMs: prevEnd, EndMs: s[0]})
		}
		prevEnd = s[1]
	}
	if prevEnd < segLen {
		out = append(out, scoring.RawInterval{StartMs: prevEnd, EndMs: segLen})
	}
	return out
}

func prefixEnergy(xs []float64) []float64 {
	out := make([]float64, len(xs)+1)
	for i, x := range xs {
		out[i+1] = out[i] + x*x
	}
	return out
}
