package scoring

import (
	"fmt"
	"math"
	"sort"
)

// Amend re-matches the stimuli whose clip is listed in removeClips, without
// those clips and without touching any other row. The open intervals for a
// re-matched stimulus are rebuilt from the table: after the last clip used by
// an earlier row and before the first clip used by a later row. Rows are
// handled in stimulus order so one amended row bounds the next.
//
// A re-matched stimulus reports NoIntervalAfter when nothing left open lies
// after it, even if later intervals are held by later rows.
//
// onsets holds the start time of every interval in the original filtered
// list; rows must be aligned with stimuli.
func Amend(stimuli []Stimulus, rows []ScoredResponse, onsets []float64, removeClips []int, p MatchParams) ([]Match, error) {
	if len(rows) != len(stimuli) {
		return nil, fmt.Errorf("amend: %d result rows for %d stimuli", len(rows), len(stimuli))
	}
	removed := make(map[int]bool, len(removeClips))
	for _, c := range removeClips {
		if c < 0 || c >= len(onsets) {
			return nil, fmt.Errorf("amend: clip %d out of range [0,%d)", c, len(onsets))
		}
		removed[c] = true
	}

	clips := make([]int, len(rows))
	rts := make([]float64, len(rows))
	var targets []int
	for i, r := range rows {
		clips[i] = r.ClipIndex
		rts[i] = r.ReactionTime
		if r.ClipIndex != NoClip && removed[r.ClipIndex] {
			targets = append(targets, i)
		}
	}
	sort.Ints(targets)

	out := make([]Match, 0, len(targets))
	for _, i := range targets {
		lo, hi := -1, len(onsets)
		for k := range clips {
			c := clips[k]
			if k == i || c == NoClip || removed[c] {
				continue
			}
			if k < i && c > lo {
				lo = c
			}
			if k > i && c < hi {
				hi = c
			}
		}
		var avail []int
		for j := lo + 1; j < hi; j++ {
			if !removed[j] {
				avail = append(avail, j)
			}
		}

		prevRT := math.NaN()
		if i > 0 {
			prevRT = rts[i-1]
		}
		m := matchOne(i, stimuli[i].Presentation, newPoolFrom(onsets, avail), prevRT, p)
		clips[i] = m.Interval
		rts[i] = m.ReactionTime
		out = append(out, m)
	}
	return out, nil
}

// Rescore replaces the rows named by matches and leaves the others as they
// are. The input slice is not modified.
func (s Scorer) Rescore(rows []ScoredResponse, matches []Match, transcriptions map[int]Transcription) Result {
	out := make([]ScoredResponse, len(rows))
	copy(out, rows)
	for _, m := range matches {
		if m.Stimulus < 0 || m.Stimulus >= len(out) {
			continue
		}
		out[m.Stimulus] = s.ScoreOne(out[m.Stimulus].Stimulus, m, transcriptions)
	}
	return Recount(out)
}
