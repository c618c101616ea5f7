package scoring

import "math"

type Result struct {
	Rows       []ScoredResponse
	NumCorrect int
	Counts     map[State]int
}

// Scorer turns matches and transcriptions into result rows.
type Scorer struct {
	// Delay is the on-time limit for a reaction, sec.
	Delay float64
	Words WordMap
}

// Score scores every stimulus with the default word map.
func Score(stimuli []Stimulus, matches []Match, transcriptions map[int]Transcription, delay float64) Result {
	return Scorer{Delay: delay, Words: DefaultWords()}.Score(stimuli, matches, transcriptions)
}

// Score scores every stimulus exactly once. matches must be aligned with
// stimuli; transcriptions are keyed by interval index.
func (s Scorer) Score(stimuli []Stimulus, matches []Match, transcriptions map[int]Transcription) Result {
	res := Result{Rows: make([]ScoredResponse, 0, len(stimuli)), Counts: map[State]int{}}
	for i, st := range stimuli {
		m := noMatch(i, NoIntervalAfter, 0)
		if i < len(matches) {
			m = matches[i]
		}
		row := s.ScoreOne(st, m, transcriptions)
		if row.Verdict == VerdictTrue {
			res.NumCorrect++
		}
		res.Counts[row.State]++
		res.Rows = append(res.Rows, row)
	}
	return res
}

// ScoreOne builds the row for a single stimulus.
func (s Scorer) ScoreOne(st Stimulus, m Match, transcriptions map[int]Transcription) ScoredResponse {
	row := ScoredResponse{
		Stimulus:     st,
		RawResponse:  NotAvailable,
		Verdict:      VerdictNA,
		ReactionTime: math.NaN(),
		ClipIndex:    NoClip,
		State:        NoResponse,
	}
	if !m.HasInterval() {
		return row
	}
	row.ReactionTime = m.ReactionTime
	row.ClipIndex = m.Interval
	row.OnTime = !math.IsNaN(m.ReactionTime) && m.ReactionTime <= s.Delay

	t, ok := transcriptions[m.Interval]
	if !ok || t.Empty() {
		row.State = TranscriptionFailed
		return row
	}
	words := s.Words
	if words == nil {
		words = DefaultWords()
	}
	row.Verdict, row.RawResponse = Classify(t.Primary, t.Fallback, st.Expected, words)
	row.State = Scored
	return row
}

// Recount recomputes the totals of a row set.
func Recount(rows []ScoredResponse) Result {
	res := Result{Rows: rows, Counts: map[State]int{}}
	for _, r := range rows {
		if r.Verdict == VerdictTrue {
			res.NumCorrect++
		}
		res.Counts[r.State]++
	}
	return res
}
