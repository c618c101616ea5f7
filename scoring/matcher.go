package scoring

import "math"

type MatchParams struct {
	// ResponseWindow is the expected inter-stimulus delay, sec.
	ResponseWindow float64
	// FastResponseGuard is the gap below which an interval is attributed to
	// a late previous response instead of the current stimulus.
	FastResponseGuard float64
	// Responses later than ResponseWindow*AcceptanceFactor+AcceptanceSlack
	// are treated as missed.
	AcceptanceFactor float64
	AcceptanceSlack  float64
}

func DefaultMatchParams() MatchParams {
	return MatchParams{
		ResponseWindow:    2.0,
		FastResponseGuard: 0.1,
		AcceptanceFactor:  1.5,
	}
}

func (p MatchParams) MaxGap() float64 {
	return p.ResponseWindow*p.AcceptanceFactor + p.AcceptanceSlack
}

// MatchStimuli assigns at most one speech interval to every stimulus, in stimulus
// order. Assigned intervals, and any still-open interval before them, are
// removed from the pool, so interval indices across the result are strictly
// increasing.
func MatchStimuli(stimuli []Stimulus, intervals []SpeechInterval, p MatchParams) []Match {
	pool := NewPool(intervals)
	out := make([]Match, 0, len(stimuli))
	prevRT := math.NaN()
	for i, st := range stimuli {
		m := matchOne(i, st.Presentation, pool, prevRT, p)
		out = append(out, m)
		prevRT = m.ReactionTime
	}
	return out
}

// matchOne runs a single matching step against the pool. prevRT is the
// reaction time recorded for the preceding stimulus, NaN if none.
func matchOne(stimulus int, at float64, pool *Pool, prevRT float64, p MatchParams) Match {
	last, ok := pool.Last()
	if !ok || last <= at {
		return noMatch(stimulus, NoIntervalAfter, 0)
	}

	lateBefore := prevRT > p.ResponseWindow // false for NaN
	skips := 0
	pos, cand, gap := -1, NoClip, 0.0
	pool.each(func(ps, j int, onset float64) bool {
		if onset <= at {
			return true
		}
		g := onset - at
		if g < p.FastResponseGuard && lateBefore {
			skips++
			return true
		}
		pos, cand, gap = ps, j, g
		return false
	})

	if cand == NoClip {
		return noMatch(stimulus, NoCandidate, skips)
	}
	if gap > p.MaxGap() {
		return noMatch(stimulus, TooLate, skips)
	}
	pool.consume(pos)
	return Match{Stimulus: stimulus, Interval: cand, ReactionTime: gap, Outcome: Matched, GuardSkips: skips}
}
