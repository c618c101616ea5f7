package orchestrator

import (
	"path/filepath"
	"sort"

	"github.com/maastricht-university/pasat-pipeline/scoring"
)

func (p *Pipeline) paths(trial string) Paths {
	data, out := p.cfg.Paths.Data, p.cfg.Paths.Outputs
	return Paths{
		Trial:   trial,
		CSV:     filepath.Join(data, trial+".csv"),
		WAV:     filepath.Join(data, trial+".wav"),
		Clips:   filepath.Join(out, trial+"_response_chunks"),
		Results: filepath.Join(out, trial+"_RESULTS.csv"),
		Summary: filepath.Join(out, trial+"_summary.yaml"),
	}
}

// matchedClips lists the interval indexes that need a transcription.
func matchedClips(matches []scoring.Match) []int {
	seen := map[int]bool{}
	var out []int
	for _, m := range matches {
		if m.HasInterval() && !seen[m.Interval] {
			seen[m.Interval] = true
			out = append(out, m.Interval)
		}
	}
	sort.Ints(out)
	return out
}

func guardSkips(matches []scoring.Match) int {
	n := 0
	for _, m := range matches {
		n += m.GuardSkips
	}
	return n
}

func (p *Pipeline) summary(rep *Report, amended []int) Summary {
	states := map[string]int{}
	for st, n := range rep.Result.Counts {
		states[st.String()] = n
	}
	c := p.cfg
	return Summary{
		Trial:       rep.Paths.Trial,
		GeneratedAt: p.now().UTC(),
		Amended:     amended,
		Stimuli:     len(rep.Result.Rows),
		Intervals:   len(rep.Onsets),
		NumCorrect:  rep.Result.NumCorrect,
		PercentOK:   rep.Percent(),
		States:      states,
		GuardSkips:  rep.GuardSkips,
		Params: SummaryParams{
			ResponseWindow:     c.Scoring.ResponseWindow,
			FastResponseGuard:  c.Scoring.FastResponseGuard,
			AcceptanceFactor:   c.Scoring.AcceptanceFactor,
			AcceptanceSlack:    c.Scoring.AcceptanceSlack,
			OnTimeLimit:        c.Scoring.OnTimeLimit,
			SilenceThresholdDB: c.Detector.SilenceThresholdDB,
			MinSilenceMs:       c.Detector.MinSilenceMs,
			ClipPaddingMs:      c.Clips.PaddingMs,
		},
	}
}
