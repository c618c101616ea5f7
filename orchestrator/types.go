package orchestrator

import "github.com/maastricht-university/pasat-pipeline/scoring"

// Paths locates the files of one trial. Inputs come from the data directory,
// everything the pipeline writes goes under the outputs directory.
type Paths struct {
	Trial   string
	CSV     string // stimulus sequence
	WAV     string // session recording
	Clips   string // chunk<i>.wav per interval
	Results string
	Summary string
}

// Report is what a score or amend run produced.
type Report struct {
	Paths      Paths
	Result     scoring.Result
	Onsets     []float64
	Matches    []scoring.Match
	GuardSkips int
}

// Percent returns the share of stimuli answered correctly, 0..100.
func (r *Report) Percent() float64 {
	if len(r.Result.Rows) == 0 {
		return 0
	}
	return 100 * float64(r.Result.NumCorrect) / float64(len(r.Result.Rows))
}
