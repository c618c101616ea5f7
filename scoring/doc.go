// Package scoring aligns PASAT stimuli with the speech intervals detected in
// the subject's recording and scores each response.
//
// The flow is FilterIntervals, Match, then Scorer.Score once transcriptions
// for the matched intervals are available. Amend and Scorer.Rescore re-run the
// last two steps for a subset of rows of an existing result table.
package scoring
