package scoring

import (
	"fmt"
	"math"
	"strings"
)

// NoClip marks a row with no assigned speech interval.
const NoClip = -1

// Undetected is the token a transcriber reports when it has no result.
const Undetected = "UNDETECTED"

// NotAvailable is the text written for missing responses and verdicts.
const NotAvailable = "N/A"

type Stimulus struct {
	Index        int
	First        int // numbers heard, for the result table
	Second       int
	Presentation float64 // sec from recording start
	Expected     int
}

// RawInterval is a non-silent range as reported by the detector, in ms.
type RawInterval struct {
	StartMs int
	EndMs   int
}

type SpeechInterval struct {
	Start       float64 // sec
	End         float64 // sec
	SourceIndex int
}

type MatchOutcome int

const (
	Matched MatchOutcome = iota
	NoIntervalAfter
	NoCandidate
	TooLate
)

func (o MatchOutcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case NoIntervalAfter:
		return "no_interval_after"
	case NoCandidate:
		return "no_candidate"
	case TooLate:
		return "too_late"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

type Match struct {
	Stimulus     int
	Interval     int // index into the filtered interval list, NoClip if none
	ReactionTime float64
	Outcome      MatchOutcome
	GuardSkips   int
}

func (m Match) HasInterval() bool { return m.Interval != NoClip }

func noMatch(stimulus int, outcome MatchOutcome, skips int) Match {
	return Match{Stimulus: stimulus, Interval: NoClip, ReactionTime: math.NaN(), Outcome: outcome, GuardSkips: skips}
}

type Transcription struct {
	Primary  string
	Fallback string
}

// Empty reports whether neither engine produced a token.
func (t Transcription) Empty() bool {
	return isUndetected(t.Primary) && isUndetected(t.Fallback)
}

func UndetectedTranscription() Transcription {
	return Transcription{Primary: Undetected, Fallback: Undetected}
}

func isUndetected(tok string) bool {
	tok = strings.TrimSpace(tok)
	return tok == "" || strings.EqualFold(tok, Undetected)
}

// Verdict is the correctness of one response: true, false or not available.
type Verdict int

const (
	VerdictNA Verdict = iota
	VerdictTrue
	VerdictFalse
)

func (v Verdict) String() string {
	switch v {
	case VerdictTrue:
		return "TRUE"
	case VerdictFalse:
		return "FALSE"
	}
	return NotAvailable
}

func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRUE":
		return VerdictTrue, nil
	case "FALSE":
		return VerdictFalse, nil
	case NotAvailable, "":
		return VerdictNA, nil
	}
	return VerdictNA, fmt.Errorf("verdict %q: not TRUE, FALSE or N/A", s)
}

type State int

const (
	Pending State = iota
	NoResponse
	TranscriptionFailed
	Scored
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case NoResponse:
		return "no_response"
	case TranscriptionFailed:
		return "transcription_failed"
	case Scored:
		return "scored"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type ScoredResponse struct {
	Stimulus     Stimulus
	RawResponse  string
	Verdict      Verdict
	ReactionTime float64
	OnTime       bool
	ClipIndex    int
	State        State
}

// WordMap maps spelled-out answers to their value.
type WordMap map[string]int

func DefaultWords() WordMap {
	return WordMap{
		"ONE": 1, "TWO": 2, "THREE": 3, "FOUR": 4, "FIVE": 5,
		"SIX": 6, "SEVEN": 7, "EIGHT": 8, "NINE": 9, "TEN": 10,
	}
}
