package orchestrator

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/maastricht-university/pasat-pipeline/scoring"
)

var resultsHeader = []string{
	"1st number", "2nd number", "User response", "Correct answer", "Accuracy (T/F)",
	"Reaction time (s)", "Reaction on time (T/F)", "Clip Index", " ", " ", "Time (from start) of responses",
}

// spacer is the two blank columns between the scores and the onsets, written
// bare as the recording tool does. encoding/csv would quote a leading space.
const spacer = ", , ,"

const (
	colResponse = 2
	colExpected = 3
	colVerdict  = 4
	colRT       = 5
	colOnTime   = 6
	colClip     = 7
	colOnset    = 10
)

// WriteResults writes one row per stimulus and per interval onset, whichever
// is more; missing cells are -1.
func WriteResults(path string, rows []scoring.ScoredResponse, onsets []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := writeResults(f, rows, onsets); err != nil {
		return fmt.Errorf("results %s: %w", path, err)
	}
	return f.Close()
}

func writeResults(w io.Writer, rows []scoring.ScoredResponse, onsets []float64) error {
	line := &resultsLine{}
	if err := line.write(w, resultsHeader[:colOnset-2], resultsHeader[colOnset]); err != nil {
		return err
	}
	n := max(len(rows), len(onsets))
	for i := 0; i < n; i++ {
		var rec []string
		if i < len(rows) {
			r := rows[i]
			rec = []string{
				strconv.Itoa(r.Stimulus.First),
				strconv.Itoa(r.Stimulus.Second),
				r.RawResponse,
				strconv.Itoa(r.Stimulus.Expected),
				r.Verdict.String(),
				formatSeconds(r.ReactionTime),
				pyBool(r.OnTime),
				strconv.Itoa(r.ClipIndex),
			}
		} else {
			rec = []string{"-1", "-1", "-1", "-1", "-1", "-1", "-1", "-1"}
		}
		onset := "-1.0"
		if i < len(onsets) {
			onset = formatSeconds(onsets[i])
		}
		if err := line.write(w, rec, onset); err != nil {
			return err
		}
	}
	return nil
}

// resultsLine encodes the score cells and the onset cell with encoding/csv
// quoting and joins them around the spacer columns. Lines end in CRLF like
// the recording tool's csv module.
type resultsLine struct {
	buf bytes.Buffer
}

func (l *resultsLine) write(w io.Writer, scores []string, onset string) error {
	l.buf.Reset()
	cw := csv.NewWriter(&l.buf)
	cw.UseCRLF = true
	if err := cw.Write(scores); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	l.buf.Truncate(l.buf.Len() - len("\r\n"))
	l.buf.WriteString(spacer)
	if err := cw.Write([]string{onset}); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	_, err := w.Write(l.buf.Bytes())
	return err
}

// ReadResults parses a table written by WriteResults. The first len(stimuli)
// rows belong to the stimuli; onsets are read until the first -1.
func ReadResults(path string, stimuli []scoring.Stimulus) ([]scoring.ScoredResponse, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	rows, onsets, err := readResults(f, stimuli)
	if err != nil {
		return nil, nil, fmt.Errorf("results %s: %w", path, err)
	}
	return rows, onsets, nil
}

func readResults(r io.Reader, stimuli []scoring.Stimulus) ([]scoring.ScoredResponse, []float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("missing header")
	}
	records = records[1:]
	if len(records) < len(stimuli) {
		return nil, nil, fmt.Errorf("%d rows for %d stimuli", len(records), len(stimuli))
	}

	var onsets []float64
	for i, rec := range records {
		if len(rec) <= colOnset {
			return nil, nil, fmt.Errorf("row %d: want %d columns, got %d", i+1, len(resultsHeader), len(rec))
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[colOnset]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d onset: %w", i+1, err)
		}
		if v < 0 {
			break
		}
		onsets = append(onsets, v)
	}

	rows := make([]scoring.ScoredResponse, len(stimuli))
	for i, st := range stimuli {
		rec := records[i]
		expected, err := strconv.Atoi(strings.TrimSpace(rec[colExpected]))
		if err != nil {
			return nil, nil, fmt.Errorf("row %d answer: %w", i+1, err)
		}
		if expected != st.Expected {
			return nil, nil, fmt.Errorf("row %d: answer %d does not match trial answer %d", i+1, expected, st.Expected)
		}
		verdict, err := scoring.ParseVerdict(rec[colVerdict])
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rt, err := strconv.ParseFloat(strings.TrimSpace(rec[colRT]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d reaction time: %w", i+1, err)
		}
		onTime, err := strconv.ParseBool(strings.TrimSpace(rec[colOnTime]))
		if err != nil {
			return nil, nil, fmt.Errorf("row %d on time: %w", i+1, err)
		}
		clip, err := strconv.Atoi(strings.TrimSpace(rec[colClip]))
		if err != nil {
			return nil, nil, fmt.Errorf("row %d clip: %w", i+1, err)
		}
		if clip < 0 {
			clip = scoring.NoClip
		}
		row := scoring.ScoredResponse{
			Stimulus:     st,
			RawResponse:  rec[colResponse],
			Verdict:      verdict,
			ReactionTime: rt,
			OnTime:       onTime,
			ClipIndex:    clip,
		}
		switch {
		case clip == scoring.NoClip:
			row.State = scoring.NoResponse
		case verdict == scoring.VerdictNA:
			row.State = scoring.TranscriptionFailed
		default:
			row.State = scoring.Scored
		}
		rows[i] = row
	}
	return rows, onsets, nil
}

func formatSeconds(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// Summary is the per-session record written next to the results table.
type Summary struct {
	Trial       string         `yaml:"trial"`
	GeneratedAt time.Time      `yaml:"generated_at"`
	Amended     []int          `yaml:"amended_clips,omitempty"`
	Stimuli     int            `yaml:"stimuli"`
	Intervals   int            `yaml:"intervals"`
	NumCorrect  int            `yaml:"num_correct"`
	PercentOK   float64        `yaml:"percent_correct"`
	States      map[string]int `yaml:"states"`
	GuardSkips  int            `yaml:"guard_skips"`
	Params      SummaryParams  `yaml:"params"`
}

type SummaryParams struct {
	ResponseWindow     float64 `yaml:"response_window"`
	FastResponseGuard  float64 `yaml:"fast_response_guard"`
	AcceptanceFactor   float64 `yaml:"acceptance_factor"`
	AcceptanceSlack    float64 `yaml:"acceptance_slack"`
	OnTimeLimit        float64 `yaml:"on_time_limit"`
	SilenceThresholdDB float64 `yaml:"silence_threshold_db"`
	MinSilenceMs       int     `yaml:"min_silence_ms"`
	ClipPaddingMs      int     `yaml:"clip_padding_ms"`
}

func writeYAML(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Close()
}
