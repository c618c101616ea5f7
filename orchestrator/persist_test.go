package orchestrator

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/maastricht-university/pasat-pipeline/scoring"
)

func TestReadTrial(t *testing.T) {
	in := "1st number,2nd number,Correct answer,Stimuli time from start (s)\n" +
		"3,4,7,1.5\n\n4,1,5,4.5\n"
	got, err := readTrial(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := []scoring.Stimulus{
		{Index: 0, First: 3, Second: 4, Expected: 7, Presentation: 1.5},
		{Index: 1, First: 4, Second: 1, Expected: 5, Presentation: 4.5},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d stimuli", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("stimulus %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	for name, bad := range map[string]string{
		"short row":      "h\n1,2,3\n",
		"not a number":   "h\n1,x,3,1.0\n",
		"not increasing": "h\n1,2,3,2.0\n2,3,5,2.0\n",
	} {
		if _, err := readTrial(strings.NewReader(bad)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestResultsTable(t *testing.T) {
	stimuli := []scoring.Stimulus{
		{Index: 0, First: 1, Second: 2, Expected: 3, Presentation: 1},
		{Index: 1, First: 2, Second: 5, Expected: 7, Presentation: 4},
	}
	rows := []scoring.ScoredResponse{
		{Stimulus: stimuli[0], RawResponse: "THREE", Verdict: scoring.VerdictTrue, ReactionTime: 0.75, OnTime: true, ClipIndex: 0, State: scoring.Scored},
		{Stimulus: stimuli[1], RawResponse: scoring.NotAvailable, Verdict: scoring.VerdictNA, ReactionTime: math.NaN(), ClipIndex: scoring.NoClip, State: scoring.NoResponse},
	}
	onsets := []float64{1.75, 2, 6.2}

	var buf bytes.Buffer
	if err := writeResults(&buf, rows, onsets); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(buf.String(), "\r\n") {
		t.Errorf("table should end in CRLF: %q", buf.String())
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\r\n"), "\r\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	header := "1st number,2nd number,User response,Correct answer,Accuracy (T/F),Reaction time (s)," +
		"Reaction on time (T/F),Clip Index, , ,Time (from start) of responses"
	if lines[0] != header {
		t.Errorf("header = %q, want %q", lines[0], header)
	}
	for i, want := range []string{
		"1,2,THREE,3,TRUE,0.75,True,0, , ,1.75",
		"2,5,N/A,7,N/A,nan,False,-1, , ,2.0",
		"-1,-1,-1,-1,-1,-1,-1,-1, , ,6.2",
	} {
		if lines[i+1] != want {
			t.Errorf("line %d = %q, want %q", i+1, lines[i+1], want)
		}
	}

	quoted := []scoring.ScoredResponse{rows[0]}
	quoted[0].RawResponse = `SAY "3", OK`
	var qbuf bytes.Buffer
	if err := writeResults(&qbuf, quoted, nil); err != nil {
		t.Fatal(err)
	}
	if want := `1,2,"SAY ""3"", OK",3,TRUE,0.75,True,0, , ,-1.0` + "\r\n"; !strings.HasSuffix(qbuf.String(), want) {
		t.Errorf("quoted row = %q, want suffix %q", qbuf.String(), want)
	}

	back, gotOnsets, err := readResults(&buf, stimuli)
	if err != nil {
		t.Fatal(err)
	}
	if len(gotOnsets) != 3 || gotOnsets[2] != 6.2 {
		t.Errorf("onsets = %v", gotOnsets)
	}
	if back[0] != rows[0] {
		t.Errorf("row 0 = %+v, want %+v", back[0], rows[0])
	}
	if back[1].State != scoring.NoResponse || !math.IsNaN(back[1].ReactionTime) || back[1].ClipIndex != scoring.NoClip {
		t.Errorf("row 1 = %+v", back[1])
	}
}

func TestReadResultsTrailingFiller(t *testing.T) {
	stimuli := []scoring.Stimulus{{Expected: 3, Presentation: 1}, {Expected: 5, Presentation: 4}}
	rows := []scoring.ScoredResponse{
		{Stimulus: stimuli[0], RawResponse: "3", Verdict: scoring.VerdictTrue, ReactionTime: 1, OnTime: true, ClipIndex: 0, State: scoring.Scored},
		{Stimulus: stimuli[1], RawResponse: "UNDETECTED", Verdict: scoring.VerdictNA, ReactionTime: 0.5, OnTime: true, ClipIndex: 0, State: scoring.TranscriptionFailed},
	}
	var buf bytes.Buffer
	if err := writeResults(&buf, rows, []float64{2}); err != nil {
		t.Fatal(err)
	}
	back, onsets, err := readResults(&buf, stimuli)
	if err != nil {
		t.Fatal(err)
	}
	if len(onsets) != 1 {
		t.Errorf("onsets = %v, want [2]", onsets)
	}
	if back[1].State != scoring.TranscriptionFailed {
		t.Errorf("row 1 state = %v", back[1].State)
	}

	wrong := []scoring.Stimulus{{Expected: 4}, {Expected: 5}}
	buf.Reset()
	_ = writeResults(&buf, rows, []float64{2})
	if _, _, err := readResults(&buf, wrong); err == nil {
		t.Error("expected mismatch error")
	}
}
