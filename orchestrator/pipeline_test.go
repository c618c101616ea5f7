package orchestrator

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/maastricht-university/pasat-pipeline/audio"
	cfg "github.com/maastricht-university/pasat-pipeline/config"
	"github.com/maastricht-university/pasat-pipeline/scoring"
)

const rate = 8000

type fakeEngines struct {
	mu     sync.Mutex
	tokens map[string]scoring.Transcription
	calls  []string
}

func (f *fakeEngines) Transcribe(_ context.Context, clipPath string) scoring.Transcription {
	name := filepath.Base(clipPath)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if t, ok := f.tokens[name]; ok {
		return t
	}
	return scoring.UndetectedTranscription()
}

func writeRecording(t *testing.T, path string, totalMs int, bursts ...[2]int) {
	t.Helper()
	rec := &audio.Recording{Samples: make([]float64, totalMs*rate/1000), SampleRate: rate}
	for _, b := range bursts {
		for i := b[0] * rate / 1000; i < b[1]*rate/1000; i++ {
			rec.Samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/rate)
		}
	}
	if err := rec.WriteWAV(path); err != nil {
		t.Fatal(err)
	}
}

// newTrial lays out a trial with three stimuli (at 1.0, 4.0 and 6.5 s) and
// speech at 0, 1.8, 5.0 and 5.6 s. The burst at 0 is dropped by the filter.
func newTrial(t *testing.T) (*cfg.Root, string) {
	t.Helper()
	data, out := t.TempDir(), t.TempDir()
	csv := "1st number,2nd number,Correct answer,Stimuli time from start (s)\n" +
		"3,4,7,1.0\n5,4,9,4.0\n4,2,6,6.5\n"
	if err := os.WriteFile(filepath.Join(data, "t1.csv"), []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	writeRecording(t, filepath.Join(data, "t1.wav"), 8000,
		[2]int{0, 200}, [2]int{1800, 2200}, [2]int{5000, 5400}, [2]int{5600, 5900})

	c, err := cfg.Load(cfg.New(), "")
	if err != nil {
		t.Fatal(err)
	}
	c.Paths.Data = data
	c.Paths.Outputs = out
	return c, "t1"
}

func near(a, b float64) bool { return math.Abs(a-b) < 0.05 }

func TestPipelineRunAndAmend(t *testing.T) {
	c, trial := newTrial(t)
	eng := &fakeEngines{tokens: map[string]scoring.Transcription{
		"chunk0.wav": {Primary: "SIX", Fallback: scoring.Undetected},
		"chunk2.wav": {Primary: "NINE", Fallback: scoring.Undetected},
	}}
	p := NewPipeline(c, eng, nil)

	rep, err := p.Run(context.Background(), trial)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Onsets) != 3 {
		t.Fatalf("onsets = %v, want 3", rep.Onsets)
	}
	for i, want := range []float64{1.8, 5.0, 5.6} {
		if !near(rep.Onsets[i], want) {
			t.Errorf("onset %d = %v, want about %v", i, rep.Onsets[i], want)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := os.Stat(audio.ClipPath(rep.Paths.Clips, i)); err != nil {
			t.Errorf("clip %d: %v", i, err)
		}
	}

	rows := rep.Result.Rows
	if rows[0].ClipIndex != 0 || rows[0].Verdict != scoring.VerdictFalse || rows[0].RawResponse != "SIX" || !near(rows[0].ReactionTime, 0.8) {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].ClipIndex != 1 || rows[1].State != scoring.TranscriptionFailed || rows[1].Verdict != scoring.VerdictNA {
		t.Errorf("row 1 = %+v", rows[1])
	}
	if rows[2].State != scoring.NoResponse || !math.IsNaN(rows[2].ReactionTime) {
		t.Errorf("row 2 = %+v", rows[2])
	}
	if rep.Result.NumCorrect != 0 {
		t.Errorf("NumCorrect = %d, want 0", rep.Result.NumCorrect)
	}
	if len(eng.calls) != 2 {
		t.Errorf("transcribed %v, want the two matched clips", eng.calls)
	}

	// The split response at 5.6 s belongs to stimulus 1 once clip 1 is dropped.
	eng.calls = nil
	rep, err = p.Amend(context.Background(), trial, []int{1})
	if err != nil {
		t.Fatalf("Amend: %v", err)
	}
	rows = rep.Result.Rows
	if rows[1].ClipIndex != 2 || rows[1].Verdict != scoring.VerdictTrue || !near(rows[1].ReactionTime, 1.6) {
		t.Errorf("amended row 1 = %+v", rows[1])
	}
	if rows[0].RawResponse != "SIX" || rows[2].State != scoring.NoResponse {
		t.Errorf("untouched rows changed: %+v %+v", rows[0], rows[2])
	}
	if rep.Result.NumCorrect != 1 {
		t.Errorf("NumCorrect = %d, want 1", rep.Result.NumCorrect)
	}
	if len(eng.calls) != 1 || eng.calls[0] != "chunk2.wav" {
		t.Errorf("amend transcribed %v, want [chunk2.wav]", eng.calls)
	}

	raw, err := os.ReadFile(rep.Paths.Summary)
	if err != nil {
		t.Fatal(err)
	}
	var sum Summary
	if err := yaml.Unmarshal(raw, &sum); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.NumCorrect != 1 || sum.Intervals != 3 || sum.States["scored"] != 2 || len(sum.Amended) != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestPipelineNoSpeech(t *testing.T) {
	c, trial := newTrial(t)
	writeRecording(t, filepath.Join(c.Paths.Data, trial+".wav"), 3000, [2]int{0, 300})

	_, err := NewPipeline(c, &fakeEngines{}, nil).Run(context.Background(), trial)
	if !errors.Is(err, scoring.ErrNoSpeechDetected) {
		t.Fatalf("err = %v, want ErrNoSpeechDetected", err)
	}
	if !strings.Contains(err.Error(), "threshold") {
		t.Errorf("error lacks tuning hint: %v", err)
	}
}

func TestAmendRejectsUnknownClip(t *testing.T) {
	c, trial := newTrial(t)
	p := NewPipeline(c, &fakeEngines{}, nil)
	if _, err := p.Run(context.Background(), trial); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Amend(context.Background(), trial, []int{7}); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestTranscribeCancelled(t *testing.T) {
	c, _ := newTrial(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPipeline(c, &fakeEngines{}, nil).transcribe(ctx, t.TempDir(), []int{0, 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
