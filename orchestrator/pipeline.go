package orchestrator

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/maastricht-university/pasat-pipeline/audio"
	cfg "github.com/maastricht-university/pasat-pipeline/config"
	"github.com/maastricht-university/pasat-pipeline/scoring"
)

// Transcriber turns one clip into the tokens of both engines. It never
// fails; engines that have nothing to say yield the undetected sentinel.
type Transcriber interface {
	Transcribe(ctx context.Context, clipPath string) scoring.Transcription
}

type Pipeline struct {
	cfg *cfg.Root
	tr  Transcriber
	log *logrus.Entry
	now func() time.Time
}

func NewPipeline(c *cfg.Root, tr Transcriber, log *logrus.Entry) *Pipeline {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Pipeline{cfg: c, tr: tr, log: log, now: time.Now}
}

// Run scores a recorded trial from scratch and writes the results table,
// the response clips and the session summary.
func (p *Pipeline) Run(ctx context.Context, trial string) (*Report, error) {
	paths := p.paths(trial)
	log := p.log.WithField("trial", trial)

	stimuli, err := LoadTrial(paths.CSV)
	if err != nil {
		return nil, err
	}
	rec, err := audio.Load(paths.WAV)
	if err != nil {
		return nil, err
	}

	raw := audio.DetectNonSilent(rec.Normalize(p.cfg.Detector.SilenceThresholdDB), audio.DetectParams{
		SilenceThresholdDB: p.cfg.Detector.SilenceThresholdDB,
		MinSilenceMs:       p.cfg.Detector.MinSilenceMs,
		SeekStepMs:         p.cfg.Detector.SeekStepMs,
	})
	intervals := scoring.FilterIntervals(raw)
	if len(intervals) == 0 {
		return nil, fmt.Errorf("trial %s: %w", trial, scoring.ErrNoSpeechDetected)
	}
	log.WithFields(logrus.Fields{"raw": len(raw), "intervals": len(intervals)}).Info("speech intervals detected")

	ex := audio.ClipExtractor{Dir: paths.Clips, PaddingMs: p.cfg.Clips.PaddingMs}
	if _, err := ex.Extract(rec, intervals); err != nil {
		return nil, err
	}

	matches := scoring.MatchStimuli(stimuli, intervals, p.cfg.MatchParams())
	for _, m := range matches {
		log.WithFields(logrus.Fields{
			"stimulus": m.Stimulus,
			"clip":     m.Interval,
			"rt":       m.ReactionTime,
			"outcome":  m.Outcome.String(),
		}).Debug("stimulus matched")
	}

	trans, err := p.transcribe(ctx, paths.Clips, matchedClips(matches))
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Paths:      paths,
		Result:     p.cfg.Scorer().Score(stimuli, matches, trans),
		Onsets:     scoring.Onsets(intervals),
		Matches:    matches,
		GuardSkips: guardSkips(matches),
	}
	if err := p.persist(rep, nil); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"correct": rep.Result.NumCorrect,
		"stimuli": len(stimuli),
		"results": paths.Results,
	}).Info("trial scored")
	return rep, nil
}

// Amend re-matches the stimuli that were paired with any of removeClips and
// rewrites the results. Other rows are kept as they are in the table.
func (p *Pipeline) Amend(ctx context.Context, trial string, removeClips []int) (*Report, error) {
	paths := p.paths(trial)
	log := p.log.WithFields(logrus.Fields{"trial": trial, "remove": removeClips})

	stimuli, err := LoadTrial(paths.CSV)
	if err != nil {
		return nil, err
	}
	rows, onsets, err := ReadResults(paths.Results, stimuli)
	if err != nil {
		return nil, err
	}
	matches, err := scoring.Amend(stimuli, rows, onsets, removeClips, p.cfg.MatchParams())
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		log.Warn("no result row uses the removed clips; nothing to amend")
	}

	clips := matchedClips(matches)
	for _, c := range clips {
		if _, err := os.Stat(audio.ClipPath(paths.Clips, c)); err != nil {
			return nil, fmt.Errorf("amend %s: clip %d: %w", trial, c, err)
		}
	}
	trans, err := p.transcribe(ctx, paths.Clips, clips)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		log.WithFields(logrus.Fields{
			"stimulus": m.Stimulus,
			"clip":     m.Interval,
			"outcome":  m.Outcome.String(),
		}).Info("stimulus re-matched")
	}

	rep := &Report{
		Paths:      paths,
		Result:     p.cfg.Scorer().Rescore(rows, matches, trans),
		Onsets:     onsets,
		Matches:    matches,
		GuardSkips: guardSkips(matches),
	}
	if err := p.persist(rep, removeClips); err != nil {
		return nil, err
	}
	log.WithField("correct", rep.Result.NumCorrect).Info("trial amended")
	return rep, nil
}

// transcribe runs the engines over the given clips, Transcription.Workers at
// a time. Results are keyed by clip index.
func (p *Pipeline) transcribe(ctx context.Context, dir string, clips []int) (map[int]scoring.Transcription, error) {
	out := make(map[int]scoring.Transcription, len(clips))
	if p.tr == nil || len(clips) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, p.cfg.Transcription.Workers))
	for _, c := range clips {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t := p.tr.Transcribe(ctx, audio.ClipPath(dir, c))
			mu.Lock()
			out[c] = t
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	return out, nil
}

func (p *Pipeline) persist(rep *Report, amended []int) error {
	if err := os.MkdirAll(p.cfg.Paths.Outputs, 0o755); err != nil {
		return err
	}
	if err := WriteResults(rep.Paths.Results, rep.Result.Rows, rep.Onsets); err != nil {
		return err
	}
	if err := writeYAML(rep.Paths.Summary, p.summary(rep, amended)); err != nil {
		return fmt.Errorf("summary %s: %w", rep.Paths.Summary, err)
	}
	return nil
}
