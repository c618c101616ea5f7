package clients

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/pasat-pipeline/scoring"
)

// Prioritized asks the primary engine first and the fallback engine when the
// primary has no result, or always when AlwaysFallback is set. Failures and
// timeouts of either engine count as no result.
type Prioritized struct {
	Primary        Transcriber
	Fallback       Transcriber
	AlwaysFallback bool
	Timeout        time.Duration
	Log            *logrus.Entry
}

func (p *Prioritized) Transcribe(ctx context.Context, clipPath string) scoring.Transcription {
	out := scoring.UndetectedTranscription()
	if p.Primary != nil {
		if tok, ok := p.call(ctx, p.Primary, clipPath); ok {
			out.Primary = tok
		}
	}
	if p.Fallback != nil && (p.AlwaysFallback || out.Primary == scoring.Undetected) {
		if tok, ok := p.call(ctx, p.Fallback, clipPath); ok {
			out.Fallback = tok
		}
	}
	return out
}

func (p *Prioritized) call(ctx context.Context, t Transcriber, clipPath string) (string, bool) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	tok, err := t.Transcribe(ctx, clipPath)
	switch {
	case err == nil:
		return tok, true
	case errors.Is(err, ErrNoResult):
		p.logger().WithFields(logrus.Fields{"engine": t.Name(), "clip": clipPath}).Debug("no transcription result")
	default:
		p.logger().WithFields(logrus.Fields{"engine": t.Name(), "clip": clipPath}).WithError(err).Warn("transcription failed")
	}
	return "", false
}

func (p *Prioritized) logger() *logrus.Entry {
	if p.Log != nil {
		return p.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
