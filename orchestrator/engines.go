package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/pasat-pipeline/clients"
	cfg "github.com/maastricht-university/pasat-pipeline/config"
)

// Engines is the transcription chain built from the services section, with
// the resources it holds open.
type Engines struct {
	Chain   *clients.Prioritized
	closers []func() error
}

// OpenEngines connects the configured engines. Google is the primary when
// enabled; the HTTP ASR service is the fallback, or the primary when Google
// is off. Both are served through the on-disk cache unless it is disabled.
func OpenEngines(ctx context.Context, c *cfg.Root, log *logrus.Entry) (*Engines, error) {
	e := &Engines{}
	var engines []clients.Transcriber

	if c.Services.Google.Enabled {
		g, err := clients.NewGoogleSpeech(ctx, clients.GoogleConfig{
			LanguageCode: c.Services.Google.LanguageCode,
			Model:        c.Services.Google.Model,
			Credentials:  c.Services.Google.Credentials,
			MaxRetries:   c.Services.Google.MaxRetries,
		})
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, g.Close)
		engines = append(engines, g)
	}
	if c.Services.ASR.URL != "" {
		engines = append(engines, clients.NewHTTPASR(clients.NewHTTP(c.Transcription.Timeout), c.Services.ASR.URL))
	}
	if len(engines) == 0 {
		_ = e.Close()
		return nil, errors.New("no transcription engine configured: enable services.google or set services.asr.url")
	}

	if !c.Cache.Disabled {
		cache, err := clients.OpenCache(clients.CacheOptions{
			Dir:    c.Cache.Dir,
			Logger: log.WithField("component", "cache"),
		})
		if err != nil {
			_ = e.Close()
			return nil, err
		}
		e.closers = append(e.closers, cache.Close)
		for i := range engines {
			engines[i] = cache.Wrap(engines[i])
		}
	}

	e.Chain = &clients.Prioritized{
		Primary:        engines[0],
		AlwaysFallback: c.Transcription.AlwaysFallback,
		Timeout:        c.Transcription.Timeout,
		Log:            log,
	}
	if len(engines) > 1 {
		e.Chain.Fallback = engines[1]
	}
	names := make([]string, len(engines))
	for i, t := range engines {
		names[i] = t.Name()
	}
	log.WithField("engines", names).Debug("transcription chain ready")
	return e, nil
}

func (e *Engines) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close engines: %w", err)
	}
	return nil
}
