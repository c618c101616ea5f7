package clients

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type GoogleConfig struct {
	LanguageCode string
	Model        string
	// Credentials is a service account file path or inline JSON. Empty
	// falls back to GOOGLE_APPLICATION_CREDENTIALS and ambient credentials.
	Credentials string
	MaxRetries  int
}

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// GoogleSpeech is the primary engine, backed by Cloud Speech-to-Text.
type GoogleSpeech struct {
	recognize  recognizeFunc
	close      func() error
	cfg        GoogleConfig
	backoff    time.Duration
	maxBackoff time.Duration
}

func NewGoogleSpeech(ctx context.Context, cfg GoogleConfig) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx, clientOptions(cfg.Credentials)...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	g := newGoogleSpeech(cfg, func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return c.Recognize(ctx, req)
	})
	g.close = c.Close
	return g, nil
}

func newGoogleSpeech(cfg GoogleConfig, fn recognizeFunc) *GoogleSpeech {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &GoogleSpeech{
		recognize:  fn,
		cfg:        cfg,
		backoff:    750 * time.Millisecond,
		maxBackoff: 10 * time.Second,
	}
}

func clientOptions(creds string) []option.ClientOption {
	creds = strings.TrimSpace(creds)
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func (g *GoogleSpeech) Name() string { return "google_speech" }

// CacheKey folds the language and model into the cache key.
func (g *GoogleSpeech) CacheKey() string {
	model := g.cfg.Model
	if model == "" {
		model = "default"
	}
	return g.Name() + "/" + g.cfg.LanguageCode + "/" + model
}

func (g *GoogleSpeech) Close() error {
	if g == nil || g.close == nil {
		return nil
	}
	return g.close()
}

func (g *GoogleSpeech) Transcribe(ctx context.Context, clipPath string) (string, error) {
	data, err := os.ReadFile(clipPath)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrNoResult
	}
	// sample rate and channel count come from the wav header
	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:     speechpb.RecognitionConfig_LINEAR16,
			LanguageCode: g.cfg.LanguageCode,
			Model:        g.cfg.Model,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	}

	resp, err := g.retry(ctx, req)
	if err != nil {
		return "", fmt.Errorf("speech recognize: %w", err)
	}
	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if tok, err := firstWord(alts[0].GetTranscript()); err == nil {
			return tok, nil
		}
	}
	return "", ErrNoResult
}

func (g *GoogleSpeech) retry(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	backoff := g.backoff
	var last error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err := g.recognize(ctx, req)
		if err == nil {
			return resp, nil
		}
		last = err

		code := status.Code(err)
		if code != codes.Unavailable && code != codes.ResourceExhausted && code != codes.DeadlineExceeded {
			return nil, err
		}
		if attempt == g.cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > g.maxBackoff {
			backoff = g.maxBackoff
		}
	}
	return nil, last
}
