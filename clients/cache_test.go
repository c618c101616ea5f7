package clients

import (
	"context"
	"errors"
	"os"
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

func TestCacheWrap(t *testing.T) {
	c, err := OpenCache(CacheOptions{InMemory: true})
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer c.Close()

	calls := 0
	tok, terr := "FIVE", error(nil)
	inner := TranscriberFunc{ID: "google_speech", Fn: func(ctx context.Context, _ string) (string, error) {
		calls++
		return tok, terr
	}}
	tr := c.Wrap(inner)
	clip := writeClip(t, "clip-a")

	for i := 0; i < 2; i++ {
		got, err := tr.Transcribe(context.Background(), clip)
		if err != nil || got != "FIVE" {
			t.Fatalf("Transcribe #%d = %q, %v", i, got, err)
		}
	}
	if calls != 1 {
		t.Errorf("inner calls = %d, want 1", calls)
	}

	// new content is a new key; no-result answers are cached too
	if err := os.WriteFile(clip, []byte("clip-b"), 0o644); err != nil {
		t.Fatal(err)
	}
	tok, terr = "", ErrNoResult
	for i := 0; i < 2; i++ {
		if _, err := tr.Transcribe(context.Background(), clip); !errors.Is(err, ErrNoResult) {
			t.Fatalf("Transcribe #%d err = %v, want ErrNoResult", i, err)
		}
	}
	if calls != 2 {
		t.Errorf("inner calls = %d, want 2", calls)
	}
}

func TestCacheSkipsTransportErrors(t *testing.T) {
	c, err := OpenCache(CacheOptions{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	calls := 0
	tr := c.Wrap(TranscriberFunc{ID: "http_asr", Fn: func(ctx context.Context, _ string) (string, error) {
		calls++
		return "", errors.New("connection refused")
	}})
	clip := writeClip(t, "clip")
	for i := 0; i < 2; i++ {
		if _, err := tr.Transcribe(context.Background(), clip); err == nil {
			t.Fatal("expected error")
		}
	}
	if calls != 2 {
		t.Errorf("inner calls = %d, want 2", calls)
	}
}

func TestOpenCacheNeedsDir(t *testing.T) {
	if _, err := OpenCache(CacheOptions{}); err == nil {
		t.Fatal("OpenCache without Dir should fail")
	}
}

func TestCacheKeyFollowsRecognitionSettings(t *testing.T) {
	c, err := OpenCache(CacheOptions{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	engine := func(cfg GoogleConfig, tok string, calls *int) Transcriber {
		return c.Wrap(newGoogleSpeech(cfg, func(ctx context.Context, r *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
			*calls++
			return recognized(tok), nil
		}))
	}
	clip := writeClip(t, "RIFF")

	var first, second, third int
	if got, _ := engine(GoogleConfig{LanguageCode: "en-US"}, "four", &first).Transcribe(context.Background(), clip); got != "FOUR" {
		t.Fatalf("en-US = %q", got)
	}
	if got, _ := engine(GoogleConfig{LanguageCode: "en-GB"}, "for", &second).Transcribe(context.Background(), clip); got != "FOR" {
		t.Errorf("en-GB served %q from the en-US entry", got)
	}
	if got, _ := engine(GoogleConfig{LanguageCode: "en-US", Model: "latest_short"}, "fore", &third).Transcribe(context.Background(), clip); got != "FORE" {
		t.Errorf("latest_short served %q from the default model entry", got)
	}
	if first != 1 || second != 1 || third != 1 {
		t.Errorf("engine calls = %d %d %d, want one each", first, second, third)
	}

	var again int
	if got, _ := engine(GoogleConfig{LanguageCode: "en-US"}, "other", &again).Transcribe(context.Background(), clip); got != "FOUR" || again != 0 {
		t.Errorf("same settings: got %q after %d calls, want cached FOUR", got, again)
	}
}
