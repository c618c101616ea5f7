package clients

import (
	"context"
	"errors"
	"strings"
)

// ErrNoResult is returned when an engine heard nothing it could transcribe.
var ErrNoResult = errors.New("transcriber: no result")

// Transcriber turns one response clip into the first recognized word.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, clipPath string) (string, error)
}

// CacheKeyer is implemented by engines whose answers depend on settings
// beyond the engine name. The key replaces Name in cache lookups.
type CacheKeyer interface {
	CacheKey() string
}

func cacheKey(t Transcriber) string {
	if k, ok := t.(CacheKeyer); ok {
		return k.CacheKey()
	}
	return t.Name()
}

// TranscriberFunc adapts a function to Transcriber.
type TranscriberFunc struct {
	ID string
	Fn func(ctx context.Context, clipPath string) (string, error)
}

func (f TranscriberFunc) Name() string { return f.ID }

func (f TranscriberFunc) Transcribe(ctx context.Context, clipPath string) (string, error) {
	return f.Fn(ctx, clipPath)
}

// firstWord returns the upper-cased first word of text, or ErrNoResult.
func firstWord(text string) (string, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", ErrNoResult
	}
	w := strings.Trim(fields[0], ".,!?;:\"'")
	if w == "" {
		return "", ErrNoResult
	}
	return strings.ToUpper(w), nil
}
