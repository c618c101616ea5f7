package clients

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeClip(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunk0.wav")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHTTPASRTranscribe(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		reader := multipart.NewReader(r.Body, params["boundary"])
		part, err := reader.NextPart()
		if err != nil {
			t.Errorf("read part: %v", err)
			return
		}
		data, _ := io.ReadAll(part)
		if part.FormName() != "file" || part.FileName() != "chunk0.wav" || string(data) != "RIFF" {
			t.Errorf("unexpected part %q %q %q", part.FormName(), part.FileName(), data)
		}
		_ = json.NewEncoder(w).Encode(ASRResp{Segments: []TransSeg{{Start: 0, End: 0.4, Text: " seven."}, {Text: "eight"}}})
	}))
	defer server.Close()

	asr := NewHTTPASR(NewHTTP(5*time.Second), server.URL+"/")
	got, err := asr.Transcribe(context.Background(), writeClip(t, "RIFF"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "SEVEN" {
		t.Errorf("Transcribe = %q, want SEVEN", got)
	}
}

func TestHTTPASRNoResultAndErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		noResult bool
	}{
		{"empty text", http.StatusOK, `{"text":"  ","segments":[]}`, true},
		{"blank segments", http.StatusOK, `{"segments":[{"text":" "},{"text":"..."}]}`, true},
		{"no content", http.StatusNoContent, ``, true},
		{"server error", http.StatusInternalServerError, `boom`, false},
		{"not found", http.StatusNotFound, `no such route`, false},
		{"bad json", http.StatusOK, `{`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewHTTPASR(NewHTTP(time.Second), server.URL).Transcribe(context.Background(), writeClip(t, "x"))
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrNoResult) != tt.noResult {
				t.Errorf("err = %v, ErrNoResult want %v", err, tt.noResult)
			}
		})
	}
}

func TestFirstWord(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"three", "THREE", false},
		{"  12 apples", "12", false},
		{"Nine.", "NINE", false},
		{"", "", true},
		{" ... ", "", true},
	}
	for _, tt := range tests {
		got, err := firstWord(tt.in)
		if got != tt.want || (err != nil) != tt.err {
			t.Errorf("firstWord(%q) = %q, %v", tt.in, got, err)
		}
	}
}
