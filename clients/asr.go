package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

type TransSeg struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
type ASRResp struct {
	Text     string     `json:"text"`
	Segments []TransSeg `json:"segments"`
	Language string     `json:"language"`
}

// FullText is the top-level text, or the segment texts joined when the
// service only fills segments.
func (r *ASRResp) FullText() string {
	if strings.TrimSpace(r.Text) != "" {
		return r.Text
	}
	parts := make([]string, 0, len(r.Segments))
	for _, s := range r.Segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// ASR uploads one clip to the service's /transcribe endpoint. A 204 reply
// means the service heard nothing and yields an empty response.
func (h *HTTP) ASR(ctx context.Context, baseURL, clipPath string) (*ASRResp, error) {
	body, contentType, err := clipForm(clipPath)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/transcribe", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("asr %s: %w", filepath.Base(clipPath), err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return &ASRResp{}, nil
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("asr %s: %s: %s", filepath.Base(clipPath), resp.Status, strings.TrimSpace(string(msg)))
	}

	var out ASRResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("asr %s decode: %w", filepath.Base(clipPath), err)
	}
	return &out, nil
}

// clipForm wraps a clip file in a multipart body under the "file" field.
func clipForm(clipPath string) (*bytes.Buffer, string, error) {
	fd, err := os.Open(clipPath)
	if err != nil {
		return nil, "", err
	}
	defer fd.Close()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	fw, err := w.CreateFormFile("file", filepath.Base(clipPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(fw, fd); err != nil {
		return nil, "", fmt.Errorf("read clip %s: %w", clipPath, err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &b, w.FormDataContentType(), nil
}

// HTTPASR is the local speech service used as the fallback engine.
type HTTPASR struct {
	http *HTTP
	url  string
}

func NewHTTPASR(h *HTTP, url string) *HTTPASR {
	return &HTTPASR{http: h, url: strings.TrimRight(url, "/")}
}

func (a *HTTPASR) Name() string { return "http_asr" }

// CacheKey keeps answers from different services apart.
func (a *HTTPASR) CacheKey() string { return a.Name() + "/" + a.url }

// Transcribe returns the first word the service heard, or ErrNoResult.
func (a *HTTPASR) Transcribe(ctx context.Context, clipPath string) (string, error) {
	resp, err := a.http.ASR(ctx, a.url, clipPath)
	if err != nil {
		return "", err
	}
	return firstWord(resp.FullText())
}
