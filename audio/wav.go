// Package audio loads the session recording, finds its non-silent ranges and
// cuts per-response clips for transcription.
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Recording is a mono signal with samples in [-1, 1].
type Recording struct {
	Samples    []float64
	SampleRate int
}

func Load(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("wav %s: not a valid PCM wav file", path)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("wav %s: missing format", path)
	}

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(d.BitDepth)
	}
	if depth <= 0 {
		return nil, errors.New("wav: unknown bit depth")
	}
	scale := math.Pow(2, float64(depth-1))

	ch := buf.Format.NumChannels
	if ch <= 0 {
		ch = 1
	}
	n := len(buf.Data) / ch
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i*ch+c])
		}
		samples[i] = sum / float64(ch) / scale
	}
	return &Recording{Samples: samples, SampleRate: buf.Format.SampleRate}, nil
}

// WriteWAV writes the recording as 16-bit mono PCM.
func (r *Recording) WriteWAV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	data := make([]int, len(r.Samples))
	for i, s := range r.Samples {
		data[i] = int(math.Round(clamp(s, -1, 1) * 32767.0))
	}
	enc := wav.NewEncoder(f, r.SampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: r.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav %s: %w", path, err)
	}
	return enc.Close()
}

func (r *Recording) DurationMs() int {
	if r.SampleRate == 0 {
		return 0
	}
	return len(r.Samples) * 1000 / r.SampleRate
}

func (r *Recording) sampleAt(ms int) int {
	i := ms * r.SampleRate / 1000
	if i < 0 {
		return 0
	}
	if i > len(r.Samples) {
		return len(r.Samples)
	}
	return i
}

// Slice returns the part between two offsets in ms. Samples are shared.
func (r *Recording) Slice(startMs, endMs int) *Recording {
	a, b := r.sampleAt(startMs), r.sampleAt(endMs)
	if b < a {
		b = a
	}
	return &Recording{Samples: r.Samples[a:b], SampleRate: r.SampleRate}
}

// DBFS is the loudness of the whole recording; -Inf when silent.
func (r *Recording) DBFS() float64 {
	return toDB(rms(r.Samples))
}

// Normalize returns a copy whose overall loudness is targetDBFS.
func (r *Recording) Normalize(targetDBFS float64) *Recording {
	out := &Recording{Samples: make([]float64, len(r.Samples)), SampleRate: r.SampleRate}
	cur := r.DBFS()
	if math.IsInf(cur, -1) {
		copy(out.Samples, r.Samples)
		return out
	}
	gain := math.Pow(10, (targetDBFS-cur)/20)
	for i, s := range r.Samples {
		out.Samples[i] = clamp(s*gain, -1, 1)
	}
	return out
}

func rms(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x * x
	}
	return math.Sqrt(s / float64(len(xs)))
}

func toDB(ratio float64) float64 {
	if ratio <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(ratio)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
