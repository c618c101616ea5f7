package orchestrator

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/maastricht-university/pasat-pipeline/scoring"
)

// LoadTrial reads the stimulus sequence written by the test runner:
// 1st number, 2nd number, correct answer, stimulus time from start (s).
func LoadTrial(path string) ([]scoring.Stimulus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readTrial(f)
}

func readTrial(r io.Reader) ([]scoring.Stimulus, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("trial csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("trial csv: missing header")
	}

	var out []scoring.Stimulus
	for n, rec := range records[1:] {
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		if len(rec) < 4 {
			return nil, fmt.Errorf("trial csv line %d: want 4 columns, got %d", n+2, len(rec))
		}
		var ints [3]int
		for c := 0; c < 3; c++ {
			if ints[c], err = strconv.Atoi(strings.TrimSpace(rec[c])); err != nil {
				return nil, fmt.Errorf("trial csv line %d column %d: %w", n+2, c+1, err)
			}
		}
		at, err := strconv.ParseFloat(strings.TrimSpace(rec[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("trial csv line %d column 4: %w", n+2, err)
		}
		if len(out) > 0 && at <= out[len(out)-1].Presentation {
			return nil, fmt.Errorf("trial csv line %d: stimulus time %v not after %v", n+2, at, out[len(out)-1].Presentation)
		}
		out = append(out, scoring.Stimulus{
			Index:        len(out),
			First:        ints[0],
			Second:       ints[1],
			Expected:     ints[2],
			Presentation: at,
		})
	}
	return out, nil
}
