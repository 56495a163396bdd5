package hierarchy

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadCSV parses a hierarchy from CSV without a header. Each record is one
// value chain: raw value first, then its image at each successive level.
func ReadCSV(r io.Reader) (*Hierarchy, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read hierarchy CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("hierarchy CSV is empty")
	}

	depth := len(records[0])
	levels := make([][]string, depth)
	for l := range levels {
		levels[l] = make([]string, 0, len(records))
	}

	for i, record := range records {
		if len(record) != depth {
			return nil, fmt.Errorf("hierarchy CSV row %d has %d columns, expected %d", i, len(record), depth)
		}
		for l, v := range record {
			levels[l] = append(levels[l], strings.TrimSpace(v))
		}
	}

	return New(levels)
}

// ReadCSVFile loads a hierarchy from a CSV file on disk.
func ReadCSVFile(path string) (*Hierarchy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(f)
}
