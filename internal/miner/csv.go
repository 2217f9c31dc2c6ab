package miner

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/ternarybob/searadar/internal/models"
)

// ReadCSV reads a mined events file back into records. The header must
// match the miner's output shape.
func ReadCSV(path string) ([]models.NewsEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mined events file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read mined events CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("mined events CSV %s is empty", path)
	}

	if len(rows[0]) != len(csvHeader) {
		return nil, fmt.Errorf("mined events CSV %s: unexpected header %v", path, rows[0])
	}
	for i, name := range csvHeader {
		if rows[0][i] != name {
			return nil, fmt.Errorf("mined events CSV %s: unexpected header column %q, want %q", path, rows[0][i], name)
		}
	}

	events := make([]models.NewsEvent, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < len(csvHeader) {
			return nil, fmt.Errorf("mined events CSV row %d: expected %d columns, got %d", i+2, len(csvHeader), len(row))
		}
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("mined events CSV row %d: invalid GlobalEventID %q: %w", i+2, row[0], err)
		}
		tone, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("mined events CSV row %d: invalid Tone %q: %w", i+2, row[3], err)
		}
		events = append(events, models.NewsEvent{
			GlobalEventID: id,
			Day:           row[1],
			Country:       row[2],
			Tone:          tone,
			SourceURL:     row[4],
		})
	}

	return events, nil
}
