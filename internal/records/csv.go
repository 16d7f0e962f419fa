package records

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/llm-d-incubation/session-matcher/api/v1alpha1"
	"github.com/llm-d-incubation/session-matcher/internal/logging"
	"github.com/llm-d-incubation/session-matcher/internal/utils/names"
)

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false
	return reader
}

// readRows reads every row, stopping at the first syntax error.
func readRows(r io.Reader) ([][]string, error) {
	reader := newCSVReader(r)
	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		rows = append(rows, row)
	}
}

// ReadStudents parses student rows: SID, GRADE, CHOICE_1, ...
func ReadStudents(ctx context.Context, r io.Reader, opts LoadOptions) ([]v1alpha1.StudentRecord, LoadStats, error) {
	logger := logging.FromContext(ctx)
	rows, err := readRows(r)
	if err != nil {
		return nil, LoadStats{}, err
	}

	stats := LoadStats{Rows: len(rows)}
	seen := make(map[string]int, len(rows))
	out := make([]v1alpha1.StudentRecord, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			stats.Skipped++
			logger.V(logging.DEBUG).Info("Skipping short student row", "line", i+1)
			continue
		}
		grade, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			stats.Skipped++
			logger.V(logging.DEBUG).Info("Skipping student row without integer grade", "line", i+1, "grade", row[1])
			continue
		}
		record := v1alpha1.StudentRecord{
			ID:      strings.TrimSpace(row[0]),
			Grade:   grade,
			Choices: names.CanonicalAll(row[2:], opts.Mode),
		}
		if err := record.Validate(); err != nil {
			stats.Skipped++
			logger.V(logging.DEBUG).Info("Skipping invalid student row", "line", i+1, "error", err)
			continue
		}
		if opts.MaxChoices > 0 && len(record.Choices) > opts.MaxChoices {
			record.Choices = record.Choices[:opts.MaxChoices]
		}
		if first, exists := seen[record.ID]; exists {
			stats.Duplicates++
			logger.Info("Duplicate student id - first row wins",
				"id", record.ID, "winningLine", first, "duplicateLine", i+1)
			continue
		}
		seen[record.ID] = i + 1
		out = append(out, record)
	}
	stats.Loaded = len(out)
	return out, stats, nil
}

// ReadSessions parses session rows: CLASSNAME, NUM_SPACES
func ReadSessions(ctx context.Context, r io.Reader, opts LoadOptions) ([]v1alpha1.SessionRecord, LoadStats, error) {
	logger := logging.FromContext(ctx)
	rows, err := readRows(r)
	if err != nil {
		return nil, LoadStats{}, err
	}

	stats := LoadStats{Rows: len(rows)}
	var candidates []v1alpha1.SessionRecord
	for i, row := range rows {
		if len(row) < 2 {
			stats.Skipped++
			logger.V(logging.DEBUG).Info("Skipping short session row", "line", i+1)
			continue
		}
		capacity, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			stats.Skipped++
			logger.V(logging.DEBUG).Info("Skipping session row without integer capacity", "line", i+1, "capacity", row[1])
			continue
		}
		candidates = append(candidates, v1alpha1.SessionRecord{
			Name:     names.Canonical(row[0], opts.Mode),
			Capacity: capacity,
		})
	}
	out, dropped, dups := dedupeSessions(ctx, candidates)
	stats.Skipped += dropped
	stats.Duplicates = dups
	stats.Loaded = len(out)
	return out, stats, nil
}

// dedupeSessions drops invalid records and keeps the last record of every
// name, at the position of its first occurrence.
func dedupeSessions(ctx context.Context, in []v1alpha1.SessionRecord) ([]v1alpha1.SessionRecord, int, int) {
	logger := logging.FromContext(ctx)
	index := make(map[string]int, len(in))
	out := make([]v1alpha1.SessionRecord, 0, len(in))
	dropped, dups := 0, 0
	for _, record := range in {
		if err := record.Validate(); err != nil {
			dropped++
			logger.V(logging.DEBUG).Info("Skipping invalid session", "name", record.Name, "error", err)
			continue
		}
		if pos, exists := index[record.Name]; exists {
			dups++
			logger.Info("Duplicate session name - last row wins",
				"name", record.Name, "previousCapacity", out[pos].Capacity, "capacity", record.Capacity)
			out[pos] = record
			continue
		}
		index[record.Name] = len(out)
		out = append(out, record)
	}
	return out, dropped, dups
}
