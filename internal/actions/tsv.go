package actions

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Row is one pending-action sheet row. Values are keyed by header column;
// unknown columns round-trip untouched so operator edits survive rewrites.
type Row map[string]string

// Sheet is a parsed tab-delimited action sheet. Columns preserves the
// file's header order; rewrites reproduce it exactly.
type Sheet struct {
	Columns []string
	Rows    []Row
}

// ReadSheet parses a tab-delimited sheet with a header row.
func ReadSheet(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sheet: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse sheet %s: %w", path, err)
	}
	if len(records) == 0 {
		return &Sheet{}, nil
	}

	s := &Sheet{Columns: records[0]}
	for _, rec := range records[1:] {
		row := make(Row, len(s.Columns))
		for i, col := range s.Columns {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		s.Rows = append(s.Rows, row)
	}
	return s, nil
}

func writeRecords(w *csv.Writer, columns []string, rows []Row) error {
	if err := w.Write(columns); err != nil {
		return err
	}
	rec := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			rec[i] = row[col]
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteSheet rewrites the sheet in place with the given rows, preserving
// column order.
func WriteSheet(path string, columns []string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to rewrite sheet: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	if err := writeRecords(w, columns, rows); err != nil {
		return fmt.Errorf("failed to write sheet %s: %w", path, err)
	}
	return nil
}

// appendHistory appends rows plus an applied_at column to the history
// file, writing the header when the file does not yet exist.
func appendHistory(path string, columns []string, rows []Row, appliedAt string) error {
	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	histCols := append(append([]string{}, columns...), "applied_at")
	if writeHeader {
		if err := w.Write(histCols); err != nil {
			return fmt.Errorf("failed to write history header: %w", err)
		}
	}
	rec := make([]string, len(histCols))
	for _, row := range rows {
		for i, col := range columns {
			rec[i] = row[col]
		}
		rec[len(histCols)-1] = appliedAt
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to append history row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush history file: %w", err)
	}
	return nil
}
