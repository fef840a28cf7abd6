// Package data ingests the tabular exports the pipeline consumes. All sources
// are column-name-addressed: readers locate columns via the header row, fail
// fast when a required column is absent, and coerce unparseable dates to the
// zero time (treated as unknown downstream).
package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

var dateFormats = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"02.01.2006",
}

// table is one parsed export: a header index plus raw records.
type table struct {
	source  string
	columns map[string]int
	rows    [][]string
}

// readTable loads a whole CSV export into memory. The first record is the
// header; header names are trimmed.
func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	t := &table{source: path, columns: make(map[string]int, len(header))}
	for i, name := range header {
		t.columns[strings.TrimSpace(name)] = i
	}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row of %s: %w", path, err)
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

// require fails the run when a join-key or target column is missing,
// naming both the column and the source.
func (t *table) require(columns ...string) error {
	for _, c := range columns {
		if _, ok := t.columns[c]; ok {
			continue
		}
		if alias, ok := columnAliases[c]; ok {
			if _, okAlias := t.columns[alias]; okAlias {
				t.columns[c] = t.columns[alias]
				continue
			}
		}
		return fmt.Errorf("source %s is missing required column %q", t.source, c)
	}
	return nil
}

// columnAliases maps canonical header names to the abbreviated spellings some
// exports use.
var columnAliases = map[string]string{
	colCustomerCode:   "Müş. Kodu",
	colContractNumber: "Sözleşme No.",
}

func (t *table) get(row []string, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *table) getDate(row []string, column string) time.Time {
	return parseDate(t.get(row, column))
}

func (t *table) getFloat(row []string, column string) float64 {
	s := t.get(row, column)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseDate tries the known export formats; anything unparseable becomes the
// zero time and propagates as "unknown".
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
