package data

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Kaanturkoglu/SIVAP/internal/domain/pricing"
)

// ParsePriceIndex decodes the published year x month index table. The first
// column is the year; the following twelve columns are January..December.
// Rows whose first cell is not a year (headers, footnotes) are skipped, and
// blank cells stay zero (unpublished months).
func ParsePriceIndex(raw []byte) (*pricing.PriceIndex, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1

	idx := &pricing.PriceIndex{Rows: make(map[int][12]float64)}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read price index row: %w", err)
		}
		if len(rec) < 2 {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil || year < 1900 || year > 2200 {
			continue
		}
		var months [12]float64
		for m := 0; m < 12 && m+1 < len(rec); m++ {
			cell := strings.ReplaceAll(strings.TrimSpace(rec[m+1]), ",", ".")
			if cell == "" {
				continue
			}
			if v, err := strconv.ParseFloat(cell, 64); err == nil {
				months[m] = v
			}
		}
		idx.Rows[year] = months
	}
	if len(idx.Rows) == 0 {
		return nil, fmt.Errorf("price index table contains no year rows")
	}
	return idx, nil
}

// LoadPriceIndex reads the index table from a local file.
func LoadPriceIndex(path string) (*pricing.PriceIndex, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read price index %s: %w", path, err)
	}
	return ParsePriceIndex(raw)
}
