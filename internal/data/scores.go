package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/Kaanturkoglu/SIVAP/internal/persistence"
)

var scoreHeader = []string{
	"Müşteri Kodu",
	"Sözleşme No",
	"Score",
	"Probability",
	"Predicted",
}

// WriteScores persists one scoring run as CSV, highest probability first.
func WriteScores(path string, records []persistence.ScoreRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(scoreHeader); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.CustomerCode,
			rec.ContractNumber,
			strconv.FormatFloat(rec.Score, 'f', 6, 64),
			strconv.FormatFloat(rec.Probability, 'f', 6, 64),
			strconv.Itoa(rec.Predicted),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
