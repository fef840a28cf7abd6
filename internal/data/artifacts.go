package data

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Kaanturkoglu/SIVAP/internal/domain/encoding"
)

// MarshalAlphabet encodes a CategoryAlphabet to its stored JSON form.
func MarshalAlphabet(a *encoding.Alphabet) ([]byte, error) {
	raw, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode alphabet: %w", err)
	}
	return raw, nil
}

// UnmarshalAlphabet decodes a stored CategoryAlphabet.
func UnmarshalAlphabet(raw []byte) (*encoding.Alphabet, error) {
	var a encoding.Alphabet
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("failed to decode alphabet: %w", err)
	}
	return &a, nil
}

// SaveAlphabet persists the CategoryAlphabet as JSON, the durable artifact
// the scoring path reloads verbatim.
func SaveAlphabet(path string, a *encoding.Alphabet) error {
	raw, err := MarshalAlphabet(a)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("features", len(a.Features)).Msg("category alphabet written")
	return nil
}

// LoadAlphabet reads a stored CategoryAlphabet back.
func LoadAlphabet(path string) (*encoding.Alphabet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alphabet %s: %w", path, err)
	}
	var a encoding.Alphabet
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("failed to decode alphabet %s: %w", path, err)
	}
	return &a, nil
}

// WriteBaseProfile writes the human-readable (feature, base category) table
// handed to the model collaborator alongside the feature table.
func WriteBaseProfile(path string, a *encoding.Alphabet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	feats := make([]string, 0, len(a.Features))
	for name := range a.Features {
		feats = append(feats, name)
	}
	sort.Strings(feats)

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Feature", "Base_Category"}); err != nil {
		return err
	}
	for _, name := range feats {
		if err := w.Write([]string{name, a.Features[name].Base}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// LoadCoefficients reads the coefficient artifact produced by the external
// training collaborator: rows of flat "<feature>_<category>" keys and
// weights, with an optional Intercept row. Keys that match no known feature
// are skipped with a warning so a renamed column cannot silently shift
// scores.
func LoadCoefficients(path string, intercept float64, featureNames []string) (*encoding.Model, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.require("Feature", "Coefficient"); err != nil {
		return nil, err
	}

	model := encoding.NewModel(intercept)
	skipped := 0
	for _, rec := range t.rows {
		key := t.get(rec, "Feature")
		w, err := strconv.ParseFloat(t.get(rec, "Coefficient"), 64)
		if err != nil {
			continue
		}
		if strings.EqualFold(key, "intercept") {
			model.Intercept = w
			continue
		}
		feature, category, ok := encoding.ParseKey(key, featureNames)
		if !ok {
			skipped++
			continue
		}
		model.Add(feature, category, w)
	}
	if skipped > 0 {
		log.Warn().Int("rows", skipped).Msg("coefficient keys matched no known feature")
	}
	log.Info().Str("source", path).Int("coefficients", len(model.Weights)).
		Float64("intercept", model.Intercept).Msg("coefficient model loaded")
	return model, nil
}
