package data

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Kaanturkoglu/SIVAP/internal/domain/events"
)

const (
	colMemberCode = "Kodu"
	colMembership = "Üyelik"
	colEntryTime  = "Giriş Tarihi"
	colExitTime   = "Çıkış Tarihi"
	colCallDate   = "Tarih"
)

// LoadVisits reads every check-in/out export in dir (zero or more files) and
// concatenates them. A file that cannot be read fails the run; the logs are a
// primary feature source, not best-effort.
func LoadVisits(dir string) ([]events.Visit, error) {
	paths, err := listTabular(dir)
	if err != nil {
		return nil, err
	}

	var out []events.Visit
	for _, path := range paths {
		t, err := readTable(path)
		if err != nil {
			return nil, err
		}
		if err := t.require(colMemberCode, colEntryTime, colExitTime); err != nil {
			return nil, err
		}
		for _, row := range t.rows {
			out = append(out, events.Visit{
				CustomerCode: t.get(row, colMemberCode),
				Membership:   t.get(row, colMembership),
				Entry:        t.getDate(row, colEntryTime),
				Exit:         t.getDate(row, colExitTime),
			})
		}
		log.Debug().Str("source", path).Msg("visit log loaded")
	}
	log.Info().Str("dir", dir).Int("rows", len(out)).Msg("visit logs loaded")
	return out, nil
}

// LoadCalls reads every outbound-call export in dir and concatenates them.
func LoadCalls(dir string) ([]events.Call, error) {
	paths, err := listTabular(dir)
	if err != nil {
		return nil, err
	}

	var out []events.Call
	for _, path := range paths {
		t, err := readTable(path)
		if err != nil {
			return nil, err
		}
		if err := t.require(colMemberCode, colCallDate); err != nil {
			return nil, err
		}
		for _, row := range t.rows {
			out = append(out, events.Call{
				CustomerCode: t.get(row, colMemberCode),
				Date:         t.getDate(row, colCallDate),
			})
		}
		log.Debug().Str("source", path).Msg("call log loaded")
	}
	log.Info().Str("dir", dir).Int("rows", len(out)).Msg("call logs loaded")
	return out, nil
}

func listTabular(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}
