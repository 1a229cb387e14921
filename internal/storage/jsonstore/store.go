// Package jsonstore persists balances as a JSON object in a single file.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lox/blackjackbot/internal/fileutil"
)

const filePerm = 0o600

// Store reads and writes {"player": chips, ...}
type Store struct {
	path string
}

// legacyRecord is the per-player object layout {"chips": N, "bet": 0}
type legacyRecord struct {
	Chips *int64 `json:"chips"`
}

// Open returns a store for path. The file is created on first save.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	return &Store{path: path}, nil
}

// Path returns the backing file
func (s *Store) Path() string {
	return s.path
}

// Load reads the file. A missing or empty file yields no balances. Values may
// be plain integers or objects with a "chips" field.
func (s *Store) Load(ctx context.Context) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]int64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]int64{}, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}

	balances := make(map[string]int64, len(raw))
	for player, value := range raw {
		chips, err := decodeChips(value)
		if err != nil {
			return nil, fmt.Errorf("decode balance for %q: %w", player, err)
		}
		balances[player] = chips
	}
	return balances, nil
}

func decodeChips(value json.RawMessage) (int64, error) {
	var chips int64
	if err := json.Unmarshal(value, &chips); err == nil {
		return chips, nil
	}

	var rec legacyRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		return 0, err
	}
	if rec.Chips == nil {
		return 0, fmt.Errorf("missing chips field")
	}
	return *rec.Chips, nil
}

// Save replaces the file with balances
func (s *Store) Save(ctx context.Context, balances map[string]int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fileutil.WriteAtomic(s.path, filePerm, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		return enc.Encode(balances)
	})
}

// Close is a no-op; nothing is held open between saves
func (s *Store) Close() error {
	return nil
}
