package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alejandrodnm/arbgate/internal/domain"
)

// JSONStateStore guarda el DailyState en un fichero JSON.
type JSONStateStore struct {
	path string
}

// NewJSONStateStore no toca el disco hasta el primer Load/Save.
func NewJSONStateStore(path string) *JSONStateStore {
	return &JSONStateStore{path: path}
}

// Load devuelve el estado de hoy. Un fichero inexistente o corrupto se trata
// como estado vacío; un estado de otro día se reinicia.
func (s *JSONStateStore) Load(ctx context.Context, now time.Time) (domain.DailyState, error) {
	if err := ctx.Err(); err != nil {
		return domain.DailyState{}, err
	}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewDailyState(now), nil
	}
	if err != nil {
		return domain.DailyState{}, fmt.Errorf("storage.Load: read %q: %w", s.path, err)
	}

	var st domain.DailyState
	if err := json.Unmarshal(raw, &st); err != nil {
		slog.Warn("daily state unreadable, starting fresh", "path", s.path, "err", err)
		return domain.NewDailyState(now), nil
	}
	return st.ForDay(now), nil
}

// Save escribe el estado de forma atómica (tmp + rename).
func (s *JSONStateStore) Save(ctx context.Context, st domain.DailyState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("storage.Save: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("storage.Save: mkdir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("storage.Save: write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("storage.Save: rename: %w", err)
	}
	return nil
}
