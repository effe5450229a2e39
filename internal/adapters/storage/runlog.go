package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/alejandrodnm/arbgate/internal/domain"
)

// JSONLRunLog añade una línea JSON por evento a un fichero append-only.
type JSONLRunLog struct {
	path string
	mu   sync.Mutex
}

// NewJSONLRunLog crea el directorio del fichero si no existe.
func NewJSONLRunLog(path string) (*JSONLRunLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("storage.NewJSONLRunLog: mkdir %q: %w", path, err)
	}
	return &JSONLRunLog{path: path}, nil
}

// Append escribe el evento. Cada llamada abre y cierra el fichero: los runs
// son cortos y así otro proceso puede rotarlo entre runs.
func (l *JSONLRunLog) Append(ctx context.Context, ev domain.LogEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("storage.Append: marshal %s: %w", ev.Kind, err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("storage.Append: open %q: %w", l.path, err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("storage.Append: write %q: %w", l.path, err)
	}
	return nil
}
