package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harunnryd/latentstage/pkg/errorsx"
	"github.com/harunnryd/latentstage/pkg/logging"
)

// JSONFile keeps the full archive as one JSON array on disk. Appends
// read-modify-write the file under a lock and replace it atomically, so a
// crash mid-write never corrupts earlier records.
type JSONFile struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{
		path:   path,
		logger: logging.NewComponentLogger(slog.Default(), "history_store"),
	}
}

func (s *JSONFile) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonStoreAppend)
	}
	records = append(records, rec)

	if err := s.replace(records); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonStoreAppend)
	}
	s.logger.Info("game archived",
		slog.String("id", rec.ID),
		slog.String("user", rec.User),
		slog.Int("total_records", len(records)))
	return nil
}

// Load returns every archived record.
func (s *JSONFile) Load() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *JSONFile) load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *JSONFile) replace(records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

var _ Store = (*JSONFile)(nil)
