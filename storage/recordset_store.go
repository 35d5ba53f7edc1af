package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"classic-hunt/models"
)

// FileRecordStore keeps one JSON file per model key under dir, each holding
// the ordered array of listing records. Files are read fully and rewritten
// fully on every reconciliation; there is no incremental format.
type FileRecordStore struct {
	dir string
}

// NewFileRecordStore creates the store directory if needed.
func NewFileRecordStore(dir string) (*FileRecordStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("records: create dir %q: %w", dir, err)
	}
	return &FileRecordStore{dir: dir}, nil
}

// Load reads the record set for one model. A missing file is the first run
// for that model and yields an empty set, not an error.
func (s *FileRecordStore) Load(key models.ModelKey) (models.RecordSet, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, key.FileName()))
	if os.IsNotExist(err) {
		return models.RecordSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("records: read %s: %w", key.FileName(), err)
	}

	var set models.RecordSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("records: parse %s: %w", key.FileName(), err)
	}
	return set, nil
}

// Save rewrites the model's file. The write goes to a temp file first and is
// renamed into place so a crash never leaves a half-written set behind.
func (s *FileRecordStore) Save(key models.ModelKey, set models.RecordSet) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("records: marshal %s: %w", key.FileName(), err)
	}

	path := filepath.Join(s.dir, key.FileName())
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("records: write %s: %w", key.FileName(), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("records: replace %s: %w", key.FileName(), err)
	}
	return nil
}

// Keys lists every model that has a persisted record set, sorted by file
// name. File names are "<brand>_<model>.json"; anything else is ignored.
func (s *FileRecordStore) Keys() ([]models.ModelKey, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("records: list dir: %w", err)
	}

	var keys []models.ModelKey
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		brand, model, ok := strings.Cut(strings.TrimSuffix(name, ".json"), "_")
		if !ok || brand == "" || model == "" {
			continue
		}
		keys = append(keys, models.ModelKey{Brand: brand, Model: model})
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].FileName() < keys[j].FileName() })
	return keys, nil
}
