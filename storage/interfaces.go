package storage

import "classic-hunt/models"

// RecordStore persists per-model record sets. One model is one independent
// unit of failure: a write error is fatal for that model's reconciliation
// only.
type RecordStore interface {
	Load(key models.ModelKey) (models.RecordSet, error)
	Save(key models.ModelKey, set models.RecordSet) error
	Keys() ([]models.ModelKey, error)
}

// ListingArchiver records the full reconciled state of a model for one run
// in long-term storage.
type ListingArchiver interface {
	ArchiveRun(runID string, key models.ModelKey, set models.RecordSet) error
	Close() error
}
