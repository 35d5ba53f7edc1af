package storage

import (
	"testing"
	"time"

	"classic-hunt/models"
)

func TestFileRecordStoreMissingFile(t *testing.T) {
	store, err := NewFileRecordStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	set, err := store.Load(models.ModelKey{Brand: "audi", Model: "80"})
	if err != nil {
		t.Fatalf("Load of untracked model: %v; want empty set, no error", err)
	}
	if len(set) != 0 {
		t.Errorf("set = %v; want empty", set)
	}
}

func TestFileRecordStoreRoundTrip(t *testing.T) {
	store, err := NewFileRecordStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := models.ModelKey{Brand: "audi", Model: "80"}

	seen := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	in := models.RecordSet{{
		Link:       "https://x/1",
		Title:      "Audi 80 1.8S",
		Price:      "9.500 €",
		Status:     models.StatusActive,
		FirstSeen:  seen,
		LastUpdate: seen,
	}}
	if err := store.Save(key, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := store.Load(key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len = %d; want 1", len(out))
	}
	if *out[0] != *in[0] {
		t.Errorf("round trip mismatch:\n  %+v\n  %+v", *out[0], *in[0])
	}
}

func TestFileRecordStoreKeys(t *testing.T) {
	store, err := NewFileRecordStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for _, key := range []models.ModelKey{
		{Brand: "bmw", Model: "e30"},
		{Brand: "audi", Model: "80"},
	} {
		if err := store.Save(key, models.RecordSet{}); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("keys = %v; want 2", keys)
	}
	if keys[0] != (models.ModelKey{Brand: "audi", Model: "80"}) {
		t.Errorf("keys = %v; want audi first", keys)
	}
}
