package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"classic-hunt/config"
	"classic-hunt/models"
	"classic-hunt/storage"
	"classic-hunt/utils"
)

func newTestServer(t *testing.T) (*Server, storage.RecordStore, *storage.ReportStore) {
	t.Helper()

	records, err := storage.NewFileRecordStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	reports, err := storage.NewReportStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	cfg := &config.Settings{HTTP: config.HTTPSettings{Addr: ":0"}}
	hunt := &config.Hunt{
		Cars:           []config.CarSearch{{Brand: "audi", Model: "80"}},
		NewListingDays: 3,
	}
	return NewServer(cfg, hunt, records, reports, utils.NewLogger()), records, reports
}

func doGet(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestServeReportContent(t *testing.T) {
	srv, _, reports := newTestServer(t)

	name, err := reports.SaveReport("report body text", time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}

	rec := doGet(t, srv, "/api/reports/"+name)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}
	if rec.Body.String() != "report body text" {
		t.Errorf("body = %q; want the raw report text", rec.Body.String())
	}

	if rec := doGet(t, srv, "/api/reports/missing.txt"); rec.Code != http.StatusNotFound {
		t.Errorf("missing report: status = %d; want 404", rec.Code)
	}
}

// The listings API serves every persisted model, including searches no
// longer enabled in the hunt definition.
func TestServeListingsAllPersistedModels(t *testing.T) {
	srv, records, _ := newTestServer(t)

	for _, key := range []models.ModelKey{
		{Brand: "audi", Model: "80"},
		{Brand: "bmw", Model: "e30"},
	} {
		set := models.RecordSet{{Link: "https://x/" + key.Model, Status: models.StatusActive}}
		if err := records.Save(key, set); err != nil {
			t.Fatal(err)
		}
	}

	rec := doGet(t, srv, "/api/listings")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rec.Code)
	}

	var out map[string]models.RecordSet
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("models served = %v; want both persisted models", out)
	}
	if _, ok := out["Bmw E30"]; !ok {
		t.Errorf("non-enabled persisted model missing: %v", out)
	}
}

func TestServeHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rec := doGet(t, srv, "/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d; want 200", rec.Code)
	}
}
