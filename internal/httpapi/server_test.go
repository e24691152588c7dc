package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/terradraw-core/internal/geometry"
	"github.com/mohammed-shakir/terradraw-core/internal/metrics"
	"github.com/mohammed-shakir/terradraw-core/internal/model"
	"github.com/mohammed-shakir/terradraw-core/internal/store"
)

func TestServer_Healthz(t *testing.T) {
	s := New(Config{Addr: ":0"}, zerolog.Nop(), store.New(), nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("body=%q want ok", rec.Body.String())
	}
}

func TestServer_ExportImportFeatures(t *testing.T) {
	st := store.New()
	if _, err := st.Create([]store.CreateEntry{{
		Geometry:   model.NewPoint(geometry.Point{Lng: 1, Lat: 2}),
		Properties: model.Properties{model.PropMode: "point"},
	}}); err != nil {
		t.Fatalf("seed create: %v", err)
	}

	s := New(Config{Addr: ":0"}, zerolog.Nop(), st, metrics.Init(metrics.Config{Namespace: "test_httpapi"}), nil)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/features", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("export status=%d want 200", rec.Code)
	}
	var fc model.FeatureCollection
	if err := json.Unmarshal(rec.Body.Bytes(), &fc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 exported feature, got %d", len(fc.Features))
	}

	body, err := json.Marshal(model.NewFeatureCollection([]model.Feature{{
		Geometry:   model.NewPoint(geometry.Point{Lng: 5, Lat: 6}),
		Properties: model.Properties{model.PropMode: "point"},
	}}))
	if err != nil {
		t.Fatalf("marshal import body: %v", err)
	}
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/features", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("import status=%d want 200, body=%s", rec.Code, rec.Body.String())
	}
	if len(st.CopyAll()) != 2 {
		t.Fatalf("expected 2 features after import, got %d", len(st.CopyAll()))
	}
}

func TestServer_DeleteFeatureNotFound(t *testing.T) {
	s := New(Config{Addr: ":0"}, zerolog.Nop(), store.New(), nil, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/features/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d want 404", rec.Code)
	}
}

func TestServer_ImportAndDeleteNotifyOnChange(t *testing.T) {
	st := store.New()
	var changes []string
	s := New(Config{Addr: ":0"}, zerolog.Nop(), st, nil, func(ids []string, op string) {
		changes = append(changes, op)
	})

	body, err := json.Marshal(model.NewFeatureCollection([]model.Feature{{
		Geometry:   model.NewPoint(geometry.Point{Lng: 3, Lat: 4}),
		Properties: model.Properties{model.PropMode: "point"},
	}}))
	if err != nil {
		t.Fatalf("marshal import body: %v", err)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/features", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("import status=%d want 200, body=%s", rec.Code, rec.Body.String())
	}
	var imported struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &imported); err != nil {
		t.Fatalf("decode import response: %v", err)
	}
	if len(imported.IDs) != 1 {
		t.Fatalf("expected 1 imported id, got %v", imported.IDs)
	}

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/features/"+imported.IDs[0], nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d want 204", rec.Code)
	}

	if len(changes) != 2 || changes[0] != "create" || changes[1] != "delete" {
		t.Fatalf("expected onChange(create) then onChange(delete), got %v", changes)
	}
}
