package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vietmass/churchfinder/internal/church"
	"github.com/vietmass/churchfinder/internal/geocode"
	"github.com/vietmass/churchfinder/internal/scheduler"
	"github.com/vietmass/churchfinder/internal/scraper"
	"github.com/vietmass/churchfinder/internal/search"
	"github.com/vietmass/churchfinder/internal/storage"
	"github.com/vietmass/churchfinder/internal/updater"
)

type noopGeocoder struct{}

func (noopGeocoder) Geocode(context.Context, string) (geocode.Point, bool) {
	return geocode.Point{}, false
}

func newTestMux(t *testing.T, importRun ImportFunc, records ...*church.Record) *http.ServeMux {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "churches.json"))
	if err != nil {
		t.Fatalf("storage.New failed: %v", err)
	}
	for _, rec := range records {
		store.Append(rec)
	}

	// The updater points at an unroutable host; a triggered update
	// fails discovery and reports zero additions.
	sc, err := scraper.New("http://127.0.0.1:0", noopGeocoder{}, 0)
	if err != nil {
		t.Fatalf("scraper.New failed: %v", err)
	}
	up := updater.New(sc, store, noopGeocoder{})

	h := New(search.NewEngine(store), up, nil, importRun)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	var payload map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("%s %s: response is not JSON: %v\nbody: %s", method, path, err, rr.Body.String())
	}
	return rr, payload
}

func testRecord() *church.Record {
	rec := church.NewRecord("Nhà thờ Đức Bà", "Quận 1", []string{"17:30"}, "https://example.com/duc-ba")
	rec.SetCoordinate(10.0, 106.0)
	return rec
}

func TestSearchEndpoint(t *testing.T) {
	mux := newTestMux(t, nil, testRecord())

	rr, payload := doJSON(t, mux, http.MethodPost, "/search",
		`{"time_slot": "17:00", "lat": 10.0, "lng": 106.0, "radius_km": 5}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if payload["success"] != true {
		t.Error("success should be true")
	}
	churches, ok := payload["churches"].([]interface{})
	if !ok || len(churches) != 1 {
		t.Fatalf("churches = %v", payload["churches"])
	}
	first := churches[0].(map[string]interface{})
	if first["name"] != "Nhà thờ Đức Bà" {
		t.Errorf("name = %v", first["name"])
	}
	if first["distance"] != 0.0 {
		t.Errorf("distance = %v, want 0", first["distance"])
	}
}

func TestSearchEndpointValidation(t *testing.T) {
	mux := newTestMux(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"missing coordinates", `{"time_slot": "17:00"}`},
		{"missing time slot", `{"lat": 10.0, "lng": 106.0}`},
		{"malformed json", `{"time_slot": `},
		{"bad time slot", `{"time_slot": "25:99", "lat": 10.0, "lng": 106.0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, payload := doJSON(t, mux, http.MethodPost, "/search", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
			if payload["success"] != false {
				t.Error("success should be false")
			}
			if msg, _ := payload["error"].(string); msg == "" {
				t.Error("error message missing")
			}
		})
	}
}

func TestSearchEndpointMethodNotAllowed(t *testing.T) {
	mux := newTestMux(t, nil)

	rr, payload := doJSON(t, mux, http.MethodGet, "/search", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
	if payload["success"] != false {
		t.Error("success should be false")
	}
}

func TestNearbyEndpoint(t *testing.T) {
	mux := newTestMux(t, nil, testRecord())

	rr, payload := doJSON(t, mux, http.MethodPost, "/default-churches",
		`{"lat": 10.0, "lng": 106.0}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	churches, ok := payload["churches"].([]interface{})
	if !ok || len(churches) != 1 {
		t.Fatalf("churches = %v", payload["churches"])
	}

	rr, _ = doJSON(t, mux, http.MethodPost, "/default-churches", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status without coordinates = %d, want 400", rr.Code)
	}
}

func TestUpdateEndpoint(t *testing.T) {
	mux := newTestMux(t, nil)

	rr, payload := doJSON(t, mux, http.MethodPost, "/update-database", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if payload["success"] != true {
		t.Error("success should be true")
	}
	if payload["message"] != "Added 0 new churches to the database" {
		t.Errorf("message = %v", payload["message"])
	}
}

func TestUpdateEndpointIgnoresClientCancel(t *testing.T) {
	fixtures := http.NewServeMux()
	for path, fixture := range map[string]string{
		"/gio-le":                      "index.html",
		"/gio-le/nha-tho-duc-ba":       "detail_ducba.html",
		"/gio-le/giao-xu-tan-dinh":     "detail_tandinh.html",
		"/gio-le/nha-tho-khong-gio-le": "detail_notimes.html",
	} {
		data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "fixtures", fixture))
		if err != nil {
			t.Fatalf("reading fixture %s: %v", fixture, err)
		}
		fixtures.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
			w.Write(data)
		})
	}
	site := httptest.NewServer(fixtures)
	defer site.Close()

	store, err := storage.New(filepath.Join(t.TempDir(), "churches.json"))
	if err != nil {
		t.Fatalf("storage.New failed: %v", err)
	}
	sc, err := scraper.New(site.URL, noopGeocoder{}, 0)
	if err != nil {
		t.Fatalf("scraper.New failed: %v", err)
	}
	h := New(search.NewEngine(store), updater.New(sc, store, noopGeocoder{}), nil, nil)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// The client goes away before the update runs; the triggered cycle
	// must complete anyway.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/update-database", nil).WithContext(ctx)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if payload["message"] != "Added 2 new churches to the database" {
		t.Errorf("message = %v", payload["message"])
	}
	if store.Len() != 2 {
		t.Errorf("store has %d records, want 2", store.Len())
	}
}

func TestImportEndpoint(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		mux := newTestMux(t, nil)
		rr, payload := doJSON(t, mux, http.MethodPost, "/import-from-sheets", "")
		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rr.Code)
		}
		if payload["success"] != false {
			t.Error("success should be false")
		}
	})

	t.Run("configured", func(t *testing.T) {
		mux := newTestMux(t, func(context.Context) (int, error) { return 1, nil })
		rr, payload := doJSON(t, mux, http.MethodPost, "/import-from-sheets", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
		if payload["message"] != "Added 1 new church to the database" {
			t.Errorf("message = %v", payload["message"])
		}
	})

	t.Run("failing", func(t *testing.T) {
		mux := newTestMux(t, func(context.Context) (int, error) {
			return 0, errors.New("credentials rejected")
		})
		rr, payload := doJSON(t, mux, http.MethodPost, "/import-from-sheets", "")
		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rr.Code)
		}
		if payload["error"] != "credentials rejected" {
			t.Errorf("error = %v", payload["error"])
		}
	})
}

func TestStatusEndpoint(t *testing.T) {
	t.Run("no scheduler", func(t *testing.T) {
		mux := newTestMux(t, nil)
		rr, _ := doJSON(t, mux, http.MethodGet, "/update-status", "")
		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rr.Code)
		}
	})

	t.Run("running scheduler", func(t *testing.T) {
		store, err := storage.New(filepath.Join(t.TempDir(), "churches.json"))
		if err != nil {
			t.Fatalf("storage.New failed: %v", err)
		}
		sched := scheduler.New(func(context.Context) (int, error) { return 0, nil },
			time.Hour, time.UTC)
		sched.Start()
		defer sched.Stop()

		h := New(search.NewEngine(store), nil, sched, nil)
		mux := http.NewServeMux()
		h.RegisterRoutes(mux)

		rr, payload := doJSON(t, mux, http.MethodGet, "/update-status", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
		}
		next, _ := payload["next_update"].(string)
		if _, err := time.Parse("2006-01-02 15:04:05", next); err != nil {
			t.Errorf("next_update = %q: %v", next, err)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	mux := newTestMux(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Errorf("health = %d %q", rr.Code, rr.Body.String())
	}
}
