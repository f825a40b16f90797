package search

import (
	"path/filepath"
	"testing"

	"github.com/vietmass/churchfinder/internal/church"
	"github.com/vietmass/churchfinder/internal/storage"
)

// Query origin for the tests below. At this latitude, 0.009 degrees of
// latitude is about 1 km.
const (
	originLat = 10.0
	originLng = 106.0
)

func newTestEngine(t *testing.T, records ...*church.Record) *Engine {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "churches.json"))
	if err != nil {
		t.Fatalf("storage.New failed: %v", err)
	}
	for _, rec := range records {
		store.Append(rec)
	}
	return NewEngine(store)
}

func record(name, url string, times []string, latOffset float64) *church.Record {
	rec := church.NewRecord(name, "địa chỉ "+name, times, url)
	rec.SetCoordinate(originLat+latOffset, originLng)
	return rec
}

func TestSearchTimeWindow(t *testing.T) {
	// 2 km away, mass at 17:30: inside the 60-minute window of 17:00.
	near := record("Nhà thờ Gần", "https://example.com/gan", []string{"17:30"}, 0.018)
	// 1 km away but mass at 19:00: 120 minutes from the target.
	wrongTime := record("Nhà thờ Lệch Giờ", "https://example.com/lech", []string{"19:00"}, 0.009)

	engine := newTestEngine(t, near, wrongTime)

	results, err := engine.Search("17:00", originLat, originLng, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Name != "Nhà thờ Gần" {
		t.Errorf("matched %q", results[0].Name)
	}
	if results[0].DistanceKm != 2.0 {
		t.Errorf("DistanceKm = %v, want 2.0", results[0].DistanceKm)
	}
}

func TestSearchRadiusExcludesExactTimeMatch(t *testing.T) {
	// Exact time match but 8 km out: the radius filter wins.
	far := record("Nhà thờ Xa", "https://example.com/xa", []string{"17:00"}, 0.072)
	engine := newTestEngine(t, far)

	results, err := engine.Search("17:00", originLat, originLng, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestSearchSkipsRecordsWithoutCoordinate(t *testing.T) {
	noCoord := church.NewRecord("Nhà thờ Chưa Định Vị", "Quận 1", []string{"17:00"}, "https://example.com/chua")
	engine := newTestEngine(t, noCoord)

	results, err := engine.Search("17:00", originLat, originLng, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestSearchNoMidnightWraparound(t *testing.T) {
	lateMass := record("Nhà thờ Khuya", "https://example.com/khuya", []string{"23:50"}, 0.009)
	engine := newTestEngine(t, lateMass)

	// 23:50 is 20 minutes before 00:10 on the clock face, but the
	// minutes-of-day difference is 1420.
	results, err := engine.Search("00:10", originLat, originLng, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestSearchSortedByDistanceStable(t *testing.T) {
	far := record("Nhà thờ Thứ Ba", "https://example.com/ba", []string{"17:00"}, 0.027)
	tieA := record("Nhà thờ Thứ Nhất", "https://example.com/nhat", []string{"17:00"}, 0.009)
	tieB := record("Nhà thờ Thứ Hai", "https://example.com/hai", []string{"17:00"}, -0.009)

	// Dataset order: far first, then the two at equal distance.
	engine := newTestEngine(t, far, tieA, tieB)

	results, err := engine.Search("17:00", originLat, originLng, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Name != "Nhà thờ Thứ Nhất" || results[1].Name != "Nhà thờ Thứ Hai" {
		t.Errorf("tie order = %q, %q; dataset order must be kept among equal distances",
			results[0].Name, results[1].Name)
	}
	if results[2].Name != "Nhà thờ Thứ Ba" {
		t.Errorf("farthest result = %q", results[2].Name)
	}
}

func TestSearchDefaultRadius(t *testing.T) {
	within := record("Nhà thờ Bốn Km", "https://example.com/bon", []string{"17:00"}, 0.036)
	beyond := record("Nhà thờ Tám Km", "https://example.com/tam", []string{"17:00"}, 0.072)
	engine := newTestEngine(t, within, beyond)

	results, err := engine.Search("17:00", originLat, originLng, 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Nhà thờ Bốn Km" {
		t.Errorf("default radius results = %v", names(results))
	}
}

func TestSearchInvalidTimeSlot(t *testing.T) {
	engine := newTestEngine(t)

	for _, slot := range []string{"", "1700", "25:00", "17:60", "ab:cd"} {
		if _, err := engine.Search(slot, originLat, originLng, 5); err == nil {
			t.Errorf("Search(%q) should fail", slot)
		}
	}
}

func TestNearbyIgnoresTimes(t *testing.T) {
	morningOnly := record("Nhà thờ Sáng", "https://example.com/sang", []string{"05:30"}, 0.009)
	noCoord := church.NewRecord("Nhà thờ Chưa Định Vị", "Quận 1", []string{"17:00"}, "https://example.com/chua")
	engine := newTestEngine(t, morningOnly, noCoord)

	results := engine.Nearby(originLat, originLng, 5)
	if len(results) != 1 || results[0].Name != "Nhà thờ Sáng" {
		t.Errorf("Nearby results = %v", names(results))
	}
	if results[0].DistanceKm != 1.0 {
		t.Errorf("DistanceKm = %v, want 1.0", results[0].DistanceKm)
	}
}

func names(results []*Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Name
	}
	return out
}
