package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogEntryShape(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug, &buf)

	l.Info("update finished", Fields{"added": 2, "total": 10})

	var e map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("entry is not JSON: %v\noutput: %s", err, buf.String())
	}
	if e["level"] != "INFO" {
		t.Errorf("level = %v", e["level"])
	}
	if e["message"] != "update finished" {
		t.Errorf("message = %v", e["message"])
	}
	fields, ok := e["fields"].(map[string]interface{})
	if !ok || fields["added"] != 2.0 {
		t.Errorf("fields = %v", e["fields"])
	}
	ts, _ := e["timestamp"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("timestamp %q: %v", ts, err)
	}
}

func TestMinLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelWarn, &buf)

	l.Debug("noise", nil)
	l.Info("noise", nil)
	if buf.Len() != 0 {
		t.Fatalf("messages below min level leaked: %s", buf.String())
	}

	l.Warn("kept", nil)
	l.Error("kept too", nil, errors.New("boom"))
	lines := strings.Count(strings.TrimSpace(buf.String()), "\n") + 1
	if lines != 2 {
		t.Errorf("got %d lines, want 2", lines)
	}
	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Error("error value missing from entry")
	}
}

func TestFieldsOmittedWhenNil(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelInfo, &buf)

	l.Info("plain", nil)
	if strings.Contains(buf.String(), `"fields"`) {
		t.Errorf("nil fields should be omitted: %s", buf.String())
	}
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.IncrCounter("update.records_added", 2)
	m.IncrCounter("update.records_added", 3)
	m.RecordTiming("update.cycle", 2*time.Second)
	m.RecordTiming("update.cycle", 4*time.Second)

	snap := m.Snapshot()

	counters := snap["counters"].(map[string]int64)
	if counters["update.records_added"] != 5 {
		t.Errorf("counter = %d, want 5", counters["update.records_added"])
	}

	timings := snap["timings"].(map[string]map[string]string)
	cycle := timings["update.cycle"]
	if cycle["count"] != "2" {
		t.Errorf("count = %q", cycle["count"])
	}
	if cycle["total"] != "6s" {
		t.Errorf("total = %q", cycle["total"])
	}
	if cycle["average"] != "3s" {
		t.Errorf("average = %q", cycle["average"])
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	m := NewMetrics()
	m.IncrCounter("pages", 1)

	snap := m.Snapshot()
	m.IncrCounter("pages", 1)

	if snap["counters"].(map[string]int64)["pages"] != 1 {
		t.Error("snapshot must not observe later increments")
	}
}
