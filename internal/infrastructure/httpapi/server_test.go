package httpapi

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"signup-agent/internal/domain/entity"
)

func TestHandleStatus_BeforeAnyRun(t *testing.T) {
	s := &Server{}
	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest("GET", "/api/run/status", nil))

	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404 before the first broadcast", rec.Code)
	}
}

func TestHandleStatus_ReportsLatestBroadcast(t *testing.T) {
	s := &Server{}
	s.Notify(entity.StatusBroadcast{
		Action: entity.ActionBulkUpdate,
		Statuses: map[string]entity.JobStatusEntry{
			"shop": {Status: entity.JobInProgress, Message: "attempt 1"},
		},
	})

	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest("GET", "/api/run/status", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Action   string                           `json:"action"`
		Statuses map[string]entity.JobStatusEntry `json:"statuses"`
		Done     bool                             `json:"done"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Action != entity.ActionBulkUpdate || body.Done {
		t.Errorf("action=%s done=%v", body.Action, body.Done)
	}
	if body.Statuses["shop"].Status != entity.JobInProgress {
		t.Errorf("statuses = %+v", body.Statuses)
	}
}

func TestHandleStatus_DoneAfterCompleteBroadcast(t *testing.T) {
	s := &Server{}
	s.Notify(entity.StatusBroadcast{Action: entity.ActionBulkUpdate, Statuses: map[string]entity.JobStatusEntry{}})
	s.Notify(entity.StatusBroadcast{Action: entity.ActionBulkComplete, Statuses: map[string]entity.JobStatusEntry{}})

	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest("GET", "/api/run/status", nil))

	var body struct {
		Done bool `json:"done"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Done {
		t.Errorf("terminal broadcast must flip done")
	}
}
