package api

import (
	"net/http"
	"testing"
	"time"
)

func TestScheduleLifecycle(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	light := createLight(t, router, token, "Bedroom Light")

	past := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339)
	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)

	w := doJSON(t, router, http.MethodPost, "/api/v1/schedules", token,
		`{"name": "lights on", "execution_time": "`+past+`", "device_id": "`+light+`", "command": "turn_on"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d; body: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/schedules", token,
		`{"name": "lights off later", "execution_time": "`+future+`", "device_id": "`+light+`", "command": "turn_off"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d; body: %s", w.Code, w.Body.String())
	}

	// Only the past entry is due.
	w = doJSON(t, router, http.MethodPost, "/api/v1/schedules/run-due", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("run-due status = %d; body: %s", w.Code, w.Body.String())
	}
	if int(decodeBody(t, w)["count"].(float64)) != 1 {
		t.Error("expected exactly one due entry to run")
	}

	// The scheduled action switched the light on.
	w = doJSON(t, router, http.MethodGet, "/api/v1/devices/"+light, token, "")
	if decodeBody(t, w)["on"] != true {
		t.Error("expected light to be on after running due schedules")
	}

	// The future entry remains.
	w = doJSON(t, router, http.MethodGet, "/api/v1/schedules", token, "")
	if int(decodeBody(t, w)["count"].(float64)) != 1 {
		t.Error("expected one pending entry")
	}

	// Clear it.
	w = doJSON(t, router, http.MethodDelete, "/api/v1/schedules", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("clear status = %d", w.Code)
	}
	if int(decodeBody(t, w)["removed"].(float64)) != 1 {
		t.Error("expected one entry removed")
	}
}

func TestCreateSchedule_BadCommand(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	light := createLight(t, router, token, "Bedroom Light")
	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)

	w := doJSON(t, router, http.MethodPost, "/api/v1/schedules", token,
		`{"name": "bad", "execution_time": "`+future+`", "device_id": "`+light+`", "command": "dance"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestDeleteSchedule_NotFound(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodDelete, "/api/v1/schedules/sch-missing", token, "")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
