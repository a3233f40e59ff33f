package api

import (
	"net/http"
	"testing"
)

func TestListDevices_Empty(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodGet, "/api/v1/devices", token, "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if int(decodeBody(t, w)["count"].(float64)) != 0 {
		t.Error("expected no devices")
	}
}

func TestCreateAndGetDevice(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/devices", token,
		`{"type": "light", "name": "Hall Light"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	created := decodeBody(t, w)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("expected device ID to be generated")
	}
	if created["type"] != "light" {
		t.Errorf("type = %v, want light", created["type"])
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/devices/"+id, token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", w.Code, http.StatusOK)
	}
	if decodeBody(t, w)["name"] != "Hall Light" {
		t.Error("expected the created device back")
	}
}

func TestCreateDevice_UnsupportedType(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/devices", token,
		`{"type": "teleporter", "name": "Pad"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestGetDevice_NotFound(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodGet, "/api/v1/devices/dev-missing", token, "")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDeviceOnOff(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/devices", token,
		`{"type": "light", "name": "Hall Light"}`)
	id, _ := decodeBody(t, w)["id"].(string)

	w = doJSON(t, router, http.MethodPost, "/api/v1/devices/"+id+"/on", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("on status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if decodeBody(t, w)["on"] != true {
		t.Error("expected device to be on")
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/devices/"+id+"/off", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("off status = %d, want %d", w.Code, http.StatusOK)
	}
	if decodeBody(t, w)["on"] != false {
		t.Error("expected device to be off")
	}
}

func TestSetBrightness(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/devices", token,
		`{"type": "light", "name": "Dimmer"}`)
	id, _ := decodeBody(t, w)["id"].(string)

	w = doJSON(t, router, http.MethodPost, "/api/v1/devices/"+id+"/brightness", token,
		`{"level": 40}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	state := decodeBody(t, w)["state"].(map[string]any)
	if state["brightness"] != float64(40) {
		t.Errorf("brightness = %v, want 40", state["brightness"])
	}
}

func TestSetBrightness_OutOfRange(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/devices", token,
		`{"type": "light", "name": "Dimmer"}`)
	id, _ := decodeBody(t, w)["id"].(string)

	w = doJSON(t, router, http.MethodPost, "/api/v1/devices/"+id+"/brightness", token,
		`{"level": 150}`)

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
}

func TestSetBrightness_NotALight(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/devices", token,
		`{"type": "thermostat", "name": "Hallway"}`)
	id, _ := decodeBody(t, w)["id"].(string)

	w = doJSON(t, router, http.MethodPost, "/api/v1/devices/"+id+"/brightness", token,
		`{"level": 40}`)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestSetTemperature(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/devices", token,
		`{"type": "thermostat", "name": "Lounge"}`)
	id, _ := decodeBody(t, w)["id"].(string)

	w = doJSON(t, router, http.MethodPost, "/api/v1/devices/"+id+"/temperature", token,
		`{"celsius": 22.5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	state := decodeBody(t, w)["state"].(map[string]any)
	if state["temperature"] != 22.5 {
		t.Errorf("temperature = %v, want 22.5", state["temperature"])
	}
}

func TestLockUnlock(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/devices", token,
		`{"type": "door_lock", "name": "Front Door"}`)
	id, _ := decodeBody(t, w)["id"].(string)

	w = doJSON(t, router, http.MethodPost, "/api/v1/devices/"+id+"/unlock", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("unlock status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if decodeBody(t, w)["on"] != false {
		t.Error("expected lock to be disengaged")
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/devices/"+id+"/lock", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("lock status = %d, want %d", w.Code, http.StatusOK)
	}
	if decodeBody(t, w)["on"] != true {
		t.Error("expected lock to be engaged")
	}
}

func TestDeleteDevice(t *testing.T) {
	srv, token := testServer(t)
	router := srv.buildRouter()

	w := doJSON(t, router, http.MethodPost, "/api/v1/devices", token,
		`{"type": "coffee_maker", "name": "Kitchen"}`)
	id, _ := decodeBody(t, w)["id"].(string)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/devices/"+id, token, "")
	if w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want %d", w.Code, http.StatusNoContent)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/devices/"+id, token, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
