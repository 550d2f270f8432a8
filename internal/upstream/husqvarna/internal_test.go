package husqvarna

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInternalGetToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "key-1" {
			t.Errorf("X-Api-Key = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Data struct {
				Type       string            `json:"type"`
				Attributes map[string]string `json:"attributes"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if payload.Data.Type != "token" || payload.Data.Attributes["username"] != "kh" {
			t.Errorf("body = %s", body)
		}
		w.Write([]byte(`{"data":{"id":"session-abc"}}`))
	}))
	defer srv.Close()

	c := NewInternalClient(srv.Client(), "key-1", "kh", "pw")
	c.iamURL = srv.URL

	token, err := c.GetToken(context.Background())
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if token != "session-abc" {
		t.Errorf("token = %q", token)
	}
}

func TestInternalDeviceEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer session-abc" {
			t.Errorf("Authorization = %q", got)
		}
		switch r.URL.Path {
		case "/mowers":
			w.Write([]byte(`[
				{"id":"int-a","model":"AM450X","status":{"mowerStatus":"OK_CUTTING","operatingMode":"AUTO"}},
				{"id":"int-b","model":"AM315","status":{"mowerStatus":"PARKED_PARKED_SELECTED","operatingMode":"HOME"}}
			]`))
		case "/mowers/int-a/status":
			w.Write([]byte(`{"lastLocations":[
				{"latitude":39.80,"longitude":-89.65},
				{"latitude":39.81,"longitude":-89.66}
			]}`))
		case "/mowers/int-a/geofence":
			w.Write([]byte(`{"centralPoint":{
				"location":{"latitude":39.8,"longitude":-89.65},
				"sensitivity":{"level":2,"radius":150}
			}}`))
		case "/mowers/int-a/settings":
			w.Write([]byte(`{"settings":[
				{"id":"cuttingHeight","value":6},
				{"id":"headlight","value":"auto"}
			]}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewInternalClient(srv.Client(), "key-1", "kh", "pw")
	c.baseURL = srv.URL
	ctx := context.Background()

	mowers, err := c.GetMowers(ctx, "session-abc")
	if err != nil {
		t.Fatalf("get mowers: %v", err)
	}
	if len(mowers) != 2 || mowers[0].ID != "int-a" || mowers[1].Status.OperatingMode != "HOME" {
		t.Errorf("mowers = %+v", mowers)
	}

	status, err := c.GetStatus(ctx, "int-a", "session-abc")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if len(status.LastLocations) != 2 || status.LastLocations[0].Latitude != 39.80 {
		t.Errorf("status = %+v", status)
	}

	geofence, err := c.GetGeofence(ctx, "int-a", "session-abc")
	if err != nil {
		t.Fatalf("get geofence: %v", err)
	}
	if geofence.Location.Longitude != -89.65 || geofence.Sensitivity.Radius != 150 {
		t.Errorf("geofence = %+v", geofence)
	}

	settings, err := c.GetSettings(ctx, "int-a", "session-abc")
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if len(settings) != 2 || settings[0].ID != "cuttingHeight" {
		t.Errorf("settings = %+v", settings)
	}
	if string(settings[0].Value) != "6" || string(settings[1].Value) != `"auto"` {
		t.Errorf("raw values = %s / %s", settings[0].Value, settings[1].Value)
	}
}
