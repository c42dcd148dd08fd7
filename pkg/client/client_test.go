package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Request(t *testing.T) {
	tests := []struct {
		name          string
		serverStatus  int
		serverBody    interface{}
		wantAllocated bool
		wantPrevented bool
		wantErr       bool
	}{
		{
			name:          "Allocated",
			serverStatus:  http.StatusOK,
			serverBody:    RequestResult{Success: true, Allocated: true},
			wantAllocated: true,
		},
		{
			name:          "Prevented",
			serverStatus:  http.StatusOK,
			serverBody:    RequestResult{Success: false, Prevented: true, Cycle: []string{"P1", "R2", "P2", "R1", "P1"}},
			wantPrevented: true,
		},
		{
			name:         "NotFound",
			serverStatus: http.StatusNotFound,
			serverBody:   map[string]string{"error": "process not found"},
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/request" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method %s", r.Method)
				}
				var req map[string]string
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode request: %v", err)
				}
				if req["processId"] != "P1" || req["resourceId"] != "R1" {
					t.Errorf("unexpected request body %+v", req)
				}
				w.WriteHeader(tt.serverStatus)
				json.NewEncoder(w).Encode(tt.serverBody)
			}))
			defer ts.Close()

			c := NewClient(ts.URL)
			result, err := c.Request(context.Background(), "P1", "R1")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("expected APIError, got %T", err)
				}
				if apiErr.StatusCode != tt.serverStatus {
					t.Errorf("status = %d; want %d", apiErr.StatusCode, tt.serverStatus)
				}
				return
			}
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			if result.Allocated != tt.wantAllocated || result.Prevented != tt.wantPrevented {
				t.Errorf("unexpected result %+v", result)
			}
		})
	}
}

func TestClient_DefaultEndpoint(t *testing.T) {
	c := NewClient("")
	if c.endpoint != "http://127.0.0.1:8090" {
		t.Errorf("unexpected default endpoint %s", c.endpoint)
	}
}

func TestClient_Status(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Status{
			Status:          "DEADLOCK",
			ActiveProcesses: 2,
			Cycle:           []string{"P1", "R2", "P2", "R1", "P1"},
		})
	}))
	defer ts.Close()

	status, err := NewClient(ts.URL).Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Status != "DEADLOCK" || len(status.Cycle) != 5 {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestClient_DaemonUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1") // nothing listens here
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected error for unreachable daemon")
	}
}

func TestClient_RecoverConflict(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "no deadlock detected"})
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL).Recover(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict APIError, got %v", err)
	}
}
