package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(StatusResponse{Running: true, PID: 123})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.PID != 123 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestClientUsagePassesDays(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(UsageResponse{TotalDownloads: 4})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	usage, err := client.Usage(context.Background(), 7)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if gotQuery != "days=7" {
		t.Errorf("expected days=7 query, got %q", gotQuery)
	}
	if usage.TotalDownloads != 4 {
		t.Errorf("unexpected totals: %+v", usage)
	}
}

func TestClientSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "store unavailable"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if _, err := client.Jobs(context.Background()); err == nil {
		t.Fatal("expected error")
	} else if !strings.Contains(err.Error(), "store unavailable") {
		t.Errorf("expected API error message, got %v", err)
	}
}

func TestNewClientAddsScheme(t *testing.T) {
	client := NewClient("127.0.0.1:7979")
	if client.baseURL != "http://127.0.0.1:7979" {
		t.Errorf("unexpected base URL %q", client.baseURL)
	}
}

func TestClientUnconfiguredAddress(t *testing.T) {
	client := NewClient("")
	if _, err := client.Status(context.Background()); err == nil {
		t.Fatal("expected error for empty address")
	}
}
