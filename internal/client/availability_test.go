package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckReportsReachableSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testConfig("SC", server.URL, nil)
	ac := NewAvailabilityClient(cfg, NewHTTPClient(cfg))

	if !ac.Check(context.Background(), "SC") {
		t.Error("reachable source reported unavailable")
	}
}

func TestCheckFailuresReadAsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	cfg := testConfig("SC", server.URL, nil)
	ac := NewAvailabilityClient(cfg, NewHTTPClient(cfg))

	if ac.Check(context.Background(), "SC") {
		t.Error("5xx source reported available")
	}

	server.Close()
	if ac.Check(context.Background(), "SC") {
		t.Error("dead server reported available")
	}

	if ac.Check(context.Background(), "ZZ") {
		t.Error("unconfigured state reported available")
	}
}

func TestLastModified(t *testing.T) {
	modified := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", modified.Format(http.TimeFormat))
	}))
	defer server.Close()

	cfg := testConfig("ES", server.URL, nil)
	ac := NewAvailabilityClient(cfg, NewHTTPClient(cfg))

	got := ac.LastModified(context.Background(), "ES")
	if got == nil || !got.Equal(modified) {
		t.Errorf("LastModified = %v, want %v", got, modified)
	}
}

func TestLastModifiedAbsentHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	cfg := testConfig("ES", server.URL, nil)
	ac := NewAvailabilityClient(cfg, NewHTTPClient(cfg))

	if got := ac.LastModified(context.Background(), "ES"); got != nil {
		t.Errorf("LastModified = %v, want nil", got)
	}
}
