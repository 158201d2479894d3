package httpcache

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientCachesGET(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	client := NewClient(New(100, time.Minute, nil), srv.Client(), nil)

	for i := 0; i < 3; i++ {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/data", http.NoBody)
		if err != nil {
			t.Fatal(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("Do() error: %v", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatal(err)
		}
		if string(body) != "payload" {
			t.Errorf("body = %q, want payload", body)
		}
		if i > 0 && resp.Header.Get("X-From-Cache") != "true" {
			t.Errorf("request %d not served from cache", i)
		}
	}

	if hits != 1 {
		t.Errorf("origin hit %d times, want 1", hits)
	}
}

func TestClientSkipsErrorResponses(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(New(100, time.Minute, nil), srv.Client(), nil)

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("Do() error: %v", err)
		}
		resp.Body.Close()
	}

	if hits != 2 {
		t.Errorf("origin hit %d times, want 2 (errors not cached)", hits)
	}
}

func TestClientDistinctURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	client := NewClient(New(100, time.Minute, nil), srv.Client(), nil)

	for _, path := range []string{"/a", "/b"} {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+path, http.NoBody)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("Do() error: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if string(body) != path {
			t.Errorf("body = %q, want %q", body, path)
		}
	}
}
