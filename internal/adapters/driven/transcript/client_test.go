package transcript

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcript" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		switch r.URL.Query().Get("video_id") {
		case "abc123":
			w.Write([]byte(`{"text":"  hello from the talk  "}`))
		case "seg":
			w.Write([]byte(`{"segments":[{"text":"one"},{"text":" "},{"text":"two"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second)
	ctx := context.Background()

	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=abc123&t=30s", "hello from the talk"},
		{"https://youtu.be/seg", "one two"},
		{"https://youtu.be/missing", ""},
		{"https://example.com/watch?v=abc123", ""},
	}

	for _, tt := range tests {
		got, err := c.Fetch(ctx, tt.url)
		if err != nil {
			t.Errorf("Fetch(%q) unexpected error: %v", tt.url, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Fetch(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestClient_Fetch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second).Fetch(context.Background(), "https://youtu.be/abc")
	if err == nil {
		t.Error("expected error for server failure")
	}
}

func TestClient_Fetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, 20*time.Millisecond).Fetch(context.Background(), "https://youtu.be/abc")
	if err == nil {
		t.Error("expected timeout error")
	}
}
