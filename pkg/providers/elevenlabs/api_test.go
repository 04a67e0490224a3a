package elevenlabs

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientDo(t *testing.T) {
	t.Run("attaches api key and passes body through", func(t *testing.T) {
		var gotPath, gotKey, gotBody string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotKey = r.Header.Get("xi-api-key")
			buf, _ := io.ReadAll(r.Body)
			gotBody = string(buf)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"agent_id":"a1"}`))
		}))
		defer srv.Close()

		c := NewClient("secret-key", srv.URL, srv.Client())
		body, err := c.CreateAgent(context.Background(), []byte(`{"name":"helper"}`))
		if err != nil {
			t.Fatalf("CreateAgent returned error: %v", err)
		}
		if gotPath != "/convai/agents/create" {
			t.Errorf("path = %q", gotPath)
		}
		if gotKey != "secret-key" {
			t.Errorf("xi-api-key = %q", gotKey)
		}
		if gotBody != `{"name":"helper"}` {
			t.Errorf("body = %q", gotBody)
		}
		if string(body) != `{"agent_id":"a1"}` {
			t.Errorf("response = %q", body)
		}
	})

	t.Run("non-2xx becomes APIError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"invalid api key"}`))
		}))
		defer srv.Close()

		c := NewClient("bad-key", srv.URL, srv.Client())
		_, err := c.ListAgents(context.Background())

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", apiErr.StatusCode)
		}
		if apiErr.Body != `{"detail":"invalid api key"}` {
			t.Errorf("body = %q", apiErr.Body)
		}
	})

	t.Run("path routing", func(t *testing.T) {
		var gotPath, gotMethod string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotMethod = r.Method
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		c := NewClient("k", srv.URL, srv.Client())

		tests := []struct {
			name       string
			call       func() error
			wantMethod string
			wantPath   string
		}{
			{"get agent", func() error { _, err := c.GetAgent(context.Background(), "a7"); return err }, http.MethodGet, "/convai/agents/a7"},
			{"list conversations", func() error { _, err := c.ListConversations(context.Background()); return err }, http.MethodGet, "/convai/conversations"},
			{"get conversation", func() error { _, err := c.GetConversation(context.Background(), "c3"); return err }, http.MethodGet, "/convai/conversations/c3"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if err := tt.call(); err != nil {
					t.Fatalf("call returned error: %v", err)
				}
				if gotMethod != tt.wantMethod || gotPath != tt.wantPath {
					t.Errorf("got %s %s, want %s %s", gotMethod, gotPath, tt.wantMethod, tt.wantPath)
				}
			})
		}
	})
}
