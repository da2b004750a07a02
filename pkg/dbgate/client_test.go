package dbgate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientQuery(t *testing.T) {
	t.Parallel()

	var got apiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"reply": []map[string]string{{"table_name": "users"}},
			"error": "OK",
		})
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, APIKey: "secret", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	env, err := c.Query(context.Background(), "show tables")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !env.OK() {
		t.Fatalf("expected ok envelope, got %q", env.Error)
	}
	if got.Task != "database" || got.APIKey != "secret" || got.Query != "show tables" {
		t.Fatalf("unexpected request: %+v", got)
	}

	var rows []map[string]string
	if err := json.Unmarshal(env.Reply, &rows); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if len(rows) != 1 || rows[0]["table_name"] != "users" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestClientQueryDomainError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"reply": nil,
			"error": `syntax error at or near "SELEC"`,
		})
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, APIKey: "secret"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	env, err := c.Query(context.Background(), "SELEC 1")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if env.OK() {
		t.Fatal("expected domain error envelope")
	}
	if env.Error != `syntax error at or near "SELEC"` {
		t.Fatalf("unexpected error field: %q", env.Error)
	}
}

func TestClientQueryTransportFailures(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(Config{URL: srv.URL, APIKey: "secret"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := c.Query(context.Background(), "show tables"); err == nil {
		t.Fatal("expected error on http 500")
	}
	if _, err := c.Query(context.Background(), "   "); err == nil {
		t.Fatal("expected error on empty query")
	}
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{URL: "", APIKey: "k"}); err == nil {
		t.Fatal("expected error for missing url")
	}
	if _, err := NewClient(Config{URL: "http://example.test", APIKey: "  "}); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := NewClient(Config{URL: "::not-a-url", APIKey: "k"}); err == nil {
		t.Fatal("expected error for invalid url")
	}
}
