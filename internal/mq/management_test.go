package mq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shaiso/Courier/internal/domain"
)

func TestManagementClient_GetQueue(t *testing.T) {
	var gotPath, gotUser, gotPass string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotUser, gotPass, _ = r.BasicAuth()

		switch r.URL.EscapedPath() {
		case "/api/queues/%2F/orders":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"orders","vhost":"/","durable":false,"exclusive":false,"auto_delete":true,"messages":3}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Object Not Found","reason":"Not Found"}`))
		}
	}))
	defer srv.Close()

	rawURL := strings.Replace(srv.URL, "http://", "http://admin:secret@", 1)
	c, err := NewManagementClient(rawURL, "")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	spec, err := c.GetQueue(context.Background(), "orders")
	if err != nil {
		t.Fatalf("get queue: %v", err)
	}

	want := domain.NewQueue("orders", false, false, true)
	if spec == nil || *spec != want {
		t.Errorf("expected %v, got %v", want, spec)
	}
	if gotPath != "/api/queues/%2F/orders" {
		t.Errorf("vhost should be escaped, got path %s", gotPath)
	}
	if gotUser != "admin" || gotPass != "secret" {
		t.Errorf("expected basic auth admin/secret, got %s/%s", gotUser, gotPass)
	}
}

func TestManagementClient_GetQueue_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c, _ := NewManagementClient(srv.URL, "/")

	spec, err := c.GetQueue(context.Background(), "missing")
	if err != nil {
		t.Fatalf("404 should not be an error: %v", err)
	}
	if spec != nil {
		t.Errorf("expected nil for absent queue, got %v", spec)
	}
}

func TestManagementClient_GetQueue_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, _ := NewManagementClient(srv.URL, "prod")

	_, err := c.GetQueue(context.Background(), "q")
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("expected error with status code, got %v", err)
	}
}

func TestNewManagementClient_InvalidURL(t *testing.T) {
	if _, err := NewManagementClient("amqp://localhost:5672", "/"); err == nil {
		t.Error("expected error for non-http scheme")
	}
}
