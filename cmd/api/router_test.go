package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stowage/service/internal/auth"
	"github.com/stowage/service/internal/cache"
	"github.com/stowage/service/internal/config"
	"github.com/stowage/service/internal/file"
	"github.com/stowage/service/internal/storage"
)

func newTestServer(t *testing.T, authOnRead bool) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{
		DatabaseURL: "sqlite://:memory:",
		APIKey:      "secret-key",
		JWTSecret:   "jwt-secret",
		AuthOnRead:  authOnRead,
		CORSOrigins: []string{"*"},
	}

	repo, closeDB, err := openRepository(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("openRepository() error: %v", err)
	}
	t.Cleanup(closeDB)

	fileSvc := file.NewService(repo, storage.NewMemoryStore(), cache.NewMemory(16, time.Minute), logger, file.Options{
		StoreType: storage.TypeMemory,
	})
	authSvc := auth.NewService(cfg.APIKey, cfg.JWTSecret)

	srv := httptest.NewServer(newRouter(cfg, logger, fileSvc,
		file.NewHandler(fileSvc, file.Limits{File: 1 << 20}, logger), authSvc, auth.NewHandler(authSvc)))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRouter_Endpoints(t *testing.T) {
	srv := newTestServer(t, false)

	tests := []struct {
		name       string
		method     string
		path       string
		apiKey     string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK},
		{name: "list without key", method: http.MethodGet, path: "/files", wantStatus: http.StatusForbidden},
		{name: "list with wrong key", method: http.MethodGet, path: "/files", apiKey: "nope", wantStatus: http.StatusUnauthorized},
		{name: "list with key", method: http.MethodGet, path: "/files", apiKey: "secret-key", wantStatus: http.StatusOK},
		{name: "stream is public", method: http.MethodGet, path: "/files/missing.txt", wantStatus: http.StatusNotFound},
		{name: "delete without key", method: http.MethodDelete, path: "/files/delete/x", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			if tt.apiKey != "" {
				req.Header.Set("X-API-Key", tt.apiKey)
			}
			if resp := do(t, req); resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestRouter_AuthOnRead(t *testing.T) {
	srv := newTestServer(t, true)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("files", "note.txt")
	_, _ = fw.Write([]byte("hi"))
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/files/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-API-Key", "secret-key")
	up := do(t, req)
	if up.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d, want 200", up.StatusCode)
	}
	var env struct {
		Data []file.Record `json:"data"`
	}
	if err := json.NewDecoder(up.Body).Decode(&env); err != nil || len(env.Data) != 1 {
		t.Fatalf("decode upload response: %v (%d records)", err, len(env.Data))
	}
	streamURL := srv.URL + "/files/" + env.Data[0].Name

	req, _ = http.NewRequest(http.MethodGet, streamURL, nil)
	if resp := do(t, req); resp.StatusCode != http.StatusForbidden {
		t.Errorf("anonymous stream status = %d, want 403", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, streamURL, nil)
	req.Header.Set("X-API-Key", "secret-key")
	resp := do(t, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream status = %d, want 200", resp.StatusCode)
	}
	if got, _ := io.ReadAll(resp.Body); string(got) != "hi" {
		t.Errorf("stream body = %q, want %q", got, "hi")
	}
}
