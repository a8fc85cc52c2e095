package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandler_IssueToken(t *testing.T) {
	tests := []struct {
		name       string
		jwtSecret  string
		body       string
		wantStatus int
	}{
		{name: "ok", jwtSecret: "s", body: `{"subject":"ci","ttl":"1h"}`, wantStatus: http.StatusOK},
		{name: "default ttl", jwtSecret: "s", body: `{"subject":"ci"}`, wantStatus: http.StatusOK},
		{name: "missing subject", jwtSecret: "s", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "bad ttl", jwtSecret: "s", body: `{"subject":"ci","ttl":"forever"}`, wantStatus: http.StatusBadRequest},
		{name: "bad json", jwtSecret: "s", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "disabled", jwtSecret: "", body: `{"subject":"ci"}`, wantStatus: http.StatusNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService("k", tt.jwtSecret)
			h := NewHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.IssueToken(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var env struct {
				Data issueTokenData `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			sub, err := svc.ParseToken(env.Data.Token)
			if err != nil || sub != "ci" {
				t.Errorf("issued token parses to %q, %v", sub, err)
			}
		})
	}
}
