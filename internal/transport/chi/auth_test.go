package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerAuthMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		keys   []string
		path   string
		header string
		want   int
	}{
		{"disabled", nil, "/search/content", "", http.StatusOK},
		{"only empty keys", []string{"", ""}, "/search/content", "", http.StatusOK},
		{"missing header", []string{"secret"}, "/search/content", "", http.StatusUnauthorized},
		{"wrong scheme", []string{"secret"}, "/search/content", "Basic secret", http.StatusUnauthorized},
		{"wrong key", []string{"secret"}, "/search/content", "Bearer nope", http.StatusUnauthorized},
		{"valid key", []string{"other", "secret"}, "/search/content", "Bearer secret", http.StatusOK},
		{"healthcheck exempt", []string{"secret"}, "/healthcheck", "", http.StatusOK},
		{"metrics exempt", []string{"secret"}, "/metrics", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := BearerAuthMiddleware(tt.keys)(okHandler())
			req := httptest.NewRequest("GET", tt.path, http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized {
				var resp ErrorResponse
				if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
					t.Fatalf("decode error response: %v", err)
				}
				if resp.Code != CodeUnauthorized {
					t.Errorf("code = %q", resp.Code)
				}
			}
		})
	}
}
