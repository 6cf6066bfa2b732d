package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apierrors "github.com/bigkaa/goartstore/catalog-module/internal/api/errors"
	"github.com/bigkaa/goartstore/catalog-module/internal/api/openapi"
)

// nopServer — ServerInterface, отвечающий 204 на всё.
type nopServer struct{ called bool }

func (s *nopServer) ok(w http.ResponseWriter) {
	s.called = true
	w.WriteHeader(http.StatusNoContent)
}

func (s *nopServer) ListFiles(w http.ResponseWriter, _ *http.Request, _ openapi.ListFilesParams) {
	s.ok(w)
}
func (s *nopServer) CreateFile(w http.ResponseWriter, _ *http.Request) { s.ok(w) }
func (s *nopServer) GetFile(w http.ResponseWriter, _ *http.Request, _ openapi.FileId) {
	s.ok(w)
}
func (s *nopServer) UpdateFile(w http.ResponseWriter, _ *http.Request, _ openapi.FileId) {
	s.ok(w)
}
func (s *nopServer) DeleteFile(w http.ResponseWriter, _ *http.Request, _ openapi.FileId) {
	s.ok(w)
}
func (s *nopServer) Register(w http.ResponseWriter, _ *http.Request)           { s.ok(w) }
func (s *nopServer) Login(w http.ResponseWriter, _ *http.Request)              { s.ok(w) }
func (s *nopServer) GetOpenAPIDocument(w http.ResponseWriter, _ *http.Request) { s.ok(w) }
func (s *nopServer) HealthLive(w http.ResponseWriter, _ *http.Request)         { s.ok(w) }
func (s *nopServer) HealthReady(w http.ResponseWriter, _ *http.Request)        { s.ok(w) }
func (s *nopServer) GetMetrics(w http.ResponseWriter, _ *http.Request)         { s.ok(w) }

// denyAll — middleware, отклоняющий любой запрос.
func denyAll(_ http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.Unauthorized(w, "нет токена")
	})
}

// TestJWTAuthWithExclusions — публичные пути проходят без middleware.
func TestJWTAuthWithExclusions(t *testing.T) {
	h := NewRouter(&nopServer{}, JWTAuthWithExclusions(denyAll, PublicPrefixes...))

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health/live", http.StatusNoContent},
		{http.MethodGet, "/health/ready", http.StatusNoContent},
		{http.MethodGet, "/metrics", http.StatusNoContent},
		{http.MethodPost, "/api/v1/auth/login", http.StatusNoContent},
		{http.MethodPost, "/api/v1/auth/register", http.StatusNoContent},
		{http.MethodGet, "/api/v1/openapi.json", http.StatusNoContent},
		{http.MethodGet, "/api/v1/files", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/files", http.StatusUnauthorized},
		{http.MethodDelete, "/api/v1/files/7d444840-9dc0-11d1-b245-5ffdce74fad2", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, http.NoBody))
		if w.Code != tt.want {
			t.Errorf("%s %s: status = %d, ожидался %d", tt.method, tt.path, w.Code, tt.want)
		}
	}
}

// TestNewRouter_InvalidID — некорректный id даёт 404 в едином формате ошибок.
func TestNewRouter_InvalidID(t *testing.T) {
	s := &nopServer{}
	h := NewRouter(s)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/files/not-a-uuid", http.NoBody))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, ожидался 404", w.Code)
	}
	if s.called {
		t.Error("обработчик не должен вызываться")
	}
	var body apierrors.ErrorBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Error.Code != apierrors.CodeNotFound {
		t.Errorf("code = %q", body.Error.Code)
	}
}

// TestNewRouter_UnknownRoute — неизвестный маршрут и метод.
func TestNewRouter_UnknownRoute(t *testing.T) {
	h := NewRouter(&nopServer{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/nothing", http.NoBody))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, ожидался 404", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/api/v1/files", http.NoBody))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, ожидался 405", w.Code)
	}
}
