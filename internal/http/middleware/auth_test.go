package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/apoiaedu/api/internal/auth"
)

func TestAuthInjetaClaims(t *testing.T) {
	manager := auth.NewJWTManager("um-segredo-de-teste-com-32-chars!", 15*time.Minute)
	token, _, err := manager.GenerateAccessToken("1b4e28ba-2fa1-11d2-883f-0016d3cca427", "ESPECIALISTA")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	var gotSubject, gotCargo string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = GetSubject(r.Context())
		gotCargo = GetCargo(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	Auth(manager)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if gotSubject != "1b4e28ba-2fa1-11d2-883f-0016d3cca427" || gotCargo != "ESPECIALISTA" {
		t.Fatalf("claims não injetadas: subject=%q cargo=%q", gotSubject, gotCargo)
	}
}

func TestAuthSemToken(t *testing.T) {
	manager := auth.NewJWTManager("um-segredo-de-teste-com-32-chars!", 15*time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()

	Auth(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler não deveria ser chamado")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestRequireCargo(t *testing.T) {
	manager := auth.NewJWTManager("um-segredo-de-teste-com-32-chars!", 15*time.Minute)

	casos := []struct {
		cargo  string
		status int
	}{
		{"ADMINISTRADOR", http.StatusOK},
		{"COORDENADOR", http.StatusOK},
		{"PROFESSOR", http.StatusForbidden},
	}

	for _, tc := range casos {
		token, _, err := manager.GenerateAccessToken("sub", tc.cargo)
		if err != nil {
			t.Fatalf("erro inesperado: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/usuarios", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		chain := Auth(manager)(RequireCargo("ADMINISTRADOR", "COORDENADOR")(http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {},
		)))
		chain.ServeHTTP(rec, req)

		if rec.Code != tc.status {
			t.Fatalf("cargo %s: expected %d got %d", tc.cargo, tc.status, rec.Code)
		}
	}
}
