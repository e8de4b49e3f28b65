package router

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	internalhttp "github.com/apoiaedu/api/internal/http"
	httpmiddleware "github.com/apoiaedu/api/internal/http/middleware"
)

// Login autentica por e-mail e senha e emite o par de tokens.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
		Senha string `json:"senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	if strings.TrimSpace(payload.Email) == "" || payload.Senha == "" {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "email e senha obrigatórios", nil)
		return
	}

	u, pair, err := h.authService.Login(r.Context(), payload.Email, payload.Senha)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}

	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{
		"usuario": u,
		"tokens":  pair,
	})
}

// Refresh rotaciona o refresh token e devolve novo par.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.RefreshToken == "" {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "refresh_token obrigatório", nil)
		return
	}

	pair, err := h.authService.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}

	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"tokens": pair})
}

// Logout invalida o refresh token da sessão.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.RefreshToken == "" {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "refresh_token obrigatório", nil)
		return
	}

	if err := h.authService.Logout(r.Context(), payload.RefreshToken); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}

	internalhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Me devolve o perfil do usuário autenticado.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(httpmiddleware.GetSubject(r.Context()))
	if err != nil {
		internalhttp.WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	u, err := h.authService.Profile(r.Context(), id)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}

	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"usuario": u})
}

func contextWithTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}
