package usuario

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	internalhttp "github.com/apoiaedu/api/internal/http"
	"github.com/apoiaedu/api/internal/util"
)

// Store define o que o handler precisa do repositório.
type Store interface {
	FindAll(ctx context.Context) ([]Usuario, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Usuario, error)
	Create(ctx context.Context, input CreateUsuarioInput) (*Usuario, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateUsuarioInput) (*Usuario, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddInstituicao(ctx context.Context, usuarioID, instituicaoID uuid.UUID, papel *string) error
	RemoveInstituicao(ctx context.Context, usuarioID, instituicaoID uuid.UUID) error
	CreateInstituicao(ctx context.Context, input CreateInstituicaoInput) (*Instituicao, error)
	FindAllInstituicoes(ctx context.Context) ([]Instituicao, error)
}

// HashFunc gera o hash de senha. Injetado para manter o pacote sem
// dependência do módulo de autenticação.
type HashFunc func(senha string) (string, error)

// Handler orquestra rotas de usuários e instituições.
type Handler struct {
	store Store
	hash  HashFunc
}

func NewHandler(store Store, hash HashFunc) *Handler {
	return &Handler{store: store, hash: hash}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/usuarios", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Post("/{id}/instituicoes/{instituicaoID}", h.handleAddInstituicao)
		r.Delete("/{id}/instituicoes/{instituicaoID}", h.handleRemoveInstituicao)
	})

	r.Route("/instituicoes", func(r chi.Router) {
		r.Get("/", h.handleListInstituicoes)
		r.Post("/", h.handleCreateInstituicao)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	usuarios, err := h.store.FindAll(r.Context())
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"usuarios": usuarios})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "usuário inválido", nil)
		return
	}

	u, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"usuario": u})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome  string `json:"nome"`
		Email string `json:"email"`
		Senha string `json:"senha"`
		Cargo string `json:"cargo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if err := util.RequireString(payload.Nome, "nome"); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	if err := util.ValidateEmail(payload.Email); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	if err := util.ValidatePassword(payload.Senha); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	cargo, err := ParseCargo(payload.Cargo)
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	senhaHash, err := h.hash(payload.Senha)
	if err != nil {
		internalhttp.WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
		return
	}

	u, err := h.store.Create(r.Context(), CreateUsuarioInput{
		Nome:      strings.TrimSpace(payload.Nome),
		Email:     strings.ToLower(strings.TrimSpace(payload.Email)),
		SenhaHash: senhaHash,
		Cargo:     cargo,
	})
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}

	internalhttp.WriteJSON(w, http.StatusCreated, map[string]any{"usuario": u})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "usuário inválido", nil)
		return
	}

	var payload struct {
		Nome  *string `json:"nome"`
		Email *string `json:"email"`
		Cargo *string `json:"cargo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	input := UpdateUsuarioInput{Nome: payload.Nome}
	if payload.Email != nil {
		if err := util.ValidateEmail(*payload.Email); err != nil {
			internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		email := strings.ToLower(strings.TrimSpace(*payload.Email))
		input.Email = &email
	}
	if payload.Cargo != nil {
		cargo, err := ParseCargo(*payload.Cargo)
		if err != nil {
			internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		input.Cargo = &cargo
	}

	u, err := h.store.Update(r.Context(), id, input)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"usuario": u})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "usuário inválido", nil)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleAddInstituicao(w http.ResponseWriter, r *http.Request) {
	usuarioID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "usuário inválido", nil)
		return
	}
	instituicaoID, err := uuid.Parse(chi.URLParam(r, "instituicaoID"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "instituição inválida", nil)
		return
	}

	var payload struct {
		Papel *string `json:"papel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && err.Error() != "EOF" {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if err := h.store.AddInstituicao(r.Context(), usuarioID, instituicaoID, payload.Papel); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (h *Handler) handleRemoveInstituicao(w http.ResponseWriter, r *http.Request) {
	usuarioID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "usuário inválido", nil)
		return
	}
	instituicaoID, err := uuid.Parse(chi.URLParam(r, "instituicaoID"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "instituição inválida", nil)
		return
	}

	if err := h.store.RemoveInstituicao(r.Context(), usuarioID, instituicaoID); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleListInstituicoes(w http.ResponseWriter, r *http.Request) {
	instituicoes, err := h.store.FindAllInstituicoes(r.Context())
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"instituicoes": instituicoes})
}

func (h *Handler) handleCreateInstituicao(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome   string  `json:"nome"`
		Sigla  *string `json:"sigla"`
		Cidade *string `json:"cidade"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	if err := util.RequireString(payload.Nome, "nome"); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	inst, err := h.store.CreateInstituicao(r.Context(), CreateInstituicaoInput{
		Nome:   strings.TrimSpace(payload.Nome),
		Sigla:  payload.Sigla,
		Cidade: payload.Cidade,
	})
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusCreated, map[string]any{"instituicao": inst})
}
