package estudante

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	internalhttp "github.com/apoiaedu/api/internal/http"
	"github.com/apoiaedu/api/internal/util"
)

// Store define o que o handler precisa do repositório.
type Store interface {
	FindAll(ctx context.Context) ([]Estudante, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Estudante, error)
	FindByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]Estudante, error)
	Create(ctx context.Context, input CreateEstudanteInput) (*Estudante, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateEstudanteInput) (*Estudante, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddDificuldade(ctx context.Context, estudanteID, dificuldadeID uuid.UUID, input AddDificuldadeInput) error
	RemoveDificuldade(ctx context.Context, estudanteID, dificuldadeID uuid.UUID) error
}

// Handler orquestra rotas de estudantes.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/estudantes", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Post("/{id}/dificuldades/{dificuldadeID}", h.handleAddDificuldade)
		r.Delete("/{id}/dificuldades/{dificuldadeID}", h.handleRemoveDificuldade)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if usuarioStr := r.URL.Query().Get("usuario"); usuarioStr != "" {
		usuarioID, err := uuid.Parse(usuarioStr)
		if err != nil {
			internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "usuário inválido", nil)
			return
		}
		estudantes, err := h.store.FindByUsuario(r.Context(), usuarioID)
		if err != nil {
			internalhttp.WriteAppError(w, err)
			return
		}
		internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"estudantes": estudantes})
		return
	}

	estudantes, err := h.store.FindAll(r.Context())
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"estudantes": estudantes})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "estudante inválido", nil)
		return
	}

	e, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"estudante": e})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome           string    `json:"nome"`
		Serie          string    `json:"serie"`
		DataNascimento string    `json:"data_nascimento"`
		UsuarioID      uuid.UUID `json:"usuario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if err := util.RequireString(payload.Nome, "nome"); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	if err := util.RequireString(payload.Serie, "serie"); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	if payload.UsuarioID == uuid.Nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "usuario_id obrigatório", nil)
		return
	}

	nascimento, err := time.Parse("2006-01-02", payload.DataNascimento)
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "data_nascimento inválida", nil)
		return
	}

	e, err := h.store.Create(r.Context(), CreateEstudanteInput{
		Nome:           strings.TrimSpace(payload.Nome),
		Serie:          strings.TrimSpace(payload.Serie),
		DataNascimento: nascimento,
		UsuarioID:      payload.UsuarioID,
	})
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusCreated, map[string]any{"estudante": e})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "estudante inválido", nil)
		return
	}

	var payload struct {
		Nome   *string `json:"nome"`
		Serie  *string `json:"serie"`
		Status *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	input := UpdateEstudanteInput{Nome: payload.Nome, Serie: payload.Serie}
	if payload.Status != nil {
		status, err := ParseStatus(*payload.Status)
		if err != nil {
			internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		input.Status = &status
	}

	e, err := h.store.Update(r.Context(), id, input)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"estudante": e})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "estudante inválido", nil)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleAddDificuldade(w http.ResponseWriter, r *http.Request) {
	estudanteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "estudante inválido", nil)
		return
	}
	dificuldadeID, err := uuid.Parse(chi.URLParam(r, "dificuldadeID"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "dificuldade inválida", nil)
		return
	}

	var payload struct {
		Tipo        *string `json:"tipo"`
		Observacoes *string `json:"observacoes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && err.Error() != "EOF" {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	input := AddDificuldadeInput{Tipo: payload.Tipo, Observacoes: payload.Observacoes}
	if err := h.store.AddDificuldade(r.Context(), estudanteID, dificuldadeID, input); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (h *Handler) handleRemoveDificuldade(w http.ResponseWriter, r *http.Request) {
	estudanteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "estudante inválido", nil)
		return
	}
	dificuldadeID, err := uuid.Parse(chi.URLParam(r, "dificuldadeID"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "dificuldade inválida", nil)
		return
	}

	if err := h.store.RemoveDificuldade(r.Context(), estudanteID, dificuldadeID); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
