package equipe

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
	FindAll(ctx context.Context) ([]Equipe, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Equipe, error)
	Create(ctx context.Context, input CreateEquipeInput) (*Equipe, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateEquipeInput) (*Equipe, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddMembro(ctx context.Context, equipeID, usuarioID uuid.UUID, funcao *string) error
	RemoveMembro(ctx context.Context, equipeID, usuarioID uuid.UUID) error
	AddEstudante(ctx context.Context, equipeID, estudanteID uuid.UUID) error
	RemoveEstudante(ctx context.Context, equipeID, estudanteID uuid.UUID) error
}

// Handler orquestra rotas de equipes multidisciplinares.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/equipes", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Post("/{id}/membros/{usuarioID}", h.handleAddMembro)
		r.Delete("/{id}/membros/{usuarioID}", h.handleRemoveMembro)
		r.Post("/{id}/estudantes/{estudanteID}", h.handleAddEstudante)
		r.Delete("/{id}/estudantes/{estudanteID}", h.handleRemoveEstudante)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	equipes, err := h.store.FindAll(r.Context())
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"equipes": equipes})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "equipe inválida", nil)
		return
	}

	e, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"equipe": e})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome      string `json:"nome"`
		Descricao string `json:"descricao"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	if err := util.RequireString(payload.Nome, "nome"); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	e, err := h.store.Create(r.Context(), CreateEquipeInput{
		Nome:      strings.TrimSpace(payload.Nome),
		Descricao: payload.Descricao,
	})
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusCreated, map[string]any{"equipe": e})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "equipe inválida", nil)
		return
	}

	var payload struct {
		Nome      *string `json:"nome"`
		Descricao *string `json:"descricao"`
		Ativo     *bool   `json:"ativo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	e, err := h.store.Update(r.Context(), id, UpdateEquipeInput{
		Nome:      payload.Nome,
		Descricao: payload.Descricao,
		Ativo:     payload.Ativo,
	})
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"equipe": e})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "equipe inválida", nil)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleAddMembro(w http.ResponseWriter, r *http.Request) {
	equipeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "equipe inválida", nil)
		return
	}
	usuarioID, err := uuid.Parse(chi.URLParam(r, "usuarioID"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "usuário inválido", nil)
		return
	}

	var payload struct {
		Funcao *string `json:"funcao"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && err.Error() != "EOF" {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if err := h.store.AddMembro(r.Context(), equipeID, usuarioID, payload.Funcao); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (h *Handler) handleRemoveMembro(w http.ResponseWriter, r *http.Request) {
	equipeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "equipe inválida", nil)
		return
	}
	usuarioID, err := uuid.Parse(chi.URLParam(r, "usuarioID"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "usuário inválido", nil)
		return
	}

	if err := h.store.RemoveMembro(r.Context(), equipeID, usuarioID); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleAddEstudante(w http.ResponseWriter, r *http.Request) {
	equipeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "equipe inválida", nil)
		return
	}
	estudanteID, err := uuid.Parse(chi.URLParam(r, "estudanteID"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "estudante inválido", nil)
		return
	}

	if err := h.store.AddEstudante(r.Context(), equipeID, estudanteID); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (h *Handler) handleRemoveEstudante(w http.ResponseWriter, r *http.Request) {
	equipeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "equipe inválida", nil)
		return
	}
	estudanteID, err := uuid.Parse(chi.URLParam(r, "estudanteID"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "estudante inválido", nil)
		return
	}

	if err := h.store.RemoveEstudante(r.Context(), equipeID, estudanteID); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
