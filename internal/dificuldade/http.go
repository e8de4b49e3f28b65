package dificuldade

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
	FindAll(ctx context.Context) ([]Dificuldade, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Dificuldade, error)
	Create(ctx context.Context, input CreateDificuldadeInput) (*Dificuldade, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateDificuldadeInput) (*Dificuldade, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler orquestra rotas do catálogo de dificuldades.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/dificuldades", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	dificuldades, err := h.store.FindAll(r.Context())
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"dificuldades": dificuldades})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "dificuldade inválida", nil)
		return
	}

	d, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"dificuldade": d})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Nome      string `json:"nome"`
		Descricao string `json:"descricao"`
		Categoria string `json:"categoria"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	if err := util.RequireString(payload.Nome, "nome"); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	categoria, err := ParseCategoria(payload.Categoria)
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	d, err := h.store.Create(r.Context(), CreateDificuldadeInput{
		Nome:      strings.TrimSpace(payload.Nome),
		Descricao: payload.Descricao,
		Categoria: categoria,
	})
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusCreated, map[string]any{"dificuldade": d})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "dificuldade inválida", nil)
		return
	}

	var payload struct {
		Nome      *string `json:"nome"`
		Descricao *string `json:"descricao"`
		Categoria *string `json:"categoria"`
		Status    *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	input := UpdateDificuldadeInput{Nome: payload.Nome, Descricao: payload.Descricao}
	if payload.Categoria != nil {
		categoria, err := ParseCategoria(*payload.Categoria)
		if err != nil {
			internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		input.Categoria = &categoria
	}
	if payload.Status != nil {
		status, err := ParseStatus(*payload.Status)
		if err != nil {
			internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		input.Status = &status
	}

	d, err := h.store.Update(r.Context(), id, input)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"dificuldade": d})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "dificuldade inválida", nil)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
