package avaliacao

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
	FindAll(ctx context.Context) ([]Avaliacao, error)
	FindByEstudante(ctx context.Context, estudanteID uuid.UUID) ([]Avaliacao, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Avaliacao, error)
	Create(ctx context.Context, input CreateAvaliacaoInput) (*Avaliacao, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateAvaliacaoInput) (*Avaliacao, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler orquestra rotas de avaliações.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/avaliacoes", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if estudanteStr := r.URL.Query().Get("estudante"); estudanteStr != "" {
		estudanteID, err := uuid.Parse(estudanteStr)
		if err != nil {
			internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "estudante inválido", nil)
			return
		}
		avaliacoes, err := h.store.FindByEstudante(r.Context(), estudanteID)
		if err != nil {
			internalhttp.WriteAppError(w, err)
			return
		}
		internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"avaliacoes": avaliacoes})
		return
	}

	avaliacoes, err := h.store.FindAll(r.Context())
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"avaliacoes": avaliacoes})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "avaliação inválida", nil)
		return
	}

	a, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"avaliacao": a})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		EstudanteID   uuid.UUID  `json:"estudante_id"`
		AvaliadorID   *uuid.UUID `json:"avaliador_id"`
		Instrumento   string     `json:"instrumento"`
		DataAplicacao string     `json:"data_aplicacao"`
		Pontuacao     *float64   `json:"pontuacao"`
		Observacoes   *string    `json:"observacoes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	if payload.EstudanteID == uuid.Nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "estudante_id obrigatório", nil)
		return
	}
	if err := util.RequireString(payload.Instrumento, "instrumento"); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	dataAplicacao, err := time.Parse("2006-01-02", payload.DataAplicacao)
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "data_aplicacao inválida", nil)
		return
	}

	a, err := h.store.Create(r.Context(), CreateAvaliacaoInput{
		EstudanteID:   payload.EstudanteID,
		AvaliadorID:   payload.AvaliadorID,
		Instrumento:   strings.TrimSpace(payload.Instrumento),
		DataAplicacao: dataAplicacao,
		Pontuacao:     payload.Pontuacao,
		Observacoes:   payload.Observacoes,
	})
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusCreated, map[string]any{"avaliacao": a})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "avaliação inválida", nil)
		return
	}

	var payload struct {
		Instrumento   *string  `json:"instrumento"`
		DataAplicacao *string  `json:"data_aplicacao"`
		Pontuacao     *float64 `json:"pontuacao"`
		Observacoes   *string  `json:"observacoes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	input := UpdateAvaliacaoInput{
		Instrumento: payload.Instrumento,
		Pontuacao:   payload.Pontuacao,
		Observacoes: payload.Observacoes,
	}
	if payload.DataAplicacao != nil {
		dataAplicacao, err := time.Parse("2006-01-02", *payload.DataAplicacao)
		if err != nil {
			internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "data_aplicacao inválida", nil)
			return
		}
		input.DataAplicacao = &dataAplicacao
	}

	a, err := h.store.Update(r.Context(), id, input)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"avaliacao": a})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "avaliação inválida", nil)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
