package intervencao

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
	FindAllCatalogo(ctx context.Context) ([]CatalogoIntervencao, error)
	FindCatalogoByID(ctx context.Context, id uuid.UUID) (*CatalogoIntervencao, error)
	CreateCatalogo(ctx context.Context, input CreateCatalogoInput) (*CatalogoIntervencao, error)
	UpdateCatalogo(ctx context.Context, id uuid.UUID, input UpdateCatalogoInput) (*CatalogoIntervencao, error)
	DeleteCatalogo(ctx context.Context, id uuid.UUID) error
	FindAll(ctx context.Context) ([]Intervencao, error)
	FindByEstudante(ctx context.Context, estudanteID uuid.UUID) ([]Intervencao, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Intervencao, error)
	Create(ctx context.Context, input CreateIntervencaoInput) (*Intervencao, error)
	UpdateProgresso(ctx context.Context, id uuid.UUID, valor int) (*Intervencao, error)
	Concluir(ctx context.Context, id uuid.UUID) (*Intervencao, error)
	Cancelar(ctx context.Context, id uuid.UUID) (*Intervencao, error)
}

// Handler orquestra rotas do catálogo e das intervenções aplicadas.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/catalogo-intervencoes", func(r chi.Router) {
		r.Get("/", h.handleListCatalogo)
		r.Post("/", h.handleCreateCatalogo)
		r.Get("/{id}", h.handleGetCatalogo)
		r.Put("/{id}", h.handleUpdateCatalogo)
		r.Delete("/{id}", h.handleDeleteCatalogo)
	})

	r.Route("/intervencoes", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Patch("/{id}/progresso", h.handleUpdateProgresso)
		r.Post("/{id}/concluir", h.handleConcluir)
		r.Post("/{id}/cancelar", h.handleCancelar)
	})
}

func (h *Handler) handleListCatalogo(w http.ResponseWriter, r *http.Request) {
	modelos, err := h.store.FindAllCatalogo(r.Context())
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"catalogo": modelos})
}

func (h *Handler) handleGetCatalogo(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "modelo inválido", nil)
		return
	}

	modelo, err := h.store.FindCatalogoByID(r.Context(), id)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"modelo": modelo})
}

func (h *Handler) handleCreateCatalogo(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Titulo           string   `json:"titulo"`
		Descricao        string   `json:"descricao"`
		Tipo             string   `json:"tipo"`
		DificuldadesAlvo []string `json:"dificuldades_alvo"`
		DuracaoSemanas   *int     `json:"duracao_semanas"`
		Recursos         []string `json:"recursos"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	if err := util.RequireString(payload.Titulo, "titulo"); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	modelo, err := h.store.CreateCatalogo(r.Context(), CreateCatalogoInput{
		Titulo:           strings.TrimSpace(payload.Titulo),
		Descricao:        payload.Descricao,
		Tipo:             payload.Tipo,
		DificuldadesAlvo: payload.DificuldadesAlvo,
		DuracaoSemanas:   payload.DuracaoSemanas,
		Recursos:         payload.Recursos,
	})
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusCreated, map[string]any{"modelo": modelo})
}

func (h *Handler) handleUpdateCatalogo(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "modelo inválido", nil)
		return
	}

	var payload struct {
		Titulo           *string  `json:"titulo"`
		Descricao        *string  `json:"descricao"`
		Tipo             *string  `json:"tipo"`
		DificuldadesAlvo []string `json:"dificuldades_alvo"`
		DuracaoSemanas   *int     `json:"duracao_semanas"`
		Recursos         []string `json:"recursos"`
		Status           *string  `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	modelo, err := h.store.UpdateCatalogo(r.Context(), id, UpdateCatalogoInput{
		Titulo:           payload.Titulo,
		Descricao:        payload.Descricao,
		Tipo:             payload.Tipo,
		DificuldadesAlvo: payload.DificuldadesAlvo,
		DuracaoSemanas:   payload.DuracaoSemanas,
		Recursos:         payload.Recursos,
		Status:           payload.Status,
	})
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"modelo": modelo})
}

func (h *Handler) handleDeleteCatalogo(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "modelo inválido", nil)
		return
	}

	if err := h.store.DeleteCatalogo(r.Context(), id); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if estudanteStr := r.URL.Query().Get("estudante"); estudanteStr != "" {
		estudanteID, err := uuid.Parse(estudanteStr)
		if err != nil {
			internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "estudante inválido", nil)
			return
		}
		intervencoes, err := h.store.FindByEstudante(r.Context(), estudanteID)
		if err != nil {
			internalhttp.WriteAppError(w, err)
			return
		}
		internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"intervencoes": intervencoes})
		return
	}

	intervencoes, err := h.store.FindAll(r.Context())
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"intervencoes": intervencoes})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "intervenção inválida", nil)
		return
	}

	i, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"intervencao": i})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CatalogoID  *uuid.UUID `json:"catalogo_id"`
		EstudanteID uuid.UUID  `json:"estudante_id"`
		Descricao   string     `json:"descricao"`
		DataInicio  *time.Time `json:"data_inicio"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	if payload.EstudanteID == uuid.Nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "estudante_id obrigatório", nil)
		return
	}

	i, err := h.store.Create(r.Context(), CreateIntervencaoInput{
		CatalogoID:  payload.CatalogoID,
		EstudanteID: payload.EstudanteID,
		Descricao:   payload.Descricao,
		DataInicio:  payload.DataInicio,
	})
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusCreated, map[string]any{"intervencao": i})
}

func (h *Handler) handleUpdateProgresso(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "intervenção inválida", nil)
		return
	}

	var payload struct {
		Progresso *int `json:"progresso"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Progresso == nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "progresso obrigatório", nil)
		return
	}

	i, err := h.store.UpdateProgresso(r.Context(), id, *payload.Progresso)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"intervencao": i})
}

func (h *Handler) handleConcluir(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "intervenção inválida", nil)
		return
	}

	i, err := h.store.Concluir(r.Context(), id)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"intervencao": i})
}

func (h *Handler) handleCancelar(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "intervenção inválida", nil)
		return
	}

	i, err := h.store.Cancelar(r.Context(), id)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"intervencao": i})
}
