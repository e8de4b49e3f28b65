package reuniao

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
	FindAll(ctx context.Context) ([]Reuniao, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Reuniao, error)
	Create(ctx context.Context, input CreateReuniaoInput) (*Reuniao, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateReuniaoInput) (*Reuniao, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, novo Status) (*Reuniao, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddParticipante(ctx context.Context, reuniaoID, usuarioID uuid.UUID) error
	RemoveParticipante(ctx context.Context, reuniaoID, usuarioID uuid.UUID) error
	ConfirmarPresenca(ctx context.Context, reuniaoID, usuarioID uuid.UUID, presente bool) error
	AddEncaminhamento(ctx context.Context, reuniaoID uuid.UUID, input CreateEncaminhamentoInput) (*Encaminhamento, error)
	UpdateEncaminhamento(ctx context.Context, reuniaoID, encaminhamentoID uuid.UUID, input UpdateEncaminhamentoInput) (*Encaminhamento, error)
}

// Handler orquestra rotas de reuniões e encaminhamentos.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reunioes", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Patch("/{id}/status", h.handleUpdateStatus)
		r.Delete("/{id}", h.handleDelete)
		r.Post("/{id}/participantes/{usuarioID}", h.handleAddParticipante)
		r.Delete("/{id}/participantes/{usuarioID}", h.handleRemoveParticipante)
		r.Post("/{id}/participantes/{usuarioID}/presenca", h.handleConfirmarPresenca)
		r.Post("/{id}/encaminhamentos", h.handleAddEncaminhamento)
		r.Patch("/{id}/encaminhamentos/{encaminhamentoID}", h.handleUpdateEncaminhamento)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reunioes, err := h.store.FindAll(r.Context())
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"reunioes": reunioes})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "reunião inválida", nil)
		return
	}

	reuniao, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"reuniao": reuniao})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Titulo   string     `json:"titulo"`
		Data     time.Time  `json:"data"`
		EquipeID *uuid.UUID `json:"equipe_id"`
		Pauta    *string    `json:"pauta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	if err := util.RequireString(payload.Titulo, "titulo"); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	if payload.Data.IsZero() {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "data obrigatória", nil)
		return
	}

	reuniao, err := h.store.Create(r.Context(), CreateReuniaoInput{
		Titulo:   strings.TrimSpace(payload.Titulo),
		Data:     payload.Data,
		EquipeID: payload.EquipeID,
		Pauta:    payload.Pauta,
	})
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusCreated, map[string]any{"reuniao": reuniao})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "reunião inválida", nil)
		return
	}

	var payload struct {
		Titulo      *string    `json:"titulo"`
		Data        *time.Time `json:"data"`
		Pauta       *string    `json:"pauta"`
		Observacoes *string    `json:"observacoes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	reuniao, err := h.store.Update(r.Context(), id, UpdateReuniaoInput{
		Titulo:      payload.Titulo,
		Data:        payload.Data,
		Pauta:       payload.Pauta,
		Observacoes: payload.Observacoes,
	})
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"reuniao": reuniao})
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "reunião inválida", nil)
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	novo, err := ParseStatus(payload.Status)
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	reuniao, err := h.store.UpdateStatus(r.Context(), id, novo)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"reuniao": reuniao})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "reunião inválida", nil)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleAddParticipante(w http.ResponseWriter, r *http.Request) {
	reuniaoID, usuarioID, ok := parseParticipantePath(w, r)
	if !ok {
		return
	}

	if err := h.store.AddParticipante(r.Context(), reuniaoID, usuarioID); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (h *Handler) handleRemoveParticipante(w http.ResponseWriter, r *http.Request) {
	reuniaoID, usuarioID, ok := parseParticipantePath(w, r)
	if !ok {
		return
	}

	if err := h.store.RemoveParticipante(r.Context(), reuniaoID, usuarioID); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleConfirmarPresenca(w http.ResponseWriter, r *http.Request) {
	reuniaoID, usuarioID, ok := parseParticipantePath(w, r)
	if !ok {
		return
	}

	var payload struct {
		Presente *bool `json:"presente"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Presente == nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "presente obrigatório", nil)
		return
	}

	if err := h.store.ConfirmarPresenca(r.Context(), reuniaoID, usuarioID, *payload.Presente); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleAddEncaminhamento(w http.ResponseWriter, r *http.Request) {
	reuniaoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "reunião inválida", nil)
		return
	}

	var payload struct {
		Descricao     string     `json:"descricao"`
		ResponsavelID *uuid.UUID `json:"responsavel_id"`
		Prazo         *time.Time `json:"prazo"`
		Prioridade    string     `json:"prioridade"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	if err := util.RequireString(payload.Descricao, "descricao"); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	enc, err := h.store.AddEncaminhamento(r.Context(), reuniaoID, CreateEncaminhamentoInput{
		Descricao:     strings.TrimSpace(payload.Descricao),
		ResponsavelID: payload.ResponsavelID,
		Prazo:         payload.Prazo,
		Prioridade:    payload.Prioridade,
	})
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusCreated, map[string]any{"encaminhamento": enc})
}

func (h *Handler) handleUpdateEncaminhamento(w http.ResponseWriter, r *http.Request) {
	reuniaoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "reunião inválida", nil)
		return
	}
	encaminhamentoID, err := uuid.Parse(chi.URLParam(r, "encaminhamentoID"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "encaminhamento inválido", nil)
		return
	}

	var payload struct {
		Descricao     *string    `json:"descricao"`
		ResponsavelID *uuid.UUID `json:"responsavel_id"`
		Prazo         *time.Time `json:"prazo"`
		Status        *string    `json:"status"`
		Prioridade    *string    `json:"prioridade"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	enc, err := h.store.UpdateEncaminhamento(r.Context(), reuniaoID, encaminhamentoID, UpdateEncaminhamentoInput{
		Descricao:     payload.Descricao,
		ResponsavelID: payload.ResponsavelID,
		Prazo:         payload.Prazo,
		Status:        payload.Status,
		Prioridade:    payload.Prioridade,
	})
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"encaminhamento": enc})
}

func parseParticipantePath(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	reuniaoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "reunião inválida", nil)
		return uuid.Nil, uuid.Nil, false
	}
	usuarioID, err := uuid.Parse(chi.URLParam(r, "usuarioID"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "usuário inválido", nil)
		return uuid.Nil, uuid.Nil, false
	}
	return reuniaoID, usuarioID, true
}
