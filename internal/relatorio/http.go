package relatorio

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	internalhttp "github.com/apoiaedu/api/internal/http"
	"github.com/apoiaedu/api/internal/http/middleware"
	"github.com/apoiaedu/api/internal/storage"
	"github.com/apoiaedu/api/internal/util"
)

// Limite de upload de anexo (bytes).
const maxAnexoSize = 10 << 20

// Store define o que o handler precisa do repositório.
type Store interface {
	FindAll(ctx context.Context) ([]Relatorio, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Relatorio, error)
	Create(ctx context.Context, input CreateRelatorioInput) (*Relatorio, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateRelatorioInput) (*Relatorio, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddAnexo(ctx context.Context, relatorioID uuid.UUID, input AddAnexoInput) (*Anexo, error)
	RemoveAnexo(ctx context.Context, relatorioID, anexoID uuid.UUID) error
	Compartilhar(ctx context.Context, relatorioID, usuarioID uuid.UUID, permissao string) (*Compartilhamento, error)
	RevogarCompartilhamento(ctx context.Context, relatorioID, usuarioID uuid.UUID) error
	RegistrarVisualizacao(ctx context.Context, relatorioID, usuarioID uuid.UUID) (*Visualizacao, error)
	ListVisualizacoes(ctx context.Context, relatorioID uuid.UUID) ([]Visualizacao, error)
}

// Handler orquestra rotas de relatórios, anexos e compartilhamentos.
type Handler struct {
	store    Store
	uploader storage.Uploader
}

func NewHandler(store Store, uploader storage.Uploader) *Handler {
	return &Handler{store: store, uploader: uploader}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/relatorios", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Post("/{id}/anexos", h.handleUploadAnexo)
		r.Delete("/{id}/anexos/{anexoID}", h.handleRemoveAnexo)
		r.Post("/{id}/compartilhamentos/{usuarioID}", h.handleCompartilhar)
		r.Delete("/{id}/compartilhamentos/{usuarioID}", h.handleRevogar)
		r.Get("/{id}/visualizacoes", h.handleListVisualizacoes)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	relatorios, err := h.store.FindAll(r.Context())
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"relatorios": relatorios})
}

// handleGet devolve o relatório e registra a leitura na auditoria.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "relatório inválido", nil)
		return
	}

	rel, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}

	if leitorID, err := uuid.Parse(middleware.GetSubject(r.Context())); err == nil {
		if _, err := h.store.RegistrarVisualizacao(r.Context(), id, leitorID); err != nil {
			internalhttp.WriteAppError(w, err)
			return
		}
	}

	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"relatorio": rel})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Titulo      string     `json:"titulo"`
		Tipo        string     `json:"tipo"`
		Conteudo    string     `json:"conteudo"`
		EstudanteID *uuid.UUID `json:"estudante_id"`
		Periodo     *string    `json:"periodo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	if err := util.RequireString(payload.Titulo, "titulo"); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	if err := util.RequireString(payload.Tipo, "tipo"); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	autorID, err := uuid.Parse(middleware.GetSubject(r.Context()))
	if err != nil {
		internalhttp.WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	rel, err := h.store.Create(r.Context(), CreateRelatorioInput{
		Titulo:      strings.TrimSpace(payload.Titulo),
		Tipo:        payload.Tipo,
		Conteudo:    payload.Conteudo,
		EstudanteID: payload.EstudanteID,
		AutorID:     autorID,
		Periodo:     payload.Periodo,
	})
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusCreated, map[string]any{"relatorio": rel})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "relatório inválido", nil)
		return
	}

	var payload struct {
		Titulo   *string `json:"titulo"`
		Tipo     *string `json:"tipo"`
		Conteudo *string `json:"conteudo"`
		Periodo  *string `json:"periodo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	rel, err := h.store.Update(r.Context(), id, UpdateRelatorioInput{
		Titulo:   payload.Titulo,
		Tipo:     payload.Tipo,
		Conteudo: payload.Conteudo,
		Periodo:  payload.Periodo,
	})
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"relatorio": rel})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "relatório inválido", nil)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleUploadAnexo(w http.ResponseWriter, r *http.Request) {
	relatorioID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "relatório inválido", nil)
		return
	}

	if err := r.ParseMultipartForm(maxAnexoSize); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "arquivo muito grande ou formulário inválido", nil)
		return
	}

	file, header, err := r.FormFile("arquivo")
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "campo arquivo obrigatório", nil)
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, maxAnexoSize))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "falha ao ler arquivo", nil)
		return
	}

	contentType := header.Header.Get("Content-Type")
	result, err := h.uploader.Upload(r.Context(), storage.UploadInput{
		Key:         storage.AnexoKey(relatorioID, header.Filename),
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadGateway, "STORAGE", "falha no upload do anexo", nil)
		return
	}

	anexo, err := h.store.AddAnexo(r.Context(), relatorioID, AddAnexoInput{
		NomeArquivo: header.Filename,
		URL:         result.URL,
		ContentType: contentType,
		Tamanho:     int64(len(body)),
	})
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusCreated, map[string]any{"anexo": anexo})
}

func (h *Handler) handleRemoveAnexo(w http.ResponseWriter, r *http.Request) {
	relatorioID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "relatório inválido", nil)
		return
	}
	anexoID, err := uuid.Parse(chi.URLParam(r, "anexoID"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "anexo inválido", nil)
		return
	}

	if err := h.store.RemoveAnexo(r.Context(), relatorioID, anexoID); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleCompartilhar(w http.ResponseWriter, r *http.Request) {
	relatorioID, usuarioID, ok := parseCompartilhamentoPath(w, r)
	if !ok {
		return
	}

	var payload struct {
		Permissao string `json:"permissao"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && err.Error() != "EOF" {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	comp, err := h.store.Compartilhar(r.Context(), relatorioID, usuarioID, payload.Permissao)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusCreated, map[string]any{"compartilhamento": comp})
}

func (h *Handler) handleRevogar(w http.ResponseWriter, r *http.Request) {
	relatorioID, usuarioID, ok := parseCompartilhamentoPath(w, r)
	if !ok {
		return
	}

	if err := h.store.RevogarCompartilhamento(r.Context(), relatorioID, usuarioID); err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleListVisualizacoes(w http.ResponseWriter, r *http.Request) {
	relatorioID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "relatório inválido", nil)
		return
	}

	visualizacoes, err := h.store.ListVisualizacoes(r.Context(), relatorioID)
	if err != nil {
		internalhttp.WriteAppError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]any{"visualizacoes": visualizacoes})
}

func parseCompartilhamentoPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	relatorioID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "relatório inválido", nil)
		return uuid.Nil, uuid.Nil, false
	}
	usuarioID, err := uuid.Parse(chi.URLParam(r, "usuarioID"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "usuário inválido", nil)
		return uuid.Nil, uuid.Nil, false
	}
	return relatorioID, usuarioID, true
}
