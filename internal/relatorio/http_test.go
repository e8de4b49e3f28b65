package relatorio

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/apoiaedu/api/internal/apperr"
	"github.com/apoiaedu/api/internal/http/middleware"
	"github.com/apoiaedu/api/internal/storage"
)

type stubStore struct {
	relatorio     Relatorio
	compartilhado bool
	anexos        []Anexo
}

func (s *stubStore) FindAll(ctx context.Context) ([]Relatorio, error) {
	return []Relatorio{s.relatorio}, nil
}

func (s *stubStore) FindByID(ctx context.Context, id uuid.UUID) (*Relatorio, error) {
	if id != s.relatorio.ID {
		return nil, apperr.NotFound("relatorio", "relatório não encontrado")
	}
	return &s.relatorio, nil
}

func (s *stubStore) Create(ctx context.Context, input CreateRelatorioInput) (*Relatorio, error) {
	return &Relatorio{
		ID:                uuid.New(),
		Titulo:            input.Titulo,
		Tipo:              input.Tipo,
		Conteudo:          input.Conteudo,
		AutorID:           input.AutorID,
		Anexos:            []Anexo{},
		Compartilhamentos: []Compartilhamento{},
	}, nil
}

func (s *stubStore) Update(ctx context.Context, id uuid.UUID, input UpdateRelatorioInput) (*Relatorio, error) {
	return s.FindByID(ctx, id)
}

func (s *stubStore) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s *stubStore) AddAnexo(ctx context.Context, relatorioID uuid.UUID, input AddAnexoInput) (*Anexo, error) {
	anexo := Anexo{
		ID:          uuid.New(),
		RelatorioID: relatorioID,
		NomeArquivo: input.NomeArquivo,
		URL:         input.URL,
		ContentType: input.ContentType,
		Tamanho:     input.Tamanho,
	}
	s.anexos = append(s.anexos, anexo)
	return &anexo, nil
}

func (s *stubStore) RemoveAnexo(ctx context.Context, relatorioID, anexoID uuid.UUID) error {
	return nil
}

func (s *stubStore) Compartilhar(ctx context.Context, relatorioID, usuarioID uuid.UUID, permissao string) (*Compartilhamento, error) {
	if s.compartilhado {
		return nil, apperr.Conflict("RELATORIO_ALREADY_SHARED", "relatório já compartilhado com o usuário")
	}
	s.compartilhado = true
	return &Compartilhamento{ID: uuid.New(), RelatorioID: relatorioID, UsuarioID: usuarioID, Permissao: permissao}, nil
}

func (s *stubStore) RevogarCompartilhamento(ctx context.Context, relatorioID, usuarioID uuid.UUID) error {
	return nil
}

func (s *stubStore) RegistrarVisualizacao(ctx context.Context, relatorioID, usuarioID uuid.UUID) (*Visualizacao, error) {
	return &Visualizacao{ID: uuid.New(), RelatorioID: relatorioID, UsuarioID: usuarioID, VisualizadoEm: time.Now()}, nil
}

func (s *stubStore) ListVisualizacoes(ctx context.Context, relatorioID uuid.UUID) ([]Visualizacao, error) {
	return []Visualizacao{}, nil
}

type stubUploader struct {
	chamadas int
}

func (u *stubUploader) Upload(ctx context.Context, input storage.UploadInput) (*storage.UploadResult, error) {
	u.chamadas++
	return &storage.UploadResult{URL: "https://cdn.example/" + input.Key, ETag: "etag"}, nil
}

func TestRelatorioHandlers(t *testing.T) {
	autorID := uuid.New()
	rel := Relatorio{
		ID:                uuid.New(),
		Titulo:            "Acompanhamento bimestral",
		Tipo:              "PROGRESSO",
		AutorID:           autorID,
		Anexos:            []Anexo{},
		Compartilhamentos: []Compartilhamento{},
	}
	store := &stubStore{relatorio: rel}
	uploader := &stubUploader{}
	handler := NewHandler(store, uploader)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"lista", http.MethodGet, "/relatorios/", nil, http.StatusOK},
		{"busca", http.MethodGet, "/relatorios/" + rel.ID.String(), nil, http.StatusOK},
		{"busca-inexistente", http.MethodGet, "/relatorios/" + uuid.NewString(), nil, http.StatusNotFound},
		{"cria", http.MethodPost, "/relatorios/", map[string]any{
			"titulo": "Novo relatório", "tipo": "AVALIACAO", "conteudo": "texto",
		}, http.StatusCreated},
		{"cria-sem-titulo", http.MethodPost, "/relatorios/", map[string]any{
			"tipo": "AVALIACAO",
		}, http.StatusBadRequest},
		{"compartilha", http.MethodPost, "/relatorios/" + rel.ID.String() + "/compartilhamentos/" + uuid.NewString(), map[string]any{"permissao": "LEITURA"}, http.StatusCreated},
		{"compartilha-duplicado", http.MethodPost, "/relatorios/" + rel.ID.String() + "/compartilhamentos/" + uuid.NewString(), nil, http.StatusConflict},
		{"revoga", http.MethodDelete, "/relatorios/" + rel.ID.String() + "/compartilhamentos/" + uuid.NewString(), nil, http.StatusOK},
		{"visualizacoes", http.MethodGet, "/relatorios/" + rel.ID.String() + "/visualizacoes", nil, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, requestBody(tc.body))
			req = withSubject(req, autorID)
			rec := httptest.NewRecorder()

			r := chi.NewRouter()
			handler.RegisterRoutes(r)
			r.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d (%s)", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUploadAnexo(t *testing.T) {
	autorID := uuid.New()
	rel := Relatorio{ID: uuid.New(), Titulo: "Com anexo", Tipo: "PROGRESSO", AutorID: autorID}
	store := &stubStore{relatorio: rel}
	uploader := &stubUploader{}
	handler := NewHandler(store, uploader)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("arquivo", "laudo.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("%PDF-1.4 conteudo")); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/relatorios/"+rel.ID.String()+"/anexos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = withSubject(req, autorID)
	rec := httptest.NewRecorder()

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}
	if uploader.chamadas != 1 {
		t.Fatalf("uploader deveria ser chamado uma vez, foi %d", uploader.chamadas)
	}
	if len(store.anexos) != 1 || store.anexos[0].NomeArquivo != "laudo.pdf" {
		t.Fatalf("anexo não registrado: %+v", store.anexos)
	}
}

func requestBody(body any) *bytes.Buffer {
	if body == nil {
		return bytes.NewBuffer(nil)
	}
	b, _ := json.Marshal(body)
	return bytes.NewBuffer(b)
}

func withSubject(req *http.Request, id uuid.UUID) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeySubject, id.String())
	return req.WithContext(ctx)
}
