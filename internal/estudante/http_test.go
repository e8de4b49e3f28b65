package estudante

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/apoiaedu/api/internal/apperr"
)

type stubStore struct {
	estudantes []Estudante
	naoExiste  uuid.UUID
}

func (s *stubStore) FindAll(ctx context.Context) ([]Estudante, error) {
	return s.estudantes, nil
}

func (s *stubStore) FindByID(ctx context.Context, id uuid.UUID) (*Estudante, error) {
	for i := range s.estudantes {
		if s.estudantes[i].ID == id {
			return &s.estudantes[i], nil
		}
	}
	return nil, apperr.NotFound("estudante", "estudante não encontrado")
}

func (s *stubStore) FindByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]Estudante, error) {
	return s.estudantes, nil
}

func (s *stubStore) Create(ctx context.Context, input CreateEstudanteInput) (*Estudante, error) {
	e := Estudante{
		ID:             uuid.New(),
		Nome:           input.Nome,
		Serie:          input.Serie,
		DataNascimento: input.DataNascimento,
		Status:         StatusAtivo,
		UsuarioID:      input.UsuarioID,
		Dificuldades:   []DificuldadeAssociada{},
	}
	s.estudantes = append(s.estudantes, e)
	return &e, nil
}

func (s *stubStore) Update(ctx context.Context, id uuid.UUID, input UpdateEstudanteInput) (*Estudante, error) {
	return s.FindByID(ctx, id)
}

func (s *stubStore) Delete(ctx context.Context, id uuid.UUID) error {
	if id == s.naoExiste {
		return apperr.NotFound("estudante", "estudante não encontrado")
	}
	return nil
}

func (s *stubStore) AddDificuldade(ctx context.Context, estudanteID, dificuldadeID uuid.UUID, input AddDificuldadeInput) error {
	return apperr.Conflict("ESTUDANTE_ALREADY_ASSOCIATED", "vínculo já existe")
}

func (s *stubStore) RemoveDificuldade(ctx context.Context, estudanteID, dificuldadeID uuid.UUID) error {
	return nil
}

func TestEstudanteHandlers(t *testing.T) {
	existente := Estudante{
		ID:             uuid.New(),
		Nome:           "Maria",
		Serie:          "3º ano",
		DataNascimento: time.Date(2016, 3, 10, 0, 0, 0, 0, time.UTC),
		Status:         StatusAtivo,
		UsuarioID:      uuid.New(),
		Dificuldades:   []DificuldadeAssociada{},
	}
	store := &stubStore{estudantes: []Estudante{existente}, naoExiste: uuid.New()}
	handler := NewHandler(store)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"lista", http.MethodGet, "/estudantes/", nil, http.StatusOK},
		{"lista-por-usuario", http.MethodGet, "/estudantes/?usuario=" + existente.UsuarioID.String(), nil, http.StatusOK},
		{"busca", http.MethodGet, "/estudantes/" + existente.ID.String(), nil, http.StatusOK},
		{"busca-inexistente", http.MethodGet, "/estudantes/" + uuid.NewString(), nil, http.StatusNotFound},
		{"busca-id-invalido", http.MethodGet, "/estudantes/nao-e-uuid", nil, http.StatusBadRequest},
		{"cria", http.MethodPost, "/estudantes/", map[string]any{
			"nome": "João", "serie": "2º ano", "data_nascimento": "2017-08-01", "usuario_id": uuid.New(),
		}, http.StatusCreated},
		{"cria-sem-nome", http.MethodPost, "/estudantes/", map[string]any{
			"serie": "2º ano", "data_nascimento": "2017-08-01", "usuario_id": uuid.New(),
		}, http.StatusBadRequest},
		{"cria-data-invalida", http.MethodPost, "/estudantes/", map[string]any{
			"nome": "João", "serie": "2º ano", "data_nascimento": "01/08/2017", "usuario_id": uuid.New(),
		}, http.StatusBadRequest},
		{"atualiza-status-invalido", http.MethodPut, "/estudantes/" + existente.ID.String(), map[string]any{
			"status": "MATRICULADO",
		}, http.StatusBadRequest},
		{"remove", http.MethodDelete, "/estudantes/" + existente.ID.String(), nil, http.StatusOK},
		{"remove-inexistente", http.MethodDelete, "/estudantes/" + store.naoExiste.String(), nil, http.StatusNotFound},
		{"associa-duplicado", http.MethodPost, "/estudantes/" + existente.ID.String() + "/dificuldades/" + uuid.NewString(), nil, http.StatusConflict},
		{"desassocia", http.MethodDelete, "/estudantes/" + existente.ID.String() + "/dificuldades/" + uuid.NewString(), nil, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, requestBody(tc.body))
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

func requestBody(body any) *bytes.Buffer {
	if body == nil {
		return bytes.NewBuffer(nil)
	}
	b, _ := json.Marshal(body)
	return bytes.NewBuffer(b)
}
