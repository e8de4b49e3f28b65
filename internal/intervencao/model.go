package intervencao

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apoiaedu/api/internal/apperr"
)

// Status enumera o ciclo de vida de uma intervenção aplicada.
type Status string

const (
	StatusAtiva     Status = "ATIVA"
	StatusConcluida Status = "CONCLUIDA"
	StatusCancelada Status = "CANCELADA"
)

// ParseStatus valida o status persistido; desconhecido é erro duro.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ATIVA", "EM_ANDAMENTO":
		return StatusAtiva, nil
	case "CONCLUIDA":
		return StatusConcluida, nil
	case "CANCELADA":
		return StatusCancelada, nil
	}
	return "", fmt.Errorf("status de intervenção desconhecido: %q", raw)
}

// CatalogoIntervencao é o modelo reutilizável de intervenção.
type CatalogoIntervencao struct {
	ID               uuid.UUID `json:"id"`
	Titulo           string    `json:"titulo"`
	Descricao        string    `json:"descricao"`
	Tipo             string    `json:"tipo"`
	DificuldadesAlvo []string  `json:"dificuldades_alvo"`
	DuracaoSemanas   *int      `json:"duracao_semanas,omitempty"`
	Recursos         []string  `json:"recursos"`
	Status           string    `json:"status"`
	CriadoEm         time.Time `json:"criado_em"`
	AtualizadoEm     time.Time `json:"atualizado_em"`
}

// Intervencao é a instância de um modelo aplicada a um estudante.
type Intervencao struct {
	ID           uuid.UUID  `json:"id"`
	CatalogoID   *uuid.UUID `json:"catalogo_id,omitempty"`
	EstudanteID  uuid.UUID  `json:"estudante_id"`
	Descricao    string     `json:"descricao"`
	Status       Status     `json:"status"`
	Progresso    int        `json:"progresso"`
	DataInicio   time.Time  `json:"data_inicio"`
	DataFim      *time.Time `json:"data_fim,omitempty"`
	CriadoEm     time.Time  `json:"criado_em"`
	AtualizadoEm time.Time  `json:"atualizado_em"`
}

// AtualizarProgresso aplica as regras de progresso sobre a entidade:
// valor fora de [0,100] é rejeitado, progresso só muda enquanto a
// intervenção está ATIVA, e 100 conclui automaticamente com data de fim.
func (i *Intervencao) AtualizarProgresso(valor int, agora time.Time) error {
	if valor < 0 || valor > 100 {
		return apperr.BadRequest("INTERVENCAO_INVALID_PROGRESS", "progresso deve estar entre 0 e 100")
	}
	if i.Status != StatusAtiva {
		return apperr.BadRequest("INTERVENCAO_NOT_ACTIVE", "intervenção não está ativa")
	}

	i.Progresso = valor
	if valor == 100 {
		i.Status = StatusConcluida
		i.DataFim = &agora
	}
	return nil
}

// Concluir encerra a intervenção com progresso total.
func (i *Intervencao) Concluir(agora time.Time) error {
	if i.Status != StatusAtiva {
		return apperr.BadRequest("INTERVENCAO_NOT_ACTIVE", "intervenção não está ativa")
	}

	i.Progresso = 100
	i.Status = StatusConcluida
	i.DataFim = &agora
	return nil
}

// Cancelar interrompe a intervenção. A data de fim não é alterada.
func (i *Intervencao) Cancelar() {
	i.Status = StatusCancelada
}

// CreateCatalogoInput encapsula campos do modelo de intervenção.
type CreateCatalogoInput struct {
	Titulo           string
	Descricao        string
	Tipo             string
	DificuldadesAlvo []string
	DuracaoSemanas   *int
	Recursos         []string
}

// UpdateCatalogoInput permite atualização parcial do modelo.
type UpdateCatalogoInput struct {
	Titulo           *string
	Descricao        *string
	Tipo             *string
	DificuldadesAlvo []string
	DuracaoSemanas   *int
	Recursos         []string
	Status           *string
}

// CreateIntervencaoInput instancia um modelo para um estudante.
type CreateIntervencaoInput struct {
	CatalogoID  *uuid.UUID
	EstudanteID uuid.UUID
	Descricao   string
	DataInicio  *time.Time
}
