package avaliacao

import (
	"time"

	"github.com/google/uuid"
)

// Avaliacao registra a aplicação de um instrumento de avaliação a um
// estudante. Nome do estudante e do avaliador vêm resolvidos na listagem.
type Avaliacao struct {
	ID            uuid.UUID  `json:"id"`
	EstudanteID   uuid.UUID  `json:"estudante_id"`
	EstudanteNome string     `json:"estudante_nome,omitempty"`
	AvaliadorID   *uuid.UUID `json:"avaliador_id,omitempty"`
	AvaliadorNome *string    `json:"avaliador_nome,omitempty"`
	Instrumento   string     `json:"instrumento"`
	DataAplicacao time.Time  `json:"data_aplicacao"`
	Pontuacao     *float64   `json:"pontuacao,omitempty"`
	Observacoes   *string    `json:"observacoes,omitempty"`
	CriadoEm      time.Time  `json:"criado_em"`
	AtualizadoEm  time.Time  `json:"atualizado_em"`
}

// CreateAvaliacaoInput encapsula campos para registro.
type CreateAvaliacaoInput struct {
	EstudanteID   uuid.UUID
	AvaliadorID   *uuid.UUID
	Instrumento   string
	DataAplicacao time.Time
	Pontuacao     *float64
	Observacoes   *string
}

// UpdateAvaliacaoInput permite atualização parcial.
type UpdateAvaliacaoInput struct {
	Instrumento   *string
	DataAplicacao *time.Time
	Pontuacao     *float64
	Observacoes   *string
}
