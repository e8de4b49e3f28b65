package equipe

import (
	"time"

	"github.com/google/uuid"
)

// Equipe representa um grupo multidisciplinar de acompanhamento.
type Equipe struct {
	ID           uuid.UUID         `json:"id"`
	Nome         string            `json:"nome"`
	Descricao    string            `json:"descricao"`
	Ativo        bool              `json:"ativo"`
	Membros      []Membro          `json:"membros"`
	Estudantes   []EstudanteResumo `json:"estudantes"`
	CriadoEm     time.Time         `json:"criado_em"`
	AtualizadoEm time.Time         `json:"atualizado_em"`
}

// Membro agrega usuário integrante e sua função na equipe.
type Membro struct {
	UsuarioID uuid.UUID `json:"usuario_id"`
	Nome      string    `json:"nome"`
	Cargo     string    `json:"cargo"`
	Funcao    *string   `json:"funcao,omitempty"`
	CriadoEm  time.Time `json:"criado_em"`
}

// EstudanteResumo apresenta o estudante atribuído à equipe.
type EstudanteResumo struct {
	EstudanteID uuid.UUID `json:"estudante_id"`
	Nome        string    `json:"nome"`
	Serie       string    `json:"serie"`
	CriadoEm    time.Time `json:"criado_em"`
}

// CreateEquipeInput encapsula campos para cadastro.
type CreateEquipeInput struct {
	Nome      string
	Descricao string
}

// UpdateEquipeInput permite atualização parcial.
type UpdateEquipeInput struct {
	Nome      *string
	Descricao *string
	Ativo     *bool
}
