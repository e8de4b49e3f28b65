package estudante

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status enumera o ciclo de vida do estudante.
type Status string

const (
	StatusAtivo       Status = "ATIVO"
	StatusTransferido Status = "TRANSFERIDO"
	StatusInativo     Status = "INATIVO"
)

// ParseStatus valida status persistido ou informado; desconhecido é erro.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ATIVO":
		return StatusAtivo, nil
	case "TRANSFERIDO":
		return StatusTransferido, nil
	case "INATIVO":
		return StatusInativo, nil
	}
	return "", fmt.Errorf("status de estudante desconhecido: %q", raw)
}

// Estudante representa um aluno acompanhado pela rede de apoio.
type Estudante struct {
	ID             uuid.UUID              `json:"id"`
	Nome           string                 `json:"nome"`
	Serie          string                 `json:"serie"`
	DataNascimento time.Time              `json:"data_nascimento"`
	Status         Status                 `json:"status"`
	UsuarioID      uuid.UUID              `json:"usuario_id"`
	Dificuldades   []DificuldadeAssociada `json:"dificuldades"`
	CriadoEm       time.Time              `json:"criado_em"`
	AtualizadoEm   time.Time              `json:"atualizado_em"`
}

// DificuldadeAssociada agrega a dificuldade vinculada e os metadados do
// vínculo.
type DificuldadeAssociada struct {
	DificuldadeID uuid.UUID `json:"dificuldade_id"`
	Nome          string    `json:"nome"`
	Categoria     string    `json:"categoria"`
	Tipo          *string   `json:"tipo,omitempty"`
	Observacoes   *string   `json:"observacoes,omitempty"`
	CriadoEm      time.Time `json:"criado_em"`
}

// CreateEstudanteInput encapsula campos para cadastro.
type CreateEstudanteInput struct {
	Nome           string
	Serie          string
	DataNascimento time.Time
	UsuarioID      uuid.UUID
}

// UpdateEstudanteInput permite atualização parcial.
type UpdateEstudanteInput struct {
	Nome   *string
	Serie  *string
	Status *Status
}

// AddDificuldadeInput carrega metadados opcionais do vínculo.
type AddDificuldadeInput struct {
	Tipo        *string
	Observacoes *string
}
