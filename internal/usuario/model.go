package usuario

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cargo enumera os papéis aceitos para um usuário.
type Cargo string

const (
	CargoProfessor     Cargo = "PROFESSOR"
	CargoCoordenador   Cargo = "COORDENADOR"
	CargoEspecialista  Cargo = "ESPECIALISTA"
	CargoDiretor       Cargo = "DIRETOR"
	CargoAdministrador Cargo = "ADMINISTRADOR"
)

// Status enumera o ciclo de vida do usuário. Exclusão é sempre lógica:
// o registro vira CANCELADO e sai das listagens padrão.
type Status string

const (
	StatusAtivo     Status = "ATIVO"
	StatusCancelado Status = "CANCELADO"
)

// ParseCargo valida o cargo vindo de fora ou do banco. Valor desconhecido é
// erro duro, nunca coagido para um default. "ADMIN" é aceito como sinônimo
// legado de ADMINISTRADOR.
func ParseCargo(raw string) (Cargo, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PROFESSOR":
		return CargoProfessor, nil
	case "COORDENADOR":
		return CargoCoordenador, nil
	case "ESPECIALISTA":
		return CargoEspecialista, nil
	case "DIRETOR":
		return CargoDiretor, nil
	case "ADMINISTRADOR", "ADMIN":
		return CargoAdministrador, nil
	}
	return "", fmt.Errorf("cargo desconhecido: %q", raw)
}

// ParseStatus valida o status persistido ou informado.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ATIVO":
		return StatusAtivo, nil
	case "CANCELADO":
		return StatusCancelado, nil
	}
	return "", fmt.Errorf("status de usuário desconhecido: %q", raw)
}

// Usuario representa um profissional da rede de apoio.
type Usuario struct {
	ID           uuid.UUID            `json:"id"`
	Nome         string               `json:"nome"`
	Email        string               `json:"email"`
	SenhaHash    string               `json:"-"`
	Cargo        Cargo                `json:"cargo"`
	Status       Status               `json:"status"`
	Instituicoes []InstituicaoVinculo `json:"instituicoes"`
	CriadoEm     time.Time            `json:"criado_em"`
	AtualizadoEm time.Time            `json:"atualizado_em"`
}

// Instituicao representa uma escola ou unidade de atendimento.
type Instituicao struct {
	ID           uuid.UUID `json:"id"`
	Nome         string    `json:"nome"`
	Sigla        *string   `json:"sigla,omitempty"`
	Cidade       *string   `json:"cidade,omitempty"`
	CriadoEm     time.Time `json:"criado_em"`
	AtualizadoEm time.Time `json:"atualizado_em"`
}

// InstituicaoVinculo agrega instituição e papel do usuário nela.
type InstituicaoVinculo struct {
	InstituicaoID uuid.UUID `json:"instituicao_id"`
	Nome          string    `json:"nome"`
	Papel         *string   `json:"papel,omitempty"`
}

// CreateUsuarioInput encapsula campos para cadastro.
type CreateUsuarioInput struct {
	Nome      string
	Email     string
	SenhaHash string
	Cargo     Cargo
}

// UpdateUsuarioInput permite atualização parcial do perfil.
type UpdateUsuarioInput struct {
	Nome  *string
	Email *string
	Cargo *Cargo
}

// CreateInstituicaoInput encapsula campos para cadastro de instituição.
type CreateInstituicaoInput struct {
	Nome   string
	Sigla  *string
	Cidade *string
}
