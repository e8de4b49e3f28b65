package reuniao

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status enumera os estados de uma reunião.
type Status string

const (
	StatusPendente    Status = "PENDENTE"
	StatusAgendada    Status = "AGENDADA"
	StatusEmAndamento Status = "EM_ANDAMENTO"
	StatusConcluida   Status = "CONCLUIDA"
	StatusCancelada   Status = "CANCELADA"
)

// transicoes define as mudanças de estado permitidas. CANCELADA é
// alcançável de qualquer estado não terminal.
var transicoes = map[Status][]Status{
	StatusPendente:    {StatusAgendada, StatusCancelada},
	StatusAgendada:    {StatusEmAndamento, StatusCancelada},
	StatusEmAndamento: {StatusConcluida, StatusCancelada},
	StatusConcluida:   {},
	StatusCancelada:   {},
}

// ParseStatus valida o status persistido ou informado.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PENDENTE":
		return StatusPendente, nil
	case "AGENDADA":
		return StatusAgendada, nil
	case "EM_ANDAMENTO":
		return StatusEmAndamento, nil
	case "CONCLUIDA":
		return StatusConcluida, nil
	case "CANCELADA":
		return StatusCancelada, nil
	}
	return "", fmt.Errorf("status de reunião desconhecido: %q", raw)
}

// PodeTransicionar indica se a mudança de estado é legal.
func PodeTransicionar(de, para Status) bool {
	for _, destino := range transicoes[de] {
		if destino == para {
			return true
		}
	}
	return false
}

// Reuniao representa um encontro da equipe de apoio.
type Reuniao struct {
	ID              uuid.UUID        `json:"id"`
	Titulo          string           `json:"titulo"`
	Data            time.Time        `json:"data"`
	Status          Status           `json:"status"`
	EquipeID        *uuid.UUID       `json:"equipe_id,omitempty"`
	Pauta           *string          `json:"pauta,omitempty"`
	Observacoes     *string          `json:"observacoes,omitempty"`
	Participantes   []Participante   `json:"participantes"`
	Encaminhamentos []Encaminhamento `json:"encaminhamentos"`
	CriadoEm        time.Time        `json:"criado_em"`
	AtualizadoEm    time.Time        `json:"atualizado_em"`
}

// Participante agrega usuário convocado e sua presença.
type Participante struct {
	UsuarioID    uuid.UUID  `json:"usuario_id"`
	Nome         string     `json:"nome"`
	Presente     *bool      `json:"presente,omitempty"`
	ConfirmadoEm *time.Time `json:"confirmado_em,omitempty"`
}

// Encaminhamento é um item de ação gerado na reunião.
type Encaminhamento struct {
	ID            uuid.UUID  `json:"id"`
	ReuniaoID     uuid.UUID  `json:"reuniao_id"`
	EquipeID      *uuid.UUID `json:"equipe_id,omitempty"`
	Descricao     string     `json:"descricao"`
	ResponsavelID *uuid.UUID `json:"responsavel_id,omitempty"`
	Prazo         *time.Time `json:"prazo,omitempty"`
	Status        string     `json:"status"`
	Prioridade    string     `json:"prioridade"`
	CriadoEm      time.Time  `json:"criado_em"`
	AtualizadoEm  time.Time  `json:"atualizado_em"`
}

// CreateReuniaoInput encapsula campos para agendamento.
type CreateReuniaoInput struct {
	Titulo   string
	Data     time.Time
	EquipeID *uuid.UUID
	Pauta    *string
}

// UpdateReuniaoInput permite atualização parcial (status tem fluxo próprio).
type UpdateReuniaoInput struct {
	Titulo      *string
	Data        *time.Time
	Pauta       *string
	Observacoes *string
}

// CreateEncaminhamentoInput encapsula um novo item de ação.
type CreateEncaminhamentoInput struct {
	Descricao     string
	ResponsavelID *uuid.UUID
	Prazo         *time.Time
	Prioridade    string
}

// UpdateEncaminhamentoInput permite acompanhar o andamento do item.
type UpdateEncaminhamentoInput struct {
	Descricao     *string
	ResponsavelID *uuid.UUID
	Prazo         *time.Time
	Status        *string
	Prioridade    *string
}
