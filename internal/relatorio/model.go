package relatorio

import (
	"time"

	"github.com/google/uuid"
)

// Permissões aceitas em compartilhamentos.
const (
	PermissaoLeitura = "LEITURA"
	PermissaoEdicao  = "EDICAO"
)

// Relatorio representa um documento de acompanhamento.
type Relatorio struct {
	ID                uuid.UUID          `json:"id"`
	Titulo            string             `json:"titulo"`
	Tipo              string             `json:"tipo"`
	Conteudo          string             `json:"conteudo"`
	EstudanteID       *uuid.UUID         `json:"estudante_id,omitempty"`
	AutorID           uuid.UUID          `json:"autor_id"`
	Periodo           *string            `json:"periodo,omitempty"`
	Anexos            []Anexo            `json:"anexos"`
	Compartilhamentos []Compartilhamento `json:"compartilhamentos"`
	CriadoEm          time.Time          `json:"criado_em"`
	AtualizadoEm      time.Time          `json:"atualizado_em"`
}

// Anexo é um arquivo vinculado ao relatório.
type Anexo struct {
	ID          uuid.UUID `json:"id"`
	RelatorioID uuid.UUID `json:"relatorio_id"`
	NomeArquivo string    `json:"nome_arquivo"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Tamanho     int64     `json:"tamanho"`
	CriadoEm    time.Time `json:"criado_em"`
}

// Compartilhamento concede acesso ao relatório para outro usuário.
type Compartilhamento struct {
	ID          uuid.UUID `json:"id"`
	RelatorioID uuid.UUID `json:"relatorio_id"`
	UsuarioID   uuid.UUID `json:"usuario_id"`
	Permissao   string    `json:"permissao"`
	CriadoEm    time.Time `json:"criado_em"`
}

// Visualizacao é o registro de auditoria de leitura.
type Visualizacao struct {
	ID            uuid.UUID `json:"id"`
	RelatorioID   uuid.UUID `json:"relatorio_id"`
	UsuarioID     uuid.UUID `json:"usuario_id"`
	VisualizadoEm time.Time `json:"visualizado_em"`
}

// CreateRelatorioInput encapsula campos para criação.
type CreateRelatorioInput struct {
	Titulo      string
	Tipo        string
	Conteudo    string
	EstudanteID *uuid.UUID
	AutorID     uuid.UUID
	Periodo     *string
}

// UpdateRelatorioInput permite atualização parcial.
type UpdateRelatorioInput struct {
	Titulo   *string
	Tipo     *string
	Conteudo *string
	Periodo  *string
}

// AddAnexoInput carrega metadados do arquivo já armazenado.
type AddAnexoInput struct {
	NomeArquivo string
	URL         string
	ContentType string
	Tamanho     int64
}
