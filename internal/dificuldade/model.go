package dificuldade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Categoria enumera as áreas de dificuldade acompanhadas.
type Categoria string

const (
	CategoriaLeitura       Categoria = "LEITURA"
	CategoriaEscrita       Categoria = "ESCRITA"
	CategoriaMatematica    Categoria = "MATEMATICA"
	CategoriaAtencao       Categoria = "ATENCAO"
	CategoriaComportamento Categoria = "COMPORTAMENTO"
	CategoriaComunicacao   Categoria = "COMUNICACAO"
)

// Status enumera o ciclo de vida da dificuldade no catálogo.
type Status string

const (
	StatusAtiva   Status = "ATIVA"
	StatusInativa Status = "INATIVA"
)

// ParseCategoria valida a categoria; valor desconhecido é erro duro.
func ParseCategoria(raw string) (Categoria, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "LEITURA":
		return CategoriaLeitura, nil
	case "ESCRITA":
		return CategoriaEscrita, nil
	case "MATEMATICA":
		return CategoriaMatematica, nil
	case "ATENCAO":
		return CategoriaAtencao, nil
	case "COMPORTAMENTO":
		return CategoriaComportamento, nil
	case "COMUNICACAO":
		return CategoriaComunicacao, nil
	}
	return "", fmt.Errorf("categoria de dificuldade desconhecida: %q", raw)
}

// ParseStatus valida o status persistido ou informado.
func ParseStatus(raw string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ATIVA":
		return StatusAtiva, nil
	case "INATIVA":
		return StatusInativa, nil
	}
	return "", fmt.Errorf("status de dificuldade desconhecido: %q", raw)
}

// Dificuldade representa uma dificuldade de aprendizagem do catálogo.
type Dificuldade struct {
	ID           uuid.UUID `json:"id"`
	Nome         string    `json:"nome"`
	Descricao    string    `json:"descricao"`
	Categoria    Categoria `json:"categoria"`
	Status       Status    `json:"status"`
	CriadoEm     time.Time `json:"criado_em"`
	AtualizadoEm time.Time `json:"atualizado_em"`
}

// CreateDificuldadeInput encapsula campos para cadastro.
type CreateDificuldadeInput struct {
	Nome      string
	Descricao string
	Categoria Categoria
}

// UpdateDificuldadeInput permite atualização parcial.
type UpdateDificuldadeInput struct {
	Nome      *string
	Descricao *string
	Categoria *Categoria
	Status    *Status
}
