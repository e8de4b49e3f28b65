// Package apperr define o erro tipado da aplicação e a rotina única de
// tradução de erros do driver para esse formato. Acima da camada de
// repositório só circula *AppError, nunca erro cru do pgx.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Códigos de classe do Postgres tratados pela tradução.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// AppError é o erro operacional exposto pela camada de dados.
type AppError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	StatusCode    int    `json:"-"`
	IsOperational bool   `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

// NotFound cria erro 404 para a entidade informada.
func NotFound(entity, message string) *AppError {
	return &AppError{
		Code:          entityCode(entity) + "_NOT_FOUND",
		Message:       message,
		StatusCode:    http.StatusNotFound,
		IsOperational: true,
	}
}

// NotFoundWithCode cria erro 404 com código explícito (associações).
func NotFoundWithCode(code, message string) *AppError {
	return &AppError{
		Code:          code,
		Message:       message,
		StatusCode:    http.StatusNotFound,
		IsOperational: true,
	}
}

// Unauthorized cria erro 401 com código específico.
func Unauthorized(code, message string) *AppError {
	return &AppError{
		Code:          code,
		Message:       message,
		StatusCode:    http.StatusUnauthorized,
		IsOperational: true,
	}
}

// Conflict cria erro 409 com código específico.
func Conflict(code, message string) *AppError {
	return &AppError{
		Code:          code,
		Message:       message,
		StatusCode:    http.StatusConflict,
		IsOperational: true,
	}
}

// BadRequest cria erro 400 com código específico.
func BadRequest(code, message string) *AppError {
	return &AppError{
		Code:          code,
		Message:       message,
		StatusCode:    http.StatusBadRequest,
		IsOperational: true,
	}
}

// Internal cria erro 500 genérico para a entidade.
func Internal(entity, message string) *AppError {
	return &AppError{
		Code:          entityCode(entity) + "_ERROR",
		Message:       message,
		StatusCode:    http.StatusInternalServerError,
		IsOperational: true,
	}
}

// Translate normaliza qualquer erro vindo do gateway de persistência.
// Erros já tipados passam intocados; o restante é classificado pelo código
// estruturado do Postgres. Nunca retorna nil.
func Translate(err error, entity string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return NotFound(entity, fmt.Sprintf("%s não encontrado(a)", entity))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			msg := fmt.Sprintf("%s já existe", entity)
			if field := fieldFromConstraint(pgErr); field != "" {
				msg = fmt.Sprintf("%s já existe (%s)", entity, field)
			}
			return Conflict(entityCode(entity)+"_ALREADY_EXISTS", msg)
		case pgForeignKeyViolation:
			return BadRequest(
				"INVALID_"+entityCode(entity)+"_RELATIONSHIP",
				fmt.Sprintf("referência inválida ao manipular %s", entity),
			)
		}
	}

	if err != nil {
		return Internal(entity, err.Error())
	}

	return Internal(entity, fmt.Sprintf("erro inesperado ao manipular %s", entity))
}

func entityCode(entity string) string {
	entity = strings.TrimSpace(entity)
	entity = strings.ReplaceAll(entity, " ", "_")
	return strings.ToUpper(entity)
}

// fieldFromConstraint extrai o campo ofensor dos metadados do erro, quando
// disponível (ex.: "usuarios_email_key" -> "email").
func fieldFromConstraint(pgErr *pgconn.PgError) string {
	name := pgErr.ConstraintName
	if name == "" {
		return ""
	}

	name = strings.TrimSuffix(name, "_key")
	name = strings.TrimSuffix(name, "_idx")
	if idx := strings.Index(name, "_"); idx >= 0 && idx+1 < len(name) {
		return name[idx+1:]
	}
	return name
}
