package apperr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestTranslateNoRows(t *testing.T) {
	appErr := Translate(pgx.ErrNoRows, "equipe")

	if appErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", appErr.StatusCode)
	}
	if appErr.Code != "EQUIPE_NOT_FOUND" {
		t.Fatalf("expected EQUIPE_NOT_FOUND got %s", appErr.Code)
	}
}

func TestTranslateUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "usuarios_email_key"}

	appErr := Translate(pgErr, "usuario")

	if appErr.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 got %d", appErr.StatusCode)
	}
	if appErr.Code != "USUARIO_ALREADY_EXISTS" {
		t.Fatalf("expected USUARIO_ALREADY_EXISTS got %s", appErr.Code)
	}
	if appErr.Message != "usuario já existe (email)" {
		t.Fatalf("mensagem inesperada: %s", appErr.Message)
	}
}

func TestTranslateForeignKeyViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503"}

	appErr := Translate(pgErr, "intervencao")

	if appErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", appErr.StatusCode)
	}
	if appErr.Code != "INVALID_INTERVENCAO_RELATIONSHIP" {
		t.Fatalf("expected INVALID_INTERVENCAO_RELATIONSHIP got %s", appErr.Code)
	}
}

func TestTranslatePassesTypedErrorsThrough(t *testing.T) {
	original := Conflict("ESTUDANTE_ALREADY_ASSOCIATED", "vínculo já existe")

	appErr := Translate(original, "estudante")

	if appErr != original {
		t.Fatal("erro tipado deveria passar intocado")
	}
}

func TestTranslateUnknownErrorBecomesInternal(t *testing.T) {
	appErr := Translate(errors.New("boom"), "relatorio")

	if appErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", appErr.StatusCode)
	}
	if appErr.Code != "RELATORIO_ERROR" {
		t.Fatalf("expected RELATORIO_ERROR got %s", appErr.Code)
	}
}
