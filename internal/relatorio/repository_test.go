package relatorio

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/apoiaedu/api/internal/apperr"
	"github.com/apoiaedu/api/internal/db"
	"github.com/apoiaedu/api/internal/db/dbtest"
)

func TestAddAnexoRelatorioInexistente(t *testing.T) {
	fake := &dbtest.Fake{}
	fake.StubQueryRow("FROM relatorios WHERE id", dbtest.Row{Err: pgx.ErrNoRows})

	repo := NewRepository(db.NewUnitOfWork(fake))
	_, err := repo.AddAnexo(context.Background(), uuid.New(), AddAnexoInput{NomeArquivo: "laudo.pdf"})

	var appErr *apperr.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("esperado AppError, veio %v", err)
	}
	if appErr.Code != "RELATORIO_NOT_FOUND" {
		t.Fatalf("o 404 deve apontar o relatório ausente, veio %s", appErr.Code)
	}
	if fake.Index("INSERT INTO relatorio_anexos") >= 0 {
		t.Fatal("anexo não deveria ser inserido sem o relatório")
	}
	if fake.Rollbacks != 1 {
		t.Fatalf("esperado rollback, veio %d", fake.Rollbacks)
	}
}
