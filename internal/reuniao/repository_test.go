package reuniao

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

func TestAddEncaminhamentoReuniaoInexistente(t *testing.T) {
	fake := &dbtest.Fake{}
	fake.StubQueryRow("FROM reunioes WHERE id", dbtest.Row{Err: pgx.ErrNoRows})

	repo := NewRepository(db.NewUnitOfWork(fake))
	_, err := repo.AddEncaminhamento(context.Background(), uuid.New(), CreateEncaminhamentoInput{
		Descricao: "Encaminhar para avaliação fonoaudiológica",
	})

	var appErr *apperr.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("esperado AppError, veio %v", err)
	}
	if appErr.Code != "REUNIAO_NOT_FOUND" {
		t.Fatalf("o 404 deve apontar a reunião ausente, veio %s", appErr.Code)
	}
	if fake.Index("INSERT INTO encaminhamentos") >= 0 {
		t.Fatal("encaminhamento não deveria ser inserido sem a reunião")
	}
}
