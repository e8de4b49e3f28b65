package intervencao

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

func TestCreateModeloInexistente(t *testing.T) {
	fake := &dbtest.Fake{}
	fake.StubQueryRow("FROM estudantes WHERE id", dbtest.Row{Values: []any{true}})
	fake.StubQueryRow("FROM catalogo_intervencoes WHERE id", dbtest.Row{Err: pgx.ErrNoRows})

	catalogoID := uuid.New()
	repo := NewRepository(db.NewUnitOfWork(fake))
	_, err := repo.Create(context.Background(), CreateIntervencaoInput{
		CatalogoID:  &catalogoID,
		EstudanteID: uuid.New(),
		Descricao:   "Reforço de leitura",
	})

	var appErr *apperr.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("esperado AppError, veio %v", err)
	}
	if appErr.Code != "CATALOGO_INTERVENCAO_NOT_FOUND" {
		t.Fatalf("o 404 deve apontar o modelo ausente, veio %s", appErr.Code)
	}
	if fake.Index("INSERT INTO intervencoes") >= 0 {
		t.Fatal("intervenção não deveria ser criada sem o modelo")
	}
}
