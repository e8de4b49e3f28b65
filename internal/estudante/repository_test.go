package estudante

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/apoiaedu/api/internal/apperr"
	"github.com/apoiaedu/api/internal/db"
	"github.com/apoiaedu/api/internal/db/dbtest"
)

func estudanteRow(id uuid.UUID) dbtest.Row {
	agora := time.Now()
	return dbtest.Row{Values: []any{
		id,
		"Maria",
		"3º ano",
		time.Date(2016, 3, 10, 0, 0, 0, 0, time.UTC),
		"ATIVO",
		uuid.New(),
		agora,
		agora,
	}}
}

func TestDeleteRemoveTudoQueReferencia(t *testing.T) {
	id := uuid.New()
	fake := &dbtest.Fake{}
	fake.StubQueryRow("FROM estudantes WHERE id", estudanteRow(id))

	repo := NewRepository(db.NewUnitOfWork(fake))
	if err := repo.Delete(context.Background(), id); err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	ordem := []string{
		"DELETE FROM estudante_dificuldades",
		"DELETE FROM avaliacoes",
		"DELETE FROM intervencoes",
		"DELETE FROM equipe_estudantes",
		"DELETE FROM estudantes WHERE id",
	}
	anterior := -1
	for _, fragmento := range ordem {
		idx := fake.Index(fragmento)
		if idx < 0 {
			t.Fatalf("passo da cascata ausente: %s", fragmento)
		}
		if idx < anterior {
			t.Fatalf("ordem da cascata incorreta em: %s", fragmento)
		}
		anterior = idx
	}
	if fake.Commits != 1 {
		t.Fatalf("cascata deveria commitar uma única vez, veio %d", fake.Commits)
	}
}

func TestDeleteEstudanteInexistente(t *testing.T) {
	fake := &dbtest.Fake{}
	fake.StubQueryRow("FROM estudantes WHERE id", dbtest.Row{Err: pgx.ErrNoRows})

	repo := NewRepository(db.NewUnitOfWork(fake))
	err := repo.Delete(context.Background(), uuid.New())

	var appErr *apperr.AppError
	if !errors.As(err, &appErr) || appErr.Code != "ESTUDANTE_NOT_FOUND" {
		t.Fatalf("esperado ESTUDANTE_NOT_FOUND, veio %v", err)
	}
	if fake.Index("DELETE FROM") >= 0 {
		t.Fatal("nenhum delete deveria executar sem o estudante")
	}
	if fake.Rollbacks != 1 || fake.Commits != 0 {
		t.Fatalf("esperado rollback único, veio commits=%d rollbacks=%d", fake.Commits, fake.Rollbacks)
	}
}

func TestAddDificuldadeJaAssociada(t *testing.T) {
	id := uuid.New()
	fake := &dbtest.Fake{}
	fake.StubQueryRow("FROM estudantes WHERE id", estudanteRow(id))
	fake.StubQueryRow("FROM dificuldades_aprendizagem WHERE id", dbtest.Row{Values: []any{true}})
	fake.StubQueryRow("FROM estudante_dificuldades WHERE estudante_id", dbtest.Row{Values: []any{true}})

	repo := NewRepository(db.NewUnitOfWork(fake))
	err := repo.AddDificuldade(context.Background(), id, uuid.New(), AddDificuldadeInput{})

	var appErr *apperr.AppError
	if !errors.As(err, &appErr) || appErr.Code != "ESTUDANTE_ALREADY_ASSOCIATED" {
		t.Fatalf("esperado ESTUDANTE_ALREADY_ASSOCIATED, veio %v", err)
	}
	if fake.Index("INSERT INTO estudante_dificuldades") >= 0 {
		t.Fatal("vínculo duplicado não deveria inserir")
	}
	if fake.Rollbacks != 1 {
		t.Fatalf("esperado rollback, veio %d", fake.Rollbacks)
	}
}

func TestAddDificuldadeConstraintUnica(t *testing.T) {
	id := uuid.New()
	fake := &dbtest.Fake{}
	fake.StubQueryRow("FROM estudantes WHERE id", estudanteRow(id))
	fake.StubQueryRow("FROM dificuldades_aprendizagem WHERE id", dbtest.Row{Values: []any{true}})
	fake.StubQueryRow("FROM estudante_dificuldades WHERE estudante_id", dbtest.Row{Values: []any{false}})
	fake.StubExec("INSERT INTO estudante_dificuldades", "",
		&pgconn.PgError{Code: "23505", ConstraintName: "estudante_dificuldades_pkey"})

	repo := NewRepository(db.NewUnitOfWork(fake))
	err := repo.AddDificuldade(context.Background(), id, uuid.New(), AddDificuldadeInput{})

	var appErr *apperr.AppError
	if !errors.As(err, &appErr) || appErr.Code != "ESTUDANTE_ALREADY_ASSOCIATED" {
		t.Fatalf("constraint violada deveria virar ESTUDANTE_ALREADY_ASSOCIATED, veio %v", err)
	}
	if fake.Rollbacks != 1 {
		t.Fatalf("esperado rollback, veio %d", fake.Rollbacks)
	}
}
