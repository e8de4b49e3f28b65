package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/apoiaedu/api/internal/db/dbtest"
)

func TestWithTransactionCommit(t *testing.T) {
	fake := &dbtest.Fake{}
	uow := NewUnitOfWork(fake)

	err := uow.WithTransaction(context.Background(), func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `UPDATE estudantes SET nome = $2 WHERE id = $1`, "id", "nome")
		return err
	})
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if fake.Commits != 1 || fake.Rollbacks != 0 {
		t.Fatalf("esperado commit único sem rollback, veio commits=%d rollbacks=%d", fake.Commits, fake.Rollbacks)
	}
	if fake.Index("UPDATE estudantes") < 0 {
		t.Fatal("comando não chegou à transação")
	}
}

func TestWithTransactionRollbackPropagaErro(t *testing.T) {
	fake := &dbtest.Fake{}
	uow := NewUnitOfWork(fake)

	sentinela := errors.New("falha de domínio")
	err := uow.WithTransaction(context.Background(), func(ctx context.Context, tx pgx.Tx) error {
		return sentinela
	})
	if !errors.Is(err, sentinela) {
		t.Fatalf("erro deveria propagar sem tradução, veio %v", err)
	}
	if fake.Rollbacks != 1 || fake.Commits != 0 {
		t.Fatalf("esperado rollback único sem commit, veio commits=%d rollbacks=%d", fake.Commits, fake.Rollbacks)
	}
}

func TestWithTransactionBeginFalha(t *testing.T) {
	falha := errors.New("pool esgotado")
	fake := &dbtest.Fake{BeginErr: falha}
	uow := NewUnitOfWork(fake)

	err := uow.WithTransaction(context.Background(), func(ctx context.Context, tx pgx.Tx) error {
		t.Fatal("bloco não deveria executar sem transação")
		return nil
	})
	if !errors.Is(err, falha) {
		t.Fatalf("esperado erro do begin, veio %v", err)
	}
	if fake.Commits != 0 || fake.Rollbacks != 0 {
		t.Fatalf("nenhuma transação deveria abrir, veio commits=%d rollbacks=%d", fake.Commits, fake.Rollbacks)
	}
}

func TestWithoutTransactionPassaDireto(t *testing.T) {
	fake := &dbtest.Fake{}
	uow := NewUnitOfWork(fake)

	err := uow.WithoutTransaction(context.Background(), func(ctx context.Context, q Querier) error {
		_, err := q.Query(ctx, `SELECT id FROM estudantes`)
		return err
	})
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if fake.Commits != 0 || fake.Rollbacks != 0 {
		t.Fatal("leitura não deveria abrir transação")
	}
}
