package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const (
	// txMaxWait limita quanto tempo esperamos para iniciar uma transação.
	txMaxWait = 5 * time.Second
	// txTimeout limita a execução do bloco transacional inteiro.
	txTimeout = 10 * time.Second
)

// Beginner é o recorte do pool que o unit of work usa: consultas diretas
// e abertura de transações. *pgxpool.Pool satisfaz a interface; os testes
// de repositório injetam uma implementação falsa.
type Beginner interface {
	Querier
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// UnitOfWork delimita escopos de execução contra o banco.
//
// Leituras usam WithoutTransaction (passthrough direto no pool). Escritas que
// tocam mais de uma tabela usam WithTransaction, que garante commit ou
// rollback do bloco inteiro sob Read Committed. Aninhar WithTransaction não é
// suportado.
type UnitOfWork struct {
	db Beginner
}

// NewUnitOfWork cria o unit of work sobre um pool injetado.
func NewUnitOfWork(db Beginner) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// WithTransaction executa fn dentro de uma transação Read Committed.
// Qualquer erro devolvido por fn provoca rollback; o erro é logado e
// propagado sem tradução, a tipagem acontece na borda do repositório.
func (u *UnitOfWork) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	beginCtx, cancelBegin := context.WithTimeout(ctx, txMaxWait)
	defer cancelBegin()

	tx, err := u.db.BeginTx(beginCtx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		log.Error().Err(err).Msg("uow: falha ao iniciar transação")
		return err
	}

	execCtx, cancelExec := context.WithTimeout(ctx, txTimeout)
	defer cancelExec()

	defer func() {
		// no-op quando a transação já foi commitada
		if rbErr := tx.Rollback(execCtx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Error().Err(rbErr).Msg("uow: rollback falhou")
		}
	}()

	if err := fn(execCtx, tx); err != nil {
		log.Error().Err(err).Msg("uow: transação revertida")
		return err
	}

	if err := tx.Commit(execCtx); err != nil {
		log.Error().Err(err).Msg("uow: commit falhou")
		return err
	}

	return nil
}

// WithoutTransaction executa fn direto no pool compartilhado, sem
// transação. Usado exclusivamente pelos caminhos de leitura.
func (u *UnitOfWork) WithoutTransaction(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	if err := fn(ctx, u.db); err != nil {
		log.Error().Err(err).Msg("uow: operação sem transação falhou")
		return err
	}
	return nil
}

// Pool expõe o handle cru quando o unit of work envolve um pool real.
// Válvula de escape deliberada para os poucos call sites que precisam de
// acesso direto (health check, migrações).
func (u *UnitOfWork) Pool() *pgxpool.Pool {
	pool, _ := u.db.(*pgxpool.Pool)
	return pool
}
