package avaliacao

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/apoiaedu/api/internal/apperr"
	"github.com/apoiaedu/api/internal/db"
)

const entity = "avaliacao"

// Repository provê acesso às avaliações aplicadas.
type Repository struct {
	uow *db.UnitOfWork
}

// NewRepository cria instância do repositório.
func NewRepository(uow *db.UnitOfWork) *Repository {
	return &Repository{uow: uow}
}

// A listagem resolve os nomes de estudante e avaliador no próprio SQL para
// evitar N+1 no painel.
const listQuery = `
    SELECT a.id, a.estudante_id, e.nome, a.avaliador_id, u.nome,
           a.instrumento, a.data_aplicacao, a.pontuacao, a.observacoes,
           a.criado_em, a.atualizado_em
    FROM avaliacoes a
    JOIN estudantes e ON e.id = a.estudante_id
    LEFT JOIN usuarios u ON u.id = a.avaliador_id
`

// FindAll lista todas as avaliações, mais recentes primeiro.
func (r *Repository) FindAll(ctx context.Context) ([]Avaliacao, error) {
	return r.list(ctx, listQuery+` ORDER BY a.data_aplicacao DESC, a.criado_em DESC`)
}

// FindByEstudante lista as avaliações de um estudante.
func (r *Repository) FindByEstudante(ctx context.Context, estudanteID uuid.UUID) ([]Avaliacao, error) {
	return r.list(ctx,
		listQuery+` WHERE a.estudante_id = $1 ORDER BY a.data_aplicacao DESC, a.criado_em DESC`,
		estudanteID)
}

// FindByID busca avaliação pelo identificador.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Avaliacao, error) {
	var avaliacao *Avaliacao

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		a, err := scanAvaliacao(q.QueryRow(ctx, listQuery+` WHERE a.id = $1`, id))
		if err != nil {
			return err
		}
		avaliacao = a
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return avaliacao, nil
}

// Create registra uma avaliação, validando estudante e avaliador.
func (r *Repository) Create(ctx context.Context, input CreateAvaliacaoInput) (*Avaliacao, error) {
	var avaliacao *Avaliacao

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM estudantes WHERE id = $1)`, input.EstudanteID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("estudante", "estudante não encontrado")
		}

		if input.AvaliadorID != nil {
			err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM usuarios WHERE id = $1 AND status <> 'CANCELADO')`,
				*input.AvaliadorID,
			).Scan(&exists)
			if err != nil {
				return err
			}
			if !exists {
				return apperr.NotFound("usuario", "avaliador não encontrado")
			}
		}

		var id uuid.UUID
		err = tx.QueryRow(ctx, `
            INSERT INTO avaliacoes (estudante_id, avaliador_id, instrumento, data_aplicacao, pontuacao, observacoes)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING id
        `,
			input.EstudanteID,
			input.AvaliadorID,
			strings.TrimSpace(input.Instrumento),
			input.DataAplicacao,
			input.Pontuacao,
			input.Observacoes,
		).Scan(&id)
		if err != nil {
			return err
		}

		a, err := scanAvaliacao(tx.QueryRow(ctx, listQuery+` WHERE a.id = $1`, id))
		if err != nil {
			return err
		}
		avaliacao = a
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return avaliacao, nil
}

// Update aplica atualização parcial.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, input UpdateAvaliacaoInput) (*Avaliacao, error) {
	var avaliacao *Avaliacao

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		atual, err := scanAvaliacao(tx.QueryRow(ctx, listQuery+` WHERE a.id = $1`, id))
		if err != nil {
			return err
		}

		instrumento := atual.Instrumento
		if input.Instrumento != nil {
			instrumento = strings.TrimSpace(*input.Instrumento)
		}
		dataAplicacao := atual.DataAplicacao
		if input.DataAplicacao != nil {
			dataAplicacao = *input.DataAplicacao
		}
		pontuacao := atual.Pontuacao
		if input.Pontuacao != nil {
			pontuacao = input.Pontuacao
		}
		observacoes := atual.Observacoes
		if input.Observacoes != nil {
			observacoes = input.Observacoes
		}

		_, err = tx.Exec(ctx, `
            UPDATE avaliacoes
            SET instrumento = $2, data_aplicacao = $3, pontuacao = $4, observacoes = $5, atualizado_em = now()
            WHERE id = $1
        `, id, instrumento, dataAplicacao, pontuacao, observacoes)
		if err != nil {
			return err
		}

		a, err := scanAvaliacao(tx.QueryRow(ctx, listQuery+` WHERE a.id = $1`, id))
		if err != nil {
			return err
		}
		avaliacao = a
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return avaliacao, nil
}

// Delete remove a avaliação.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM avaliacoes WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(entity, "avaliação não encontrada")
		}
		return nil
	})
	if err != nil {
		return apperr.Translate(err, entity)
	}
	return nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Avaliacao, error) {
	var avaliacoes []Avaliacao

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			a, err := scanAvaliacao(rows)
			if err != nil {
				return err
			}
			avaliacoes = append(avaliacoes, *a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}

	if avaliacoes == nil {
		avaliacoes = []Avaliacao{}
	}
	return avaliacoes, nil
}

func scanAvaliacao(row pgx.Row) (*Avaliacao, error) {
	var a Avaliacao
	err := row.Scan(&a.ID, &a.EstudanteID, &a.EstudanteNome, &a.AvaliadorID, &a.AvaliadorNome,
		&a.Instrumento, &a.DataAplicacao, &a.Pontuacao, &a.Observacoes,
		&a.CriadoEm, &a.AtualizadoEm)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
