package dificuldade

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/apoiaedu/api/internal/apperr"
	"github.com/apoiaedu/api/internal/db"
)

const entity = "dificuldade"

// Repository provê acesso ao catálogo de dificuldades de aprendizagem.
type Repository struct {
	uow *db.UnitOfWork
}

// NewRepository cria instância do repositório.
func NewRepository(uow *db.UnitOfWork) *Repository {
	return &Repository{uow: uow}
}

const columns = `id, nome, descricao, categoria, status, criado_em, atualizado_em`

// FindAll lista o catálogo completo.
func (r *Repository) FindAll(ctx context.Context) ([]Dificuldade, error) {
	var dificuldades []Dificuldade

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		rows, err := q.Query(ctx, `SELECT `+columns+` FROM dificuldades_aprendizagem ORDER BY nome`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			d, err := scanDificuldade(rows)
			if err != nil {
				return err
			}
			dificuldades = append(dificuldades, *d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}

	if dificuldades == nil {
		dificuldades = []Dificuldade{}
	}
	return dificuldades, nil
}

// FindByID busca uma dificuldade pelo identificador.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Dificuldade, error) {
	var dificuldade *Dificuldade

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		d, err := findDificuldade(ctx, q, id)
		if err != nil {
			return err
		}
		dificuldade = d
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return dificuldade, nil
}

// Create cadastra uma dificuldade; nome duplicado vira 409 pela unique
// constraint.
func (r *Repository) Create(ctx context.Context, input CreateDificuldadeInput) (*Dificuldade, error) {
	var dificuldade *Dificuldade

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		query := `
            INSERT INTO dificuldades_aprendizagem (nome, descricao, categoria)
            VALUES ($1, $2, $3)
            RETURNING ` + columns

		row := tx.QueryRow(ctx, query,
			strings.TrimSpace(input.Nome),
			strings.TrimSpace(input.Descricao),
			string(input.Categoria),
		)
		d, err := scanDificuldade(row)
		if err != nil {
			return err
		}
		dificuldade = d
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return dificuldade, nil
}

// Update aplica atualização parcial.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, input UpdateDificuldadeInput) (*Dificuldade, error) {
	var dificuldade *Dificuldade

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		atual, err := findDificuldade(ctx, tx, id)
		if err != nil {
			return err
		}

		nome := atual.Nome
		if input.Nome != nil {
			nome = strings.TrimSpace(*input.Nome)
		}
		descricao := atual.Descricao
		if input.Descricao != nil {
			descricao = strings.TrimSpace(*input.Descricao)
		}
		categoria := atual.Categoria
		if input.Categoria != nil {
			categoria = *input.Categoria
		}
		status := atual.Status
		if input.Status != nil {
			status = *input.Status
		}

		query := `
            UPDATE dificuldades_aprendizagem
            SET nome = $2, descricao = $3, categoria = $4, status = $5, atualizado_em = now()
            WHERE id = $1
            RETURNING ` + columns

		row := tx.QueryRow(ctx, query, id, nome, descricao, string(categoria), string(status))
		d, err := scanDificuldade(row)
		if err != nil {
			return err
		}
		dificuldade = d
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return dificuldade, nil
}

// Delete remove a dificuldade do catálogo. Bloqueado enquanto existir
// qualquer estudante vinculado.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := findDificuldade(ctx, tx, id); err != nil {
			return err
		}

		var emUso bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM estudante_dificuldades WHERE dificuldade_id = $1)`, id,
		).Scan(&emUso)
		if err != nil {
			return err
		}
		if emUso {
			return apperr.Conflict("DIFICULDADE_IN_USE", "dificuldade associada a estudantes não pode ser removida")
		}

		_, err = tx.Exec(ctx, `DELETE FROM dificuldades_aprendizagem WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return apperr.Translate(err, entity)
	}
	return nil
}

func findDificuldade(ctx context.Context, q db.Querier, id uuid.UUID) (*Dificuldade, error) {
	query := `SELECT ` + columns + ` FROM dificuldades_aprendizagem WHERE id = $1`
	return scanDificuldade(q.QueryRow(ctx, query, id))
}

// scanDificuldade restaura a entidade; enums desconhecidos são erro.
func scanDificuldade(row pgx.Row) (*Dificuldade, error) {
	var (
		d            Dificuldade
		categoriaRaw string
		statusRaw    string
	)

	err := row.Scan(&d.ID, &d.Nome, &d.Descricao, &categoriaRaw, &statusRaw, &d.CriadoEm, &d.AtualizadoEm)
	if err != nil {
		return nil, err
	}

	d.Categoria, err = ParseCategoria(categoriaRaw)
	if err != nil {
		return nil, err
	}
	d.Status, err = ParseStatus(statusRaw)
	if err != nil {
		return nil, err
	}

	return &d, nil
}
