package estudante

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/apoiaedu/api/internal/apperr"
	"github.com/apoiaedu/api/internal/db"
)

const entity = "estudante"

// Repository provê acesso à tabela de estudantes e ao vínculo com
// dificuldades de aprendizagem.
type Repository struct {
	uow *db.UnitOfWork
}

// NewRepository cria instância do repositório.
func NewRepository(uow *db.UnitOfWork) *Repository {
	return &Repository{uow: uow}
}

const estudanteColumns = `id, nome, serie, data_nascimento, status, usuario_id, criado_em, atualizado_em`

// FindAll lista estudantes com as dificuldades associadas.
func (r *Repository) FindAll(ctx context.Context) ([]Estudante, error) {
	var estudantes []Estudante

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		rows, err := q.Query(ctx, `SELECT `+estudanteColumns+` FROM estudantes ORDER BY nome`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanEstudante(rows)
			if err != nil {
				return err
			}
			estudantes = append(estudantes, *e)
		}
		if rows.Err() != nil {
			return rows.Err()
		}

		for i := range estudantes {
			dificuldades, err := listDificuldades(ctx, q, estudantes[i].ID)
			if err != nil {
				return err
			}
			estudantes[i].Dificuldades = dificuldades
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}

	if estudantes == nil {
		estudantes = []Estudante{}
	}
	return estudantes, nil
}

// FindByID busca estudante pelo identificador, incluindo dificuldades.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Estudante, error) {
	var estudante *Estudante

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		e, err := findEstudante(ctx, q, id)
		if err != nil {
			return err
		}
		dificuldades, err := listDificuldades(ctx, q, e.ID)
		if err != nil {
			return err
		}
		e.Dificuldades = dificuldades
		estudante = e
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return estudante, nil
}

// FindByUsuario lista estudantes acompanhados por um professor.
func (r *Repository) FindByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]Estudante, error) {
	var estudantes []Estudante

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		rows, err := q.Query(ctx,
			`SELECT `+estudanteColumns+` FROM estudantes WHERE usuario_id = $1 ORDER BY nome`, usuarioID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanEstudante(rows)
			if err != nil {
				return err
			}
			estudantes = append(estudantes, *e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}

	if estudantes == nil {
		estudantes = []Estudante{}
	}
	return estudantes, nil
}

// Create insere um novo estudante após verificar o professor responsável.
func (r *Repository) Create(ctx context.Context, input CreateEstudanteInput) (*Estudante, error) {
	var estudante *Estudante

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM usuarios WHERE id = $1 AND status <> 'CANCELADO')`,
			input.UsuarioID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("usuario", "professor responsável não encontrado")
		}

		query := `
            INSERT INTO estudantes (nome, serie, data_nascimento, usuario_id)
            VALUES ($1, $2, $3, $4)
            RETURNING ` + estudanteColumns

		row := tx.QueryRow(ctx, query,
			strings.TrimSpace(input.Nome),
			strings.TrimSpace(input.Serie),
			input.DataNascimento,
			input.UsuarioID,
		)
		e, err := scanEstudante(row)
		if err != nil {
			return err
		}
		estudante = e
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return estudante, nil
}

// Update aplica atualização parcial sobre o estudante.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, input UpdateEstudanteInput) (*Estudante, error) {
	var estudante *Estudante

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		atual, err := findEstudante(ctx, tx, id)
		if err != nil {
			return err
		}

		nome := atual.Nome
		if input.Nome != nil {
			nome = strings.TrimSpace(*input.Nome)
		}
		serie := atual.Serie
		if input.Serie != nil {
			serie = strings.TrimSpace(*input.Serie)
		}
		status := atual.Status
		if input.Status != nil {
			status = *input.Status
		}

		query := `
            UPDATE estudantes
            SET nome = $2, serie = $3, status = $4, atualizado_em = now()
            WHERE id = $1
            RETURNING ` + estudanteColumns

		row := tx.QueryRow(ctx, query, id, nome, serie, string(status))
		e, err := scanEstudante(row)
		if err != nil {
			return err
		}

		dificuldades, err := listDificuldades(ctx, tx, id)
		if err != nil {
			return err
		}
		e.Dificuldades = dificuldades
		estudante = e
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return estudante, nil
}

// Delete remove o estudante e tudo que o referencia, na ordem: vínculos de
// dificuldade, avaliações, intervenções, vínculos de equipe e por fim o
// próprio registro. Tudo dentro de uma única transação.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := findEstudante(ctx, tx, id); err != nil {
			return err
		}

		steps := []string{
			`DELETE FROM estudante_dificuldades WHERE estudante_id = $1`,
			`DELETE FROM avaliacoes WHERE estudante_id = $1`,
			`DELETE FROM intervencoes WHERE estudante_id = $1`,
			`DELETE FROM equipe_estudantes WHERE estudante_id = $1`,
			`DELETE FROM estudantes WHERE id = $1`,
		}
		for _, step := range steps {
			if _, err := tx.Exec(ctx, step, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperr.Translate(err, entity)
	}
	return nil
}

// AddDificuldade vincula uma dificuldade ao estudante. A unique constraint
// (estudante_id, dificuldade_id) é a fonte de verdade do conflito; a
// checagem prévia só devolve um código mais específico.
func (r *Repository) AddDificuldade(ctx context.Context, estudanteID, dificuldadeID uuid.UUID, input AddDificuldadeInput) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := findEstudante(ctx, tx, estudanteID); err != nil {
			return err
		}

		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM dificuldades_aprendizagem WHERE id = $1)`, dificuldadeID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("dificuldade", "dificuldade de aprendizagem não encontrada")
		}

		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM estudante_dificuldades WHERE estudante_id = $1 AND dificuldade_id = $2)`,
			estudanteID, dificuldadeID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("ESTUDANTE_ALREADY_ASSOCIATED", "dificuldade já associada ao estudante")
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO estudante_dificuldades (estudante_id, dificuldade_id, tipo, observacoes) VALUES ($1, $2, $3, $4)`,
			estudanteID, dificuldadeID, input.Tipo, input.Observacoes,
		)
		if isUniqueViolation(err) {
			return apperr.Conflict("ESTUDANTE_ALREADY_ASSOCIATED", "dificuldade já associada ao estudante")
		}
		return err
	})
	if err != nil {
		return apperr.Translate(err, entity)
	}
	return nil
}

// RemoveDificuldade desfaz o vínculo estudante-dificuldade.
func (r *Repository) RemoveDificuldade(ctx context.Context, estudanteID, dificuldadeID uuid.UUID) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM estudante_dificuldades WHERE estudante_id = $1 AND dificuldade_id = $2`,
			estudanteID, dificuldadeID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFoundWithCode("ESTUDANTE_NOT_ASSOCIATED", "dificuldade não associada ao estudante")
		}
		return nil
	})
	if err != nil {
		return apperr.Translate(err, entity)
	}
	return nil
}

func findEstudante(ctx context.Context, q db.Querier, id uuid.UUID) (*Estudante, error) {
	query := `SELECT ` + estudanteColumns + ` FROM estudantes WHERE id = $1`
	return scanEstudante(q.QueryRow(ctx, query, id))
}

func listDificuldades(ctx context.Context, q db.Querier, estudanteID uuid.UUID) ([]DificuldadeAssociada, error) {
	query := `
        SELECT ed.dificuldade_id, d.nome, d.categoria, ed.tipo, ed.observacoes, ed.criado_em
        FROM estudante_dificuldades ed
        JOIN dificuldades_aprendizagem d ON d.id = ed.dificuldade_id
        WHERE ed.estudante_id = $1
        ORDER BY d.nome
    `

	rows, err := q.Query(ctx, query, estudanteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dificuldades := []DificuldadeAssociada{}
	for rows.Next() {
		var d DificuldadeAssociada
		if err := rows.Scan(&d.DificuldadeID, &d.Nome, &d.Categoria, &d.Tipo, &d.Observacoes, &d.CriadoEm); err != nil {
			return nil, err
		}
		dificuldades = append(dificuldades, d)
	}
	return dificuldades, rows.Err()
}

// scanEstudante restaura a entidade a partir de uma linha persistida.
func scanEstudante(row pgx.Row) (*Estudante, error) {
	var (
		e         Estudante
		statusRaw string
	)

	err := row.Scan(&e.ID, &e.Nome, &e.Serie, &e.DataNascimento, &statusRaw, &e.UsuarioID, &e.CriadoEm, &e.AtualizadoEm)
	if err != nil {
		return nil, err
	}

	e.Status, err = ParseStatus(statusRaw)
	if err != nil {
		return nil, err
	}

	e.Dificuldades = []DificuldadeAssociada{}
	return &e, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
