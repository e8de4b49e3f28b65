package equipe

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

const entity = "equipe"

// Repository provê acesso às equipes e seus vínculos com usuários e
// estudantes.
type Repository struct {
	uow *db.UnitOfWork
}

// NewRepository cria instância do repositório.
func NewRepository(uow *db.UnitOfWork) *Repository {
	return &Repository{uow: uow}
}

const columns = `id, nome, descricao, ativo, criado_em, atualizado_em`

// FindAll lista equipes com membros e estudantes.
func (r *Repository) FindAll(ctx context.Context) ([]Equipe, error) {
	var equipes []Equipe

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		rows, err := q.Query(ctx, `SELECT `+columns+` FROM equipes ORDER BY nome`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanEquipe(rows)
			if err != nil {
				return err
			}
			equipes = append(equipes, *e)
		}
		if rows.Err() != nil {
			return rows.Err()
		}

		for i := range equipes {
			if err := loadVinculos(ctx, q, &equipes[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}

	if equipes == nil {
		equipes = []Equipe{}
	}
	return equipes, nil
}

// FindByID busca equipe pelo identificador, com membros e estudantes.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Equipe, error) {
	var equipe *Equipe

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		e, err := findEquipe(ctx, q, id)
		if err != nil {
			return err
		}
		if err := loadVinculos(ctx, q, e); err != nil {
			return err
		}
		equipe = e
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return equipe, nil
}

// Create cadastra uma equipe.
func (r *Repository) Create(ctx context.Context, input CreateEquipeInput) (*Equipe, error) {
	var equipe *Equipe

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		query := `
            INSERT INTO equipes (nome, descricao)
            VALUES ($1, $2)
            RETURNING ` + columns

		row := tx.QueryRow(ctx, query, strings.TrimSpace(input.Nome), strings.TrimSpace(input.Descricao))
		e, err := scanEquipe(row)
		if err != nil {
			return err
		}
		equipe = e
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return equipe, nil
}

// Update aplica atualização parcial.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, input UpdateEquipeInput) (*Equipe, error) {
	var equipe *Equipe

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		atual, err := findEquipe(ctx, tx, id)
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
		ativo := atual.Ativo
		if input.Ativo != nil {
			ativo = *input.Ativo
		}

		query := `
            UPDATE equipes
            SET nome = $2, descricao = $3, ativo = $4, atualizado_em = now()
            WHERE id = $1
            RETURNING ` + columns

		row := tx.QueryRow(ctx, query, id, nome, descricao, ativo)
		e, err := scanEquipe(row)
		if err != nil {
			return err
		}
		if err := loadVinculos(ctx, tx, e); err != nil {
			return err
		}
		equipe = e
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return equipe, nil
}

// Delete remove a equipe: desfaz vínculos de membros e estudantes, anula as
// referências em reuniões e encaminhamentos e apaga o registro, tudo na
// mesma transação.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := findEquipe(ctx, tx, id); err != nil {
			return err
		}

		steps := []string{
			`DELETE FROM equipe_membros WHERE equipe_id = $1`,
			`DELETE FROM equipe_estudantes WHERE equipe_id = $1`,
			`UPDATE encaminhamentos SET equipe_id = NULL WHERE equipe_id = $1`,
			`UPDATE reunioes SET equipe_id = NULL WHERE equipe_id = $1`,
			`DELETE FROM equipes WHERE id = $1`,
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

// AddMembro inclui um usuário na equipe. Cada usuário entra no máximo uma
// vez por equipe; a primary key da junção garante isso no banco.
func (r *Repository) AddMembro(ctx context.Context, equipeID, usuarioID uuid.UUID, funcao *string) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := findEquipe(ctx, tx, equipeID); err != nil {
			return err
		}

		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM usuarios WHERE id = $1 AND status <> 'CANCELADO')`, usuarioID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("usuario", "usuário não encontrado")
		}

		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM equipe_membros WHERE equipe_id = $1 AND usuario_id = $2)`,
			equipeID, usuarioID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("EQUIPE_ALREADY_MEMBER", "usuário já integra a equipe")
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO equipe_membros (equipe_id, usuario_id, funcao) VALUES ($1, $2, $3)`,
			equipeID, usuarioID, funcao,
		)
		if isUniqueViolation(err) {
			return apperr.Conflict("EQUIPE_ALREADY_MEMBER", "usuário já integra a equipe")
		}
		return err
	})
	if err != nil {
		return apperr.Translate(err, entity)
	}
	return nil
}

// RemoveMembro retira o usuário da equipe.
func (r *Repository) RemoveMembro(ctx context.Context, equipeID, usuarioID uuid.UUID) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM equipe_membros WHERE equipe_id = $1 AND usuario_id = $2`, equipeID, usuarioID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFoundWithCode("EQUIPE_NOT_MEMBER", "usuário não integra a equipe")
		}
		return nil
	})
	if err != nil {
		return apperr.Translate(err, entity)
	}
	return nil
}

// AddEstudante atribui um estudante à equipe, no máximo uma vez.
func (r *Repository) AddEstudante(ctx context.Context, equipeID, estudanteID uuid.UUID) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := findEquipe(ctx, tx, equipeID); err != nil {
			return err
		}

		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM estudantes WHERE id = $1)`, estudanteID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("estudante", "estudante não encontrado")
		}

		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM equipe_estudantes WHERE equipe_id = $1 AND estudante_id = $2)`,
			equipeID, estudanteID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("EQUIPE_ALREADY_IN_TEAM", "estudante já atribuído à equipe")
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO equipe_estudantes (equipe_id, estudante_id) VALUES ($1, $2)`, equipeID, estudanteID)
		if isUniqueViolation(err) {
			return apperr.Conflict("EQUIPE_ALREADY_IN_TEAM", "estudante já atribuído à equipe")
		}
		return err
	})
	if err != nil {
		return apperr.Translate(err, entity)
	}
	return nil
}

// RemoveEstudante desfaz a atribuição do estudante à equipe.
func (r *Repository) RemoveEstudante(ctx context.Context, equipeID, estudanteID uuid.UUID) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM equipe_estudantes WHERE equipe_id = $1 AND estudante_id = $2`, equipeID, estudanteID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFoundWithCode("EQUIPE_NOT_IN_TEAM", "estudante não atribuído à equipe")
		}
		return nil
	})
	if err != nil {
		return apperr.Translate(err, entity)
	}
	return nil
}

func findEquipe(ctx context.Context, q db.Querier, id uuid.UUID) (*Equipe, error) {
	query := `SELECT ` + columns + ` FROM equipes WHERE id = $1`
	return scanEquipe(q.QueryRow(ctx, query, id))
}

func loadVinculos(ctx context.Context, q db.Querier, e *Equipe) error {
	membros, err := listMembros(ctx, q, e.ID)
	if err != nil {
		return err
	}
	e.Membros = membros

	estudantes, err := listEstudantes(ctx, q, e.ID)
	if err != nil {
		return err
	}
	e.Estudantes = estudantes
	return nil
}

func listMembros(ctx context.Context, q db.Querier, equipeID uuid.UUID) ([]Membro, error) {
	query := `
        SELECT em.usuario_id, u.nome, u.cargo, em.funcao, em.criado_em
        FROM equipe_membros em
        JOIN usuarios u ON u.id = em.usuario_id
        WHERE em.equipe_id = $1
        ORDER BY u.nome
    `

	rows, err := q.Query(ctx, query, equipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	membros := []Membro{}
	for rows.Next() {
		var m Membro
		if err := rows.Scan(&m.UsuarioID, &m.Nome, &m.Cargo, &m.Funcao, &m.CriadoEm); err != nil {
			return nil, err
		}
		membros = append(membros, m)
	}
	return membros, rows.Err()
}

func listEstudantes(ctx context.Context, q db.Querier, equipeID uuid.UUID) ([]EstudanteResumo, error) {
	query := `
        SELECT ee.estudante_id, e.nome, e.serie, ee.criado_em
        FROM equipe_estudantes ee
        JOIN estudantes e ON e.id = ee.estudante_id
        WHERE ee.equipe_id = $1
        ORDER BY e.nome
    `

	rows, err := q.Query(ctx, query, equipeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	estudantes := []EstudanteResumo{}
	for rows.Next() {
		var e EstudanteResumo
		if err := rows.Scan(&e.EstudanteID, &e.Nome, &e.Serie, &e.CriadoEm); err != nil {
			return nil, err
		}
		estudantes = append(estudantes, e)
	}
	return estudantes, rows.Err()
}

func scanEquipe(row pgx.Row) (*Equipe, error) {
	var e Equipe
	err := row.Scan(&e.ID, &e.Nome, &e.Descricao, &e.Ativo, &e.CriadoEm, &e.AtualizadoEm)
	if err != nil {
		return nil, err
	}
	e.Membros = []Membro{}
	e.Estudantes = []EstudanteResumo{}
	return &e, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
