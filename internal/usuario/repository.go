package usuario

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

const entity = "usuario"

// Repository provê acesso às tabelas de usuários e instituições.
type Repository struct {
	uow *db.UnitOfWork
}

// NewRepository cria instância do repositório.
func NewRepository(uow *db.UnitOfWork) *Repository {
	return &Repository{uow: uow}
}

const usuarioColumns = `id, nome, email, senha_hash, cargo, status, criado_em, atualizado_em`

// FindAll lista usuários ativos com seus vínculos institucionais.
func (r *Repository) FindAll(ctx context.Context) ([]Usuario, error) {
	var usuarios []Usuario

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		query := `SELECT ` + usuarioColumns + ` FROM usuarios WHERE status <> 'CANCELADO' ORDER BY nome`

		rows, err := q.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUsuario(rows)
			if err != nil {
				return err
			}
			usuarios = append(usuarios, *u)
		}
		if rows.Err() != nil {
			return rows.Err()
		}

		for i := range usuarios {
			vinculos, err := listVinculos(ctx, q, usuarios[i].ID)
			if err != nil {
				return err
			}
			usuarios[i].Instituicoes = vinculos
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}

	if usuarios == nil {
		usuarios = []Usuario{}
	}
	return usuarios, nil
}

// FindByID busca usuário pelo identificador, incluindo vínculos.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Usuario, error) {
	var usuario *Usuario

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		u, err := findUsuario(ctx, q, id)
		if err != nil {
			return err
		}
		vinculos, err := listVinculos(ctx, q, u.ID)
		if err != nil {
			return err
		}
		u.Instituicoes = vinculos
		usuario = u
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return usuario, nil
}

// FindByEmail busca usuário pelo e-mail normalizado (inclui hash de senha,
// usado pelo fluxo de autenticação).
func (r *Repository) FindByEmail(ctx context.Context, email string) (*Usuario, error) {
	var usuario *Usuario

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		query := `SELECT ` + usuarioColumns + ` FROM usuarios WHERE email = $1`

		row := q.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email)))
		u, err := scanUsuario(row)
		if err != nil {
			return err
		}
		usuario = u
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return usuario, nil
}

// Create insere um novo usuário. E-mail duplicado vira conflito 409 pela
// unique constraint da tabela.
func (r *Repository) Create(ctx context.Context, input CreateUsuarioInput) (*Usuario, error) {
	var usuario *Usuario

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		query := `
            INSERT INTO usuarios (nome, email, senha_hash, cargo)
            VALUES ($1, $2, $3, $4)
            RETURNING ` + usuarioColumns

		row := tx.QueryRow(ctx, query,
			strings.TrimSpace(input.Nome),
			strings.ToLower(strings.TrimSpace(input.Email)),
			input.SenhaHash,
			string(input.Cargo),
		)
		u, err := scanUsuario(row)
		if err != nil {
			return err
		}
		usuario = u
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return usuario, nil
}

// Update aplica atualização parcial sobre o usuário.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, input UpdateUsuarioInput) (*Usuario, error) {
	var usuario *Usuario

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		atual, err := findUsuario(ctx, tx, id)
		if err != nil {
			return err
		}

		nome := atual.Nome
		if input.Nome != nil {
			nome = strings.TrimSpace(*input.Nome)
		}
		email := atual.Email
		if input.Email != nil {
			email = strings.ToLower(strings.TrimSpace(*input.Email))
		}
		cargo := atual.Cargo
		if input.Cargo != nil {
			cargo = *input.Cargo
		}

		query := `
            UPDATE usuarios
            SET nome = $2, email = $3, cargo = $4, atualizado_em = now()
            WHERE id = $1
            RETURNING ` + usuarioColumns

		row := tx.QueryRow(ctx, query, id, nome, email, string(cargo))
		u, err := scanUsuario(row)
		if err != nil {
			return err
		}

		vinculos, err := listVinculos(ctx, tx, id)
		if err != nil {
			return err
		}
		u.Instituicoes = vinculos
		usuario = u
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return usuario, nil
}

// Delete cancela o usuário (exclusão lógica) e remove os vínculos
// institucionais, tudo na mesma transação.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := findUsuario(ctx, tx, id); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM usuario_instituicoes WHERE usuario_id = $1`, id); err != nil {
			return err
		}

		_, err := tx.Exec(ctx,
			`UPDATE usuarios SET status = 'CANCELADO', atualizado_em = now() WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return apperr.Translate(err, entity)
	}
	return nil
}

// AddInstituicao vincula o usuário a uma instituição. A unique constraint da
// tabela de junção é a fonte de verdade do conflito; a checagem prévia só
// produz um código de erro mais específico.
func (r *Repository) AddInstituicao(ctx context.Context, usuarioID, instituicaoID uuid.UUID, papel *string) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := findUsuario(ctx, tx, usuarioID); err != nil {
			return err
		}
		if err := ensureInstituicao(ctx, tx, instituicaoID); err != nil {
			return err
		}

		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM usuario_instituicoes WHERE usuario_id = $1 AND instituicao_id = $2)`,
			usuarioID, instituicaoID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("USUARIO_ALREADY_ASSOCIATED", "usuário já vinculado à instituição")
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO usuario_instituicoes (usuario_id, instituicao_id, papel) VALUES ($1, $2, $3)`,
			usuarioID, instituicaoID, papel,
		)
		if isUniqueViolation(err) {
			return apperr.Conflict("USUARIO_ALREADY_ASSOCIATED", "usuário já vinculado à instituição")
		}
		return err
	})
	if err != nil {
		return apperr.Translate(err, entity)
	}
	return nil
}

// RemoveInstituicao desfaz o vínculo usuário-instituição.
func (r *Repository) RemoveInstituicao(ctx context.Context, usuarioID, instituicaoID uuid.UUID) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM usuario_instituicoes WHERE usuario_id = $1 AND instituicao_id = $2`,
			usuarioID, instituicaoID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFoundWithCode("USUARIO_NOT_ASSOCIATED", "usuário não vinculado à instituição")
		}
		return nil
	})
	if err != nil {
		return apperr.Translate(err, entity)
	}
	return nil
}

// CreateInstituicao cadastra uma instituição.
func (r *Repository) CreateInstituicao(ctx context.Context, input CreateInstituicaoInput) (*Instituicao, error) {
	var inst *Instituicao

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		query := `
            INSERT INTO instituicoes (nome, sigla, cidade)
            VALUES ($1, $2, $3)
            RETURNING id, nome, sigla, cidade, criado_em, atualizado_em
        `
		row := tx.QueryRow(ctx, query, strings.TrimSpace(input.Nome), input.Sigla, input.Cidade)
		i, err := scanInstituicao(row)
		if err != nil {
			return err
		}
		inst = i
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, "instituicao")
	}
	return inst, nil
}

// FindAllInstituicoes lista instituições cadastradas.
func (r *Repository) FindAllInstituicoes(ctx context.Context) ([]Instituicao, error) {
	var instituicoes []Instituicao

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		rows, err := q.Query(ctx,
			`SELECT id, nome, sigla, cidade, criado_em, atualizado_em FROM instituicoes ORDER BY nome`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			i, err := scanInstituicao(rows)
			if err != nil {
				return err
			}
			instituicoes = append(instituicoes, *i)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperr.Translate(err, "instituicao")
	}

	if instituicoes == nil {
		instituicoes = []Instituicao{}
	}
	return instituicoes, nil
}

func findUsuario(ctx context.Context, q db.Querier, id uuid.UUID) (*Usuario, error) {
	query := `SELECT ` + usuarioColumns + ` FROM usuarios WHERE id = $1`
	return scanUsuario(q.QueryRow(ctx, query, id))
}

func ensureInstituicao(ctx context.Context, q db.Querier, id uuid.UUID) error {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM instituicoes WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("instituicao", "instituição não encontrada")
	}
	return nil
}

func listVinculos(ctx context.Context, q db.Querier, usuarioID uuid.UUID) ([]InstituicaoVinculo, error) {
	query := `
        SELECT ui.instituicao_id, i.nome, ui.papel
        FROM usuario_instituicoes ui
        JOIN instituicoes i ON i.id = ui.instituicao_id
        WHERE ui.usuario_id = $1
        ORDER BY i.nome
    `

	rows, err := q.Query(ctx, query, usuarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vinculos := []InstituicaoVinculo{}
	for rows.Next() {
		var v InstituicaoVinculo
		if err := rows.Scan(&v.InstituicaoID, &v.Nome, &v.Papel); err != nil {
			return nil, err
		}
		vinculos = append(vinculos, v)
	}
	return vinculos, rows.Err()
}

// scanUsuario restaura a entidade a partir de uma linha persistida. Enum
// desconhecido é erro, nunca coagido para default.
func scanUsuario(row pgx.Row) (*Usuario, error) {
	var (
		u         Usuario
		cargoRaw  string
		statusRaw string
	)

	err := row.Scan(&u.ID, &u.Nome, &u.Email, &u.SenhaHash, &cargoRaw, &statusRaw, &u.CriadoEm, &u.AtualizadoEm)
	if err != nil {
		return nil, err
	}

	u.Cargo, err = ParseCargo(cargoRaw)
	if err != nil {
		return nil, err
	}
	u.Status, err = ParseStatus(statusRaw)
	if err != nil {
		return nil, err
	}

	u.Instituicoes = []InstituicaoVinculo{}
	return &u, nil
}

func scanInstituicao(row pgx.Row) (*Instituicao, error) {
	var i Instituicao
	err := row.Scan(&i.ID, &i.Nome, &i.Sigla, &i.Cidade, &i.CriadoEm, &i.AtualizadoEm)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
