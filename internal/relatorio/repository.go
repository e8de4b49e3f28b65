package relatorio

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

const entity = "relatorio"

// Repository provê acesso aos relatórios e seus anexos, compartilhamentos
// e visualizações.
type Repository struct {
	uow *db.UnitOfWork
}

// NewRepository cria instância do repositório.
func NewRepository(uow *db.UnitOfWork) *Repository {
	return &Repository{uow: uow}
}

const columns = `id, titulo, tipo, conteudo, estudante_id, autor_id, periodo, criado_em, atualizado_em`

// FindAll lista relatórios com anexos e compartilhamentos.
func (r *Repository) FindAll(ctx context.Context) ([]Relatorio, error) {
	var relatorios []Relatorio

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		rows, err := q.Query(ctx, `SELECT `+columns+` FROM relatorios ORDER BY criado_em DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rel, err := scanRelatorio(rows)
			if err != nil {
				return err
			}
			relatorios = append(relatorios, *rel)
		}
		if rows.Err() != nil {
			return rows.Err()
		}

		for i := range relatorios {
			if err := loadVinculos(ctx, q, &relatorios[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}

	if relatorios == nil {
		relatorios = []Relatorio{}
	}
	return relatorios, nil
}

// FindByID busca relatório pelo identificador.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Relatorio, error) {
	var relatorio *Relatorio

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		rel, err := findRelatorio(ctx, q, id)
		if err != nil {
			return err
		}
		if err := loadVinculos(ctx, q, rel); err != nil {
			return err
		}
		relatorio = rel
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return relatorio, nil
}

// Create registra um relatório, validando autor e estudante.
func (r *Repository) Create(ctx context.Context, input CreateRelatorioInput) (*Relatorio, error) {
	var relatorio *Relatorio

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM usuarios WHERE id = $1 AND status <> 'CANCELADO')`, input.AutorID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("usuario", "autor não encontrado")
		}

		if input.EstudanteID != nil {
			err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM estudantes WHERE id = $1)`, *input.EstudanteID,
			).Scan(&exists)
			if err != nil {
				return err
			}
			if !exists {
				return apperr.NotFound("estudante", "estudante não encontrado")
			}
		}

		query := `
            INSERT INTO relatorios (titulo, tipo, conteudo, estudante_id, autor_id, periodo)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING ` + columns

		row := tx.QueryRow(ctx, query,
			strings.TrimSpace(input.Titulo),
			strings.ToUpper(strings.TrimSpace(input.Tipo)),
			input.Conteudo,
			input.EstudanteID,
			input.AutorID,
			input.Periodo,
		)
		rel, err := scanRelatorio(row)
		if err != nil {
			return err
		}
		relatorio = rel
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return relatorio, nil
}

// Update aplica atualização parcial.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, input UpdateRelatorioInput) (*Relatorio, error) {
	var relatorio *Relatorio

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		atual, err := findRelatorio(ctx, tx, id)
		if err != nil {
			return err
		}

		titulo := atual.Titulo
		if input.Titulo != nil {
			titulo = strings.TrimSpace(*input.Titulo)
		}
		tipo := atual.Tipo
		if input.Tipo != nil {
			tipo = strings.ToUpper(strings.TrimSpace(*input.Tipo))
		}
		conteudo := atual.Conteudo
		if input.Conteudo != nil {
			conteudo = *input.Conteudo
		}
		periodo := atual.Periodo
		if input.Periodo != nil {
			periodo = input.Periodo
		}

		query := `
            UPDATE relatorios
            SET titulo = $2, tipo = $3, conteudo = $4, periodo = $5, atualizado_em = now()
            WHERE id = $1
            RETURNING ` + columns

		row := tx.QueryRow(ctx, query, id, titulo, tipo, conteudo, periodo)
		rel, err := scanRelatorio(row)
		if err != nil {
			return err
		}
		if err := loadVinculos(ctx, tx, rel); err != nil {
			return err
		}
		relatorio = rel
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return relatorio, nil
}

// Delete remove o relatório e os registros dependentes (anexos,
// compartilhamentos, visualizações) na mesma transação.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := findRelatorio(ctx, tx, id); err != nil {
			return err
		}

		steps := []string{
			`DELETE FROM relatorio_anexos WHERE relatorio_id = $1`,
			`DELETE FROM relatorio_compartilhamentos WHERE relatorio_id = $1`,
			`DELETE FROM relatorio_visualizacoes WHERE relatorio_id = $1`,
			`DELETE FROM relatorios WHERE id = $1`,
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

// AddAnexo registra os metadados de um arquivo já enviado ao storage.
func (r *Repository) AddAnexo(ctx context.Context, relatorioID uuid.UUID, input AddAnexoInput) (*Anexo, error) {
	var anexo *Anexo

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := findRelatorio(ctx, tx, relatorioID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound(entity, "relatório não encontrado")
			}
			return err
		}

		query := `
            INSERT INTO relatorio_anexos (relatorio_id, nome_arquivo, url, content_type, tamanho)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING id, relatorio_id, nome_arquivo, url, content_type, tamanho, criado_em
        `

		row := tx.QueryRow(ctx, query, relatorioID,
			strings.TrimSpace(input.NomeArquivo), input.URL, input.ContentType, input.Tamanho)
		a, err := scanAnexo(row)
		if err != nil {
			return err
		}
		anexo = a
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, "anexo")
	}
	return anexo, nil
}

// RemoveAnexo apaga o vínculo do arquivo com o relatório.
func (r *Repository) RemoveAnexo(ctx context.Context, relatorioID, anexoID uuid.UUID) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM relatorio_anexos WHERE id = $1 AND relatorio_id = $2`, anexoID, relatorioID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("anexo", "anexo não encontrado")
		}
		return nil
	})
	if err != nil {
		return apperr.Translate(err, "anexo")
	}
	return nil
}

// Compartilhar concede acesso do relatório a um usuário, no máximo uma vez.
func (r *Repository) Compartilhar(ctx context.Context, relatorioID, usuarioID uuid.UUID, permissao string) (*Compartilhamento, error) {
	var comp *Compartilhamento

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := findRelatorio(ctx, tx, relatorioID); err != nil {
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

		permissao = strings.ToUpper(strings.TrimSpace(permissao))
		if permissao == "" {
			permissao = PermissaoLeitura
		}
		if permissao != PermissaoLeitura && permissao != PermissaoEdicao {
			return apperr.BadRequest("RELATORIO_INVALID_PERMISSION", "permissão de compartilhamento inválida")
		}

		query := `
            INSERT INTO relatorio_compartilhamentos (relatorio_id, usuario_id, permissao)
            VALUES ($1, $2, $3)
            RETURNING id, relatorio_id, usuario_id, permissao, criado_em
        `

		row := tx.QueryRow(ctx, query, relatorioID, usuarioID, permissao)
		c, err := scanCompartilhamento(row)
		if isUniqueViolation(err) {
			return apperr.Conflict("RELATORIO_ALREADY_SHARED", "relatório já compartilhado com o usuário")
		}
		if err != nil {
			return err
		}
		comp = c
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return comp, nil
}

// RevogarCompartilhamento desfaz o acesso concedido.
func (r *Repository) RevogarCompartilhamento(ctx context.Context, relatorioID, usuarioID uuid.UUID) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM relatorio_compartilhamentos WHERE relatorio_id = $1 AND usuario_id = $2`,
			relatorioID, usuarioID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFoundWithCode("RELATORIO_NOT_SHARED", "relatório não compartilhado com o usuário")
		}
		return nil
	})
	if err != nil {
		return apperr.Translate(err, entity)
	}
	return nil
}

// RegistrarVisualizacao grava o registro de auditoria de leitura.
func (r *Repository) RegistrarVisualizacao(ctx context.Context, relatorioID, usuarioID uuid.UUID) (*Visualizacao, error) {
	var vis *Visualizacao

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := findRelatorio(ctx, tx, relatorioID); err != nil {
			return err
		}

		query := `
            INSERT INTO relatorio_visualizacoes (relatorio_id, usuario_id)
            VALUES ($1, $2)
            RETURNING id, relatorio_id, usuario_id, visualizado_em
        `

		row := tx.QueryRow(ctx, query, relatorioID, usuarioID)
		var v Visualizacao
		if err := row.Scan(&v.ID, &v.RelatorioID, &v.UsuarioID, &v.VisualizadoEm); err != nil {
			return err
		}
		vis = &v
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return vis, nil
}

// ListVisualizacoes lista a auditoria de leitura do relatório.
func (r *Repository) ListVisualizacoes(ctx context.Context, relatorioID uuid.UUID) ([]Visualizacao, error) {
	var visualizacoes []Visualizacao

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		rows, err := q.Query(ctx, `
            SELECT id, relatorio_id, usuario_id, visualizado_em
            FROM relatorio_visualizacoes
            WHERE relatorio_id = $1
            ORDER BY visualizado_em DESC
        `, relatorioID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var v Visualizacao
			if err := rows.Scan(&v.ID, &v.RelatorioID, &v.UsuarioID, &v.VisualizadoEm); err != nil {
				return err
			}
			visualizacoes = append(visualizacoes, v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}

	if visualizacoes == nil {
		visualizacoes = []Visualizacao{}
	}
	return visualizacoes, nil
}

func findRelatorio(ctx context.Context, q db.Querier, id uuid.UUID) (*Relatorio, error) {
	query := `SELECT ` + columns + ` FROM relatorios WHERE id = $1`
	return scanRelatorio(q.QueryRow(ctx, query, id))
}

func loadVinculos(ctx context.Context, q db.Querier, rel *Relatorio) error {
	anexos, err := listAnexos(ctx, q, rel.ID)
	if err != nil {
		return err
	}
	rel.Anexos = anexos

	compartilhamentos, err := listCompartilhamentos(ctx, q, rel.ID)
	if err != nil {
		return err
	}
	rel.Compartilhamentos = compartilhamentos
	return nil
}

func listAnexos(ctx context.Context, q db.Querier, relatorioID uuid.UUID) ([]Anexo, error) {
	rows, err := q.Query(ctx, `
        SELECT id, relatorio_id, nome_arquivo, url, content_type, tamanho, criado_em
        FROM relatorio_anexos
        WHERE relatorio_id = $1
        ORDER BY criado_em
    `, relatorioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	anexos := []Anexo{}
	for rows.Next() {
		a, err := scanAnexo(rows)
		if err != nil {
			return nil, err
		}
		anexos = append(anexos, *a)
	}
	return anexos, rows.Err()
}

func listCompartilhamentos(ctx context.Context, q db.Querier, relatorioID uuid.UUID) ([]Compartilhamento, error) {
	rows, err := q.Query(ctx, `
        SELECT id, relatorio_id, usuario_id, permissao, criado_em
        FROM relatorio_compartilhamentos
        WHERE relatorio_id = $1
        ORDER BY criado_em
    `, relatorioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	compartilhamentos := []Compartilhamento{}
	for rows.Next() {
		c, err := scanCompartilhamento(rows)
		if err != nil {
			return nil, err
		}
		compartilhamentos = append(compartilhamentos, *c)
	}
	return compartilhamentos, rows.Err()
}

func scanRelatorio(row pgx.Row) (*Relatorio, error) {
	var rel Relatorio
	err := row.Scan(&rel.ID, &rel.Titulo, &rel.Tipo, &rel.Conteudo, &rel.EstudanteID,
		&rel.AutorID, &rel.Periodo, &rel.CriadoEm, &rel.AtualizadoEm)
	if err != nil {
		return nil, err
	}
	rel.Anexos = []Anexo{}
	rel.Compartilhamentos = []Compartilhamento{}
	return &rel, nil
}

func scanAnexo(row pgx.Row) (*Anexo, error) {
	var a Anexo
	err := row.Scan(&a.ID, &a.RelatorioID, &a.NomeArquivo, &a.URL, &a.ContentType, &a.Tamanho, &a.CriadoEm)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanCompartilhamento(row pgx.Row) (*Compartilhamento, error) {
	var c Compartilhamento
	err := row.Scan(&c.ID, &c.RelatorioID, &c.UsuarioID, &c.Permissao, &c.CriadoEm)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
