package intervencao

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/apoiaedu/api/internal/apperr"
	"github.com/apoiaedu/api/internal/db"
)

const (
	entity         = "intervencao"
	entityCatalogo = "catalogo_intervencao"
)

// Repository provê acesso ao catálogo de intervenções e às instâncias
// aplicadas por estudante.
type Repository struct {
	uow *db.UnitOfWork
}

// NewRepository cria instância do repositório.
func NewRepository(uow *db.UnitOfWork) *Repository {
	return &Repository{uow: uow}
}

const catalogoColumns = `id, titulo, descricao, tipo, dificuldades_alvo, duracao_semanas, recursos, status, criado_em, atualizado_em`
const intervencaoColumns = `id, catalogo_id, estudante_id, descricao, status, progresso, data_inicio, data_fim, criado_em, atualizado_em`

// FindAllCatalogo lista os modelos de intervenção.
func (r *Repository) FindAllCatalogo(ctx context.Context) ([]CatalogoIntervencao, error) {
	var catalogo []CatalogoIntervencao

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		rows, err := q.Query(ctx, `SELECT `+catalogoColumns+` FROM catalogo_intervencoes ORDER BY titulo`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			c, err := scanCatalogo(rows)
			if err != nil {
				return err
			}
			catalogo = append(catalogo, *c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperr.Translate(err, entityCatalogo)
	}

	if catalogo == nil {
		catalogo = []CatalogoIntervencao{}
	}
	return catalogo, nil
}

// FindCatalogoByID busca um modelo pelo identificador.
func (r *Repository) FindCatalogoByID(ctx context.Context, id uuid.UUID) (*CatalogoIntervencao, error) {
	var item *CatalogoIntervencao

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		c, err := findCatalogo(ctx, q, id)
		if err != nil {
			return err
		}
		item = c
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entityCatalogo)
	}
	return item, nil
}

// CreateCatalogo cadastra um modelo de intervenção.
func (r *Repository) CreateCatalogo(ctx context.Context, input CreateCatalogoInput) (*CatalogoIntervencao, error) {
	var item *CatalogoIntervencao

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		query := `
            INSERT INTO catalogo_intervencoes (titulo, descricao, tipo, dificuldades_alvo, duracao_semanas, recursos)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING ` + catalogoColumns

		row := tx.QueryRow(ctx, query,
			strings.TrimSpace(input.Titulo),
			strings.TrimSpace(input.Descricao),
			strings.TrimSpace(input.Tipo),
			sliceOrEmpty(input.DificuldadesAlvo),
			input.DuracaoSemanas,
			sliceOrEmpty(input.Recursos),
		)
		c, err := scanCatalogo(row)
		if err != nil {
			return err
		}
		item = c
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entityCatalogo)
	}
	return item, nil
}

// UpdateCatalogo aplica atualização parcial sobre um modelo.
func (r *Repository) UpdateCatalogo(ctx context.Context, id uuid.UUID, input UpdateCatalogoInput) (*CatalogoIntervencao, error) {
	var item *CatalogoIntervencao

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		atual, err := findCatalogo(ctx, tx, id)
		if err != nil {
			return err
		}

		titulo := atual.Titulo
		if input.Titulo != nil {
			titulo = strings.TrimSpace(*input.Titulo)
		}
		descricao := atual.Descricao
		if input.Descricao != nil {
			descricao = strings.TrimSpace(*input.Descricao)
		}
		tipo := atual.Tipo
		if input.Tipo != nil {
			tipo = strings.TrimSpace(*input.Tipo)
		}
		alvo := atual.DificuldadesAlvo
		if input.DificuldadesAlvo != nil {
			alvo = input.DificuldadesAlvo
		}
		duracao := atual.DuracaoSemanas
		if input.DuracaoSemanas != nil {
			duracao = input.DuracaoSemanas
		}
		recursos := atual.Recursos
		if input.Recursos != nil {
			recursos = input.Recursos
		}
		status := atual.Status
		if input.Status != nil {
			status = strings.ToUpper(strings.TrimSpace(*input.Status))
		}

		query := `
            UPDATE catalogo_intervencoes
            SET titulo = $2, descricao = $3, tipo = $4, dificuldades_alvo = $5,
                duracao_semanas = $6, recursos = $7, status = $8, atualizado_em = now()
            WHERE id = $1
            RETURNING ` + catalogoColumns

		row := tx.QueryRow(ctx, query, id, titulo, descricao, tipo, alvo, duracao, recursos, status)
		c, err := scanCatalogo(row)
		if err != nil {
			return err
		}
		item = c
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entityCatalogo)
	}
	return item, nil
}

// DeleteCatalogo remove um modelo sem instâncias associadas.
func (r *Repository) DeleteCatalogo(ctx context.Context, id uuid.UUID) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := findCatalogo(ctx, tx, id); err != nil {
			return err
		}

		var emUso bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM intervencoes WHERE catalogo_id = $1)`, id,
		).Scan(&emUso)
		if err != nil {
			return err
		}
		if emUso {
			return apperr.Conflict("CATALOGO_INTERVENCAO_IN_USE", "modelo com intervenções aplicadas não pode ser removido")
		}

		_, err = tx.Exec(ctx, `DELETE FROM catalogo_intervencoes WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return apperr.Translate(err, entityCatalogo)
	}
	return nil
}

// FindAll lista as intervenções aplicadas.
func (r *Repository) FindAll(ctx context.Context) ([]Intervencao, error) {
	return r.list(ctx, `SELECT `+intervencaoColumns+` FROM intervencoes ORDER BY data_inicio DESC`)
}

// FindByEstudante lista intervenções de um estudante.
func (r *Repository) FindByEstudante(ctx context.Context, estudanteID uuid.UUID) ([]Intervencao, error) {
	return r.list(ctx,
		`SELECT `+intervencaoColumns+` FROM intervencoes WHERE estudante_id = $1 ORDER BY data_inicio DESC`,
		estudanteID)
}

// FindByID busca uma intervenção pelo identificador.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Intervencao, error) {
	var item *Intervencao

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		i, err := findIntervencao(ctx, q, id)
		if err != nil {
			return err
		}
		item = i
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return item, nil
}

// Create instancia uma intervenção para um estudante, verificando as
// referências antes da escrita.
func (r *Repository) Create(ctx context.Context, input CreateIntervencaoInput) (*Intervencao, error) {
	var item *Intervencao

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

		if input.CatalogoID != nil {
			if _, err := findCatalogo(ctx, tx, *input.CatalogoID); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return apperr.NotFound(entityCatalogo, "modelo de intervenção não encontrado")
				}
				return err
			}
		}

		inicio := time.Now()
		if input.DataInicio != nil {
			inicio = *input.DataInicio
		}

		query := `
            INSERT INTO intervencoes (catalogo_id, estudante_id, descricao, data_inicio)
            VALUES ($1, $2, $3, $4)
            RETURNING ` + intervencaoColumns

		row := tx.QueryRow(ctx, query, input.CatalogoID, input.EstudanteID, strings.TrimSpace(input.Descricao), inicio)
		i, err := scanIntervencao(row)
		if err != nil {
			return err
		}
		item = i
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return item, nil
}

// UpdateProgresso aplica as regras de progresso da entidade e persiste o
// resultado na mesma transação da leitura.
func (r *Repository) UpdateProgresso(ctx context.Context, id uuid.UUID, valor int) (*Intervencao, error) {
	var item *Intervencao

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		i, err := findIntervencao(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := i.AtualizarProgresso(valor, time.Now()); err != nil {
			return err
		}

		if err := persistProgresso(ctx, tx, i); err != nil {
			return err
		}
		item = i
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return item, nil
}

// Concluir encerra a intervenção com progresso total.
func (r *Repository) Concluir(ctx context.Context, id uuid.UUID) (*Intervencao, error) {
	var item *Intervencao

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		i, err := findIntervencao(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := i.Concluir(time.Now()); err != nil {
			return err
		}

		if err := persistProgresso(ctx, tx, i); err != nil {
			return err
		}
		item = i
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return item, nil
}

// Cancelar interrompe a intervenção; falha apenas quando não existe.
func (r *Repository) Cancelar(ctx context.Context, id uuid.UUID) (*Intervencao, error) {
	var item *Intervencao

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		i, err := findIntervencao(ctx, tx, id)
		if err != nil {
			return err
		}

		i.Cancelar()

		if err := persistProgresso(ctx, tx, i); err != nil {
			return err
		}
		item = i
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return item, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Intervencao, error) {
	var itens []Intervencao

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			i, err := scanIntervencao(rows)
			if err != nil {
				return err
			}
			itens = append(itens, *i)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}

	if itens == nil {
		itens = []Intervencao{}
	}
	return itens, nil
}

func persistProgresso(ctx context.Context, tx pgx.Tx, i *Intervencao) error {
	_, err := tx.Exec(ctx, `
        UPDATE intervencoes
        SET status = $2, progresso = $3, data_fim = $4, atualizado_em = now()
        WHERE id = $1
    `, i.ID, string(i.Status), i.Progresso, i.DataFim)
	return err
}

func findCatalogo(ctx context.Context, q db.Querier, id uuid.UUID) (*CatalogoIntervencao, error) {
	query := `SELECT ` + catalogoColumns + ` FROM catalogo_intervencoes WHERE id = $1`
	return scanCatalogo(q.QueryRow(ctx, query, id))
}

func findIntervencao(ctx context.Context, q db.Querier, id uuid.UUID) (*Intervencao, error) {
	query := `SELECT ` + intervencaoColumns + ` FROM intervencoes WHERE id = $1`
	return scanIntervencao(q.QueryRow(ctx, query, id))
}

func scanCatalogo(row pgx.Row) (*CatalogoIntervencao, error) {
	var c CatalogoIntervencao
	err := row.Scan(&c.ID, &c.Titulo, &c.Descricao, &c.Tipo, &c.DificuldadesAlvo,
		&c.DuracaoSemanas, &c.Recursos, &c.Status, &c.CriadoEm, &c.AtualizadoEm)
	if err != nil {
		return nil, err
	}
	if c.DificuldadesAlvo == nil {
		c.DificuldadesAlvo = []string{}
	}
	if c.Recursos == nil {
		c.Recursos = []string{}
	}
	return &c, nil
}

// scanIntervencao restaura a entidade; status desconhecido é erro.
func scanIntervencao(row pgx.Row) (*Intervencao, error) {
	var (
		i         Intervencao
		statusRaw string
	)

	err := row.Scan(&i.ID, &i.CatalogoID, &i.EstudanteID, &i.Descricao, &statusRaw,
		&i.Progresso, &i.DataInicio, &i.DataFim, &i.CriadoEm, &i.AtualizadoEm)
	if err != nil {
		return nil, err
	}

	i.Status, err = ParseStatus(statusRaw)
	if err != nil {
		return nil, err
	}

	return &i, nil
}

func sliceOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
