package reuniao

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/apoiaedu/api/internal/apperr"
	"github.com/apoiaedu/api/internal/db"
)

const entity = "reuniao"

// Repository provê acesso às reuniões, participantes e encaminhamentos.
type Repository struct {
	uow *db.UnitOfWork
}

// NewRepository cria instância do repositório.
func NewRepository(uow *db.UnitOfWork) *Repository {
	return &Repository{uow: uow}
}

const columns = `id, titulo, data, status, equipe_id, pauta, observacoes, criado_em, atualizado_em`

// FindAll lista reuniões com participantes e encaminhamentos.
func (r *Repository) FindAll(ctx context.Context) ([]Reuniao, error) {
	var reunioes []Reuniao

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		rows, err := q.Query(ctx, `SELECT `+columns+` FROM reunioes ORDER BY data DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			re, err := scanReuniao(rows)
			if err != nil {
				return err
			}
			reunioes = append(reunioes, *re)
		}
		if rows.Err() != nil {
			return rows.Err()
		}

		for i := range reunioes {
			if err := loadVinculos(ctx, q, &reunioes[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}

	if reunioes == nil {
		reunioes = []Reuniao{}
	}
	return reunioes, nil
}

// FindByID busca reunião pelo identificador.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*Reuniao, error) {
	var reuniao *Reuniao

	err := r.uow.WithoutTransaction(ctx, func(ctx context.Context, q db.Querier) error {
		re, err := findReuniao(ctx, q, id)
		if err != nil {
			return err
		}
		if err := loadVinculos(ctx, q, re); err != nil {
			return err
		}
		reuniao = re
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return reuniao, nil
}

// Create agenda uma reunião, validando a equipe quando informada.
func (r *Repository) Create(ctx context.Context, input CreateReuniaoInput) (*Reuniao, error) {
	var reuniao *Reuniao

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if input.EquipeID != nil {
			var exists bool
			err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM equipes WHERE id = $1)`, *input.EquipeID,
			).Scan(&exists)
			if err != nil {
				return err
			}
			if !exists {
				return apperr.NotFound("equipe", "equipe não encontrada")
			}
		}

		query := `
            INSERT INTO reunioes (titulo, data, equipe_id, pauta)
            VALUES ($1, $2, $3, $4)
            RETURNING ` + columns

		row := tx.QueryRow(ctx, query, strings.TrimSpace(input.Titulo), input.Data, input.EquipeID, input.Pauta)
		re, err := scanReuniao(row)
		if err != nil {
			return err
		}
		reuniao = re
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return reuniao, nil
}

// Update aplica atualização parcial; mudanças de status passam por
// UpdateStatus, que valida a transição.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, input UpdateReuniaoInput) (*Reuniao, error) {
	var reuniao *Reuniao

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		atual, err := findReuniao(ctx, tx, id)
		if err != nil {
			return err
		}

		titulo := atual.Titulo
		if input.Titulo != nil {
			titulo = strings.TrimSpace(*input.Titulo)
		}
		data := atual.Data
		if input.Data != nil {
			data = *input.Data
		}
		pauta := atual.Pauta
		if input.Pauta != nil {
			pauta = input.Pauta
		}
		observacoes := atual.Observacoes
		if input.Observacoes != nil {
			observacoes = input.Observacoes
		}

		query := `
            UPDATE reunioes
            SET titulo = $2, data = $3, pauta = $4, observacoes = $5, atualizado_em = now()
            WHERE id = $1
            RETURNING ` + columns

		row := tx.QueryRow(ctx, query, id, titulo, data, pauta, observacoes)
		re, err := scanReuniao(row)
		if err != nil {
			return err
		}
		if err := loadVinculos(ctx, tx, re); err != nil {
			return err
		}
		reuniao = re
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return reuniao, nil
}

// UpdateStatus muda o estado da reunião respeitando a tabela de
// transições. Transição ilegal é rejeitada com erro tipado.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, novo Status) (*Reuniao, error) {
	var reuniao *Reuniao

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		atual, err := findReuniao(ctx, tx, id)
		if err != nil {
			return err
		}

		if !PodeTransicionar(atual.Status, novo) {
			return apperr.BadRequest("REUNIAO_INVALID_TRANSITION",
				fmt.Sprintf("transição de %s para %s não é permitida", atual.Status, novo))
		}

		query := `
            UPDATE reunioes
            SET status = $2, atualizado_em = now()
            WHERE id = $1
            RETURNING ` + columns

		row := tx.QueryRow(ctx, query, id, string(novo))
		re, err := scanReuniao(row)
		if err != nil {
			return err
		}
		if err := loadVinculos(ctx, tx, re); err != nil {
			return err
		}
		reuniao = re
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, entity)
	}
	return reuniao, nil
}

// Delete remove a reunião com participantes e encaminhamentos, na mesma
// transação.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := findReuniao(ctx, tx, id); err != nil {
			return err
		}

		steps := []string{
			`DELETE FROM reuniao_participantes WHERE reuniao_id = $1`,
			`DELETE FROM encaminhamentos WHERE reuniao_id = $1`,
			`DELETE FROM reunioes WHERE id = $1`,
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

// AddParticipante convoca um usuário para a reunião, no máximo uma vez.
func (r *Repository) AddParticipante(ctx context.Context, reuniaoID, usuarioID uuid.UUID) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := findReuniao(ctx, tx, reuniaoID); err != nil {
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
			`SELECT EXISTS (SELECT 1 FROM reuniao_participantes WHERE reuniao_id = $1 AND usuario_id = $2)`,
			reuniaoID, usuarioID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("REUNIAO_ALREADY_PARTICIPANT", "usuário já convocado para a reunião")
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO reuniao_participantes (reuniao_id, usuario_id) VALUES ($1, $2)`, reuniaoID, usuarioID)
		if isUniqueViolation(err) {
			return apperr.Conflict("REUNIAO_ALREADY_PARTICIPANT", "usuário já convocado para a reunião")
		}
		return err
	})
	if err != nil {
		return apperr.Translate(err, entity)
	}
	return nil
}

// RemoveParticipante retira o usuário da convocação.
func (r *Repository) RemoveParticipante(ctx context.Context, reuniaoID, usuarioID uuid.UUID) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM reuniao_participantes WHERE reuniao_id = $1 AND usuario_id = $2`, reuniaoID, usuarioID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFoundWithCode("REUNIAO_NOT_PARTICIPANT", "usuário não convocado para a reunião")
		}
		return nil
	})
	if err != nil {
		return apperr.Translate(err, entity)
	}
	return nil
}

// ConfirmarPresenca registra presença ou falta do participante.
func (r *Repository) ConfirmarPresenca(ctx context.Context, reuniaoID, usuarioID uuid.UUID, presente bool) error {
	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            UPDATE reuniao_participantes
            SET presente = $3, confirmado_em = now()
            WHERE reuniao_id = $1 AND usuario_id = $2
        `, reuniaoID, usuarioID, presente)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFoundWithCode("REUNIAO_NOT_PARTICIPANT", "usuário não convocado para a reunião")
		}
		return nil
	})
	if err != nil {
		return apperr.Translate(err, entity)
	}
	return nil
}

// AddEncaminhamento registra um item de ação da reunião.
func (r *Repository) AddEncaminhamento(ctx context.Context, reuniaoID uuid.UUID, input CreateEncaminhamentoInput) (*Encaminhamento, error) {
	var item *Encaminhamento

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		re, err := findReuniao(ctx, tx, reuniaoID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound(entity, "reunião não encontrada")
			}
			return err
		}

		prioridade := strings.ToUpper(strings.TrimSpace(input.Prioridade))
		if prioridade == "" {
			prioridade = "MEDIA"
		}

		query := `
            INSERT INTO encaminhamentos (reuniao_id, equipe_id, descricao, responsavel_id, prazo, prioridade)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING id, reuniao_id, equipe_id, descricao, responsavel_id, prazo, status, prioridade, criado_em, atualizado_em
        `

		row := tx.QueryRow(ctx, query, reuniaoID, re.EquipeID,
			strings.TrimSpace(input.Descricao), input.ResponsavelID, input.Prazo, prioridade)
		e, err := scanEncaminhamento(row)
		if err != nil {
			return err
		}
		item = e
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, "encaminhamento")
	}
	return item, nil
}

// UpdateEncaminhamento atualiza andamento, responsável e prazo do item.
func (r *Repository) UpdateEncaminhamento(ctx context.Context, reuniaoID, encaminhamentoID uuid.UUID, input UpdateEncaminhamentoInput) (*Encaminhamento, error) {
	var item *Encaminhamento

	err := r.uow.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
            SELECT id, reuniao_id, equipe_id, descricao, responsavel_id, prazo, status, prioridade, criado_em, atualizado_em
            FROM encaminhamentos
            WHERE id = $1 AND reuniao_id = $2
        `, encaminhamentoID, reuniaoID)
		atual, err := scanEncaminhamento(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound("encaminhamento", "encaminhamento não encontrado")
			}
			return err
		}

		if input.Descricao != nil {
			atual.Descricao = strings.TrimSpace(*input.Descricao)
		}
		if input.ResponsavelID != nil {
			atual.ResponsavelID = input.ResponsavelID
		}
		if input.Prazo != nil {
			atual.Prazo = input.Prazo
		}
		if input.Status != nil {
			status := strings.ToUpper(strings.TrimSpace(*input.Status))
			switch status {
			case "PENDENTE", "EM_ANDAMENTO", "CONCLUIDO", "CANCELADO":
				atual.Status = status
			default:
				return apperr.BadRequest("ENCAMINHAMENTO_INVALID_STATUS", "status de encaminhamento desconhecido")
			}
		}
		if input.Prioridade != nil {
			prioridade := strings.ToUpper(strings.TrimSpace(*input.Prioridade))
			switch prioridade {
			case "BAIXA", "MEDIA", "ALTA":
				atual.Prioridade = prioridade
			default:
				return apperr.BadRequest("ENCAMINHAMENTO_INVALID_PRIORITY", "prioridade de encaminhamento desconhecida")
			}
		}

		row = tx.QueryRow(ctx, `
            UPDATE encaminhamentos
            SET descricao = $3, responsavel_id = $4, prazo = $5, status = $6, prioridade = $7, atualizado_em = now()
            WHERE id = $1 AND reuniao_id = $2
            RETURNING id, reuniao_id, equipe_id, descricao, responsavel_id, prazo, status, prioridade, criado_em, atualizado_em
        `, encaminhamentoID, reuniaoID, atual.Descricao, atual.ResponsavelID, atual.Prazo, atual.Status, atual.Prioridade)
		e, err := scanEncaminhamento(row)
		if err != nil {
			return err
		}
		item = e
		return nil
	})
	if err != nil {
		return nil, apperr.Translate(err, "encaminhamento")
	}
	return item, nil
}

func findReuniao(ctx context.Context, q db.Querier, id uuid.UUID) (*Reuniao, error) {
	query := `SELECT ` + columns + ` FROM reunioes WHERE id = $1`
	return scanReuniao(q.QueryRow(ctx, query, id))
}

func loadVinculos(ctx context.Context, q db.Querier, re *Reuniao) error {
	participantes, err := listParticipantes(ctx, q, re.ID)
	if err != nil {
		return err
	}
	re.Participantes = participantes

	encaminhamentos, err := listEncaminhamentos(ctx, q, re.ID)
	if err != nil {
		return err
	}
	re.Encaminhamentos = encaminhamentos
	return nil
}

func listParticipantes(ctx context.Context, q db.Querier, reuniaoID uuid.UUID) ([]Participante, error) {
	query := `
        SELECT rp.usuario_id, u.nome, rp.presente, rp.confirmado_em
        FROM reuniao_participantes rp
        JOIN usuarios u ON u.id = rp.usuario_id
        WHERE rp.reuniao_id = $1
        ORDER BY u.nome
    `

	rows, err := q.Query(ctx, query, reuniaoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participantes := []Participante{}
	for rows.Next() {
		var p Participante
		if err := rows.Scan(&p.UsuarioID, &p.Nome, &p.Presente, &p.ConfirmadoEm); err != nil {
			return nil, err
		}
		participantes = append(participantes, p)
	}
	return participantes, rows.Err()
}

func listEncaminhamentos(ctx context.Context, q db.Querier, reuniaoID uuid.UUID) ([]Encaminhamento, error) {
	query := `
        SELECT id, reuniao_id, equipe_id, descricao, responsavel_id, prazo, status, prioridade, criado_em, atualizado_em
        FROM encaminhamentos
        WHERE reuniao_id = $1
        ORDER BY criado_em
    `

	rows, err := q.Query(ctx, query, reuniaoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	encaminhamentos := []Encaminhamento{}
	for rows.Next() {
		e, err := scanEncaminhamento(rows)
		if err != nil {
			return nil, err
		}
		encaminhamentos = append(encaminhamentos, *e)
	}
	return encaminhamentos, rows.Err()
}

// scanReuniao restaura a entidade; status desconhecido é erro.
func scanReuniao(row pgx.Row) (*Reuniao, error) {
	var (
		re        Reuniao
		statusRaw string
	)

	err := row.Scan(&re.ID, &re.Titulo, &re.Data, &statusRaw, &re.EquipeID,
		&re.Pauta, &re.Observacoes, &re.CriadoEm, &re.AtualizadoEm)
	if err != nil {
		return nil, err
	}

	re.Status, err = ParseStatus(statusRaw)
	if err != nil {
		return nil, err
	}

	re.Participantes = []Participante{}
	re.Encaminhamentos = []Encaminhamento{}
	return &re, nil
}

func scanEncaminhamento(row pgx.Row) (*Encaminhamento, error) {
	var e Encaminhamento
	err := row.Scan(&e.ID, &e.ReuniaoID, &e.EquipeID, &e.Descricao, &e.ResponsavelID,
		&e.Prazo, &e.Status, &e.Prioridade, &e.CriadoEm, &e.AtualizadoEm)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
