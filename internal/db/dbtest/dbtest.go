// Package dbtest fornece um banco falso programável para os testes de
// repositório. O Fake grava todo SQL recebido, na ordem, e responde
// consultas registradas por fragmento, o que permite verificar ordem de
// cascata, caminhos de conflito e commit/rollback sem um Postgres real.
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Row responde um QueryRow programado: ou os valores a copiar, ou o erro
// a devolver no Scan.
type Row struct {
	Values []any
	Err    error
}

// Scan copia os valores programados para os destinos, na ordem.
func (r Row) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	if len(r.Values) != len(dest) {
		return fmt.Errorf("dbtest: %d valores programados para %d destinos", len(r.Values), len(dest))
	}
	for i, v := range r.Values {
		if v == nil {
			continue
		}
		d := reflect.ValueOf(dest[i]).Elem()
		val := reflect.ValueOf(v)
		if !val.Type().AssignableTo(d.Type()) {
			return fmt.Errorf("dbtest: valor %T não atribuível a %s", v, d.Type())
		}
		d.Set(val)
	}
	return nil
}

// Rows itera sobre linhas pré-montadas de um Query programado.
type Rows struct {
	values [][]any
	idx    int
}

func (r *Rows) Close()                                       {}
func (r *Rows) Err() error                                   { return nil }
func (r *Rows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *Rows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *Rows) Next() bool {
	r.idx++
	return r.idx <= len(r.values)
}

func (r *Rows) Scan(dest ...any) error {
	return Row{Values: r.values[r.idx-1]}.Scan(dest...)
}

func (r *Rows) Values() ([]any, error) { return r.values[r.idx-1], nil }
func (r *Rows) RawValues() [][]byte    { return nil }
func (r *Rows) Conn() *pgx.Conn        { return nil }

type rowStub struct {
	fragment string
	row      Row
}

type rowsStub struct {
	fragment string
	values   [][]any
}

type execStub struct {
	fragment string
	tag      pgconn.CommandTag
	err      error
}

// Fake implementa o recorte de pool consumido pelo unit of work.
type Fake struct {
	mu        sync.Mutex
	rowStubs  []rowStub
	rowsStubs []rowsStub
	execStubs []execStub

	Executed  []string
	Commits   int
	Rollbacks int
	BeginErr  error
}

// StubQueryRow registra a resposta para consultas de linha única cujo SQL
// contenha o fragmento.
func (f *Fake) StubQueryRow(fragment string, row Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rowStubs = append(f.rowStubs, rowStub{fragment: fragment, row: row})
}

// StubQuery registra as linhas devolvidas para consultas de lista cujo SQL
// contenha o fragmento.
func (f *Fake) StubQuery(fragment string, values [][]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rowsStubs = append(f.rowsStubs, rowsStub{fragment: fragment, values: values})
}

// StubExec registra o resultado de comandos cujo SQL contenha o fragmento.
// A tag segue o formato do Postgres ("DELETE 1", "UPDATE 0").
func (f *Fake) StubExec(fragment, tag string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execStubs = append(f.execStubs, execStub{fragment: fragment, tag: pgconn.NewCommandTag(tag), err: err})
}

// Index devolve a posição do primeiro comando gravado que contém o
// fragmento, ou -1 quando nenhum contém.
func (f *Fake) Index(fragment string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, sql := range f.Executed {
		if strings.Contains(sql, fragment) {
			return i
		}
	}
	return -1
}

func (f *Fake) record(sql string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Executed = append(f.Executed, sql)
}

func (f *Fake) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.record(sql)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rowStubs {
		if strings.Contains(sql, s.fragment) {
			return s.row
		}
	}
	return Row{Err: fmt.Errorf("dbtest: consulta não programada: %s", strings.Join(strings.Fields(sql), " "))}
}

func (f *Fake) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.record(sql)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rowsStubs {
		if strings.Contains(sql, s.fragment) {
			return &Rows{values: s.values}, nil
		}
	}
	return &Rows{}, nil
}

func (f *Fake) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.record(sql)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.execStubs {
		if strings.Contains(sql, s.fragment) {
			return s.tag, s.err
		}
	}
	return pgconn.NewCommandTag("EXEC 1"), nil
}

func (f *Fake) BeginTx(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	if f.BeginErr != nil {
		return nil, f.BeginErr
	}
	return &Tx{fake: f}, nil
}

// Tx é a transação do Fake; comandos passam pelo mesmo registro.
type Tx struct {
	fake   *Fake
	closed bool
}

func (t *Tx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("dbtest: transação aninhada não suportada")
}

func (t *Tx) Commit(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.fake.Commits++
	return nil
}

func (t *Tx) Rollback(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.fake.Rollbacks++
	return nil
}

func (t *Tx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("dbtest: CopyFrom não suportado")
}

func (t *Tx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *Tx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }

func (t *Tx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("dbtest: Prepare não suportado")
}

func (t *Tx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.fake.Exec(ctx, sql, args...)
}

func (t *Tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.fake.Query(ctx, sql, args...)
}

func (t *Tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.fake.QueryRow(ctx, sql, args...)
}

func (t *Tx) Conn() *pgx.Conn { return nil }
