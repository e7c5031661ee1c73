package sandbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeRows struct {
	columns []string
	data    [][]any
	idx     int
	err     error
	closed  bool
}

func (r *fakeRows) Close()                        { r.closed = true }
func (r *fakeRows) Err() error                    { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag(fmt.Sprintf("SELECT %d", len(r.data))) }
func (r *fakeRows) Conn() *pgx.Conn               { return nil }
func (r *fakeRows) RawValues() [][]byte           { return nil }
func (r *fakeRows) Scan(dest ...any) error        { return errors.New("scan not supported") }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(r.columns))
	for i, c := range r.columns {
		fds[i] = pgconn.FieldDescription{Name: c}
	}
	return fds
}

func (r *fakeRows) Next() bool {
	if r.closed || r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.data[r.idx-1], nil
}

type fakeConn struct {
	pool     *fakePool
	execs    []string
	queries  []string
	released bool
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.execs = append(c.execs, sql)
	if c.pool.execErr != nil && sql == c.pool.execErrOn {
		return pgconn.CommandTag{}, c.pool.execErr
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.queries = append(c.queries, sql)
	if c.pool.queryErr != nil {
		return nil, c.pool.queryErr
	}
	c.pool.rows = &fakeRows{columns: c.pool.columns, data: c.pool.data, err: c.pool.rowsErr}
	return c.pool.rows, nil
}

func (c *fakeConn) Release() {
	c.released = true
}

// fakePool 记录借出的连接，用于断言连接总会被归还
type fakePool struct {
	columns []string
	data    [][]any

	acquireErr error
	queryErr   error
	rowsErr    error
	execErr    error
	execErrOn  string

	conns []*fakeConn
	rows  *fakeRows
}

func (p *fakePool) Acquire(ctx context.Context) (Conn, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	conn := &fakeConn{pool: p}
	p.conns = append(p.conns, conn)
	return conn, nil
}

func generateRows(n int) [][]any {
	data := make([][]any, n)
	for i := range data {
		data[i] = []any{fmt.Sprintf("article-%03d", i), int64(i)}
	}
	return data
}
