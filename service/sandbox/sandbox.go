package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	DefaultRowCap           = 200
	DefaultStatementTimeout = 15 * time.Second

	// 超出 statement_timeout 后留给数据库返回错误的时间
	timeoutGrace = 2 * time.Second

	rollbackTimeout = 5 * time.Second
)

// Conn 单个从连接池借出的连接，*pgxpool.Conn 满足该接口
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Release()
}

type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
}

// Result 查询结果，Rows 最多 RowCap 行，RowCount 为未截断的总行数
type Result struct {
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"rowCount"`
	Truncated bool             `json:"truncated"`
}

type Sandbox struct {
	pool             Pool
	rowCap           int
	statementTimeout time.Duration
}

type Option func(*Sandbox)

func WithRowCap(n int) Option {
	return func(s *Sandbox) {
		if n > 0 {
			s.rowCap = n
		}
	}
}

func WithStatementTimeout(d time.Duration) Option {
	return func(s *Sandbox) {
		if d > 0 {
			s.statementTimeout = d
		}
	}
}

func New(pool Pool, opts ...Option) *Sandbox {
	s := &Sandbox{
		pool:             pool,
		rowCap:           DefaultRowCap,
		statementTimeout: DefaultStatementTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sandbox) RowCap() int {
	return s.rowCap
}

// Execute 校验并执行单条只读语句。校验失败返回 *RejectedQueryError，
// 不会借用连接；数据库错误返回 *ExecutionError。不做重试。
func (s *Sandbox) Execute(ctx context.Context, sql string) (*Result, error) {
	statement, err := Validate(sql)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.statementTimeout+timeoutGrace)
	defer cancel()

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, &ExecutionError{Stage: "acquire", Err: err}
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "BEGIN READ ONLY"); err != nil {
		return nil, &ExecutionError{Stage: "begin", Err: err}
	}
	defer s.rollback(conn)

	// SET LOCAL 只作用于当前事务，连接归还后不残留
	timeoutStmt := fmt.Sprintf("SET LOCAL statement_timeout = %d", s.statementTimeout.Milliseconds())
	if _, err := conn.Exec(ctx, timeoutStmt); err != nil {
		return nil, &ExecutionError{Stage: "set timeout", Err: err}
	}

	start := time.Now()
	rows, err := conn.Query(ctx, statement)
	if err != nil {
		return nil, &ExecutionError{Stage: "execute", Err: err}
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	columns := make([]string, len(fds))
	for i, fd := range fds {
		columns[i] = fd.Name
	}

	res := &Result{
		Columns: columns,
		Rows:    make([]map[string]any, 0),
	}

	for rows.Next() {
		res.RowCount++
		if res.RowCount > s.rowCap {
			continue
		}

		vals, err := rows.Values()
		if err != nil {
			return nil, &ExecutionError{Stage: "scan", Err: err}
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if i < len(vals) {
				row[col] = normalizeValue(vals[i])
			}
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &ExecutionError{Stage: "execute", Err: err}
	}
	res.Truncated = res.RowCount > s.rowCap

	slog.Debug("sandbox query executed",
		"row_count", res.RowCount,
		"truncated", res.Truncated,
		"duration", time.Since(start),
	)

	return res, nil
}

func (s *Sandbox) rollback(conn Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
	defer cancel()

	if _, err := conn.Exec(ctx, "ROLLBACK"); err != nil {
		slog.Warn("failed to rollback read-only transaction", "err", err)
	}
}
