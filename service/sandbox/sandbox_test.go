package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteRejectsBeforeAcquire(t *testing.T) {
	pool := &fakePool{}
	sb := New(pool)

	for _, sql := range []string{
		"DELETE FROM core.stock_with_product",
		"SELECT 1; DROP TABLE users;",
		"truncate core.stock_with_product",
	} {
		_, err := sb.Execute(context.Background(), sql)
		var rejected *RejectedQueryError
		assert.True(t, errors.As(err, &rejected), sql)
	}

	assert.Empty(t, pool.conns, "no connection may be acquired for rejected statements")
}

func TestExecuteRowCap(t *testing.T) {
	tests := []struct {
		name          string
		n             int
		wantRows      int
		wantTruncated bool
	}{
		{name: "empty", n: 0, wantRows: 0},
		{name: "under cap", n: 12, wantRows: 12},
		{name: "exactly cap", n: 200, wantRows: 200},
		{name: "over cap", n: 201, wantRows: 200, wantTruncated: true},
		{name: "far over cap", n: 1500, wantRows: 200, wantTruncated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := &fakePool{
				columns: []string{"article", "pairs"},
				data:    generateRows(tt.n),
			}
			res, err := New(pool).Execute(context.Background(), "SELECT article, pairs FROM core.stock_with_product")
			require.NoError(t, err)

			assert.Equal(t, []string{"article", "pairs"}, res.Columns)
			assert.Equal(t, tt.n, res.RowCount)
			assert.Len(t, res.Rows, tt.wantRows)
			assert.Equal(t, tt.wantTruncated, res.Truncated)
			if tt.n > 0 {
				assert.Equal(t, "article-000", res.Rows[0]["article"])
			}
		})
	}
}

func TestExecuteCustomRowCap(t *testing.T) {
	pool := &fakePool{columns: []string{"article", "pairs"}, data: generateRows(10)}
	res, err := New(pool, WithRowCap(3)).Execute(context.Background(), "SELECT article, pairs FROM t")
	require.NoError(t, err)

	assert.Len(t, res.Rows, 3)
	assert.Equal(t, 10, res.RowCount)
	assert.True(t, res.Truncated)
}

func TestExecuteRunsInsideReadOnlyTransaction(t *testing.T) {
	pool := &fakePool{columns: []string{"n"}, data: [][]any{{int64(1)}}}
	sb := New(pool, WithStatementTimeout(15*time.Second))

	_, err := sb.Execute(context.Background(), "  SELECT 1 AS n  ")
	require.NoError(t, err)

	require.Len(t, pool.conns, 1)
	conn := pool.conns[0]
	assert.Equal(t, []string{
		"BEGIN READ ONLY",
		"SET LOCAL statement_timeout = 15000",
		"ROLLBACK",
	}, conn.execs)
	assert.Equal(t, []string{"SELECT 1 AS n"}, conn.queries)
	assert.True(t, conn.released)
	assert.True(t, pool.rows.closed)
}

func TestExecuteErrorsReleaseConnection(t *testing.T) {
	dbErr := errors.New(`canceling statement due to statement timeout`)

	tests := []struct {
		name      string
		pool      *fakePool
		wantStage string
	}{
		{
			name:      "begin fails",
			pool:      &fakePool{execErr: dbErr, execErrOn: "BEGIN READ ONLY"},
			wantStage: "begin",
		},
		{
			name:      "query fails",
			pool:      &fakePool{queryErr: dbErr},
			wantStage: "execute",
		},
		{
			name:      "rows fail mid-stream",
			pool:      &fakePool{columns: []string{"n"}, data: generateRows(3), rowsErr: dbErr},
			wantStage: "execute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.pool).Execute(context.Background(), "SELECT n FROM t")

			var execErr *ExecutionError
			require.True(t, errors.As(err, &execErr))
			assert.Equal(t, tt.wantStage, execErr.Stage)
			assert.ErrorIs(t, err, dbErr)

			require.Len(t, tt.pool.conns, 1)
			assert.True(t, tt.pool.conns[0].released)
		})
	}
}

func TestExecuteAcquireFailure(t *testing.T) {
	pool := &fakePool{acquireErr: errors.New("pool exhausted")}
	_, err := New(pool).Execute(context.Background(), "SELECT 1")

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "acquire", execErr.Stage)
}

func TestExecuteIsDeterministic(t *testing.T) {
	pool := &fakePool{columns: []string{"article", "pairs"}, data: generateRows(250)}
	sb := New(pool)

	first, err := sb.Execute(context.Background(), "SELECT article, pairs FROM t ORDER BY article")
	require.NoError(t, err)
	second, err := sb.Execute(context.Background(), "SELECT article, pairs FROM t ORDER BY article")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNormalizeValue(t *testing.T) {
	id := uuid.New()
	var raw [16]byte = id

	assert.Equal(t, id.String(), normalizeValue(raw))
	assert.Equal(t, `\x0102`, normalizeValue([]byte{1, 2}))
	assert.Nil(t, normalizeValue(nil))
	assert.Nil(t, normalizeValue(pgtype.Numeric{}))
	assert.Equal(t, "2025-01-15T00:00:00Z", normalizeValue(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(7), normalizeValue(int64(7)))

	var n pgtype.Numeric
	require.NoError(t, n.Scan("12.5"))
	assert.Equal(t, json.Number("12.5"), normalizeValue(n))

	var big pgtype.Numeric
	require.NoError(t, big.Scan("12345678901234567890.0123"))
	assert.Equal(t, json.Number("12345678901234567890.0123"), normalizeValue(big))

	var nan pgtype.Numeric
	require.NoError(t, nan.Scan("NaN"))
	assert.Nil(t, normalizeValue(nan))

	assert.Equal(t, "Infinity", normalizeValue(pgtype.Numeric{Valid: true, InfinityModifier: pgtype.Infinity}))
	assert.Equal(t, "-Infinity", normalizeValue(pgtype.Numeric{Valid: true, InfinityModifier: pgtype.NegativeInfinity}))
}
