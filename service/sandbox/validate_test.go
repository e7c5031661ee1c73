package sandbox

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		sql         string
		wantKeyword string
		wantReject  bool
	}{
		{
			name: "simple select",
			sql:  "SELECT SUM(quantity) FROM core.stock_with_product",
		},
		{
			name: "lowercase with leading whitespace",
			sql:  "  \n\tselect tier, sum(quantity) from core.stock_with_product group by tier",
		},
		{
			name: "cte",
			sql:  "WITH t AS (SELECT tier FROM core.stock_with_product) SELECT * FROM t",
		},
		{
			name: "leading comments",
			sql:  "-- top branches\n/* by pairs */ SELECT gudang_branch FROM core.stock_with_product",
		},
		{
			name: "blocked keyword after FROM is tolerated",
			sql:  "SELECT article FROM core.sales_with_product WHERE nama_pelanggan = 'DROP SHIP'",
		},
		{
			name: "keyword as part of identifier",
			sql:  "SELECT updated_at, created_by FROM mart.sales_stock_ratio",
		},
		{
			name:       "update statement",
			sql:        "UPDATE core.stock_with_product SET quantity = 0",
			wantReject: true,
		},
		{
			name:       "empty",
			sql:        "   ",
			wantReject: true,
		},
		{
			name:       "only comment",
			sql:        "-- SELECT 1",
			wantReject: true,
		},
		{
			name:       "select prefix of another word",
			sql:        "SELECTED FROM x",
			wantReject: true,
		},
		{
			name:        "stacked drop without FROM",
			sql:         "SELECT 1; DROP TABLE users;",
			wantReject:  true,
			wantKeyword: "DROP",
		},
		{
			name:        "delete in select list",
			sql:         "select 1, delete from t",
			wantReject:  true,
			wantKeyword: "DELETE",
		},
		{
			name:        "cte header with insert",
			sql:         "WITH x AS (INSERT INTO t VALUES (1) RETURNING *) SELECT * FROM x",
			wantReject:  true,
			wantKeyword: "INSERT",
		},
		{
			name:        "first blocked keyword in list order wins",
			sql:         "SELECT 1; CREATE TABLE a(); GRANT ALL ON a TO b",
			wantReject:  true,
			wantKeyword: "CREATE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.sql)
			if !tt.wantReject {
				assert.NoError(t, err)
				return
			}

			var rejected *RejectedQueryError
			require.True(t, errors.As(err, &rejected), "expected RejectedQueryError, got %v", err)
			assert.Equal(t, tt.wantKeyword, rejected.Keyword)
			if tt.wantKeyword != "" {
				assert.Contains(t, rejected.Error(), tt.wantKeyword)
			}
		})
	}
}

func TestValidateReturnsTrimmedStatement(t *testing.T) {
	stmt, err := Validate("\n  SELECT 1  \n")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", stmt)
}
