package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const queryTimeout = 30 * time.Second

// Querier *pgxpool.Pool 满足该接口
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Service struct {
	db Querier
}

func NewService(db Querier) *Service {
	return &Service{db: db}
}

type KPIs struct {
	TotalPairs     int64      `db:"total_pairs" json:"total_pairs"`
	UniqueArticles int64      `db:"unique_articles" json:"unique_articles"`
	DeadStockPairs int64      `db:"dead_stock_pairs" json:"dead_stock_pairs"`
	EstRSPValue    float64    `db:"est_rsp_value" json:"est_rsp_value"`
	SnapshotDate   *time.Time `db:"snapshot_date" json:"snapshot_date"`
}

type BranchTier struct {
	Branch string `db:"branch" json:"branch"`
	Tier   string `db:"tier" json:"tier"`
	Pairs  int64  `db:"pairs" json:"pairs"`
}

type TierSummary struct {
	Tier     string `db:"tier" json:"tier"`
	Pairs    int64  `db:"pairs" json:"pairs"`
	Articles int64  `db:"articles" json:"articles"`
}

type GenderSummary struct {
	GenderGroup string `db:"gender_group" json:"gender_group"`
	Pairs       int64  `db:"pairs" json:"pairs"`
}

type SeriesSummary struct {
	Series   string `db:"series" json:"series"`
	Pairs    int64  `db:"pairs" json:"pairs"`
	Articles int64  `db:"articles" json:"articles"`
}

func (s *Service) KPIs(ctx context.Context, f Filters) (*KPIs, error) {
	where, args := BuildStockWhere(f)
	sql := `
SELECT
  COALESCE(SUM(quantity), 0)::bigint AS total_pairs,
  COUNT(DISTINCT kode_mix)::bigint AS unique_articles,
  COALESCE(SUM(CASE WHEN COALESCE(tier, '3') IN ('4','5') THEN quantity ELSE 0 END), 0)::bigint AS dead_stock_pairs,
  COALESCE(SUM(quantity * COALESCE(rsp, 0)), 0)::float8 AS est_rsp_value,
  MAX(snapshot_date)::timestamptz AS snapshot_date
FROM core.stock_with_product
` + where

	rows, err := collect[KPIs](ctx, s.db, sql, args)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &KPIs{}, nil
	}
	return &rows[0], nil
}

func (s *Service) ByBranch(ctx context.Context, f Filters) ([]BranchTier, error) {
	where, args := BuildStockWhere(f)
	sql := `
SELECT
  COALESCE(gudang_branch, 'Warehouse') AS branch,
  COALESCE(tier, '3') AS tier,
  COALESCE(SUM(quantity), 0)::bigint AS pairs
FROM core.stock_with_product
` + where + `
GROUP BY COALESCE(gudang_branch, 'Warehouse'), COALESCE(tier, '3')
ORDER BY branch, tier`

	return collect[BranchTier](ctx, s.db, sql, args)
}

func (s *Service) ByTier(ctx context.Context, f Filters) ([]TierSummary, error) {
	where, args := BuildStockWhere(f)
	sql := `
SELECT
  COALESCE(tier, '3') AS tier,
  COALESCE(SUM(quantity), 0)::bigint AS pairs,
  COUNT(DISTINCT kode_mix)::bigint AS articles
FROM core.stock_with_product
` + where + `
GROUP BY COALESCE(tier, '3')
ORDER BY tier`

	return collect[TierSummary](ctx, s.db, sql, args)
}

func (s *Service) ByGender(ctx context.Context, f Filters) ([]GenderSummary, error) {
	where, args := BuildStockWhere(f)
	sql := `
SELECT
  CASE WHEN gender IN ('Baby','Boys','Girls','Junior') THEN 'Baby & Kids'
       ELSE COALESCE(gender, 'Unknown') END AS gender_group,
  COALESCE(SUM(quantity), 0)::bigint AS pairs
FROM core.stock_with_product
` + where + `
GROUP BY gender_group
ORDER BY pairs DESC`

	return collect[GenderSummary](ctx, s.db, sql, args)
}

// BySeries 按库存量取前 15 个系列
func (s *Service) BySeries(ctx context.Context, f Filters) ([]SeriesSummary, error) {
	where, args := BuildStockWhere(f)
	sql := `
SELECT
  COALESCE(series, 'Unknown') AS series,
  COALESCE(SUM(quantity), 0)::bigint AS pairs,
  COUNT(DISTINCT kode_mix)::bigint AS articles
FROM core.stock_with_product
` + where + `
GROUP BY series
ORDER BY SUM(quantity) DESC
LIMIT 15`

	return collect[SeriesSummary](ctx, s.db, sql, args)
}

func collect[T any](ctx context.Context, db Querier, sql string, args []any) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("report query failed: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("failed to read report rows: %w", err)
	}
	return out, nil
}
