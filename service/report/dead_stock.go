package report

import "context"

// CacheFilters core.dashboard_cache 的筛选条件，多选值以逗号分隔
type CacheFilters struct {
	Category string `form:"category"`
	Branch   string `form:"branch"`
	Gudang   string `form:"gudang"`
	Gender   string `form:"gender"`
	Series   string `form:"series"`
	Color    string `form:"color"`
	Size     string `form:"size"`
	Tier     string `form:"tier"`
	Query    string `form:"q"`
}

type DeadStockItem struct {
	KodeBesar   string  `db:"kode_besar" json:"kode_besar"`
	Kode        string  `db:"kode" json:"kode"`
	Article     string  `db:"article" json:"article"`
	Series      string  `db:"series" json:"series"`
	GenderGroup string  `db:"gender_group" json:"gender_group"`
	Branch      string  `db:"branch" json:"branch"`
	NamaGudang  string  `db:"nama_gudang" json:"nama_gudang"`
	Tier        string  `db:"tier" json:"tier"`
	GroupWarna  string  `db:"group_warna" json:"group_warna"`
	Ukuran      string  `db:"ukuran" json:"ukuran"`
	Pairs       int64   `db:"pairs" json:"pairs"`
	EstRSPValue float64 `db:"est_rsp_value" json:"est_rsp_value"`
}

// DeadStock tier 4/5 中库存最多的 100 行
func (s *Service) DeadStock(ctx context.Context, f CacheFilters) ([]DeadStockItem, error) {
	w := &whereBuilder{}
	w.add("tier IN ('4','5')")
	for _, dim := range cacheDimensions {
		values := splitMulti(dim.value(f))
		if len(values) == 0 || dim.param == "tier" {
			continue
		}
		if dim.param == "gender" && len(values) == 1 && values[0] == KidsGenderGroup {
			w.add("gender_group = 'Baby & Kids'")
			continue
		}
		w.addIn(dim.col, values)
	}

	sql := `
SELECT
  COALESCE(kode_besar, '') AS kode_besar,
  COALESCE(kode, '') AS kode,
  COALESCE(article, '') AS article,
  COALESCE(series, '') AS series,
  COALESCE(gender_group, '') AS gender_group,
  COALESCE(branch, '') AS branch,
  COALESCE(nama_gudang, '') AS nama_gudang,
  COALESCE(tier, '') AS tier,
  COALESCE(group_warna, '') AS group_warna,
  COALESCE(ukuran, '') AS ukuran,
  COALESCE(SUM(pairs), 0)::bigint AS pairs,
  COALESCE(SUM(est_rsp), 0)::float8 AS est_rsp_value
FROM core.dashboard_cache
` + w.clause() + `
GROUP BY kode_besar, kode, article, series, gender_group, branch, nama_gudang, tier, group_warna, ukuran
ORDER BY pairs DESC
LIMIT 100`

	return collect[DeadStockItem](ctx, s.db, sql, w.args)
}
