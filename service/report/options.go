package report

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// cacheDimension 可交叉筛选的维度，排序表达式基于去重后的列 val
type cacheDimension struct {
	key        string
	col        string
	param      string
	nullFilter string
	orderBy    string
	value      func(CacheFilters) string
}

var cacheDimensions = []cacheDimension{
	{
		key: "categories", col: "category", param: "category",
		nullFilter: "category IS NOT NULL AND category != ''", orderBy: "val",
		value: func(f CacheFilters) string { return f.Category },
	},
	{
		key: "branches", col: "branch", param: "branch",
		nullFilter: "branch IS NOT NULL", orderBy: "val",
		value: func(f CacheFilters) string { return f.Branch },
	},
	{
		key: "gudangs", col: "nama_gudang", param: "gudang",
		nullFilter: "nama_gudang IS NOT NULL AND nama_gudang != ''", orderBy: "val",
		value: func(f CacheFilters) string { return f.Gudang },
	},
	{
		key: "genders", col: "gender_group", param: "gender",
		nullFilter: "gender_group IS NOT NULL", orderBy: "val",
		value: func(f CacheFilters) string { return f.Gender },
	},
	{
		key: "series", col: "series", param: "series",
		nullFilter: "series IS NOT NULL AND series != ''", orderBy: "val",
		value: func(f CacheFilters) string { return f.Series },
	},
	{
		key: "colors", col: "group_warna", param: "color",
		nullFilter: "group_warna IS NOT NULL AND group_warna != '' AND group_warna != 'OTHER'", orderBy: "val",
		value: func(f CacheFilters) string { return f.Color },
	},
	{
		key: "tiers", col: "tier", param: "tier",
		nullFilter: "tier IS NOT NULL", orderBy: "val",
		value: func(f CacheFilters) string { return f.Tier },
	},
	{
		key: "sizes", col: "ukuran", param: "size",
		nullFilter: "ukuran IS NOT NULL AND ukuran != ''",
		orderBy:    "CASE WHEN d.val ~ '^[0-9]+$' THEN d.val::int WHEN d.val ~ '^[0-9]+/[0-9]+$' THEN split_part(d.val, '/', 1)::int ELSE 999 END, val",
		value:      func(f CacheFilters) string { return f.Size },
	},
}

func splitMulti(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(val, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

type optionRow struct {
	Val string `db:"val"`
}

// BuildOptionQuery 每个维度只应用其他维度的筛选，保证下拉选项与当前筛选相关
func BuildOptionQuery(dim cacheDimension, f CacheFilters) (string, []any) {
	w := &whereBuilder{}
	w.add(dim.nullFilter)
	for _, other := range cacheDimensions {
		if other.param == dim.param {
			continue
		}
		if values := splitMulti(other.value(f)); len(values) > 0 {
			w.addIn(other.col, values)
		}
	}
	if f.Query != "" {
		w.args = append(w.args, "%"+f.Query+"%")
		ph := fmt.Sprintf("$%d", len(w.args))
		w.add("(kode_besar ILIKE " + ph + " OR kode ILIKE " + ph + ")")
	}

	sql := "SELECT val::text AS val FROM (SELECT DISTINCT " + dim.col + " AS val FROM core.dashboard_cache\n" +
		w.clause() + ") d\nORDER BY " + dim.orderBy
	return sql, w.args
}

// FilterOptions 并发查询每个维度的可选值
func (s *Service) FilterOptions(ctx context.Context, f CacheFilters) (map[string][]string, error) {
	results := make([][]string, len(cacheDimensions))

	g, gctx := errgroup.WithContext(ctx)
	for i, dim := range cacheDimensions {
		g.Go(func() error {
			sql, args := BuildOptionQuery(dim, f)
			rows, err := collect[optionRow](gctx, s.db, sql, args)
			if err != nil {
				return err
			}
			values := make([]string, 0, len(rows))
			for _, r := range rows {
				if r.Val != "" {
					values = append(values, r.Val)
				}
			}
			results[i] = values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(cacheDimensions))
	for i, dim := range cacheDimensions {
		out[dim.key] = results[i]
	}
	return out, nil
}
