package report

import (
	"fmt"
	"strings"
)

// KidsGenderGroup 前端的合并性别分组
const KidsGenderGroup = "Baby & Kids"

// 非商品（包装、耗材）不计入库存
const nonProductExclusion = `UPPER(COALESCE(article, '')) NOT LIKE '%SHOPPING BAG%'
  AND UPPER(COALESCE(article, '')) NOT LIKE '%HANGER%'
  AND UPPER(COALESCE(article, '')) NOT LIKE '%PAPER BAG%'
  AND UPPER(COALESCE(article, '')) NOT LIKE '%THERMAL%'
  AND UPPER(COALESCE(article, '')) NOT LIKE '%BOX LUCA%'`

var kidsGenders = []string{"BABY", "BOYS", "GIRLS", "JUNIOR", "KIDS"}

// Filters 看板的筛选条件，空字符串表示不筛选
type Filters struct {
	Branch   string `form:"branch"`
	Gender   string `form:"gender"`
	Tier     string `form:"tier"`
	Category string `form:"category"`
}

// whereBuilder 按顺序生成 $n 占位符
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string) {
	w.conds = append(w.conds, cond)
}

// addArg cond 中的 %s 会被替换为下一个占位符
func (w *whereBuilder) addArg(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, fmt.Sprintf("$%d", len(w.args))))
}

func (w *whereBuilder) addIn(col string, values []string) {
	if len(values) == 1 {
		w.addArg(col+" = %s", values[0])
		return
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		w.args = append(w.args, v)
		placeholders[i] = fmt.Sprintf("$%d", len(w.args))
	}
	w.add(fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", ")))
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, "\n  AND ")
}

// BuildStockWhere 生成 core.stock_with_product 的 WHERE 子句和参数
func BuildStockWhere(f Filters) (string, []any) {
	w := &whereBuilder{}
	w.add(nonProductExclusion)

	if f.Branch != "" {
		w.addArg("gudang_branch = %s", f.Branch)
	}
	if f.Gender != "" {
		if f.Gender == KidsGenderGroup {
			w.add("UPPER(gender) IN ('" + strings.Join(kidsGenders, "','") + "')")
		} else {
			w.addArg("UPPER(gender) = UPPER(%s)", f.Gender)
		}
	}
	if f.Tier != "" {
		w.addArg("COALESCE(tier, '3') = %s", f.Tier)
	}
	if f.Category != "" {
		w.addArg("gudang_category = %s", f.Category)
	}

	return w.clause(), w.args
}
