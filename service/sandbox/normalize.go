package sandbox

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// normalizeValue 将 pgx 返回的值转换为可 JSON 序列化、便于模型阅读的形式
func normalizeValue(val any) any {
	switch v := val.(type) {
	case nil:
		return nil
	case [16]byte:
		return uuid.UUID(v).String()
	case []byte:
		return fmt.Sprintf("\\x%x", v)
	case pgtype.Numeric:
		return normalizeNumeric(v)
	case *big.Int:
		return v.String()
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return v
	}
}

// normalizeNumeric 以 json.Number 输出十进制原文，避免 float64 丢失精度
func normalizeNumeric(v pgtype.Numeric) any {
	if !v.Valid || v.NaN {
		return nil
	}
	switch v.InfinityModifier {
	case pgtype.Infinity:
		return "Infinity"
	case pgtype.NegativeInfinity:
		return "-Infinity"
	}
	if v.Int == nil {
		return nil
	}
	return json.Number(decimal.NewFromBigInt(v.Int, v.Exp).String())
}
