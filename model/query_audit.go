package model

import "time"

// QueryAudit 记录助手每次执行的 SQL，便于排查模型生成的查询
type QueryAudit struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	SessionID  string    `gorm:"size:64;index" json:"session_id"`
	Model      string    `gorm:"size:128" json:"model"`
	Purpose    string    `gorm:"type:text" json:"purpose"`
	SQL        string    `gorm:"column:sql_text;type:text" json:"sql"`
	Success    bool      `json:"success"`
	RowCount   int       `json:"row_count"`
	Truncated  bool      `json:"truncated"`
	Error      string    `gorm:"type:text" json:"error"`
	DurationMS int64     `json:"duration_ms"`
}

func (QueryAudit) TableName() string {
	return "assistant_query_audit"
}
