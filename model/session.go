package model

import (
	"encoding/json"
	"time"
)

const (
	DefaultDashboard = "accurate-stock"

	SessionTitleMaxLen  = 60
	SessionRenameMaxLen = 120
	SessionListLimit    = 50
)

// ChatSession 助手会话，按 (dashboard, uid) 归属
// 建立联合索引 (dashboard, uid, updated_at)
type ChatSession struct {
	ID        string          `gorm:"primaryKey;size:64" json:"id"`
	Dashboard string          `gorm:"size:64;not null;index:idx_dashboard_uid_updated" json:"dashboard"`
	UID       string          `gorm:"column:uid;size:128;not null;default:'';index:idx_dashboard_uid_updated" json:"uid"`
	Title     string          `gorm:"size:255;not null;default:''" json:"title"`
	Messages  json.RawMessage `gorm:"type:json" json:"messages"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `gorm:"index:idx_dashboard_uid_updated" json:"updated_at"`
}

func (ChatSession) TableName() string {
	return "assistant_sessions"
}
