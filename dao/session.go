package dao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"stock-dashboard-backend/model"
	"stock-dashboard-backend/utils"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSessionOperation = errors.New("session operation failed")

var nowFunc = time.Now

// SessionUpsert 保存会话的参数，Title 为空时插入使用自动生成的标题，更新时保留原标题
type SessionUpsert struct {
	ID        string
	Dashboard string
	UID       string
	Title     string
	Messages  json.RawMessage
}

// DeriveTitle 取第一条用户消息第一个文本片段的前 60 个字符
func DeriveTitle(messages []model.UIMessage) string {
	return utils.TruncateRunes(model.FirstUserText(messages), model.SessionTitleMaxLen)
}

func ListSessions(ctx context.Context, dashboard, uid string) ([]model.ChatSession, error) {
	var sessions []model.ChatSession
	if err := DB.WithContext(ctx).
		Where("dashboard = ? AND uid = ?", dashboard, uid).
		Order("updated_at DESC").
		Limit(model.SessionListLimit).
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrSessionOperation, err)
	}
	return sessions, nil
}

func GetSession(ctx context.Context, id string) (*model.ChatSession, error) {
	var session model.ChatSession
	if err := DB.WithContext(ctx).
		Where("id = ?", id).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// UpsertSession 不存在时创建；id 冲突时替换 messages 并刷新 updated_at，
// 仅当传入非空标题时覆盖标题
func UpsertSession(ctx context.Context, s SessionUpsert) error {
	title := s.Title
	if title == "" {
		var messages []model.UIMessage
		if err := json.Unmarshal(s.Messages, &messages); err == nil {
			title = DeriveTitle(messages)
		}
	}

	now := nowFunc()
	session := model.ChatSession{
		ID:        s.ID,
		Dashboard: s.Dashboard,
		UID:       s.UID,
		Title:     title,
		Messages:  s.Messages,
		CreatedAt: now,
		UpdatedAt: now,
	}

	updateColumns := []string{"messages", "updated_at"}
	if s.Title != "" {
		updateColumns = append(updateColumns, "title")
	}

	if err := DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(updateColumns),
		}).
		Create(&session).Error; err != nil {
		return fmt.Errorf("%w: upsert %s: %w", ErrSessionOperation, s.ID, err)
	}
	return nil
}

// RenameSession 标题截断到 120 个字符，会话不存在时不报错
func RenameSession(ctx context.Context, id, title string) error {
	if err := DB.WithContext(ctx).
		Model(&model.ChatSession{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":      utils.TruncateRunes(title, model.SessionRenameMaxLen),
			"updated_at": nowFunc(),
		}).Error; err != nil {
		return fmt.Errorf("%w: rename %s: %w", ErrSessionOperation, id, err)
	}
	return nil
}

// DeleteSession 幂等
func DeleteSession(ctx context.Context, id string) error {
	if err := DB.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.ChatSession{}).Error; err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrSessionOperation, id, err)
	}
	return nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
