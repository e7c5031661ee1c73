package audit

import (
	"context"
	"path/filepath"
	"stock-dashboard-backend/config"
	"stock-dashboard-backend/model"
	"stock-dashboard-backend/service/chat"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.QueryAudit{}))
	return db
}

func TestRecorderPersistsOnShutdown(t *testing.T) {
	db := openTestDB(t)
	r := NewRecorder(db, config.AuditConfig{Workers: 2, QueueSize: 16, BatchSize: 4})
	r.Run()

	for i := 0; i < 10; i++ {
		require.True(t, r.Record(&model.QueryAudit{
			CreatedAt: time.Now(),
			SessionID: "sess-1",
			SQL:       "SELECT 1",
			Success:   true,
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Shutdown(ctx))

	var count int64
	require.NoError(t, db.Model(&model.QueryAudit{}).Count(&count).Error)
	assert.EqualValues(t, 10, count)

	assert.False(t, r.Record(&model.QueryAudit{}), "closed recorder must reject entries")
	require.NoError(t, r.Shutdown(ctx))
}

func TestRecorderDropsWhenQueueFull(t *testing.T) {
	db := openTestDB(t)
	r := NewRecorder(db, config.AuditConfig{Workers: 1, QueueSize: 2, BatchSize: 10})

	// 未启动 worker，队列满后直接丢弃
	assert.True(t, r.Record(&model.QueryAudit{}))
	assert.True(t, r.Record(&model.QueryAudit{}))
	assert.False(t, r.Record(&model.QueryAudit{}))
}

func TestRecordExecution(t *testing.T) {
	db := openTestDB(t)
	r := NewRecorder(db, config.AuditConfig{Workers: 1, QueueSize: 4, BatchSize: 1})
	r.Run()

	truncated := true
	ctx := chat.WithSessionID(context.Background(), "sess-9")
	r.RecordExecution(ctx, chat.ExecutionRecord{
		Args: chat.QueryArgs{SQL: "SELECT article FROM core.stock_with_product", Purpose: "artikel"},
		Outcome: chat.ToolOutcome{
			Success:   true,
			RowCount:  500,
			Truncated: &truncated,
		},
		Duration: 120 * time.Millisecond,
	})

	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Shutdown(ctxTimeout))

	var got model.QueryAudit
	require.NoError(t, db.First(&got).Error)
	assert.Equal(t, "sess-9", got.SessionID)
	assert.Equal(t, "artikel", got.Purpose)
	assert.Equal(t, 500, got.RowCount)
	assert.True(t, got.Truncated)
	assert.EqualValues(t, 120, got.DurationMS)
}
