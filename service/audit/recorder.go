package audit

import (
	"context"
	"fmt"
	"log/slog"
	"stock-dashboard-backend/config"
	"stock-dashboard-backend/model"
	"stock-dashboard-backend/service/chat"
	"sync"
	"time"

	"gorm.io/gorm"
)

const (
	defaultQueueSize = 256
	defaultWorkerNum = 2
	defaultBatchSize = 20

	// 未攒满一批时的最长等待时间
	flushInterval = 2 * time.Second
)

// Recorder 异步持久化助手执行过的查询，不阻塞对话
type Recorder struct {
	db        *gorm.DB
	queue     chan *model.QueryAudit
	workerNum int
	batchSize int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewRecorder(db *gorm.DB, cfg config.AuditConfig) *Recorder {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	workerNum := cfg.Workers
	if workerNum <= 0 {
		workerNum = defaultWorkerNum
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &Recorder{
		db:        db,
		queue:     make(chan *model.QueryAudit, queueSize),
		workerNum: workerNum,
		batchSize: batchSize,
	}
}

func (r *Recorder) Run() {
	for i := 1; i <= r.workerNum; i++ {
		r.wg.Add(1)
		go r.work(i)
	}
}

// Record 队列已满或已关闭时丢弃并返回 false
func (r *Recorder) Record(entry *model.QueryAudit) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return false
	}

	select {
	case r.queue <- entry:
		return true
	default:
		slog.Warn("audit queue is full, dropping entry",
			"session_id", entry.SessionID,
			"purpose", entry.Purpose,
		)
		return false
	}
}

// RecordExecution 满足 chat.RecordFunc
func (r *Recorder) RecordExecution(ctx context.Context, rec chat.ExecutionRecord) {
	entry := &model.QueryAudit{
		CreatedAt:  time.Now(),
		SessionID:  chat.SessionIDFromContext(ctx),
		Purpose:    rec.Args.Purpose,
		SQL:        rec.Args.SQL,
		Success:    rec.Outcome.Success,
		RowCount:   rec.Outcome.RowCount,
		Error:      rec.Outcome.Error,
		DurationMS: rec.Duration.Milliseconds(),
	}
	if m, ok := chat.ModelFromContext(ctx); ok {
		entry.Model = m.ID
	}
	if rec.Outcome.Truncated != nil {
		entry.Truncated = *rec.Outcome.Truncated
	}
	r.Record(entry)
}

// Shutdown 关闭队列并等待 worker 写完剩余记录
func (r *Recorder) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit recorder shutdown: %w", ctx.Err())
	}
}

func (r *Recorder) work(id int) {
	defer r.wg.Done()
	slog.Debug("Starting audit worker", "worker_id", id)

	// 暂存等待批量写入的记录
	pending := make([]*model.QueryAudit, 0, r.batchSize)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	defer func() {
		if err := r.flush(pending); err != nil {
			slog.Error("Failed to flush audit entries", "err", err)
		}
		slog.Debug("Audit worker exit", "worker_id", id)
	}()

	for {
		select {
		case entry, ok := <-r.queue:
			if !ok {
				return
			}
			pending = append(pending, entry)
			if len(pending) < r.batchSize {
				continue
			}
		case <-ticker.C:
			if len(pending) == 0 {
				continue
			}
		}

		if err := r.flush(pending); err != nil {
			slog.Error("Failed to flush audit entries", "err", err)
		}
		pending = pending[:0]
	}
}

func (r *Recorder) flush(entries []*model.QueryAudit) error {
	if len(entries) == 0 {
		return nil
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(entries, r.batchSize).Error
	})
	if err != nil {
		return fmt.Errorf("failed to insert %d audit entries: %w", len(entries), err)
	}
	return nil
}
