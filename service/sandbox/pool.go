package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	connectAttempts       = 5
	defaultMaxConns       = 10
	maxConnIdleTime       = 30 * time.Second
	defaultConnectTimeout = 10 * time.Second
)

// PgxPool 将 *pgxpool.Pool 适配为 Pool
type PgxPool struct {
	*pgxpool.Pool
}

var _ Pool = (*PgxPool)(nil)

func (p *PgxPool) Acquire(ctx context.Context) (Conn, error) {
	conn, err := p.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// OpenPool 启动时创建 warehouse 连接池，连接失败按指数退避重试
func OpenPool(ctx context.Context, dsn string, maxConns int32) (*PgxPool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse warehouse dsn: %w", err)
	}
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	cfg.MaxConns = maxConns
	cfg.MaxConnIdleTime = maxConnIdleTime
	cfg.ConnConfig.ConnectTimeout = defaultConnectTimeout

	var pool *pgxpool.Pool
	err = retry.Do(
		func() error {
			p, err := pgxpool.NewWithConfig(ctx, cfg)
			if err != nil {
				return err
			}
			if err := p.Ping(ctx); err != nil {
				p.Close()
				return err
			}
			pool = p
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(connectAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Retrying to connect warehouse",
				"attempt", n+1,
				"err", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect warehouse after retries: %w", err)
	}

	return &PgxPool{Pool: pool}, nil
}
