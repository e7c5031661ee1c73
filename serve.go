package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"stock-dashboard-backend/config"
	"stock-dashboard-backend/controller"
	"stock-dashboard-backend/dao"
	"stock-dashboard-backend/router"
	"stock-dashboard-backend/service/audit"
	"stock-dashboard-backend/service/chat"
	"stock-dashboard-backend/service/mcpserver"
	"stock-dashboard-backend/service/report"
	"stock-dashboard-backend/service/sandbox"
	"stock-dashboard-backend/utils"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		utils.SetupLogger(cfg.Log.Level, cfg.Log.Format)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	pool, err := sandbox.OpenPool(ctx, cfg.Warehouse.DSN, cfg.Warehouse.MaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	db, err := dao.Open(ctx, cfg.SessionStore.Driver, cfg.SessionStore.DSN)
	if err != nil {
		return err
	}
	defer dao.Close()

	var record chat.RecordFunc
	var recorder *audit.Recorder
	if cfg.Audit.Enabled {
		recorder = audit.NewRecorder(db, cfg.Audit)
		recorder.Run()
		record = recorder.RecordExecution
	}

	sb := sandbox.New(pool,
		sandbox.WithRowCap(cfg.Warehouse.RowCap),
		sandbox.WithStatementTimeout(cfg.Warehouse.StatementTimeout),
	)
	tool := chat.NewQueryTool(sb, record)

	httpClient := utils.NewHTTPClient(utils.WithTimeout(cfg.Model.RequestTimeout))
	providers, err := chat.NewOpenAICompatibleProviders(cfg.Model, httpClient)
	if err != nil {
		return err
	}
	orchestrator := chat.NewOrchestrator(providers, tool, chat.WithMaxSteps(cfg.Model.MaxSteps))

	controller.SetAssistant(orchestrator)
	controller.SetReportService(report.NewService(pool))

	opts := router.Options{
		AllowOrigins: cfg.Server.AllowOrigins,
		Warehouse:    pool,
	}
	if cfg.Server.EnableMCP {
		opts.MCP = mcpserver.NewHTTPHandler(tool)
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router.Register(opts),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server started", "port", cfg.Server.Port, "models", len(providers))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Failed to shutdown server gracefully", "err", err)
	}
	if recorder != nil {
		if err := recorder.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to flush audit entries", "err", err)
		}
	}
	return nil
}
