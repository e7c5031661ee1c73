package controller

import (
	"context"
	"log/slog"
	"net/http"
	"stock-dashboard-backend/response"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 3 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthz warehouse 不可达时返回 503
func Healthz(warehouse Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if warehouse != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
			defer cancel()
			if err := warehouse.Ping(ctx); err != nil {
				slog.Warn(ErrWarehouseUnhealthy.Error(), "err", err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, response.Response{
					Msg: ErrWarehouseUnhealthy.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, response.Response{Msg: "ok"})
	}
}
