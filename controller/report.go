package controller

import (
	"context"
	"log/slog"
	"net/http"
	"stock-dashboard-backend/response"
	"stock-dashboard-backend/service/report"

	"github.com/gin-gonic/gin"
)

var reportService *report.Service

// SetReportService 启动时注入报表服务
func SetReportService(svc *report.Service) {
	reportService = svc
}

func GetKPIs(c *gin.Context) {
	serveStockReport(c, reportService.KPIs)
}

func GetStockByBranch(c *gin.Context) {
	serveStockReport(c, reportService.ByBranch)
}

func GetStockByTier(c *gin.Context) {
	serveStockReport(c, reportService.ByTier)
}

func GetStockByGender(c *gin.Context) {
	serveStockReport(c, reportService.ByGender)
}

func GetStockBySeries(c *gin.Context) {
	serveStockReport(c, reportService.BySeries)
}

func GetDeadStock(c *gin.Context) {
	serveCacheReport(c, reportService.DeadStock)
}

func GetFilterOptions(c *gin.Context) {
	c.Header("Cache-Control", "public, s-maxage=300, stale-while-revalidate=600")
	serveCacheReport(c, reportService.FilterOptions)
}

func serveStockReport[T any](c *gin.Context, query func(ctx context.Context, f report.Filters) (T, error)) {
	var f report.Filters
	if err := c.ShouldBindQuery(&f); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}
	data, err := query(c.Request.Context(), f)
	respondReport(c, data, err)
}

func serveCacheReport[T any](c *gin.Context, query func(ctx context.Context, f report.CacheFilters) (T, error)) {
	var f report.CacheFilters
	if err := c.ShouldBindQuery(&f); err != nil {
		slog.Error(ErrParseRequest.Error(), "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Response{
			Msg: ErrParseRequest.Error(),
		})
		return
	}
	data, err := query(c.Request.Context(), f)
	respondReport(c, data, err)
}

func respondReport(c *gin.Context, data any, err error) {
	if err != nil {
		slog.Error("report query error", "path", c.FullPath(), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
			Msg: ErrReportQuery.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, response.Response{Data: data})
}
