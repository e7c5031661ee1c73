package router

import (
	"net/http"
	"stock-dashboard-backend/controller"
	"stock-dashboard-backend/middleware"
	"stock-dashboard-backend/service/mcpserver"

	"github.com/gin-gonic/gin"
)

type Options struct {
	AllowOrigins []string
	Warehouse    controller.Pinger

	// 为 nil 时不挂载 MCP
	MCP http.Handler
}

func Register(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(opts.AllowOrigins))

	r.GET("/healthz", controller.Healthz(opts.Warehouse))

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		assistant := api.Group("/assistant")
		{
			assistant.GET("/sessions", controller.GetSessions)
			assistant.GET("/sessions/:id", controller.GetSession)
			assistant.POST("/sessions", controller.UpsertSession)
			assistant.PATCH("/sessions", controller.RenameSession)
			assistant.DELETE("/sessions", controller.DeleteSession)
			assistant.POST("/chat", controller.AssistantChat)
		}

		reports := api.Group("/report")
		{
			reports.GET("/kpis", controller.GetKPIs)
			reports.GET("/by-branch", controller.GetStockByBranch)
			reports.GET("/by-tier", controller.GetStockByTier)
			reports.GET("/by-gender", controller.GetStockByGender)
			reports.GET("/by-series", controller.GetStockBySeries)
			reports.GET("/dead-stock", controller.GetDeadStock)
			reports.GET("/filter-options", controller.GetFilterOptions)
		}
	}

	if opts.MCP != nil {
		mcp := r.Group(mcpserver.EndpointPath)
		mcp.Use(middleware.AuthMiddleware())
		mcp.Any("", gin.WrapH(opts.MCP))
	}

	return r
}
