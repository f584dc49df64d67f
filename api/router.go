package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sales_tracker/internal/logging"
	"sales_tracker/internal/sales"
)

// NewRouter builds a gin engine with logging and recovery middleware and all sales routes.
func NewRouter(salesService *sales.Service, logger *zap.Logger, loc *time.Location) *gin.Engine {
	e := gin.New()
	e.Use(logging.Middleware(logger), logging.Recovery(logger))
	InitRoutes(e, salesService, logger, loc)
	return e
}

// InitRoutes registers the sales endpoints on the given Gin engine.
func InitRoutes(e *gin.Engine, salesService *sales.Service, logger *zap.Logger, loc *time.Location) {
	salesHandler := NewSalesHandler(salesService, logger, loc)

	e.POST("/sales", salesHandler.handleCreateSale)
	e.GET("/sales", salesHandler.handleListSales)
	e.GET("/sales/dashboard", salesHandler.handleDashboard)

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}
