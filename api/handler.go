package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sales_tracker/internal/sales"
)

// salesHandler holds the sales service and implements HTTP handlers for sales operations.
type salesHandler struct {
	salesService *sales.Service
	logger       *zap.Logger
	location     *time.Location
}

// NewSalesHandler creates a new sales handler. Calendar-day filter bounds are read in loc.
func NewSalesHandler(salesService *sales.Service, logger *zap.Logger, loc *time.Location) *salesHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &salesHandler{
		salesService: salesService,
		logger:       logger,
		location:     loc,
	}
}

// handleCreateSale handles the POST /sales endpoint. It accepts JSON or form bodies.
func (h *salesHandler) handleCreateSale(ctx *gin.Context) {
	var raw sales.RawSale
	if err := ctx.ShouldBind(&raw); err != nil {
		h.logger.Warn("failed to bind sale request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	candidate, err := sales.ValidateRaw(raw)
	if err != nil {
		h.respondCreateError(ctx, err)
		return
	}

	sale, err := h.salesService.CreateSale(ctx.Request.Context(), candidate)
	if err != nil {
		h.respondCreateError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, sale)
}

func (h *salesHandler) respondCreateError(ctx *gin.Context, err error) {
	var verrs sales.ValidationErrors
	if errors.As(err, &verrs) {
		h.logger.Info("sale rejected by validation", zap.Int("violations", len(verrs)), zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"errors": verrs})
		return
	}
	h.logger.Error("failed to create sale", zap.Error(err))
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save sale"})
}

// handleListSales handles GET /sales.
func (h *salesHandler) handleListSales(ctx *gin.Context) {
	all, err := h.salesService.ListSales(ctx.Request.Context())
	if err != nil {
		h.logger.Error("error listing sales", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sales"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": all})
}

// handleDashboard handles GET /sales/dashboard.
func (h *salesHandler) handleDashboard(ctx *gin.Context) {
	criteria, verrs := h.parseCriteria(ctx)
	if len(verrs) > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"errors": verrs})
		return
	}

	dash, err := h.salesService.Dashboard(ctx.Request.Context(), criteria)
	if err != nil {
		h.logger.Error("error computing dashboard",
			zap.String("product_filter", criteria.Product),
			zap.String("customer_filter", criteria.Customer),
			zap.Error(err),
		)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sales"})
		return
	}

	ctx.JSON(http.StatusOK, dash)
}

func (h *salesHandler) parseCriteria(ctx *gin.Context) (sales.Criteria, sales.ValidationErrors) {
	criteria := sales.Criteria{
		Product:  ctx.Query("product"),
		Customer: ctx.Query("customer"),
	}

	var verrs sales.ValidationErrors
	for _, bound := range []struct {
		param string
		dst   **time.Time
	}{
		{"from", &criteria.From},
		{"to", &criteria.To},
	} {
		v := ctx.Query(bound.param)
		if v == "" {
			continue
		}
		t, err := sales.ParseDate(v, h.location)
		if err != nil {
			verrs = append(verrs, sales.ValidationError{Field: bound.param, Message: "must be YYYY-MM-DD or an RFC 3339 timestamp"})
			continue
		}
		*bound.dst = &t
	}
	return criteria, verrs
}
