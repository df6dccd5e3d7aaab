package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/domain"
	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/core/service"
	"github.com/AndrewMichael2020/LogiTrack-OMS/internal/port"
)

const idempotencyHeader = "Idempotency-Key"

type HTTPHandler struct {
	inventory *service.InventoryService
	orders    *service.OrderService
	auth      port.Authenticator
	health    HealthChecker
	logger    *zap.Logger
}

type ErrorResponse struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func NewHTTPHandler(
	inventory *service.InventoryService,
	orders *service.OrderService,
	auth port.Authenticator,
	health HealthChecker,
	logger *zap.Logger,
) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{
		inventory: inventory,
		orders:    orders,
		auth:      auth,
		health:    health,
		logger:    logger,
	}
}

func (h *HTTPHandler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(h.logger))

	r.GET("/health", h.HealthCheck)

	api := r.Group("/api", h.authenticate())

	inventory := api.Group("/inventory")
	inventory.GET("", h.ListInventory)
	inventory.GET("/:id", h.GetInventoryItem)
	inventory.POST("", h.CreateInventoryItem)
	inventory.PUT("/:id", h.UpdateInventoryItem)
	inventory.DELETE("/:id", h.requireRole(domain.RoleManager), h.DeleteInventoryItem)

	orders := api.Group("/orders")
	orders.GET("", h.ListOrders)
	orders.GET("/:id", h.GetOrder)
	orders.GET("/:id/summary", h.GetOrderSummary)
	orders.POST("", h.CreateOrder)
	orders.POST("/:id/items/:itemId", h.AddOrderItem)
	orders.DELETE("/:id/items/:itemId", h.RemoveOrderItem)
	orders.DELETE("/:id", h.requireRole(domain.RoleManager), h.DeleteOrder)

	return r
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.health.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"inventoryCache": h.inventory.CacheStats(),
	})
}

func (h *HTTPHandler) ListInventory(c *gin.Context) {
	items, err := h.inventory.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *HTTPHandler) GetInventoryItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.inventory.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *HTTPHandler) CreateInventoryItem(c *gin.Context) {
	var req domain.InventoryItem
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Detail: err.Error()})
		return
	}

	created, err := h.inventory.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Location", "/api/inventory/"+strconv.FormatInt(created.ID, 10))
	c.JSON(http.StatusCreated, created)
}

func (h *HTTPHandler) UpdateInventoryItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req domain.InventoryItem
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Detail: err.Error()})
		return
	}

	updated, err := h.inventory.Update(c.Request.Context(), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *HTTPHandler) DeleteInventoryItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.inventory.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *HTTPHandler) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *HTTPHandler) GetOrderSummary(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	summary, err := h.orders.Summary(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *HTTPHandler) CreateOrder(c *gin.Context) {
	// An empty body or a literal null both mean "no payload".
	var req *domain.Order
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Detail: err.Error()})
		return
	}

	created, err := h.orders.Create(c.Request.Context(), req, c.GetHeader(idempotencyHeader))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Location", "/api/orders/"+strconv.FormatInt(created.ID, 10))
	c.JSON(http.StatusCreated, created)
}

func (h *HTTPHandler) AddOrderItem(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	order, err := h.orders.AddItem(c.Request.Context(), orderID, itemID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *HTTPHandler) RemoveOrderItem(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}
	order, err := h.orders.RemoveItem(c.Request.Context(), orderID, itemID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *HTTPHandler) DeleteOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.orders.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	// Ids that match nothing, zero and negatives included, are the service's
	// not-found case.
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid " + name})
		return 0, false
	}
	return id, true
}

func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		storageErr *service.StorageError
	)

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		c.Header("WWW-Authenticate", `Bearer realm="logitrack"`)
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required."})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "You do not have permission to perform this action."})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: validation.Message})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: notFound.Message})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "not found"})
	case errors.Is(err, domain.ErrDuplicateRequest):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "duplicate request"})
	case errors.Is(err, domain.ErrConflict):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Message: "The item was modified concurrently. Retry the request."})
	case errors.As(err, &storageErr):
		h.logger.Warn("order storage error", zap.String("request_id", c.GetString(requestIDKey)), zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "A database error occurred.", Detail: storageErr.Err.Error()})
	default:
		h.logger.Error("request failed", zap.String("request_id", c.GetString(requestIDKey)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
	}
}
