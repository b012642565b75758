// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/domain/cart"
	"github.com/your-org/procurement-backend/internal/domain/contract"
	"github.com/your-org/procurement-backend/internal/domain/order"
	"github.com/your-org/procurement-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
	config       *config.Config
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(db *gorm.DB, cfg *config.Config) *OrderHandler {
	ledger := contract.NewLedger(db, cfg)
	cartService := cart.NewService(db, ledger, cfg)
	return &OrderHandler{
		orderService: order.NewService(db, ledger, cartService, cfg),
		config:       cfg,
	}
}

// Confirm handles POST /orders/confirm
func (h *OrderHandler) Confirm(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	// The body is optional; a bare POST confirms the whole cart
	var req order.ConfirmRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request data",
				"details": err.Error(),
			})
			return
		}
	}

	response, err := h.orderService.ConfirmOrders(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	// Every group failed: surface the failures with a conflict status
	status := http.StatusCreated
	if len(response.Orders) == 0 {
		status = http.StatusConflict
	} else if len(response.Failures) > 0 {
		// Partial success
		status = http.StatusMultiStatus
	}

	c.JSON(status, gin.H{
		"message": "Order confirmation processed",
		"data":    response,
	})
}

// GetOrders handles GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	response, err := h.orderService.GetOrders(userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// GetOrder handles GET /orders/:id. The path segment is either a numeric
// id or a PED order number.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	if numero := c.Param("id"); strings.HasPrefix(numero, "PED-") {
		response, err := h.orderService.GetOrderByNumber(userID, numero)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Order retrieved successfully",
			"data":    response,
		})
		return
	}

	orderID, ok := h.parseOrderID(c)
	if !ok {
		return
	}

	response, err := h.orderService.GetOrder(userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    response,
	})
}

// MarkReceived handles PUT /orders/:id/receive
func (h *OrderHandler) MarkReceived(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	orderID, ok := h.parseOrderID(c)
	if !ok {
		return
	}

	response, err := h.orderService.MarkReceived(userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order marked as received",
		"data":    response,
	})
}

// Cancel handles PUT /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	orderID, ok := h.parseOrderID(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional
	_ = c.ShouldBindJSON(&req)

	response, err := h.orderService.Cancel(userID, orderID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"data":    response,
	})
}

func (h *OrderHandler) parseOrderID(c *gin.Context) (uint, bool) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order ID",
		})
		return 0, false
	}
	return uint(orderID), true
}
