package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"order-saga/internal/domain"
	"order-saga/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, customerID uint64) (string, error)
	TrackOrder(ctx context.Context, orderID uint64) (*domain.OrderView, error)
	CancelOrder(ctx context.Context, orderID uint64) (string, error)
}

type Handler struct {
	service OrderService
	log     *zap.Logger
}

func NewHandler(s OrderService, log *zap.Logger) *Handler {
	return &Handler{service: s, log: log}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	orders := r.Group("/orders", Principal())
	orders.POST("", h.PlaceOrder)
	orders.GET("/:id", h.TrackOrder)
	orders.POST("/:id/cancel", h.CancelOrder)
}

// PlaceOrder places an order for the authenticated customer's cart.
func (h *Handler) PlaceOrder(c *gin.Context) {
	customerID, _ := services.PrincipalFrom(c.Request.Context())

	msg, err := h.service.PlaceOrder(c.Request.Context(), customerID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: msg})
}

func (h *Handler) TrackOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	view, err := h.service.TrackOrder(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) CancelOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	msg, err := h.service.CancelOrder(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: msg})
}

func orderID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid order id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrEmptyCart):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, services.ErrCollaboratorUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, ErrorResponse{Error: "internal error"})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}
