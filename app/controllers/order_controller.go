package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/courier-gateway/app/adapters"
	"github.com/courier-gateway/app/responses"
	"github.com/courier-gateway/app/services"
)

// OrderController handles webhook intake and the confirmation flow.
type OrderController struct {
	orderService    *services.OrderService
	shipmentService *services.ShipmentService
	logger          *zap.Logger
}

func NewOrderController(orderService *services.OrderService, shipmentService *services.ShipmentService, logger *zap.Logger) *OrderController {
	return &OrderController{
		orderService:    orderService,
		shipmentService: shipmentService,
		logger:          logger,
	}
}

// CreateOrder receives a storefront webhook. The payload shape varies by
// platform, so it binds into a raw map and goes through the adapters.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	brand, err := oc.orderService.BrandByWebhookID(c.Request.Context(), c.Param("webhookID"))
	if err != nil {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:   "BRAND_NOT_FOUND",
			Message: "no brand registered for this webhook",
		})
		return
	}

	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid payload: " + err.Error(),
		})
		return
	}

	order, err := oc.orderService.CreateOrder(c.Request.Context(), brand, adapters.Adapt(payload))
	if err != nil {
		var rej *services.RejectionError
		switch {
		case errors.As(err, &rej):
			c.JSON(http.StatusBadRequest, responses.ErrorResponse{
				Error:   rej.Code,
				Message: rej.Message,
			})
		case errors.Is(err, services.ErrDuplicateOrder):
			c.JSON(http.StatusConflict, responses.ErrorResponse{
				Error:   "DUPLICATE_ORDER",
				Message: err.Error(),
			})
		default:
			oc.logger.Error("order intake failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
				Error:   "INTAKE_ERROR",
				Message: "could not create order",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, responses.OrderResponse{Order: order})
}

func (oc *OrderController) GetOrder(c *gin.Context) {
	order, err := oc.orderService.GetOrder(c.Request.Context(), c.Param("orderID"))
	if err != nil {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:   "ORDER_NOT_FOUND",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, responses.OrderResponse{Order: order})
}

// ConfirmOrder flips the order to confirmed and dispatches the courier
// shipment. Dispatch failure does not roll the confirmation back; the
// tracking number stays empty and the shipment can be retried from the
// courier's side.
func (oc *OrderController) ConfirmOrder(c *gin.Context) {
	ctx := c.Request.Context()

	order, err := oc.orderService.ConfirmOrder(ctx, c.Param("orderID"))
	if err != nil {
		oc.respondTransitionError(c, err)
		return
	}

	brand, err := oc.orderService.BrandByID(ctx, order.BrandID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "BRAND_NOT_FOUND",
			Message: err.Error(),
		})
		return
	}

	tracking, err := oc.shipmentService.Dispatch(ctx, brand, order)
	if err != nil {
		oc.logger.Error("shipment dispatch failed",
			zap.String("order", order.ID.Hex()),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, responses.ErrorResponse{
			Error:   "DISPATCH_FAILED",
			Message: err.Error(),
		})
		return
	}

	if err := oc.orderService.SetTrackingNumber(ctx, order.ID, tracking); err != nil {
		oc.logger.Error("failed to store tracking number",
			zap.String("order", order.ID.Hex()),
			zap.Error(err))
	}
	order.TrackingNumber = tracking

	c.JSON(http.StatusOK, responses.ConfirmOrderResponse{
		Order:          order,
		TrackingNumber: tracking,
	})
}

func (oc *OrderController) CancelOrder(c *gin.Context) {
	order, err := oc.orderService.CancelOrder(c.Request.Context(), c.Param("orderID"))
	if err != nil {
		oc.respondTransitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.OrderResponse{Order: order})
}

func (oc *OrderController) respondTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:   "ORDER_NOT_FOUND",
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, responses.ErrorResponse{
			Error:   "ALREADY_RESPONDED",
			Message: err.Error(),
		})
	default:
		oc.logger.Error("order transition failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "INTERNAL_ERROR",
			Message: "could not update order",
		})
	}
}

func (oc *OrderController) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, responses.HealthResponse{
		Status:  "ok",
		Service: "courier-gateway",
	})
}
