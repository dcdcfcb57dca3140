package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/storefront/internal/service"
)

type ShippingAddressRequest struct {
	City   string `json:"city" validate:"required"`
	Town   string `json:"town" validate:"required"`
	Street string `json:"street" validate:"required"`
}

type OrderLineRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	SizeID    int64  `json:"size_id" validate:"required,gt=0"`
	Color     string `json:"color" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// PlaceOrderRequest - тело POST /api/orders. Сумма заказа с клиента не принимается.
type PlaceOrderRequest struct {
	ShippingAddress ShippingAddressRequest `json:"shipping_address"`
	Products        []OrderLineRequest     `json:"products" validate:"required,min=1,dive"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// PlaceOrderHandler оформляет заказ текущего пользователя
func PlaceOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PlaceOrderHandler"
		logger := log.With(slog.String("op", op))

		who, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			writeError(logger, w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}

		var req PlaceOrderRequest
		if err := decodeBody(r, &req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(logger, w, http.StatusBadRequest, "invalid request", err)
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Warn("invalid request: validation error", slog.Any("error", err))
			writeError(logger, w, http.StatusUnprocessableEntity, "validation error", err)
			return
		}

		lines := make([]models.Line, 0, len(req.Products))
		for _, p := range req.Products {
			lines = append(lines, models.Line{
				ProductID: p.ProductID,
				SizeID:    p.SizeID,
				Color:     p.Color,
				Quantity:  p.Quantity,
			})
		}
		addr := models.ShippingAddress{
			City:   req.ShippingAddress.City,
			Town:   req.ShippingAddress.Town,
			Street: req.ShippingAddress.Street,
		}

		order, err := orderService.PlaceOrder(r.Context(), who.UserID, addr, lines)
		if err != nil {
			logger.Error("failed to place order", slog.Any("error", err))
			msg := "failed to place order"
			if errors.Is(err, service.ErrInsufficientStock) {
				msg = service.ErrInsufficientStock.Error()
			}
			writeError(logger, w, statusFor(err), msg, err)
			return
		}

		writeJSON(logger, w, http.StatusCreated, order)
	}
}

// MyOrdersHandler - заказы текущего пользователя с позициями
func MyOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MyOrdersHandler"
		logger := log.With(slog.String("op", op))

		who, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			writeError(logger, w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}

		orders, err := orderService.GetMyOrders(r.Context(), who.UserID)
		if err != nil {
			status := statusFor(err)
			if status == http.StatusNotFound {
				writeError(logger, w, status, "no orders found for the user", nil)
				return
			}
			logger.Error("failed to get orders", slog.Any("error", err))
			writeError(logger, w, status, "failed to get orders", err)
			return
		}

		writeJSON(logger, w, http.StatusOK, orders)
	}
}

// AllOrdersHandler - все заказы, только для администратора
func AllOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AllOrdersHandler"
		logger := log.With(slog.String("op", op))

		orders, err := orderService.GetAllOrders(r.Context())
		if err != nil {
			logger.Error("failed to get orders", slog.Any("error", err))
			writeError(logger, w, statusFor(err), "failed to get orders", err)
			return
		}

		writeJSON(logger, w, http.StatusOK, orders)
	}
}

// UpdateStatusHandler - PUT /api/orders/{id}/status, только для администратора
func UpdateStatusHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateStatusHandler"
		logger := log.With(slog.String("op", op))

		orderID, ok := idParam(r, "id")
		if !ok {
			writeError(logger, w, http.StatusBadRequest, "invalid order id", nil)
			return
		}

		var req UpdateStatusRequest
		if err := decodeBody(r, &req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeError(logger, w, http.StatusBadRequest, "invalid request", err)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(logger, w, http.StatusUnprocessableEntity, "validation error", err)
			return
		}

		order, err := orderService.UpdateStatus(r.Context(), orderID, req.Status)
		if err != nil {
			status := statusFor(err)
			switch status {
			case http.StatusUnprocessableEntity:
				writeError(logger, w, status, "invalid status value", err)
			case http.StatusNotFound:
				writeError(logger, w, status, "order not found", nil)
			default:
				logger.Error("failed to update status", slog.Any("error", err))
				writeError(logger, w, status, "failed to update order status", err)
			}
			return
		}

		writeJSON(logger, w, http.StatusOK, order)
	}
}

// CancelOrderHandler - PATCH /api/orders/{id}/cancel
func CancelOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CancelOrderHandler"
		logger := log.With(slog.String("op", op))

		who, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			writeError(logger, w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}

		orderID, ok := idParam(r, "id")
		if !ok {
			writeError(logger, w, http.StatusBadRequest, "invalid order id", nil)
			return
		}

		if err := orderService.CancelOrder(r.Context(), orderID, who); err != nil {
			status := statusFor(err)
			switch status {
			case http.StatusNotFound:
				writeError(logger, w, status, "order not found", nil)
			case http.StatusForbidden:
				writeError(logger, w, status, "cannot cancel a shipped order", nil)
			default:
				logger.Error("failed to cancel order", slog.Any("error", err))
				writeError(logger, w, status, "failed to cancel order", err)
			}
			return
		}

		writeJSON(logger, w, http.StatusOK, MessageResponse{Message: "order canceled successfully"})
	}
}
