package handlers

import (
	"errors"
	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"github.com/Bessima/bookbind-pay/internal/repository"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"net/http"
)

type OrdersHandler struct {
	OrderStorage repository.OrderStorageRepositoryI
}

func NewOrderHandler(storage repository.OrderStorageRepositoryI) *OrdersHandler {
	return &OrdersHandler{OrderStorage: storage}
}

func (h *OrdersHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		WriteDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	orders, err := h.OrderStorage.GetListByUserID(r.Context(), user.ID)
	if err != nil {
		logger.Log.Error("orders were not found", zap.String("user_id", user.ID), zap.Error(err))
		WriteDetail(w, http.StatusInternalServerError, "Error getting orders")
		return
	}

	WriteJSON(w, http.StatusOK, orders)
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		WriteDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	order, err := h.OrderStorage.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, repository.ErrNotFound) {
		WriteDetail(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		logger.Log.Error("order was not loaded", zap.Error(err))
		WriteDetail(w, http.StatusInternalServerError, "Error getting order")
		return
	}
	if order.UserID != user.ID {
		WriteDetail(w, http.StatusForbidden, "Not your order")
		return
	}

	WriteJSON(w, http.StatusOK, order)
}
