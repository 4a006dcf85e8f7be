package handlers

import (
	"context"
	"encoding/json"
	"github.com/Bessima/bookbind-pay/internal/handlers/schemas"
	"github.com/Bessima/bookbind-pay/internal/models"
	"net/http"
)

type PaymentServiceI interface {
	CreateGatewayOrder(ctx context.Context, user *models.User, orderID, milestoneID string) (*schemas.PaymentOrderResponse, error)
	Verify(ctx context.Context, user *models.User, request schemas.VerifyPaymentRequest) (*schemas.VerifyPaymentResponse, error)
}

type PaymentsHandler struct {
	PaymentService PaymentServiceI
}

func NewPaymentsHandler(paymentService PaymentServiceI) *PaymentsHandler {
	return &PaymentsHandler{PaymentService: paymentService}
}

func (h *PaymentsHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var body schemas.CreatePaymentOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.OrderID == "" {
		WriteDetail(w, http.StatusBadRequest, "can't parse body")
		return
	}

	user := GetUserFromContext(r.Context())
	if user == nil {
		WriteDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	response, err := h.PaymentService.CreateGatewayOrder(r.Context(), user, body.OrderID, body.MilestoneID)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, response)
}

func (h *PaymentsHandler) Verify(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var body schemas.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !body.Complete() {
		WriteDetail(w, http.StatusBadRequest, "can't parse body")
		return
	}

	user := GetUserFromContext(r.Context())
	if user == nil {
		WriteDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	response, err := h.PaymentService.Verify(r.Context(), user, body)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, response)
}
