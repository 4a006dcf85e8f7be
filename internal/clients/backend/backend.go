package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/Bessima/bookbind-pay/internal/customerror"
	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"github.com/Bessima/bookbind-pay/internal/models"
	"github.com/Bessima/bookbind-pay/internal/retry"
	"go.uber.org/zap"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Session supplies the bearer token and is cleared on any 401.
type Session interface {
	Token() (string, error)
	Clear()
}

type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend answered with status code %d", e.StatusCode)
	}
	return fmt.Sprintf("backend answered with status code %d: %s", e.StatusCode, e.Detail)
}

func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type CreateOrderRequest struct {
	OrderID     string `json:"order_id"`
	MilestoneID string `json:"milestone_id,omitempty"`
}

type GatewayOrder struct {
	GatewayOrderID string        `json:"gateway_order_id"`
	Amount         models.Amount `json:"amount"`
	Currency       string        `json:"currency"`
	GatewayKeyID   string        `json:"gateway_key_id"`
	OrderID        string        `json:"order_id"`
	MilestoneID    string        `json:"milestone_id"`
}

type VerifyRequest struct {
	OrderID          string `json:"order_id"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	GatewaySignature string `json:"gateway_signature"`
}

type VerifyResponse struct {
	Status      string             `json:"status"`
	OrderID     string             `json:"order_id"`
	MilestoneID string             `json:"milestone_id"`
	AmountPaid  models.Amount      `json:"amount_paid"`
	OrderStatus models.OrderStatus `json:"order_status"`
}

const VerifiedStatus = "success"

type BackendClientI interface {
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	CreateOrder(ctx context.Context, orderID, milestoneID string) (*GatewayOrder, error)
	Verify(ctx context.Context, request VerifyRequest) (*VerifyResponse, error)
}

// readRetryConfig retries idempotent reads on transport failures only.
var readRetryConfig = retry.Config{
	Attempts:  3,
	Delays:    []time.Duration{300 * time.Millisecond, time.Second},
	Retryable: isTransportError,
}

type Client struct {
	httpClient *http.Client
	address    string
	session    Session
}

func NewClient(address string, session Session) *Client {
	return &Client{
		httpClient: &http.Client{},
		address:    strings.TrimRight(address, "/"),
		session:    session,
	}
}

func (client *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var answer LoginResponse
	body := map[string]string{"username": username, "password": password}
	if err := client.do(ctx, http.MethodPost, "/auth/login", body, &answer, false); err != nil {
		return nil, err
	}
	return &answer, nil
}

func (client *Client) Logout(ctx context.Context) error {
	return client.do(ctx, http.MethodPost, "/auth/logout", nil, nil, true)
}

func (client *Client) Me(ctx context.Context) (*models.User, error) {
	return retry.DoRetryWithResult(ctx, func() (*models.User, error) {
		var user models.User
		if err := client.do(ctx, http.MethodGet, "/users/me", nil, &user, true); err != nil {
			return nil, err
		}
		return &user, nil
	}, readRetryConfig)
}

func (client *Client) ListOrders(ctx context.Context) ([]models.Order, error) {
	return retry.DoRetryWithResult(ctx, func() ([]models.Order, error) {
		var orders []models.Order
		if err := client.do(ctx, http.MethodGet, "/orders/my", nil, &orders, true); err != nil {
			return nil, err
		}
		return orders, nil
	}, readRetryConfig)
}

func (client *Client) CreateOrder(ctx context.Context, orderID, milestoneID string) (*GatewayOrder, error) {
	var answer GatewayOrder
	body := CreateOrderRequest{OrderID: orderID, MilestoneID: milestoneID}
	if err := client.do(ctx, http.MethodPost, "/payments/create-order", body, &answer, true); err != nil {
		return nil, err
	}
	return &answer, nil
}

func (client *Client) Verify(ctx context.Context, request VerifyRequest) (*VerifyResponse, error) {
	var answer VerifyResponse
	if err := client.do(ctx, http.MethodPost, "/payments/verify", request, &answer, true); err != nil {
		return nil, err
	}
	return &answer, nil
}

func (client *Client) do(ctx context.Context, method, path string, body any, out any, authenticated bool) error {
	url := client.address + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request for %s: %w", url, err)
		}
		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/json")

	if authenticated {
		token, err := client.session.Token()
		if err != nil {
			return err
		}
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return customerror.NewSettlementError(customerror.NetworkError, fmt.Errorf("%s %s: %w", method, url, err))
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logger.Log.Warn("error closing response body", zap.Error(err))
		}
	}()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return customerror.NewSettlementError(customerror.NetworkError, fmt.Errorf("reading %s: %w", url, err))
	}

	if response.StatusCode == http.StatusUnauthorized && authenticated {
		logger.Log.Info("backend rejected the session", zap.String("path", path))
		client.session.Clear()
		return fmt.Errorf("%w: %s", customerror.ErrUnauthenticated, decodeAPIError(response.StatusCode, data))
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return decodeAPIError(response.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		logger.Log.Error("Error unmarshalling JSON", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to decode answer of %s: %w", url, err)
	}
	return nil
}

func decodeAPIError(statusCode int, data []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		apiErr.Detail = payload.Detail
	}
	return apiErr
}

func isTransportError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return customerror.KindOf(err) == customerror.NetworkError && errors.As(err, &netErr)
}
