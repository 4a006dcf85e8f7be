package checkout

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type openResult struct {
	outcome Outcome
	err     error
}

func openInBackground(t *testing.T, hosted *Hosted, ctx context.Context, urls chan string) chan openResult {
	t.Helper()
	results := make(chan openResult, 1)
	go func() {
		outcome, err := hosted.Open(ctx, Params{
			Key:            "rzp_test_key",
			Amount:         200000,
			Currency:       "INR",
			GatewayOrderID: "order_gw1",
			OrderID:        "o1",
			MilestoneID:    "m2",
			Description:    "Milestone 2",
		})
		results <- openResult{outcome: outcome, err: err}
	}()
	return results
}

func sessionPath(t *testing.T, urls chan string) string {
	t.Helper()
	select {
	case raw := <-urls:
		parsed, err := url.Parse(raw)
		require.NoError(t, err)
		return parsed.Path
	case <-time.After(2 * time.Second):
		t.Fatal("checkout was not opened")
		return ""
	}
}

func newTestHosted(urls chan string) *Hosted {
	cache := &AssetCache{}
	cache.Store([]byte("window.Razorpay = function () {};"))
	return NewHosted("127.0.0.1:8765", cache, func(url string) error {
		urls <- url
		return nil
	})
}

func post(hosted *Hosted, path, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	hosted.Handler().ServeHTTP(recorder, request)
	return recorder
}

func TestHosted_ReceiptResolvesOpen(t *testing.T) {
	urls := make(chan string, 1)
	hosted := newTestHosted(urls)
	results := openInBackground(t, hosted, context.Background(), urls)
	path := sessionPath(t, urls)

	page := httptest.NewRecorder()
	hosted.Handler().ServeHTTP(page, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), `"order_gw1"`)
	assert.Contains(t, page.Body.String(), "2000.00 INR")

	recorder := post(hosted, path+"/success",
		`{"razorpay_payment_id":"pay_1","razorpay_order_id":"order_gw1","razorpay_signature":"sig"}`)
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	result := <-results
	require.NoError(t, result.err)
	assert.Equal(t, Paid, result.outcome.Kind)
	require.NotNil(t, result.outcome.Receipt)
	assert.Equal(t, "pay_1", result.outcome.Receipt.PaymentID)
	assert.Equal(t, "sig", result.outcome.Receipt.Signature)

	// сессия удалена после завершения
	recorder = post(hosted, path+"/dismiss", "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestHosted_DismissAndDecline(t *testing.T) {
	testCases := []struct {
		name     string
		endpoint string
		body     string
		kind     OutcomeKind
	}{
		{name: "dismissed", endpoint: "/dismiss", body: "{}", kind: Dismissed},
		{name: "declined", endpoint: "/failed", body: `{"error":{"code":"BAD_REQUEST_ERROR","description":"Card declined","reason":"payment_failed"}}`, kind: Declined},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			urls := make(chan string, 1)
			hosted := newTestHosted(urls)
			results := openInBackground(t, hosted, context.Background(), urls)
			path := sessionPath(t, urls)

			recorder := post(hosted, path+tc.endpoint, tc.body)
			assert.Equal(t, http.StatusNoContent, recorder.Code)

			result := <-results
			require.NoError(t, result.err)
			assert.Equal(t, tc.kind, result.outcome.Kind)
			if tc.kind == Declined {
				require.NotNil(t, result.outcome.Decline)
				assert.Equal(t, "Card declined", result.outcome.Decline.Description)
			}
		})
	}
}

func TestHosted_IncompleteReceiptRejected(t *testing.T) {
	urls := make(chan string, 1)
	hosted := newTestHosted(urls)
	ctx, cancel := context.WithCancel(context.Background())
	results := openInBackground(t, hosted, ctx, urls)
	path := sessionPath(t, urls)

	recorder := post(hosted, path+"/success", `{"razorpay_payment_id":"pay_1"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	cancel()
	result := <-results
	assert.ErrorIs(t, result.err, context.Canceled)
}

func TestHosted_OpenerFailure(t *testing.T) {
	hosted := NewHosted("127.0.0.1:8765", &AssetCache{}, func(string) error {
		return errors.New("no browser")
	})

	_, err := hosted.Open(context.Background(), Params{GatewayOrderID: "order_gw1"})

	assert.Error(t, err)
}

func TestHosted_Script(t *testing.T) {
	hosted := NewHosted("127.0.0.1:8765", &AssetCache{}, func(string) error { return nil })

	recorder := httptest.NewRecorder()
	hosted.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/assets/checkout.js", nil))
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	hosted.assets.Store([]byte("window.Razorpay = 1;"))
	recorder = httptest.NewRecorder()
	hosted.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/assets/checkout.js", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "window.Razorpay = 1;", recorder.Body.String())
}
