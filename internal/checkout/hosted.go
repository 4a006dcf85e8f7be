package checkout

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync"

	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

var ErrSessionResolved = errors.New("checkout session already resolved")

// Opener presents the checkout page URL to the user, e.g. by launching a browser.
type Opener func(url string) error

type pendingCheckout struct {
	params Params
	result chan Outcome
	once   sync.Once
}

func (p *pendingCheckout) resolve(outcome Outcome) bool {
	resolved := false
	p.once.Do(func() {
		p.result <- outcome
		resolved = true
	})
	return resolved
}

// Hosted serves the gateway checkout from a local echo server. Open registers
// a session, hands its page URL to the Opener and waits for the page to post
// back a receipt, a dismissal or a decline.
type Hosted struct {
	echo    *echo.Echo
	address string
	baseURL string
	assets  *AssetCache
	open    Opener

	mu       sync.Mutex
	sessions map[string]*pendingCheckout
}

func NewHosted(address string, assets *AssetCache, opener Opener) *Hosted {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Log.Debug("checkout request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
			)
			return nil
		},
	}))

	h := &Hosted{
		echo:     e,
		address:  address,
		baseURL:  "http://" + strings.TrimPrefix(address, "http://"),
		assets:   assets,
		open:     opener,
		sessions: map[string]*pendingCheckout{},
	}
	h.setupRoutes()
	return h
}

func (h *Hosted) setupRoutes() {
	h.echo.GET("/assets/checkout.js", h.script)

	session := h.echo.Group("/checkout/:session")
	session.GET("", h.page)
	session.POST("/success", h.success)
	session.POST("/dismiss", h.dismiss)
	session.POST("/failed", h.failed)
}

func (h *Hosted) Handler() http.Handler {
	return h.echo
}

func (h *Hosted) Start() error {
	err := h.echo.Start(strings.TrimPrefix(h.address, "http://"))
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (h *Hosted) Shutdown(ctx context.Context) error {
	return h.echo.Shutdown(ctx)
}

// Open blocks until the checkout page reports an outcome or ctx is done.
// There is no timeout of its own: the user paces the checkout.
func (h *Hosted) Open(ctx context.Context, params Params) (Outcome, error) {
	id := uuid.NewString()
	pending := &pendingCheckout{params: params, result: make(chan Outcome, 1)}

	h.mu.Lock()
	h.sessions[id] = pending
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.sessions, id)
		h.mu.Unlock()
	}()

	url := fmt.Sprintf("%s/checkout/%s", h.baseURL, id)
	if err := h.open(url); err != nil {
		return Outcome{}, fmt.Errorf("failed to open checkout page: %w", err)
	}
	logger.Log.Info("checkout opened",
		zap.String("session", id),
		zap.String("gateway_order_id", params.GatewayOrderID),
	)

	select {
	case outcome := <-pending.result:
		return outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (h *Hosted) pending(c echo.Context) (*pendingCheckout, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	pending, ok := h.sessions[c.Param("session")]
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "unknown checkout session")
	}
	return pending, nil
}

func (h *Hosted) script(c echo.Context) error {
	script, ok := h.assets.Script()
	if !ok {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "checkout script is not loaded")
	}
	return c.Blob(http.StatusOK, "application/javascript", script)
}

type pageView struct {
	Key            string
	Amount         int64
	DisplayAmount  string
	Currency       string
	GatewayOrderID string
	Description    string
	Email          string
	CallbackPath   string
}

func (h *Hosted) page(c echo.Context) error {
	pending, err := h.pending(c)
	if err != nil {
		return err
	}

	params := pending.params
	view := pageView{
		Key:            params.Key,
		Amount:         int64(params.Amount),
		DisplayAmount:  params.Amount.String(),
		Currency:       params.Currency,
		GatewayOrderID: params.GatewayOrderID,
		Description:    params.Description,
		Email:          params.Email,
		CallbackPath:   "/checkout/" + c.Param("session"),
	}

	var page strings.Builder
	if err := checkoutPage.Execute(&page, view); err != nil {
		logger.Log.Error("failed to render checkout page", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError)
	}
	return c.HTML(http.StatusOK, page.String())
}

func (h *Hosted) success(c echo.Context) error {
	pending, err := h.pending(c)
	if err != nil {
		return err
	}

	var receipt Receipt
	if err := c.Bind(&receipt); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid receipt")
	}
	if receipt.PaymentID == "" || receipt.GatewayOrderID == "" || receipt.Signature == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "incomplete receipt")
	}

	return h.settle(c, pending, Outcome{Kind: Paid, Receipt: &receipt})
}

func (h *Hosted) dismiss(c echo.Context) error {
	pending, err := h.pending(c)
	if err != nil {
		return err
	}
	return h.settle(c, pending, Outcome{Kind: Dismissed})
}

func (h *Hosted) failed(c echo.Context) error {
	pending, err := h.pending(c)
	if err != nil {
		return err
	}

	var payload struct {
		Error Decline `json:"error"`
	}
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid failure payload")
	}

	return h.settle(c, pending, Outcome{Kind: Declined, Decline: &payload.Error})
}

func (h *Hosted) settle(c echo.Context, pending *pendingCheckout, outcome Outcome) error {
	if !pending.resolve(outcome) {
		return echo.NewHTTPError(http.StatusConflict, ErrSessionResolved.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

var checkoutPage = template.Must(template.New("checkout").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>BookBind checkout</title>
</head>
<body>
<p>Paying {{.DisplayAmount}} {{.Currency}} for {{.Description}}</p>
<p id="status">Opening checkout...</p>
<script src="/assets/checkout.js"></script>
<script>
(function () {
  var base = {{.CallbackPath}};
  function post(path, body) {
    return fetch(base + path, {
      method: "POST",
      headers: {"Content-Type": "application/json"},
      body: JSON.stringify(body || {})
    });
  }
  function done(text) {
    document.getElementById("status").textContent = text;
  }
  var rzp = new Razorpay({
    key: {{.Key}},
    amount: {{.Amount}},
    currency: {{.Currency}},
    name: "BookBind",
    description: {{.Description}},
    order_id: {{.GatewayOrderID}},
    prefill: {email: {{.Email}}},
    handler: function (response) {
      post("/success", response).then(function () { done("Payment received. You can close this tab."); });
    },
    modal: {
      ondismiss: function () {
        post("/dismiss").then(function () { done("Payment cancelled. You can close this tab."); });
      }
    }
  });
  rzp.on("payment.failed", function (response) {
    post("/failed", {error: response.error}).then(function () { done("Payment failed. You can close this tab."); });
  });
  rzp.open();
})();
</script>
</body>
</html>
`))
