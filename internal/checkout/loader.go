package checkout

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Bessima/bookbind-pay/internal/customerror"
	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const scriptLoadKey = "checkout-script"

type ScriptInjector interface {
	Inject(ctx context.Context) error
}

// Loader makes the gateway checkout script available at most once per process.
// Concurrent callers share a single in-flight load and observe its outcome.
// A failed load is reported to every waiter and is not retried until the next call.
// The shared load is detached from the caller that started it: a caller that
// gives up only stops waiting.
type Loader struct {
	injector ScriptInjector
	group    singleflight.Group

	mu     sync.Mutex
	loaded bool

	// joined is called once the caller is attached to the in-flight load
	joined func()
}

func NewLoader(injector ScriptInjector) *Loader {
	return &Loader{injector: injector}
}

func (l *Loader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

func (l *Loader) EnsureLoaded(ctx context.Context) error {
	if l.Loaded() {
		return nil
	}

	loadCtx := context.WithoutCancel(ctx)
	result := l.group.DoChan(scriptLoadKey, func() (interface{}, error) {
		if l.Loaded() {
			return nil, nil
		}
		if err := l.injector.Inject(loadCtx); err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.loaded = true
		l.mu.Unlock()
		return nil, nil
	})
	if l.joined != nil {
		l.joined()
	}

	select {
	case res := <-result:
		if res.Err != nil {
			logger.Log.Warn("checkout script failed to load", zap.Bool("shared", res.Shared), zap.Error(res.Err))
			return customerror.NewSettlementError(customerror.GatewayLoadFailed, res.Err)
		}
		return nil
	case <-ctx.Done():
		return customerror.NewSettlementError(customerror.GatewayLoadFailed, ctx.Err())
	}
}

// AssetCache keeps the fetched checkout script for the hosted checkout page.
type AssetCache struct {
	mu     sync.RWMutex
	script []byte
}

func (c *AssetCache) Store(script []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = script
}

func (c *AssetCache) Script() ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.script, len(c.script) > 0
}

// HTTPScriptInjector downloads the gateway script into an AssetCache.
type HTTPScriptInjector struct {
	url        string
	httpClient *http.Client
	cache      *AssetCache
}

func NewHTTPScriptInjector(url string, cache *AssetCache) *HTTPScriptInjector {
	return &HTTPScriptInjector{
		url:        url,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      cache,
	}
}

func (i *HTTPScriptInjector) Inject(ctx context.Context) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, i.url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", i.url, err)
	}

	response, err := i.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("failed to fetch checkout script at %s: %w", i.url, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logger.Log.Warn("error closing response body", zap.Error(err))
		}
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch checkout script at %s, answer was with status code %d", i.url, response.StatusCode)
	}

	script, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read checkout script: %w", err)
	}
	if len(script) == 0 {
		return fmt.Errorf("checkout script at %s is empty", i.url)
	}

	i.cache.Store(script)
	logger.Log.Info("checkout script loaded", zap.String("url", i.url), zap.Int("size", len(script)))
	return nil
}
