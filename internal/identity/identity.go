package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Bessima/bookbind-pay/internal/customerror"
	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"github.com/Bessima/bookbind-pay/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

// SessionKey is the fixed storage key of the bearer token.
const SessionKey = "access_token"

type UserAPI interface {
	Me(ctx context.Context) (*models.User, error)
}

type SessionAPI interface {
	Logout(ctx context.Context) error
}

type Option func(c *Context)

// WithSignedOutHook is called every time the session is cleared, e.g. to send
// the user back to the login entry point.
func WithSignedOutHook(fn func()) Option {
	return func(c *Context) {
		c.onSignedOut = fn
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Context) {
		c.now = now
	}
}

// Context holds the session token and the authenticated user.
type Context struct {
	store       TokenStore
	onSignedOut func()
	now         func() time.Time

	mu   sync.RWMutex
	user *models.User
}

func New(store TokenStore, opts ...Option) *Context {
	c := &Context{store: store, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) Login(token string, user *models.User) error {
	if token == "" {
		return errors.New("empty session token")
	}
	if err := c.store.Set(SessionKey, token); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	c.mu.Lock()
	c.user = user
	c.mu.Unlock()
	return nil
}

// Token returns the stored bearer token. A missing, malformed or expired token
// yields ErrUnauthenticated; the latter two also clear the session.
func (c *Context) Token() (string, error) {
	token, err := c.store.Get(SessionKey)
	if errors.Is(err, ErrNotFound) || token == "" {
		return "", customerror.ErrUnauthenticated
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		logger.Log.Warn("stored session token is malformed", zap.Error(err))
		c.Clear()
		return "", customerror.ErrUnauthenticated
	}
	if !claims.VerifyExpiresAt(c.now(), false) {
		logger.Log.Info("stored session token expired")
		c.Clear()
		return "", customerror.ErrUnauthenticated
	}
	return token, nil
}

func (c *Context) Authenticated() bool {
	_, err := c.Token()
	return err == nil
}

func (c *Context) User() *models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Context) Clear() {
	if err := c.store.Delete(SessionKey); err != nil {
		logger.Log.Warn("failed to delete session token", zap.Error(err))
	}

	c.mu.Lock()
	c.user = nil
	c.mu.Unlock()

	if c.onSignedOut != nil {
		c.onSignedOut()
	}
}

// Refresh loads the profile of the current session from the backend.
func (c *Context) Refresh(ctx context.Context, api UserAPI) (*models.User, error) {
	if _, err := c.Token(); err != nil {
		return nil, err
	}

	user, err := api.Me(ctx)
	if err != nil {
		if errors.Is(err, customerror.ErrUnauthenticated) {
			c.Clear()
		}
		return nil, err
	}

	c.mu.Lock()
	c.user = user
	c.mu.Unlock()
	return user, nil
}

// Logout tells the backend on a best-effort basis and clears the local session regardless.
func (c *Context) Logout(ctx context.Context, api SessionAPI) {
	if _, err := c.Token(); err == nil {
		if err := api.Logout(ctx); err != nil {
			logger.Log.Warn("remote logout failed", zap.Error(err))
		}
	}
	c.Clear()
}
