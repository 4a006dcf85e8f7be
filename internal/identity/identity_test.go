package identity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Bessima/bookbind-pay/internal/customerror"
	"github.com/Bessima/bookbind-pay/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "reader",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Me(ctx context.Context) (*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAPI) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestContext_TokenWithoutSession(t *testing.T) {
	c := New(NewMemoryStore())

	_, err := c.Token()
	assert.ErrorIs(t, err, customerror.ErrUnauthenticated)
	assert.False(t, c.Authenticated())
}

func TestContext_LoginAndToken(t *testing.T) {
	c := New(NewMemoryStore())
	token := signedToken(t, time.Now().Add(time.Hour))

	require.NoError(t, c.Login(token, &models.User{ID: "u1", Username: "reader"}))

	got, err := c.Token()
	require.NoError(t, err)
	assert.Equal(t, token, got)
	assert.Equal(t, "u1", c.User().ID)
}

func TestContext_ExpiredTokenClearsSession(t *testing.T) {
	signedOut := 0
	store := NewMemoryStore()
	c := New(store, WithSignedOutHook(func() { signedOut++ }))
	require.NoError(t, c.Login(signedToken(t, time.Now().Add(-time.Minute)), nil))

	_, err := c.Token()

	assert.ErrorIs(t, err, customerror.ErrUnauthenticated)
	assert.Equal(t, 1, signedOut)
	_, err = store.Get(SessionKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContext_MalformedTokenClearsSession(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(SessionKey, "not-a-jwt"))
	c := New(store)

	_, err := c.Token()
	assert.ErrorIs(t, err, customerror.ErrUnauthenticated)
}

func TestContext_RefreshUnauthorizedClears(t *testing.T) {
	signedOut := false
	c := New(NewMemoryStore(), WithSignedOutHook(func() { signedOut = true }))
	require.NoError(t, c.Login(signedToken(t, time.Now().Add(time.Hour)), nil))

	api := new(MockAPI)
	api.On("Me", mock.Anything).Return(nil, customerror.ErrUnauthenticated)

	_, err := c.Refresh(context.Background(), api)

	assert.ErrorIs(t, err, customerror.ErrUnauthenticated)
	assert.True(t, signedOut)
	assert.False(t, c.Authenticated())
	api.AssertExpectations(t)
}

func TestContext_RefreshStoresUser(t *testing.T) {
	c := New(NewMemoryStore())
	require.NoError(t, c.Login(signedToken(t, time.Now().Add(time.Hour)), nil))

	api := new(MockAPI)
	api.On("Me", mock.Anything).Return(&models.User{ID: "u1", Username: "reader"}, nil)

	user, err := c.Refresh(context.Background(), api)
	require.NoError(t, err)
	assert.Equal(t, "reader", user.Username)
	assert.Equal(t, "reader", c.User().Username)
}

func TestContext_LogoutClearsEvenWhenRemoteFails(t *testing.T) {
	c := New(NewMemoryStore())
	require.NoError(t, c.Login(signedToken(t, time.Now().Add(time.Hour)), &models.User{ID: "u1"}))

	api := new(MockAPI)
	api.On("Logout", mock.Anything).Return(errors.New("connection refused"))

	c.Logout(context.Background(), api)

	assert.False(t, c.Authenticated())
	assert.Nil(t, c.User())
	api.AssertExpectations(t)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get(SessionKey)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(SessionKey, "first"))
	require.NoError(t, store.Set(SessionKey, "second"))

	value, err := store.Get(SessionKey)
	require.NoError(t, err)
	assert.Equal(t, "second", value)

	require.NoError(t, store.Delete(SessionKey))
	_, err = store.Get(SessionKey)
	assert.ErrorIs(t, err, ErrNotFound)
}
