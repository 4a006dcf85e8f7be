package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig_EnvOverridesFlags(t *testing.T) {
	// Arrange
	t.Setenv("RUN_ADDRESS", ":9090")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("RAZORPAY_KEY_SECRET", "rzp_secret")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")

	// Act
	cfg, err := InitConfig([]string{"-a", ":8081", "-d", "postgres://localhost/pay", "-l", "debug"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Address)
	assert.Equal(t, "postgres://localhost/pay", cfg.DatabaseDNS)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "INR", cfg.Currency)
}

func TestInitConfig_RequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("RAZORPAY_KEY_ID", "")
	t.Setenv("RAZORPAY_KEY_SECRET", "")

	_, err := InitConfig([]string{"-d", "postgres://localhost/pay"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "razorpay")
}

func TestInitConfig_UnknownFlag(t *testing.T) {
	_, err := InitConfig([]string{"-x", "unknown"})

	assert.Error(t, err)
}

func TestInitClientConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("API_URL", "")
		t.Setenv("VERIFY_TIMEOUT", "")

		cfg, err := InitClientConfig()

		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080", cfg.APIURL)
		assert.Equal(t, 30*time.Second, cfg.VerifyTimeout)
		assert.Equal(t, "https://checkout.razorpay.com/v1/checkout.js", cfg.CheckoutScriptURL)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("API_URL", "https://api.bookbind.example")
		t.Setenv("VERIFY_TIMEOUT", "45s")

		cfg, err := InitClientConfig()

		require.NoError(t, err)
		assert.Equal(t, "https://api.bookbind.example", cfg.APIURL)
		assert.Equal(t, 45*time.Second, cfg.VerifyTimeout)
	})

	t.Run("broken duration", func(t *testing.T) {
		t.Setenv("VERIFY_TIMEOUT", "soon")

		_, err := InitClientConfig()

		assert.Error(t, err)
	})
}
