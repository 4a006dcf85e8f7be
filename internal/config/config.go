package config

import (
	"errors"
	"time"

	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Address string `env:"RUN_ADDRESS"`

	DatabaseDNS string `env:"DATABASE_URI"`
	LogLevel    string `env:"LOG_LEVEL"`

	JWTSecret      string        `env:"JWT_SECRET"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`

	RazorpayKeyID     string `env:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `env:"RAZORPAY_KEY_SECRET"`
	Currency          string `env:"PAYMENT_CURRENCY" envDefault:"INR"`
}

// InitConfig reads flags first; environment variables override them.
func InitConfig(args []string) (*Config, error) {
	loadDotEnv()

	flags := Flags{}
	if err := flags.Init("paymentd", args); err != nil {
		return nil, err
	}

	cfg := Config{
		Address:     flags.address,
		DatabaseDNS: flags.dbDNS,
		LogLevel:    flags.logLevel,
	}
	cfg.parseEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) parseEnv() {
	err := env.Parse(cfg)
	if err != nil {
		logger.Log.Warn("Getting an error while parsing the configuration", zap.String("err", err.Error()))
	}
}

func (cfg *Config) validate() error {
	var errs []error
	if cfg.DatabaseDNS == "" {
		errs = append(errs, errors.New("database uri is required"))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
		errs = append(errs, errors.New("razorpay key id and secret are required"))
	}
	return errors.Join(errs...)
}

type ClientConfig struct {
	APIURL            string        `env:"API_URL" envDefault:"http://localhost:8080"`
	CheckoutAddress   string        `env:"CHECKOUT_ADDRESS" envDefault:"127.0.0.1:8765"`
	CheckoutScriptURL string        `env:"CHECKOUT_SCRIPT_URL" envDefault:"https://checkout.razorpay.com/v1/checkout.js"`
	SessionDB         string        `env:"SESSION_DB" envDefault:"paycli.db"`
	VerifyTimeout     time.Duration `env:"VERIFY_TIMEOUT" envDefault:"30s"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"warn"`
}

func InitClientConfig() (*ClientConfig, error) {
	loadDotEnv()

	cfg := ClientConfig{}
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv() {
	// .env is optional; variables already set in the environment win
	if err := godotenv.Load(); err != nil {
		logger.Log.Debug(".env was not loaded", zap.Error(err))
	}
}
