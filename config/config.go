package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Env     string // "development" or "production", picks the logger
	Addr    string
	Store   string // "memory" or "postgres"
	DB      DBConfig
	Staff   StaffConfig
	Payment PaymentConfig
	Pricing PricingConfig
	Timers  TimerConfig
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// StaffConfig configures the Telegram sink that forwards order notifications
// to the staff chat. Both values must be set for the sink to be enabled.
type StaffConfig struct {
	MessageToken string
	ChatID       int64
}

type PaymentConfig struct {
	Currency   string
	GatewayURL string // external card authorizer; empty = built-in simulated gateway
}

type PricingConfig struct {
	TaxRate    decimal.Decimal
	ServiceFee decimal.Decimal
}

// TimerConfig holds the delays of the simulated asynchronous steps.
type TimerConfig struct {
	OTPSendDelay     time.Duration
	OTPVerifyDelay   time.Duration
	TokenRevealDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	chatID, _ := strconv.ParseInt(getEnv("STAFF_CHAT_ID", "0"), 10, 64)

	return &Config{
		Env:   getEnv("ENV", "development"),
		Addr:  getEnv("ADDR", ":8080"),
		Store: getEnv("STORE", "memory"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     port,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "kiosk"),
		},
		Staff: StaffConfig{
			MessageToken: getEnv("MESSAGE_TOKEN", ""),
			ChatID:       chatID,
		},
		Payment: PaymentConfig{
			Currency:   getEnv("CURRENCY", "INR"),
			GatewayURL: getEnv("GATEWAY_URL", ""),
		},
		Pricing: PricingConfig{
			TaxRate:    getDecimal("TAX_RATE", "0.08"),
			ServiceFee: getDecimal("SERVICE_FEE", "0.50"),
		},
		Timers: TimerConfig{
			OTPSendDelay:     getMillis("OTP_SEND_DELAY_MS", 1500),
			OTPVerifyDelay:   getMillis("OTP_VERIFY_DELAY_MS", 1500),
			TokenRevealDelay: getMillis("TOKEN_REVEAL_DELAY_MS", 2000),
		},
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDecimal(key, def string) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	d, _ := decimal.NewFromString(def)
	return d
}

func getMillis(key string, def int) time.Duration {
	ms := def
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			ms = n
		}
	}
	return time.Duration(ms) * time.Millisecond
}
