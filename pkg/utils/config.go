package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Lock     LockConfig
	Paystack PaystackConfig
	Email    EmailConfig
	Pricing  PricingConfig
	Booking  BookingConfig
	Metrics  MetricsConfig
}

type AppConfig struct {
	Name        string
	Port        string
	Debug       bool
	LogPath     string
	PublicURL   string
	FrontendURL string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	Name       string
	User       string
	Password   string
	SSLMode    string
	MaxConns   int32
	SQLitePath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LockConfig selects how the per-unit booking lock is held: "local" keeps it
// in process, "redis" shares it between instances.
type LockConfig struct {
	Backend string
	TTL     time.Duration
	Wait    time.Duration
}

type PaystackConfig struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
	Currency  string
}

type EmailConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	FromName   string
	StaffEmail string
}

// PricingConfig amounts are in the smallest currency unit, rates in basis
// points.
type PricingConfig struct {
	RatesFile              string
	Currency               string
	TaxRateBps             int64
	ServiceFee             int64
	GatewayRateBps         int64
	GatewayFixedFee        int64
	GatewayFeeCap          int64
	WeeklyDiscountNights   int
	WeeklyDiscountPercent  int64
	MonthlyDiscountNights  int
	MonthlyDiscountPercent int64
}

type BookingConfig struct {
	ReferencePrefix string
	NodeID          int64
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

func setDefaults() {
	viper.SetDefault("APP_NAME", "apartment-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("APP_URL", "http://localhost:8080")
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("CORS_ORIGINS", "*")

	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("SQLITE_PATH", "apartment-booking.db")

	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LOCK_BACKEND", "local")
	viper.SetDefault("LOCK_TTL", "30s")
	viper.SetDefault("LOCK_WAIT", "10s")

	viper.SetDefault("PAYSTACK_BASE_URL", "https://api.paystack.co")
	viper.SetDefault("PAYSTACK_TIMEOUT", "15s")
	viper.SetDefault("CURRENCY", "NGN")

	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("EMAIL_FROM_NAME", "CO Signature Homes")

	viper.SetDefault("TAX_RATE_BPS", 750)
	viper.SetDefault("SERVICE_FEE", 500000)
	viper.SetDefault("GATEWAY_RATE_BPS", 150)
	viper.SetDefault("GATEWAY_FIXED_FEE", 10000)
	viper.SetDefault("GATEWAY_FEE_CAP", 0)
	viper.SetDefault("WEEKLY_DISCOUNT_NIGHTS", 7)
	viper.SetDefault("WEEKLY_DISCOUNT_PERCENT", 5)
	viper.SetDefault("MONTHLY_DISCOUNT_NIGHTS", 30)
	viper.SetDefault("MONTHLY_DISCOUNT_PERCENT", 10)

	viper.SetDefault("BOOKING_REFERENCE_PREFIX", "CSH")
	viper.SetDefault("BOOKING_NODE_ID", 1)

	viper.SetDefault("METRICS_ENABLED", true)
	viper.SetDefault("METRICS_PATH", "/metrics")
}

// LoadConfig reads the .env file at path, when present, and lets the
// environment override every key.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ".env"
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("env")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:        viper.GetString("APP_NAME"),
			Port:        viper.GetString("PORT"),
			Debug:       viper.GetBool("DEBUG"),
			LogPath:     viper.GetString("LOG_PATH"),
			PublicURL:   viper.GetString("APP_URL"),
			FrontendURL: viper.GetString("FRONTEND_URL"),
			CORSOrigins: viper.GetStringSlice("CORS_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:     viper.GetString("DB_DRIVER"),
			Host:       viper.GetString("DB_HOST"),
			Port:       viper.GetString("DB_PORT"),
			Name:       viper.GetString("DB_NAME"),
			User:       viper.GetString("DB_USER"),
			Password:   viper.GetString("DB_PASS"),
			SSLMode:    viper.GetString("DB_SSLMODE"),
			MaxConns:   viper.GetInt32("DB_MAX_CONNS"),
			SQLitePath: viper.GetString("SQLITE_PATH"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Lock: LockConfig{
			Backend: viper.GetString("LOCK_BACKEND"),
			TTL:     viper.GetDuration("LOCK_TTL"),
			Wait:    viper.GetDuration("LOCK_WAIT"),
		},
		Paystack: PaystackConfig{
			SecretKey: viper.GetString("PAYSTACK_SECRET_KEY"),
			BaseURL:   viper.GetString("PAYSTACK_BASE_URL"),
			Timeout:   viper.GetDuration("PAYSTACK_TIMEOUT"),
			Currency:  viper.GetString("CURRENCY"),
		},
		Email: EmailConfig{
			Host:       viper.GetString("SMTP_HOST"),
			Port:       viper.GetInt("SMTP_PORT"),
			User:       viper.GetString("SMTP_USER"),
			Password:   viper.GetString("SMTP_PASS"),
			From:       viper.GetString("EMAIL_FROM"),
			FromName:   viper.GetString("EMAIL_FROM_NAME"),
			StaffEmail: viper.GetString("ADMIN_EMAIL"),
		},
		Pricing: PricingConfig{
			RatesFile:              viper.GetString("RATES_FILE"),
			Currency:               viper.GetString("CURRENCY"),
			TaxRateBps:             viper.GetInt64("TAX_RATE_BPS"),
			ServiceFee:             viper.GetInt64("SERVICE_FEE"),
			GatewayRateBps:         viper.GetInt64("GATEWAY_RATE_BPS"),
			GatewayFixedFee:        viper.GetInt64("GATEWAY_FIXED_FEE"),
			GatewayFeeCap:          viper.GetInt64("GATEWAY_FEE_CAP"),
			WeeklyDiscountNights:   viper.GetInt("WEEKLY_DISCOUNT_NIGHTS"),
			WeeklyDiscountPercent:  viper.GetInt64("WEEKLY_DISCOUNT_PERCENT"),
			MonthlyDiscountNights:  viper.GetInt("MONTHLY_DISCOUNT_NIGHTS"),
			MonthlyDiscountPercent: viper.GetInt64("MONTHLY_DISCOUNT_PERCENT"),
		},
		Booking: BookingConfig{
			ReferencePrefix: viper.GetString("BOOKING_REFERENCE_PREFIX"),
			NodeID:          viper.GetInt64("BOOKING_NODE_ID"),
		},
		Metrics: MetricsConfig{
			Enabled: viper.GetBool("METRICS_ENABLED"),
			Path:    viper.GetString("METRICS_PATH"),
		},
	}

	return config, nil
}
