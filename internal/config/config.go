package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"beautypro.db"`
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	Provider  Provider  `envPrefix:"PROVIDER_"`
	Fees      Fees      `envPrefix:"PLATFORM_FEE_"`
	Webhook   Webhook   `envPrefix:"WEBHOOK_"`
	Redis     Redis     `envPrefix:"REDIS_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
	RabbitMQ  RabbitMQ  `envPrefix:"RABBITMQ_"`
	Outbox    Outbox    `envPrefix:"OUTBOX_"`
	Sweep     Sweep     `envPrefix:"PAYOUT_SWEEP_"`
}

type Provider struct {
	BaseApiURL    string        `env:"BASE_API_URL" envDefault:"https://api.mercadopago.com"`
	AccessToken   string        `env:"ACCESS_TOKEN"`
	WebhookSecret string        `env:"WEBHOOK_SECRET"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Fees are platform fee rates per seller plan, as fractions (0.10 = 10%).
type Fees struct {
	Rate        decimal.Decimal `env:"RATE" envDefault:"0.10"`
	RatePro     decimal.Decimal `env:"RATE_PRO" envDefault:"0.10"`
	RatePremium decimal.Decimal `env:"RATE_PREMIUM" envDefault:"0.10"`
}

// Validate rejects rates outside [0, 1].
func (f Fees) Validate() error {
	rates := []struct {
		name string
		rate decimal.Decimal
	}{
		{"PLATFORM_FEE_RATE", f.Rate},
		{"PLATFORM_FEE_RATE_PRO", f.RatePro},
		{"PLATFORM_FEE_RATE_PREMIUM", f.RatePremium},
	}
	for _, r := range rates {
		if r.rate.IsNegative() || r.rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%s must be between 0 and 1, got %s", r.name, r.rate.String())
		}
	}
	return nil
}

type Webhook struct {
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type RateLimit struct {
	Window         time.Duration `env:"WINDOW" envDefault:"1m"`
	WebhookLimit   int64         `env:"WEBHOOK" envDefault:"600"`
	SellerAPILimit int64         `env:"SELLER_API" envDefault:"120"`
}

type RabbitMQ struct {
	URL      string `env:"URL"`
	Exchange string `env:"EXCHANGE" envDefault:"beautypro.notifications"`
}

type Outbox struct {
	Interval  time.Duration `env:"INTERVAL" envDefault:"2s"`
	BatchSize int           `env:"BATCH" envDefault:"32"`
}

type Sweep struct {
	Interval  time.Duration `env:"INTERVAL" envDefault:"5m"`
	BatchSize int           `env:"BATCH" envDefault:"50"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
