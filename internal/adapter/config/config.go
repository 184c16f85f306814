package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Database *Database
	HTTP     *HTTP
	Razorpay *Razorpay
	Pricing  *Pricing
	Notify   *Notify
	Auth     *Auth
	App      *App
}

const AppModeProduction = "PROD"
const AppModeDevelop = "DEV"

type App struct {
	LogLevel string `env:"LOG_LEVEL"`
	Mode     string
}

type Database struct {
	DSN      string `env:"DATABASE_URI"`
	MaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"10"`
}

type HTTP struct {
	HostString string `env:"RUN_ADDRESS"`
}

type Razorpay struct {
	BaseURL       string `env:"RAZORPAY_BASE_URL" envDefault:"https://api.razorpay.com/v1"`
	KeyID         string `env:"RAZORPAY_KEY_ID"`
	KeySecret     string `env:"RAZORPAY_KEY_SECRET"`
	WebhookSecret string `env:"RAZORPAY_WEBHOOK_SECRET"`
}

type Pricing struct {
	TaxRate           string        `env:"TAX_RATE" envDefault:"0.18"`
	FreeShippingAbove string        `env:"FREE_SHIPPING_ABOVE" envDefault:"500"`
	ShippingFee       string        `env:"SHIPPING_FEE" envDefault:"40"`
	Currency          string        `env:"CURRENCY" envDefault:"INR"`
	ReturnWindow      time.Duration `env:"RETURN_WINDOW" envDefault:"168h"`
}

// Auth holds the symmetric key shared with the identity service that
// issues buyer and seller tokens.
type Auth struct {
	TokenKey string `env:"AUTH_TOKEN_KEY"`
}

type Notify struct {
	HostString string `env:"NOTIFICATION_SERVICE_ADDRESS"`
	Workers    int    `env:"NOTIFY_WORKERS" envDefault:"5"`
}

func NewConfig() (*Config, error) {
	var db Database
	var http HTTP
	var rzp Razorpay
	var pricing Pricing
	var notify Notify
	var auth Auth
	var app App

	flag.StringVar(&db.DSN, "d", "", "Database string")
	flag.StringVar(&http.HostString, "a", `localhost:8080`, "HTTP server endpoint")
	flag.StringVar(&notify.HostString, "n", "", "Notification service address")
	flag.StringVar(&app.LogLevel, "l", `error`, "Log level")
	flag.StringVar(&app.Mode, "m", `DEV`, "PROD / DEV")
	flag.Parse()

	err := env.Parse(&db)
	if err != nil {
		return nil, fmt.Errorf("error parsing env database config: %w", err)
	}
	err = env.Parse(&http)
	if err != nil {
		return nil, fmt.Errorf("error parsing http config: %w", err)
	}
	err = env.Parse(&rzp)
	if err != nil {
		return nil, fmt.Errorf("error parsing razorpay config: %w", err)
	}
	err = env.Parse(&pricing)
	if err != nil {
		return nil, fmt.Errorf("error parsing pricing config: %w", err)
	}
	err = env.Parse(&notify)
	if err != nil {
		return nil, fmt.Errorf("error parsing notify config: %w", err)
	}
	err = env.Parse(&auth)
	if err != nil {
		return nil, fmt.Errorf("error parsing auth config: %w", err)
	}
	err = env.Parse(&app)
	if err != nil {
		return nil, fmt.Errorf("error parsing app config: %w", err)
	}

	config := Config{
		Database: &db,
		HTTP:     &http,
		Razorpay: &rzp,
		Pricing:  &pricing,
		Notify:   &notify,
		Auth:     &auth,
		App:      &app,
	}

	return &config, nil
}
