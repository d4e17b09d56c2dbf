package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// API is the configuration of the REST backend process.
type API struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	UploadDir   string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	SeedCatalog bool   `env:"SEED_CATALOG" envDefault:"false"`

	JWT       JWT       `envPrefix:"JWT_"`
	Shipping  Shipping  `envPrefix:"SHIPPING_"`
	Bank      Bank      `envPrefix:"BANK_"`
	Redis     Redis     `envPrefix:"REDIS_"`
	SMTP      SMTP      `envPrefix:"SMTP_"`
	Recaptcha Recaptcha `envPrefix:"RECAPTCHA_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
}

// Web is the configuration of the browser facing client process.
type Web struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer `envPrefix:"WEB_"`

	APIBaseURL         string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	APITimeout         time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	CredentialValidity time.Duration `env:"CREDENTIAL_VALIDITY" envDefault:"24h"`

	Session Session `envPrefix:"SESSION_"`
	Redis   Redis   `envPrefix:"REDIS_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

func (e Environment) IsDevelopment() bool {
	return e.Name == "development"
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

func (h HTTPServer) Addr() string {
	return h.Host + ":" + h.Port
}

type JWT struct {
	Issuer          string        `env:"ISSUER" envDefault:"otomar"`
	Audience        string        `env:"AUDIENCE" envDefault:"otomar-web"`
	Secret          string        `env:"SECRET"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
}

// Shipping holds the flat shipping fee and the subtotal from which shipping is free.
type Shipping struct {
	FreeThreshold decimal.Decimal `env:"FREE_THRESHOLD" envDefault:"500"`
	Cost          decimal.Decimal `env:"COST" envDefault:"29.90"`
}

// Bank is the 3-D Secure virtual POS account.
type Bank struct {
	ClientID   string        `env:"CLIENT_ID"`
	StoreKey   string        `env:"STORE_KEY"`
	GatewayURL string        `env:"GATEWAY_URL"`
	OkURL      string        `env:"OK_URL"`
	FailURL    string        `env:"FAIL_URL"`
	StoreType  string        `env:"STORE_TYPE" envDefault:"3d_pay"`
	Currency   string        `env:"CURRENCY" envDefault:"949"`
	Lang       string        `env:"LANG" envDefault:"tr"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

type Redis struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type SMTP struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"no-reply@otomar.com.tr"`
	NotifyTo string `env:"NOTIFY_TO"`
}

type Recaptcha struct {
	Secret    string  `env:"SECRET"`
	VerifyURL string  `env:"VERIFY_URL" envDefault:"https://www.google.com/recaptcha/api/siteverify"`
	MinScore  float64 `env:"MIN_SCORE" envDefault:"0.5"`
}

type RateLimit struct {
	AuthRPS   float64 `env:"AUTH_RPS" envDefault:"1"`
	AuthBurst int     `env:"AUTH_BURST" envDefault:"5"`
}

type Session struct {
	CookieName   string        `env:"COOKIE_NAME" envDefault:"otomar_sid"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"true"`
	TTL          time.Duration `env:"TTL" envDefault:"24h"`
}

// Validate reports every missing or inconsistent setting at once.
func (c *API) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if err := requireURL("BASE_URL", c.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if !c.Environment.IsDevelopment() && len(c.JWT.Secret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes"))
	}
	if c.JWT.AccessTokenTTL <= 0 || c.JWT.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("JWT token lifetimes must be positive"))
	}
	if c.Shipping.Cost.IsNegative() || c.Shipping.FreeThreshold.IsNegative() {
		errs = append(errs, errors.New("SHIPPING_COST and SHIPPING_FREE_THRESHOLD must not be negative"))
	}
	if c.Bank.ClientID == "" || c.Bank.StoreKey == "" {
		errs = append(errs, errors.New("BANK_CLIENT_ID and BANK_STORE_KEY are required"))
	}
	for name, value := range map[string]string{
		"BANK_GATEWAY_URL": c.Bank.GatewayURL,
		"BANK_OK_URL":      c.Bank.OkURL,
		"BANK_FAIL_URL":    c.Bank.FailURL,
	} {
		if err := requireURL(name, value); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Bank.Timeout <= 0 {
		errs = append(errs, errors.New("BANK_TIMEOUT must be positive"))
	}
	if c.RateLimit.AuthRPS <= 0 || c.RateLimit.AuthBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_AUTH_RPS and RATE_LIMIT_AUTH_BURST must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Web) Validate() error {
	var errs []error
	if err := requireURL("API_BASE_URL", c.APIBaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.APITimeout <= 0 {
		errs = append(errs, errors.New("API_TIMEOUT must be positive"))
	}
	if c.CredentialValidity <= 0 {
		errs = append(errs, errors.New("CREDENTIAL_VALIDITY must be positive"))
	}
	if c.Session.CookieName == "" || c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME and SESSION_TTL are required"))
	}
	return errors.Join(errs...)
}

func requireURL(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL", name)
	}
	return nil
}
