package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env        string
	Addr       string
	PublicURL  *url.URL
	DBDSN      string
	LogLevel   string
	MediaDir   string
	SessionTTL time.Duration

	CookieSecret string

	GoogleWebClientID string
	AppleServiceID    string

	// Web Push (VAPID). Required in prod; in dev the server falls back to a
	// dry-run transport when the keys are missing.
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	// FCM HTTP v1. Optional; device-token sends are disabled without it.
	FCMCredentialsPath string
	FCMProjectID       string

	SMTP          SMTPConfig
	ResetTokenTTL time.Duration
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	TLSMode   string
	FromName  string
	FromEmail string
}

func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.FromEmail != ""
}

func Load() (Config, error) {
	return LoadFromEnv(os.Getenv)
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:          getenv("APP_ENV"),
		Addr:         getenv("APP_ADDR"),
		DBDSN:        getenv("APP_DB_DSN"),
		LogLevel:     getenv("APP_LOG_LEVEL"),
		MediaDir:     getenv("APP_MEDIA_DIR"),
		CookieSecret: getenv("APP_COOKIE_SECRET"),

		GoogleWebClientID: strings.TrimSpace(getenv("APP_GOOGLE_WEB_CLIENT_ID")),
		AppleServiceID:    strings.TrimSpace(getenv("APP_APPLE_SERVICE_ID")),

		VAPIDPublicKey:  strings.TrimSpace(getenv("APP_VAPID_PUBLIC_KEY")),
		VAPIDPrivateKey: strings.TrimSpace(getenv("APP_VAPID_PRIVATE_KEY")),
		VAPIDSubject:    strings.TrimSpace(getenv("APP_VAPID_SUBJECT")),

		FCMCredentialsPath: strings.TrimSpace(getenv("APP_FCM_CREDENTIALS")),
		FCMProjectID:       strings.TrimSpace(getenv("APP_FCM_PROJECT_ID")),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	if cfg.MediaDir == "" {
		cfg.MediaDir = "data/media"
	}

	publicURLRaw := getenv("APP_PUBLIC_URL")
	if publicURLRaw != "" {
		parsed, err := url.Parse(publicURLRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_PUBLIC_URL: %w", err)
		}
		if !parsed.IsAbs() || parsed.Host == "" {
			return Config{}, errors.New("APP_PUBLIC_URL: must be an absolute URL")
		}
		switch parsed.Scheme {
		case "http", "https":
		default:
			return Config{}, errors.New("APP_PUBLIC_URL: scheme must be http or https")
		}
		cfg.PublicURL = parsed
	}

	ttlRaw := getenv("APP_SESSION_TTL")
	if ttlRaw == "" {
		cfg.SessionTTL = 30 * 24 * time.Hour
	} else {
		ttl, err := time.ParseDuration(ttlRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_SESSION_TTL: %w", err)
		}
		if ttl <= 0 {
			return Config{}, errors.New("APP_SESSION_TTL: must be > 0")
		}
		cfg.SessionTTL = ttl
	}

	resetTTLRaw := getenv("APP_RESET_TOKEN_TTL")
	if resetTTLRaw == "" {
		cfg.ResetTokenTTL = 2 * time.Hour
	} else {
		ttl, err := time.ParseDuration(resetTTLRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_RESET_TOKEN_TTL: %w", err)
		}
		if ttl <= 0 {
			return Config{}, errors.New("APP_RESET_TOKEN_TTL: must be > 0")
		}
		cfg.ResetTokenTTL = ttl
	}

	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	if (cfg.VAPIDPublicKey == "") != (cfg.VAPIDPrivateKey == "") {
		return Config{}, errors.New("APP_VAPID_PUBLIC_KEY and APP_VAPID_PRIVATE_KEY must be set together")
	}
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDSubject == "" {
		return Config{}, errors.New("APP_VAPID_SUBJECT: required when VAPID keys are set")
	}
	if cfg.VAPIDSubject != "" && !strings.HasPrefix(cfg.VAPIDSubject, "mailto:") && !strings.HasPrefix(cfg.VAPIDSubject, "https://") {
		return Config{}, errors.New("APP_VAPID_SUBJECT: must be a mailto: or https: URL")
	}

	cfg.SMTP = SMTPConfig{
		Host:      strings.TrimSpace(getenv("APP_SMTP_HOST")),
		Username:  getenv("APP_SMTP_USERNAME"),
		Password:  getenv("APP_SMTP_PASSWORD"),
		TLSMode:   strings.TrimSpace(strings.ToLower(getenv("APP_SMTP_TLS_MODE"))),
		FromName:  strings.TrimSpace(getenv("APP_SMTP_FROM_NAME")),
		FromEmail: strings.TrimSpace(strings.ToLower(getenv("APP_SMTP_FROM_EMAIL"))),
	}
	if portRaw := getenv("APP_SMTP_PORT"); portRaw != "" {
		port, err := strconv.Atoi(portRaw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, errors.New("APP_SMTP_PORT: must be a valid port number")
		}
		cfg.SMTP.Port = port
	} else {
		cfg.SMTP.Port = 587
	}
	switch cfg.SMTP.TLSMode {
	case "", "starttls", "tls", "none":
	default:
		return Config{}, errors.New("APP_SMTP_TLS_MODE: must be one of starttls, tls, none")
	}

	if cfg.IsProd() {
		if cfg.PublicURL == nil {
			return Config{}, errors.New("APP_PUBLIC_URL: required in prod")
		}
		if cfg.DBDSN == "" {
			return Config{}, errors.New("APP_DB_DSN: required in prod")
		}
		if len(cfg.CookieSecret) < 32 {
			return Config{}, errors.New("APP_COOKIE_SECRET: must be at least 32 bytes in prod")
		}
		if cfg.VAPIDPublicKey == "" {
			return Config{}, errors.New("APP_VAPID_PUBLIC_KEY: required in prod (push delivery is silently disabled without it)")
		}
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func (c Config) CookieSecure() bool {
	if c.PublicURL != nil {
		return c.PublicURL.Scheme == "https"
	}
	return c.IsProd()
}

func (c Config) WebPushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}
