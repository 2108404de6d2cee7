package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	SiteURL      string

	// Admin access
	SessionSecret      string
	AdminUsername      string
	AdminPasswordHash  string
	AdminEmails        []string
	GoogleClientID     string
	GoogleClientSecret string

	UnsubscribeSalt string

	// Object storage (S3 compatible)
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageUseSSL    bool
	StoragePublicURL string

	// Transactional email
	ResendAPIKey string
	ContactFrom  string
	ContactTo    string

	// External calendar
	CalendarID              string
	CalendarAPIKey          string
	CalendarCredentialsFile string
	CalendarSyncInterval    time.Duration

	ContactRateLimit  int
	ContactRateWindow time.Duration

	// Proxies (IPs or CIDRs) whose X-Forwarded-For / X-Real-IP headers are believed
	TrustedProxies []string
}

const minSessionSecretLen = 32

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("yorticia-site", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSecret, "session-secret", "", "Admin session signing secret (prefer env)")
	fs.StringVar(&cfg.UnsubscribeSalt, "unsubscribe-salt", "", "Unsubscribe token salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// A missing .env file is fine; real deployments use the environment.
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("DATABASE_TYPE must be sqlite or postgres")
	}

	cfg.SiteURL = strings.TrimRight(os.Getenv("SITE_URL"), "/")
	if cfg.SiteURL == "" {
		cfg.SiteURL = "http://localhost:" + strconv.Itoa(cfg.Port)
	}

	// Secrets - MUST be provided
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	}
	if cfg.SessionSecret == "" {
		return Config{}, errors.New("SESSION_SECRET required")
	}
	if len(cfg.SessionSecret) < minSessionSecretLen {
		return Config{}, errors.New("SESSION_SECRET must be at least 32 characters")
	}

	if cfg.UnsubscribeSalt == "" {
		cfg.UnsubscribeSalt = os.Getenv("UNSUBSCRIBE_SALT")
	}
	if cfg.UnsubscribeSalt == "" {
		return Config{}, errors.New("UNSUBSCRIBE_SALT required")
	}

	cfg.AdminUsername = os.Getenv("ADMIN_USERNAME")
	cfg.AdminPasswordHash = os.Getenv("ADMIN_PASSWORD_HASH")
	if (cfg.AdminUsername == "") != (cfg.AdminPasswordHash == "") {
		return Config{}, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD_HASH must be set together")
	}
	cfg.AdminEmails = splitList(os.Getenv("ADMIN_EMAILS"))
	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")

	cfg.StorageEndpoint = os.Getenv("S3_ENDPOINT")
	cfg.StorageAccessKey = os.Getenv("S3_ACCESS_KEY")
	cfg.StorageSecretKey = os.Getenv("S3_SECRET_KEY")
	cfg.StorageBucket = os.Getenv("S3_BUCKET")
	cfg.StoragePublicURL = strings.TrimRight(os.Getenv("S3_PUBLIC_URL"), "/")
	if v := os.Getenv("S3_USE_SSL"); v != "" {
		useSSL, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, errors.New("invalid S3_USE_SSL env variable")
		}
		cfg.StorageUseSSL = useSSL
	} else {
		cfg.StorageUseSSL = true
	}
	if cfg.StorageEndpoint != "" && cfg.StorageBucket == "" {
		return Config{}, errors.New("S3_BUCKET required when S3_ENDPOINT is set")
	}

	cfg.ResendAPIKey = os.Getenv("RESEND_API_KEY")
	cfg.ContactFrom = os.Getenv("CONTACT_FROM")
	cfg.ContactTo = os.Getenv("CONTACT_TO")
	if cfg.ContactFrom == "" {
		cfg.ContactFrom = "Yorticia Site <noreply@localhost>"
	}
	if cfg.ResendAPIKey != "" && cfg.ContactTo == "" {
		return Config{}, errors.New("CONTACT_TO required when RESEND_API_KEY is set")
	}

	cfg.CalendarID = os.Getenv("GOOGLE_CALENDAR_ID")
	cfg.CalendarAPIKey = os.Getenv("GOOGLE_CALENDAR_API_KEY")
	cfg.CalendarCredentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")

	var err error
	if cfg.CalendarSyncInterval, err = durationEnv("CALENDAR_SYNC_INTERVAL", 15*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ContactRateWindow, err = durationEnv("CONTACT_RATE_WINDOW", 10*time.Minute); err != nil {
		return Config{}, err
	}
	cfg.ContactRateLimit = 5
	if v := os.Getenv("CONTACT_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, errors.New("invalid CONTACT_RATE_LIMIT env variable")
		}
		cfg.ContactRateLimit = n
	}

	cfg.TrustedProxies = splitList(os.Getenv("TRUSTED_PROXIES"))
	for _, p := range cfg.TrustedProxies {
		if _, err := netip.ParsePrefix(p); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(p); err != nil {
			return Config{}, fmt.Errorf("invalid TRUSTED_PROXIES entry %q", p)
		}
	}

	return cfg, nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s env variable", name)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(strings.ToLower(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
