package config // package config loads application configuration from environment variables

import (
    "log"
    "os"
    "strconv"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Secrets are all distinct on purpose: the
// auth JWT secret, the ticket QR secret and the webhook secret rotate
// independently.
type Config struct {
    Env                  string // application environment (e.g. "dev", "prod")
    Port                 string // HTTP port to listen on
    DBUser               string // database username
    DBPass               string // database password (optional)
    DBHost               string // database host address
    DBPort               string // database port number
    DBName               string // database name
    JWTSecret            string // secret the auth service signs access tokens with
    TicketQRSecret       string // secret used to sign ticket QR tokens
    TicketQRTTLDays      int    // QR token validity horizon in days
    PaymentWebhookSecret string // shared secret for webhook signature verification
    ProviderAPIBase      string // payment provider API base URL
    ProviderSecretKey    string // payment provider API secret key
    WebBaseURL           string // public web front end base URL for redirect targets
}

// Load reads configuration values from environment variables and
// returns a Config.  Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:                  must("APP_ENV"),
        Port:                 must("APP_PORT"),
        DBUser:               must("DB_USER"),
        DBPass:               os.Getenv("DB_PASS"),
        DBHost:               must("DB_HOST"),
        DBPort:               must("DB_PORT"),
        DBName:               must("DB_NAME"),
        JWTSecret:            must("JWT_SECRET"),
        TicketQRSecret:       must("TICKET_QR_SECRET"),
        TicketQRTTLDays:      envIntDefault("TICKET_QR_TTL_DAYS", 180),
        PaymentWebhookSecret: must("PAYMENT_WEBHOOK_SECRET"),
        ProviderAPIBase:      must("PROVIDER_API_BASE"),
        ProviderSecretKey:    must("PROVIDER_SECRET_KEY"),
        WebBaseURL:           must("WEB_BASE_URL"),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// envIntDefault reads an optional integer environment variable, falling
// back to def when unset or malformed.
func envIntDefault(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, v)
    }
    return n
}
