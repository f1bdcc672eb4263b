package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Lead store
	StoreBackend string
	DatabaseURL  string
	LeadsTable   string
	StoreTimeout time.Duration

	// AWS (DynamoDB store, SES relay)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Email relay
	RelayProvider      string
	FormRelayURL       string
	FormRelayAccessKey string
	RelayTimeout       time.Duration
	LeadNotifyTo       string
	SendGridAPIKey     string
	SendGridFromEmail  string
	SendGridFromName   string
	SESFromEmail       string

	// Admin auth
	AdminEmail        string
	AdminPasswordHash string
	AdminJWTSecret    string
	SessionTTL        time.Duration
	SessionStore      string
	CookieSecure      bool
	RedisAddr         string
	RedisPassword     string
	RedisTLS          bool

	// HTTP surface
	CORSAllowedOrigins []string
	SubmitRatePerMin   int
	SubmitBurst        int
	LoginRatePerMin    int
	LoginBurst         int
	// TrustProxyHeaders keys rate limits on X-Real-Ip/X-Forwarded-For. Only
	// enable behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend: strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", "memory"))),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		LeadsTable:   getEnv("LEADS_TABLE", "form_submissions"),
		StoreTimeout: getEnvAsDuration("STORE_TIMEOUT", 5*time.Second),

		AWSRegion:           getEnv("AWS_REGION", "us-west-2"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RelayProvider:      strings.ToLower(strings.TrimSpace(getEnv("RELAY_PROVIDER", "stub"))),
		FormRelayURL:       getEnv("FORM_RELAY_URL", "https://api.web3forms.com/submit"),
		FormRelayAccessKey: getEnv("FORM_RELAY_ACCESS_KEY", ""),
		RelayTimeout:       getEnvAsDuration("RELAY_TIMEOUT", 10*time.Second),
		LeadNotifyTo:       getEnv("LEAD_NOTIFY_TO", ""),
		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:  getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:   getEnv("SENDGRID_FROM_NAME", "WMC Products"),
		SESFromEmail:       getEnv("SES_FROM_EMAIL", ""),

		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		AdminJWTSecret:    getEnv("ADMIN_JWT_SECRET", ""),
		SessionTTL:        getEnvAsDuration("SESSION_TTL", 12*time.Hour),
		SessionStore:      strings.ToLower(strings.TrimSpace(getEnv("SESSION_STORE", "memory"))),
		CookieSecure:      getEnvAsBool("COOKIE_SECURE", true),
		RedisAddr:         getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisTLS:          getEnvAsBool("REDIS_TLS", false),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		SubmitRatePerMin:   getEnvAsInt("SUBMIT_RATE_PER_MIN", 6),
		SubmitBurst:        getEnvAsInt("SUBMIT_BURST", 3),
		LoginRatePerMin:    getEnvAsInt("LOGIN_RATE_PER_MIN", 10),
		LoginBurst:         getEnvAsInt("LOGIN_BURST", 5),
		TrustProxyHeaders:  getEnvAsBool("TRUST_PROXY_HEADERS", false),
	}
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
