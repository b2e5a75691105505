package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
	MaxBodyBytes       int64

	// Business identity used in email templates and as the lead recipient.
	BusinessName  string
	BusinessEmail string
	BusinessPhone string

	// Mail transport
	MailProvider         string
	EmailUser            string
	EmailPass            string
	EmailFromName        string
	SMTPHost             string
	SMTPPort             string
	GmailCredentialsJSON string
	SendGridAPIKey       string
	EmailSendTimeout     time.Duration
	EmailTestEnabled     bool

	// AWS (SES transport, Bedrock chat)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Chat assistant
	ChatProvider   string
	ChatTimeout    time.Duration
	OpenAIAPIKey   string
	OpenAIModel    string
	BedrockModelID string
	GeminiAPIKey   string
	GeminiModelID  string

	// LambdaEventFormat selects the API Gateway payload version, "v1" or "v2".
	LambdaEventFormat string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real environment
// variables win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		MaxBodyBytes:       int64(getEnvAsInt("MAX_BODY_BYTES", 64<<10)),

		BusinessName:  getEnv("BUSINESS_NAME", "Mulambwane Wildlife & Hunting Safaris"),
		BusinessEmail: strings.TrimSpace(getEnv("BUSINESS_EMAIL", "")),
		BusinessPhone: getEnv("BUSINESS_PHONE", "+27 73 342 6833"),

		MailProvider:         strings.ToLower(strings.TrimSpace(getEnv("MAIL_PROVIDER", "smtp"))),
		EmailUser:            strings.TrimSpace(getEnv("EMAIL_USER", "")),
		EmailPass:            getEnv("EMAIL_PASS", ""),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", "Mulambwane Safaris"),
		SMTPHost:             getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:             getEnv("SMTP_PORT", "587"),
		GmailCredentialsJSON: getEnv("GMAIL_CREDENTIALS_JSON", ""),
		SendGridAPIKey:       getEnv("SENDGRID_API_KEY", ""),
		EmailSendTimeout:     getEnvAsDuration("EMAIL_SEND_TIMEOUT", 10*time.Second),
		EmailTestEnabled:     getEnvAsBool("EMAIL_TEST_ENABLED", false),

		AWSRegion:           getEnv("AWS_REGION", "af-south-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		ChatProvider:   strings.ToLower(strings.TrimSpace(getEnv("CHAT_PROVIDER", "openai"))),
		ChatTimeout:    getEnvAsDuration("CHAT_TIMEOUT", 15*time.Second),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:  getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		LambdaEventFormat: strings.ToLower(getEnv("LAMBDA_EVENT_FORMAT", "v1")),
	}
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

// getEnvAsList splits a comma separated variable, dropping blank entries.
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
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
