package config

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string

	JWTKey         []byte
	JWTExp         time.Duration
	ActionTokenTTL time.Duration
	BcryptCost     int

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	FrontendURL string

	SMTPHost   string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	SMTPSecure bool
	MailFrom   string

	CookieSameSite http.SameSite
	CookieSecure   bool
	CORSOrigins    []string

	AuthRateLimit       int
	AuthRateLimitWindow time.Duration
	DefaultPageSize     int

	LogJSON  bool
	LogLevel string
}

// Load reads the process environment (and a .env file when present) into a Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:        getEnv("API_PORT", "4444"),
		JWTKey:         []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:         time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 360)) * time.Hour,
		ActionTokenTTL: time.Duration(getEnvAsInt("ACTION_TOKEN_TTL_SECONDS", 1800)) * time.Second,
		BcryptCost:     getEnvAsInt("BCRYPT_COST", 10),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "user"),
		DBPassword:     getEnv("DB_PASSWORD", "password"),
		DBName:         getEnv("DB_NAME", "degenius_fx"),
		DBSslMode:      getEnv("DB_SSLMODE", "disable"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvAsInt("REDIS_DB", 0),
		FrontendURL:    strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPass:       getEnv("SMTP_PASS", ""),
		SMTPSecure:     getEnvAsBool("SMTP_SECURE", false),
		MailFrom:       getEnv("MAIL_FROM", "no-reply@degeniusfx.academy"),
		CookieSameSite: parseSameSite(getEnv("COOKIE_SAMESITE", "none")),
		CookieSecure:   getEnvAsBool("COOKIE_SECURE", true),
		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{
			"https://degeniusfxacademy.netlify.app",
			"http://localhost:5173",
		}),
		AuthRateLimit:       getEnvAsInt("AUTH_RATE_LIMIT", 0),
		AuthRateLimitWindow: time.Duration(getEnvAsInt("AUTH_RATE_LIMIT_WINDOW_MINUTES", 60)) * time.Minute,
		DefaultPageSize:     getEnvAsInt("DEFAULT_PAGE_SIZE", 10),
		LogJSON:             getEnvAsBool("LOG_JSON", true),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}

	if cfg.SMTPUser != "" && os.Getenv("MAIL_FROM") == "" {
		cfg.MailFrom = cfg.SMTPUser
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteNoneMode
	}
}
