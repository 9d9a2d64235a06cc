package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppHost   string
	HTTPPort  string
	AppEnv    string
	LogLevel  string
	LogFormat string

	// JWTSecret: ключ подписи токенов идентичности (HS256).
	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	// AdminGroup: группа, члены которой изменяют категории.
	AdminGroup string
	// AllowAnonymousComplaints: можно ли подать жалобу без аутентификации.
	AllowAnonymousComplaints bool

	// MediaRoot: корень файлового хранилища вложений. Файлы отдаются только
	// через API с проверкой доступа к жалобе.
	MediaRoot      string
	MaxUploadBytes int64

	ProfileCacheSize int
	ProfileCacheTTL  time.Duration

	// SearchServiceURL: если задан, жалобы отправляются в search-service (POST /search/index/complaint).
	SearchServiceURL string

	KafkaBrokers        []string
	KafkaTopicComplaint string

	Redis struct {
		Addr     string
		Password string
		DB       int
		Channel  string

		// ScopeChannel: канал сброса кэша категорий AdminProfile между процессами.
		ScopeChannel string
	}

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		AppHost:   getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:  firstEnv("APP_PORT", "HTTP_PORT", "8098"),
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTIssuer:  getEnv("JWT_ISSUER", "complaint-service"),
		AdminGroup: getEnv("ADMIN_GROUP", "Administrators"),

		MediaRoot: getEnv("MEDIA_ROOT", "media"),

		SearchServiceURL:    getEnv("SEARCH_SERVICE_URL", ""),
		KafkaBrokers:        ParseList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopicComplaint: getEnv("KAFKA_TOPIC_COMPLAINT", "complaint.events"),
	}

	var err error
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AllowAnonymousComplaints, err = getBool("ALLOW_ANONYMOUS_COMPLAINTS", true); err != nil {
		return nil, err
	}
	if cfg.MaxUploadBytes, err = getInt64("MAX_UPLOAD_BYTES", 10<<20); err != nil {
		return nil, err
	}
	cacheSize, err := getInt64("PROFILE_CACHE_SIZE", 1024)
	if err != nil {
		return nil, err
	}
	cfg.ProfileCacheSize = int(cacheSize)
	if cfg.ProfileCacheTTL, err = getDuration("PROFILE_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	redisDB, err := getInt64("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.Redis.DB = int(redisDB)
	cfg.Redis.Channel = getEnv("REDIS_CHANNEL", "complaint.events")
	cfg.Redis.ScopeChannel = getEnv("REDIS_SCOPE_CHANNEL", "complaint.scope.invalidate")

	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "complaint_service")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.Host == "" || c.DB.Database == "" {
		return errors.New("config: DB_HOST and DB_DATABASE are required")
	}
	if c.AppEnv == "production" && c.DB.Password == "" {
		return errors.New("config: in production DB_PASSWORD is required")
	}
	if c.AppEnv == "production" && c.JWTSecret == "" {
		return errors.New("config: in production JWT_SECRET is required")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("config: MAX_UPLOAD_BYTES must be positive")
	}
	if c.ProfileCacheSize < 0 {
		return errors.New("config: PROFILE_CACHE_SIZE must not be negative")
	}
	return nil
}

// SigningSecret: секрет токенов; вне production допускается dev-значение.
func (c *Config) SigningSecret() string {
	if c.JWTSecret == "" {
		return "dev-insecure-secret"
	}
	return c.JWTSecret
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

// ParseList разбивает строку "a,b, c" на непустые элементы.
func ParseList(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func getInt64(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
