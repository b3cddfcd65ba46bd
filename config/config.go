package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/milanenterprises/cleancare-backend/pkg/pricing"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Upload    UploadConfig
	S3        S3Config
	Shop      ShopConfig
	Pricing   PricingConfig
	Scheduler SchedulerConfig
	Guest     GuestConfig
}

type ServerConfig struct {
	Port          string
	GinMode       string
	Environment   string
	PublicBaseURL string
}

func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == "development"
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	RequestsPerMinute     int
	AuthRequestsPerMinute int
}

type UploadConfig struct {
	Driver      string // local, s3
	Dir         string
	MaxFileSize int64
	MaxFiles    int
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type ShopConfig struct {
	StoreName         string
	WhatsAppNumber    string
	CurrencySymbol    string
	OrderNumberPrefix string
}

type PricingConfig struct {
	FreeShippingThreshold float64
	FlatShippingFee       float64
	TaxRate               float64
}

func (p PricingConfig) Rules() pricing.Rules {
	return pricing.Rules{
		FreeShippingThreshold: p.FreeShippingThreshold,
		FlatShippingFee:       p.FlatShippingFee,
		TaxRate:               p.TaxRate,
	}
}

type SchedulerConfig struct {
	Enabled         bool
	CouponSweepCron string
	LowStockCron    string
}

// GuestConfig controls where anonymous cart and wishlist state lives when Redis is disabled
type GuestConfig struct {
	StateDir string
	TTL      time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8080"),
			GinMode:       getEnv("GIN_MODE", "debug"),
			Environment:   getEnv("ENVIRONMENT", "development"),
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "cleancare"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "change-me-in-production"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "168h"), 7*24*time.Hour),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "720h"), 30*24*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Redis: RedisConfig{
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "false")),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute:     parseInt(getEnv("RATE_LIMIT_PER_MINUTE", "120"), 120),
			AuthRequestsPerMinute: parseInt(getEnv("AUTH_RATE_LIMIT_PER_MINUTE", "10"), 10),
		},
		Upload: UploadConfig{
			Driver:      strings.ToLower(getEnv("UPLOAD_DRIVER", "local")),
			Dir:         getEnv("UPLOAD_DIR", "uploads"),
			MaxFileSize: int64(parseInt(getEnv("MAX_FILE_SIZE", "5242880"), 5*1024*1024)),
			MaxFiles:    parseInt(getEnv("MAX_UPLOAD_FILES", "5"), 5),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-south-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "cleancare-uploads"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         strings.TrimRight(getEnv("AWS_S3_BASE_URL", ""), "/"),
		},
		Shop: ShopConfig{
			StoreName:         getEnv("STORE_NAME", "Milan Enterprises"),
			WhatsAppNumber:    getEnv("WHATSAPP_NUMBER", "919284992154"),
			CurrencySymbol:    getEnv("CURRENCY_SYMBOL", "₹"),
			OrderNumberPrefix: getEnv("ORDER_NUMBER_PREFIX", "CC"),
		},
		Pricing: PricingConfig{
			FreeShippingThreshold: parseFloat(getEnv("FREE_SHIPPING_THRESHOLD", "50"), 50),
			FlatShippingFee:       parseFloat(getEnv("FLAT_SHIPPING_FEE", "5.99"), 5.99),
			TaxRate:               parseFloat(getEnv("TAX_RATE", "0.08"), 0.08),
		},
		Scheduler: SchedulerConfig{
			Enabled:         parseBool(getEnv("SCHEDULER_ENABLED", "true")),
			CouponSweepCron: getEnv("COUPON_SWEEP_CRON", "0 3 * * *"),
			LowStockCron:    getEnv("LOW_STOCK_CRON", "0 8 * * *"),
		},
		Guest: GuestConfig{
			StateDir: getEnv("GUEST_STATE_DIR", "data/guest"),
			TTL:      parseDuration(getEnv("GUEST_STATE_TTL", "720h"), 30*24*time.Hour),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Upload.Driver != "local" && c.Upload.Driver != "s3" {
		return fmt.Errorf("UPLOAD_DRIVER must be local or s3, got %q", c.Upload.Driver)
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive")
	}
	if !c.Server.IsDevelopment() && c.JWT.Secret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET must be set outside development")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		log.Printf("Invalid number %s, using default %v", s, fallback)
		return fallback
	}
	return f
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

func parseSlice(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
