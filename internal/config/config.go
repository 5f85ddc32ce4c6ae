package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// insecureDefaultSecret は配布物のサンプル設定に含まれていた署名鍵。本番で使われないよう拒否する。
const insecureDefaultSecret = "1234567890"

// ErrInsecureJWTSecret はJWT_SECRETが既知の値の場合に返す。
var ErrInsecureJWTSecret = errors.New("JWT_SECRET must not be the well-known default value")

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Token
	JWTSecret   string
	TokenLeeway time.Duration

	// Password
	BcryptCost int

	// Environment
	AppEnv   string
	LogLevel string

	// Server
	ServerPort string

	// Cookie
	CookieSecure bool

	// CORS
	CORSAllowedOrigins []string // CORS_ALLOWED_ORIGINはカンマ区切りで複数指定できる

	// Seed
	SeedFile string // 空の場合は組み込みのフィクスチャを使う
}

// IsProduction は本番環境かどうかを返す。
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、またはJWT_SECRETが既知の値の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	if cfg.JWTSecret == insecureDefaultSecret {
		return nil, ErrInsecureJWTSecret
	}

	// Optional fields with defaults
	cfg.AppEnv = getEnvString("APP_ENV", "development")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGIN", []string{"http://localhost:3000"})
	cfg.TokenLeeway = getEnvDuration("TOKEN_LEEWAY", 0)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.SeedFile = getEnvString("SEED_FILE", "")
	cfg.CookieSecure = cfg.IsProduction()

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	var list []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}
	if len(list) == 0 {
		return defaultVal
	}
	return list
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}
