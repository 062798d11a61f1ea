package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string
	Mode           string
	AllowedOrigins []string

	JWTSecret     string
	JWTExpiration time.Duration
	PasswordCost  int

	Database Database

	UploadMaxSize int64

	RedisURL          string
	PrincipalCacheTTL time.Duration

	MeiliHost   string
	MeiliAPIKey string

	Admin Admin

	LogLevel  string
	LogFormat string
}

type Database struct {
	Type     string
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	PoolSize int
}

type Admin struct {
	Username string
	Email    string
	Password string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("cors.allowed_origins", "*")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", 86400000)
	v.SetDefault("password.cost", 10)

	v.SetDefault("database.type", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "telros")
	v.SetDefault("database.pool_size", 10)

	v.SetDefault("upload.max_size", 5*1024*1024)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.principal_ttl", "1m")

	v.SetDefault("meili.host", "")
	v.SetDefault("meili.api_key", "")

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.email", "admin@example.com")
	v.SetDefault("admin.password", "admin")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads .env, an optional config.yaml and the environment, in that
// order of increasing precedence. JWT_SECRET overrides jwt.secret and so on.
func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:           v.GetString("server.port"),
		Mode:           v.GetString("server.mode"),
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),

		JWTSecret:     v.GetString("jwt.secret"),
		JWTExpiration: time.Duration(v.GetInt64("jwt.expiration")) * time.Millisecond,
		PasswordCost:  v.GetInt("password.cost"),

		Database: Database{
			Type:     strings.ToLower(v.GetString("database.type")),
			URL:      v.GetString("database.url"),
			Host:     v.GetString("database.host"),
			Port:     v.GetString("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			Name:     v.GetString("database.name"),
			PoolSize: v.GetInt("database.pool_size"),
		},

		UploadMaxSize: v.GetInt64("upload.max_size"),

		RedisURL:          v.GetString("redis.url"),
		PrincipalCacheTTL: v.GetDuration("redis.principal_ttl"),

		MeiliHost:   v.GetString("meili.host"),
		MeiliAPIKey: v.GetString("meili.api_key"),

		Admin: Admin{
			Username: v.GetString("admin.username"),
			Email:    v.GetString("admin.email"),
			Password: v.GetString("admin.password"),
		},

		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt.secret (JWT_SECRET) is required")
	}
	if cfg.JWTExpiration <= 0 {
		return nil, fmt.Errorf("invalid jwt.expiration: %d", v.GetInt64("jwt.expiration"))
	}
	if cfg.UploadMaxSize <= 0 {
		return nil, fmt.Errorf("invalid upload.max_size: %d", cfg.UploadMaxSize)
	}
	if cfg.Database.PoolSize <= 0 {
		cfg.Database.PoolSize = 10
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
