package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Port              string
	DatabaseURL       string
	SessionSecret     string
	GinMode           string
	LogLevel          string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	DBMaxRetries      int
	NotificationLimit int
}

const defaultDSN = "host=localhost user=postgres password=postgres dbname=mangareader port=5432 sslmode=disable TimeZone=UTC"

// Load 读取 .env 与环境变量，缺省值在这里统一设置
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, reading configuration from environment")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", defaultDSN)
	v.SetDefault("SESSION_SECRET", "secret_key_change_me")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DB_MAX_RETRIES", 3)
	v.SetDefault("NOTIFICATION_LIMIT", 50)

	return &Config{
		Port:              v.GetString("PORT"),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		SessionSecret:     v.GetString("SESSION_SECRET"),
		GinMode:           v.GetString("GIN_MODE"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisDB:           v.GetInt("REDIS_DB"),
		DBMaxRetries:      v.GetInt("DB_MAX_RETRIES"),
		NotificationLimit: v.GetInt("NOTIFICATION_LIMIT"),
	}
}

// SetupLogger configures the global logrus logger.
func (c *Config) SetupLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.Warnf("Unknown LOG_LEVEL %q, falling back to info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
