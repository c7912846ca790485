package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabaseDriver    string
	DatabasePath      string
	DatabaseURL       string
	SessionSecret     string
	GinMode           string
	StaticDir         string
	SiteID            uint
	TimeZone          string
	Location          *time.Location
	PostsPerPage      int
	SuperRootUserName string
	SuperRootPassword string
	SuperRootEmail    string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := envOr("PORT", "8080")

	listenAddr := envOr("LISTEN_ADDR", fmt.Sprintf(":%s", port))

	driver := strings.ToLower(envOr("DATABASE_DRIVER", DriverSQLite))
	if driver != DriverSQLite && driver != DriverPostgres {
		log.Printf("[config] unsupported DATABASE_DRIVER %q, falling back to %s", driver, DriverSQLite)
		driver = DriverSQLite
	}

	timeZone := envOr("TIME_ZONE", "UTC")
	location, err := time.LoadLocation(timeZone)
	if err != nil {
		log.Printf("[config] invalid TIME_ZONE %q, falling back to UTC: %v", timeZone, err)
		timeZone = "UTC"
		location = time.UTC
	}

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabaseDriver:    driver,
		DatabasePath:      envOr("DATABASE_PATH", "blogengine.db"),
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SessionSecret:     envOr("SESSION_SECRET", "blogengine-dev-secret"),
		GinMode:           envOr("GIN_MODE", "release"),
		StaticDir:         envOr("STATIC_DIR", "web/static"),
		SiteID:            uint(envPositiveInt("SITE_ID", 1)),
		TimeZone:          timeZone,
		Location:          location,
		PostsPerPage:      envPositiveInt("POSTS_PER_PAGE", 5),
		SuperRootUserName: strings.TrimSpace(os.Getenv("SUPER_ROOT_USER_NAME")),
		SuperRootPassword: strings.TrimSpace(os.Getenv("SUPER_ROOT_PASSWORD")),
		SuperRootEmail:    strings.TrimSpace(os.Getenv("SUPER_ROOT_EMAIL")),
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envPositiveInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		log.Printf("[config] invalid %s %q, falling back to %d", key, raw, fallback)
		return fallback
	}
	return value
}

// DatabaseDSN 返回当前驱动对应的连接串
func (c AppConfig) DatabaseDSN() string {
	if c.DatabaseDriver == DriverPostgres {
		return c.DatabaseURL
	}
	return c.DatabasePath
}
