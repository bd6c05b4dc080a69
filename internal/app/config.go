package app

import (
	"strings"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/utils"
)

type Config struct {
	JWTSecretKey string
	CatalogPath  string
	RedisAddr    string
	AllowOrigins []string
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	catalogPath := utils.GetEnv("CATALOG_PATH", "", log)
	redisAddr := utils.GetEnv("REDIS_ADDR", "", log)

	var allowOrigins []string
	if raw := utils.GetEnv("CORS_ALLOW_ORIGINS", "", log); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				allowOrigins = append(allowOrigins, trimmed)
			}
		}
	}

	return Config{
		JWTSecretKey: jwtSecretKey,
		CatalogPath:  catalogPath,
		RedisAddr:    redisAddr,
		AllowOrigins: allowOrigins,
	}
}
