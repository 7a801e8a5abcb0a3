package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config -- окруженческая часть конфигурации (секреты и адреса).
// Тюнинг синхронизации живет в yaml, см. appConfig.go.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Crypto   CryptoConfig
}

type ServerConfig struct {
	Port string `envconfig:"SERVER_PORT" default:"8080"`
	Env  string `envconfig:"APP_ENV" default:"development"`
}

type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type CryptoConfig struct {
	// ключ шифрования API-токенов кабинетов
	EncryptionKey string `envconfig:"ENCRYPTION_KEY" required:"true"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading env config: %w", err)
	}
	return &cfg, nil
}
