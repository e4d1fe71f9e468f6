package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	Catalog  CatalogConfig
	Storage  StorageConfig
	Password PasswordConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPVISTA_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPVISTA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPVISTA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPVISTA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// CatalogConfig points at the remote product/order collection service.
type CatalogConfig struct {
	BaseURL string        `envconfig:"SHOPVISTA_CATALOG_BASE_URL" default:"http://localhost:5000"`
	Timeout time.Duration `envconfig:"SHOPVISTA_CATALOG_TIMEOUT" default:"10s"`
}

// StorageConfig locates the durable key-value store file.
type StorageConfig struct {
	Path string `envconfig:"SHOPVISTA_STORAGE_PATH" default:"shopvista.db"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHOPVISTA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHOPVISTA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHOPVISTA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHOPVISTA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHOPVISTA_ARGON_KEY_LEN" default:"32"`
}
