package cache

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Addr               string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password           string        `envconfig:"REDIS_PASSWORD"`
	DB                 int           `envconfig:"REDIS_DB" default:"0"`
	PoolSize           int           `envconfig:"REDIS_POOL_SIZE" default:"50"`
	DialTimeout        time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	EntryTTL           time.Duration `envconfig:"CACHE_ENTRY_TTL" default:"4h"`
	StalenessThreshold time.Duration `envconfig:"CACHE_STALENESS_THRESHOLD" default:"4h"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
