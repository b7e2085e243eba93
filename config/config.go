package config

import "github.com/caarlos0/env/v6"

type Config struct {
	Server struct {
		Port string `env:"PORT" envDefault:"5250"`

		// Gin mode: debug, release or test
		GinMode string `env:"GIN_MODE" envDefault:"release"`

		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
	}

	Dataset struct {
		// CSV file or SQLite database holding the market listings
		Path string `env:"DATASET_PATH" envDefault:"data/base_mercado_qro.csv"`

		// Seconds between dataset fingerprint checks, 0 disables reloading
		ReloadInterval int `env:"DATASET_RELOAD_INTERVAL" envDefault:"0"`
	}

	Zones struct {
		// Optional YAML file with zone profile overrides
		File string `env:"ZONES_FILE"`
	}

	Estimator struct {
		// forest or ridge
		Kind string `env:"ESTIMATOR" envDefault:"forest"`

		Trees    int   `env:"FOREST_TREES" envDefault:"400"`
		MaxDepth int   `env:"FOREST_MAX_DEPTH" envDefault:"10"`
		MinLeaf  int   `env:"FOREST_MIN_LEAF" envDefault:"1"`
		Seed     int64 `env:"FOREST_SEED" envDefault:"42"`

		RidgeLambda float64 `env:"RIDGE_LAMBDA" envDefault:"1.0"`

		// Fit the sale price estimator as well as the rent estimator
		PriceEnabled bool `env:"PRICE_ESTIMATOR_ENABLED" envDefault:"true"`

		// Share of rows held out to report estimator quality at startup
		HoldoutFraction float64 `env:"ESTIMATOR_HOLDOUT" envDefault:"0.2"`
	}

	History struct {
		Enabled bool   `env:"HISTORY_ENABLED" envDefault:"true"`
		DBPath  string `env:"HISTORY_DB_PATH" envDefault:"database/history.db"`
	}

	// BatchProcessing configuration
	BatchProcessing struct {
		// Maximum number of evaluations to accumulate before persisting
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"100"`

		// Maximum time to wait before persisting a non-full batch (in seconds)
		MaxBatchWaitTime int `env:"BATCH_WAIT_TIME" envDefault:"30"`

		// Number of concurrent batch processors
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}

	Cache struct {
		// Redis address, empty disables the result cache
		RedisAddr     string `env:"REDIS_ADDR"`
		RedisPassword string `env:"REDIS_PASSWORD"`
		RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
		TTL           int    `env:"CACHE_TTL" envDefault:"600"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
