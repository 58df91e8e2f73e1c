package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// WAROUTER_ROUTING_ANTI_LOOP_WINDOW=10m.
const EnvPrefix = "WAROUTER"

// Load builds the configuration from, in increasing priority:
// 1. Default values
// 2. the config file at path (optional; config.yaml in the working dir when empty)
// 3. .env and WAROUTER_* environment variables
func Load(path string) (*Config, error) {
	// .env is optional, OS environment wins
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if err := loadConfig(v, path); err != nil {
		return nil, fmt.Errorf("%w: failed to load config file: %v", ErrConfiguration, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = legacyDSN()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

func loadConfig(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return err
		}
		// Config file not found is okay, we'll use defaults
	}
	return nil
}

// legacyDSN composes a Postgres DSN from the DB_* variables older
// deployments set. Empty when DB_HOST is unset.
func legacyDSN() string {
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), host, port, os.Getenv("DB_NAME"),
	)
}

// setDefaults registers every key, which also makes it reachable through
// AutomaticEnv during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)

	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	v.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)

	v.SetDefault("database.driver", DefaultDBDriver)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", DefaultDBMaxOpenConns)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("queue.backend", DefaultQueueBackend)
	v.SetDefault("queue.amqp_url", "")
	v.SetDefault("queue.max_retries", DefaultQueueMaxRetries)

	v.SetDefault("routing.anti_loop_window", DefaultAntiLoopWindow)
	v.SetDefault("routing.history_window", DefaultHistoryWindow)
	v.SetDefault("routing.dedupe_window", DefaultDedupeWindow)

	v.SetDefault("whatsapp.base_url", DefaultWhatsAppBaseURL)
	v.SetDefault("whatsapp.phone_number_id", "")
	v.SetDefault("whatsapp.token", "")
	v.SetDefault("whatsapp.token_parameter", "")
	v.SetDefault("whatsapp.app_secret", "")
	v.SetDefault("whatsapp.app_secret_parameter", "")
	v.SetDefault("whatsapp.verify_token", "")
	v.SetDefault("whatsapp.timeout", DefaultWhatsAppTimeout)
	v.SetDefault("whatsapp.rate_per_second", DefaultWhatsAppRate)
	v.SetDefault("whatsapp.burst", DefaultWhatsAppBurst)

	v.SetDefault("aws.region", "")

	v.SetDefault("storage.audio_bucket", DefaultAudioBucket)
	v.SetDefault("storage.media_bucket", DefaultMediaBucket)
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("storage.timeout", DefaultStorageTimeout)

	v.SetDefault("media.enabled", false)
	v.SetDefault("media.max_bytes", DefaultMediaMaxBytes)
	v.SetDefault("media.thumbnail_width", DefaultThumbnailWidth)
	v.SetDefault("media.transcription_url", "")
	v.SetDefault("media.transcription_timeout", DefaultTranscriptionTimeout)
	v.SetDefault("media.transcription_budget", DefaultTranscriptionBudget)

	v.SetDefault("webhooks.secret", "")
	v.SetDefault("webhooks.timeout", DefaultWebhookTimeout)
	v.SetDefault("webhooks.ingestion_default", "")
}
