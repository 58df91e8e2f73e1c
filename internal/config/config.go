// Package config builds the single Config value the service runs with.
package config

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrConfiguration wraps every load or validation failure.
var ErrConfiguration = errors.New("configuration error")

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultServerAddr            = ":8080"
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 30 * time.Second
	DefaultServerShutdownTimeout = 20 * time.Second

	DefaultDBDriver       = "postgres"
	DefaultDBMaxOpenConns = 10

	DefaultQueueBackend    = "memory"
	DefaultQueueMaxRetries = 3

	DefaultAntiLoopWindow = 15 * time.Minute
	DefaultHistoryWindow  = 10
	DefaultDedupeWindow   = 10 * time.Minute

	DefaultWhatsAppBaseURL = "https://graph.facebook.com/v21.0"
	DefaultWhatsAppTimeout = 10 * time.Second
	DefaultWhatsAppRate    = 20.0
	DefaultWhatsAppBurst   = 5

	DefaultStorageTimeout = 30 * time.Second
	DefaultAudioBucket    = "whatsapp-audio"
	DefaultMediaBucket    = "whatsapp-media"

	DefaultMediaMaxBytes        = 16 * 1024 * 1024
	DefaultThumbnailWidth       = 320
	DefaultTranscriptionTimeout = 60 * time.Second
	DefaultTranscriptionBudget  = 5 * time.Second
	DefaultWebhookTimeout       = 10 * time.Second
)

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Routing  RoutingConfig  `mapstructure:"routing"`
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Media    MediaConfig    `mapstructure:"media"`
	Webhooks WebhookConfig  `mapstructure:"webhooks"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	DSN          string `mapstructure:"dsn" validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type QueueConfig struct {
	Backend    string `mapstructure:"backend" validate:"oneof=memory amqp"`
	AMQPURL    string `mapstructure:"amqp_url" validate:"required_if=Backend amqp"`
	MaxRetries int    `mapstructure:"max_retries" validate:"gte=0"`
}

// RoutingConfig tunes the message processor.
type RoutingConfig struct {
	AntiLoopWindow time.Duration `mapstructure:"anti_loop_window" validate:"gte=0"`
	HistoryWindow  int           `mapstructure:"history_window" validate:"gte=1"`
	DedupeWindow   time.Duration `mapstructure:"dedupe_window" validate:"gte=0"`
}

type WhatsAppConfig struct {
	BaseURL            string        `mapstructure:"base_url" validate:"required,url"`
	PhoneNumberID      string        `mapstructure:"phone_number_id"`
	Token              string        `mapstructure:"token"`
	TokenParameter     string        `mapstructure:"token_parameter"`
	AppSecret          string        `mapstructure:"app_secret"`
	AppSecretParameter string        `mapstructure:"app_secret_parameter"`
	VerifyToken        string        `mapstructure:"verify_token"`
	Timeout            time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RatePerSecond      float64       `mapstructure:"rate_per_second" validate:"gt=0"`
	Burst              int           `mapstructure:"burst" validate:"gte=1"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

type StorageConfig struct {
	AudioBucket   string        `mapstructure:"audio_bucket" validate:"required"`
	MediaBucket   string        `mapstructure:"media_bucket" validate:"required"`
	PublicBaseURL string        `mapstructure:"public_base_url" validate:"omitempty,url"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type MediaConfig struct {
	Enabled              bool          `mapstructure:"enabled"`
	MaxBytes             int64         `mapstructure:"max_bytes" validate:"gt=0"`
	ThumbnailWidth       int           `mapstructure:"thumbnail_width" validate:"gt=0"`
	TranscriptionURL     string        `mapstructure:"transcription_url" validate:"omitempty,url"`
	TranscriptionTimeout time.Duration `mapstructure:"transcription_timeout" validate:"gt=0"`
	// TranscriptionBudget is how long a message waits for its transcript
	// before it is stored and answered without one.
	TranscriptionBudget time.Duration `mapstructure:"transcription_budget" validate:"gt=0,ltefield=TranscriptionTimeout"`
}

// WebhookConfig holds the automation endpoints, keyed by area slug
// (administracion, alumnos, ventas, comunidad, router-default).
type WebhookConfig struct {
	Secret           string            `mapstructure:"secret"`
	Timeout          time.Duration     `mapstructure:"timeout" validate:"gt=0"`
	Ingestion        map[string]string `mapstructure:"ingestion" validate:"dive,omitempty,url"`
	IngestionDefault string            `mapstructure:"ingestion_default" validate:"omitempty,url"`
	Derivation       map[string]string `mapstructure:"derivation" validate:"dive,omitempty,url"`
}

// Validate checks struct tags.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// WhatsAppEnabled reports whether outbound replies can be sent.
func (c *Config) WhatsAppEnabled() bool {
	return c.WhatsApp.Token != "" && c.WhatsApp.PhoneNumberID != ""
}
