package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `env:"ENV" env-default:"local"`
	DatabaseURL string `env:"DATABASE_URL" env-required:"true"`
	HTTP        HTTPConfig
	TokenTTL    time.Duration `env:"TOKEN_TTL" env-default:"24h"`
	Secret      string        `env:"SECRET" env-required:"true"`
	Docstore    DocstoreConfig
	Sirene      SireneConfig
	SMS         SMSConfig
	Mailer      MailerConfig
	Payment     PaymentConfig
	Matching    MatchingConfig
	Watcher     WatcherConfig
}

type HTTPConfig struct {
	Port         int           `env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"120s"`
	// AllowedOrigins feeds the CORS middleware; "*" in local env.
	AllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" env-default:"*"`
}

// DocstoreConfig configures the S3-compatible store holding KBIS and
// insurance documents.
type DocstoreConfig struct {
	Enabled   bool   `env:"DOCSTORE_ENABLE" env-default:"false"`
	Endpoint  string `env:"DOCSTORE_ENDPOINT"`
	Bucket    string `env:"DOCSTORE_BUCKET" env-default:"artisan-documents"`
	AccessKey string `env:"DOCSTORE_ACCESS_KEY"`
	SecretKey string `env:"DOCSTORE_SECRET_KEY"`
	UseSSL    bool   `env:"DOCSTORE_USE_SSL" env-default:"false"`
}

// SireneConfig configures the public SIRENE business-registry API used for
// SIRET verification.
type SireneConfig struct {
	Enabled bool          `env:"SIRENE_ENABLE" env-default:"false"`
	BaseURL string        `env:"SIRENE_BASE_URL" env-default:"https://api.insee.fr/entreprises/sirene/V3.11"`
	APIKey  string        `env:"SIRENE_API_KEY"`
	Timeout time.Duration `env:"SIRENE_TIMEOUT" env-default:"15s"`
}

// SMSConfig configures the SMS gateway.
type SMSConfig struct {
	Enabled    bool          `env:"SMS_ENABLE" env-default:"false"`
	BaseURL    string        `env:"SMS_BASE_URL"`
	APIKey     string        `env:"SMS_API_KEY"`
	FromNumber string        `env:"SMS_FROM_NUMBER"`
	Timeout    time.Duration `env:"SMS_TIMEOUT" env-default:"15s"`
}

// MailerConfig configures the SMTP sender.
type MailerConfig struct {
	Enabled  bool   `env:"MAILER_ENABLE" env-default:"false"`
	Host     string `env:"MAILER_HOST"`
	Port     int    `env:"MAILER_PORT" env-default:"587"`
	Username string `env:"MAILER_USERNAME"`
	Password string `env:"MAILER_PASSWORD"`
	From     string `env:"MAILER_FROM" env-default:"no-reply@artisandispo.fr"`
}

// PaymentConfig configures the payment provider client.
type PaymentConfig struct {
	Enabled bool          `env:"PAYMENT_ENABLE" env-default:"false"`
	BaseURL string        `env:"PAYMENT_BASE_URL"`
	APIKey  string        `env:"PAYMENT_API_KEY"`
	Timeout time.Duration `env:"PAYMENT_TIMEOUT" env-default:"30s"`
}

// MatchingConfig tunes the matching engine surroundings (candidate pool
// fetch and result caps, not the scoring itself).
type MatchingConfig struct {
	// CandidateLimit caps the candidate pool fetched per search.
	CandidateLimit int `env:"MATCHING_CANDIDATE_LIMIT" env-default:"200"`
	// MaxResults caps the ranked list returned to the caller.
	MaxResults int `env:"MATCHING_MAX_RESULTS" env-default:"50"`
}

// WatcherConfig tunes the notification watcher. The interval is fixed; the
// watcher re-polls pending records each tick, with no backoff.
type WatcherConfig struct {
	Interval  time.Duration `env:"WATCHER_INTERVAL" env-default:"30s"`
	BatchSize int           `env:"WATCHER_BATCH_SIZE" env-default:"50"`
}

func MustLoad() *Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("cannot read config from environment: " + err.Error())
	}
	return &cfg
}
