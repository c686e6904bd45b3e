package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"nihilism-server/internal/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

const (
	StoreTypeFile     = "file"
	StoreTypePostgres = "postgres"
	StoreTypeRedis    = "redis"

	AIClientOpenAI = "openai"
	AIClientOllama = "ollama"
)

// Config is the whole server configuration.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:""`

	// HTTP server
	ServerHost         string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	ServerPort         string        `envconfig:"SERVER_PORT" default:"3001"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	ReadTimeout        time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout       time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"90s"`
	ShutdownTimeout    time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`

	// Snapshot storage
	StoreType string `envconfig:"STORE_TYPE" default:"file"`
	DataDir   string `envconfig:"DATA_DIR" default:"data/players"`

	// PostgreSQL (STORE_TYPE=postgres)
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"nihilism"`
	DBName        string        `envconfig:"DB_NAME" default:"nihilism"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int32         `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	DBPassword    string        `ignored:"true"` // secret: db_password

	// Redis (STORE_TYPE=redis)
	RedisAddr      string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`
	RedisKeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"nihilism:"`
	RedisPassword  string `ignored:"true"` // secret: redis_password, optional

	// Domain events; disabled when RABBITMQ_URL is empty
	RabbitMQURL    string `envconfig:"RABBITMQ_URL" default:""`
	EventsExchange string `envconfig:"EVENTS_EXCHANGE" default:"loop_events"`

	// Narrative generator
	AIClientType  string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIBaseURL     string        `envconfig:"AI_BASE_URL" default:"http://localhost:8080/v1"`
	AIAPIKey      string        `envconfig:"AI_API_KEY" default:"sk-none"` // overridden by the ai_api_key secret
	AIModel       string        `envconfig:"AI_MODEL" default:"gpt-4"`
	AITimeout     time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
	AITemperature float64       `envconfig:"AI_TEMPERATURE" default:"0.8"`
	AIMaxTokens   int           `envconfig:"AI_MAX_TOKENS" default:"500"`

	// Auto-save
	AutoSaveEnabled         bool `envconfig:"AUTOSAVE_ENABLED" default:"true"`
	AutoSaveIntervalChoices int  `envconfig:"AUTOSAVE_INTERVAL_CHOICES" default:"3"`

	SecretsDir string `envconfig:"SECRETS_DIR" default:"/run/secrets"`
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.StoreType {
	case StoreTypeFile, StoreTypePostgres, StoreTypeRedis:
	default:
		return fmt.Errorf("unknown STORE_TYPE %q", c.StoreType)
	}
	switch strings.ToLower(c.AIClientType) {
	case AIClientOpenAI, AIClientOllama:
	default:
		return fmt.Errorf("unknown AI_CLIENT_TYPE %q", c.AIClientType)
	}
	if c.AutoSaveEnabled && c.AutoSaveIntervalChoices <= 0 {
		return fmt.Errorf("AUTOSAVE_INTERVAL_CHOICES must be positive, got %d", c.AutoSaveIntervalChoices)
	}
	if c.AIMaxTokens <= 0 {
		return fmt.Errorf("AI_MAX_TOKENS must be positive, got %d", c.AIMaxTokens)
	}
	if c.StoreType == StoreTypePostgres && c.DBPassword == "" {
		return errors.New("db_password secret is required for the postgres store")
	}
	return nil
}

// LoadConfig reads an optional .env file, the environment and Docker secrets.
// A missing env file is not an error.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.loadSecrets(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadSecrets fills secret fields. Only db_password is mandatory, and only for
// the postgres store; that is checked by Validate.
func (c *Config) loadSecrets() error {
	optional := []struct {
		name string
		dst  *string
	}{
		{"db_password", &c.DBPassword},
		{"redis_password", &c.RedisPassword},
		{"ai_api_key", &c.AIAPIKey},
	}
	for _, s := range optional {
		v, err := utils.ReadSecretFrom(c.SecretsDir, s.name)
		if err != nil {
			if errors.Is(err, utils.ErrSecretNotFound) {
				continue
			}
			return err
		}
		*s.dst = v
	}
	return nil
}

// LogFields describes the configuration without secrets.
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("env", c.Env),
		zap.String("addr", c.Addr()),
		zap.String("storeType", c.StoreType),
		zap.String("dataDir", c.DataDir),
		zap.String("dbDSN", fmt.Sprintf("postgres://%s:***@%s:%s/%s?sslmode=%s", c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)),
		zap.String("redisAddr", c.RedisAddr),
		zap.Bool("eventsEnabled", c.RabbitMQURL != ""),
		zap.String("eventsExchange", c.EventsExchange),
		zap.String("aiClientType", c.AIClientType),
		zap.String("aiBaseURL", c.AIBaseURL),
		zap.String("aiModel", c.AIModel),
		zap.Duration("aiTimeout", c.AITimeout),
		zap.Bool("autoSave", c.AutoSaveEnabled),
		zap.Int("autoSaveInterval", c.AutoSaveIntervalChoices),
	}
}
