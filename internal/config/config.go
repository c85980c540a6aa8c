package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string

	Server        ServerConfig
	Session       SessionConfig
	Redis         RedisConfig
	Scylla        ScyllaConfig
	Kafka         KafkaConfig
	Clickhouse    ClickhouseConfig
	Elasticsearch ElasticsearchConfig
	Provider      ProviderConfig
	Resend        ResendConfig
	KMS           KMSConfig
	Hashing       HashingConfig
	Logging       LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Public URLs of the surrounding deployment, surfaced in responses and
	// used as the webhook forwarding target.
	APIURL  string
	DocsURL string

	// The backoffice surface can be switched off entirely; its routes then
	// answer 404 regardless of credentials.
	BackofficeEnabled bool

	EnableTLS   bool
	TLSPort     int
	AutoCert    bool
	AutoCertDir string
	Domain      string
	CertFile    string
	KeyFile     string
	Email       string
}

type SessionConfig struct {
	// Secret signs session cookie tokens for both cookie namespaces.
	Secret string
	// TTL of dashboard/admin and backoffice sessions.
	DashboardTTL  time.Duration
	BackofficeTTL time.Duration
	// Lifetime of an impersonation token, and how long an ended session is
	// retained so a second end can be told apart from an unknown token.
	ImpersonationTTL       time.Duration
	ImpersonationRetention time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

type ScyllaConfig struct {
	Nodes    []string
	Keyspace string
	Username string
	Password string
	// Partition bucket counts for the wide-row tables and the audit stream.
	UserBuckets  int
	EventBuckets int
}

type KafkaConfig struct {
	Brokers []string
	// Topic carrying payment/security events emitted by the gateway.
	EventsTopic string
}

type ClickhouseConfig struct {
	URL      string
	Database string
	Username string
	Password string
}

type ElasticsearchConfig struct {
	URL       string
	Username  string
	Password  string
	UserIndex string
}

// ProviderConfig points at the third-party cash-in provider API.
type ProviderConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type ResendConfig struct {
	APIKey    string
	FromEmail string
}

type KMSConfig struct {
	Enabled bool
	KeyID   string
	Region  string
}

type HashingConfig struct {
	Argon2MemoryCost  int
	Argon2TimeCost    int
	Argon2Parallelism int
	Pepper            string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from the environment. A .env file is honored when
// present so local runs match the container setup.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:              getEnv("SERVER_HOST", "0.0.0.0"),
			Port:              getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:       getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:      getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			APIURL:            getEnv("API_URL", "http://localhost:8080"),
			DocsURL:           getEnv("DOCS_URL", ""),
			BackofficeEnabled: getEnvBool("BACKOFFICE_ENABLED", true),
			EnableTLS:         getEnvBool("ENABLE_TLS", false),
			TLSPort:           getEnvInt("TLS_PORT", 8443),
			AutoCert:          getEnvBool("AUTO_CERT", false),
			AutoCertDir:       getEnv("AUTO_CERT_DIR", "/var/cache/autocert"),
			Domain:            getEnv("SERVER_DOMAIN", ""),
			CertFile:          getEnv("TLS_CERT_FILE", ""),
			KeyFile:           getEnv("TLS_KEY_FILE", ""),
			Email:             getEnv("TLS_CONTACT_EMAIL", ""),
		},
		Session: SessionConfig{
			Secret:                 getEnv("SESSION_SECRET", ""),
			DashboardTTL:           getEnvDuration("SESSION_DASHBOARD_TTL", 24*time.Hour),
			BackofficeTTL:          getEnvDuration("SESSION_BACKOFFICE_TTL", 8*time.Hour),
			ImpersonationTTL:       getEnvDuration("IMPERSONATION_TTL", 30*time.Minute),
			ImpersonationRetention: getEnvDuration("IMPERSONATION_RETENTION", 24*time.Hour),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 50),
		},
		Scylla: ScyllaConfig{
			Nodes:        splitList(getEnv("SCYLLA_NODES", "localhost:9042")),
			Keyspace:     getEnv("SCYLLA_KEYSPACE", "pixgate"),
			Username:     getEnv("SCYLLA_USERNAME", ""),
			Password:     getEnv("SCYLLA_PASSWORD", ""),
			UserBuckets:  getEnvInt("SCYLLA_USER_BUCKETS", 32),
			EventBuckets: getEnvInt("SCYLLA_EVENT_BUCKETS", 64),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			EventsTopic: getEnv("KAFKA_EVENTS_TOPIC", "pixgate-events"),
		},
		Clickhouse: ClickhouseConfig{
			URL:      getEnv("CLICKHOUSE_URL", "localhost:9000"),
			Database: getEnv("CLICKHOUSE_DATABASE", "pixgate"),
			Username: getEnv("CLICKHOUSE_USERNAME", "default"),
			Password: getEnv("CLICKHOUSE_PASSWORD", ""),
		},
		Elasticsearch: ElasticsearchConfig{
			URL:       getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
			UserIndex: getEnv("ELASTICSEARCH_USER_INDEX", "pixgate-users"),
		},
		Provider: ProviderConfig{
			BaseURL: getEnv("PROVIDER_BASE_URL", ""),
			Token:   getEnv("PROVIDER_TOKEN", ""),
			Timeout: getEnvDuration("PROVIDER_TIMEOUT", 15*time.Second),
		},
		Resend: ResendConfig{
			APIKey:    getEnv("RESEND_API_KEY", ""),
			FromEmail: getEnv("RESEND_FROM_EMAIL", ""),
		},
		KMS: KMSConfig{
			Enabled: getEnvBool("KMS_ENABLED", false),
			KeyID:   getEnv("KMS_KEY_ID", ""),
			Region:  getEnv("AWS_REGION", "us-east-1"),
		},
		Hashing: HashingConfig{
			Argon2MemoryCost:  getEnvInt("ARGON2_MEMORY_COST", 64*1024),
			Argon2TimeCost:    getEnvInt("ARGON2_TIME_COST", 3),
			Argon2Parallelism: getEnvInt("ARGON2_PARALLELISM", 2),
			Pepper:            getEnv("HASHING_PEPPER", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.IsProduction() && c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}
	if c.Session.Secret == "" {
		c.Session.Secret = "dev-only-session-secret"
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %d", c.Server.Port)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
