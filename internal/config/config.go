package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment    DeploymentConfig   `mapstructure:"deployment" validate:"required"`
	Server        ServerConfig       `mapstructure:"server" validate:"required"`
	Logging       LoggingConfig      `mapstructure:"logging" validate:"required"`
	Postgres      PostgresConfig     `mapstructure:"postgres" validate:"required"`
	Billing       BillingConfig      `mapstructure:"billing" validate:"required"`
	Stripe        StripeConfig       `mapstructure:"stripe"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Kafka         KafkaConfig        `mapstructure:"kafka"`
	Redis         RedisConfig        `mapstructure:"redis"`
	Temporal      TemporalConfig     `mapstructure:"temporal"`
	Sentry        SentryConfig       `mapstructure:"sentry"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	Cache         CacheConfig        `mapstructure:"cache"`
	S3            S3Config           `mapstructure:"s3"`
	Pyroscope     PyroscopeConfig    `mapstructure:"pyroscope"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
	// CronAPIKey guards the /cron routes, empty leaves them open
	CronAPIKey    string `mapstructure:"cron_api_key"`
	CronKeyHeader string `mapstructure:"cron_key_header"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host" validate:"required"`
	Port                   int    `mapstructure:"port" validate:"required"`
	User                   string `mapstructure:"user" validate:"required"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname" validate:"required"`
	SSLMode                string `mapstructure:"sslmode" validate:"required"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
	AutoMigrate            bool   `mapstructure:"auto_migrate"`
}

type StripeConfig struct {
	SecretKey string  `mapstructure:"secret_key"`
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	ClientID      string   `mapstructure:"client_id"`
	TLS           bool     `mapstructure:"tls"`
	UseSASL       bool     `mapstructure:"use_sasl"`
	SASLMechanism string   `mapstructure:"sasl_mechanism"`
	SASLUser      string   `mapstructure:"sasl_user"`
	SASLPassword  string   `mapstructure:"sasl_password"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

type TemporalConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Address    string `mapstructure:"address"`
	Namespace  string `mapstructure:"namespace"`
	TaskQueue  string `mapstructure:"task_queue"`
	APIKey     string `mapstructure:"api_key"`
	TLS        bool   `mapstructure:"tls"`
	ScheduleID string `mapstructure:"schedule_id"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type MetricsConfig struct {
	Namespace   string `mapstructure:"namespace"`
	PushGateway string `mapstructure:"push_gateway"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// S3Config archives finished run reports as JSON objects
type S3Config struct {
	Enabled   bool   `mapstructure:"enabled"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	KeyPrefix string `mapstructure:"key_prefix"`
	// Endpoint points at an S3 compatible store such as minio, empty for AWS
	Endpoint string `mapstructure:"endpoint"`
}

type PyroscopeConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	ServerAddress   string   `mapstructure:"server_address"`
	ApplicationName string   `mapstructure:"application_name"`
	BasicAuthUser   string   `mapstructure:"basic_auth_user"`
	BasicAuthPass   string   `mapstructure:"basic_auth_password"`
	SampleRate      uint32   `mapstructure:"sample_rate"`
	ProfileTypes    []string `mapstructure:"profile_types"`
}

// NewConfig loads the configuration from config.yaml, an optional .env file
// and LEASEBILL_* environment variables, in increasing order of precedence.
func NewConfig() (*Configuration, error) {
	// .env is a local development convenience, a missing file is fine
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/leasebill")

	v.SetEnvPrefix("LEASEBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, ierr.WithError(err).
				WithHint("Failed to read config file").
				Mark(ierr.ErrConfiguration)
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode configuration").
			Mark(ierr.ErrConfiguration)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can override keys absent from config.yaml
func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.cron_key_header", "x-api-key")
	v.SetDefault("logging.level", types.LogLevelInfo)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "leasebill")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "leasebill")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 30)
	v.SetDefault("postgres.auto_migrate", false)

	d := DefaultBillingConfig()
	v.SetDefault("billing.timezone", d.Timezone)
	v.SetDefault("billing.schedule_expression", d.ScheduleExpression)
	v.SetDefault("billing.max_retries", d.MaxRetries)
	v.SetDefault("billing.worker_pool_size", d.WorkerPoolSize)
	v.SetDefault("billing.page_size", d.PageSize)
	v.SetDefault("billing.base_delay", d.BaseDelay)
	v.SetDefault("billing.max_delay", d.MaxDelay)
	v.SetDefault("billing.run_timeout", d.RunTimeout)
	v.SetDefault("billing.due_days", d.DueDays)
	v.SetDefault("billing.proration", d.Proration)
	v.SetDefault("billing.fail_on_partial", d.FailOnPartial)
	v.SetDefault("billing.tenant_id", "")

	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.rate_limit", 20.0)
	v.SetDefault("stripe.rate_burst", 5)

	v.SetDefault("notifications.provider", types.NotificationProviderPubSub)
	v.SetDefault("notifications.on_invoice_created", false)
	v.SetDefault("notifications.topic", "lease_notifications")
	v.SetDefault("notifications.pubsub", types.MemoryPubSub)
	v.SetDefault("notifications.svix.base_url", "")
	v.SetDefault("notifications.svix.auth_token", "")
	v.SetDefault("notifications.http.endpoint", "")
	v.SetDefault("notifications.http.max_retries", 2)
	v.SetDefault("notifications.http.timeout", 10*time.Second)
	v.SetDefault("notifications.email.api_key", "")
	v.SetDefault("notifications.email.from_address", "")
	v.SetDefault("notifications.email.reply_to", "")

	v.SetDefault("kafka.brokers", []string{"localhost:29092"})
	v.SetDefault("kafka.client_id", "leasebill")
	v.SetDefault("kafka.tls", false)
	v.SetDefault("kafka.use_sasl", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", 25*time.Hour)

	v.SetDefault("temporal.enabled", false)
	v.SetDefault("temporal.address", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "leasebill-billing")
	v.SetDefault("temporal.schedule_id", "lease-billing-run")

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.sample_rate", 1.0)
	v.SetDefault("metrics.namespace", "leasebill")
	v.SetDefault("metrics.push_gateway", "")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 30*time.Minute)

	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.key_prefix", "billing-runs")
	v.SetDefault("s3.endpoint", "")

	v.SetDefault("pyroscope.enabled", false)
	v.SetDefault("pyroscope.server_address", "http://localhost:4040")
	v.SetDefault("pyroscope.application_name", "leasebill")
	v.SetDefault("pyroscope.basic_auth_user", "")
	v.SetDefault("pyroscope.basic_auth_password", "")
	v.SetDefault("pyroscope.sample_rate", 100)
	v.SetDefault("pyroscope.profile_types", []string{})
}

func (c *Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid configuration").
			Mark(ierr.ErrConfiguration)
	}
	if err := c.Billing.Validate(); err != nil {
		return err
	}
	if c.S3.Enabled && c.S3.Bucket == "" {
		return ierr.NewError("s3 bucket is missing").
			WithHint("Set s3.bucket when the run report archive is enabled").
			Mark(ierr.ErrConfiguration)
	}
	return c.Notifications.Validate()
}

// ValidateProvider checks the credentials needed to talk to the payment provider.
// It is separate from Validate so the migrate command can run without them.
func (c Configuration) ValidateProvider() error {
	if strings.TrimSpace(c.Stripe.SecretKey) == "" {
		return ierr.NewError("payment provider credential is missing").
			WithHint("Set stripe.secret_key or LEASEBILL_STRIPE_SECRET_KEY").
			Mark(ierr.ErrConfiguration)
	}
	return nil
}

// GetDefaultConfig returns a default configuration for local development and tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080", CronKeyHeader: "x-api-key"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Billing:    DefaultBillingConfig(),
		Notifications: NotificationConfig{
			Provider: types.NotificationProviderNone,
			Topic:    "lease_notifications",
			PubSub:   types.MemoryPubSub,
		},
		Metrics: MetricsConfig{Namespace: "leasebill"},
		Cache:   CacheConfig{Enabled: true, TTL: 30 * time.Minute},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
