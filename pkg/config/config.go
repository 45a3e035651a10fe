package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	RateLimit     RateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	IPaymu        IPaymuConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NEOINTEGRA_APP_ENV" required:"true"`
	Port         string `envconfig:"NEOINTEGRA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"NEOINTEGRA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NEOINTEGRA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"NEOINTEGRA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"NEOINTEGRA_DB_DSN"`
	Driver string `envconfig:"NEOINTEGRA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"NEOINTEGRA_DB_HOST"`
	LegacyPort     int    `envconfig:"NEOINTEGRA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NEOINTEGRA_DB_USER"`
	LegacyPassword string `envconfig:"NEOINTEGRA_DB_PASSWORD"`
	LegacyName     string `envconfig:"NEOINTEGRA_DB_NAME"`
	LegacySSLMode  string `envconfig:"NEOINTEGRA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NEOINTEGRA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NEOINTEGRA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NEOINTEGRA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NEOINTEGRA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NEOINTEGRA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NEOINTEGRA_REDIS_ADDR"`
	Password     string        `envconfig:"NEOINTEGRA_REDIS_PASSWORD"`
	DB           int           `envconfig:"NEOINTEGRA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NEOINTEGRA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NEOINTEGRA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NEOINTEGRA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NEOINTEGRA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NEOINTEGRA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"NEOINTEGRA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"NEOINTEGRA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"NEOINTEGRA_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"NEOINTEGRA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"NEOINTEGRA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"NEOINTEGRA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"NEOINTEGRA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"NEOINTEGRA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"NEOINTEGRA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"NEOINTEGRA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"NEOINTEGRA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"NEOINTEGRA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"NEOINTEGRA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"NEOINTEGRA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// RateLimitConfig throttles authenticated write surfaces (order and payment creation).
type RateLimitConfig struct {
	Window    time.Duration `envconfig:"NEOINTEGRA_RATE_LIMIT_WINDOW" default:"1m"`
	UserLimit int           `envconfig:"NEOINTEGRA_RATE_LIMIT_USER_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"NEOINTEGRA_AUTO_MIGRATE" default:"false"`
}

// IPaymuConfig carries the payment gateway credentials and URLs.
type IPaymuConfig struct {
	VA         string        `envconfig:"NEOINTEGRA_IPAYMU_VA" required:"true"`
	APIKey     string        `envconfig:"NEOINTEGRA_IPAYMU_API_KEY" required:"true"`
	Production bool          `envconfig:"NEOINTEGRA_IPAYMU_PRODUCTION" default:"false"`
	NotifyURL  string        `envconfig:"NEOINTEGRA_IPAYMU_NOTIFY_URL" required:"true"`
	ReturnURL  string        `envconfig:"NEOINTEGRA_IPAYMU_RETURN_URL" required:"true"`
	Timeout    time.Duration `envconfig:"NEOINTEGRA_IPAYMU_TIMEOUT" default:"30s"`
	ExpiryHour int           `envconfig:"NEOINTEGRA_IPAYMU_EXPIRY_HOURS" default:"24"`
}

// BaseURL resolves the gateway endpoint for the configured environment.
func (c IPaymuConfig) BaseURL() string {
	if c.Production {
		return "https://my.ipaymu.com/api/v2"
	}
	return "https://sandbox.ipaymu.com/api/v2"
}

type GCPConfig struct {
	ProjectID              string `envconfig:"NEOINTEGRA_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"NEOINTEGRA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"NEOINTEGRA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	EventsTopic        string `envconfig:"NEOINTEGRA_PUBSUB_EVENTS_TOPIC" default:"ni-domain-events"`
	EventsSubscription string `envconfig:"NEOINTEGRA_PUBSUB_EVENTS_SUBSCRIPTION" required:"true"`
}

type CronConfig struct {
	Interval        time.Duration `envconfig:"NEOINTEGRA_CRON_INTERVAL" default:"15m"`
	ReconcileAfter  time.Duration `envconfig:"NEOINTEGRA_CRON_RECONCILE_AFTER" default:"10m"`
	ReconcileLimit  int           `envconfig:"NEOINTEGRA_CRON_RECONCILE_LIMIT" default:"250"`
	ExpireBatchSize int           `envconfig:"NEOINTEGRA_CRON_EXPIRE_BATCH_SIZE" default:"500"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
