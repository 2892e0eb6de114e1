package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
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
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	Sheets        SheetsConfig
	Drive         DriveConfig
	Staging       StagingConfig
	Submission    SubmissionConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"FREIGHTQUOTE_APP_ENV" required:"true"`
	Port         string `envconfig:"FREIGHTQUOTE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FREIGHTQUOTE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FREIGHTQUOTE_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"FREIGHTQUOTE_LOG_FORMAT" default:"json"`
	// Timezone used for quotation timestamps written to the sheets.
	Timezone    string   `envconfig:"FREIGHTQUOTE_APP_TIMEZONE" default:"America/Bogota"`
	CORSOrigins []string `envconfig:"FREIGHTQUOTE_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the configured timezone, falling back to UTC.
func (a AppConfig) Location() *time.Location {
	if strings.TrimSpace(a.Timezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type ServiceConfig struct {
	Kind string `envconfig:"FREIGHTQUOTE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FREIGHTQUOTE_DB_DSN"`
	Driver string `envconfig:"FREIGHTQUOTE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FREIGHTQUOTE_DB_HOST"`
	LegacyPort     int    `envconfig:"FREIGHTQUOTE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FREIGHTQUOTE_DB_USER"`
	LegacyPassword string `envconfig:"FREIGHTQUOTE_DB_PASSWORD"`
	LegacyName     string `envconfig:"FREIGHTQUOTE_DB_NAME"`
	LegacySSLMode  string `envconfig:"FREIGHTQUOTE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FREIGHTQUOTE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FREIGHTQUOTE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FREIGHTQUOTE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FREIGHTQUOTE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FREIGHTQUOTE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FREIGHTQUOTE_REDIS_ADDR"`
	Password     string        `envconfig:"FREIGHTQUOTE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FREIGHTQUOTE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FREIGHTQUOTE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FREIGHTQUOTE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FREIGHTQUOTE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FREIGHTQUOTE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FREIGHTQUOTE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret               string `envconfig:"FREIGHTQUOTE_JWT_SECRET" required:"true"`
	Issuer               string `envconfig:"FREIGHTQUOTE_JWT_ISSUER" required:"true"`
	ExpirationMinutes    int    `envconfig:"FREIGHTQUOTE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenExpHours int    `envconfig:"FREIGHTQUOTE_REFRESH_TOKEN_EXPIRATION_HOURS" default:"72"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh session lifetime.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenExpHours <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenExpHours) * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FREIGHTQUOTE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FREIGHTQUOTE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FREIGHTQUOTE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FREIGHTQUOTE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FREIGHTQUOTE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"FREIGHTQUOTE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"FREIGHTQUOTE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"FREIGHTQUOTE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RefreshWindow   time.Duration `envconfig:"FREIGHTQUOTE_AUTH_RATE_LIMIT_REFRESH_WINDOW" default:"1m"`
	RefreshIPLimit  int           `envconfig:"FREIGHTQUOTE_AUTH_RATE_LIMIT_REFRESH_IP_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FREIGHTQUOTE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"FREIGHTQUOTE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FREIGHTQUOTE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"FREIGHTQUOTE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FREIGHTQUOTE_GOOGLE_APPLICATION_CREDENTIALS"`
}

// SheetsConfig points at the spreadsheets acting as the quotation datastore.
type SheetsConfig struct {
	QuotationsSpreadsheetID string `envconfig:"FREIGHTQUOTE_SHEETS_QUOTATIONS_ID" required:"true"`
	TimeSpreadsheetID       string `envconfig:"FREIGHTQUOTE_SHEETS_TIME_ID" required:"true"`
	ContractsCatalogID      string `envconfig:"FREIGHTQUOTE_SHEETS_CONTRACTS_CATALOG_ID"`
	ContractsQuotesID       string `envconfig:"FREIGHTQUOTE_SHEETS_CONTRACTS_QUOTES_ID"`

	AllQuotesWorksheet  string        `envconfig:"FREIGHTQUOTE_SHEETS_ALL_QUOTES_WORKSHEET" default:"All Quotes"`
	GroundWorksheet     string        `envconfig:"FREIGHTQUOTE_SHEETS_GROUND_WORKSHEET" default:"Ground Quotations"`
	DurationWorksheet   string        `envconfig:"FREIGHTQUOTE_SHEETS_DURATION_WORKSHEET" default:"Duration Time Quotation"`
	ClientsWorksheet    string        `envconfig:"FREIGHTQUOTE_SHEETS_CLIENTS_WORKSHEET" default:"clientes"`
	ContractsWorksheet  string        `envconfig:"FREIGHTQUOTE_SHEETS_CONTRACTS_WORKSHEET" default:"CONTRATOS"`
	ContainersWorksheet string        `envconfig:"FREIGHTQUOTE_SHEETS_CONTAINERS_WORKSHEET" default:"CONTENEDORES"`
	ScrapWorksheet      string        `envconfig:"FREIGHTQUOTE_SHEETS_SCRAP_WORKSHEET" default:"TARIFAS SCRAP EXPO"`
	ClientsCacheTTL     time.Duration `envconfig:"FREIGHTQUOTE_SHEETS_CLIENTS_CACHE_TTL" default:"1h"`
	ContractsCacheTTL   time.Duration `envconfig:"FREIGHTQUOTE_SHEETS_CONTRACTS_CACHE_TTL" default:"3h"`
	RequestTimeout      time.Duration `envconfig:"FREIGHTQUOTE_SHEETS_REQUEST_TIMEOUT" default:"20s"`
}

// DriveConfig locates the folder-per-request document store.
type DriveConfig struct {
	ParentFolderID string `envconfig:"FREIGHTQUOTE_DRIVE_PARENT_FOLDER_ID" required:"true"`
	DriveID        string `envconfig:"FREIGHTQUOTE_DRIVE_ID"`
}

type StagingConfig struct {
	Dir         string        `envconfig:"FREIGHTQUOTE_STAGING_DIR" default:"temp_uploads"`
	MaxUploadMB int           `envconfig:"FREIGHTQUOTE_STAGING_MAX_UPLOAD_MB" default:"50"`
	StaleAfter  time.Duration `envconfig:"FREIGHTQUOTE_STAGING_STALE_AFTER" default:"24h"`
}

type SubmissionConfig struct {
	MaxAttempts int           `envconfig:"FREIGHTQUOTE_SUBMISSION_MAX_ATTEMPTS" default:"5"`
	SessionTTL  time.Duration `envconfig:"FREIGHTQUOTE_SUBMISSION_SESSION_TTL" default:"72h"`
	// Pause between attempts of one step. Zero retries immediately.
	RetryDelay time.Duration `envconfig:"FREIGHTQUOTE_SUBMISSION_RETRY_DELAY" default:"0s"`
}

type PubSubConfig struct {
	QuotationTopic        string `envconfig:"FREIGHTQUOTE_PUBSUB_QUOTATION_TOPIC" default:"fq-quotation-events"`
	AnalyticsSubscription string `envconfig:"FREIGHTQUOTE_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"fq-quotation-analytics"`
}

type BigQueryConfig struct {
	Dataset         string        `envconfig:"FREIGHTQUOTE_BIGQUERY_DATASET" default:"freightquote"`
	QuotationsTable string        `envconfig:"FREIGHTQUOTE_BIGQUERY_QUOTATIONS_TABLE" default:"quotations"`
	CacheTTL        time.Duration `envconfig:"FREIGHTQUOTE_BIGQUERY_CACHE_TTL" default:"5m"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"FREIGHTQUOTE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"FREIGHTQUOTE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"FREIGHTQUOTE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"FREIGHTQUOTE_OUTBOX_RETENTION" default:"720h"`
	MaxBackoff     time.Duration `envconfig:"FREIGHTQUOTE_OUTBOX_MAX_BACKOFF" default:"5m"`
}

// CronConfig sets how often the worker wakes up and how often each job is due.
type CronConfig struct {
	Tick                 time.Duration `envconfig:"FREIGHTQUOTE_CRON_TICK" default:"1m"`
	LockTTL              time.Duration `envconfig:"FREIGHTQUOTE_CRON_LOCK_TTL" default:"30m"`
	StagingJanitorEvery  time.Duration `envconfig:"FREIGHTQUOTE_CRON_STAGING_JANITOR_EVERY" default:"1h"`
	OutboxRetentionEvery time.Duration `envconfig:"FREIGHTQUOTE_CRON_OUTBOX_RETENTION_EVERY" default:"24h"`
}

// ensureDSN assembles a postgres URL from the split FREIGHTQUOTE_DB_* vars
// when no DSN is given.
func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	parts := map[string]string{EnvDBHost: db.LegacyHost, EnvDBUser: db.LegacyUser, EnvDBName: db.LegacyName}
	var missing []string
	for _, env := range legacyDBEnvVars {
		if strings.TrimSpace(parts[env]) == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s is not set and the split connection vars are incomplete: missing %s", EnvDBDSN, strings.Join(missing, ", "))
	}

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.User(db.LegacyUser),
		Host:   net.JoinHostPort(db.LegacyHost, strconv.Itoa(db.LegacyPort)),
		Path:   db.LegacyName,
	}
	if db.LegacyPassword != "" {
		dsn.User = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}
	if db.LegacySSLMode != "" {
		dsn.RawQuery = url.Values{"sslmode": {db.LegacySSLMode}}.Encode()
	}
	db.DSN = dsn.String()
	return nil
}
