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
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Auth          AuthConfig
	AuthRateLimit AuthRateLimitConfig
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	Storage       StorageConfig
	Sendgrid      SendgridConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects combinations that must never reach a production deployment.
func (c *Config) validate() error {
	verifier := c.Auth.Verifier()
	if verifier != CodeVerifierStrict && verifier != CodeVerifierAcceptAny {
		return fmt.Errorf("%s must be %q or %q", EnvAuthCodeVerifier, CodeVerifierStrict, CodeVerifierAcceptAny)
	}
	store := c.Auth.Store()
	if store != CodeStoreRedis && store != CodeStoreMemory {
		return fmt.Errorf("%s must be %q or %q", EnvAuthCodeStore, CodeStoreRedis, CodeStoreMemory)
	}
	if c.App.IsProd() {
		if verifier == CodeVerifierAcceptAny {
			return fmt.Errorf("%s=%s is not allowed in production", EnvAuthCodeVerifier, CodeVerifierAcceptAny)
		}
		if c.Auth.EchoCodes {
			return fmt.Errorf("%s is not allowed in production", EnvAuthEchoCodes)
		}
	}
	if c.Auth.CodeTTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvAuthCodeTTL)
	}
	return nil
}

type AppConfig struct {
	Env           string `envconfig:"DEALBOARD_APP_ENV" required:"true"`
	Port          string `envconfig:"DEALBOARD_APP_PORT" required:"true"`
	LogLevel      string `envconfig:"DEALBOARD_LOG_LEVEL" default:"info"`
	LogWarnStack  bool   `envconfig:"DEALBOARD_LOG_WARN_STACK" default:"false"`
	PublicBaseURL string `envconfig:"DEALBOARD_PUBLIC_BASE_URL" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN string `envconfig:"DEALBOARD_DB_DSN"`

	LegacyHost     string `envconfig:"DEALBOARD_DB_HOST"`
	LegacyPort     int    `envconfig:"DEALBOARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DEALBOARD_DB_USER"`
	LegacyPassword string `envconfig:"DEALBOARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"DEALBOARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"DEALBOARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DEALBOARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DEALBOARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DEALBOARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DEALBOARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DEALBOARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DEALBOARD_REDIS_ADDR"`
	Password     string        `envconfig:"DEALBOARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"DEALBOARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DEALBOARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DEALBOARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DEALBOARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DEALBOARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DEALBOARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"DEALBOARD_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"DEALBOARD_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"DEALBOARD_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"DEALBOARD_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// PasswordConfig tunes the argon2id parameters used to hash verification codes at rest.
type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DEALBOARD_ARGON_MEMORY_KB" default:"19456"`
	ArgonTime        int `envconfig:"DEALBOARD_ARGON_TIME" default:"2"`
	ArgonParallelism int `envconfig:"DEALBOARD_ARGON_PARALLELISM" default:"1"`
	ArgonSaltLen     int `envconfig:"DEALBOARD_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DEALBOARD_ARGON_KEY_LEN" default:"32"`
}

type AuthConfig struct {
	CodeTTL      time.Duration `envconfig:"DEALBOARD_AUTH_CODE_TTL" default:"10m"`
	CodeVerifier string        `envconfig:"DEALBOARD_AUTH_CODE_VERIFIER" default:"strict"`
	CodeStore    string        `envconfig:"DEALBOARD_AUTH_CODE_STORE" default:"redis"`
	EchoCodes    bool          `envconfig:"DEALBOARD_AUTH_ECHO_CODES" default:"false"`
}

// Verifier returns the normalized verification strategy name.
func (a AuthConfig) Verifier() string {
	v := strings.TrimSpace(strings.ToLower(a.CodeVerifier))
	if v == "" {
		return CodeVerifierStrict
	}
	return v
}

// Store returns the normalized code store backend name.
func (a AuthConfig) Store() string {
	v := strings.TrimSpace(strings.ToLower(a.CodeStore))
	if v == "" {
		return CodeStoreRedis
	}
	return v
}

type AuthRateLimitConfig struct {
	SendCodeWindow     time.Duration `envconfig:"DEALBOARD_AUTH_RATE_LIMIT_SEND_CODE_WINDOW" default:"10m"`
	SendCodeEmailLimit int           `envconfig:"DEALBOARD_AUTH_RATE_LIMIT_SEND_CODE_EMAIL_LIMIT" default:"5"`
	SendCodeIPLimit    int           `envconfig:"DEALBOARD_AUTH_RATE_LIMIT_SEND_CODE_IP_LIMIT" default:"20"`
	VerifyWindow       time.Duration `envconfig:"DEALBOARD_AUTH_RATE_LIMIT_VERIFY_WINDOW" default:"10m"`
	VerifyEmailLimit   int           `envconfig:"DEALBOARD_AUTH_RATE_LIMIT_VERIFY_EMAIL_LIMIT" default:"10"`
	VerifyIPLimit      int           `envconfig:"DEALBOARD_AUTH_RATE_LIMIT_VERIFY_IP_LIMIT" default:"30"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `envconfig:"DEALBOARD_RATE_LIMIT_PER_MINUTE" default:"120"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"DEALBOARD_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type StorageConfig struct {
	Endpoint       string `envconfig:"DEALBOARD_STORAGE_ENDPOINT" required:"true"`
	AccessKey      string `envconfig:"DEALBOARD_STORAGE_ACCESS_KEY"`
	SecretKey      string `envconfig:"DEALBOARD_STORAGE_SECRET_KEY"`
	Bucket         string `envconfig:"DEALBOARD_STORAGE_BUCKET" default:"deal-images"`
	Region         string `envconfig:"DEALBOARD_STORAGE_REGION" default:"us-east-1"`
	UseSSL         bool   `envconfig:"DEALBOARD_STORAGE_USE_SSL" default:"true"`
	PublicBaseURL  string `envconfig:"DEALBOARD_STORAGE_PUBLIC_BASE_URL" required:"true"`
	MaxUploadBytes int64  `envconfig:"DEALBOARD_STORAGE_MAX_UPLOAD_BYTES" default:"5242880"`
	EnsureBucket   bool   `envconfig:"DEALBOARD_STORAGE_ENSURE_BUCKET" default:"false"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"DEALBOARD_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"DEALBOARD_SENDGRID_FROM_EMAIL" default:"no-reply@dealboard.local"`
	FromName    string `envconfig:"DEALBOARD_SENDGRID_FROM_NAME" default:"Dealboard"`
}

type CronConfig struct {
	Interval       time.Duration `envconfig:"DEALBOARD_CRON_INTERVAL" default:"1h"`
	LockTTL        time.Duration `envconfig:"DEALBOARD_CRON_LOCK_TTL" default:"30m"`
	OrphanImageAge time.Duration `envconfig:"DEALBOARD_CRON_ORPHAN_IMAGE_AGE" default:"24h"`
	// MetricsAddr is where the worker serves /metrics; empty disables it.
	MetricsAddr string `envconfig:"DEALBOARD_CRON_METRICS_ADDR" default:":9091"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DEALBOARD_AUTO_MIGRATE" default:"false"`
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
