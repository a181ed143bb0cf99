package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the envconfig namespace every EVDMS variable lives under.
const EnvPrefix = "evdms"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "EVDMS_APP_ENV"
	EnvDBDSN  = "EVDMS_DB_DSN"
	EnvDBHost = "EVDMS_DB_HOST"
	EnvDBUser = "EVDMS_DB_USER"
	EnvDBName = "EVDMS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Auth         AuthConfig
	Password     PasswordConfig
	Reset        ResetConfig
	RateLimit    AuthRateLimitConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"EVDMS_APP_ENV" required:"true"`
	Port         string `envconfig:"EVDMS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"EVDMS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"EVDMS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"EVDMS_DB_DSN"`
	Driver string `envconfig:"EVDMS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EVDMS_DB_HOST"`
	LegacyPort     int    `envconfig:"EVDMS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EVDMS_DB_USER"`
	LegacyPassword string `envconfig:"EVDMS_DB_PASSWORD"`
	LegacyName     string `envconfig:"EVDMS_DB_NAME"`
	LegacySSLMode  string `envconfig:"EVDMS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EVDMS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EVDMS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EVDMS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EVDMS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"EVDMS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"EVDMS_REDIS_ADDR"`
	Password     string        `envconfig:"EVDMS_REDIS_PASSWORD"`
	DB           int           `envconfig:"EVDMS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EVDMS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EVDMS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EVDMS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EVDMS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EVDMS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"EVDMS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"EVDMS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"EVDMS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"EVDMS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// AuthConfig bounds the blocking auth operations so a hung dependency can never
// pin a login or logout call indefinitely.
type AuthConfig struct {
	CallTimeout time.Duration `envconfig:"EVDMS_AUTH_TIMEOUT" default:"10s"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"EVDMS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"EVDMS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"EVDMS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"EVDMS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"EVDMS_ARGON_KEY_LEN" default:"32"`
}

type ResetConfig struct {
	TokenTTL      time.Duration `envconfig:"EVDMS_RESET_TOKEN_TTL" default:"30m"`
	IssueWindow   time.Duration `envconfig:"EVDMS_RESET_ISSUE_WINDOW" default:"1h"`
	IssuePerEmail int           `envconfig:"EVDMS_RESET_ISSUE_PER_EMAIL" default:"3"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"EVDMS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"EVDMS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"EVDMS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"EVDMS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"EVDMS_AUTO_MIGRATE" default:"false"`
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
