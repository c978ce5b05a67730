package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	Storage       StorageConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Checkout      CheckoutConfig
	Catalog       CatalogConfig
	Identity      IdentityConfig
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
	if cfg.Storage.UsesRedis() && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("%s or %s is required when %s=%s", EnvRedisURL, EnvRedisAddr, EnvStorageBackend, StorageBackendRedis)
	}
	if _, err := cfg.Checkout.Fee(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ATHENG_APP_ENV" required:"true"`
	Port         string `envconfig:"ATHENG_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ATHENG_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ATHENG_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"ATHENG_LOG_FORMAT" default:"json"`
	// CORSOrigins is a comma separated allow list; empty keeps the local
	// development origins.
	CORSOrigins []string `envconfig:"ATHENG_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ATHENG_DB_DSN"`
	Driver string `envconfig:"ATHENG_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ATHENG_DB_HOST"`
	LegacyPort     int    `envconfig:"ATHENG_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ATHENG_DB_USER"`
	LegacyPassword string `envconfig:"ATHENG_DB_PASSWORD"`
	LegacyName     string `envconfig:"ATHENG_DB_NAME"`
	LegacySSLMode  string `envconfig:"ATHENG_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ATHENG_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ATHENG_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ATHENG_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ATHENG_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite engine.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"ATHENG_REDIS_URL"`
	Address      string        `envconfig:"ATHENG_REDIS_ADDR"`
	Password     string        `envconfig:"ATHENG_REDIS_PASSWORD"`
	DB           int           `envconfig:"ATHENG_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ATHENG_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ATHENG_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ATHENG_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ATHENG_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ATHENG_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// StorageConfig selects the key-value backend that holds carts, sessions and
// the blob catalog/order collections.
type StorageConfig struct {
	Backend   string `envconfig:"ATHENG_STORAGE_BACKEND" default:"memory"`
	KeyPrefix string `envconfig:"ATHENG_STORAGE_KEY_PREFIX" default:"atheng"`
	// Collections selects where products and orders live: "db" or "kv".
	Collections string `envconfig:"ATHENG_STORAGE_COLLECTIONS" default:"db"`
}

func (s StorageConfig) UsesRedis() bool {
	return strings.EqualFold(strings.TrimSpace(s.Backend), StorageBackendRedis)
}

func (s StorageConfig) CollectionsInKV() bool {
	return strings.EqualFold(strings.TrimSpace(s.Collections), CollectionsKV)
}

type JWTConfig struct {
	Secret            string `envconfig:"ATHENG_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ATHENG_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ATHENG_JWT_EXPIRATION_MINUTES" required:"true"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ATHENG_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ATHENG_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ATHENG_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ATHENG_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ATHENG_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ATHENG_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"ATHENG_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"ATHENG_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"ATHENG_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"ATHENG_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"ATHENG_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type CheckoutConfig struct {
	ShippingFee string `envconfig:"ATHENG_CHECKOUT_SHIPPING_FEE" default:"30000"`
	Currency    string `envconfig:"ATHENG_CHECKOUT_CURRENCY" default:"VND"`
}

// Fee parses the flat shipping fee charged on every order.
func (c CheckoutConfig) Fee() (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.ShippingFee)
	if raw == "" {
		return decimal.Zero, nil
	}
	fee, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", EnvCheckoutShippingFee, err)
	}
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", EnvCheckoutShippingFee)
	}
	return fee, nil
}

type CatalogConfig struct {
	SeedFile string `envconfig:"ATHENG_CATALOG_SEED_FILE"`
}

type IdentityConfig struct {
	Provider string `envconfig:"ATHENG_IDENTITY_PROVIDER" default:"mock"`
	// Admin account ensured at startup when the db provider is used.
	AdminEmail    string `envconfig:"ATHENG_IDENTITY_ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ATHENG_IDENTITY_ADMIN_PASSWORD"`
	AdminName     string `envconfig:"ATHENG_IDENTITY_ADMIN_NAME" default:"Administrator"`
}

func (i IdentityConfig) UsesDB() bool {
	return strings.EqualFold(strings.TrimSpace(i.Provider), IdentityProviderDB)
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ATHENG_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = defaultSQLiteDSN
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
