package config

// EnvPrefix is handed to envconfig; every field carries an explicit name so
// the prefix only matters for fields without one.
const EnvPrefix = "ATHENG"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	StorageBackendMemory = "memory"
	StorageBackendRedis  = "redis"

	CollectionsDB = "db"
	CollectionsKV = "kv"

	IdentityProviderMock = "mock"
	IdentityProviderDB   = "db"

	defaultSQLiteDSN = "file:atheng.db?cache=shared&_foreign_keys=on"
)

const (
	EnvAppEnv              = "ATHENG_APP_ENV"
	EnvPort                = "ATHENG_APP_PORT"
	EnvLogLevel            = "ATHENG_LOG_LEVEL"
	EnvDBDSN               = "ATHENG_DB_DSN"
	EnvDBDriver            = "ATHENG_DB_DRIVER"
	EnvDBHost              = "ATHENG_DB_HOST"
	EnvDBUser              = "ATHENG_DB_USER"
	EnvDBName              = "ATHENG_DB_NAME"
	EnvDBPassword          = "ATHENG_DB_PASSWORD"
	EnvRedisURL            = "ATHENG_REDIS_URL"
	EnvRedisAddr           = "ATHENG_REDIS_ADDR"
	EnvStorageBackend      = "ATHENG_STORAGE_BACKEND"
	EnvStorageCollections  = "ATHENG_STORAGE_COLLECTIONS"
	EnvJWTSecret           = "ATHENG_JWT_SECRET"
	EnvJWTIssuer           = "ATHENG_JWT_ISSUER"
	EnvJWTExpMins          = "ATHENG_JWT_EXPIRATION_MINUTES"
	EnvCheckoutShippingFee = "ATHENG_CHECKOUT_SHIPPING_FEE"
	EnvCatalogSeedFile     = "ATHENG_CATALOG_SEED_FILE"
	EnvIdentityProvider    = "ATHENG_IDENTITY_PROVIDER"
	EnvIdentityAdminEmail  = "ATHENG_IDENTITY_ADMIN_EMAIL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
