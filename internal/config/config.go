package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fieldops/backoffice-api/internal/secrets"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Identity  IdentityConfig
	ApiKey    ApiKeyConfig
	Storage   StorageConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Inventory InventoryConfig
	Reports   ReportsConfig
	Legacy    LegacyConfig
	Audit     AuditConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

// IdentityConfig describes the OpenID provider that issues bearer tokens
type IdentityConfig struct {
	// Issuer must match the token's iss claim exactly when set
	Issuer string
	// Audience must appear in the token's aud claim when set
	Audience string
	// JWKSURL is where the provider publishes its signing keys
	JWKSURL string
	// RequiredScopes is a comma-separated list; any one is sufficient
	RequiredScopes string
	// KeyCacheTTL is how long fetched signing keys are trusted (seconds)
	KeyCacheTTL int
}

type ApiKeyConfig struct {
	SecretName string
	Value      string
}

type StorageConfig struct {
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
	MaxUploadSizeMB       int64
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	XSSProtection         string
	ReferrerPolicy        string
	PermissionsPolicy     string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled               bool
	RequestsPerMinute     int
	RequestsPerMinuteAuth int
	WhitelistIPs          []string
	WhitelistPaths        []string
}

// InventoryConfig controls the ledger's scheduled month rollover
type InventoryConfig struct {
	RolloverEnabled bool
	// RolloverCron runs with a seconds field, e.g. "0 5 0 1 * *"
	RolloverCron string
	// Timezone decides which calendar month "now" belongs to
	Timezone string
}

// ReportsConfig controls job report submission
type ReportsConfig struct {
	// DuplicateWindowSeconds suppresses an identical report from the same
	// user on the same job within the window. 0 disables the guard.
	DuplicateWindowSeconds int
}

// AuditConfig controls retention of the audit trail
type AuditConfig struct {
	RetentionDays int
	CleanupCron   string
}

// LegacyConfig points at the previous SQL Server deployment for job import
type LegacyConfig struct {
	Enabled      bool
	URL          string // host:port/database
	User         string
	Password     string
	QueryTimeout int // seconds
	BatchSize    int
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// KeyCacheTTLDuration returns the signing key cache lifetime
func (i *IdentityConfig) KeyCacheTTLDuration() time.Duration {
	return time.Duration(i.KeyCacheTTL) * time.Second
}

// QueryTimeoutDuration returns the legacy query timeout
func (l *LegacyConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(l.QueryTimeout) * time.Second
}

// Location resolves the configured timezone, falling back to UTC
func (i *InventoryConfig) Location() *time.Location {
	if i.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(i.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load loads configuration from file and environment variables.
// Use LoadWithSecrets for Key Vault resolution.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.ApiKey.Value == "" {
		cfg.ApiKey.Value = v.GetString("ADMIN_API_KEY")
	}
	if cfg.Identity.JWKSURL == "" {
		cfg.Identity.JWKSURL = v.GetString("IDENTITY_JWKS_URL")
	}
	if cfg.Identity.Issuer == "" {
		cfg.Identity.Issuer = v.GetString("IDENTITY_ISSUER")
	}
	if cfg.Identity.Audience == "" {
		cfg.Identity.Audience = v.GetString("IDENTITY_AUDIENCE")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}
	if v.GetBool("LEGACY_ENABLED") {
		cfg.Legacy.Enabled = true
	}

	return &cfg, nil
}

// LoadWithSecrets loads configuration and resolves secrets from Azure Key Vault
// when USE_AZURE_KEY_VAULT=true and the environment is staging or production.
// Otherwise the values from Load are returned unchanged.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	applySecrets(ctx, cfg, provider, logger)
	return cfg, nil
}

// SecretSource is the subset of secrets.Provider used while loading config
type SecretSource interface {
	GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error)
}

// applySecrets overlays vault values on cfg. A missing secret keeps the value
// that Load already resolved.
func applySecrets(ctx context.Context, cfg *Config, src SecretSource, logger *zap.Logger) {
	set := func(dst *string, secretName, envName string) {
		value, err := src.GetSecretOrEnv(ctx, secretName, envName)
		if err != nil || value == "" {
			logger.Debug("secret not resolved, keeping configured value",
				zap.String("secret_name", secretName))
			return
		}
		*dst = value
	}

	set(&cfg.Database.Host, "POSTGRES-MAIN-HOST", "DATABASE_HOST")
	set(&cfg.Database.User, "POSTGRES-MAIN-USER", "DATABASE_USER")
	set(&cfg.Database.Password, "POSTGRES-MAIN-PASSWORD", "DATABASE_PASSWORD")
	set(&cfg.ApiKey.Value, "admin-api-key", "ADMIN_API_KEY")
	set(&cfg.Storage.CloudConnectionString, "storage-connection-string", "STORAGE_CLOUDCONNECTIONSTRING")

	if defaultDB := os.Getenv("DEFAULT_DATABASE"); defaultDB != "" {
		cfg.Database.Name = defaultDB
	}
	if sslMode := os.Getenv("DATABASE_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}

	if cfg.Legacy.Enabled {
		set(&cfg.Legacy.URL, "LEGACY-SQL-URL", "LEGACY_URL")
		set(&cfg.Legacy.User, "LEGACY-SQL-USERNAME", "LEGACY_USER")
		set(&cfg.Legacy.Password, "LEGACY-SQL-PASSWORD", "LEGACY_PASSWORD")
	}

	logger.Info("Secrets loaded from vault")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Field Service Back Office API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "backoffice")
	v.SetDefault("database.user", "backoffice_user")
	v.SetDefault("database.password", "backoffice_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)

	// Identity provider defaults
	v.SetDefault("identity.keyCacheTTL", 86400)

	// Secrets defaults
	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	// Storage defaults
	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.cloudContainer", "job-media")
	v.SetDefault("storage.maxUploadSizeMB", 25)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Server defaults
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)
	v.SetDefault("server.enableSwagger", true)

	// CORS defaults - restrictive by default
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID", "Content-Disposition"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	// Security header defaults
	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.xssProtection", "1; mode=block")
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(), microphone=(), camera=()")

	// Rate limiting defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 60)
	v.SetDefault("rateLimit.requestsPerMinuteAuth", 240)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready"})

	// Inventory defaults: carry balances forward five minutes into each month
	v.SetDefault("inventory.rolloverEnabled", true)
	v.SetDefault("inventory.rolloverCron", "0 5 0 1 * *")
	v.SetDefault("inventory.timezone", "Asia/Ho_Chi_Minh")

	// Report defaults
	v.SetDefault("reports.duplicateWindowSeconds", 0)

	// Audit retention defaults: prune nightly at 03:00
	v.SetDefault("audit.retentionDays", 365)
	v.SetDefault("audit.cleanupCron", "0 0 3 * * *")

	// Legacy import defaults
	v.SetDefault("legacy.enabled", false)
	v.SetDefault("legacy.queryTimeout", 60)
	v.SetDefault("legacy.batchSize", 500)
}
