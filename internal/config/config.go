package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Session   SessionConfig   `mapstructure:"session"`
	Lockout   LockoutConfig   `mapstructure:"lockout"`
	Password  PasswordConfig  `mapstructure:"password"`
	TwoFactor TwoFactorConfig `mapstructure:"two_factor"`
	Reset     ResetConfig     `mapstructure:"reset"`
	Recaptcha RecaptchaConfig `mapstructure:"recaptcha"`
	Email     EmailConfig     `mapstructure:"email"`
	Audit     AuditConfig     `mapstructure:"audit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Mode            string `mapstructure:"mode"`
	BaseURL         string `mapstructure:"base_url"`
	ReadTimeout     string `mapstructure:"read_timeout"`
	WriteTimeout    string `mapstructure:"write_timeout"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret       string `mapstructure:"secret"`
	CookieName   string `mapstructure:"cookie_name"`
	CookieDomain string `mapstructure:"cookie_domain"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
	Expiry       string `mapstructure:"expiry"`
}

type SessionConfig struct {
	// InactivityWindow is the sliding expiration applied uniformly to
	// every session; it is not per-session configurable.
	InactivityWindow string `mapstructure:"inactivity_window"`
	CountCacheTTL    string `mapstructure:"count_cache_ttl"`
	CookieName       string `mapstructure:"cookie_name"`
}

type LockoutConfig struct {
	MaxFailedAttempts int    `mapstructure:"max_failed_attempts"`
	Duration          string `mapstructure:"duration"`
}

type PasswordConfig struct {
	MinAge      string `mapstructure:"min_age"`
	MaxAge      string `mapstructure:"max_age"`
	HistorySize int    `mapstructure:"history_size"`
}

type TwoFactorConfig struct {
	Issuer       string `mapstructure:"issuer"`
	Period       uint   `mapstructure:"period"`
	Digits       uint   `mapstructure:"digits"`
	ChallengeTTL string `mapstructure:"challenge_ttl"`
	MaxAttempts  int    `mapstructure:"max_attempts"`
}

type ResetConfig struct {
	RequestTTL string `mapstructure:"request_ttl"`
}

type RecaptchaConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	SiteKey   string  `mapstructure:"site_key"`
	SecretKey string  `mapstructure:"secret_key"`
	VerifyURL string  `mapstructure:"verify_url"`
	MinScore  float64 `mapstructure:"min_score"`
}

type EmailConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	SMTPHost    string `mapstructure:"smtp_host"`
	SMTPPort    int    `mapstructure:"smtp_port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	From        string `mapstructure:"from"`
	Connections int    `mapstructure:"connections"`
	SendTimeout int    `mapstructure:"send_timeout_seconds"`
}

type AuditConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposeHeaders    []string `mapstructure:"expose_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           string   `mapstructure:"max_age"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Read environment variables
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Override with environment variables
	if port := os.Getenv("PORT"); port != "" {
		v.Set("server.port", port)
	}
	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPass := os.Getenv("DB_PASSWORD"); dbPass != "" {
		cfg.Database.Password = dbPass
	}
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		cfg.JWT.Secret = jwtSecret
	}
	if secret := os.Getenv("RECAPTCHA_SECRET_KEY"); secret != "" {
		cfg.Recaptcha.SecretKey = secret
	}
	if pass := os.Getenv("SMTP_PASSWORD"); pass != "" {
		cfg.Email.Password = pass
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("jwt.cookie_name", "ffm_auth")
	v.SetDefault("jwt.cookie_secure", true)
	v.SetDefault("jwt.expiry", "2m")

	v.SetDefault("session.inactivity_window", "2m")
	v.SetDefault("session.count_cache_ttl", "60s")
	v.SetDefault("session.cookie_name", "ffm_session")

	v.SetDefault("lockout.max_failed_attempts", 3)
	v.SetDefault("lockout.duration", "2m")

	v.SetDefault("password.min_age", "1m")
	v.SetDefault("password.max_age", "2160h")
	v.SetDefault("password.history_size", 2)

	v.SetDefault("two_factor.issuer", "FreshFarmMarket")
	v.SetDefault("two_factor.period", 90)
	v.SetDefault("two_factor.digits", 6)
	v.SetDefault("two_factor.challenge_ttl", "5m")
	v.SetDefault("two_factor.max_attempts", 5)

	v.SetDefault("reset.request_ttl", "15m")

	v.SetDefault("recaptcha.enabled", true)
	v.SetDefault("recaptcha.verify_url", "https://www.google.com/recaptcha/api/siteverify")
	v.SetDefault("recaptcha.min_score", 0.5)

	v.SetDefault("audit.buffer_size", 256)
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// GetURL returns the postgres:// URL used by golang-migrate
func (c *DatabaseConfig) GetURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// Helper methods to parse duration strings
func (c *JWTConfig) GetExpiry() (time.Duration, error) {
	return parseDuration(c.Expiry)
}

func (c *SessionConfig) GetInactivityWindow() (time.Duration, error) {
	return parseDuration(c.InactivityWindow)
}

func (c *SessionConfig) GetCountCacheTTL() (time.Duration, error) {
	return parseDuration(c.CountCacheTTL)
}

func (c *LockoutConfig) GetDuration() (time.Duration, error) {
	return parseDuration(c.Duration)
}

func (c *PasswordConfig) GetMinAge() (time.Duration, error) {
	return parseDuration(c.MinAge)
}

func (c *PasswordConfig) GetMaxAge() (time.Duration, error) {
	return parseDuration(c.MaxAge)
}

func (c *TwoFactorConfig) GetChallengeTTL() (time.Duration, error) {
	return parseDuration(c.ChallengeTTL)
}

func (c *ResetConfig) GetRequestTTL() (time.Duration, error) {
	return parseDuration(c.RequestTTL)
}

func (c *ServerConfig) GetReadTimeout() (time.Duration, error) {
	return parseDuration(c.ReadTimeout)
}

func (c *ServerConfig) GetWriteTimeout() (time.Duration, error) {
	return parseDuration(c.WriteTimeout)
}

func (c *ServerConfig) GetShutdownTimeout() (time.Duration, error) {
	return parseDuration(c.ShutdownTimeout)
}

func (c *DatabaseConfig) GetConnMaxLifetime() (time.Duration, error) {
	return parseDuration(c.ConnMaxLifetime)
}

func (c *CORSConfig) GetMaxAge() (time.Duration, error) {
	return parseDuration(c.MaxAge)
}

// parseDuration parses duration strings like "7d", "24h", "30m"
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	// Handle days (e.g., "7d")
	if len(s) > 1 && s[len(s)-1] == 'd' {
		days := s[:len(s)-1]
		var d int
		_, err := fmt.Sscanf(days, "%d", &d)
		if err != nil {
			return 0, fmt.Errorf("invalid duration format: %s", s)
		}
		return time.Duration(d) * 24 * time.Hour, nil
	}

	// Use standard time.ParseDuration for other formats
	return time.ParseDuration(s)
}
