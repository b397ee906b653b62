package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Mail          MailConfig          `mapstructure:"mail"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	CredentialValidity time.Duration `mapstructure:"credential_validity" validate:"required,min=1m,max=24h"`
	TokenValidity      time.Duration `mapstructure:"token_validity" validate:"required,min=1h"`
	MaxLoginAttempts   int           `mapstructure:"max_login_attempts" validate:"required,min=1"`
	BCryptCost         int           `mapstructure:"bcrypt_cost" validate:"required,min=10,max=15"`
	TokenSweepInterval time.Duration `mapstructure:"token_sweep_interval"`
}

type MailConfig struct {
	RelayURL          string        `mapstructure:"relay_url"`
	APIKey            string        `mapstructure:"api_key"`
	FromAddress       string        `mapstructure:"from_address"`
	ActivationBaseURL string        `mapstructure:"activation_base_url"`
	ResetBaseURL      string        `mapstructure:"reset_base_url"`
	DispatchTimeout   time.Duration `mapstructure:"dispatch_timeout"`
	MaxWorkers        int           `mapstructure:"max_workers"`
	QueueSize         int           `mapstructure:"queue_size"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds a Config from environment variables, used for
// container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:           getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("SERVER_ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			IdleTimeout:       getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DB_SOURCE", ""),
		},
		Security: SecurityConfig{
			JWTSecret:          getEnv("SECURITY_JWT_SECRET", ""),
			CredentialValidity: getEnvAsDuration("SECURITY_CREDENTIAL_VALIDITY", 15*time.Minute),
			TokenValidity:      getEnvAsDuration("SECURITY_TOKEN_VALIDITY", 24*time.Hour),
			MaxLoginAttempts:   getEnvAsInt("SECURITY_MAX_LOGIN_ATTEMPTS", 5),
			BCryptCost:         getEnvAsInt("SECURITY_BCRYPT_COST", 12),
			TokenSweepInterval: getEnvAsDuration("SECURITY_TOKEN_SWEEP_INTERVAL", time.Hour),
		},
		Mail: MailConfig{
			RelayURL:          getEnv("MAIL_RELAY_URL", ""),
			APIKey:            getEnv("MAIL_API_KEY", ""),
			FromAddress:       getEnv("MAIL_FROM_ADDRESS", "no-reply@localhost"),
			ActivationBaseURL: getEnv("MAIL_ACTIVATION_BASE_URL", "http://localhost:8080/activate"),
			ResetBaseURL:      getEnv("MAIL_RESET_BASE_URL", "http://localhost:8080/reset-password"),
			DispatchTimeout:   getEnvAsDuration("MAIL_DISPATCH_TIMEOUT", 10*time.Second),
			MaxWorkers:        getEnvAsInt("MAIL_MAX_WORKERS", 4),
			QueueSize:         getEnvAsInt("MAIL_QUEUE_SIZE", 100),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Mail.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("mail config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt secret must be at least 32 characters")
	}
	if c.MaxLoginAttempts < 1 {
		return errors.New("max_login_attempts must be a positive integer")
	}
	if c.CredentialValidity <= 0 {
		return errors.New("credential_validity must be positive")
	}
	if c.TokenValidity <= 0 {
		return errors.New("token_validity must be positive")
	}
	if c.BCryptCost < 10 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 10 and 15")
	}
	return nil
}

func (c *MailConfig) Validate() error {
	if c.RelayURL == "" {
		return errors.New("relay_url is required")
	}
	if _, err := url.Parse(c.RelayURL); err != nil {
		return fmt.Errorf("invalid relay_url: %w", err)
	}
	return nil
}
