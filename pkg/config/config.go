package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Workspace WorkspaceConfig
	Database  DatabaseConfig
	Analysis  AnalysisConfig
	LLM       LLMConfig
	AMQP      AMQPConfig
	AWS       AWSConfig
	JWT       JWTConfig
	Client    ClientConfig
}

type LoggerConfig struct {
	Level  string
	Format string // json or console
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimitMB  int
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type WorkspaceConfig struct {
	Driver       string
	SQLitePath   string
	DefaultTable string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

const (
	AnalysisStatistical = "statistical"
	AnalysisMock        = "mock"
)

type AnalysisConfig struct {
	Mode       string
	MockDelays bool
	Seed       int64 // 0 picks a time-based seed
}

const (
	ProviderNone     = "none"
	ProviderGigaChat = "gigachat"
	ProviderArk      = "ark"
)

type LLMConfig struct {
	Provider string
	GigaChat GigaChatConfig
	Ark      ArkConfig
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	Model              string
	InsecureSkipVerify bool
}

type ArkConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	MaxTokens   *int
}

// Enabled reports whether enough credentials are present to build a model.
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

type AMQPConfig struct {
	URL          string
	ExchangeName string
	QueueName    string
}

type AWSConfig struct {
	CostExplorerEnabled bool
	Region              string
	MaxImportDays       int
}

type JWTConfig struct {
	SecretKey         string
	Expiration        time.Duration
	RefreshExp        time.Duration
	AdminPasswordHash string
}

// Enabled reports whether operator auth is switched on.
func (c JWTConfig) Enabled() bool {
	return c.SecretKey != "" && c.AdminPasswordHash != ""
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work the same way
	for _, envFile := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout := getEnvInt("SERVER_READ_TIMEOUT", 30)
	writeTimeout := getEnvInt("SERVER_WRITE_TIMEOUT", 30)
	jwtExp := getEnvInt("JWT_EXPIRATION_HOURS", 24)
	refreshExp := getEnvInt("JWT_REFRESH_EXPIRATION_HOURS", 168)
	clientTimeout := getEnvInt("COSTLENS_CLIENT_TIMEOUT", 120)

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "5000"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
			BodyLimitMB:  getEnvInt("SERVER_BODY_LIMIT_MB", 32),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Workspace: WorkspaceConfig{
			Driver:       strings.ToLower(getEnv("WORKSPACE_DRIVER", DriverSQLite)),
			SQLitePath:   getEnv("SQLITE_PATH", "data.db"),
			DefaultTable: getEnv("WORKSPACE_DEFAULT_TABLE", "cost_data"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "costlens"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Analysis: AnalysisConfig{
			Mode:       strings.ToLower(getEnv("ANALYSIS_MODE", AnalysisStatistical)),
			MockDelays: getEnvBool("MOCK_DELAYS", false),
			Seed:       int64(getEnvInt("MOCK_SEED", 0)),
		},
		LLM: LLMConfig{
			Provider: strings.ToLower(getEnv("LLM_PROVIDER", ProviderNone)),
			GigaChat: GigaChatConfig{
				APIKey:             getEnv("GIGACHAT_API_KEY", ""),
				Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
				Model:              getEnv("GIGACHAT_MODEL", "GigaChat"),
				InsecureSkipVerify: getEnvBool("GIGACHAT_INSECURE_SKIP_VERIFY", true),
			},
			Ark: ArkConfig{
				APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
				AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
				SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
				Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
				BaseURL:     getEnv("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
				Region:      getEnv("ARK_REGION", "cn-beijing"),
				Temperature: getEnvOptionalFloat("ARK_TEMPERATURE"),
				MaxTokens:   getEnvOptionalInt("ARK_MAX_TOKENS"),
			},
		},
		AMQP: AMQPConfig{
			URL:          getEnv("AMQP_URL", ""),
			ExchangeName: getEnv("AMQP_EXCHANGE_NAME", "costlens"),
			QueueName:    getEnv("AMQP_QUEUE_NAME", "anomaly_alerts"),
		},
		AWS: AWSConfig{
			CostExplorerEnabled: getEnvBool("AWS_COST_EXPLORER_ENABLED", false),
			Region:              getEnv("AWS_REGION", "us-east-1"),
			MaxImportDays:       getEnvInt("AWS_MAX_IMPORT_DAYS", 365),
		},
		JWT: JWTConfig{
			SecretKey:         getEnv("JWT_SECRET_KEY", ""),
			Expiration:        time.Duration(jwtExp) * time.Hour,
			RefreshExp:        time.Duration(refreshExp) * time.Hour,
			AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		Client: ClientConfig{
			BaseURL: getEnv("COSTLENS_URL", "http://localhost:5000"),
			Timeout: time.Duration(clientTimeout) * time.Second,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate collects every configuration problem into a single error.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Server.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Server.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}
	if c.Server.BodyLimitMB < 1 {
		errs = append(errs, fmt.Sprintf("invalid body limit %dMB: must be at least 1", c.Server.BodyLimitMB))
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be json or console", c.Logger.Format))
	}

	switch c.Workspace.Driver {
	case DriverSQLite:
		if c.Workspace.SQLitePath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite workspace")
		}
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			errs = append(errs, "DB_HOST and DB_NAME are required when using postgres workspace")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid workspace driver '%s': must be one of [sqlite postgres]", c.Workspace.Driver))
	}

	if c.Analysis.Mode != AnalysisStatistical && c.Analysis.Mode != AnalysisMock {
		errs = append(errs, fmt.Sprintf("invalid analysis mode '%s': must be statistical or mock", c.Analysis.Mode))
	}

	switch c.LLM.Provider {
	case ProviderNone:
	case ProviderGigaChat:
		if c.LLM.GigaChat.APIKey == "" {
			errs = append(errs, "GIGACHAT_API_KEY is required when LLM_PROVIDER=gigachat")
		}
	case ProviderArk:
		if !c.LLM.Ark.Enabled() {
			errs = append(errs, "ARK_MODEL and either ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY are required when LLM_PROVIDER=ark")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid LLM provider '%s': must be one of [none gigachat ark]", c.LLM.Provider))
	}

	if c.AMQP.URL != "" {
		if parsed, err := url.Parse(c.AMQP.URL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQP.URL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQP.ExchangeName == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQP.QueueName == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.AWS.MaxImportDays < 1 || c.AWS.MaxImportDays > 365 {
		errs = append(errs, fmt.Sprintf("invalid AWS max import days %d: must be between 1 and 365", c.AWS.MaxImportDays))
	}

	if (c.JWT.SecretKey == "") != (c.JWT.AdminPasswordHash == "") {
		errs = append(errs, "JWT_SECRET_KEY and ADMIN_PASSWORD_HASH must be set together")
	}
	if c.JWT.SecretKey != "" && len(c.JWT.SecretKey) < 16 {
		errs = append(errs, "JWT_SECRET_KEY must be at least 16 characters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvOptionalFloat(key string) *float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return nil
	}
	return &value
}

func getEnvOptionalInt(key string) *int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return nil
	}
	return &value
}
