package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Env       string          `mapstructure:"env"` // 环境: development, production
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	OpenFGA   OpenFGAConfig   `mapstructure:"openfga"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Log       LogConfig       `mapstructure:"log"`
	Client    ClientConfig    `mapstructure:"client"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	MaxUploadSize int64  `mapstructure:"max_upload_size"` // 字节
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres, sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	Path            string `mapstructure:"path"` // sqlite 文件路径
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 秒
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 秒
}

// AuthConfig 认证配置
type AuthConfig struct {
	Mode     string         `mapstructure:"mode"` // keycloak, header
	Keycloak KeycloakConfig `mapstructure:"keycloak"`
}

// KeycloakConfig Keycloak 配置
type KeycloakConfig struct {
	Issuer  string `mapstructure:"issuer"`
	JWKSURL string `mapstructure:"jwks_url"`
}

// OpenFGAConfig OpenFGA 配置
type OpenFGAConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIURL  string `mapstructure:"api_url"`
	StoreID string `mapstructure:"store_id"`
	ModelID string `mapstructure:"model_id"`
}

// StorageConfig 附件存储配置
type StorageConfig struct {
	Driver    string `mapstructure:"driver"` // minio, local
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	LocalDir  string `mapstructure:"local_dir"`
}

// SchedulerConfig 预约提交配置
type SchedulerConfig struct {
	UTCOffsetHours     int           `mapstructure:"utc_offset_hours"`
	GranularityMinutes int           `mapstructure:"granularity_minutes"`
	ActivationInterval time.Duration `mapstructure:"activation_interval"`
}

// Granularity 预约时间粒度
func (c SchedulerConfig) Granularity() time.Duration {
	return time.Duration(c.GranularityMinutes) * time.Minute
}

// WorkflowConfig 审批流程配置
type WorkflowConfig struct {
	MaxResubmissions int `mapstructure:"max_resubmissions"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	MaxAge         int      `mapstructure:"max_age"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error
	Format string `mapstructure:"format"` // 日志格式: json, text
	Output string `mapstructure:"output"` // 输出位置: stdout, file, both
	File   string `mapstructure:"file"`
}

// ClientConfig 命令行客户端配置
type ClientConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Token      string        `mapstructure:"token"`
	EmployeeID string        `mapstructure:"employee_id"` // header 模式下使用
	Name       string        `mapstructure:"name"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Load 加载配置,支持配置文件和环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.hrhub-approval")
		// 配置文件不存在时使用默认值
		_ = v.ReadInConfig()
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Auth.Mode {
	case "keycloak", "header":
	default:
		return fmt.Errorf("unsupported auth mode %q", c.Auth.Mode)
	}
	switch c.Storage.Driver {
	case "minio", "local":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	if c.Scheduler.GranularityMinutes <= 0 || 60%c.Scheduler.GranularityMinutes != 0 {
		return fmt.Errorf("scheduler.granularity_minutes must divide 60, got %d", c.Scheduler.GranularityMinutes)
	}
	if c.Scheduler.UTCOffsetHours < -12 || c.Scheduler.UTCOffsetHours > 14 {
		return fmt.Errorf("scheduler.utc_offset_hours out of range: %d", c.Scheduler.UTCOffsetHours)
	}
	if c.Workflow.MaxResubmissions < 0 {
		return fmt.Errorf("workflow.max_resubmissions must not be negative")
	}
	return nil
}

// IsProduction 判断是否为生产环境
func IsProduction(cfg *Config) bool {
	if cfg == nil {
		return false
	}
	return cfg.Env == "production"
}

// Default 返回默认配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	env := v.GetString("env")
	if env == "" {
		env = os.Getenv("APP_ENV")
		if env == "" {
			env = "development"
		}
	}
	v.SetDefault("env", env)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_size", 32<<20)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "hrhub")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "hrhub.db")

	// 连接池（根据环境设置默认值）
	if env == "production" {
		v.SetDefault("database.driver", "postgres")
		v.SetDefault("database.max_idle_conns", 20)
		v.SetDefault("database.max_open_conns", 200)
		v.SetDefault("database.conn_max_lifetime", 3600)
		v.SetDefault("database.conn_max_idle_time", 300)
	} else {
		v.SetDefault("database.driver", "sqlite")
		v.SetDefault("database.max_idle_conns", 10)
		v.SetDefault("database.max_open_conns", 100)
		v.SetDefault("database.conn_max_lifetime", 3600)
		v.SetDefault("database.conn_max_idle_time", 600)
	}

	if env == "production" {
		v.SetDefault("auth.mode", "keycloak")
	} else {
		v.SetDefault("auth.mode", "header")
	}
	v.SetDefault("auth.keycloak.issuer", "")
	v.SetDefault("auth.keycloak.jwks_url", "")

	v.SetDefault("openfga.enabled", false)
	v.SetDefault("openfga.api_url", "http://localhost:8081")
	v.SetDefault("openfga.store_id", "")
	v.SetDefault("openfga.model_id", "")

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.bucket", "hrhub-attachments")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.local_dir", "./data/attachments")

	v.SetDefault("scheduler.utc_offset_hours", 9)
	v.SetDefault("scheduler.granularity_minutes", 10)
	v.SetDefault("scheduler.activation_interval", time.Minute)

	v.SetDefault("workflow.max_resubmissions", 3)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization", "X-Request-ID", "X-Employee-ID", "X-Employee-Name"})
	v.SetDefault("cors.max_age", 86400)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.rps", 50)
	v.SetDefault("rate_limit.burst", 100)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "hrhub-approval")
	v.SetDefault("tracing.jaeger_endpoint", "http://localhost:14268/api/traces")

	if env == "production" {
		v.SetDefault("log.level", "warn")
		v.SetDefault("log.format", "json")
	} else {
		v.SetDefault("log.level", "debug")
		v.SetDefault("log.format", "text")
	}
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "hrhub-approval.log")

	v.SetDefault("client.base_url", "http://localhost:8080")
	v.SetDefault("client.timeout", 15*time.Second)
}
