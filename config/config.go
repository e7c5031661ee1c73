package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config.yaml"

	defaultServerPort       = "8080"
	defaultWarehouseMaxConn = 10
	defaultStatementTimeout = 15 * time.Second
	defaultRowCap           = 200
	defaultBaseURL          = "https://openrouter.ai/api/v1"
	defaultMaxSteps         = 3
	defaultRequestTimeout   = 300 * time.Second
	defaultAuditWorkers     = 2
	defaultAuditQueueSize   = 256
	defaultAuditBatchSize   = 20
)

// Cfg 全局配置，由 Load 初始化
var Cfg *Config

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Warehouse    WarehouseConfig    `yaml:"warehouse"`
	SessionStore SessionStoreConfig `yaml:"session_store"`
	Model        ModelConfig        `yaml:"model"`
	JWT          JWTConfig          `yaml:"jwt"`
	Audit        AuditConfig        `yaml:"audit"`
	Log          LogConfig          `yaml:"log"`
}

type ServerConfig struct {
	Port         string   `yaml:"port"`
	AllowOrigins []string `yaml:"allow_origins"`
	EnableMCP    bool     `yaml:"enable_mcp"`
}

type WarehouseConfig struct {
	DSN              string        `yaml:"dsn"`
	MaxConns         int32         `yaml:"max_conns"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
	RowCap           int           `yaml:"row_cap"`
}

type SessionStoreConfig struct {
	// postgres 或 mysql
	Driver string `yaml:"driver"`

	// 为空时复用 warehouse.dsn
	DSN string `yaml:"dsn"`
}

type ModelConfig struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	MaxSteps       int           `yaml:"max_steps"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Models         []ModelEntry  `yaml:"models"`
}

// ModelEntry 按顺序尝试，第一个为首选模型
type ModelEntry struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"`
}

type JWTConfig struct {
	// 为空时不启用 token 校验
	SecretKey string `yaml:"secret_key"`
}

type AuditConfig struct {
	Enabled   bool `yaml:"enabled"`
	Workers   int  `yaml:"workers"`
	QueueSize int  `yaml:"queue_size"`
	BatchSize int  `yaml:"batch_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load 读取 YAML 配置文件，再用 .env 和环境变量覆盖。
// 配置文件不存在时使用默认值。
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	_ = godotenv.Load()
	cfg.loadFromEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	Cfg = cfg
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         defaultServerPort,
			AllowOrigins: []string{"*"},
			EnableMCP:    true,
		},
		Warehouse: WarehouseConfig{
			MaxConns:         defaultWarehouseMaxConn,
			StatementTimeout: defaultStatementTimeout,
			RowCap:           defaultRowCap,
		},
		SessionStore: SessionStoreConfig{
			Driver: "postgres",
		},
		Model: ModelConfig{
			BaseURL:        defaultBaseURL,
			MaxSteps:       defaultMaxSteps,
			RequestTimeout: defaultRequestTimeout,
			Models:         DefaultModels(),
		},
		Audit: AuditConfig{
			Enabled:   true,
			Workers:   defaultAuditWorkers,
			QueueSize: defaultAuditQueueSize,
			BatchSize: defaultAuditBatchSize,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultModels 所有模型都必须支持 tool calling
func DefaultModels() []ModelEntry {
	return []ModelEntry{
		{ID: "deepseek/deepseek-chat-v3-0324", Name: "DeepSeek V3", Provider: "DeepSeek"},
		{ID: "google/gemini-2.0-flash-001", Name: "Gemini 2.0 Flash", Provider: "Google"},
		{ID: "qwen/qwen3-235b-a22b", Name: "Qwen3 235B", Provider: "Alibaba"},
	}
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("DATABASE_URL"); val != "" {
		c.Warehouse.DSN = val
	}
	if val := os.Getenv("SESSION_DB_DRIVER"); val != "" {
		c.SessionStore.Driver = val
	}
	if val := os.Getenv("SESSION_DB_DSN"); val != "" {
		c.SessionStore.DSN = val
	}
	if val := os.Getenv("OPENROUTER_API_KEY"); val != "" {
		c.Model.APIKey = val
	}
	if val := os.Getenv("MODEL_BASE_URL"); val != "" {
		c.Model.BaseURL = val
	}
	if val := os.Getenv("MODEL_MAX_STEPS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Model.MaxSteps = n
		}
	}
	if val := os.Getenv("JWT_SECRET_KEY"); val != "" {
		c.JWT.SecretKey = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		c.Server.Port = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("AUDIT_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Audit.Enabled = enabled
		}
	}
}

func (c *Config) applyDefaults() {
	if c.SessionStore.DSN == "" && c.SessionStore.Driver == "postgres" {
		c.SessionStore.DSN = c.Warehouse.DSN
	}
	if c.Warehouse.StatementTimeout <= 0 {
		c.Warehouse.StatementTimeout = defaultStatementTimeout
	}
	if c.Warehouse.RowCap <= 0 {
		c.Warehouse.RowCap = defaultRowCap
	}
	if c.Model.MaxSteps <= 0 {
		c.Model.MaxSteps = defaultMaxSteps
	}
	if len(c.Model.Models) == 0 {
		c.Model.Models = DefaultModels()
	}
}

func (c *Config) Validate() error {
	if c.Warehouse.DSN == "" {
		return errors.New("warehouse dsn is required (warehouse.dsn or DATABASE_URL)")
	}
	switch c.SessionStore.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported session store driver: %q", c.SessionStore.Driver)
	}
	if c.SessionStore.DSN == "" {
		return errors.New("session store dsn is required for driver " + c.SessionStore.Driver)
	}
	for i, m := range c.Model.Models {
		if m.ID == "" {
			return fmt.Errorf("model #%d has no id", i)
		}
	}
	return nil
}
