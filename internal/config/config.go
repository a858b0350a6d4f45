package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Model     ModelConfig     `mapstructure:"model"`
	Corpus    CorpusConfig    `mapstructure:"corpus"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Watcher   WatcherConfig   `mapstructure:"watcher"`
	Log       LogConfig       `mapstructure:"log"`
}

// ModelConfig 模型训练与存储
type ModelConfig struct {
	Path             string  `mapstructure:"path"`              // 模型文件
	ImportanceReport string  `mapstructure:"importance_report"` // 特征重要性报告，空表示不写
	Trees            int     `mapstructure:"trees"`
	MaxDepth         int     `mapstructure:"max_depth"`
	TestRatio        float64 `mapstructure:"test_ratio"`
	Seed             int64   `mapstructure:"seed"` // 0 表示随机
}

// CorpusConfig 训练样本目录
type CorpusConfig struct {
	MalwareDir string `mapstructure:"malware_dir"`
	NormalDir  string `mapstructure:"normal_dir"`
	Workers    int    `mapstructure:"workers"` // 并发提取数，1 为串行
}

// ExtractorConfig APK 元数据提取
type ExtractorConfig struct {
	AaptPath string `mapstructure:"aapt_path"`
	UseAapt  bool   `mapstructure:"use_aapt"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Type     string `mapstructure:"type"` // mysql, sqlite
	Path     string `mapstructure:"path"` // sqlite 文件
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"db_name"`
}

type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Mode        string `mapstructure:"mode"`        // debug, release
	InboundDir  string `mapstructure:"inbound_dir"` // 上传文件保存目录
	MaxUploadMB int    `mapstructure:"max_upload_mb"`
	APIToken    string `mapstructure:"api_token"` // 为空时不校验
}

// WatcherConfig 收件目录监听
type WatcherConfig struct {
	Dir      string        `mapstructure:"dir"`
	Report   string        `mapstructure:"report"`
	Debounce time.Duration `mapstructure:"debounce"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model.path", "apk_malware.model")
	v.SetDefault("model.importance_report", "model_stats.json")
	v.SetDefault("model.trees", 100)
	v.SetDefault("model.max_depth", 50)
	v.SetDefault("model.test_ratio", 0.2)
	v.SetDefault("model.seed", 0)

	v.SetDefault("corpus.malware_dir", "malware")
	v.SetDefault("corpus.normal_dir", "normal")
	v.SetDefault("corpus.workers", 1)

	v.SetDefault("extractor.aapt_path", "aapt2")
	v.SetDefault("extractor.use_aapt", true)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "droiddetective.db")
	v.SetDefault("database.port", 3306)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.inbound_dir", "inbound")
	v.SetDefault("server.max_upload_mb", 200)

	v.SetDefault("watcher.dir", "inbox")
	v.SetDefault("watcher.report", "report.json")
	v.SetDefault("watcher.debounce", 2*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load 读取配置；path 为空时只用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// 环境变量覆盖，如 DD_MODEL_PATH
	v.SetEnvPrefix("DD")
	v.AutomaticEnv()

	v.BindEnv("model.path", "DD_MODEL_PATH")
	v.BindEnv("corpus.malware_dir", "DD_MALWARE_DIR")
	v.BindEnv("corpus.normal_dir", "DD_NORMAL_DIR")
	v.BindEnv("extractor.aapt_path", "DD_AAPT_PATH")
	v.BindEnv("log.level", "DD_LOG_LEVEL")
	v.BindEnv("server.api_token", "DD_API_TOKEN")

	// Database
	v.BindEnv("database.host", "MYSQL_HOST")
	v.BindEnv("database.port", "MYSQL_PORT")
	v.BindEnv("database.user", "MYSQL_USER")
	v.BindEnv("database.password", "MYSQL_PASS")
	v.BindEnv("database.db_name", "MYSQL_DB")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	if c.Model.Path == "" {
		return errors.New("model.path must not be empty")
	}
	if c.Model.TestRatio <= 0 || c.Model.TestRatio >= 1 {
		return fmt.Errorf("model.test_ratio must be in (0, 1), got %v", c.Model.TestRatio)
	}
	if c.Model.Trees <= 0 {
		return fmt.Errorf("model.trees must be positive, got %d", c.Model.Trees)
	}
	if c.Database.Enabled && c.Database.Type != "sqlite" && c.Database.Type != "mysql" {
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	return nil
}
