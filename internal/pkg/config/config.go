package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，如 TIMEBUDGET_STORAGE_DB_PATH
const EnvPrefix = "TIMEBUDGET"

// Config 应用配置
type Config struct {
	App      AppConfig      `mapstructure:"app" yaml:"app"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Tracking TrackingConfig `mapstructure:"tracking" yaml:"tracking"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Version  string `mapstructure:"version" yaml:"version"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogPath  string `mapstructure:"log_path" yaml:"log_path"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// ServerConfig 本地 HTTP 服务配置
type ServerConfig struct {
	ListenAddr           string `mapstructure:"listen_addr" yaml:"listen_addr"`
	ReadHeaderTimeoutSec int    `mapstructure:"read_header_timeout_sec" yaml:"read_header_timeout_sec"`
	ShutdownTimeoutSec   int    `mapstructure:"shutdown_timeout_sec" yaml:"shutdown_timeout_sec"`
}

// TrackingConfig 计时配置
type TrackingConfig struct {
	SessionGapSec int  `mapstructure:"session_gap_sec" yaml:"session_gap_sec"` // 相邻快照间隔上限（含），超过视为空闲
	FocusOnly     bool `mapstructure:"focus_only" yaml:"focus_only"`           // 只统计前台窗口
}

// Default 返回全部默认值组成的配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}

	// 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 处理相对路径
	if cfg.Storage.DBPath != ":memory:" {
		cfg.Storage.DBPath = resolvePath(cfg.Storage.DBPath)
	}
	if cfg.App.LogPath != "" {
		cfg.App.LogPath = resolvePath(cfg.App.LogPath)
	}

	return &cfg, nil
}

func newViper(configPath string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if configPath == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(configPath)
	}

	// TIMEBUDGET_TRACKING_SESSION_GAP_SEC 覆盖 tracking.session_gap_sec
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		slog.Info("加载配置文件", "path", v.ConfigFileUsed())
	case errors.As(err, &notFound):
		slog.Warn("未找到配置文件，使用默认配置")
	case configPath != "" && errors.Is(err, os.ErrNotExist):
		slog.Warn("配置文件不存在，使用默认配置", "path", configPath)
	default:
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return v, nil
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	if c.Tracking.SessionGapSec <= 0 {
		return fmt.Errorf("tracking.session_gap_sec 必须为正数: %d", c.Tracking.SessionGapSec)
	}
	if strings.TrimSpace(c.Storage.DBPath) == "" {
		return fmt.Errorf("storage.db_path 不能为空")
	}
	if _, ok := ParseLevel(c.App.LogLevel); !ok && c.App.LogLevel != "" {
		return fmt.Errorf("app.log_level 不合法: %q", c.App.LogLevel)
	}
	return nil
}

// defaults 全部配置项的默认值
var defaults = map[string]any{
	"app.name":      "timebudget",
	"app.version":   "0.1.0",
	"app.log_level": "info",
	"app.log_path":  "",

	"storage.db_path": "./data/timebudget.db",

	"server.listen_addr":             "127.0.0.1:8491",
	"server.read_header_timeout_sec": 5,
	"server.shutdown_timeout_sec":    5,

	"tracking.session_gap_sec": 25,
	"tracking.focus_only":      false,
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// resolvePath 相对路径按可执行文件所在目录解析
func resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	exe, err := os.Executable()
	if err != nil {
		return path
	}
	return filepath.Join(filepath.Dir(exe), path)
}
