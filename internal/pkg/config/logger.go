package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// logLevel 全局日志级别，运行时可调整（全局配置 log_level、配置文件热加载）
var logLevel = new(slog.LevelVar)

// LoggerOptions 日志初始化参数
type LoggerOptions struct {
	Level     string
	Path      string // 为空时只输出到 stdout
	Component string
}

// ParseLevel 解析日志级别字符串
func ParseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// SetLevel 调整全局日志级别；无法识别的级别忽略并返回 false
func SetLevel(level string) bool {
	l, ok := ParseLevel(level)
	if !ok {
		return false
	}
	logLevel.Set(l)
	return true
}

// Level 当前日志级别
func Level() slog.Level {
	return logLevel.Level()
}

// SetupLogger 根据配置设置默认 logger；配置了 Path 时同时写文件，返回的 Closer 负责关闭文件
func SetupLogger(opts LoggerOptions) (io.Closer, error) {
	l, _ := ParseLevel(opts.Level)
	logLevel.Set(l)

	var out io.Writer = os.Stdout
	var closer io.Closer
	var fileErr error
	if opts.Path != "" {
		f, err := openLogFile(opts.Path)
		if err != nil {
			// 文件不可用时仍然输出到 stdout
			fileErr = err
		} else {
			out = io.MultiWriter(os.Stdout, f)
			closer = f
		}
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	if opts.Component != "" {
		logger = logger.With("component", opts.Component)
	}
	slog.SetDefault(logger)
	return closer, fileErr
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	return f, nil
}
