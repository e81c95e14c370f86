package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/yuqie6/TimeBudget/internal/eventbus"
	"github.com/yuqie6/TimeBudget/internal/pkg/config"
	"github.com/yuqie6/TimeBudget/internal/repository"
	"github.com/yuqie6/TimeBudget/internal/schema"
	"github.com/yuqie6/TimeBudget/internal/service"
)

// Core 持有跨二进制共享的核心依赖
type Core struct {
	Cfg       *config.Config
	DB        *repository.Database
	LogCloser io.Closer
	Hub       *eventbus.Hub
	StartedAt time.Time

	Repos struct {
		Classes   *repository.ClassRepository
		Budgets   *repository.BudgetRepository
		Mappings  *repository.MappingRepository
		Samples   *repository.SampleRepository
		Overrides *repository.OverrideRepository
		Configs   *repository.ConfigRepository
	}

	Services struct {
		TimeBudget *service.TimeBudgetService
		Admin      *service.AdminService
	}
}

// NewCore 加载配置、初始化日志并构建核心依赖
func NewCore(cfgPath string) (*Core, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logCloser, err := config.SetupLogger(config.LoggerOptions{
		Level:     cfg.App.LogLevel,
		Path:      cfg.App.LogPath,
		Component: filepath.Base(os.Args[0]),
	})
	if err != nil {
		slog.Warn("日志文件不可用，仅输出到 stdout", "error", err)
	}

	c, err := NewCoreWithConfig(cfg)
	if err != nil {
		if logCloser != nil {
			_ = logCloser.Close()
		}
		return nil, err
	}
	c.LogCloser = logCloser
	return c, nil
}

// NewCoreWithConfig 使用已加载的配置构建核心依赖（不初始化日志）
func NewCoreWithConfig(cfg *config.Config) (*Core, error) {
	db, err := repository.NewDatabase(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}

	c := &Core{Cfg: cfg, DB: db, Hub: eventbus.NewHub(), StartedAt: time.Now()}

	// Repos
	c.Repos.Classes = repository.NewClassRepository(db.DB)
	c.Repos.Budgets = repository.NewBudgetRepository(db.DB)
	c.Repos.Mappings = repository.NewMappingRepository(db.DB)
	c.Repos.Samples = repository.NewSampleRepository(db.DB)
	c.Repos.Overrides = repository.NewOverrideRepository(db.DB)
	c.Repos.Configs = repository.NewConfigRepository(db.DB)

	// Services
	c.Services.TimeBudget = service.NewTimeBudgetService(
		c.Repos.Classes,
		c.Repos.Budgets,
		c.Repos.Mappings,
		c.Repos.Samples,
		c.Repos.Overrides,
		service.NewAggregator(int64(cfg.Tracking.SessionGapSec), cfg.Tracking.FocusOnly),
	)
	c.Services.Admin = service.NewAdminService(
		c.Repos.Classes,
		c.Repos.Budgets,
		c.Repos.Mappings,
		c.Repos.Overrides,
		c.Repos.Configs,
	)

	return c, nil
}

// ApplyGlobalLogLevel 全局配置表中的 log_level 优先于配置文件
func (c *Core) ApplyGlobalLogLevel(ctx context.Context) {
	if c == nil || c.DB == nil || c.DB.SafeMode {
		return
	}
	global, err := c.Repos.Configs.GetGlobal(ctx)
	if err != nil {
		slog.Warn("读取全局配置失败", "error", err)
		return
	}
	level, ok := global[schema.GlobalConfigLogLevel]
	if !ok {
		return
	}
	if !config.SetLevel(level) {
		slog.Warn("全局配置 log_level 不合法，已忽略", "value", level)
		return
	}
	slog.Info("日志级别由全局配置覆盖", "level", level)
}

// RefreshLogLevel 全局配置变更后重新计算日志级别：先回到配置文件，再叠加全局覆盖
func (c *Core) RefreshLogLevel(ctx context.Context) {
	if c == nil {
		return
	}
	config.SetLevel(c.Cfg.App.LogLevel)
	c.ApplyGlobalLogLevel(ctx)
}

// ApplyReloadedConfig 配置文件热加载：日志级别立即生效，其它项需重启
func (c *Core) ApplyReloadedConfig(ctx context.Context, cfg *config.Config) {
	if c == nil || cfg == nil {
		return
	}
	if cfg.App.LogLevel != c.Cfg.App.LogLevel {
		config.SetLevel(cfg.App.LogLevel)
		slog.Info("日志级别已更新", "level", cfg.App.LogLevel)
		c.Cfg.App.LogLevel = cfg.App.LogLevel
		// 全局配置覆盖仍然优先
		c.ApplyGlobalLogLevel(ctx)
	}
	if cfg.Tracking != c.Cfg.Tracking || cfg.Storage != c.Cfg.Storage || cfg.Server != c.Cfg.Server {
		slog.Warn("存储/服务/计时配置变更需重启后生效")
	}
	c.Hub.Publish(eventbus.Event{Type: eventbus.TypeConfigChanged})
}

// Close 关闭核心依赖资源
func (c *Core) Close() error {
	if c == nil {
		return nil
	}
	var dbErr error
	if c.DB != nil {
		dbErr = c.DB.Close()
	}
	if c.LogCloser != nil {
		_ = c.LogCloser.Close()
	}
	return dbErr
}
