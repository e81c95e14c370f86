package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yuqie6/TimeBudget/internal/bootstrap"
	"github.com/yuqie6/TimeBudget/internal/httpapi"
	"github.com/yuqie6/TimeBudget/internal/pkg/buildinfo"
	"github.com/yuqie6/TimeBudget/internal/pkg/config"
	"github.com/yuqie6/TimeBudget/internal/pkg/instance"
)

func main() {
	cfgPath := flag.String("config", "", "配置文件路径（默认可执行文件目录下 config/config.yaml）")
	flag.Parse()

	if err := run(*cfgPath); err != nil {
		slog.Error("TimeBudget 服务异常退出", "error", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	if cfgPath == "" {
		p, err := config.DefaultConfigPath()
		if err == nil {
			cfgPath = p
		}
	}
	if cfgPath != "" {
		if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
			if err := config.WriteFile(cfgPath, config.Default()); err != nil {
				slog.Warn("写入默认配置失败", "path", cfgPath, "error", err)
			}
		}
	}

	core, err := bootstrap.NewCore(cfgPath)
	if err != nil {
		return err
	}
	defer core.Close()

	// 单实例：同一数据库只允许一个服务进程
	if core.Cfg.Storage.DBPath != ":memory:" {
		lock, err := instance.Acquire(filepath.Join(filepath.Dir(core.Cfg.Storage.DBPath), "timebudget.lock"))
		if errors.Is(err, instance.ErrAlreadyRunning) {
			slog.Warn("已有服务实例在运行，退出", "db_path", core.Cfg.Storage.DBPath)
			return nil
		}
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core.ApplyGlobalLogLevel(ctx)
	slog.Info("TimeBudget 服务启动中...", "name", core.Cfg.App.Name, "build", buildinfo.String())
	if core.DB.SafeMode {
		slog.Warn("数据库处于安全模式，写入可能失败", "reason", core.DB.MigrationError)
	}

	if cfgPath != "" {
		if err := config.Watch(ctx, cfgPath, func(cfg *config.Config) {
			core.ApplyReloadedConfig(ctx, cfg)
		}); err != nil {
			slog.Warn("配置热加载不可用", "error", err)
		}
	}

	srv, err := httpapi.Listen(core, httpapi.Options{
		ListenAddr:        core.Cfg.Server.ListenAddr,
		ReadHeaderTimeout: time.Duration(core.Cfg.Server.ReadHeaderTimeoutSec) * time.Second,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Serve)
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("正在关闭...")
		timeout := time.Duration(core.Cfg.Server.ShutdownTimeoutSec) * time.Second
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	slog.Info("TimeBudget 服务已退出")
	return err
}
