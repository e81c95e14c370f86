package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yuqie6/TimeBudget/internal/bootstrap"
)

type LocalServer struct {
	core    *bootstrap.Core
	ln      net.Listener
	srv     *http.Server
	baseURL string
}

type Options struct {
	ListenAddr        string // e.g. "127.0.0.1:8491"
	ReadHeaderTimeout time.Duration
}

// Listen 绑定端口并构建 http.Server（不开始服务）
func Listen(core *bootstrap.Core, opts Options) (*LocalServer, error) {
	if core == nil {
		return nil, fmt.Errorf("core 不能为空")
	}
	if strings.TrimSpace(opts.ListenAddr) == "" {
		opts.ListenAddr = "127.0.0.1:0"
	}
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = 5 * time.Second
	}

	ln, err := net.Listen("tcp", opts.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("监听 %s 失败: %w", opts.ListenAddr, err)
	}

	// Shutdown 只等待空闲连接，SSE 长连接需要靠取消请求上下文退出
	baseCtx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Handler:           NewHandler(core),
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancel)

	return &LocalServer{
		core:    core,
		ln:      ln,
		srv:     srv,
		baseURL: "http://" + ln.Addr().String(),
	}, nil
}

// Serve 阻塞服务直到 Shutdown
func (s *LocalServer) Serve() error {
	slog.Info("本地 HTTP 已启动", "base_url", s.baseURL)
	if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server 异常退出: %w", err)
	}
	return nil
}

func (s *LocalServer) BaseURL() string {
	if s == nil {
		return ""
	}
	return s.baseURL
}

func (s *LocalServer) Shutdown(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
