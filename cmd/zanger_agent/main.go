package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgnsrekt/zanger_agent/internal/api"
	"github.com/dgnsrekt/zanger_agent/internal/backend"
	"github.com/dgnsrekt/zanger_agent/internal/browser"
	"github.com/dgnsrekt/zanger_agent/internal/browserui"
	"github.com/dgnsrekt/zanger_agent/internal/config"
	"github.com/dgnsrekt/zanger_agent/internal/controller"
	"github.com/dgnsrekt/zanger_agent/internal/conversation"
	"github.com/dgnsrekt/zanger_agent/internal/netutil"
	"github.com/dgnsrekt/zanger_agent/internal/session"
	"github.com/dgnsrekt/zanger_agent/internal/storage"
	"github.com/dgnsrekt/zanger_agent/internal/watchlist"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		if _, writeErr := io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n"); writeErr != nil {
			slog.Debug("logger setup stderr write failed", "error", writeErr)
		}
		os.Exit(1)
	}

	slog.Info("zanger_agent config loaded",
		"backend_url", cfg.BackendURL,
		"data_dir", cfg.DataDir,
		"bind_addr", cfg.BindAddr,
		"start_url", cfg.StartURL,
		"launch_browser", cfg.LaunchBrowser,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	snaps, err := storage.NewStore(cfg.DataDir)
	if err != nil {
		slog.Error("failed to create snapshot store", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	client := backend.NewClient(cfg.BackendURL, time.Duration(cfg.HTTPTimeoutMS)*time.Millisecond)

	var launcher *browser.Launcher
	if cfg.LaunchBrowser {
		launcher = browser.NewLauncher(browser.Config{
			CDPAddress: cfg.CDPAddress,
			CDPPort:    cfg.CDPPort,
			StartURL:   cfg.StartURL,
			ProfileDir: cfg.ProfileDir,
		})
		if err := launcher.Launch(context.Background()); err != nil {
			slog.Error("failed to launch browser", "error", err)
			os.Exit(1)
		}
		defer launcher.Stop()
	}

	renderer := browserui.NewRenderer(cfg.CDPURL(), cfg.TabURLFilter, time.Duration(cfg.EvalTimeoutMS)*time.Millisecond)
	if err := renderer.Connect(context.Background()); err != nil {
		slog.Warn("renderer not attached, continuing without a view", "error", err)
	}
	defer renderer.Close()

	conv := conversation.NewStore(snaps, cfg.ChatHistoryKey, renderer)
	watch := watchlist.NewStore(snaps, cfg.WatchlistKey, renderer)
	worker := watchlist.NewWorker(client, watch)
	gate := session.NewGate(client, conv, watch, worker, renderer)
	ctrl := controller.NewController(client, conv, watch, worker, renderer)
	svc := controller.NewService(gate, ctrl, conv, watch, worker)

	bindAddr, err := netutil.SelectBindAddr(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}

	srv := &http.Server{Addr: bindAddr, Handler: api.NewServer(svc)}

	go func() {
		slog.Info("zanger_agent listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("zanger_agent server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("zanger_agent shutdown failed", "error", err)
	}
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
