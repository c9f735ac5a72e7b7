package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/cookiejar-app/cookiejar/internal/config"
	"github.com/cookiejar-app/cookiejar/internal/domain/cookie"
	"github.com/cookiejar-app/cookiejar/internal/domain/project"
	"github.com/cookiejar-app/cookiejar/internal/gateway"
	"github.com/cookiejar-app/cookiejar/internal/mcp"
	"github.com/cookiejar-app/cookiejar/internal/store"
	"github.com/cookiejar-app/cookiejar/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logWriter := io.Writer(os.Stdout)
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureStoreDir(cfg.Store.Path); err != nil {
		logger.Error("failed to prepare store path", "error", err)
		os.Exit(1)
	}

	st, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.Store.Backend, "path", cfg.Store.Path, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	guard := &store.Guard{}
	cookieSvc := cookie.NewService(st, guard, logger)
	projectSvc := project.NewService(st, guard, logger)
	gatewaySvc := gateway.NewService(st, guard, cookieSvc, projectSvc, logger)

	hub := transport.NewHub(logger)
	router := transport.NewServer(transport.Services{
		Cookies:  cookieSvc,
		Projects: projectSvc,
		Gateway:  gatewaySvc,
	}, hub, logger)

	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer(mcp.Config{
			Services: mcp.Services{
				Cookies:  cookieSvc,
				Projects: projectSvc,
			},
			Logger: logger,
		})
		mcpHandler := mcp.NewHTTPHandler(mcpServer)
		router.Handle("/mcp", mcpHandler)
		router.Handle("/mcp/*", mcpHandler)
		logger.Info("mcp surface enabled")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("daemon listening", "addr", addr, "backend", cfg.Store.Backend)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

func openStore(cfg config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "sqlite":
		return store.OpenSQLite(cfg.Store.Path)
	default:
		return store.OpenJSONFile(cfg.Store.Path)
	}
}

func ensureStoreDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	maxLogSizeBytes  = 6 * 1024 * 1024
	keepLogSizeBytes = 5 * 1024 * 1024
)

type logFileWriter struct {
	path string
	file *os.File
	mu   sync.Mutex
}

func newLogFileWriter(path string) (*logFileWriter, *os.File, error) {
	if err := ensureLogDir(path); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	writer := &logFileWriter{path: path, file: file}
	if err := writer.truncateIfNeeded(); err != nil {
		return nil, nil, err
	}
	return writer, file, nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (w *logFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	if err := w.truncateIfNeeded(); err != nil {
		return n, err
	}
	return n, nil
}

func (w *logFileWriter) truncateIfNeeded() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= maxLogSizeBytes {
		return nil
	}

	buf := make([]byte, keepLogSizeBytes)
	if _, err := w.file.Seek(size-keepLogSizeBytes, io.SeekStart); err != nil {
		return err
	}
	n, err := w.file.Read(buf)
	if err != nil && err != io.EOF {
		return err
	}
	buf = buf[:n]

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.file.Write(buf); err != nil {
		return err
	}
	_, err = w.file.Seek(0, io.SeekEnd)
	return err
}
