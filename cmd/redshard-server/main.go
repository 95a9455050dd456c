/*
redshard-server is the standalone binary: flag parsing via cobra,
structured logging via zap with lumberjack rotation, GOMAXPROCS
tuning via automaxprocs, and graceful shutdown on SIGINT/SIGTERM.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/redshard/redshard"
)

func main() {
	var (
		port               uint16
		maxConnections     int
		shardCount         int
		idleTimeoutSeconds uint32
		logPath            string
	)

	root := &cobra.Command{
		Use:   "redshard-server",
		Short: "Redis-wire-compatible single-node in-memory key-value server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			undo, err := maxprocs.Set()
			if err != nil {
				fmt.Fprintf(os.Stderr, "redshard: maxprocs: %v\n", err)
			}
			if undo != nil {
				defer undo()
			}

			logger := buildLogger(logPath)
			defer logger.Sync()

			cfg, err := redshard.DecodeConfig(map[string]interface{}{
				"port":                 port,
				"max_connections":      maxConnections,
				"shard_count":          shardCount,
				"idle_timeout_seconds": idleTimeoutSeconds,
			})
			if err != nil {
				return fmt.Errorf("decoding config: %w", err)
			}

			addr := fmt.Sprintf(":%d", cfg.Port)
			srv := redshard.NewServerWithConfig(addr, cfg)
			srv.Logger = logger

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Serve() }()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("serve: %w", err)
				}
			case <-ctx.Done():
				logger.Info("shutdown signal received")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Error("shutdown reported errors", zap.Error(err))
				}
			}
			return nil
		},
	}

	flags := root.Flags()
	flags.Uint16Var(&port, "port", 6379, "TCP port to listen on")
	flags.IntVar(&maxConnections, "max-connections", 10000, "maximum concurrent client connections")
	flags.IntVar(&shardCount, "shard-count", 32, "number of key-space lock shards")
	flags.Uint32Var(&idleTimeoutSeconds, "idle-timeout-seconds", 0, "close connections idle longer than this (0 disables)")
	flags.StringVar(&logPath, "log-file", "", "path to a rotated log file (empty = stderr only)")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "redshard: %v\n", err)
		os.Exit(1)
	}
}

func buildLogger(path string) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(os.Stderr),
		zap.InfoLevel,
	)

	if path != "" {
		rotator := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(rotator), zap.InfoLevel)
		core = zapcore.NewTee(core, fileCore)
	}

	return zap.New(core)
}
