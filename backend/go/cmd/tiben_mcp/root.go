package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"tiben-mcp/backend/go/internal/config"
	apihttp "tiben-mcp/backend/go/pkg/http"
	"tiben-mcp/backend/go/pkg/logger"
)

const (
	transportStdio      = "stdio"
	transportSSE        = "sse"
	transportHTTPStream = "httpstream"
)

var (
	cfgFile   string
	transport string
	port      int
)

var rootCmd = &cobra.Command{
	Use:   "tiben-mcp",
	Short: "MCP server for solving K-12 problems from images",
	Long: `tiben-mcp exposes three tools over the Model Context Protocol:
solve_problem_from_image, find_similar_problems and get_recommended_resources.
Each call is forwarded to the tiben backend API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrDefault(cfgFile)
		if err != nil {
			return err
		}
		logger.Init(logger.ParseLevel(cfg.Logger.Level), os.Stderr)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

// Execute runs the root command. It is called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.New(rootCmd.Name(), "", "").Fatal(fmt.Sprintf("tiben-mcp exited: %v", err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to the YAML config file; defaults are used if it does not exist")
	rootCmd.Flags().StringVar(&transport, "transport", transportStdio, "MCP transport: stdio, sse or httpstream")
	rootCmd.Flags().IntVar(&port, "port", 8085, "listen port for the sse and httpstream transports")
}

func serve(ctx context.Context, cfg *config.AppConfig) error {
	appLogger := logger.New(cfg.App.Name, "", "")

	app, err := newApp(cfg, appLogger)
	if err != nil {
		return err
	}
	defer app.Close()

	addr := fmt.Sprintf(":%d", port)
	appLogger.Info(fmt.Sprintf("Starting %s %s (transport=%s, backend=%s)", cfg.App.Name, cfg.App.Version, transport, cfg.Backend.APIBase))

	switch transport {
	case transportStdio:
		return server.ServeStdio(app.mcp)

	case transportSSE:
		sse := server.NewSSEServer(app.mcp)
		return runUntilDone(ctx, appLogger, func() error { return sse.Start(addr) }, sse.Shutdown)

	case transportHTTPStream:
		srv, err := apihttp.NewServer(cfg, apihttp.WithAddress(addr), apihttp.WithLogger(appLogger))
		if err != nil {
			return err
		}
		srv.Handle("/mcp", server.NewStreamableHTTPServer(app.mcp))
		return runUntilDone(ctx, appLogger, srv.ListenAndServe, srv.Shutdown)

	default:
		return fmt.Errorf("unsupported transport %q", transport)
	}
}

// runUntilDone 启动 start 并在 ctx 结束时调用 shutdown。
func runUntilDone(ctx context.Context, log *logger.Logger, start func() error, shutdown func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return shutdown(shutdownCtx)
	}
}
