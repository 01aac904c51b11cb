package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"finadvisor/internal/advisor"
	"finadvisor/internal/amqp"
	"finadvisor/internal/completion"
	"finadvisor/internal/config"
	apphttp "finadvisor/internal/http"
	"finadvisor/internal/log"
	"finadvisor/internal/services"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until SIGINT or SIGTERM.

Configuration comes from the environment (and an optional .env file).
Flags override PORT and LOG_LEVEL.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().StringP("port", "p", "", "port to listen on (overrides PORT)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	log.SetDefault(logger)

	client := completion.New(cfg.CompletionConfig())
	if client.Available() {
		logger.Info("Completion API configured", "model", client.Model(), "timeout", cfg.CompletionTimeout.String())
	} else {
		logger.Info("Completion API key not set, using built-in advice only")
	}

	var publisher services.Publisher
	if cfg.EventsEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			// Events are optional; keep serving without them
			logger.WithComponent(log.ComponentAMQP).Error("Failed to initialize AMQP client, advice events disabled",
				log.FieldError, err.Error(),
				log.FieldErrorType, log.ErrorTypeNetwork)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("Advice events enabled", "exchange", cfg.AMQPExchange, "routing_key", cfg.AMQPRoutingKey)
		}
	}

	service := services.NewAdviceService(advisor.NewGenerator(client, logger), publisher, logger)
	// Runs before the AMQP client closes so queued events still go out
	defer service.Close()

	srvCfg := apphttp.DefaultConfig()
	srvCfg.Addr = ":" + cfg.Port
	srvCfg.MaxBodyBytes = cfg.MaxBodyBytes
	srvCfg.RateLimitPerMinute = cfg.RateLimitPerMinute
	if wt := cfg.CompletionTimeout + srvCfg.ReadTimeout; wt > srvCfg.WriteTimeout {
		srvCfg.WriteTimeout = wt
	}
	srv := apphttp.NewServer(srvCfg, service, logger)

	return serve(cmd.Context(), srv, cfg, logger)
}

// serve runs srv until ctx is canceled or the listener fails, then shuts it
// down within the configured timeout.
func serve(ctx context.Context, srv *apphttp.Server, cfg *config.Config, logger *log.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting finadvisor server", "port", cfg.Port, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on port %s: %w", cfg.Port, err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, draining connections", "timeout", cfg.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		logger.LogOperation(shutdownCtx, log.OpShutdown, err, nil)
		if err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
