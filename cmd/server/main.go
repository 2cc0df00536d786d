// Command hydra-server is a local persistence service for hydra-import.
// It serves the JSON-RPC API on top of a SQLite database.
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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hydraimport/internal/config"
	"hydraimport/internal/handler"
	"hydraimport/internal/hub"
	"hydraimport/internal/logging"
	"hydraimport/internal/repository/sqlite"
	"hydraimport/internal/service"
)

type serverOptions struct {
	configPath string
	addr       string
	dbPath     string
	template   string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts serverOptions

	cmd := &cobra.Command{
		Use:           "hydra-server",
		Short:         "Serve the persistence API over JSON-RPC",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Config file (default: search standard locations)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address (overrides listen.addr)")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides database.path)")
	cmd.Flags().StringVar(&opts.template, "template", "", "Template file to seed at startup (overrides listen.template_seed)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level (overrides logging.level)")

	return cmd
}

func loadConfig(opts serverOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, _, err = config.LoadFromPath(opts.configPath)
	} else {
		cfg, _, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.addr != "" {
		cfg.Listen.Addr = opts.addr
	}
	if opts.dbPath != "" {
		cfg.Database.Path = opts.dbPath
	}
	if opts.template != "" {
		cfg.Listen.TemplateSeed = opts.template
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, nil
}

func runServer(ctx context.Context, opts serverOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()
	log.Info("database opened", zap.String("path", cfg.Database.Path))

	eventBus := service.NewEventBus()
	events := hub.New(log.Named("hub"))
	go events.Run(ctx)

	// Connect event bus to SSE hub
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for {
			select {
			case event := <-eventChan:
				log.Debug("event", zap.String("type", string(event.Type)), zap.Any("payload", event.Payload))
				events.Broadcast(event)
			case <-ctx.Done():
				return
			}
		}
	}()

	svc := service.NewPersistenceService(repo, eventBus, log.Named("service"))

	if cfg.Listen.AdminPass != "" {
		if err := svc.EnsureUser(ctx, cfg.Listen.AdminUser, cfg.Listen.AdminPass); err != nil {
			return fmt.Errorf("create admin user: %w", err)
		}
	} else {
		log.Warn("no admin password configured; only existing users can log in",
			zap.String("env", config.EnvAdminPass))
	}

	if cfg.Listen.TemplateSeed != "" {
		tmpl, err := svc.SeedTemplateFile(ctx, cfg.Listen.TemplateSeed)
		if err != nil {
			return fmt.Errorf("seed template: %w", err)
		}
		log.Info("template ready", zap.String("name", tmpl.Name), zap.Int64("template_id", tmpl.ID))
	}

	router := handler.NewRouter(handler.NewRPCHandler(svc, log.Named("rpc")), events, log.Named("http"))

	server := &http.Server{
		Addr:        cfg.Listen.Addr,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Listen.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
