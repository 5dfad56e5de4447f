package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/mesctl/cmd/mesctl/commands"
	"github.com/jakechorley/mesctl/internal/config"
	"github.com/jakechorley/mesctl/pkg/clients/mesclient"
	"github.com/jakechorley/mesctl/pkg/postgres"
	"github.com/jakechorley/mesctl/pkg/session"
	"github.com/jakechorley/mesctl/pkg/utils/logging"
)

var (
	env     string
	verbose bool
	app     = &commands.AppContext{}
	closers []func() error
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app.Ctx = ctx

	rootCmd := &cobra.Command{
		Use:   "mesctl",
		Short: "mesctl - MES equipment board and production calendar console",
		Long: `A terminal console for the MES front end: the equipment slot board for each
building and the production calendar with tagged events.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: dev, prod, etc.)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs on the console")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.DashboardCmd(app))
	rootCmd.AddCommand(commands.SlotCmd(app))
	rootCmd.AddCommand(commands.ShipCmd(app))
	rootCmd.AddCommand(commands.CalendarCmd(app))
	rootCmd.AddCommand(commands.TagsCmd(app))
	rootCmd.AddCommand(commands.SessionCmd(app))
	rootCmd.AddCommand(commands.ExportCmd(app))
	rootCmd.AddCommand(commands.PublishCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	err := rootCmd.Execute()
	shutdown()
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, commands.ErrorBanner(err))
		if app.Logger != nil {
			app.Logger.Error("Command failed", zap.Error(err))
			app.Logger.Sync()
		}
		os.Exit(1)
	}
}

// initApp sets up logger, config, session store and the MES client
func initApp() error {
	var err error
	app.Env = env
	app.Out = os.Stdout

	app.Logger, err = logging.New(env, logging.Options{Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Debug("Loading configuration", zap.String("environment", env))
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app.Store, err = openSessionStore(app.Ctx, app.Cfg.Session)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	app.Client, err = mesclient.NewClient(mesclient.Options{
		BaseURL: app.Cfg.APIBaseURL,
		Timeout: app.Cfg.RequestTimeout,
		Tokens:  session.Tokens{Store: app.Store},
		Logger:  app.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create MES client: %w", err)
	}

	app.Logger.Debug("Application initialized",
		zap.String("api", app.Client.BaseURL()),
		zap.String("session_backend", app.Cfg.Session.Backend))
	return nil
}

// openSessionStore picks the configured session backend
func openSessionStore(ctx context.Context, cfg config.SessionConfig) (session.Store, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		store, err := session.NewRedisStore(ctx, session.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})
		if err != nil {
			return nil, err
		}
		closers = append(closers, store.Close)
		return store, nil

	case config.BackendPostgres:
		db, err := postgres.NewDB(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		closers = append(closers, db.Close)
		if err := db.RunMigrations(ctx); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return postgres.NewSessionStore(db, env), nil

	default:
		return session.NewFileStore(cfg.Path, env)
	}
}

func shutdown() {
	for _, closeFn := range closers {
		closeFn()
	}
}
