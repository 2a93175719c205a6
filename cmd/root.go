package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/shotboard/internal/adapters/repository/badger"
	"github.com/okian/shotboard/internal/adapters/repository/sqlite"
	service "github.com/okian/shotboard/internal/app"
	"github.com/okian/shotboard/internal/config"
	"github.com/okian/shotboard/internal/domain/roster"
	"github.com/okian/shotboard/pkg/logger"
	"github.com/okian/shotboard/pkg/metrics"
)

// cli carries what every command needs once the root has bootstrapped.
type cli struct {
	out         io.Writer
	configPath  string
	metricsFile string
	now         func() time.Time

	cfg *config.Config
	log logger.Logger
	svc *service.Service
}

// execute runs one command line. The service is stopped and metrics are
// written even when the command fails.
func execute(ctx context.Context, out io.Writer, args []string) error {
	c := &cli{out: out, now: time.Now}
	root := newRootCmd(c)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if shutdownErr := c.shutdown(); err == nil {
		err = shutdownErr
	}
	return err
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "shotboard",
		Short: "Score shooting tournaments from the command line",
		Long: `shotboard keeps a roster of shooters, scores a tournament shot by shot,
ranks the field and keeps the last finished tournaments for export.

The active tournament is saved after every change, so commands can be run one
at a time and an interrupted tournament resumes where it stopped.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.bootstrap(cmd.Context())
		},
	}
	root.SetOut(c.out)
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file (default $"+config.EnvFile+")")
	root.PersistentFlags().StringVar(&c.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	root.AddCommand(
		newRosterCmd(c),
		newSessionCmd(c),
		newHistoryCmd(c),
		newExportCmd(c),
	)
	return root
}

// bootstrap loads config, initializes logging, opens the stores and starts
// the service.
func (c *cli) bootstrap(ctx context.Context) error {
	var (
		cfg *config.Config
		err error
	)
	if c.configPath != "" {
		cfg, err = config.LoadFile(ctx, c.configPath)
	} else {
		cfg, err = config.Load(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c.cfg = cfg

	if err := logger.InitWithOptions(logger.Options{Format: cfg.LogFormat, Level: cfg.LogLevel}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	c.log = logger.Get()

	metrics.Configure(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithHistogramBuckets(cfg.MetricsBuckets),
		metrics.WithCustomLabels(cfg.MetricsLabels),
	)

	opts := []service.Option{
		service.WithLogger(c.log.Named("service")),
		service.WithHistoryCapacity(cfg.HistoryCapacity),
		service.WithDefaultPlayers(cfg.DefaultPlayers),
		service.WithDefaultShape(cfg.DefaultTargets, cfg.DefaultShotsPerTarget),
	}
	opts = append(opts, c.openStores(ctx)...)

	c.svc = service.New(opts...)
	if err := c.svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	return nil
}

// openStores opens the configured backends. A backend that fails to open is
// still handed to the service, which then runs in memory.
func (c *cli) openStores(ctx context.Context) []service.Option {
	var opts []service.Option

	if c.cfg.Storage == config.StorageSQLite {
		store, err := sqlite.Open(ctx, c.cfg.ResolvedDatabasePath(),
			sqlite.WithLogger(c.log.Named("sqlite")),
			sqlite.WithHistoryCapacity(c.cfg.HistoryCapacity),
			sqlite.WithDefaultRoster(roster.DefaultParticipants(c.cfg.DefaultPlayers)),
		)
		if err != nil {
			c.log.Warn(ctx, "database unavailable", logger.String("path", c.cfg.ResolvedDatabasePath()), logger.Error(err))
		}
		opts = append(opts, service.WithRosterStore(store), service.WithHistoryStore(store))
	}

	session, err := badger.Open(badger.Config{
		Path:     c.cfg.ResolvedSessionPath(),
		InMemory: c.cfg.SessionInMemory,
		Logger:   c.log,
	})
	if err != nil {
		// The service keeps the snapshot in memory instead.
		c.log.Warn(ctx, "session snapshot store unavailable", logger.Error(err))
		metrics.RecordStoreError("badger", "open")
		return opts
	}
	return append(opts, service.WithSessionStore(session))
}

func (c *cli) shutdown() error {
	if c.svc != nil {
		c.svc.Stop()
		c.svc = nil
	}
	path := c.metricsFile
	if path == "" && c.cfg != nil {
		path = c.cfg.MetricsFile
	}
	if path == "" {
		return nil
	}
	return metrics.WriteTextfile(path)
}
