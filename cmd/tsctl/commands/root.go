// Package commands implements the tsctl subcommands.
package commands

import (
	"context"
	"database/sql"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/timetrack-backend/config"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/respcache"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/storage/postgres"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// Deps opens the resources commands need. Tests swap them out.
type Deps struct {
	Config    func() (*config.Config, error)
	OpenDB    func(ctx context.Context, cfg *config.Config) (*sql.DB, error)
	OpenCache func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*respcache.Cache, func(), error)
	Logger    func(cfg *config.Config) (*zap.Logger, error)
}

func DefaultDeps() Deps {
	return Deps{
		Config: config.Load,
		OpenDB: func(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
			return postgres.NewConnection(ctx, &cfg.Database)
		},
		OpenCache: func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*respcache.Cache, func(), error) {
			rdb := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			}, logger)
			c, err := respcache.New(rdb, bootstrap.CacheConfig(cfg.Cache), respcache.WithLogger(logger))
			if err != nil {
				_ = rdb.Close()
				return nil, nil, err
			}
			return c, func() { _ = rdb.Close() }, nil
		},
		Logger: func(cfg *config.Config) (*zap.Logger, error) {
			return bootstrap.NewLogger(cfg.App.Environment, cfg.App.LogLevel)
		},
	}
}

type CLI struct {
	deps    Deps
	rootCmd *cobra.Command

	cfg    *config.Config
	logger *zap.Logger
}

func New(deps Deps) *CLI {
	c := &CLI{deps: deps}

	rootCmd := &cobra.Command{
		Use:           "tsctl",
		Short:         "Administer the timetrack API: schema and response cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["config"] == "none" {
				return nil
			}
			return c.load()
		},
	}

	rootCmd.AddCommand(c.newMigrateCmd())
	rootCmd.AddCommand(c.newCacheCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	c.rootCmd = rootCmd
	return c
}

func (c *CLI) load() error {
	cfg, err := c.deps.Config()
	if err != nil {
		return err
	}
	logger, err := c.deps.Logger(cfg)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logger
	return nil
}

func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOut redirects command output. Used for testing.
func (c *CLI) SetOut(w io.Writer) {
	c.rootCmd.SetOut(w)
}
