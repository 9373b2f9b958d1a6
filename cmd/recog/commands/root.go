// Package commands implements the recog CLI command tree.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vulntor/recog/pkg/appctx"
	"github.com/vulntor/recog/pkg/config"
	"github.com/vulntor/recog/pkg/logging"
	"github.com/vulntor/recog/pkg/recog"
)

const cliExecutable = "recog"

// NewCommand constructs the top-level recog CLI command, wiring global
// flags, configuration loading and logging setup.
func NewCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Match service banners against recog fingerprint databases",
		Long:  "recog loads XML fingerprint databases and matches banners, headers and version strings against them to extract structured identification fields.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			manager := config.NewManager()
			if err := manager.Load(cmd.Flags(), configFile); err != nil {
				return err
			}

			cfg := manager.Get()
			logging.Configure(cfg.Log.Level, cfg.Log.Format)

			ctx := appctx.WithConfig(cmd.Context(), manager)
			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newMatchCommand())
	cmd.AddCommand(newVerifyCommand())

	return cmd
}

// currentConfig resolves the loaded configuration for a subcommand.
func currentConfig(cmd *cobra.Command) (config.Config, error) {
	manager, ok := appctx.Config(cmd.Context())
	if !ok {
		return config.Config{}, fmt.Errorf("configuration not initialized")
	}
	return manager.Get(), nil
}

// matcherFactory maps the configured engine name to a pattern factory.
func matcherFactory(engine string) (recog.MatcherFactory, error) {
	switch engine {
	case "", "regexp2":
		return recog.NewRegexp2Matcher, nil
	case "go":
		return recog.NewGoMatcher, nil
	default:
		return nil, fmt.Errorf("unknown regex engine %q", engine)
	}
}

// loadDatabases loads either a single database file or every database in
// the configured directory.
func loadDatabases(cfg config.Config, dbFile string) ([]*recog.Database, error) {
	factory, err := matcherFactory(cfg.Databases.Engine)
	if err != nil {
		return nil, err
	}
	parser := recog.NewParserWithFactory(cfg.Databases.Strict, factory)

	if dbFile != "" {
		db, err := parser.ParseFile(dbFile)
		if err != nil {
			return nil, err
		}
		return []*recog.Database{db}, nil
	}

	if cfg.Databases.Dir == "" {
		return nil, fmt.Errorf("no fingerprint source: pass --db or set databases.dir")
	}
	store := recog.NewDirectoryStore(cfg.Databases.Dir, parser)
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store.Databases(), nil
}
