package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/myblogsite/myblog/internal/db"
	"github.com/myblogsite/myblog/pkg/config"
	"github.com/myblogsite/myblog/pkg/logging"
)

// VersionInfo identifies the build
type VersionInfo struct {
	Version string
	Commit  string
}

// session carries what the persistent pre-run prepared for the subcommands
type session struct {
	cfg *config.Config
}

// openDB connects to the configured database
func (r *session) openDB() (*db.DB, error) {
	return db.New(&r.cfg.Database, r.cfg.Logging.Level)
}

// NewRootCommand builds the blogctl command tree
func NewRootCommand(info VersionInfo) *cobra.Command {
	var (
		path     string
		logLevel string
	)
	rt := &session{}

	cmd := &cobra.Command{
		Use:           "blogctl",
		Short:         "Administration tool for the blog",
		Long:          "blogctl manages the blog database schema, seeds demo content and generates configuration files.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if path != "" {
				if err := os.Setenv("BLOG_CONFIG", path); err != nil {
					return err
				}
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = strings.ToUpper(logLevel)
			}
			cfg.Logging.Format = "text"

			if err := logging.InitLogger(&cfg.Logging); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			rt.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&path, "config", "", "config file (default is ./config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	cmd.AddCommand(newMigrateCommand(rt))
	cmd.AddCommand(newSeedCommand(rt))
	cmd.AddCommand(newConfigCommand())

	return cmd
}
