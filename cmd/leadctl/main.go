// Command leadctl manages the lead store: schema migrations and dumps.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/janisto/lead-intake/internal/config"
	applog "github.com/janisto/lead-intake/internal/platform/logging"
)

// app carries state shared by subcommands once the root has loaded config.
type app struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	v := viper.New()

	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Manage the lead-intake store",
		Long:          "Applies storage migrations and dumps stored leads. Settings come from the same environment variables as the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			cfg, err := config.LoadWith(v)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := applog.SetLevel(cfg.LogLevel); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			a.cfg = cfg
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = applog.Sync()
		},
	}

	root.PersistentFlags().String("env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().String("database-url", "", "storage backend URL (overrides DATABASE_URL)")
	_ = v.BindPFlag("database_url", root.PersistentFlags().Lookup("database-url"))

	root.AddCommand(newMigrateCmd(a), newListCmd(a))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "leadctl:", err)
		os.Exit(1)
	}
}
