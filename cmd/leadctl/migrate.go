package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	applog "github.com/janisto/lead-intake/internal/platform/logging"
	"github.com/janisto/lead-intake/internal/service/lead"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down|version",
		Short:     "Apply or inspect storage migrations",
		Long:      "Postgres URLs run the embedded versioned migrations. Other backends create their schema when opened, so only \"up\" applies to them.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{lead.MigrateUp, lead.MigrateDown, "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dsn := a.cfg.DatabaseURL

			if !isPostgres(dsn) {
				if args[0] != lead.MigrateUp {
					return fmt.Errorf("migrate %s is only supported for postgres databases", args[0])
				}
				store, err := lead.OpenStore(ctx, dsn, lead.StoreOptions{CredentialsFile: a.cfg.Firebase.CredentialsFile})
				if err != nil {
					return err
				}
				applog.LogInfo(ctx, "schema ready")
				return store.Close()
			}

			if args[0] == "version" {
				version, dirty, err := lead.MigrationVersion(dsn)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "version %d dirty=%t\n", version, dirty)
				return err
			}

			if err := lead.Migrate(dsn, args[0]); err != nil {
				return err
			}
			applog.LogInfo(ctx, "migrations applied", zap.String("direction", args[0]))
			return nil
		},
	}
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
