package commands

import (
	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/storage/postgres"
)

func (c *CLI) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.deps.OpenDB(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := postgres.Migrate(cmd.Context(), db, c.logger)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				cmd.Println("schema is up to date")
				return nil
			}
			for _, v := range applied {
				cmd.Printf("applied %s\n", v)
			}
			return nil
		},
	}
}
