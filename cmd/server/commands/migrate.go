package commands

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// migrateCmd applies the schema and seeds without serving
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and seed roles and the admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, _, err := prepare(); err != nil {
			return err
		}
		log.Println("✅ Database is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
