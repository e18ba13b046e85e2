package cmd

import (
	"termpool/core"
	"termpool/pkg/sysversion"

	"github.com/fox-one/pkg/store/db"
	"github.com/spf13/cobra"
)

// command for migrating database
var migrateCmd = &cobra.Command{
	Use:     "migrate",
	Aliases: []string{"setdb"},
	Short:   "migrate database tables",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		if err := db.Migrate(database); err != nil {
			cmd.PrintErrln("migrate database error:", err)
			return
		}

		propertyStore := providePropertyStore(database)
		if err := propertyStore.Save(ctx, sysversion.Key, core.SysVersion); err != nil {
			cmd.PrintErrln("save sysversion error:", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
