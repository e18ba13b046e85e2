package cmd

import (
	"termpool/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "operator administration",
}

var genesisCmd = &cobra.Command{
	Use:   "genesis",
	Short: "seed the vault, engine params and capability grants",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		system := provideSystem()
		vaultStore := provideVaultStore(database)
		paramStore := provideParamStore(database)
		capabilityStore := provideCapabilityStore(database)

		err := database.Tx(func(tx *db.DB) error {
			vault := &core.Vault{
				AssetID:        system.AssetID,
				TotalShares:    decimal.Zero,
				IdleBalance:    decimal.Zero,
				TotalAllocated: decimal.Zero,
			}
			if err := vaultStore.Create(ctx, tx, vault); err != nil {
				return err
			}

			params := &core.EngineParams{
				EngineID:      system.EngineAccount,
				Threshold:     int64(cfg.Genesis.Threshold),
				BaseRateBps:   cfg.Genesis.BaseRateBps,
				MinAmount:     cfg.Genesis.MinAmount,
				MaxAmount:     cfg.Genesis.MaxAmount,
				MinTermMonths: cfg.Genesis.MinTermMonths,
				MaxTermMonths: cfg.Genesis.MaxTermMonths,
				GraceDays:     cfg.Genesis.GraceDays,
			}
			return paramStore.Save(ctx, tx, params)
		})
		if err != nil {
			cmd.PrintErrln("seed vault and params:", err)
			return
		}

		grants := make([]*core.CapabilityGrant, 0, len(cfg.Genesis.Members)+len(cfg.Admins)+1)
		for _, member := range cfg.Genesis.Members {
			grants = append(grants, &core.CapabilityGrant{UserID: member, Capability: core.CapabilityMember})
		}
		for _, admin := range cfg.Admins {
			grants = append(grants, &core.CapabilityGrant{UserID: admin, Capability: core.CapabilityAdmin})
		}
		grants = append(grants, &core.CapabilityGrant{UserID: system.EngineAccount, Capability: core.CapabilityInternal})

		for _, grant := range grants {
			if err := capabilityStore.Grant(ctx, grant); err != nil {
				cmd.PrintErrln("grant", grant.UserID, grant.Capability, ":", err)
				return
			}
		}

		cmd.Println("genesis done")
	},
}

var grantCmd = &cobra.Command{
	Use:   "grant <user> <capability>",
	Short: "grant a capability to a user",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		if !core.CheckCapability(args[1]) {
			cmd.PrintErrln("unknown capability:", args[1])
			return
		}

		database := provideDatabase()
		defer database.Close()

		capabilityStore := provideCapabilityStore(database)
		grant := &core.CapabilityGrant{UserID: args[0], Capability: core.Capability(args[1])}
		if err := capabilityStore.Grant(ctx, grant); err != nil {
			cmd.PrintErrln("grant failed:", err)
			return
		}

		cmd.Println("granted", args[1], "to", args[0])
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <user> <capability>",
	Short: "revoke a capability from a user",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		if !core.CheckCapability(args[1]) {
			cmd.PrintErrln("unknown capability:", args[1])
			return
		}

		database := provideDatabase()
		defer database.Close()

		capabilityStore := provideCapabilityStore(database)
		if err := capabilityStore.Revoke(ctx, args[0], core.Capability(args[1])); err != nil {
			cmd.PrintErrln("revoke failed:", err)
			return
		}

		cmd.Println("revoked", args[1], "from", args[0])
	},
}

var setParamCmd = &cobra.Command{
	Use:   "set-param <key> <value>",
	Short: "update one engine parameter",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		system := provideSystem()
		capabilityStore := provideCapabilityStore(database)
		capabilityService := provideCapabilityService(system, capabilityStore)
		messageStore := provideMessageStore(database)
		messageService := provideMessageService()
		paramStore := provideParamStore(database)
		paramService := provideParamService(database, system, paramStore, messageStore, messageService, capabilityService)

		actor, _ := cmd.Flags().GetString("actor")
		if actor == "" && len(cfg.Admins) > 0 {
			actor = cfg.Admins[0]
		}

		params, err := paramService.UpdateParam(ctx, actor, args[0], args[1])
		if err != nil {
			cmd.PrintErrln("update param failed:", err)
			return
		}

		cmd.Printf("%s = %s (threshold %d, base rate %d bps)\n", args[0], args[1], params.Threshold, params.BaseRateBps)
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause [scope]",
	Short: "pause all operations, or suspend one scope",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		gateService := provideGateService(providePropertyStore(database))

		if len(args) == 0 {
			if err := gateService.PauseAll(ctx); err != nil {
				cmd.PrintErrln("pause failed:", err)
				return
			}

			cmd.Println("all operations paused")
			return
		}

		if !core.CheckScope(args[0]) {
			cmd.PrintErrln("unknown scope:", args[0])
			return
		}

		if err := gateService.Suspend(ctx, core.OperationScope(args[0])); err != nil {
			cmd.PrintErrln("suspend failed:", err)
			return
		}

		cmd.Println("suspended", args[0])
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume [scope]",
	Short: "resume all operations, or one scope",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		gateService := provideGateService(providePropertyStore(database))

		if len(args) == 0 {
			if err := gateService.ResumeAll(ctx); err != nil {
				cmd.PrintErrln("resume failed:", err)
				return
			}

			cmd.Println("all operations resumed")
			return
		}

		if !core.CheckScope(args[0]) {
			cmd.PrintErrln("unknown scope:", args[0])
			return
		}

		if err := gateService.Resume(ctx, core.OperationScope(args[0])); err != nil {
			cmd.PrintErrln("resume failed:", err)
			return
		}

		cmd.Println("resumed", args[0])
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "cross-check vault accounting against share and allocation rows",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		system := provideSystem()
		gateService := provideGateService(providePropertyStore(database))
		capabilityService := provideCapabilityService(system, provideCapabilityStore(database))
		tokenService := provideTokenService(system, provideTokenStore(database))
		vaultService := provideVaultService(
			database,
			system,
			gateService,
			provideVaultStore(database),
			provideShareStore(database),
			provideStatsStore(provideRedis()),
			provideTransferStore(database),
			tokenService,
			capabilityService,
		)

		audits, err := vaultService.Audit(ctx)
		if err != nil {
			cmd.PrintErrln("audit failed:", err)
			return
		}

		for _, audit := range audits {
			if audit.Balanced() {
				cmd.Printf("%s balanced: shares %s, allocated %s\n",
					audit.AssetID, audit.TotalShares, audit.TotalAllocated)
				continue
			}

			cmd.Printf("%s UNBALANCED: shares diff %s, allocation diff %s\n",
				audit.AssetID, audit.SharesDiff, audit.AllocationDiff)
		}
	},
}

var creditCmd = &cobra.Command{
	Use:   "credit <user> <amount>",
	Short: "credit custody balance to a user",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		amount, err := decimal.NewFromString(args[1])
		if err != nil || amount.Sign() <= 0 {
			cmd.PrintErrln("invalid amount:", args[1])
			return
		}

		database := provideDatabase()
		defer database.Close()

		system := provideSystem()
		tokenService := provideTokenService(system, provideTokenStore(database))

		err = database.Tx(func(tx *db.DB) error {
			return tokenService.Credit(ctx, tx, args[0], amount)
		})
		if err != nil {
			cmd.PrintErrln("credit failed:", err)
			return
		}

		cmd.Println("credited", amount.String(), "to", args[0])
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)

	adminCmd.AddCommand(genesisCmd)
	adminCmd.AddCommand(grantCmd)
	adminCmd.AddCommand(revokeCmd)
	adminCmd.AddCommand(setParamCmd)
	adminCmd.AddCommand(pauseCmd)
	adminCmd.AddCommand(resumeCmd)
	adminCmd.AddCommand(auditCmd)
	adminCmd.AddCommand(creditCmd)

	setParamCmd.Flags().String("actor", "", "admin user id recorded in the audit log")
}
