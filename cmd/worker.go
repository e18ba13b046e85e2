package cmd

import (
	"sync"

	"termpool/core"
	"termpool/pkg/sysversion"
	"termpool/worker"
	"termpool/worker/billing"
	"termpool/worker/messenger"

	"github.com/fox-one/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "termpool background workers",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)
		ctx = logger.WithContext(ctx, log)

		database := provideDatabase()
		defer database.Close()

		redisClient := provideRedis()
		system := provideSystem()

		propertyStore := providePropertyStore(database)

		// refuse to run against a store migrated past this binary
		if err := sysversion.Check(ctx, propertyStore, core.SysVersion); err != nil {
			log.WithError(err).Fatalln("schema version check failed")
		}

		vaultStore := provideVaultStore(database)
		shareStore := provideShareStore(database)
		statsStore := provideStatsStore(redisClient)
		loanStore := provideLoanStore(database)
		debtStore := provideDebtStore(database)
		tokenStore := provideTokenStore(database)
		capabilityStore := provideCapabilityStore(database)
		transferStore := provideTransferStore(database)
		messageStore := provideMessageStore(database)
		paramStore := provideParamStore(database)

		gateService := provideGateService(propertyStore)
		capabilityService := provideCapabilityService(system, capabilityStore)
		tokenService := provideTokenService(system, tokenStore)
		messageService := provideMessageService()
		vaultService := provideVaultService(database, system, gateService, vaultStore, shareStore, statsStore, transferStore, tokenService, capabilityService)
		paramService := provideParamService(database, system, paramStore, messageStore, messageService, capabilityService)

		workers := []worker.Worker{
			messenger.New(messageStore, messageService, messenger.Config{
				Batch:    _flag.messenger.batch,
				Capacity: _flag.messenger.capacity,
			}),
			billing.New(
				cfg.App.Location,
				database,
				propertyStore,
				loanStore,
				debtStore,
				messageStore,
				vaultService,
				paramService,
				messageService,
			),
		}

		wg := sync.WaitGroup{}
		for _, w := range workers {
			wg.Add(1)

			go func(worker worker.Worker) {
				defer wg.Done()
				worker.Run(ctx)
			}(w)
		}

		wg.Wait()
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
