package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"termpool/handler"
	"termpool/handler/hc"

	"github.com/drone/signal"
	"github.com/fox-one/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "run termpool api server",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		redisClient := provideRedis()
		system := provideSystem()

		propertyStore := providePropertyStore(database)
		vaultStore := provideVaultStore(database)
		shareStore := provideShareStore(database)
		statsStore := provideStatsStore(redisClient)
		loanStore := provideLoanStore(database)
		requestStore := provideRequestStore(database)
		paymentStore := providePaymentStore(database)
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
		engineService := provideEngineService(database, system, gateService, paramStore, loanStore, requestStore, paymentStore, debtStore, transferStore, messageStore, messageService, vaultService, tokenService, capabilityService)
		paramService := provideParamService(database, system, paramStore, messageStore, messageService, capabilityService)

		mux := chi.NewMux()
		mux.Use(middleware.Recoverer)
		mux.Use(middleware.StripSlashes)
		mux.Use(cors.AllowAll().Handler)
		mux.Use(logger.WithRequestID)
		mux.Use(middleware.Logger)
		mux.Use(middleware.NewCompressor(5).Handler)

		{
			//hc
			mux.Mount("/hc", hc.Handle(rootCmd.Version))
		}

		{
			//metrics
			mux.Mount("/metrics", promhttp.Handler())
		}

		{
			//restful api
			svr := handler.New(
				system,
				redisClient,
				vaultService,
				engineService,
				paramService,
				requestStore,
				debtStore,
				paymentStore,
				transferStore,
			)
			mux.Mount("/api", svr.HandleRestAPI())
		}

		port, _ := cmd.Flags().GetInt("port")
		addr := fmt.Sprintf(":%d", port)

		server := &http.Server{
			Addr:    addr,
			Handler: mux,
		}

		ctx, quit := context.WithCancel(ctx)
		done := make(chan struct{}, 1)
		signal.WithContextFunc(ctx, func() {
			quit()

			ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				logrus.WithError(err).Error("graceful shutdown server failed")
			}

			close(done)
		})

		logrus.Infoln("serve at", addr)
		err := server.ListenAndServe()
		if err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server aborted")
		}

		<-done
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntP("port", "p", 9000, "server port")
}
