package cmd

import (
	"time"

	"termpool/core"
	"termpool/store/capability"
	"termpool/store/debt"
	"termpool/store/loan"
	"termpool/store/message"
	"termpool/store/param"
	"termpool/store/payment"
	"termpool/store/request"
	"termpool/store/share"
	"termpool/store/stats"
	"termpool/store/token"
	"termpool/store/transfer"
	"termpool/store/vault"

	"github.com/fox-one/pkg/property"
	"github.com/fox-one/pkg/store/db"
	propertystore "github.com/fox-one/pkg/store/property"
	"github.com/go-redis/redis"
)

func provideDatabase() *db.DB {
	return db.MustOpen(cfg.DB)
}

func provideRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
}

func providePropertyStore(db *db.DB) property.Store {
	return propertystore.New(db)
}

func provideVaultStore(db *db.DB) core.IVaultStore {
	return vault.New(db)
}

func provideShareStore(db *db.DB) core.IShareStore {
	return share.New(db)
}

func provideStatsStore(redis *redis.Client) core.IStatsStore {
	return stats.New(redis)
}

func provideLoanStore(db *db.DB) core.ILoanStore {
	return loan.New(db)
}

func provideRequestStore(db *db.DB) core.IRequestStore {
	return request.New(db)
}

func providePaymentStore(db *db.DB) core.IPaymentStore {
	return payment.New(db)
}

func provideDebtStore(db *db.DB) core.IDebtStore {
	return debt.New(db)
}

func provideTokenStore(db *db.DB) core.ITokenStore {
	return token.New(db)
}

func provideCapabilityStore(db *db.DB) core.ICapabilityStore {
	return capability.Cache(capability.New(db), time.Minute)
}

func provideTransferStore(db *db.DB) core.ITransferStore {
	return transfer.New(db)
}

func provideMessageStore(db *db.DB) core.IMessageStore {
	return message.New(db)
}

func provideParamStore(db *db.DB) core.IParamStore {
	return param.New(db)
}
