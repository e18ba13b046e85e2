package cmd

import (
	"termpool/core"
	capabilityservice "termpool/service/capability"
	"termpool/service/engine"
	"termpool/service/gate"
	messageservice "termpool/service/message"
	paramservice "termpool/service/param"
	tokenservice "termpool/service/token"
	vaultservice "termpool/service/vault"

	"github.com/fox-one/pkg/property"
	"github.com/fox-one/pkg/store/db"
)

func provideConfig() *core.Config {
	return &cfg
}

func provideSystem() *core.System {
	return &core.System{
		Admins:        cfg.Admins,
		AssetID:       cfg.App.AssetID,
		VaultAccount:  cfg.App.VaultAccount,
		EngineAccount: cfg.App.EngineAccount,
		Location:      cfg.App.Location,
		Version:       rootCmd.Version,
	}
}

func provideGateService(propertyStore property.Store) core.IGateService {
	return gate.New(propertyStore)
}

func provideCapabilityService(system *core.System, capabilityStore core.ICapabilityStore) core.ICapabilityService {
	return capabilityservice.New(system, capabilityStore)
}

func provideTokenService(system *core.System, tokenStore core.ITokenStore) core.ITokenService {
	return tokenservice.New(system, tokenStore)
}

func provideMessageService() core.IMessageService {
	return messageservice.New(cfg.Notifier)
}

func provideVaultService(
	database *db.DB,
	system *core.System,
	gates core.IGateService,
	vaults core.IVaultStore,
	shares core.IShareStore,
	stats core.IStatsStore,
	transfers core.ITransferStore,
	tokenz core.ITokenService,
	capabilityz core.ICapabilityService,
) core.IVaultService {
	return vaultservice.New(database, system, gates, vaults, shares, stats, transfers, tokenz, capabilityz)
}

func provideEngineService(
	database *db.DB,
	system *core.System,
	gates core.IGateService,
	params core.IParamStore,
	loans core.ILoanStore,
	requests core.IRequestStore,
	payments core.IPaymentStore,
	debts core.IDebtStore,
	transfers core.ITransferStore,
	messages core.IMessageStore,
	messagez core.IMessageService,
	vaultz core.IVaultService,
	tokenz core.ITokenService,
	capabilityz core.ICapabilityService,
) core.IEngineService {
	return engine.New(
		database,
		system,
		gates,
		params,
		loans,
		requests,
		payments,
		debts,
		transfers,
		messages,
		messagez,
		vaultz,
		tokenz,
		capabilityz,
	)
}

func provideParamService(
	database *db.DB,
	system *core.System,
	params core.IParamStore,
	messages core.IMessageStore,
	messagez core.IMessageService,
	capabilityz core.ICapabilityService,
) core.IParamService {
	return paramservice.New(database, system, params, messages, messagez, capabilityz)
}
