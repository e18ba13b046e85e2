package rest

import (
	"net/http"

	"termpool/core"
	"termpool/handler/render"

	"github.com/go-chi/chi"
)

// Handle handle rest api request
func Handle(
	system *core.System,
	vaultz core.IVaultService,
	enginez core.IEngineService,
	paramz core.IParamService,
	requestStore core.IRequestStore,
	debtStore core.IDebtStore,
	paymentStore core.IPaymentStore,
	transferStore core.ITransferStore,
) http.Handler {
	router := chi.NewRouter()

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.NotFound(w, "not found")
	})

	router.Get("/system", systemHandler(system))

	router.Get("/vault", vaultStatsHandler(vaultz))
	router.Get("/vault/positions/{user}", vaultPositionsHandler(vaultz))
	router.Post("/vault/deposits", depositHandler(vaultz))
	router.Post("/vault/withdrawals", withdrawHandler(vaultz))

	router.Post("/loans/requests", requestLoanHandler(enginez))
	router.Post("/loans/requests/{id}/votes", voteHandler(enginez, paramz))
	router.Post("/loans/requests/{id}/execute", executeHandler(enginez))
	router.Get("/requests/{id}", requestHandler(requestStore, paramz))

	router.Get("/loans/{borrower}", loanHandler(enginez, debtStore, paymentStore))
	router.Get("/loans/{borrower}/next", nextPaymentHandler(enginez))
	router.Get("/loans/{borrower}/payoff", payoffQuoteHandler(enginez))
	router.Get("/loans/{borrower}/payments", paymentHistoryHandler(enginez))
	router.Post("/loans/{borrower}/payments", makePaymentHandler(enginez))
	router.Post("/loans/{borrower}/payoff", payoffHandler(enginez))

	router.Get("/params", paramsHandler(paramz))
	router.Post("/admin/params", updateParamHandler(paramz))

	router.Get("/transfers", transfersHandler(transferStore))

	return router
}

func systemHandler(system *core.System) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, render.H{
			"asset_id": system.AssetID,
			"location": system.Location,
			"version":  system.Version,
		})
	}
}
