package rest

import (
	"net/http"

	"termpool/core"
	"termpool/handler/param"
	"termpool/handler/render"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
)

func vaultStatsHandler(vaultz core.IVaultService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := vaultz.Stats(r.Context())
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, stats)
	}
}

func vaultPositionsHandler(vaultz core.IVaultService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		positions, err := vaultz.Positions(r.Context(), chi.URLParam(r, "user"))
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, positions)
	}
}

func depositHandler(vaultz core.IVaultService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			UserID string          `json:"user_id" valid:"uuid,required"`
			Amount decimal.Decimal `json:"amount" valid:"required"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		units, err := vaultz.Deposit(r.Context(), params.UserID, params.Amount)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, render.H{
			"user_id": params.UserID,
			"amount":  params.Amount,
			"units":   units,
		})
	}
}

func withdrawHandler(vaultz core.IVaultService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			UserID      string          `json:"user_id" valid:"uuid,required"`
			RecipientID string          `json:"recipient_id" valid:"uuid,optional"`
			Units       decimal.Decimal `json:"units" valid:"required"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		amount, err := vaultz.Withdraw(r.Context(), params.UserID, params.RecipientID, params.Units)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, render.H{
			"user_id": params.UserID,
			"units":   params.Units,
			"amount":  amount,
		})
	}
}
