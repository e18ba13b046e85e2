package rest

import (
	"net/http"

	"termpool/core"
	"termpool/handler/param"
	"termpool/handler/render"
)

func transfersHandler(transferStore core.ITransferStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Cursor uint64 `json:"cursor" valid:"optional"`
			Limit  int    `json:"limit" valid:"optional"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		if params.Limit <= 0 || params.Limit > 500 {
			params.Limit = 100
		}

		transfers, err := transferStore.List(r.Context(), params.Cursor, params.Limit)
		if err != nil {
			render.Error(w, err)
			return
		}

		next := params.Cursor
		if len(transfers) > 0 {
			next = transfers[len(transfers)-1].ID
		}

		render.JSON(w, render.H{
			"transfers": transfers,
			"cursor":    next,
		})
	}
}
