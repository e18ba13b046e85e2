package rest

import (
	"net/http"

	"termpool/core"
	"termpool/handler/param"
	"termpool/handler/render"
)

func paramsHandler(paramz core.IParamService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engineParams, err := paramz.Params(r.Context())
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, engineParams)
	}
}

func updateParamHandler(paramz core.IParamService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			AdminID string `json:"admin_id" valid:"uuid,required"`
			Key     string `json:"key" valid:"required"`
			Value   string `json:"value" valid:"required"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		engineParams, err := paramz.UpdateParam(r.Context(), params.AdminID, params.Key, params.Value)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, engineParams)
	}
}
