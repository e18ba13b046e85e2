package render

import (
	"encoding/json"
	"net/http"

	"termpool/handler/codes"

	"github.com/sirupsen/logrus"
	"github.com/twitchtv/twirp"
)

// H map shortcut
type H map[string]interface{}

type dataResponse struct {
	Data interface{} `json:"data"`
}

type errorBody struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// JSON renders v wrapped as {"data": v}
func JSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(dataResponse{Data: v}); err != nil {
		logrus.WithError(err).Errorln("render json")
	}
}

// Error renders err as {"error": {code, msg}} with the HTTP status
// derived from its twirp code. Unrecognized errors surface as 500
// without leaking their text.
func Error(w http.ResponseWriter, err error) {
	twerr := codes.Twirp(err)
	status := twirp.ServerHTTPStatusFromErrorCode(twerr.Code())

	body := errorBody{
		Code: codes.Get(twerr),
		Msg:  twerr.Msg(),
	}
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).Errorln("internal error")
		body.Msg = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(errorResponse{Error: body}); err != nil {
		logrus.WithError(err).Errorln("render error")
	}
}

// BadRequest maps a binding or validation failure to 400
func BadRequest(w http.ResponseWriter, err error) {
	Error(w, twirp.InvalidArgumentError("params", err.Error()))
}

// NotFound renders a routing miss
func NotFound(w http.ResponseWriter, msg string) {
	Error(w, twirp.NotFoundError(msg))
}
