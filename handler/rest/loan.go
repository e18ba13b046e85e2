package rest

import (
	"net/http"
	"strconv"

	"termpool/core"
	"termpool/handler/param"
	"termpool/handler/render"
	"termpool/handler/views"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
	"github.com/twitchtv/twirp"
)

func requestLoanHandler(enginez core.IEngineService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			BorrowerID string          `json:"borrower_id" valid:"uuid,required"`
			Amount     decimal.Decimal `json:"amount" valid:"required"`
			TermMonths int64           `json:"term_months" valid:"required"`
			TraceID    string          `json:"trace_id" valid:"uuid,optional"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		request, err := enginez.RequestLoan(r.Context(), params.BorrowerID, params.Amount, params.TermMonths, params.TraceID)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, request)
	}
}

func voteHandler(enginez core.IEngineService, paramz core.IParamService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var params struct {
			ApproverID string `json:"approver_id" valid:"uuid,required"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		request, err := enginez.Approve(r.Context(), requestID, params.ApproverID)
		if err != nil {
			render.Error(w, err)
			return
		}

		engineParams, err := paramz.Params(r.Context())
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.RequestFrom(request, engineParams.Threshold))
	}
}

func executeHandler(enginez core.IEngineService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var params struct {
			CallerID string `json:"caller_id" valid:"uuid,optional"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		loan, err := enginez.Execute(r.Context(), requestID, params.CallerID)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, loan)
	}
}

func requestHandler(requestStore core.IRequestStore, paramz core.IParamService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		request, err := requestStore.Find(r.Context(), requestID)
		if err != nil {
			render.Error(w, core.ErrRequestNotFound)
			return
		}

		engineParams, err := paramz.Params(r.Context())
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.RequestFrom(request, engineParams.Threshold))
	}
}

func loanHandler(enginez core.IEngineService, debtStore core.IDebtStore, paymentStore core.IPaymentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		borrowerID := chi.URLParam(r, "borrower")

		loan, err := enginez.LoanDetails(r.Context(), borrowerID)
		if err != nil {
			render.Error(w, err)
			return
		}

		debtUnits, err := debtStore.Balance(r.Context(), borrowerID)
		if err != nil {
			render.Error(w, err)
			return
		}

		paidCount, err := paymentStore.CountByLoan(r.Context(), loan.ID)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.LoanFrom(loan, debtUnits, paidCount))
	}
}

func nextPaymentHandler(enginez core.IEngineService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next, err := enginez.NextPaymentDetails(r.Context(), chi.URLParam(r, "borrower"))
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, next)
	}
}

func payoffQuoteHandler(enginez core.IEngineService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quote, err := enginez.PayoffAmount(r.Context(), chi.URLParam(r, "borrower"))
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, quote)
	}
}

func paymentHistoryHandler(enginez core.IEngineService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			FromID uint64 `json:"from" valid:"optional"`
			Limit  int    `json:"limit" valid:"optional"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		if params.Limit <= 0 || params.Limit > 500 {
			params.Limit = 100
		}

		records, err := enginez.PaymentHistory(r.Context(), chi.URLParam(r, "borrower"), params.FromID, params.Limit)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, records)
	}
}

func makePaymentHandler(enginez core.IEngineService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			PayerID string `json:"payer_id" valid:"uuid,optional"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		record, err := enginez.MakePayment(r.Context(), chi.URLParam(r, "borrower"), params.PayerID)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, record)
	}
}

func payoffHandler(enginez core.IEngineService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			PayerID string `json:"payer_id" valid:"uuid,optional"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		record, err := enginez.PayoffLoan(r.Context(), chi.URLParam(r, "borrower"), params.PayerID)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, record)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, key string) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, key), 10, 64)
	if err != nil {
		render.Error(w, twirp.InvalidArgumentError(key, "must be a positive integer"))
		return 0, false
	}

	return id, true
}
