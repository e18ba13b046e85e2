package codes

import (
	"strconv"

	"termpool/core"

	"github.com/twitchtv/twirp"
)

const (
	// CustomCodeKey code key
	CustomCodeKey = "custom_code"
)

// With with specified error
func With(err error, code int) error {
	twerr, ok := err.(twirp.Error)
	if !ok {
		twerr = twirp.InternalErrorWith(err)
	}

	return twerr.WithMeta(CustomCodeKey, strconv.Itoa(code))
}

// Twirp converts err into a twirp error carrying the protocol error
// code in its meta, so render can pick the HTTP status from the twirp
// code and keep the numeric code on the wire.
func Twirp(err error) twirp.Error {
	if twerr, ok := err.(twirp.Error); ok {
		return twerr
	}

	code, ok := err.(core.ErrorCode)
	if !ok {
		return twirp.InternalErrorWith(err)
	}

	twerr := twirp.NewError(twirpCode(code), code.Error())
	return twerr.WithMeta(CustomCodeKey, code.String())
}

// Get get numeric error code
func Get(err error) int {
	twerr, ok := err.(twirp.Error)
	if !ok {
		return int(core.ErrUnknown)
	}

	if meta := twerr.Meta(CustomCodeKey); meta != "" {
		if code, err := strconv.Atoi(meta); err == nil {
			return code
		}
	}

	return twirp.ServerHTTPStatusFromErrorCode(twerr.Code())
}

func twirpCode(code core.ErrorCode) twirp.ErrorCode {
	switch code {
	case core.ErrVaultNotFound, core.ErrRequestNotFound, core.ErrNoActiveLoan:
		return twirp.NotFound
	case core.ErrOperationForbidden:
		return twirp.PermissionDenied
	case core.ErrRequestExecuted, core.ErrAlreadyApproved,
		core.ErrHasOutstandingLoan, core.ErrSystemPaused:
		return twirp.AlreadyExists
	case core.ErrInsufficientLiquidity, core.ErrInsufficientShares,
		core.ErrInsufficientBalance, core.ErrAllocationExceeded,
		core.ErrBelowThreshold, core.ErrPaymentTooEarly:
		return twirp.FailedPrecondition
	case core.ErrInvalidAmount, core.ErrInvalidTerm,
		core.ErrUnknownParam, core.ErrInvalidParamValue, core.ErrInvalidTrace:
		return twirp.InvalidArgument
	default:
		return twirp.Internal
	}
}
