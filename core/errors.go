package core

import "strconv"

// ErrorCode int
type ErrorCode int

// ErrorKind groups error codes by how callers should react. The
// fronting router decides retry policy per kind; nothing is retried
// internally.
type ErrorKind string

const (
	// ErrorKindAuthorization missing capability
	ErrorKindAuthorization ErrorKind = "authorization"
	// ErrorKindStateConflict operation conflicts with current state
	ErrorKindStateConflict ErrorKind = "state_conflict"
	// ErrorKindValidation malformed or out-of-range input
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindLiquidity insufficient idle balance
	ErrorKindLiquidity ErrorKind = "liquidity"
	// ErrorKindTiming operation attempted outside its window
	ErrorKindTiming ErrorKind = "timing"
)

const (
	// ErrUnknown unknown
	ErrUnknown ErrorCode = 100000
	// ErrOperationForbidden caller lacks the required capability
	ErrOperationForbidden ErrorCode = 100001
	// ErrSystemPaused state-changing operations are halted
	ErrSystemPaused ErrorCode = 100002

	// ErrInvalidAmount zero or out-of-range amount
	ErrInvalidAmount ErrorCode = 100101
	// ErrInvalidTerm zero or out-of-bounds term
	ErrInvalidTerm ErrorCode = 100102
	// ErrUnknownParam unknown configuration key
	ErrUnknownParam ErrorCode = 100103
	// ErrInvalidParamValue configuration value out of range
	ErrInvalidParamValue ErrorCode = 100104
	// ErrInvalidTrace client trace id is not a uuid
	ErrInvalidTrace ErrorCode = 100105

	// ErrVaultNotFound no vault for asset
	ErrVaultNotFound ErrorCode = 100200
	// ErrInsufficientLiquidity idle balance cannot cover the amount
	ErrInsufficientLiquidity ErrorCode = 100201
	// ErrInsufficientShares redeeming more units than held
	ErrInsufficientShares ErrorCode = 100202
	// ErrAllocationExceeded returning more principal than allocated
	ErrAllocationExceeded ErrorCode = 100203
	// ErrInsufficientBalance token balance cannot cover the transfer
	ErrInsufficientBalance ErrorCode = 100204

	// ErrRequestNotFound no borrow request with that id
	ErrRequestNotFound ErrorCode = 100300
	// ErrRequestExecuted the executed latch is already set
	ErrRequestExecuted ErrorCode = 100301
	// ErrAlreadyApproved approver already voted on this request
	ErrAlreadyApproved ErrorCode = 100302
	// ErrBelowThreshold approvals below the configured threshold
	ErrBelowThreshold ErrorCode = 100303
	// ErrHasOutstandingLoan borrower already has an active loan
	ErrHasOutstandingLoan ErrorCode = 100304
	// ErrNoActiveLoan borrower has no active loan
	ErrNoActiveLoan ErrorCode = 100305

	// ErrPaymentTooEarly payment attempted before the due window opens
	ErrPaymentTooEarly ErrorCode = 100400
)

var errMsgs = map[ErrorCode]string{
	ErrUnknown:               "unknown",
	ErrOperationForbidden:    "operation forbidden",
	ErrSystemPaused:          "system paused",
	ErrInvalidAmount:         "invalid amount",
	ErrInvalidTerm:           "invalid term",
	ErrUnknownParam:          "unknown param",
	ErrInvalidParamValue:     "invalid param value",
	ErrInvalidTrace:          "invalid trace id",
	ErrVaultNotFound:         "vault not found",
	ErrInsufficientLiquidity: "insufficient liquidity",
	ErrInsufficientShares:    "insufficient shares",
	ErrAllocationExceeded:    "allocation exceeded",
	ErrInsufficientBalance:   "insufficient balance",
	ErrRequestNotFound:       "request not found",
	ErrRequestExecuted:       "request already executed",
	ErrAlreadyApproved:       "already approved",
	ErrBelowThreshold:        "approvals below threshold",
	ErrHasOutstandingLoan:    "has outstanding loan",
	ErrNoActiveLoan:          "no active loan",
	ErrPaymentTooEarly:       "payment too early",
}

func (e ErrorCode) String() string {
	return strconv.Itoa(int(e))
}

func (e ErrorCode) Error() string {
	if msg, ok := errMsgs[e]; ok {
		return msg
	}

	return e.String()
}

// Kind maps the code to its error kind.
func (e ErrorCode) Kind() ErrorKind {
	switch e {
	case ErrOperationForbidden:
		return ErrorKindAuthorization
	case ErrInvalidAmount, ErrInvalidTerm, ErrUnknownParam, ErrInvalidParamValue, ErrInvalidTrace:
		return ErrorKindValidation
	case ErrInsufficientLiquidity, ErrInsufficientShares, ErrInsufficientBalance:
		return ErrorKindLiquidity
	case ErrPaymentTooEarly:
		return ErrorKindTiming
	case ErrSystemPaused, ErrVaultNotFound, ErrAllocationExceeded,
		ErrRequestNotFound, ErrRequestExecuted, ErrAlreadyApproved,
		ErrBelowThreshold, ErrHasOutstandingLoan, ErrNoActiveLoan:
		return ErrorKindStateConflict
	default:
		return ErrorKindStateConflict
	}
}
