package views

import (
	"termpool/core"
)

// Request borrow request view
type Request struct {
	core.BorrowRequest
	Threshold int64 `json:"threshold"`
	Executed  bool  `json:"executed"`
}

// RequestFrom decorates a request with the current approval threshold
func RequestFrom(request *core.BorrowRequest, threshold int64) *Request {
	return &Request{
		BorrowRequest: *request,
		Threshold:     threshold,
		Executed:      request.Executed(),
	}
}
