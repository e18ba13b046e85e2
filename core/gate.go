package core

import "context"

// OperationScope names one gated operation
type OperationScope string

const (
	// OSDeposit operation scope deposit
	OSDeposit OperationScope = "deposit"
	// OSWithdraw operation scope withdraw
	OSWithdraw OperationScope = "withdraw"
	// OSRequest operation scope request
	OSRequest OperationScope = "request"
	// OSApprove operation scope approve
	OSApprove OperationScope = "approve"
	// OSExecute operation scope execute
	OSExecute OperationScope = "execute"
	// OSPayment operation scope payment
	OSPayment OperationScope = "payment"
	// OSPayoff operation scope payoff
	OSPayoff OperationScope = "payoff"
)

func (s OperationScope) String() string {
	return string(s)
}

// CheckScope check scope
func CheckScope(scope string) bool {
	return scope == string(OSDeposit) ||
		scope == string(OSWithdraw) ||
		scope == string(OSRequest) ||
		scope == string(OSApprove) ||
		scope == string(OSExecute) ||
		scope == string(OSPayment) ||
		scope == string(OSPayoff)
}

// IGateService guards operation entry points. A scope on the suspended
// list rejects everyone until an administrator resumes it; the global
// pause switch overrides all scopes at once.
type IGateService interface {
	Suspend(ctx context.Context, scope OperationScope) error
	Resume(ctx context.Context, scope OperationScope) error
	Suspended(ctx context.Context, scope OperationScope) (bool, error)
	// Guard returns ErrSystemPaused when the scope may not run
	Guard(ctx context.Context, scope OperationScope) error
	PauseAll(ctx context.Context) error
	ResumeAll(ctx context.Context) error
}
