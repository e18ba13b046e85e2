package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"termpool/core"
	"termpool/internal/amortize"
	"termpool/pkg/concurrency"
	"termpool/pkg/id"
	"termpool/pkg/number"

	"github.com/asaskevich/govalidator"
	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type engineService struct {
	db           core.Transactor
	system       *core.System
	gates        core.IGateService
	params       core.IParamStore
	loans        core.ILoanStore
	requests     core.IRequestStore
	payments     core.IPaymentStore
	debts        core.IDebtStore
	transfers    core.ITransferStore
	messages     core.IMessageStore
	messagez     core.IMessageService
	vaults       core.IVaultService
	tokens       core.ITokenService
	capabilities core.ICapabilityService

	// locks serialize per borrower and per request
	locks concurrency.LockMap
}

// New new engine service
func New(db core.Transactor,
	system *core.System,
	gates core.IGateService,
	paramStr core.IParamStore,
	loanStr core.ILoanStore,
	requestStr core.IRequestStore,
	paymentStr core.IPaymentStore,
	debtStr core.IDebtStore,
	transferStr core.ITransferStore,
	messageStr core.IMessageStore,
	messagez core.IMessageService,
	vaultz core.IVaultService,
	tokenz core.ITokenService,
	capabilityz core.ICapabilityService) core.IEngineService {
	return &engineService{
		db:           db,
		system:       system,
		gates:        gates,
		params:       paramStr,
		loans:        loanStr,
		requests:     requestStr,
		payments:     paymentStr,
		debts:        debtStr,
		transfers:    transferStr,
		messages:     messageStr,
		messagez:     messagez,
		vaults:       vaultz,
		tokens:       tokenz,
		capabilities: capabilityz,
	}
}

func (s *engineService) RequestLoan(ctx context.Context, borrowerID string, amount decimal.Decimal, termMonths int64, traceID string) (*core.BorrowRequest, error) {
	amount = amount.Truncate(number.AmountPrecision)
	if traceID == "" {
		traceID = id.GenTraceID()
	} else if !govalidator.IsUUID(traceID) {
		return nil, core.ErrInvalidTrace
	}

	if err := s.gates.Guard(ctx, core.OSRequest); err != nil {
		return nil, err
	}

	ok, err := s.capabilities.HasCapability(ctx, borrowerID, core.CapabilityBorrower)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ErrOperationForbidden
	}

	params, err := s.params.Find(ctx, s.system.EngineAccount)
	if err != nil {
		return nil, err
	}

	if amount.Sign() <= 0 || amount.LessThan(params.MinAmount) {
		return nil, core.ErrInvalidAmount
	}
	if params.MaxAmount.Sign() > 0 && amount.GreaterThan(params.MaxAmount) {
		return nil, core.ErrInvalidAmount
	}
	if termMonths <= 0 || termMonths < params.MinTermMonths {
		return nil, core.ErrInvalidTerm
	}
	if params.MaxTermMonths > 0 && termMonths > params.MaxTermMonths {
		return nil, core.ErrInvalidTerm
	}

	defer s.locks.Lock(borrowerKey(borrowerID))()

	if loan, err := s.loans.Find(ctx, borrowerID); err == nil && loan.Active {
		return nil, core.ErrHasOutstandingLoan
	} else if err != nil && !gorm.IsRecordNotFoundError(err) {
		return nil, err
	}

	request := &core.BorrowRequest{
		TraceID:    traceID,
		BorrowerID: borrowerID,
		Amount:     amount,
		TermMonths: termMonths,
		Voters:     pq.StringArray{},
	}

	err = s.db.Tx(func(tx *db.DB) error {
		// a retried submission with the same trace loads the original
		// row instead of creating a second one
		if err := s.requests.Create(ctx, tx, request); err != nil {
			return err
		}

		return s.notify(ctx, tx, id.Modify(request.TraceID, "created"), borrowerID, core.ActionRequestCreated, map[string]interface{}{
			"request_id":  request.ID,
			"amount":      amount,
			"term_months": termMonths,
		})
	})
	if err != nil {
		return nil, err
	}

	return request, nil
}

func (s *engineService) Approve(ctx context.Context, requestID uint64, approverID string) (*core.BorrowRequest, error) {
	if err := s.gates.Guard(ctx, core.OSApprove); err != nil {
		return nil, err
	}

	ok, err := s.capabilities.HasCapability(ctx, approverID, core.CapabilityMember)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ErrOperationForbidden
	}

	defer s.locks.Lock(requestKey(requestID))()

	request, err := s.findRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if request.Executed() {
		return nil, core.ErrRequestExecuted
	}

	if govalidator.IsIn(approverID, request.Voters...) {
		return nil, core.ErrAlreadyApproved
	}

	params, err := s.params.Find(ctx, s.system.EngineAccount)
	if err != nil {
		return nil, err
	}

	request.Voters = append(request.Voters, approverID)
	request.ApprovalCount = int64(len(request.Voters))

	err = s.db.Tx(func(tx *db.DB) error {
		if err := s.requests.Update(ctx, tx, request); err != nil {
			return err
		}

		if err := s.notify(ctx, tx, id.Modify(request.TraceID, "vote:"+approverID), request.BorrowerID, core.ActionRequestApproved, map[string]interface{}{
			"request_id":     request.ID,
			"approver_id":    approverID,
			"approval_count": request.ApprovalCount,
			"threshold":      params.Threshold,
		}); err != nil {
			return err
		}

		if request.ApprovalCount == params.Threshold {
			return s.notify(ctx, tx, id.Modify(request.TraceID, "quorum"), request.BorrowerID, core.ActionQuorumReached, map[string]interface{}{
				"request_id":     request.ID,
				"approval_count": request.ApprovalCount,
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return request, nil
}

func (s *engineService) Execute(ctx context.Context, requestID uint64, callerID string) (*core.Loan, error) {
	if err := s.gates.Guard(ctx, core.OSExecute); err != nil {
		return nil, err
	}

	defer s.locks.Lock(requestKey(requestID))()

	request, err := s.findRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if request.Executed() {
		return nil, core.ErrRequestExecuted
	}

	params, err := s.params.Find(ctx, s.system.EngineAccount)
	if err != nil {
		return nil, err
	}

	if request.ApprovalCount < params.Threshold {
		return nil, core.ErrBelowThreshold
	}

	defer s.locks.Lock(borrowerKey(request.BorrowerID))()

	if existing, err := s.loans.Find(ctx, request.BorrowerID); err == nil && existing.Active {
		return nil, core.ErrHasOutstandingLoan
	} else if err != nil && !gorm.IsRecordNotFoundError(err) {
		return nil, err
	}

	// the rate locks in here; later base-rate changes never reprice
	// a running loan
	rate := number.PeriodicRate(params.BaseRateBps, core.PeriodsPerYear)
	fixedPayment := amortize.FixedPayment(request.Amount, rate, request.TermMonths)
	now := time.Now()

	loan := &core.Loan{BorrowerID: request.BorrowerID}
	err = s.db.Tx(func(tx *db.DB) error {
		if err := s.vaults.Allocate(ctx, tx, s.system.EngineAccount, request.Amount); err != nil {
			return err
		}

		if err := s.loans.Save(ctx, tx, loan); err != nil {
			return err
		}

		loan.RequestID = request.ID
		loan.Principal = request.Amount
		loan.RemainingPrincipal = request.Amount
		loan.AprBps = params.BaseRateBps
		loan.FixedPayment = fixedPayment
		loan.TermMonths = request.TermMonths
		loan.PaymentsRemaining = request.TermMonths
		loan.StartedAt = now
		loan.NextPaymentDue = now.Add(core.PaymentPeriod)
		loan.Active = true
		loan.ClosedAt = sql.NullTime{}
		loan.DueNotifiedAt = sql.NullTime{}
		loan.OverdueNotifiedAt = sql.NullTime{}
		if err := s.loans.Update(ctx, tx, loan); err != nil {
			return err
		}

		if err := s.debts.Mint(ctx, tx, request.BorrowerID, request.Amount); err != nil {
			return err
		}

		if err := s.tokens.Transfer(ctx, tx, s.system.VaultAccount, request.BorrowerID, request.Amount); err != nil {
			return err
		}

		request.ExecutedAt = sql.NullTime{Time: now, Valid: true}
		if err := s.requests.Update(ctx, tx, request); err != nil {
			return err
		}

		transfer := &core.Transfer{
			TraceID: id.Modify(request.TraceID, "disburse"),
			Kind:    core.TransferKindDisburse,
			FromID:  s.system.EngineAccount,
			ToID:    request.BorrowerID,
			AssetID: s.system.AssetID,
			Amount:  request.Amount,
			Memo:    fmt.Sprintf("loan %d", loan.ID),
		}
		if err := s.transfers.Create(ctx, tx, transfer); err != nil {
			return err
		}

		return s.notify(ctx, tx, id.Modify(request.TraceID, "executed"), request.BorrowerID, core.ActionLoanExecuted, map[string]interface{}{
			"loan_id":          loan.ID,
			"request_id":       request.ID,
			"principal":        loan.Principal,
			"apr_bps":          loan.AprBps,
			"fixed_payment":    loan.FixedPayment,
			"next_payment_due": loan.NextPaymentDue,
			"executed_by":      callerID,
		})
	})
	if err != nil {
		return nil, err
	}

	return loan, nil
}

func (s *engineService) MakePayment(ctx context.Context, borrowerID, payerID string) (*core.PaymentRecord, error) {
	if err := s.gates.Guard(ctx, core.OSPayment); err != nil {
		return nil, err
	}

	if payerID == "" {
		payerID = borrowerID
	}

	defer s.locks.Lock(borrowerKey(borrowerID))()

	loan, err := s.findActiveLoan(ctx, borrowerID)
	if err != nil {
		return nil, err
	}

	params, err := s.params.Find(ctx, s.system.EngineAccount)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	window := loan.NextPaymentDue.Add(-time.Duration(params.GraceDays) * 24 * time.Hour)
	if now.Before(window) {
		return nil, core.ErrPaymentTooEarly
	}

	rate := number.PeriodicRate(loan.AprBps, core.PeriodsPerYear)
	final := loan.PaymentsRemaining == 1
	payment, interest, principal := amortize.Split(loan.RemainingPrincipal, loan.FixedPayment, rate, final)

	remainingBefore := loan.RemainingPrincipal
	debtBalance, err := s.debts.Balance(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	burn := amortize.BurnAmount(debtBalance, principal, remainingBefore)
	if burn.GreaterThan(debtBalance) {
		burn = debtBalance
	}

	record := &core.PaymentRecord{
		LoanID:        loan.ID,
		BorrowerID:    borrowerID,
		Seq:           loan.TermMonths - loan.PaymentsRemaining + 1,
		Kind:          core.PaymentKindScheduled,
		PaidAt:        now,
		PrincipalPaid: principal,
		InterestPaid:  interest,
		TotalPaid:     payment,
	}

	err = s.db.Tx(func(tx *db.DB) error {
		if err := s.tokens.Transfer(ctx, tx, payerID, s.system.VaultAccount, payment); err != nil {
			return err
		}

		loan.RemainingPrincipal = loan.RemainingPrincipal.Sub(principal)
		loan.PaymentsRemaining--
		loan.NextPaymentDue = loan.NextPaymentDue.Add(core.PaymentPeriod)
		closed := loan.PaymentsRemaining == 0
		if closed {
			loan.RemainingPrincipal = decimal.Zero
			loan.Active = false
			loan.ClosedAt = sql.NullTime{Time: now, Valid: true}
		}
		if err := s.loans.Update(ctx, tx, loan); err != nil {
			return err
		}

		if closed {
			if err := s.debts.BurnAll(ctx, tx, borrowerID); err != nil {
				return err
			}
		} else if burn.Sign() > 0 {
			if err := s.debts.Burn(ctx, tx, borrowerID, burn); err != nil {
				return err
			}
		}

		if err := s.payments.Create(ctx, tx, record); err != nil {
			return err
		}

		if err := s.vaults.Return(ctx, tx, s.system.EngineAccount, principal, interest); err != nil {
			return err
		}

		transfer := &core.Transfer{
			TraceID: id.TraceIDFrom(fmt.Sprintf("loan:%d:payment:%d", loan.ID, record.Seq)),
			Kind:    core.TransferKindPayment,
			FromID:  payerID,
			ToID:    s.system.EngineAccount,
			AssetID: s.system.AssetID,
			Amount:  payment,
			Memo:    fmt.Sprintf("payment %d of %d", record.Seq, loan.TermMonths),
		}
		if err := s.transfers.Create(ctx, tx, transfer); err != nil {
			return err
		}

		if err := s.notify(ctx, tx, "", borrowerID, core.ActionPaymentRecorded, map[string]interface{}{
			"loan_id":            loan.ID,
			"seq":                record.Seq,
			"principal_paid":     record.PrincipalPaid,
			"interest_paid":      record.InterestPaid,
			"total_paid":         record.TotalPaid,
			"payments_remaining": loan.PaymentsRemaining,
		}); err != nil {
			return err
		}

		if closed {
			return s.notify(ctx, tx, "", borrowerID, core.ActionLoanClosed, map[string]interface{}{
				"loan_id": loan.ID,
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (s *engineService) PayoffLoan(ctx context.Context, borrowerID, payerID string) (*core.PaymentRecord, error) {
	if err := s.gates.Guard(ctx, core.OSPayoff); err != nil {
		return nil, err
	}

	if payerID == "" {
		payerID = borrowerID
	}

	defer s.locks.Lock(borrowerKey(borrowerID))()

	loan, err := s.findActiveLoan(ctx, borrowerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	elapsed := amortize.ElapsedDays(loan.LastPaymentBoundary(), now)
	accrued := amortize.AccruedInterest(loan.RemainingPrincipal, loan.AprBps, elapsed)
	remainingBefore := loan.RemainingPrincipal
	total := remainingBefore.Add(accrued)

	record := &core.PaymentRecord{
		LoanID:        loan.ID,
		BorrowerID:    borrowerID,
		Seq:           loan.TermMonths - loan.PaymentsRemaining + 1,
		Kind:          core.PaymentKindPayoff,
		PaidAt:        now,
		PrincipalPaid: remainingBefore,
		InterestPaid:  accrued,
		TotalPaid:     total,
	}

	err = s.db.Tx(func(tx *db.DB) error {
		if err := s.tokens.Transfer(ctx, tx, payerID, s.system.VaultAccount, total); err != nil {
			return err
		}

		loan.RemainingPrincipal = decimal.Zero
		loan.PaymentsRemaining = 0
		loan.Active = false
		loan.ClosedAt = sql.NullTime{Time: now, Valid: true}
		if err := s.loans.Update(ctx, tx, loan); err != nil {
			return err
		}

		if err := s.debts.BurnAll(ctx, tx, borrowerID); err != nil {
			return err
		}

		if err := s.payments.Create(ctx, tx, record); err != nil {
			return err
		}

		if err := s.vaults.Return(ctx, tx, s.system.EngineAccount, remainingBefore, accrued); err != nil {
			return err
		}

		transfer := &core.Transfer{
			TraceID: id.TraceIDFrom(fmt.Sprintf("loan:%d:payoff", loan.ID)),
			Kind:    core.TransferKindPayment,
			FromID:  payerID,
			ToID:    s.system.EngineAccount,
			AssetID: s.system.AssetID,
			Amount:  total,
			Memo:    "payoff",
		}
		if err := s.transfers.Create(ctx, tx, transfer); err != nil {
			return err
		}

		return s.notify(ctx, tx, "", borrowerID, core.ActionLoanPayoff, map[string]interface{}{
			"loan_id":        loan.ID,
			"principal_paid": record.PrincipalPaid,
			"interest_paid":  record.InterestPaid,
			"total_paid":     record.TotalPaid,
			"elapsed_days":   elapsed,
		})
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (s *engineService) LoanDetails(ctx context.Context, borrowerID string) (*core.Loan, error) {
	loan, err := s.loans.Find(ctx, borrowerID)
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, core.ErrNoActiveLoan
		}
		return nil, err
	}

	return loan, nil
}

func (s *engineService) NextPaymentDetails(ctx context.Context, borrowerID string) (*core.NextPayment, error) {
	loan, err := s.findActiveLoan(ctx, borrowerID)
	if err != nil {
		return nil, err
	}

	rate := number.PeriodicRate(loan.AprBps, core.PeriodsPerYear)
	final := loan.PaymentsRemaining == 1
	payment, interest, principal := amortize.Split(loan.RemainingPrincipal, loan.FixedPayment, rate, final)

	return &core.NextPayment{
		Due:       loan.NextPaymentDue,
		Amount:    payment,
		Interest:  interest,
		Principal: principal,
		Final:     final,
	}, nil
}

func (s *engineService) PayoffAmount(ctx context.Context, borrowerID string) (*core.PayoffQuote, error) {
	loan, err := s.findActiveLoan(ctx, borrowerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	elapsed := amortize.ElapsedDays(loan.LastPaymentBoundary(), now)
	accrued := amortize.AccruedInterest(loan.RemainingPrincipal, loan.AprBps, elapsed)

	return &core.PayoffQuote{
		AsOf:               now,
		ElapsedDays:        elapsed,
		RemainingPrincipal: loan.RemainingPrincipal,
		AccruedInterest:    accrued,
		Total:              loan.RemainingPrincipal.Add(accrued),
	}, nil
}

func (s *engineService) PaymentHistory(ctx context.Context, borrowerID string, fromID uint64, limit int) ([]*core.PaymentRecord, error) {
	return s.payments.ListByBorrower(ctx, borrowerID, fromID, limit)
}

func (s *engineService) findRequest(ctx context.Context, requestID uint64) (*core.BorrowRequest, error) {
	request, err := s.requests.Find(ctx, requestID)
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, core.ErrRequestNotFound
		}
		return nil, err
	}

	return request, nil
}

func (s *engineService) findActiveLoan(ctx context.Context, borrowerID string) (*core.Loan, error) {
	loan, err := s.loans.Find(ctx, borrowerID)
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, core.ErrNoActiveLoan
		}
		return nil, err
	}

	if !loan.Active {
		return nil, core.ErrNoActiveLoan
	}

	return loan, nil
}

// notify queues one webhook message in the operation's transaction. A
// non-empty messageID pins the row so a retried operation cannot queue
// the same event twice.
func (s *engineService) notify(ctx context.Context, tx *db.DB, messageID, userID, action string, body map[string]interface{}) error {
	msg, err := s.messagez.Build(userID, action, body)
	if err != nil {
		return err
	}

	if messageID != "" {
		msg.MessageID = messageID
	}

	return s.messages.Create(ctx, tx, []*core.Message{msg})
}

func borrowerKey(borrowerID string) string {
	return "borrower:" + borrowerID
}

func requestKey(requestID uint64) string {
	return fmt.Sprintf("request:%d", requestID)
}
