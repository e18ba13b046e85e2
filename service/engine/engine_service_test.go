package engine

import (
	"context"
	"testing"
	"time"

	"termpool/core"
	"termpool/internal/testutil"
	"termpool/pkg/id"
	"termpool/pkg/number"
	"termpool/service/capability"
	"termpool/service/message"
	"termpool/service/token"
	"termpool/service/vault"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAsset         = "asset"
	testVaultAccount  = "vault-account"
	testEngineAccount = "engine-account"
)

type testEnv struct {
	system    *core.System
	gate      *testutil.Gate
	params    *testutil.ParamStore
	loans     *testutil.LoanStore
	requests  *testutil.RequestStore
	payments  *testutil.PaymentStore
	debts     *testutil.DebtStore
	transfers *testutil.TransferStore
	messages  *testutil.MessageStore
	vaults    *testutil.VaultStore
	tokenz    core.ITokenService
	vaultz    core.IVaultService
	engine    core.IEngineService
}

func newTestEnv(t *testing.T) *testEnv {
	ctx := context.Background()

	system := &core.System{
		Admins:        []string{"admin"},
		AssetID:       testAsset,
		VaultAccount:  testVaultAccount,
		EngineAccount: testEngineAccount,
	}

	env := &testEnv{
		system:    system,
		gate:      &testutil.Gate{},
		params:    testutil.NewParamStore(),
		loans:     testutil.NewLoanStore(),
		requests:  testutil.NewRequestStore(),
		payments:  testutil.NewPaymentStore(),
		debts:     testutil.NewDebtStore(),
		transfers: testutil.NewTransferStore(),
		messages:  testutil.NewMessageStore(),
		vaults:    testutil.NewVaultStore(),
	}

	capabilities := testutil.NewCapabilityStore()
	shares := testutil.NewShareStore()
	tokens := testutil.NewTokenStore()

	capabilityz := capability.New(system, capabilities)
	messagez := message.New(core.Notifier{})
	env.tokenz = token.New(system, tokens)
	env.vaultz = vault.New(testutil.DB{}, system, env.gate, env.vaults, shares, testutil.NewStatsStore(), env.transfers, env.tokenz, capabilityz)
	env.engine = New(testutil.DB{}, system, env.gate,
		env.params, env.loans, env.requests, env.payments, env.debts,
		env.transfers, env.messages, messagez, env.vaultz, env.tokenz, capabilityz)

	require.NoError(t, env.vaults.Create(ctx, nil, &core.Vault{AssetID: testAsset}))
	require.NoError(t, env.params.Save(ctx, nil, &core.EngineParams{
		EngineID:      testEngineAccount,
		Threshold:     2,
		BaseRateBps:   800,
		MinAmount:     number.Decimal("100"),
		MaxAmount:     number.Decimal("50000"),
		MinTermMonths: 1,
		MaxTermMonths: 60,
		GraceDays:     30,
	}))

	for _, grant := range []core.CapabilityGrant{
		{UserID: "bob", Capability: core.CapabilityBorrower},
		{UserID: "m1", Capability: core.CapabilityMember},
		{UserID: "m2", Capability: core.CapabilityMember},
		{UserID: "m3", Capability: core.CapabilityMember},
		{UserID: testEngineAccount, Capability: core.CapabilityInternal},
	} {
		g := grant
		require.NoError(t, capabilities.Grant(ctx, &g))
	}

	require.NoError(t, env.tokenz.Credit(ctx, nil, "alice", number.Decimal("20000")))
	units, err := env.vaultz.Deposit(ctx, "alice", number.Decimal("20000"))
	require.NoError(t, err)
	require.Equal(t, "20000", units.String())

	return env
}

// custody invariant: the vault account token balance always equals the
// vault's idle balance
func (env *testEnv) assertCustody(t *testing.T) {
	ctx := context.Background()

	vault, err := env.vaults.Find(ctx, testAsset)
	require.NoError(t, err)

	balance, err := env.tokenz.Balance(ctx, testVaultAccount)
	require.NoError(t, err)

	assert.Equal(t, vault.IdleBalance.String(), balance.String())
}

func (env *testEnv) openLoan(t *testing.T, amount string, term int64) *core.Loan {
	ctx := context.Background()

	request, err := env.engine.RequestLoan(ctx, "bob", number.Decimal(amount), term, "")
	require.NoError(t, err)

	_, err = env.engine.Approve(ctx, request.ID, "m1")
	require.NoError(t, err)
	_, err = env.engine.Approve(ctx, request.ID, "m2")
	require.NoError(t, err)

	loan, err := env.engine.Execute(ctx, request.ID, "m1")
	require.NoError(t, err)
	return loan
}

func TestLoanLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	request, err := env.engine.RequestLoan(ctx, "bob", number.Decimal("10000"), 12, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), request.ID)
	assert.NotEmpty(t, request.TraceID)
	assert.Equal(t, int64(0), request.ApprovalCount)

	// below quorum
	_, err = env.engine.Execute(ctx, request.ID, "m1")
	assert.Equal(t, core.ErrBelowThreshold, err)

	request, err = env.engine.Approve(ctx, request.ID, "m1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), request.ApprovalCount)

	_, err = env.engine.Approve(ctx, request.ID, "m1")
	assert.Equal(t, core.ErrAlreadyApproved, err)

	request, err = env.engine.Approve(ctx, request.ID, "m2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), request.ApprovalCount)

	loan, err := env.engine.Execute(ctx, request.ID, "m1")
	require.NoError(t, err)
	assert.Equal(t, "10000", loan.Principal.String())
	assert.Equal(t, "869.88429085", loan.FixedPayment.String())
	assert.Equal(t, int64(800), loan.AprBps)
	assert.Equal(t, int64(12), loan.PaymentsRemaining)
	assert.True(t, loan.Active)
	env.assertCustody(t)

	// executed latch
	_, err = env.engine.Execute(ctx, request.ID, "m2")
	assert.Equal(t, core.ErrRequestExecuted, err)
	_, err = env.engine.Approve(ctx, request.ID, "m3")
	assert.Equal(t, core.ErrRequestExecuted, err)

	// a second intent while a loan runs
	_, err = env.engine.RequestLoan(ctx, "bob", number.Decimal("500"), 6, "")
	assert.Equal(t, core.ErrHasOutstandingLoan, err)

	// debt units minted 1:1 against principal
	debt, err := env.debts.Balance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "10000", debt.String())

	// disbursement reached the borrower
	balance, err := env.tokenz.Balance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "10000", balance.String())

	next, err := env.engine.NextPaymentDetails(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "869.88429085", next.Amount.String())
	assert.Equal(t, "66.66666666", next.Interest.String())
	assert.Equal(t, "803.21762419", next.Principal.String())
	assert.False(t, next.Final)

	// interest beyond the disbursed principal
	require.NoError(t, env.tokenz.Credit(ctx, nil, "bob", number.Decimal("500")))

	totalInterest := decimal.Zero
	for i := int64(1); i <= 12; i++ {
		if i > 1 {
			// pull the period boundary back so the next window is open
			loan, err := env.loans.Find(ctx, "bob")
			require.NoError(t, err)
			loan.NextPaymentDue = loan.NextPaymentDue.Add(-core.PaymentPeriod)
			require.NoError(t, env.loans.Update(ctx, nil, loan))
		}

		record, err := env.engine.MakePayment(ctx, "bob", "")
		require.NoError(t, err, "payment %d", i)
		assert.Equal(t, i, record.Seq)
		assert.Equal(t, core.PaymentKindScheduled, record.Kind)
		totalInterest = totalInterest.Add(record.InterestPaid)

		loan, err := env.engine.LoanDetails(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, 12-i, loan.PaymentsRemaining)

		// debt units track remaining principal exactly while the mint
		// stays 1:1
		debt, err := env.debts.Balance(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, loan.RemainingPrincipal.String(), debt.String(), "payment %d", i)

		env.assertCustody(t)
	}

	assert.Equal(t, "438.61149018", totalInterest.String())

	loan, err = env.engine.LoanDetails(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, loan.Active)
	assert.True(t, loan.RemainingPrincipal.IsZero())
	assert.Equal(t, int64(0), loan.PaymentsRemaining)
	assert.True(t, loan.ClosedAt.Valid)

	debt, err = env.debts.Balance(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, debt.IsZero())

	// the final payment differs from the fixed one by rounding dust
	records, err := env.engine.PaymentHistory(ctx, "bob", 0, 100)
	require.NoError(t, err)
	require.Len(t, records, 12)
	assert.Equal(t, "869.88429085", records[0].TotalPaid.String())
	assert.Equal(t, "66.66666666", records[0].InterestPaid.String())
	assert.Equal(t, "803.21762419", records[0].PrincipalPaid.String())
	assert.Equal(t, "869.88429083", records[11].TotalPaid.String())
	assert.Equal(t, "5.76082311", records[11].InterestPaid.String())
	assert.Equal(t, "864.12346772", records[11].PrincipalPaid.String())

	// repaid interest accrues to the depositors
	vault, err := env.vaults.Find(ctx, testAsset)
	require.NoError(t, err)
	assert.Equal(t, "20438.61149018", vault.IdleBalance.String())
	assert.True(t, vault.TotalAllocated.IsZero())

	amount, err := env.vaultz.Withdraw(ctx, "alice", "", number.Decimal("20000"))
	require.NoError(t, err)
	assert.Equal(t, "20438.61149018", amount.String())
	env.assertCustody(t)

	// event tally for the whole lifecycle
	messages, err := env.messages.List(ctx, 100)
	require.NoError(t, err)
	actions := make(map[string]int)
	for _, msg := range messages {
		actions[msg.Action]++
	}
	assert.Equal(t, 1, actions[core.ActionRequestCreated])
	assert.Equal(t, 2, actions[core.ActionRequestApproved])
	assert.Equal(t, 1, actions[core.ActionQuorumReached])
	assert.Equal(t, 1, actions[core.ActionLoanExecuted])
	assert.Equal(t, 12, actions[core.ActionPaymentRecorded])
	assert.Equal(t, 1, actions[core.ActionLoanClosed])

	transfers, err := env.transfers.List(ctx, 0, 100)
	require.NoError(t, err)
	kinds := make(map[string]int)
	for _, transfer := range transfers {
		kinds[transfer.Kind]++
	}
	assert.Equal(t, 1, kinds[core.TransferKindDeposit])
	assert.Equal(t, 1, kinds[core.TransferKindAllocate])
	assert.Equal(t, 1, kinds[core.TransferKindDisburse])
	assert.Equal(t, 12, kinds[core.TransferKindPayment])
	assert.Equal(t, 12, kinds[core.TransferKindReturn])
	assert.Equal(t, 1, kinds[core.TransferKindWithdrawal])
}

func TestPayoffImmediately(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	loan := env.openLoan(t, "10000", 12)

	// settled within the first day, no interest accrued yet
	quote, err := env.engine.PayoffAmount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(0), quote.ElapsedDays)
	assert.True(t, quote.AccruedInterest.IsZero())
	assert.Equal(t, "10000", quote.Total.String())

	record, err := env.engine.PayoffLoan(ctx, "bob", "")
	require.NoError(t, err)
	assert.Equal(t, core.PaymentKindPayoff, record.Kind)
	assert.Equal(t, "10000", record.PrincipalPaid.String())
	assert.True(t, record.InterestPaid.IsZero())

	closed, err := env.engine.LoanDetails(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, loan.ID, closed.ID)
	assert.False(t, closed.Active)

	debt, err := env.debts.Balance(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, debt.IsZero())
	env.assertCustody(t)

	// the loan row is reused for the next execution
	reopened := env.openLoan(t, "5000", 6)
	assert.Equal(t, loan.ID, reopened.ID)
	assert.Equal(t, "5000", reopened.Principal.String())
	assert.Equal(t, int64(6), reopened.PaymentsRemaining)
	assert.True(t, reopened.Active)
}

func TestPayoffAccruesDailyInterest(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.openLoan(t, "10000", 12)

	// move the period boundary ten days into the past
	loan, err := env.loans.Find(ctx, "bob")
	require.NoError(t, err)
	loan.NextPaymentDue = loan.NextPaymentDue.Add(-10 * 24 * time.Hour)
	require.NoError(t, env.loans.Update(ctx, nil, loan))

	quote, err := env.engine.PayoffAmount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(10), quote.ElapsedDays)
	assert.Equal(t, "21.91780821", quote.AccruedInterest.String())
	assert.Equal(t, "10021.91780821", quote.Total.String())

	require.NoError(t, env.tokenz.Credit(ctx, nil, "bob", number.Decimal("100")))

	record, err := env.engine.PayoffLoan(ctx, "bob", "")
	require.NoError(t, err)
	assert.Equal(t, "21.91780821", record.InterestPaid.String())
	assert.Equal(t, "10021.91780821", record.TotalPaid.String())

	vault, err := env.vaults.Find(ctx, testAsset)
	require.NoError(t, err)
	assert.Equal(t, "20021.91780821", vault.IdleBalance.String())
	assert.True(t, vault.TotalAllocated.IsZero())
	env.assertCustody(t)
}

func TestRequestLoanValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.engine.RequestLoan(ctx, "bob", number.Decimal("50"), 12, "")
	assert.Equal(t, core.ErrInvalidAmount, err)

	_, err = env.engine.RequestLoan(ctx, "bob", number.Decimal("60000"), 12, "")
	assert.Equal(t, core.ErrInvalidAmount, err)

	_, err = env.engine.RequestLoan(ctx, "bob", decimal.Zero, 12, "")
	assert.Equal(t, core.ErrInvalidAmount, err)

	_, err = env.engine.RequestLoan(ctx, "bob", number.Decimal("1000"), 0, "")
	assert.Equal(t, core.ErrInvalidTerm, err)

	_, err = env.engine.RequestLoan(ctx, "bob", number.Decimal("1000"), 61, "")
	assert.Equal(t, core.ErrInvalidTerm, err)

	// not a whitelisted borrower
	_, err = env.engine.RequestLoan(ctx, "mallory", number.Decimal("1000"), 12, "")
	assert.Equal(t, core.ErrOperationForbidden, err)

	// amounts truncate to amount precision before validation
	request, err := env.engine.RequestLoan(ctx, "bob", number.Decimal("1000.123456789"), 12, "")
	require.NoError(t, err)
	assert.Equal(t, "1000.12345678", request.Amount.String())

	require.NoError(t, env.gate.Suspend(ctx, core.OSRequest))
	_, err = env.engine.RequestLoan(ctx, "bob", number.Decimal("1000"), 12, "")
	assert.Equal(t, core.ErrSystemPaused, err)
}

func TestApproveGuards(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	request, err := env.engine.RequestLoan(ctx, "bob", number.Decimal("1000"), 12, "")
	require.NoError(t, err)

	_, err = env.engine.Approve(ctx, request.ID, "mallory")
	assert.Equal(t, core.ErrOperationForbidden, err)

	_, err = env.engine.Approve(ctx, request.ID+100, "m1")
	assert.Equal(t, core.ErrRequestNotFound, err)

	require.NoError(t, env.gate.Suspend(ctx, core.OSApprove))
	_, err = env.engine.Approve(ctx, request.ID, "m1")
	assert.Equal(t, core.ErrSystemPaused, err)
}

func TestExecuteGuards(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	first, err := env.engine.RequestLoan(ctx, "bob", number.Decimal("10000"), 12, "")
	require.NoError(t, err)
	second, err := env.engine.RequestLoan(ctx, "bob", number.Decimal("2000"), 6, "")
	require.NoError(t, err)

	for _, member := range []string{"m1", "m2"} {
		_, err = env.engine.Approve(ctx, first.ID, member)
		require.NoError(t, err)
		_, err = env.engine.Approve(ctx, second.ID, member)
		require.NoError(t, err)
	}

	_, err = env.engine.Execute(ctx, first.ID, "m1")
	require.NoError(t, err)

	// quorum alone is not enough once a loan is running
	_, err = env.engine.Execute(ctx, second.ID, "m1")
	assert.Equal(t, core.ErrHasOutstandingLoan, err)

	_, err = env.engine.Execute(ctx, first.ID+100, "m1")
	assert.Equal(t, core.ErrRequestNotFound, err)
}

func TestExecuteInsufficientLiquidity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// more than the vault holds idle
	request, err := env.engine.RequestLoan(ctx, "bob", number.Decimal("30000"), 12, "")
	require.NoError(t, err)

	_, err = env.engine.Approve(ctx, request.ID, "m1")
	require.NoError(t, err)
	_, err = env.engine.Approve(ctx, request.ID, "m2")
	require.NoError(t, err)

	_, err = env.engine.Execute(ctx, request.ID, "m1")
	assert.Equal(t, core.ErrInsufficientLiquidity, err)

	// nothing moved
	debt, err := env.debts.Balance(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, debt.IsZero())
	env.assertCustody(t)
}

func TestMakePaymentGuards(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.engine.MakePayment(ctx, "bob", "")
	assert.Equal(t, core.ErrNoActiveLoan, err)

	env.openLoan(t, "10000", 12)

	// shrink the grace window so the first due date is out of reach
	params, err := env.params.Find(ctx, testEngineAccount)
	require.NoError(t, err)
	params.GraceDays = 3
	require.NoError(t, env.params.Update(ctx, nil, params))

	_, err = env.engine.MakePayment(ctx, "bob", "")
	assert.Equal(t, core.ErrPaymentTooEarly, err)

	// with the full window back, the first payment clears but a second
	// inside the same period is early again
	params.GraceDays = 30
	require.NoError(t, env.params.Update(ctx, nil, params))

	_, err = env.engine.MakePayment(ctx, "bob", "")
	require.NoError(t, err)

	_, err = env.engine.MakePayment(ctx, "bob", "")
	assert.Equal(t, core.ErrPaymentTooEarly, err)
}

func TestRequestLoanTraceDedupe(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	trace := id.GenTraceID()
	first, err := env.engine.RequestLoan(ctx, "bob", number.Decimal("1000"), 12, trace)
	require.NoError(t, err)

	// a retried submission with the same trace loads the original row
	retry, err := env.engine.RequestLoan(ctx, "bob", number.Decimal("1000"), 12, trace)
	require.NoError(t, err)
	assert.Equal(t, first.ID, retry.ID)
	assert.Equal(t, first.TraceID, retry.TraceID)

	second, err := env.engine.RequestLoan(ctx, "bob", number.Decimal("1000"), 12, "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = env.engine.RequestLoan(ctx, "bob", number.Decimal("1000"), 12, "not-a-uuid")
	assert.Equal(t, core.ErrInvalidTrace, err)
}

func TestThirdPartyPayer(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.openLoan(t, "10000", 12)
	require.NoError(t, env.tokenz.Credit(ctx, nil, "carol", number.Decimal("1000")))

	record, err := env.engine.MakePayment(ctx, "bob", "carol")
	require.NoError(t, err)
	assert.Equal(t, "869.88429085", record.TotalPaid.String())

	balance, err := env.tokenz.Balance(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, "130.11570915", balance.String())

	// the borrower's disbursement is untouched
	balance, err = env.tokenz.Balance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "10000", balance.String())
	env.assertCustody(t)
}
