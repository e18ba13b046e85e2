package billing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"termpool/core"
	"termpool/pkg/id"
	"termpool/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/property"
	"github.com/fox-one/pkg/store/db"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

const checkpointKey = "billing_last_scan"

// Worker scans open loans once a minute, enqueues due and overdue
// notices, and refreshes the accounting gauges. A notice is latched on
// the loan row so each payment period produces at most one of each.
type Worker struct {
	worker.BaseJob
	db       core.Transactor
	property property.Store
	loans    core.ILoanStore
	debts    core.IDebtStore
	messages core.IMessageStore
	vaultz   core.IVaultService
	paramz   core.IParamService
	messagez core.IMessageService
}

// New new billing worker
func New(
	location string,
	tr core.Transactor,
	propertyStore property.Store,
	loans core.ILoanStore,
	debts core.IDebtStore,
	messages core.IMessageStore,
	vaultz core.IVaultService,
	paramz core.IParamService,
	messagez core.IMessageService,
) *Worker {
	job := Worker{
		db:       tr,
		property: propertyStore,
		loans:    loans,
		debts:    debts,
		messages: messages,
		vaultz:   vaultz,
		paramz:   paramz,
		messagez: messagez,
	}

	l, _ := time.LoadLocation(location)
	job.Cron = cron.New(cron.WithLocation(l))
	spec := "@every 1m"
	job.Cron.AddFunc(spec, job.BaseJob.Run)
	job.OnWork = func() error {
		return job.onWork(context.Background())
	}

	return &job
}

// Run starts the cron and blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return err
	}

	<-ctx.Done()

	if err := w.Stop(); err != nil {
		return err
	}

	return ctx.Err()
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "billing")

	params, err := w.paramz.Params(ctx)
	if err != nil {
		log.WithError(err).Errorln("params.Get")
		return err
	}

	loans, err := w.loans.ListActive(ctx)
	if err != nil {
		log.WithError(err).Errorln("loans.ListActive")
		return err
	}

	grace := time.Duration(params.GraceDays) * 24 * time.Hour
	now := time.Now()

	outstanding := decimal.Zero
	var overdue int

	for _, loan := range loans {
		outstanding = outstanding.Add(loan.RemainingPrincipal)

		switch {
		case now.After(loan.NextPaymentDue.Add(grace)):
			overdue++
			if err := w.notifyOverdue(ctx, loan); err != nil {
				log.WithError(err).Errorln("notify overdue", loan.ID)
				return err
			}
		case !now.Before(loan.NextPaymentDue.Add(-grace)):
			if err := w.notifyDue(ctx, loan); err != nil {
				log.WithError(err).Errorln("notify due", loan.ID)
				return err
			}
		}
	}

	w.observe(ctx, len(loans), overdue, outstanding)

	if err := w.property.Save(ctx, checkpointKey, now.Unix()); err != nil {
		log.WithError(err).Errorln("property.Save", checkpointKey)
		return err
	}

	return nil
}

func (w *Worker) notifyDue(ctx context.Context, loan *core.Loan) error {
	if loan.DueNotifiedAt.Valid && loan.DueNotifiedAt.Time.After(loan.LastPaymentBoundary()) {
		return nil
	}

	msg, err := w.messagez.Build(loan.BorrowerID, core.ActionPaymentDue, map[string]interface{}{
		"loan_id":            loan.ID,
		"next_payment_due":   loan.NextPaymentDue,
		"fixed_payment":      loan.FixedPayment,
		"payments_remaining": loan.PaymentsRemaining,
	})
	if err != nil {
		return err
	}

	msg.MessageID = id.TraceIDFrom(fmt.Sprintf("loan:%d:due:%d", loan.ID, loan.NextPaymentDue.Unix()))
	loan.DueNotifiedAt = sql.NullTime{Time: time.Now(), Valid: true}

	err = w.db.Tx(func(tx *db.DB) error {
		if err := w.loans.Update(ctx, tx, loan); err != nil {
			return err
		}

		return w.messages.Create(ctx, tx, []*core.Message{msg})
	})
	if err != nil {
		return err
	}

	defaultMetrics().dueNotices.Inc()
	return nil
}

func (w *Worker) notifyOverdue(ctx context.Context, loan *core.Loan) error {
	if loan.OverdueNotifiedAt.Valid && loan.OverdueNotifiedAt.Time.After(loan.LastPaymentBoundary()) {
		return nil
	}

	msg, err := w.messagez.Build(loan.BorrowerID, core.ActionPaymentOverdue, map[string]interface{}{
		"loan_id":            loan.ID,
		"next_payment_due":   loan.NextPaymentDue,
		"fixed_payment":      loan.FixedPayment,
		"payments_remaining": loan.PaymentsRemaining,
	})
	if err != nil {
		return err
	}

	msg.MessageID = id.TraceIDFrom(fmt.Sprintf("loan:%d:overdue:%d", loan.ID, loan.NextPaymentDue.Unix()))
	loan.OverdueNotifiedAt = sql.NullTime{Time: time.Now(), Valid: true}

	err = w.db.Tx(func(tx *db.DB) error {
		if err := w.loans.Update(ctx, tx, loan); err != nil {
			return err
		}

		return w.messages.Create(ctx, tx, []*core.Message{msg})
	})
	if err != nil {
		return err
	}

	defaultMetrics().overdueNotices.Inc()
	return nil
}

func (w *Worker) observe(ctx context.Context, active, overdue int, outstanding decimal.Decimal) {
	m := defaultMetrics()

	m.activeLoans.Set(float64(active))
	m.overdueLoans.Set(float64(overdue))

	f, _ := outstanding.Float64()
	m.outstanding.Set(f)

	if stats, err := w.vaultz.Stats(ctx); err == nil {
		idle, _ := stats.IdleBalance.Float64()
		allocated, _ := stats.TotalAllocated.Float64()
		shares, _ := stats.TotalShares.Float64()

		m.vaultIdle.Set(idle)
		m.vaultAllocated.Set(allocated)
		m.vaultShares.Set(shares)
	}

	if sum, err := w.debts.Sum(ctx); err == nil {
		units, _ := sum.Float64()
		m.debtUnits.Set(units)
	}
}
