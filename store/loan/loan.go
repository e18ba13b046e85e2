package loan

import (
	"context"

	"termpool/core"

	"github.com/fox-one/pkg/store/db"
)

type loanStore struct {
	db *db.DB
}

// New new loan store
func New(db *db.DB) core.ILoanStore {
	return &loanStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Loan{})
		if err := tx.AutoMigrate(core.Loan{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *loanStore) Save(ctx context.Context, tx *db.DB, loan *core.Loan) error {
	return tx.Update().Where("borrower_id=?", loan.BorrowerID).FirstOrCreate(loan).Error
}

func (s *loanStore) Find(ctx context.Context, borrowerID string) (*core.Loan, error) {
	var loan core.Loan
	if err := s.db.View().Where("borrower_id=?", borrowerID).First(&loan).Error; err != nil {
		return nil, err
	}

	return &loan, nil
}

func (s *loanStore) Update(ctx context.Context, tx *db.DB, loan *core.Loan) error {
	version := loan.Version
	loan.Version++

	updates := map[string]interface{}{
		"request_id":          loan.RequestID,
		"principal":           loan.Principal,
		"remaining_principal": loan.RemainingPrincipal,
		"apr_bps":             loan.AprBps,
		"fixed_payment":       loan.FixedPayment,
		"term_months":         loan.TermMonths,
		"payments_remaining":  loan.PaymentsRemaining,
		"started_at":          loan.StartedAt,
		"next_payment_due":    loan.NextPaymentDue,
		"active":              loan.Active,
		"closed_at":           loan.ClosedAt,
		"due_notified_at":     loan.DueNotifiedAt,
		"overdue_notified_at": loan.OverdueNotifiedAt,
		"version":             loan.Version,
	}

	upd := tx.Update().Model(core.Loan{}).Where("id=? and version=?", loan.ID, version).Updates(updates)
	if upd.Error != nil {
		return upd.Error
	}

	if upd.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}

	return nil
}

func (s *loanStore) ListActive(ctx context.Context) ([]*core.Loan, error) {
	var loans []*core.Loan
	if err := s.db.View().Where("active=?", true).Find(&loans).Error; err != nil {
		return nil, err
	}

	return loans, nil
}
