package payment

import (
	"context"

	"termpool/core"

	"github.com/fox-one/pkg/store/db"
)

type paymentStore struct {
	db *db.DB
}

// New new payment record store
func New(db *db.DB) core.IPaymentStore {
	return &paymentStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.PaymentRecord{})
		if err := tx.AutoMigrate(core.PaymentRecord{}).Error; err != nil {
			return err
		}

		return nil
	})
}

// Create appends one record. There is no update or delete on purpose.
func (s *paymentStore) Create(ctx context.Context, tx *db.DB, record *core.PaymentRecord) error {
	return tx.Update().Create(record).Error
}

func (s *paymentStore) ListByBorrower(ctx context.Context, borrowerID string, fromID uint64, limit int) ([]*core.PaymentRecord, error) {
	var records []*core.PaymentRecord
	if err := s.db.View().Where("borrower_id=? and id > ?", borrowerID, fromID).Order("id asc").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

func (s *paymentStore) CountByLoan(ctx context.Context, loanID uint64) (int64, error) {
	var count int64
	if err := s.db.View().Model(core.PaymentRecord{}).Where("loan_id=?", loanID).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}
