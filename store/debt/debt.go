package debt

import (
	"context"

	"termpool/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

type debtStore struct {
	db *db.DB
}

// New new debt balance store
func New(db *db.DB) core.IDebtStore {
	return &debtStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.DebtBalance{})
		if err := tx.AutoMigrate(core.DebtBalance{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *debtStore) Mint(ctx context.Context, tx *db.DB, borrowerID string, amount decimal.Decimal) error {
	balance := &core.DebtBalance{
		BorrowerID: borrowerID,
		Balance:    decimal.Zero,
	}

	if err := tx.Update().Where("borrower_id=?", borrowerID).FirstOrCreate(balance).Error; err != nil {
		return err
	}

	return s.update(tx, balance, balance.Balance.Add(amount))
}

func (s *debtStore) Burn(ctx context.Context, tx *db.DB, borrowerID string, amount decimal.Decimal) error {
	var balance core.DebtBalance
	if err := tx.Update().Where("borrower_id=?", borrowerID).First(&balance).Error; err != nil {
		return err
	}

	if balance.Balance.LessThan(amount) {
		return core.ErrDebtUnderflow
	}

	return s.update(tx, &balance, balance.Balance.Sub(amount))
}

func (s *debtStore) BurnAll(ctx context.Context, tx *db.DB, borrowerID string) error {
	var balance core.DebtBalance
	if err := tx.Update().Where("borrower_id=?", borrowerID).First(&balance).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil
		}

		return err
	}

	return s.update(tx, &balance, decimal.Zero)
}

func (s *debtStore) update(tx *db.DB, balance *core.DebtBalance, units decimal.Decimal) error {
	version := balance.Version
	balance.Balance = units
	balance.Version++

	updates := map[string]interface{}{
		"balance": balance.Balance,
		"version": balance.Version,
	}

	upd := tx.Update().Model(core.DebtBalance{}).Where("id=? and version=?", balance.ID, version).Updates(updates)
	if upd.Error != nil {
		return upd.Error
	}

	if upd.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}

	return nil
}

func (s *debtStore) Balance(ctx context.Context, borrowerID string) (decimal.Decimal, error) {
	var balance core.DebtBalance
	if err := s.db.View().Where("borrower_id=?", borrowerID).First(&balance).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return decimal.Zero, nil
		}

		return decimal.Zero, err
	}

	return balance.Balance, nil
}

func (s *debtStore) Sum(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := s.db.View().Model(core.DebtBalance{}).Select("coalesce(sum(balance), 0)").Row().Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return sum, nil
}
