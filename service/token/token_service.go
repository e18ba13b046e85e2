package token

import (
	"context"

	"termpool/core"
	"termpool/pkg/number"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

type tokenService struct {
	system *core.System
	tokens core.ITokenStore
}

// New new token service
func New(system *core.System, tokenStr core.ITokenStore) core.ITokenService {
	return &tokenService{
		system: system,
		tokens: tokenStr,
	}
}

func (s *tokenService) Transfer(ctx context.Context, tx *db.DB, fromID, toID string, amount decimal.Decimal) error {
	amount = amount.Truncate(number.AmountPrecision)
	if amount.Sign() <= 0 {
		return core.ErrInvalidAmount
	}

	if fromID == toID {
		return nil
	}

	from, err := s.tokens.Find(ctx, fromID, s.system.AssetID)
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return core.ErrInsufficientBalance
		}
		return err
	}

	if from.Balance.LessThan(amount) {
		return core.ErrInsufficientBalance
	}

	to := &core.Account{
		UserID:  toID,
		AssetID: s.system.AssetID,
		Balance: decimal.Zero,
	}
	if err := s.tokens.Save(ctx, tx, to); err != nil {
		return err
	}

	from.Balance = from.Balance.Sub(amount)
	if err := s.tokens.Update(ctx, tx, from); err != nil {
		return err
	}

	to.Balance = to.Balance.Add(amount)
	return s.tokens.Update(ctx, tx, to)
}

func (s *tokenService) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	account, err := s.tokens.Find(ctx, userID, s.system.AssetID)
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	return account.Balance, nil
}

func (s *tokenService) Credit(ctx context.Context, tx *db.DB, userID string, amount decimal.Decimal) error {
	amount = amount.Truncate(number.AmountPrecision)
	if amount.Sign() <= 0 {
		return core.ErrInvalidAmount
	}

	account := &core.Account{
		UserID:  userID,
		AssetID: s.system.AssetID,
		Balance: decimal.Zero,
	}
	if err := s.tokens.Save(ctx, tx, account); err != nil {
		return err
	}

	account.Balance = account.Balance.Add(amount)
	return s.tokens.Update(ctx, tx, account)
}
