package vault

import (
	"context"
	"fmt"
	"sync"

	"termpool/core"
	"termpool/pkg/id"
	"termpool/pkg/number"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

type vaultService struct {
	db           core.Transactor
	system       *core.System
	gates        core.IGateService
	vaults       core.IVaultStore
	shares       core.IShareStore
	stats        core.IStatsStore
	transfers    core.ITransferStore
	tokens       core.ITokenService
	capabilities core.ICapabilityService

	// mux serializes vault accounting in process
	mux sync.Mutex
}

// New new vault service
func New(db core.Transactor,
	system *core.System,
	gates core.IGateService,
	vaultStr core.IVaultStore,
	shareStr core.IShareStore,
	statsStr core.IStatsStore,
	transferStr core.ITransferStore,
	tokenz core.ITokenService,
	capabilityz core.ICapabilityService) core.IVaultService {
	return &vaultService{
		db:           db,
		system:       system,
		gates:        gates,
		vaults:       vaultStr,
		shares:       shareStr,
		stats:        statsStr,
		transfers:    transferStr,
		tokens:       tokenz,
		capabilities: capabilityz,
	}
}

func (s *vaultService) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (decimal.Decimal, error) {
	amount = amount.Truncate(number.AmountPrecision)
	if amount.Sign() <= 0 {
		return decimal.Zero, core.ErrInvalidAmount
	}

	if err := s.gates.Guard(ctx, core.OSDeposit); err != nil {
		return decimal.Zero, err
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	vault, err := s.findVault(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	// the first deposit mints one unit per asset, afterwards units
	// price at managed assets over supply, rounded down
	units := amount
	if vault.TotalShares.Sign() > 0 {
		units = number.DivFloor(amount.Mul(vault.TotalShares), vault.TotalManagedAssets(), number.AmountPrecision)
	}
	if units.Sign() <= 0 {
		return decimal.Zero, core.ErrInvalidAmount
	}

	err = s.db.Tx(func(tx *db.DB) error {
		if err := s.tokens.Transfer(ctx, tx, userID, s.system.VaultAccount, amount); err != nil {
			return err
		}

		share := &core.Share{
			VaultID: vault.ID,
			UserID:  userID,
			Units:   decimal.Zero,
		}
		if err := s.shares.Save(ctx, tx, share); err != nil {
			return err
		}
		share.Units = share.Units.Add(units)
		if err := s.shares.Update(ctx, tx, share); err != nil {
			return err
		}

		vault.TotalShares = vault.TotalShares.Add(units)
		vault.IdleBalance = vault.IdleBalance.Add(amount)
		if err := s.vaults.Update(ctx, tx, vault); err != nil {
			return err
		}

		transfer := &core.Transfer{
			TraceID: id.GenTraceID(),
			Kind:    core.TransferKindDeposit,
			FromID:  userID,
			ToID:    s.system.VaultAccount,
			AssetID: s.system.AssetID,
			Amount:  amount,
			Memo:    fmt.Sprintf("mint %s units", units),
		}
		return s.transfers.Create(ctx, tx, transfer)
	})
	if err != nil {
		return decimal.Zero, err
	}

	return units, nil
}

func (s *vaultService) Withdraw(ctx context.Context, userID, recipientID string, units decimal.Decimal) (decimal.Decimal, error) {
	units = units.Truncate(number.AmountPrecision)
	if units.Sign() <= 0 {
		return decimal.Zero, core.ErrInvalidAmount
	}

	if err := s.gates.Guard(ctx, core.OSWithdraw); err != nil {
		return decimal.Zero, err
	}

	if recipientID == "" {
		recipientID = userID
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	vault, err := s.findVault(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	share, err := s.shares.Find(ctx, vault.ID, userID)
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return decimal.Zero, core.ErrInsufficientShares
		}
		return decimal.Zero, err
	}

	if share.Units.LessThan(units) {
		return decimal.Zero, core.ErrInsufficientShares
	}

	// assets owed for the units, rounded up in the holder's favor
	amount := number.Ceil(units.Mul(vault.TotalManagedAssets()).DivRound(vault.TotalShares, number.AmountPrecision+2), number.AmountPrecision)

	burn := units
	if amount.GreaterThan(vault.IdleBalance) {
		if vault.IdleBalance.Sign() <= 0 {
			return decimal.Zero, core.ErrInsufficientLiquidity
		}

		// served amount caps at the idle balance, burning only the
		// units that amount is worth
		amount = vault.IdleBalance
		burn = number.Ceil(amount.Mul(vault.TotalShares).DivRound(vault.TotalManagedAssets(), number.AmountPrecision+2), number.AmountPrecision)
		if burn.GreaterThan(units) {
			burn = units
		}
	}

	err = s.db.Tx(func(tx *db.DB) error {
		if err := s.tokens.Transfer(ctx, tx, s.system.VaultAccount, recipientID, amount); err != nil {
			return err
		}

		share.Units = share.Units.Sub(burn)
		if err := s.shares.Update(ctx, tx, share); err != nil {
			return err
		}

		vault.TotalShares = vault.TotalShares.Sub(burn)
		vault.IdleBalance = vault.IdleBalance.Sub(amount)
		if err := s.vaults.Update(ctx, tx, vault); err != nil {
			return err
		}

		transfer := &core.Transfer{
			TraceID: id.GenTraceID(),
			Kind:    core.TransferKindWithdrawal,
			FromID:  s.system.VaultAccount,
			ToID:    recipientID,
			AssetID: s.system.AssetID,
			Amount:  amount,
			Memo:    fmt.Sprintf("burn %s units", burn),
		}
		return s.transfers.Create(ctx, tx, transfer)
	})
	if err != nil {
		return decimal.Zero, err
	}

	return amount, nil
}

func (s *vaultService) Allocate(ctx context.Context, tx *db.DB, engineID string, amount decimal.Decimal) error {
	amount = amount.Truncate(number.AmountPrecision)
	if amount.Sign() <= 0 {
		return core.ErrInvalidAmount
	}

	ok, err := s.capabilities.HasCapability(ctx, engineID, core.CapabilityInternal)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrOperationForbidden
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	vault, err := s.findVault(ctx)
	if err != nil {
		return err
	}

	if vault.IdleBalance.LessThan(amount) {
		return core.ErrInsufficientLiquidity
	}

	allocation := &core.Allocation{
		VaultID:     vault.ID,
		EngineID:    engineID,
		Outstanding: decimal.Zero,
	}
	if err := s.vaults.SaveAllocation(ctx, tx, allocation); err != nil {
		return err
	}
	allocation.Outstanding = allocation.Outstanding.Add(amount)
	if err := s.vaults.SaveAllocation(ctx, tx, allocation); err != nil {
		return err
	}

	vault.IdleBalance = vault.IdleBalance.Sub(amount)
	vault.TotalAllocated = vault.TotalAllocated.Add(amount)
	if err := s.vaults.Update(ctx, tx, vault); err != nil {
		return err
	}

	transfer := &core.Transfer{
		TraceID: id.GenTraceID(),
		Kind:    core.TransferKindAllocate,
		FromID:  s.system.VaultAccount,
		ToID:    engineID,
		AssetID: s.system.AssetID,
		Amount:  amount,
	}
	return s.transfers.Create(ctx, tx, transfer)
}

func (s *vaultService) Return(ctx context.Context, tx *db.DB, engineID string, principal, interest decimal.Decimal) error {
	principal = principal.Truncate(number.AmountPrecision)
	interest = interest.Truncate(number.AmountPrecision)
	if principal.Sign() < 0 || interest.Sign() < 0 {
		return core.ErrInvalidAmount
	}
	if principal.Add(interest).Sign() <= 0 {
		return core.ErrInvalidAmount
	}

	ok, err := s.capabilities.HasCapability(ctx, engineID, core.CapabilityInternal)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrOperationForbidden
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	vault, err := s.findVault(ctx)
	if err != nil {
		return err
	}

	allocation, err := s.vaults.FindAllocation(ctx, vault.ID, engineID)
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return core.ErrAllocationExceeded
		}
		return err
	}

	if allocation.Outstanding.LessThan(principal) {
		return core.ErrAllocationExceeded
	}

	allocation.Outstanding = allocation.Outstanding.Sub(principal)
	if err := s.vaults.SaveAllocation(ctx, tx, allocation); err != nil {
		return err
	}

	vault.TotalAllocated = vault.TotalAllocated.Sub(principal)
	vault.IdleBalance = vault.IdleBalance.Add(principal).Add(interest)
	if err := s.vaults.Update(ctx, tx, vault); err != nil {
		return err
	}

	transfer := &core.Transfer{
		TraceID: id.GenTraceID(),
		Kind:    core.TransferKindReturn,
		FromID:  engineID,
		ToID:    s.system.VaultAccount,
		AssetID: s.system.AssetID,
		Amount:  principal.Add(interest),
		Memo:    fmt.Sprintf("principal %s interest %s", principal, interest),
	}
	return s.transfers.Create(ctx, tx, transfer)
}

func (s *vaultService) AvailableLiquidity(ctx context.Context) (decimal.Decimal, error) {
	vault, err := s.findVault(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	return vault.IdleBalance, nil
}

func (s *vaultService) TotalManagedAssets(ctx context.Context) (decimal.Decimal, error) {
	vault, err := s.findVault(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	return vault.TotalManagedAssets(), nil
}

func (s *vaultService) Stats(ctx context.Context) (*core.VaultStats, error) {
	vault, err := s.findVault(ctx)
	if err != nil {
		return nil, err
	}

	if stats, err := s.stats.FindStats(ctx, vault.AssetID, vault.Version); err == nil {
		return stats, nil
	}

	price := number.One
	if vault.TotalShares.Sign() > 0 {
		price = number.DivFloor(vault.TotalManagedAssets(), vault.TotalShares, number.MathPrecision)
	}

	stats := &core.VaultStats{
		AssetID:            vault.AssetID,
		TotalShares:        vault.TotalShares,
		IdleBalance:        vault.IdleBalance,
		TotalAllocated:     vault.TotalAllocated,
		TotalManagedAssets: vault.TotalManagedAssets(),
		SharePrice:         price,
	}
	if err := s.stats.SaveStats(ctx, vault.AssetID, vault.Version, stats); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *vaultService) Positions(ctx context.Context, userID string) ([]*core.VaultPosition, error) {
	shares, err := s.shares.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	vaults, err := s.vaults.All(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint64]*core.Vault, len(vaults))
	for _, vault := range vaults {
		byID[vault.ID] = vault
	}

	positions := make([]*core.VaultPosition, 0, len(shares))
	for _, share := range shares {
		vault, ok := byID[share.VaultID]
		if !ok || share.Units.Sign() <= 0 {
			continue
		}

		value := share.Units
		if vault.TotalShares.Sign() > 0 {
			value = number.DivFloor(share.Units.Mul(vault.TotalManagedAssets()), vault.TotalShares, number.AmountPrecision)
		}

		positions = append(positions, &core.VaultPosition{
			AssetID: vault.AssetID,
			Units:   share.Units,
			Value:   value,
		})
	}

	return positions, nil
}

func (s *vaultService) Audit(ctx context.Context) ([]*core.VaultAudit, error) {
	vaults, err := s.vaults.All(ctx)
	if err != nil {
		return nil, err
	}

	audits := make([]*core.VaultAudit, 0, len(vaults))
	for _, vault := range vaults {
		sum, err := s.shares.SumOfUnits(ctx, vault.ID)
		if err != nil {
			return nil, err
		}

		allocations, err := s.vaults.Allocations(ctx, vault.ID)
		if err != nil {
			return nil, err
		}

		outstanding := decimal.Zero
		for _, allocation := range allocations {
			outstanding = outstanding.Add(allocation.Outstanding)
		}

		audits = append(audits, &core.VaultAudit{
			AssetID:        vault.AssetID,
			TotalShares:    vault.TotalShares,
			SharesDiff:     vault.TotalShares.Sub(sum),
			TotalAllocated: vault.TotalAllocated,
			AllocationDiff: vault.TotalAllocated.Sub(outstanding),
		})
	}

	return audits, nil
}

func (s *vaultService) findVault(ctx context.Context) (*core.Vault, error) {
	vault, err := s.vaults.Find(ctx, s.system.AssetID)
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, core.ErrVaultNotFound
		}
		return nil, err
	}

	return vault, nil
}
