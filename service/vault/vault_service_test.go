package vault

import (
	"context"
	"testing"

	"termpool/core"
	"termpool/internal/testutil"
	"termpool/pkg/number"
	"termpool/service/capability"
	"termpool/service/token"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAsset         = "asset"
	testVaultAccount  = "vault-account"
	testEngineAccount = "engine-account"
)

type vaultEnv struct {
	gate      *testutil.Gate
	vaults    *testutil.VaultStore
	shares    *testutil.ShareStore
	stats     *testutil.StatsStore
	transfers *testutil.TransferStore
	tokenz    core.ITokenService
	vaultz    core.IVaultService
}

func newVaultEnv(t *testing.T) *vaultEnv {
	ctx := context.Background()

	system := &core.System{
		AssetID:       testAsset,
		VaultAccount:  testVaultAccount,
		EngineAccount: testEngineAccount,
	}

	env := &vaultEnv{
		gate:      &testutil.Gate{},
		vaults:    testutil.NewVaultStore(),
		shares:    testutil.NewShareStore(),
		stats:     testutil.NewStatsStore(),
		transfers: testutil.NewTransferStore(),
	}

	capabilities := testutil.NewCapabilityStore()
	require.NoError(t, capabilities.Grant(ctx, &core.CapabilityGrant{
		UserID:     testEngineAccount,
		Capability: core.CapabilityInternal,
	}))

	env.tokenz = token.New(system, testutil.NewTokenStore())
	env.vaultz = New(testutil.DB{}, system, env.gate, env.vaults, env.shares, env.stats, env.transfers, env.tokenz, capability.New(system, capabilities))

	require.NoError(t, env.vaults.Create(ctx, nil, &core.Vault{AssetID: testAsset}))
	return env
}

func (env *vaultEnv) deposit(t *testing.T, userID, amount string) decimal.Decimal {
	ctx := context.Background()

	require.NoError(t, env.tokenz.Credit(ctx, nil, userID, number.Decimal(amount)))
	units, err := env.vaultz.Deposit(ctx, userID, number.Decimal(amount))
	require.NoError(t, err)
	return units
}

func TestDepositMintsShares(t *testing.T) {
	ctx := context.Background()
	env := newVaultEnv(t)

	// the first deposit mints one unit per asset
	units := env.deposit(t, "alice", "10000")
	assert.Equal(t, "10000", units.String())

	vault, err := env.vaults.Find(ctx, testAsset)
	require.NoError(t, err)
	assert.Equal(t, "10000", vault.TotalShares.String())
	assert.Equal(t, "10000", vault.IdleBalance.String())

	balance, err := env.tokenz.Balance(ctx, testVaultAccount)
	require.NoError(t, err)
	assert.Equal(t, "10000", balance.String())

	_, err = env.vaultz.Deposit(ctx, "alice", decimal.Zero)
	assert.Equal(t, core.ErrInvalidAmount, err)

	// unfunded depositor
	_, err = env.vaultz.Deposit(ctx, "mallory", number.Decimal("100"))
	assert.Equal(t, core.ErrInsufficientBalance, err)
}

func TestDepositWithoutVault(t *testing.T) {
	ctx := context.Background()

	system := &core.System{AssetID: testAsset, VaultAccount: testVaultAccount}
	tokenz := token.New(system, testutil.NewTokenStore())
	vaultz := New(testutil.DB{}, system, &testutil.Gate{}, testutil.NewVaultStore(), testutil.NewShareStore(), testutil.NewStatsStore(), testutil.NewTransferStore(), tokenz, capability.New(system, testutil.NewCapabilityStore()))

	require.NoError(t, tokenz.Credit(ctx, nil, "alice", number.Decimal("100")))
	_, err := vaultz.Deposit(ctx, "alice", number.Decimal("100"))
	assert.Equal(t, core.ErrVaultNotFound, err)
}

func TestDepositPricesAtShareValue(t *testing.T) {
	ctx := context.Background()
	env := newVaultEnv(t)

	env.deposit(t, "alice", "10000")

	// yield arrives: 5000 drawn, 5000 principal plus 500 interest back
	require.NoError(t, env.vaultz.Allocate(ctx, nil, testEngineAccount, number.Decimal("5000")))
	require.NoError(t, env.vaultz.Return(ctx, nil, testEngineAccount, number.Decimal("5000"), number.Decimal("500")))

	managed, err := env.vaultz.TotalManagedAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10500", managed.String())

	// 1050 buys 1000 units at the risen price
	units := env.deposit(t, "bob", "1050")
	assert.Equal(t, "1000", units.String())

	// alice redeems everything at the same price, bob is not diluted
	amount, err := env.vaultz.Withdraw(ctx, "alice", "", number.Decimal("10000"))
	require.NoError(t, err)
	assert.Equal(t, "10500", amount.String())

	vault, err := env.vaults.Find(ctx, testAsset)
	require.NoError(t, err)
	assert.Equal(t, "1000", vault.TotalShares.String())
	assert.Equal(t, "1050", vault.IdleBalance.String())
}

func TestWithdrawCapsAtIdle(t *testing.T) {
	ctx := context.Background()
	env := newVaultEnv(t)

	env.deposit(t, "alice", "100000")
	require.NoError(t, env.vaultz.Allocate(ctx, nil, testEngineAccount, number.Decimal("60000")))

	// units worth 50000 with only 40000 idle: serve the idle balance
	// and burn only the units it is worth
	amount, err := env.vaultz.Withdraw(ctx, "alice", "", number.Decimal("50000"))
	require.NoError(t, err)
	assert.Equal(t, "40000", amount.String())

	share, err := env.shares.Find(ctx, 1, "alice")
	require.NoError(t, err)
	assert.Equal(t, "60000", share.Units.String())

	vault, err := env.vaults.Find(ctx, testAsset)
	require.NoError(t, err)
	assert.True(t, vault.IdleBalance.IsZero())
	assert.Equal(t, "60000", vault.TotalAllocated.String())

	// nothing idle is left to serve
	_, err = env.vaultz.Withdraw(ctx, "alice", "", number.Decimal("1000"))
	assert.Equal(t, core.ErrInsufficientLiquidity, err)
}

func TestWithdrawGuards(t *testing.T) {
	ctx := context.Background()
	env := newVaultEnv(t)

	env.deposit(t, "alice", "1000")

	_, err := env.vaultz.Withdraw(ctx, "alice", "", number.Decimal("2000"))
	assert.Equal(t, core.ErrInsufficientShares, err)

	// no share row at all
	_, err = env.vaultz.Withdraw(ctx, "bob", "", number.Decimal("1"))
	assert.Equal(t, core.ErrInsufficientShares, err)

	_, err = env.vaultz.Withdraw(ctx, "alice", "", decimal.Zero)
	assert.Equal(t, core.ErrInvalidAmount, err)
}

func TestWithdrawToRecipient(t *testing.T) {
	ctx := context.Background()
	env := newVaultEnv(t)

	env.deposit(t, "alice", "1000")

	amount, err := env.vaultz.Withdraw(ctx, "alice", "dave", number.Decimal("400"))
	require.NoError(t, err)
	assert.Equal(t, "400", amount.String())

	balance, err := env.tokenz.Balance(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, "400", balance.String())
}

func TestAllocateGuards(t *testing.T) {
	ctx := context.Background()
	env := newVaultEnv(t)

	env.deposit(t, "alice", "1000")

	err := env.vaultz.Allocate(ctx, nil, testEngineAccount, number.Decimal("2000"))
	assert.Equal(t, core.ErrInsufficientLiquidity, err)

	err = env.vaultz.Allocate(ctx, nil, "rogue-engine", number.Decimal("100"))
	assert.Equal(t, core.ErrOperationForbidden, err)

	err = env.vaultz.Allocate(ctx, nil, testEngineAccount, decimal.Zero)
	assert.Equal(t, core.ErrInvalidAmount, err)
}

func TestReturnGuards(t *testing.T) {
	ctx := context.Background()
	env := newVaultEnv(t)

	env.deposit(t, "alice", "1000")
	require.NoError(t, env.vaultz.Allocate(ctx, nil, testEngineAccount, number.Decimal("500")))

	err := env.vaultz.Return(ctx, nil, testEngineAccount, number.Decimal("600"), decimal.Zero)
	assert.Equal(t, core.ErrAllocationExceeded, err)

	err = env.vaultz.Return(ctx, nil, testEngineAccount, decimal.Zero, decimal.Zero)
	assert.Equal(t, core.ErrInvalidAmount, err)

	err = env.vaultz.Return(ctx, nil, "rogue-engine", number.Decimal("100"), decimal.Zero)
	assert.Equal(t, core.ErrOperationForbidden, err)

	// interest alone flows in without reducing the draw
	require.NoError(t, env.vaultz.Return(ctx, nil, testEngineAccount, decimal.Zero, number.Decimal("5")))

	vault, err := env.vaults.Find(ctx, testAsset)
	require.NoError(t, err)
	assert.Equal(t, "505", vault.IdleBalance.String())
	assert.Equal(t, "500", vault.TotalAllocated.String())
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	env := newVaultEnv(t)

	env.deposit(t, "alice", "10000")
	require.NoError(t, env.vaultz.Allocate(ctx, nil, testEngineAccount, number.Decimal("5000")))
	require.NoError(t, env.vaultz.Return(ctx, nil, testEngineAccount, number.Decimal("5000"), number.Decimal("500")))

	stats, err := env.vaultz.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, testAsset, stats.AssetID)
	assert.Equal(t, "10000", stats.TotalShares.String())
	assert.Equal(t, "10500", stats.IdleBalance.String())
	assert.True(t, stats.TotalAllocated.IsZero())
	assert.Equal(t, "10500", stats.TotalManagedAssets.String())
	assert.Equal(t, "1.05", stats.SharePrice.String())

	// memoized under the current vault version
	vault, err := env.vaults.Find(ctx, testAsset)
	require.NoError(t, err)
	cached, err := env.stats.FindStats(ctx, testAsset, vault.Version)
	require.NoError(t, err)
	assert.Equal(t, stats.SharePrice.String(), cached.SharePrice.String())

	again, err := env.vaultz.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats.TotalManagedAssets.String(), again.TotalManagedAssets.String())
}

func TestPositions(t *testing.T) {
	ctx := context.Background()
	env := newVaultEnv(t)

	env.deposit(t, "alice", "10000")

	// yield raises the share price to 1.05
	require.NoError(t, env.vaultz.Allocate(ctx, nil, testEngineAccount, number.Decimal("5000")))
	require.NoError(t, env.vaultz.Return(ctx, nil, testEngineAccount, number.Decimal("5000"), number.Decimal("500")))

	positions, err := env.vaultz.Positions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, testAsset, positions[0].AssetID)
	assert.Equal(t, "10000", positions[0].Units.String())
	assert.Equal(t, "10500", positions[0].Value.String())

	// no holdings, no rows
	positions, err = env.vaultz.Positions(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestAudit(t *testing.T) {
	ctx := context.Background()
	env := newVaultEnv(t)

	env.deposit(t, "alice", "10000")
	env.deposit(t, "bob", "5000")
	require.NoError(t, env.vaultz.Allocate(ctx, nil, testEngineAccount, number.Decimal("4000")))

	audits, err := env.vaultz.Audit(ctx)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, testAsset, audits[0].AssetID)
	assert.Equal(t, "15000", audits[0].TotalShares.String())
	assert.Equal(t, "4000", audits[0].TotalAllocated.String())
	assert.True(t, audits[0].Balanced())

	// a share row drifting from the vault totals shows up as a diff
	share, err := env.shares.Find(ctx, 1, "bob")
	require.NoError(t, err)
	share.Units = share.Units.Sub(number.Decimal("1"))
	require.NoError(t, env.shares.Update(ctx, nil, share))

	audits, err = env.vaultz.Audit(ctx)
	require.NoError(t, err)
	assert.False(t, audits[0].Balanced())
	assert.Equal(t, "1", audits[0].SharesDiff.String())
	assert.True(t, audits[0].AllocationDiff.IsZero())
}

func TestVaultGates(t *testing.T) {
	ctx := context.Background()
	env := newVaultEnv(t)

	env.deposit(t, "alice", "1000")

	require.NoError(t, env.gate.Suspend(ctx, core.OSDeposit))
	require.NoError(t, env.tokenz.Credit(ctx, nil, "alice", number.Decimal("100")))
	_, err := env.vaultz.Deposit(ctx, "alice", number.Decimal("100"))
	assert.Equal(t, core.ErrSystemPaused, err)

	require.NoError(t, env.gate.Suspend(ctx, core.OSWithdraw))
	_, err = env.vaultz.Withdraw(ctx, "alice", "", number.Decimal("100"))
	assert.Equal(t, core.ErrSystemPaused, err)

	require.NoError(t, env.gate.Resume(ctx, core.OSDeposit))
	_, err = env.vaultz.Deposit(ctx, "alice", number.Decimal("100"))
	assert.NoError(t, err)
}