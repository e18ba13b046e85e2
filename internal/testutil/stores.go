package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"termpool/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// VaultStore in-memory core.IVaultStore
type VaultStore struct {
	mux         sync.Mutex
	lastID      uint64
	vaults      map[string]*core.Vault
	allocations map[string]*core.Allocation
}

func NewVaultStore() *VaultStore {
	return &VaultStore{
		vaults:      make(map[string]*core.Vault),
		allocations: make(map[string]*core.Allocation),
	}
}

func (s *VaultStore) Create(ctx context.Context, tx *db.DB, vault *core.Vault) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if stored, ok := s.vaults[vault.AssetID]; ok {
		*vault = *stored
		return nil
	}

	s.lastID++
	vault.ID = s.lastID
	stored := *vault
	s.vaults[vault.AssetID] = &stored
	return nil
}

func (s *VaultStore) Find(ctx context.Context, assetID string) (*core.Vault, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	stored, ok := s.vaults[assetID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	vault := *stored
	return &vault, nil
}

func (s *VaultStore) All(ctx context.Context) ([]*core.Vault, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	vaults := make([]*core.Vault, 0, len(s.vaults))
	for _, stored := range s.vaults {
		vault := *stored
		vaults = append(vaults, &vault)
	}

	return vaults, nil
}

func (s *VaultStore) Update(ctx context.Context, tx *db.DB, vault *core.Vault) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	version := vault.Version
	vault.Version++

	stored, ok := s.vaults[vault.AssetID]
	if !ok || stored.ID != vault.ID || stored.Version != version {
		return db.ErrOptimisticLock
	}

	next := *vault
	s.vaults[vault.AssetID] = &next
	return nil
}

func (s *VaultStore) FindAllocation(ctx context.Context, vaultID uint64, engineID string) (*core.Allocation, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	stored, ok := s.allocations[allocationKey(vaultID, engineID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	allocation := *stored
	return &allocation, nil
}

func (s *VaultStore) SaveAllocation(ctx context.Context, tx *db.DB, allocation *core.Allocation) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	key := allocationKey(allocation.VaultID, allocation.EngineID)

	if allocation.ID == 0 {
		if stored, ok := s.allocations[key]; ok {
			*allocation = *stored
			return nil
		}

		s.lastID++
		allocation.ID = s.lastID
		stored := *allocation
		s.allocations[key] = &stored
		return nil
	}

	version := allocation.Version
	allocation.Version++

	stored, ok := s.allocations[key]
	if !ok || stored.Version != version {
		return db.ErrOptimisticLock
	}

	next := *allocation
	s.allocations[key] = &next
	return nil
}

func (s *VaultStore) Allocations(ctx context.Context, vaultID uint64) ([]*core.Allocation, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	allocations := make([]*core.Allocation, 0, len(s.allocations))
	for _, stored := range s.allocations {
		if stored.VaultID != vaultID {
			continue
		}

		allocation := *stored
		allocations = append(allocations, &allocation)
	}

	return allocations, nil
}

func allocationKey(vaultID uint64, engineID string) string {
	return fmt.Sprintf("%d:%s", vaultID, engineID)
}

// ShareStore in-memory core.IShareStore
type ShareStore struct {
	mux    sync.Mutex
	lastID uint64
	shares map[string]*core.Share
}

func NewShareStore() *ShareStore {
	return &ShareStore{shares: make(map[string]*core.Share)}
}

func (s *ShareStore) Save(ctx context.Context, tx *db.DB, share *core.Share) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	key := shareKey(share.VaultID, share.UserID)
	if stored, ok := s.shares[key]; ok {
		*share = *stored
		return nil
	}

	s.lastID++
	share.ID = s.lastID
	stored := *share
	s.shares[key] = &stored
	return nil
}

func (s *ShareStore) Find(ctx context.Context, vaultID uint64, userID string) (*core.Share, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	stored, ok := s.shares[shareKey(vaultID, userID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	share := *stored
	return &share, nil
}

func (s *ShareStore) FindByUser(ctx context.Context, userID string) ([]*core.Share, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	var shares []*core.Share
	for _, stored := range s.shares {
		if stored.UserID != userID {
			continue
		}

		share := *stored
		shares = append(shares, &share)
	}

	return shares, nil
}

func (s *ShareStore) Update(ctx context.Context, tx *db.DB, share *core.Share) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	version := share.Version
	share.Version++

	key := shareKey(share.VaultID, share.UserID)
	stored, ok := s.shares[key]
	if !ok || stored.Version != version {
		return db.ErrOptimisticLock
	}

	next := *share
	s.shares[key] = &next
	return nil
}

func (s *ShareStore) SumOfUnits(ctx context.Context, vaultID uint64) (decimal.Decimal, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	sum := decimal.Zero
	for _, stored := range s.shares {
		if stored.VaultID == vaultID {
			sum = sum.Add(stored.Units)
		}
	}

	return sum, nil
}

func shareKey(vaultID uint64, userID string) string {
	return fmt.Sprintf("%d:%s", vaultID, userID)
}

// LoanStore in-memory core.ILoanStore keyed by borrower
type LoanStore struct {
	mux    sync.Mutex
	lastID uint64
	loans  map[string]*core.Loan
}

func NewLoanStore() *LoanStore {
	return &LoanStore{loans: make(map[string]*core.Loan)}
}

func (s *LoanStore) Save(ctx context.Context, tx *db.DB, loan *core.Loan) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if stored, ok := s.loans[loan.BorrowerID]; ok {
		*loan = *stored
		return nil
	}

	s.lastID++
	loan.ID = s.lastID
	stored := *loan
	s.loans[loan.BorrowerID] = &stored
	return nil
}

func (s *LoanStore) Find(ctx context.Context, borrowerID string) (*core.Loan, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	stored, ok := s.loans[borrowerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	loan := *stored
	return &loan, nil
}

func (s *LoanStore) Update(ctx context.Context, tx *db.DB, loan *core.Loan) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	version := loan.Version
	loan.Version++

	stored, ok := s.loans[loan.BorrowerID]
	if !ok || stored.ID != loan.ID || stored.Version != version {
		return db.ErrOptimisticLock
	}

	next := *loan
	s.loans[loan.BorrowerID] = &next
	return nil
}

func (s *LoanStore) ListActive(ctx context.Context) ([]*core.Loan, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	var loans []*core.Loan
	for _, stored := range s.loans {
		if !stored.Active {
			continue
		}

		loan := *stored
		loans = append(loans, &loan)
	}

	return loans, nil
}

// RequestStore in-memory core.IRequestStore
type RequestStore struct {
	mux      sync.Mutex
	lastID   uint64
	requests map[uint64]*core.BorrowRequest
	traces   map[string]uint64
}

func NewRequestStore() *RequestStore {
	return &RequestStore{
		requests: make(map[uint64]*core.BorrowRequest),
		traces:   make(map[string]uint64),
	}
}

func (s *RequestStore) Create(ctx context.Context, tx *db.DB, request *core.BorrowRequest) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if id, ok := s.traces[request.TraceID]; ok {
		*request = *s.requests[id]
		return nil
	}

	s.lastID++
	request.ID = s.lastID
	stored := *request
	stored.Voters = append(pq.StringArray{}, request.Voters...)
	s.requests[request.ID] = &stored
	s.traces[request.TraceID] = request.ID
	return nil
}

func (s *RequestStore) Find(ctx context.Context, id uint64) (*core.BorrowRequest, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	stored, ok := s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	request := *stored
	request.Voters = append(pq.StringArray{}, stored.Voters...)
	return &request, nil
}

func (s *RequestStore) Update(ctx context.Context, tx *db.DB, request *core.BorrowRequest) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	version := request.Version
	request.Version++

	stored, ok := s.requests[request.ID]
	if !ok || stored.Version != version {
		return db.ErrOptimisticLock
	}

	next := *request
	next.Voters = append(pq.StringArray{}, request.Voters...)
	s.requests[request.ID] = &next
	return nil
}

func (s *RequestStore) List(ctx context.Context, fromID uint64, limit int) ([]*core.BorrowRequest, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	var requests []*core.BorrowRequest
	for id := fromID + 1; id <= s.lastID && len(requests) < limit; id++ {
		if stored, ok := s.requests[id]; ok {
			request := *stored
			request.Voters = append(pq.StringArray{}, stored.Voters...)
			requests = append(requests, &request)
		}
	}

	return requests, nil
}

// PaymentStore in-memory core.IPaymentStore
type PaymentStore struct {
	mux     sync.Mutex
	lastID  uint64
	records []*core.PaymentRecord
}

func NewPaymentStore() *PaymentStore {
	return &PaymentStore{}
}

func (s *PaymentStore) Create(ctx context.Context, tx *db.DB, record *core.PaymentRecord) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	s.lastID++
	record.ID = s.lastID
	stored := *record
	s.records = append(s.records, &stored)
	return nil
}

func (s *PaymentStore) ListByBorrower(ctx context.Context, borrowerID string, fromID uint64, limit int) ([]*core.PaymentRecord, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	var records []*core.PaymentRecord
	for _, stored := range s.records {
		if stored.BorrowerID != borrowerID || stored.ID <= fromID {
			continue
		}

		record := *stored
		records = append(records, &record)
		if len(records) >= limit {
			break
		}
	}

	return records, nil
}

func (s *PaymentStore) CountByLoan(ctx context.Context, loanID uint64) (int64, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	var count int64
	for _, stored := range s.records {
		if stored.LoanID == loanID {
			count++
		}
	}

	return count, nil
}

// DebtStore in-memory core.IDebtStore
type DebtStore struct {
	mux      sync.Mutex
	balances map[string]decimal.Decimal
}

func NewDebtStore() *DebtStore {
	return &DebtStore{balances: make(map[string]decimal.Decimal)}
}

func (s *DebtStore) Mint(ctx context.Context, tx *db.DB, borrowerID string, amount decimal.Decimal) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	s.balances[borrowerID] = s.balances[borrowerID].Add(amount)
	return nil
}

func (s *DebtStore) Burn(ctx context.Context, tx *db.DB, borrowerID string, amount decimal.Decimal) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	balance := s.balances[borrowerID]
	if balance.LessThan(amount) {
		return core.ErrDebtUnderflow
	}

	s.balances[borrowerID] = balance.Sub(amount)
	return nil
}

func (s *DebtStore) BurnAll(ctx context.Context, tx *db.DB, borrowerID string) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	s.balances[borrowerID] = decimal.Zero
	return nil
}

func (s *DebtStore) Balance(ctx context.Context, borrowerID string) (decimal.Decimal, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	return s.balances[borrowerID], nil
}

func (s *DebtStore) Sum(ctx context.Context) (decimal.Decimal, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	sum := decimal.Zero
	for _, balance := range s.balances {
		sum = sum.Add(balance)
	}

	return sum, nil
}

// TokenStore in-memory core.ITokenStore
type TokenStore struct {
	mux      sync.Mutex
	lastID   uint64
	accounts map[string]*core.Account
}

func NewTokenStore() *TokenStore {
	return &TokenStore{accounts: make(map[string]*core.Account)}
}

func (s *TokenStore) Save(ctx context.Context, tx *db.DB, account *core.Account) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	key := accountKey(account.UserID, account.AssetID)
	if stored, ok := s.accounts[key]; ok {
		*account = *stored
		return nil
	}

	s.lastID++
	account.ID = s.lastID
	stored := *account
	s.accounts[key] = &stored
	return nil
}

func (s *TokenStore) Find(ctx context.Context, userID, assetID string) (*core.Account, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	stored, ok := s.accounts[accountKey(userID, assetID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	account := *stored
	return &account, nil
}

func (s *TokenStore) Update(ctx context.Context, tx *db.DB, account *core.Account) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	version := account.Version
	account.Version++

	key := accountKey(account.UserID, account.AssetID)
	stored, ok := s.accounts[key]
	if !ok || stored.Version != version {
		return db.ErrOptimisticLock
	}

	next := *account
	s.accounts[key] = &next
	return nil
}

func accountKey(userID, assetID string) string {
	return userID + ":" + assetID
}

// CapabilityStore in-memory core.ICapabilityStore
type CapabilityStore struct {
	mux    sync.Mutex
	lastID uint64
	grants map[string]*core.CapabilityGrant
}

func NewCapabilityStore() *CapabilityStore {
	return &CapabilityStore{grants: make(map[string]*core.CapabilityGrant)}
}

func (s *CapabilityStore) Grant(ctx context.Context, grant *core.CapabilityGrant) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	key := grantKey(grant.UserID, grant.Capability)
	if stored, ok := s.grants[key]; ok {
		*grant = *stored
		return nil
	}

	s.lastID++
	grant.ID = s.lastID
	stored := *grant
	s.grants[key] = &stored
	return nil
}

func (s *CapabilityStore) Revoke(ctx context.Context, userID string, capability core.Capability) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	delete(s.grants, grantKey(userID, capability))
	return nil
}

func (s *CapabilityStore) Find(ctx context.Context, userID string, capability core.Capability) (*core.CapabilityGrant, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	stored, ok := s.grants[grantKey(userID, capability)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	grant := *stored
	return &grant, nil
}

func (s *CapabilityStore) ListUsers(ctx context.Context, capability core.Capability) ([]string, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	var users []string
	for _, stored := range s.grants {
		if stored.Capability == capability {
			users = append(users, stored.UserID)
		}
	}

	return users, nil
}

func grantKey(userID string, capability core.Capability) string {
	return userID + ":" + string(capability)
}

// TransferStore in-memory core.ITransferStore
type TransferStore struct {
	mux       sync.Mutex
	lastID    uint64
	transfers []*core.Transfer
	traces    map[string]bool
}

func NewTransferStore() *TransferStore {
	return &TransferStore{traces: make(map[string]bool)}
}

func (s *TransferStore) Create(ctx context.Context, tx *db.DB, transfer *core.Transfer) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.traces[transfer.TraceID] {
		return nil
	}

	s.lastID++
	transfer.ID = s.lastID
	stored := *transfer
	s.transfers = append(s.transfers, &stored)
	s.traces[transfer.TraceID] = true
	return nil
}

func (s *TransferStore) List(ctx context.Context, fromID uint64, limit int) ([]*core.Transfer, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	var transfers []*core.Transfer
	for _, stored := range s.transfers {
		if stored.ID <= fromID {
			continue
		}

		transfer := *stored
		transfers = append(transfers, &transfer)
		if len(transfers) >= limit {
			break
		}
	}

	return transfers, nil
}

// MessageStore in-memory core.IMessageStore
type MessageStore struct {
	mux      sync.Mutex
	lastID   uint64
	messages []*core.Message
	traces   map[string]bool
}

func NewMessageStore() *MessageStore {
	return &MessageStore{traces: make(map[string]bool)}
}

func (s *MessageStore) Create(ctx context.Context, tx *db.DB, messages []*core.Message) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	for _, msg := range messages {
		if s.traces[msg.MessageID] {
			continue
		}

		s.lastID++
		msg.ID = s.lastID
		stored := *msg
		s.messages = append(s.messages, &stored)
		s.traces[msg.MessageID] = true
	}

	return nil
}

func (s *MessageStore) List(ctx context.Context, limit int) ([]*core.Message, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	var messages []*core.Message
	for _, stored := range s.messages {
		msg := *stored
		messages = append(messages, &msg)
		if len(messages) >= limit {
			break
		}
	}

	return messages, nil
}

func (s *MessageStore) Delete(ctx context.Context, messages []*core.Message) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	drop := make(map[uint64]bool, len(messages))
	for _, msg := range messages {
		drop[msg.ID] = true
	}

	kept := s.messages[:0]
	for _, stored := range s.messages {
		if !drop[stored.ID] {
			kept = append(kept, stored)
		}
	}
	s.messages = kept
	return nil
}

// StatsStore in-memory core.IStatsStore
type StatsStore struct {
	mux   sync.Mutex
	stats map[string]*core.VaultStats
}

func NewStatsStore() *StatsStore {
	return &StatsStore{stats: make(map[string]*core.VaultStats)}
}

func (s *StatsStore) SaveStats(ctx context.Context, assetID string, version int64, stats *core.VaultStats) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	key := statsKey(assetID, version)
	if _, ok := s.stats[key]; !ok {
		stored := *stats
		s.stats[key] = &stored
	}

	return nil
}

func (s *StatsStore) FindStats(ctx context.Context, assetID string, version int64) (*core.VaultStats, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	stored, ok := s.stats[statsKey(assetID, version)]
	if !ok {
		return nil, errStatsMiss
	}

	stats := *stored
	return &stats, nil
}

func statsKey(assetID string, version int64) string {
	return fmt.Sprintf("%s:%d", assetID, version)
}

var errStatsMiss = errors.New("stats cache miss")

// ParamStore in-memory core.IParamStore
type ParamStore struct {
	mux    sync.Mutex
	lastID uint64
	params map[string]*core.EngineParams
	logs   []*core.ParamChange
}

func NewParamStore() *ParamStore {
	return &ParamStore{params: make(map[string]*core.EngineParams)}
}

func (s *ParamStore) Save(ctx context.Context, tx *db.DB, params *core.EngineParams) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if stored, ok := s.params[params.EngineID]; ok {
		*params = *stored
		return nil
	}

	s.lastID++
	params.ID = s.lastID
	stored := *params
	s.params[params.EngineID] = &stored
	return nil
}

func (s *ParamStore) Find(ctx context.Context, engineID string) (*core.EngineParams, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	stored, ok := s.params[engineID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	params := *stored
	return &params, nil
}

func (s *ParamStore) Update(ctx context.Context, tx *db.DB, params *core.EngineParams) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	version := params.Version
	params.Version++

	stored, ok := s.params[params.EngineID]
	if !ok || stored.Version != version {
		return db.ErrOptimisticLock
	}

	next := *params
	s.params[params.EngineID] = &next
	return nil
}

func (s *ParamStore) CreateLog(ctx context.Context, tx *db.DB, change *core.ParamChange) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	s.lastID++
	change.ID = s.lastID
	stored := *change
	s.logs = append(s.logs, &stored)
	return nil
}

func (s *ParamStore) ListLogs(ctx context.Context, engineID string, limit int) ([]*core.ParamChange, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	var logs []*core.ParamChange
	for _, stored := range s.logs {
		if stored.EngineID != engineID {
			continue
		}

		change := *stored
		logs = append(logs, &change)
		if len(logs) >= limit {
			break
		}
	}

	return logs, nil
}
