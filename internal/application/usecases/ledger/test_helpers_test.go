package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Haleralex/coinvault/internal/application/ports"
	"github.com/Haleralex/coinvault/internal/domain/entities"
	domainErrors "github.com/Haleralex/coinvault/internal/domain/errors"
	"github.com/Haleralex/coinvault/internal/domain/events"
	"github.com/Haleralex/coinvault/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// ============================================
// Function-field mocks for the repository ports
// ============================================

type mockTransactionRepo struct {
	insertFunc               func(ctx context.Context, tx *entities.Transaction) error
	findByIDFunc             func(ctx context.Context, id uuid.UUID) (*entities.Transaction, error)
	findByIdempotencyKeyFunc func(ctx context.Context, key string) (*entities.Transaction, error)
}

func (m *mockTransactionRepo) Insert(ctx context.Context, tx *entities.Transaction) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, tx)
	}
	return nil
}

func (m *mockTransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockTransactionRepo) FindByIdempotencyKey(ctx context.Context, key string) (*entities.Transaction, error) {
	if m.findByIdempotencyKeyFunc != nil {
		return m.findByIdempotencyKeyFunc(ctx, key)
	}
	return nil, domainErrors.ErrEntityNotFound
}

type mockWalletRepo struct {
	insertFunc              func(ctx context.Context, wallet *entities.Wallet) error
	findByIDFunc            func(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)
	findByOwnerAndAssetFunc func(ctx context.Context, ownerID string, ownerType entities.OwnerType, assetTypeID uuid.UUID) (*entities.Wallet, error)
	casFunc                 func(ctx context.Context, walletID uuid.UUID, newBalance valueobjects.Amount, expectedVersion int64) error
}

func (m *mockWalletRepo) Insert(ctx context.Context, wallet *entities.Wallet) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, wallet)
	}
	return nil
}

func (m *mockWalletRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockWalletRepo) FindByOwnerAndAsset(ctx context.Context, ownerID string, ownerType entities.OwnerType, assetTypeID uuid.UUID) (*entities.Wallet, error) {
	if m.findByOwnerAndAssetFunc != nil {
		return m.findByOwnerAndAssetFunc(ctx, ownerID, ownerType, assetTypeID)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockWalletRepo) FindByOwner(ctx context.Context, ownerID string, ownerType entities.OwnerType) ([]*entities.Wallet, error) {
	return nil, nil
}

func (m *mockWalletRepo) CompareAndSwapBalance(ctx context.Context, walletID uuid.UUID, newBalance valueobjects.Amount, expectedVersion int64) error {
	if m.casFunc != nil {
		return m.casFunc(ctx, walletID, newBalance, expectedVersion)
	}
	return nil
}

type mockEntryRepo struct {
	mu                    sync.Mutex
	appended              []*entities.LedgerEntry
	appendFunc            func(ctx context.Context, entry *entities.LedgerEntry) error
	findByTransactionFunc func(ctx context.Context, transactionID uuid.UUID) ([]*entities.LedgerEntry, error)
}

func (m *mockEntryRepo) Append(ctx context.Context, entry *entities.LedgerEntry) error {
	if m.appendFunc != nil {
		return m.appendFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appended = append(m.appended, entry)
	return nil
}

func (m *mockEntryRepo) FindByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*entities.LedgerEntry, error) {
	if m.findByTransactionFunc != nil {
		return m.findByTransactionFunc(ctx, transactionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entities.LedgerEntry
	for _, e := range m.appended {
		if e.TransactionID() == transactionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEntryRepo) FindByWallet(ctx context.Context, walletID uuid.UUID, offset, limit int) ([]*entities.LedgerEntry, error) {
	return nil, nil
}

func (m *mockEntryRepo) SumByWallet(ctx context.Context, walletID uuid.UUID) (valueobjects.Amount, valueobjects.Amount, error) {
	return valueobjects.ZeroAmount(), valueobjects.ZeroAmount(), nil
}

func (m *mockEntryRepo) CountByWallet(ctx context.Context, walletID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.appended {
		if e.WalletID() == walletID {
			n++
		}
	}
	return n, nil
}

func (m *mockEntryRepo) entries() []*entities.LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entities.LedgerEntry{}, m.appended...)
}

// ============================================
// In-memory lock manager (настоящая семантика SET NX + token)
// ============================================

type memoryLock struct {
	token   string
	expires time.Time
}

type memoryLockManager struct {
	mu      sync.Mutex
	locks   map[string]memoryLock
	counter int64
}

func newMemoryLockManager() *memoryLockManager {
	return &memoryLockManager{locks: make(map[string]memoryLock)}
}

func (m *memoryLockManager) Acquire(ctx context.Context, name string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if held, ok := m.locks[name]; ok && time.Now().Before(held.expires) {
		return "", nil
	}

	m.counter++
	token := fmt.Sprintf("tok-%d", m.counter)
	m.locks[name] = memoryLock{token: token, expires: time.Now().Add(ttl)}
	return token, nil
}

func (m *memoryLockManager) Release(ctx context.Context, name, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if held, ok := m.locks[name]; ok && held.token == token {
		delete(m.locks, name)
	}
	return nil
}

func (m *memoryLockManager) Extend(ctx context.Context, name, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if held, ok := m.locks[name]; ok && held.token == token {
		held.expires = time.Now().Add(ttl)
		m.locks[name] = held
	}
	return nil
}

// recordingLockManager записывает порядок захватов/освобождений.
type recordingLockManager struct {
	inner    ports.LockManager
	mu       sync.Mutex
	acquired []string
	released []string
	denyKeys map[string]int // key -> сколько раз отказать
}

func newRecordingLockManager() *recordingLockManager {
	return &recordingLockManager{
		inner:    newMemoryLockManager(),
		denyKeys: make(map[string]int),
	}
}

func (m *recordingLockManager) Acquire(ctx context.Context, name string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	if left, ok := m.denyKeys[name]; ok && left > 0 {
		m.denyKeys[name] = left - 1
		m.mu.Unlock()
		return "", nil
	}
	m.mu.Unlock()

	token, err := m.inner.Acquire(ctx, name, ttl)
	if err == nil && token != "" {
		m.mu.Lock()
		m.acquired = append(m.acquired, name)
		m.mu.Unlock()
	}
	return token, err
}

func (m *recordingLockManager) Release(ctx context.Context, name, token string) error {
	m.mu.Lock()
	m.released = append(m.released, name)
	m.mu.Unlock()
	return m.inner.Release(ctx, name, token)
}

func (m *recordingLockManager) Extend(ctx context.Context, name, token string, ttl time.Duration) error {
	return m.inner.Extend(ctx, name, token, ttl)
}

func (m *recordingLockManager) acquireOrder() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.acquired...)
}

func (m *recordingLockManager) releaseOrder() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.released...)
}

// ============================================
// In-memory idempotency store
// ============================================

type memoryIdempotencyStore struct {
	mu      sync.Mutex
	records map[string]ports.IdempotencyRecord
	ttls    map[string]time.Duration
	claims  map[string]time.Time

	checkErr error
	claimErr error
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{
		records: make(map[string]ports.IdempotencyRecord),
		ttls:    make(map[string]time.Duration),
		claims:  make(map[string]time.Time),
	}
}

func (m *memoryIdempotencyStore) Check(ctx context.Context, key string) (ports.IdempotencyRecord, bool, error) {
	if m.checkErr != nil {
		return ports.IdempotencyRecord{}, false, m.checkErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[key]
	return record, ok, nil
}

func (m *memoryIdempotencyStore) Store(ctx context.Context, key string, record ports.IdempotencyRecord, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = record
	m.ttls[key] = ttl
	return nil
}

func (m *memoryIdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.claimErr != nil {
		return false, m.claimErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if expires, ok := m.claims[key]; ok && time.Now().Before(expires) {
		return false, nil
	}
	m.claims[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *memoryIdempotencyStore) Unclaim(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claims, key)
	return nil
}

func (m *memoryIdempotencyStore) storedRecord(key string) (ports.IdempotencyRecord, time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[key]
	return record, m.ttls[key], ok
}

func (m *memoryIdempotencyStore) isClaimed(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expires, ok := m.claims[key]
	return ok && time.Now().Before(expires)
}

// ============================================
// Pass-through unit of work + event collector
// ============================================

type passthroughUoW struct {
	executeErr error
	calls      int
}

func (u *passthroughUoW) Execute(ctx context.Context, fn func(context.Context) error) error {
	u.calls++
	if u.executeErr != nil {
		return u.executeErr
	}
	return fn(ctx)
}

type collectingPublisher struct {
	mu        sync.Mutex
	published []events.DomainEvent
	publishFn func(ctx context.Context, event events.DomainEvent) error
}

func (p *collectingPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	if p.publishFn != nil {
		return p.publishFn(ctx, event)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, event)
	return nil
}

func (p *collectingPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	for _, event := range evts {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (p *collectingPublisher) byType(eventType string) []events.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.DomainEvent
	for _, e := range p.published {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// ============================================
// In-memory wallet store с настоящей CAS-семантикой
// (для конкурентных сценариев)
// ============================================

type memoryWalletStore struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*entities.Wallet
}

func newMemoryWalletStore(wallets ...*entities.Wallet) *memoryWalletStore {
	s := &memoryWalletStore{wallets: make(map[uuid.UUID]*entities.Wallet)}
	for _, w := range wallets {
		s.wallets[w.ID()] = w
	}
	return s
}

func (s *memoryWalletStore) Insert(ctx context.Context, wallet *entities.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wallets[wallet.ID()]; ok {
		return domainErrors.ErrEntityAlreadyExists
	}
	s.wallets[wallet.ID()] = wallet
	return nil
}

func (s *memoryWalletStore) FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return nil, domainErrors.ErrEntityNotFound
	}
	// Snapshot: вызывающий мутирует свою копию, store - источник истины
	return entities.ReconstructWallet(
		w.ID(), w.OwnerID(), w.OwnerType(), w.AssetTypeID(),
		w.Balance(), w.Version(), w.CreatedAt(), w.UpdatedAt(),
	), nil
}

func (s *memoryWalletStore) FindByOwnerAndAsset(ctx context.Context, ownerID string, ownerType entities.OwnerType, assetTypeID uuid.UUID) (*entities.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wallets {
		if w.OwnerID() == ownerID && w.OwnerType() == ownerType && w.AssetTypeID() == assetTypeID {
			return entities.ReconstructWallet(
				w.ID(), w.OwnerID(), w.OwnerType(), w.AssetTypeID(),
				w.Balance(), w.Version(), w.CreatedAt(), w.UpdatedAt(),
			), nil
		}
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (s *memoryWalletStore) FindByOwner(ctx context.Context, ownerID string, ownerType entities.OwnerType) ([]*entities.Wallet, error) {
	return nil, nil
}

func (s *memoryWalletStore) CompareAndSwapBalance(ctx context.Context, walletID uuid.UUID, newBalance valueobjects.Amount, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return domainErrors.ErrEntityNotFound
	}
	if w.Version() != expectedVersion {
		return domainErrors.NewConcurrencyError("Wallet", walletID.String(), "version changed")
	}
	s.wallets[walletID] = entities.ReconstructWallet(
		w.ID(), w.OwnerID(), w.OwnerType(), w.AssetTypeID(),
		newBalance, expectedVersion+1, w.CreatedAt(), time.Now(),
	)
	return nil
}

func (s *memoryWalletStore) balanceOf(id uuid.UUID) valueobjects.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallets[id].Balance()
}

// testWallet создаёт кошелёк с заданным балансом и версией.
func testWallet(ownerID string, ownerType entities.OwnerType, assetTypeID uuid.UUID, balance string, version int64) *entities.Wallet {
	now := time.Now()
	return entities.ReconstructWallet(
		uuid.New(), ownerID, ownerType, assetTypeID,
		valueobjects.MustParseAmount(balance), version, now, now,
	)
}
