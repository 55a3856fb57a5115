package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
)

// ---- 内存仓储 ----
// Get 返回副本，Save 写回副本，模拟数据库读写隔离。

type memTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]domain.TokenStats
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: make(map[string]domain.TokenStats)}
}

func (r *memTokenRepo) Save(_ context.Context, token *domain.TokenStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Code] = *token
	return nil
}

func (r *memTokenRepo) GetByCode(_ context.Context, code string) (*domain.TokenStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[code]
	if !ok {
		return nil, nil
	}
	return &token, nil
}

func (r *memTokenRepo) GetByCodeForUpdate(ctx context.Context, code string) (*domain.TokenStats, error) {
	return r.GetByCode(ctx, code)
}

type balanceKey struct{ account, code string }

type memBalanceRepo struct {
	mu       sync.Mutex
	balances map[balanceKey]domain.AccountBalance
}

func newMemBalanceRepo() *memBalanceRepo {
	return &memBalanceRepo{balances: make(map[balanceKey]domain.AccountBalance)}
}

func (r *memBalanceRepo) Save(_ context.Context, balance *domain.AccountBalance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[balanceKey{balance.AccountID, balance.Code}] = *balance
	return nil
}

func (r *memBalanceRepo) Get(_ context.Context, accountID, code string) (*domain.AccountBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	balance, ok := r.balances[balanceKey{accountID, code}]
	if !ok {
		return nil, nil
	}
	return &balance, nil
}

func (r *memBalanceRepo) GetForUpdate(ctx context.Context, accountID, code string) (*domain.AccountBalance, error) {
	return r.Get(ctx, accountID, code)
}

func (r *memBalanceRepo) Delete(_ context.Context, balance *domain.AccountBalance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.balances, balanceKey{balance.AccountID, balance.Code})
	return nil
}

type memGrantRepo struct {
	mu       sync.Mutex
	grants   map[balanceKey][]domain.VestingGrant
	counters map[balanceKey]uint64
}

func newMemGrantRepo() *memGrantRepo {
	return &memGrantRepo{
		grants:   make(map[balanceKey][]domain.VestingGrant),
		counters: make(map[balanceKey]uint64),
	}
}

func (r *memGrantRepo) NextGrantID(_ context.Context, ownerID, code string) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := balanceKey{ownerID, code}
	r.counters[key]++
	return r.counters[key], nil
}

func (r *memGrantRepo) Append(_ context.Context, grant *domain.VestingGrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := balanceKey{grant.OwnerID, grant.Code}
	r.grants[key] = append(r.grants[key], *grant)
	return nil
}

func (r *memGrantRepo) ListByOwner(_ context.Context, ownerID, code string) ([]*domain.VestingGrant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.VestingGrant
	for _, grant := range r.grants[balanceKey{ownerID, code}] {
		g := grant
		out = append(out, &g)
	}
	return out, nil
}

func (r *memGrantRepo) ListMaturedForUpdate(_ context.Context, ownerID, code string, now time.Time) ([]*domain.VestingGrant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.VestingGrant
	for _, grant := range r.grants[balanceKey{ownerID, code}] {
		if grant.Matured(now) {
			g := grant
			out = append(out, &g)
		}
	}
	return out, nil
}

func (r *memGrantRepo) Delete(_ context.Context, grants []*domain.VestingGrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dead := range grants {
		key := balanceKey{dead.OwnerID, dead.Code}
		kept := r.grants[key][:0]
		for _, grant := range r.grants[key] {
			if grant.GrantID != dead.GrantID {
				kept = append(kept, grant)
			}
		}
		r.grants[key] = kept
	}
	return nil
}

type memEntryRepo struct {
	mu      sync.Mutex
	entries []domain.LedgerEntry
}

func (r *memEntryRepo) Save(_ context.Context, entries ...*domain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range entries {
		r.entries = append(r.entries, *entry)
	}
	return nil
}

func (r *memEntryRepo) List(_ context.Context, accountID, code string, limit, offset int) ([]*domain.LedgerEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.LedgerEntry
	for i := range r.entries {
		if r.entries[i].AccountID == accountID && r.entries[i].Code == code {
			matched = append(matched, &r.entries[i])
		}
	}
	total := int64(len(matched))
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

type passthroughTxm struct{}

func (passthroughTxm) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// actorAuth 行为与生产授权器一致：操作者必须等于目标主体
type actorAuth struct{}

func (actorAuth) Authorize(_ context.Context, actor, principal string) error {
	if actor == "" || actor != principal {
		return domain.ErrUnauthorized
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) PublishInTx(ctx context.Context, _ any, topic string, key string, event any) error {
	return p.Publish(ctx, topic, key, event)
}

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

// ---- 测试夹具 ----

type fixture struct {
	cmd      *LedgerCommands
	tokens   *memTokenRepo
	balances *memBalanceRepo
	grants   *memGrantRepo
	entries  *memEntryRepo
	events   *recordingPublisher
	clock    *fixedClock
}

const ledgerOwner = "ledger.owner"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tokens:   newMemTokenRepo(),
		balances: newMemBalanceRepo(),
		grants:   newMemGrantRepo(),
		entries:  &memEntryRepo{},
		events:   &recordingPublisher{},
		clock:    &fixedClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.cmd = NewLedgerCommands(
		f.tokens, f.balances, f.grants, f.entries,
		passthroughTxm{}, actorAuth{}, f.clock, f.events,
		ledgerOwner, testLogger(),
	)
	return f
}

func amt(t *testing.T, value string, precision uint8) domain.Amount {
	t.Helper()
	a, err := domain.AmountFromDecimal(decimal.RequireFromString(value), domain.Symbol{Code: "NEW", Precision: precision})
	require.NoError(t, err)
	return a
}

func (f *fixture) createNEW(t *testing.T, maxSupply string) {
	t.Helper()
	err := f.cmd.CreateSymbol(context.Background(), CreateSymbolCommand{
		Actor:     ledgerOwner,
		Issuer:    "issuer.acct",
		MaxSupply: amt(t, maxSupply, 4),
	})
	require.NoError(t, err)
}

func (f *fixture) balanceOf(t *testing.T, account string) *domain.AccountBalance {
	t.Helper()
	balance, err := f.balances.Get(context.Background(), account, "NEW")
	require.NoError(t, err)
	return balance
}

// ---- 创建代币 ----

func TestCreateSymbol(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "1000000")

	token, err := f.tokens.GetByCode(context.Background(), "NEW")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, int64(0), token.Supply)
	assert.Equal(t, "issuer.acct", token.Issuer)
	assert.Equal(t, []string{domain.TokenCreatedEventType}, f.events.topics)
}

func TestCreateSymbolDuplicate(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "1000000")

	err := f.cmd.CreateSymbol(context.Background(), CreateSymbolCommand{
		Actor:     ledgerOwner,
		Issuer:    "someone.else",
		MaxSupply: amt(t, "500", 4),
	})
	assert.ErrorIs(t, err, domain.ErrSymbolExists)
}

func TestCreateSymbolUnauthorized(t *testing.T) {
	f := newFixture(t)
	err := f.cmd.CreateSymbol(context.Background(), CreateSymbolCommand{
		Actor:     "issuer.acct", // 发行方无权创建，审批方是账本所有者
		Issuer:    "issuer.acct",
		MaxSupply: amt(t, "1000000", 4),
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// ---- 发行 ----

func TestIssueToIssuer(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "1000000")

	_, err := f.cmd.Issue(context.Background(), IssueCommand{
		Actor:    "issuer.acct",
		To:       "issuer.acct",
		Quantity: amt(t, "100.0000", 4),
		Memo:     "genesis",
	})
	require.NoError(t, err)

	token, _ := f.tokens.GetByCode(context.Background(), "NEW")
	assert.Equal(t, "100.0000 NEW", token.SupplyAmount().String())

	balance := f.balanceOf(t, "issuer.acct")
	require.NotNil(t, balance)
	assert.Equal(t, int64(1000000), balance.Balance)
	assert.Equal(t, int64(1000000), balance.Liquid)
	assert.Equal(t, []string{domain.TokenCreatedEventType, domain.TokensIssuedEventType}, f.events.topics)
}

func TestIssueToOtherAccount(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "1000000")

	_, err := f.cmd.Issue(context.Background(), IssueCommand{
		Actor:    "issuer.acct",
		To:       "alice",
		Quantity: amt(t, "100.0000", 4),
	})
	require.NoError(t, err)

	// 先入发行方账再内部转账，净结果全部落在受益人
	issuerBalance := f.balanceOf(t, "issuer.acct")
	assert.Nil(t, issuerBalance)

	aliceBalance := f.balanceOf(t, "alice")
	require.NotNil(t, aliceBalance)
	assert.Equal(t, int64(1000000), aliceBalance.Balance)
	assert.Equal(t, int64(1000000), aliceBalance.Liquid)

	assert.Contains(t, f.events.topics, domain.TokensIssuedEventType)
	assert.Contains(t, f.events.topics, domain.TransferredEventType)
}

func TestIssueSupplyCap(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "100")

	_, err := f.cmd.Issue(context.Background(), IssueCommand{
		Actor:    "issuer.acct",
		To:       "issuer.acct",
		Quantity: amt(t, "60", 4),
	})
	require.NoError(t, err)

	_, err = f.cmd.Issue(context.Background(), IssueCommand{
		Actor:    "issuer.acct",
		To:       "issuer.acct",
		Quantity: amt(t, "41", 4),
	})
	assert.ErrorIs(t, err, domain.ErrSupplyExceeded)

	token, _ := f.tokens.GetByCode(context.Background(), "NEW")
	assert.Equal(t, int64(600000), token.Supply)

	// 剩余额度正好用尽
	_, err = f.cmd.Issue(context.Background(), IssueCommand{
		Actor:    "issuer.acct",
		To:       "issuer.acct",
		Quantity: amt(t, "40", 4),
	})
	require.NoError(t, err)
}

func TestIssueUnknownSymbol(t *testing.T) {
	f := newFixture(t)
	_, err := f.cmd.Issue(context.Background(), IssueCommand{
		Actor:    "issuer.acct",
		To:       "issuer.acct",
		Quantity: amt(t, "10", 4),
	})
	assert.ErrorIs(t, err, domain.ErrUnknownSymbol)
}

func TestIssueRequiresIssuerAuthority(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "1000000")

	_, err := f.cmd.Issue(context.Background(), IssueCommand{
		Actor:    "alice",
		To:       "alice",
		Quantity: amt(t, "10", 4),
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestIssueMemoTooLong(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "1000000")

	_, err := f.cmd.Issue(context.Background(), IssueCommand{
		Actor:    "issuer.acct",
		To:       "issuer.acct",
		Quantity: amt(t, "10", 4),
		Memo:     string(make([]byte, domain.MaxMemoBytes+1)),
	})
	assert.ErrorIs(t, err, domain.ErrMemoTooLong)
}

// ---- 转账 ----

func issueTo(t *testing.T, f *fixture, account, quantity string) {
	t.Helper()
	_, err := f.cmd.Issue(context.Background(), IssueCommand{
		Actor:    "issuer.acct",
		To:       account,
		Quantity: amt(t, quantity, 4),
	})
	require.NoError(t, err)
}

func TestTransfer(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "1000000")
	issueTo(t, f, "alice", "100.0000")

	_, err := f.cmd.Transfer(context.Background(), TransferCommand{
		Actor:    "alice",
		From:     "alice",
		To:       "bob",
		Quantity: amt(t, "30.5000", 4),
		Memo:     "rent",
	})
	require.NoError(t, err)

	alice := f.balanceOf(t, "alice")
	require.NotNil(t, alice)
	assert.Equal(t, "69.5000 NEW", alice.BalanceAmount().String())
	assert.Equal(t, "69.5000 NEW", alice.LiquidAmount().String())

	bob := f.balanceOf(t, "bob")
	require.NotNil(t, bob)
	assert.Equal(t, "30.5000 NEW", bob.BalanceAmount().String())
	assert.Equal(t, "30.5000 NEW", bob.LiquidAmount().String())
}

func TestTransferRoundTripRestoresBalances(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "1000000")
	issueTo(t, f, "alice", "100.0000")
	issueTo(t, f, "bob", "50.0000")

	_, err := f.cmd.Transfer(context.Background(), TransferCommand{
		Actor:    "alice",
		From:     "alice",
		To:       "bob",
		Quantity: amt(t, "30.0000", 4),
	})
	require.NoError(t, err)

	_, err = f.cmd.Transfer(context.Background(), TransferCommand{
		Actor:    "bob",
		From:     "bob",
		To:       "alice",
		Quantity: amt(t, "30.0000", 4),
	})
	require.NoError(t, err)

	// 往返转账后双方余额精确复原
	alice := f.balanceOf(t, "alice")
	require.NotNil(t, alice)
	assert.Equal(t, int64(1000000), alice.Balance)
	assert.Equal(t, int64(1000000), alice.Liquid)

	bob := f.balanceOf(t, "bob")
	require.NotNil(t, bob)
	assert.Equal(t, int64(500000), bob.Balance)
	assert.Equal(t, int64(500000), bob.Liquid)
}

func TestTransferOverdrawLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "1000000")
	issueTo(t, f, "alice", "100")

	_, err := f.cmd.Transfer(context.Background(), TransferCommand{
		Actor:    "alice",
		From:     "alice",
		To:       "bob",
		Quantity: amt(t, "100.0001", 4),
		Memo:     "",
	})
	assert.ErrorIs(t, err, domain.ErrOverdrawn)

	alice := f.balanceOf(t, "alice")
	require.NotNil(t, alice)
	assert.Equal(t, int64(1000000), alice.Balance)
	assert.Nil(t, f.balanceOf(t, "bob"))
}

func TestTransferFromMissingBalance(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "1000000")

	_, err := f.cmd.Transfer(context.Background(), TransferCommand{
		Actor:    "ghost",
		From:     "ghost",
		To:       "bob",
		Quantity: amt(t, "1", 4),
	})
	assert.ErrorIs(t, err, domain.ErrOverdrawn)
}

func TestTransferSelf(t *testing.T) {
	f := newFixture(t)
	_, err := f.cmd.Transfer(context.Background(), TransferCommand{
		Actor:    "alice",
		From:     "alice",
		To:       "alice",
		Quantity: amt(t, "1", 4),
	})
	assert.ErrorIs(t, err, domain.ErrSelfTransfer)
}

func TestTransferRequiresSenderAuthority(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "1000000")
	issueTo(t, f, "alice", "100")

	_, err := f.cmd.Transfer(context.Background(), TransferCommand{
		Actor:    "bob",
		From:     "alice",
		To:       "bob",
		Quantity: amt(t, "1", 4),
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTransferFullBalanceDeletesRow(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "1000000")
	issueTo(t, f, "alice", "100")

	_, err := f.cmd.Transfer(context.Background(), TransferCommand{
		Actor:    "alice",
		From:     "alice",
		To:       "bob",
		Quantity: amt(t, "100", 4),
	})
	require.NoError(t, err)

	// 归零的余额记录被删除而非保留
	assert.Nil(t, f.balanceOf(t, "alice"))
	require.NotNil(t, f.balanceOf(t, "bob"))
}

func TestTransferSymbolMismatch(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "1000000")
	issueTo(t, f, "alice", "100")

	badPrecision, err := domain.AmountFromDecimal(decimal.RequireFromString("1"), domain.Symbol{Code: "NEW", Precision: 2})
	require.NoError(t, err)
	_, err = f.cmd.Transfer(context.Background(), TransferCommand{
		Actor:    "alice",
		From:     "alice",
		To:       "bob",
		Quantity: badPrecision,
	})
	assert.ErrorIs(t, err, domain.ErrSymbolMismatch)
}

// ---- 锁仓授予与解锁 ----

func TestGrantVesting(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "1000000")

	unlockAt := f.clock.now.Add(24 * time.Hour)
	grantID, err := f.cmd.GrantVesting(context.Background(), GrantVestingCommand{
		Actor:    "alice",
		From:     "alice",
		To:       "bob",
		Quantity: amt(t, "50.0000", 4),
		UnlockAt: unlockAt,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), grantID)

	// 授予只增加总余额，可用余额要等解锁
	bob := f.balanceOf(t, "bob")
	require.NotNil(t, bob)
	assert.Equal(t, "50.0000 NEW", bob.BalanceAmount().String())
	assert.Equal(t, "0.0000 NEW", bob.LiquidAmount().String())

	// 资金方余额不受影响
	assert.Nil(t, f.balanceOf(t, "alice"))

	// 序号在所有者集合内单调分配
	grantID, err = f.cmd.GrantVesting(context.Background(), GrantVestingCommand{
		Actor:    "alice",
		From:     "alice",
		To:       "bob",
		Quantity: amt(t, "10", 4),
		UnlockAt: unlockAt,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), grantID)

	grantID, err = f.cmd.GrantVesting(context.Background(), GrantVestingCommand{
		Actor:    "alice",
		From:     "alice",
		To:       "carol",
		Quantity: amt(t, "10", 4),
		UnlockAt: unlockAt,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), grantID)
}

func TestGrantVestingUnknownSymbol(t *testing.T) {
	f := newFixture(t)
	_, err := f.cmd.GrantVesting(context.Background(), GrantVestingCommand{
		Actor:    "alice",
		From:     "alice",
		To:       "bob",
		Quantity: amt(t, "10", 4),
		UnlockAt: f.clock.now.Add(time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrUnknownSymbol)
}

func TestUnlockMatured(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "1000000")

	grant := func(quantity string, unlockAt time.Time) {
		_, err := f.cmd.GrantVesting(context.Background(), GrantVestingCommand{
			Actor:    "alice",
			From:     "alice",
			To:       "bob",
			Quantity: amt(t, quantity, 4),
			UnlockAt: unlockAt,
		})
		require.NoError(t, err)
	}
	grant("30", f.clock.now.Add(-time.Hour))
	grant("20", f.clock.now.Add(-time.Minute))
	grant("50", f.clock.now.Add(time.Hour)) // 未到期

	unlocked, err := f.cmd.Unlock(context.Background(), UnlockCommand{
		Actor:  "bob",
		Owner:  "bob",
		Symbol: domain.Symbol{Code: "NEW", Precision: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, "50.0000 NEW", unlocked.String())

	bob := f.balanceOf(t, "bob")
	require.NotNil(t, bob)
	assert.Equal(t, "100.0000 NEW", bob.BalanceAmount().String())
	assert.Equal(t, "50.0000 NEW", bob.LiquidAmount().String())

	// 已到期的授予被删除，未到期的保留
	remaining, err := f.grants.ListByOwner(context.Background(), "bob", "NEW")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "50.0000 NEW", remaining[0].Quantity().String())
}

func TestUnlockNothingMaturedIsNoop(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "1000000")

	_, err := f.cmd.GrantVesting(context.Background(), GrantVestingCommand{
		Actor:    "alice",
		From:     "alice",
		To:       "bob",
		Quantity: amt(t, "10", 4),
		UnlockAt: f.clock.now.Add(time.Hour),
	})
	require.NoError(t, err)
	eventsBefore := len(f.events.topics)

	unlocked, err := f.cmd.Unlock(context.Background(), UnlockCommand{
		Actor:  "bob",
		Owner:  "bob",
		Symbol: domain.Symbol{Code: "NEW", Precision: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), unlocked.Units)
	assert.Len(t, f.events.topics, eventsBefore)

	bob := f.balanceOf(t, "bob")
	require.NotNil(t, bob)
	assert.Equal(t, int64(0), bob.Liquid)
}

func TestUnlockMaturityBoundary(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "1000000")

	unlockAt := f.clock.now.Add(time.Hour)
	_, err := f.cmd.GrantVesting(context.Background(), GrantVestingCommand{
		Actor:    "alice",
		From:     "alice",
		To:       "bob",
		Quantity: amt(t, "10", 4),
		UnlockAt: unlockAt,
	})
	require.NoError(t, err)

	// 到期前一秒不解锁
	f.clock.now = unlockAt.Add(-time.Second)
	unlocked, err := f.cmd.Unlock(context.Background(), UnlockCommand{
		Actor: "bob", Owner: "bob", Symbol: domain.Symbol{Code: "NEW", Precision: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), unlocked.Units)

	// 到期时刻本身解锁
	f.clock.now = unlockAt
	unlocked, err = f.cmd.Unlock(context.Background(), UnlockCommand{
		Actor: "bob", Owner: "bob", Symbol: domain.Symbol{Code: "NEW", Precision: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, "10.0000 NEW", unlocked.String())

	// 再次解锁是空操作
	unlocked, err = f.cmd.Unlock(context.Background(), UnlockCommand{
		Actor: "bob", Owner: "bob", Symbol: domain.Symbol{Code: "NEW", Precision: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), unlocked.Units)
}

func TestUnlockRequiresOwnerAuthority(t *testing.T) {
	f := newFixture(t)
	_, err := f.cmd.Unlock(context.Background(), UnlockCommand{
		Actor:  "alice",
		Owner:  "bob",
		Symbol: domain.Symbol{Code: "NEW", Precision: 4},
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// 完整流转：发行、转账、锁仓、解锁后再转账
func TestLedgerEndToEnd(t *testing.T) {
	f := newFixture(t)
	f.createNEW(t, "1000000")
	issueTo(t, f, "alice", "100.0000")

	_, err := f.cmd.GrantVesting(context.Background(), GrantVestingCommand{
		Actor:    "alice",
		From:     "alice",
		To:       "bob",
		Quantity: amt(t, "40", 4),
		UnlockAt: f.clock.now.Add(time.Hour),
	})
	require.NoError(t, err)

	// 锁仓未解锁，bob 不能转出
	_, err = f.cmd.Transfer(context.Background(), TransferCommand{
		Actor:    "bob",
		From:     "bob",
		To:       "carol",
		Quantity: amt(t, "1", 4),
	})
	assert.ErrorIs(t, err, domain.ErrOverdrawn)

	f.clock.now = f.clock.now.Add(2 * time.Hour)
	_, err = f.cmd.Unlock(context.Background(), UnlockCommand{
		Actor: "bob", Owner: "bob", Symbol: domain.Symbol{Code: "NEW", Precision: 4},
	})
	require.NoError(t, err)

	_, err = f.cmd.Transfer(context.Background(), TransferCommand{
		Actor:    "bob",
		From:     "bob",
		To:       "carol",
		Quantity: amt(t, "15", 4),
	})
	require.NoError(t, err)

	bob := f.balanceOf(t, "bob")
	require.NotNil(t, bob)
	assert.Equal(t, "25.0000 NEW", bob.BalanceAmount().String())
	carol := f.balanceOf(t, "carol")
	require.NotNil(t, carol)
	assert.Equal(t, "15.0000 NEW", carol.LiquidAmount().String())
}
