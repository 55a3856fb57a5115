// Package application 账本应用层
// 生成摘要：
// 1) LedgerCommands 聚合全部变更操作：创建代币、发行、转账、锁仓授予、解锁
// 2) 每个操作先做授权判定，再在单个数据库事务内完成全部读写
// 3) 状态提交后异步发布领域事件，发布失败只记录日志不影响操作结果
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/messagequeue"
	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
)

// LedgerCommands 账本命令服务
type LedgerCommands struct {
	tokens    domain.TokenRepository
	balances  domain.BalanceRepository
	grants    domain.VestingGrantRepository
	entries   domain.LedgerEntryRepository
	txm       domain.TransactionManager
	auth      domain.Authorizer
	clock     domain.Clock
	publisher messagequeue.EventPublisher
	owner     string // 账本所有者主体，创建代币的审批方
	logger    *slog.Logger
}

// NewLedgerCommands 创建命令服务
func NewLedgerCommands(
	tokens domain.TokenRepository,
	balances domain.BalanceRepository,
	grants domain.VestingGrantRepository,
	entries domain.LedgerEntryRepository,
	txm domain.TransactionManager,
	auth domain.Authorizer,
	clock domain.Clock,
	publisher messagequeue.EventPublisher,
	owner string,
	logger *slog.Logger,
) *LedgerCommands {
	return &LedgerCommands{
		tokens:    tokens,
		balances:  balances,
		grants:    grants,
		entries:   entries,
		txm:       txm,
		auth:      auth,
		clock:     clock,
		publisher: publisher,
		owner:     owner,
		logger:    logger.With("module", "ledger_commands"),
	}
}

// CreateSymbolCommand 创建代币命令
type CreateSymbolCommand struct {
	Actor     string
	Issuer    string
	MaxSupply domain.Amount
}

// CreateSymbol 创建代币
// 审批方是账本所有者而非发行方。
func (s *LedgerCommands) CreateSymbol(ctx context.Context, cmd CreateSymbolCommand) error {
	if err := s.auth.Authorize(ctx, cmd.Actor, s.owner); err != nil {
		return err
	}

	var token *domain.TokenStats
	err := s.txm.Transaction(ctx, func(txCtx context.Context) error {
		existing, err := s.tokens.GetByCode(txCtx, cmd.MaxSupply.Symbol.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %s", domain.ErrSymbolExists, cmd.MaxSupply.Symbol.Code)
		}

		token, err = domain.NewTokenStats(cmd.Issuer, cmd.MaxSupply, s.clock.Now())
		if err != nil {
			return err
		}
		return s.tokens.Save(txCtx, token)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "symbol created", "symbol", token.Symbol().String(), "issuer", token.Issuer)
	s.publish(ctx, domain.TokenCreatedEvent{
		Symbol:    token.Code,
		Precision: token.Precision,
		Issuer:    token.Issuer,
		MaxSupply: token.MaxSupplyAmount().String(),
		Timestamp: s.clock.Now(),
	})
	return nil
}

// IssueCommand 发行命令
type IssueCommand struct {
	Actor    string
	To       string
	Quantity domain.Amount
	Memo     string
}

// Issue 发行代币
// 流通量记账与受益人入账是两个可组合的步骤：先给发行方入账，
// 受益人不是发行方时再追加一笔发行方到受益人的内部转账，规则与普通转账一致。
func (s *LedgerCommands) Issue(ctx context.Context, cmd IssueCommand) (string, error) {
	if err := cmd.Quantity.Symbol.Validate(); err != nil {
		return "", err
	}
	if err := domain.ValidateMemo(cmd.Memo); err != nil {
		return "", err
	}

	refID := fmt.Sprintf("ISS-%d", idgen.GenID())
	var (
		issuer string
		supply domain.Amount
	)
	err := s.txm.Transaction(ctx, func(txCtx context.Context) error {
		token, err := s.tokens.GetByCodeForUpdate(txCtx, cmd.Quantity.Symbol.Code)
		if err != nil {
			return err
		}
		if token == nil {
			return fmt.Errorf("%w: %s, create token before issue", domain.ErrUnknownSymbol, cmd.Quantity.Symbol.Code)
		}

		if err := s.auth.Authorize(txCtx, cmd.Actor, token.Issuer); err != nil {
			return err
		}

		if err := token.IssueSupply(cmd.Quantity); err != nil {
			return err
		}
		if err := s.tokens.Save(txCtx, token); err != nil {
			return err
		}

		// 新发行的资产对发行方立即可支配
		if err := s.credit(txCtx, token.Issuer, cmd.Quantity, domain.EntryTypeIssue, refID, cmd.Memo); err != nil {
			return err
		}

		if cmd.To != token.Issuer {
			if err := domain.ValidateAccountID(cmd.To); err != nil {
				return err
			}
			if err := s.move(txCtx, token.Issuer, cmd.To, cmd.Quantity, refID, cmd.Memo); err != nil {
				return err
			}
		}

		issuer = token.Issuer
		supply = token.SupplyAmount()
		return nil
	})
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "tokens issued", "symbol", cmd.Quantity.Symbol.Code, "to", cmd.To, "quantity", cmd.Quantity.String())
	events := []domain.DomainEvent{domain.TokensIssuedEvent{
		Symbol:    cmd.Quantity.Symbol.Code,
		Issuer:    issuer,
		To:        cmd.To,
		Quantity:  cmd.Quantity.String(),
		Supply:    supply.String(),
		Memo:      cmd.Memo,
		Timestamp: s.clock.Now(),
	}}
	if cmd.To != issuer {
		events = append(events, domain.TransferredEvent{
			Symbol:    cmd.Quantity.Symbol.Code,
			From:      issuer,
			To:        cmd.To,
			Quantity:  cmd.Quantity.String(),
			Memo:      cmd.Memo,
			Timestamp: s.clock.Now(),
		})
	}
	s.publish(ctx, events...)
	return refID, nil
}

// TransferCommand 转账命令
type TransferCommand struct {
	Actor    string
	From     string
	To       string
	Quantity domain.Amount
	Memo     string
}

// Transfer 转账
// 只消耗转出方的可用余额，锁仓部分不可转出；
// 任一步骤失败时两个账户的余额都不发生变化。
func (s *LedgerCommands) Transfer(ctx context.Context, cmd TransferCommand) (string, error) {
	if cmd.From == cmd.To {
		return "", fmt.Errorf("%w: %s", domain.ErrSelfTransfer, cmd.From)
	}
	if err := s.auth.Authorize(ctx, cmd.Actor, cmd.From); err != nil {
		return "", err
	}
	if err := domain.ValidateAccountID(cmd.To); err != nil {
		return "", err
	}
	if err := domain.ValidateMemo(cmd.Memo); err != nil {
		return "", err
	}

	refID := fmt.Sprintf("TRF-%d", idgen.GenID())
	err := s.txm.Transaction(ctx, func(txCtx context.Context) error {
		token, err := s.tokens.GetByCode(txCtx, cmd.Quantity.Symbol.Code)
		if err != nil {
			return err
		}
		if token == nil {
			return fmt.Errorf("%w: %s", domain.ErrUnknownSymbol, cmd.Quantity.Symbol.Code)
		}
		if err := token.CheckQuantity(cmd.Quantity); err != nil {
			return err
		}
		return s.move(txCtx, cmd.From, cmd.To, cmd.Quantity, refID, cmd.Memo)
	})
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "transferred", "from", cmd.From, "to", cmd.To, "quantity", cmd.Quantity.String())
	s.publish(ctx, domain.TransferredEvent{
		Symbol:    cmd.Quantity.Symbol.Code,
		From:      cmd.From,
		To:        cmd.To,
		Quantity:  cmd.Quantity.String(),
		Memo:      cmd.Memo,
		Timestamp: s.clock.Now(),
	})
	return refID, nil
}

// GrantVestingCommand 锁仓授予命令
type GrantVestingCommand struct {
	Actor    string
	From     string
	To       string
	Quantity domain.Amount
	UnlockAt time.Time
}

// GrantVesting 锁仓授予
// 授予产生的是净新增的锁仓资产：只增加受益人的总余额，
// 不动用资金方的既有余额，可用余额要等到期解锁后才增加。
func (s *LedgerCommands) GrantVesting(ctx context.Context, cmd GrantVestingCommand) (uint64, error) {
	if err := s.auth.Authorize(ctx, cmd.Actor, cmd.From); err != nil {
		return 0, err
	}
	if err := domain.ValidateAccountID(cmd.To); err != nil {
		return 0, err
	}

	refID := fmt.Sprintf("GRT-%d", idgen.GenID())
	var grantID uint64
	err := s.txm.Transaction(ctx, func(txCtx context.Context) error {
		token, err := s.tokens.GetByCode(txCtx, cmd.Quantity.Symbol.Code)
		if err != nil {
			return err
		}
		if token == nil {
			return fmt.Errorf("%w: %s", domain.ErrUnknownSymbol, cmd.Quantity.Symbol.Code)
		}
		if err := token.CheckQuantity(cmd.Quantity); err != nil {
			return err
		}

		grantID, err = s.grants.NextGrantID(txCtx, cmd.To, cmd.Quantity.Symbol.Code)
		if err != nil {
			return err
		}
		grant, err := domain.NewVestingGrant(cmd.To, grantID, cmd.Quantity, cmd.UnlockAt, cmd.From)
		if err != nil {
			return err
		}
		if err := s.grants.Append(txCtx, grant); err != nil {
			return err
		}

		balance, err := s.balances.GetForUpdate(txCtx, cmd.To, cmd.Quantity.Symbol.Code)
		if err != nil {
			return err
		}
		if balance == nil {
			balance = domain.NewAccountBalance(cmd.To, cmd.Quantity.Symbol)
		}
		entry, err := balance.CreditLocked(cmd.Quantity, refID, "")
		if err != nil {
			return err
		}
		if err := s.balances.Save(txCtx, balance); err != nil {
			return err
		}
		return s.saveEntries(txCtx, entry)
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "vesting granted", "owner", cmd.To, "grant_id", grantID, "quantity", cmd.Quantity.String(), "unlock_at", cmd.UnlockAt)
	s.publish(ctx, domain.VestingGrantedEvent{
		Symbol:    cmd.Quantity.Symbol.Code,
		Grantor:   cmd.From,
		Owner:     cmd.To,
		GrantID:   grantID,
		Quantity:  cmd.Quantity.String(),
		UnlockAt:  cmd.UnlockAt,
		Timestamp: s.clock.Now(),
	})
	return grantID, nil
}

// UnlockCommand 解锁命令
type UnlockCommand struct {
	Actor  string
	Owner  string
	Symbol domain.Symbol
}

// Unlock 批量解锁
// 扫描所有者的锁仓集合，删除全部已到期的授予并把合计金额一次性计入可用余额；
// 扫描、删除、入账在同一事务内提交，外部观察不到中间状态。
// 没有到期授予时是成功的空操作，返回零金额。
func (s *LedgerCommands) Unlock(ctx context.Context, cmd UnlockCommand) (domain.Amount, error) {
	zero := domain.Amount{Symbol: cmd.Symbol}
	if err := s.auth.Authorize(ctx, cmd.Actor, cmd.Owner); err != nil {
		return zero, err
	}
	if err := cmd.Symbol.Validate(); err != nil {
		return zero, err
	}

	refID := fmt.Sprintf("ULK-%d", idgen.GenID())
	var (
		unlocked domain.Amount
		grantIDs []uint64
	)
	err := s.txm.Transaction(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		matured, err := s.grants.ListMaturedForUpdate(txCtx, cmd.Owner, cmd.Symbol.Code, now)
		if err != nil {
			return err
		}
		if len(matured) == 0 {
			return nil
		}

		var total int64
		for _, grant := range matured {
			if grant.Units <= 0 {
				return fmt.Errorf("%w: vesting grant %d quantity must be positive", domain.ErrInvalidAmount, grant.GrantID)
			}
			if total > domain.MaxAmountUnits-grant.Units {
				return fmt.Errorf("%w: unlocked total out of representable range", domain.ErrInvalidAmount)
			}
			total += grant.Units
			grantIDs = append(grantIDs, grant.GrantID)
		}

		if err := s.grants.Delete(txCtx, matured); err != nil {
			return err
		}

		balance, err := s.balances.GetForUpdate(txCtx, cmd.Owner, cmd.Symbol.Code)
		if err != nil {
			return err
		}
		if balance == nil {
			return fmt.Errorf("%w: no balance object found for %s", domain.ErrUnknownAccount, cmd.Owner)
		}

		unlocked = domain.NewAmount(total, cmd.Symbol)
		entry, err := balance.Unlock(unlocked, refID, "")
		if err != nil {
			return err
		}
		if err := s.balances.Save(txCtx, balance); err != nil {
			return err
		}
		return s.saveEntries(txCtx, entry)
	})
	if err != nil {
		return zero, err
	}

	if unlocked.Units == 0 {
		return zero, nil
	}
	s.logger.InfoContext(ctx, "vesting unlocked", "owner", cmd.Owner, "unlocked", unlocked.String(), "grants", len(grantIDs))
	s.publish(ctx, domain.VestingUnlockedEvent{
		Symbol:    cmd.Symbol.Code,
		Owner:     cmd.Owner,
		GrantIDs:  grantIDs,
		Unlocked:  unlocked.String(),
		Timestamp: s.clock.Now(),
	})
	return unlocked, nil
}

// move 在同一事务内完成转出方扣减与转入方入账
func (s *LedgerCommands) move(ctx context.Context, from, to string, q domain.Amount, refID, memo string) error {
	// 按账户字典序加锁，避免两笔反向转账互相死锁
	var fromBalance, toBalance *domain.AccountBalance
	var err error
	if from < to {
		fromBalance, err = s.balances.GetForUpdate(ctx, from, q.Symbol.Code)
		if err == nil {
			toBalance, err = s.balances.GetForUpdate(ctx, to, q.Symbol.Code)
		}
	} else {
		toBalance, err = s.balances.GetForUpdate(ctx, to, q.Symbol.Code)
		if err == nil {
			fromBalance, err = s.balances.GetForUpdate(ctx, from, q.Symbol.Code)
		}
	}
	if err != nil {
		return err
	}

	if fromBalance == nil {
		return fmt.Errorf("%w: no balance object found for %s", domain.ErrOverdrawn, from)
	}
	outEntry, err := fromBalance.Debit(q, refID, memo)
	if err != nil {
		return err
	}

	if toBalance == nil {
		toBalance = domain.NewAccountBalance(to, q.Symbol)
	}
	inEntry, err := toBalance.Credit(q, domain.EntryTypeTransferIn, refID, memo)
	if err != nil {
		return err
	}

	// 归零的余额记录删除而非保留
	if fromBalance.IsEmpty() {
		if err := s.balances.Delete(ctx, fromBalance); err != nil {
			return err
		}
	} else {
		if err := s.balances.Save(ctx, fromBalance); err != nil {
			return err
		}
	}
	if err := s.balances.Save(ctx, toBalance); err != nil {
		return err
	}
	return s.saveEntries(ctx, outEntry, inEntry)
}

// credit 给账户入账（总余额与可用余额同步增加）
func (s *LedgerCommands) credit(ctx context.Context, accountID string, q domain.Amount, entryType domain.EntryType, refID, memo string) error {
	balance, err := s.balances.GetForUpdate(ctx, accountID, q.Symbol.Code)
	if err != nil {
		return err
	}
	if balance == nil {
		balance = domain.NewAccountBalance(accountID, q.Symbol)
	}
	entry, err := balance.Credit(q, entryType, refID, memo)
	if err != nil {
		return err
	}
	if err := s.balances.Save(ctx, balance); err != nil {
		return err
	}
	return s.saveEntries(ctx, entry)
}

// saveEntries 给流水编号并保存
func (s *LedgerCommands) saveEntries(ctx context.Context, entries ...*domain.LedgerEntry) error {
	for _, entry := range entries {
		entry.EntryID = fmt.Sprintf("ENT-%d", idgen.GenID())
	}
	return s.entries.Save(ctx, entries...)
}

// publish 发布领域事件；失败只记录日志，不影响已提交的状态
func (s *LedgerCommands) publish(ctx context.Context, events ...domain.DomainEvent) {
	for _, event := range events {
		if err := s.publisher.Publish(ctx, event.EventName(), "", event); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish event", "event", event.EventName(), "error", err)
		}
	}
}
