// Package domain 账本仓储接口
package domain

import (
	"context"
	"time"
)

// TokenRepository 代币注册表仓储
// Get 系列方法在记录不存在时返回 (nil, nil)。
type TokenRepository interface {
	Save(ctx context.Context, token *TokenStats) error
	GetByCode(ctx context.Context, code string) (*TokenStats, error)
	GetByCodeForUpdate(ctx context.Context, code string) (*TokenStats, error) // 悲观锁获取
}

// BalanceRepository 账户余额仓储
// Get 系列方法在记录不存在时返回 (nil, nil)。
type BalanceRepository interface {
	Save(ctx context.Context, balance *AccountBalance) error
	Get(ctx context.Context, accountID, code string) (*AccountBalance, error)
	GetForUpdate(ctx context.Context, accountID, code string) (*AccountBalance, error)
	Delete(ctx context.Context, balance *AccountBalance) error
}

// VestingGrantRepository 锁仓授予仓储
// NextGrantID 读取并推进所有者集合内的下一个可用序号，必须在事务内持锁执行。
type VestingGrantRepository interface {
	NextGrantID(ctx context.Context, ownerID, code string) (uint64, error)
	Append(ctx context.Context, grant *VestingGrant) error
	ListByOwner(ctx context.Context, ownerID, code string) ([]*VestingGrant, error)
	ListMaturedForUpdate(ctx context.Context, ownerID, code string, now time.Time) ([]*VestingGrant, error)
	Delete(ctx context.Context, grants []*VestingGrant) error
}

// LedgerEntryRepository 流水仓储
type LedgerEntryRepository interface {
	Save(ctx context.Context, entries ...*LedgerEntry) error
	List(ctx context.Context, accountID, code string, limit, offset int) ([]*LedgerEntry, int64, error)
}

// TransactionManager 事务管理器
// 一次账本操作内的全部读写要么整体提交，要么整体回滚。
type TransactionManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// BalanceCache 余额读缓存
// 未命中返回 (nil, nil)；由投影刷新消费者在事件到达后回填。
type BalanceCache interface {
	Get(ctx context.Context, accountID, code string) (*AccountBalance, error)
	Save(ctx context.Context, balance *AccountBalance) error
	Delete(ctx context.Context, accountID, code string) error
}
