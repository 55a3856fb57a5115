// Package domain 账户余额聚合
// 生成摘要：
// 1) 定义 AccountBalance 聚合根：总余额 Balance 与可用余额 Liquid
// 2) 实现入账、出账、锁仓入账、解锁四类领域变更（不仅是CRUD）
// 3) 每次变更都维护不变量 0 <= Liquid <= Balance，并产出流水记录
package domain

import (
	"fmt"

	"gorm.io/gorm"
)

// AccountBalance 账户余额聚合根
// 以 (账户, 符号代码) 为业务主键；Balance 包含锁仓部分，
// Liquid 是其中当前可支配的子集。总余额归零的记录会被删除而非保留。
type AccountBalance struct {
	gorm.Model
	AccountID string `gorm:"column:account_id;type:varchar(64);uniqueIndex:idx_account_code;not null"`
	Code      string `gorm:"column:code;type:varchar(7);uniqueIndex:idx_account_code;not null"`
	Precision uint8  `gorm:"column:precision;type:tinyint unsigned;not null"`
	Balance   int64  `gorm:"column:balance;not null;default:0"`
	Liquid    int64  `gorm:"column:liquid;not null;default:0"`
}

// TableName 表名
func (AccountBalance) TableName() string {
	return "account_balances"
}

// NewAccountBalance 首次入账时创建余额记录
func NewAccountBalance(accountID string, sym Symbol) *AccountBalance {
	return &AccountBalance{
		AccountID: accountID,
		Code:      sym.Code,
		Precision: sym.Precision,
		Balance:   0,
		Liquid:    0,
	}
}

// Symbol 余额对应的符号
func (b *AccountBalance) Symbol() Symbol {
	return Symbol{Code: b.Code, Precision: b.Precision}
}

// BalanceAmount 总余额
func (b *AccountBalance) BalanceAmount() Amount {
	return Amount{Units: b.Balance, Symbol: b.Symbol()}
}

// LiquidAmount 可用余额
func (b *AccountBalance) LiquidAmount() Amount {
	return Amount{Units: b.Liquid, Symbol: b.Symbol()}
}

// IsEmpty 总余额为零（应删除该记录）
func (b *AccountBalance) IsEmpty() bool {
	return b.Balance == 0
}

// checkQuantity 变更金额必须为正且符号一致
func (b *AccountBalance) checkQuantity(q Amount) error {
	if !q.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidAmount)
	}
	if !q.Symbol.Equal(b.Symbol()) {
		return fmt.Errorf("%w: quantity symbol %s does not match balance %s", ErrSymbolMismatch, q.Symbol, b.Symbol())
	}
	return nil
}

// assertInvariant 0 <= Liquid <= Balance
func (b *AccountBalance) assertInvariant() error {
	if b.Liquid < 0 || b.Liquid > b.Balance {
		return fmt.Errorf("%w: liquid %d exceeds balance %d", ErrInvalidAmount, b.Liquid, b.Balance)
	}
	return nil
}

// Credit 入账：总余额与可用余额同步增加
// 用于发行入账与转账收款，收到的资产立即可支配。
func (b *AccountBalance) Credit(q Amount, entryType EntryType, refID, memo string) (*LedgerEntry, error) {
	if err := b.checkQuantity(q); err != nil {
		return nil, err
	}
	if b.Balance > MaxAmountUnits-q.Units {
		return nil, fmt.Errorf("%w: balance overflow", ErrInvalidAmount)
	}

	b.Balance += q.Units
	b.Liquid += q.Units
	if err := b.assertInvariant(); err != nil {
		return nil, err
	}

	return b.newEntry(entryType, q.Units, refID, memo), nil
}

// Debit 出账：从可用余额中扣减，总余额同步减少
// 锁仓部分不可转出；可用余额不足返回 ErrOverdrawn。
func (b *AccountBalance) Debit(q Amount, refID, memo string) (*LedgerEntry, error) {
	if err := b.checkQuantity(q); err != nil {
		return nil, err
	}
	if b.Liquid < q.Units {
		return nil, fmt.Errorf("%w: liquid %d is less than %d", ErrOverdrawn, b.Liquid, q.Units)
	}

	b.Balance -= q.Units
	b.Liquid -= q.Units
	if err := b.assertInvariant(); err != nil {
		return nil, err
	}

	return b.newEntry(EntryTypeTransferOut, -q.Units, refID, memo), nil
}

// CreditLocked 锁仓入账：只增加总余额，可用余额不动
// 锁仓授予产生的新资产归属于账户但在解锁前不可支配。
func (b *AccountBalance) CreditLocked(q Amount, refID, memo string) (*LedgerEntry, error) {
	if err := b.checkQuantity(q); err != nil {
		return nil, err
	}
	if b.Balance > MaxAmountUnits-q.Units {
		return nil, fmt.Errorf("%w: balance overflow", ErrInvalidAmount)
	}

	b.Balance += q.Units
	if err := b.assertInvariant(); err != nil {
		return nil, err
	}

	return b.newEntry(EntryTypeGrant, q.Units, refID, memo), nil
}

// Unlock 解锁：把已到期的锁仓量计入可用余额
// 解锁量超过锁仓部分说明状态已损坏，拒绝变更且余额保持原状。
func (b *AccountBalance) Unlock(q Amount, refID, memo string) (*LedgerEntry, error) {
	if err := b.checkQuantity(q); err != nil {
		return nil, err
	}
	if q.Units > b.Balance-b.Liquid {
		return nil, fmt.Errorf("%w: unlock %d exceeds locked portion %d", ErrInvalidAmount, q.Units, b.Balance-b.Liquid)
	}

	b.Liquid += q.Units
	if err := b.assertInvariant(); err != nil {
		return nil, err
	}

	return b.newEntry(EntryTypeUnlock, q.Units, refID, memo), nil
}

func (b *AccountBalance) newEntry(entryType EntryType, delta int64, refID, memo string) *LedgerEntry {
	return &LedgerEntry{
		AccountID:    b.AccountID,
		Code:         b.Code,
		Type:         entryType,
		Units:        delta,
		BalanceAfter: b.Balance,
		LiquidAfter:  b.Liquid,
		ReferenceID:  refID,
		Memo:         memo,
	}
}
