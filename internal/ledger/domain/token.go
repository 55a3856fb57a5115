// Package domain 代币注册表（符号登记）
package domain

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// TokenStats 代币统计实体
// 每个符号恰好一条记录；issuer 创建后不可变更；
// 任意时刻满足 0 <= Supply <= MaxSupply。
type TokenStats struct {
	gorm.Model
	Code      string `gorm:"column:code;type:varchar(7);uniqueIndex;not null"`
	Precision uint8  `gorm:"column:precision;type:tinyint unsigned;not null"`
	Supply    int64  `gorm:"column:supply;not null;default:0"`
	MaxSupply int64  `gorm:"column:max_supply;not null"`
	Issuer    string `gorm:"column:issuer;type:varchar(64);not null"`
}

// TableName 表名
func (TokenStats) TableName() string {
	return "token_stats"
}

// NewTokenStats 登记新代币
// 初始流通量为 0，创建时间取注入时钟的当前值。
func NewTokenStats(issuer string, maxSupply Amount, now time.Time) (*TokenStats, error) {
	if err := maxSupply.Symbol.Validate(); err != nil {
		return nil, err
	}
	if err := maxSupply.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid max supply", ErrInvalidAmount)
	}
	if !maxSupply.IsPositive() {
		return nil, fmt.Errorf("%w: max supply must be positive", ErrInvalidAmount)
	}
	if err := ValidateAccountID(issuer); err != nil {
		return nil, err
	}

	t := &TokenStats{
		Code:      maxSupply.Symbol.Code,
		Precision: maxSupply.Symbol.Precision,
		Supply:    0,
		MaxSupply: maxSupply.Units,
		Issuer:    issuer,
	}
	t.CreatedAt = now
	return t, nil
}

// Symbol 注册表记录对应的符号
func (t *TokenStats) Symbol() Symbol {
	return Symbol{Code: t.Code, Precision: t.Precision}
}

// SupplyAmount 当前流通量
func (t *TokenStats) SupplyAmount() Amount {
	return Amount{Units: t.Supply, Symbol: t.Symbol()}
}

// MaxSupplyAmount 最大流通量
func (t *TokenStats) MaxSupplyAmount() Amount {
	return Amount{Units: t.MaxSupply, Symbol: t.Symbol()}
}

// CheckQuantity 校验操作金额与注册信息的一致性
// 金额必须合法、为正，且符号（代码与精度）与注册记录一致。
func (t *TokenStats) CheckQuantity(q Amount) error {
	if err := q.Validate(); err != nil {
		return err
	}
	if !q.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidAmount)
	}
	if !q.Symbol.Equal(t.Symbol()) {
		return fmt.Errorf("%w: quantity symbol %s does not match registry %s", ErrSymbolMismatch, q.Symbol, t.Symbol())
	}
	return nil
}

// IssueSupply 增加流通量
// 超出 MaxSupply - Supply 的发行请求被拒绝。
func (t *TokenStats) IssueSupply(q Amount) error {
	if err := t.CheckQuantity(q); err != nil {
		return err
	}
	if q.Units > t.MaxSupply-t.Supply {
		return fmt.Errorf("%w: quantity exceeds available supply", ErrSupplyExceeded)
	}
	t.Supply += q.Units
	return nil
}
