// Package domain 锁仓授予
package domain

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// VestingGrant 锁仓授予实体
// 以 (所有者, 符号, 授予序号) 为业务主键，序号在所有者的集合内单调分配。
// 授予自创建起存在，到期结算时整体删除；一条授予不可部分解锁。
// Grantor 仅作为资源成本的承担方记录，不参与记账。
type VestingGrant struct {
	gorm.Model
	OwnerID   string    `gorm:"column:owner_id;type:varchar(64);uniqueIndex:idx_owner_code_grant;not null"`
	Code      string    `gorm:"column:code;type:varchar(7);uniqueIndex:idx_owner_code_grant;not null"`
	GrantID   uint64    `gorm:"column:grant_id;uniqueIndex:idx_owner_code_grant;not null"`
	Precision uint8     `gorm:"column:precision;type:tinyint unsigned;not null"`
	Units     int64     `gorm:"column:units;not null"`
	UnlockAt  time.Time `gorm:"column:unlock_at;index;not null"`
	Grantor   string    `gorm:"column:grantor;type:varchar(64);not null"`
}

// TableName 表名
func (VestingGrant) TableName() string {
	return "vesting_grants"
}

// NewVestingGrant 创建锁仓授予
func NewVestingGrant(ownerID string, grantID uint64, q Amount, unlockAt time.Time, grantor string) (*VestingGrant, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if !q.IsPositive() {
		return nil, fmt.Errorf("%w: grant quantity must be positive", ErrInvalidAmount)
	}
	return &VestingGrant{
		OwnerID:   ownerID,
		Code:      q.Symbol.Code,
		GrantID:   grantID,
		Precision: q.Symbol.Precision,
		Units:     q.Units,
		UnlockAt:  unlockAt,
		Grantor:   grantor,
	}, nil
}

// Quantity 授予金额
func (g *VestingGrant) Quantity() Amount {
	return Amount{Units: g.Units, Symbol: Symbol{Code: g.Code, Precision: g.Precision}}
}

// Matured 到期判定；unlock_at == now 视为已到期
func (g *VestingGrant) Matured(now time.Time) bool {
	return !g.UnlockAt.After(now)
}
