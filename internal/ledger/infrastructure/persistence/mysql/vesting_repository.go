// Package mysql 锁仓授予仓储
package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VestingCounter 授予序号计数器
// 每个 (所有者, 符号) 集合一行，与集合同事务推进，保证序号单调且不重用。
type VestingCounter struct {
	gorm.Model
	OwnerID string `gorm:"column:owner_id;type:varchar(64);uniqueIndex:idx_counter_owner_code;not null"`
	Code    string `gorm:"column:code;type:varchar(7);uniqueIndex:idx_counter_owner_code;not null"`
	NextID  uint64 `gorm:"column:next_id;not null;default:0"`
}

// TableName 表名
func (VestingCounter) TableName() string {
	return "vesting_counters"
}

// GormVestingGrantRepository 锁仓授予仓储
type GormVestingGrantRepository struct {
	baseRepository
}

// NewGormVestingGrantRepository 创建锁仓授予仓储
func NewGormVestingGrantRepository(db *gorm.DB) domain.VestingGrantRepository {
	return &GormVestingGrantRepository{baseRepository{db: db}}
}

// NextGrantID 读取并推进下一个可用序号（持行锁）
func (r *GormVestingGrantRepository) NextGrantID(ctx context.Context, ownerID, code string) (uint64, error) {
	db := r.getDB(ctx).WithContext(ctx)

	var counter VestingCounter
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id = ? AND code = ?", ownerID, code).First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		counter = VestingCounter{OwnerID: ownerID, Code: code, NextID: 1}
		if err := db.Create(&counter).Error; err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}

	next := counter.NextID
	if err := db.Model(&counter).Update("next_id", next+1).Error; err != nil {
		return 0, err
	}
	return next, nil
}

func (r *GormVestingGrantRepository) Append(ctx context.Context, grant *domain.VestingGrant) error {
	return r.getDB(ctx).WithContext(ctx).Create(grant).Error
}

func (r *GormVestingGrantRepository) ListByOwner(ctx context.Context, ownerID, code string) ([]*domain.VestingGrant, error) {
	var grants []*domain.VestingGrant
	err := r.getDB(ctx).WithContext(ctx).
		Where("owner_id = ? AND code = ?", ownerID, code).
		Order("grant_id ASC").Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

// ListMaturedForUpdate 到期授予的全量扫描（持锁），unlock_at == now 视为到期
func (r *GormVestingGrantRepository) ListMaturedForUpdate(ctx context.Context, ownerID, code string, now time.Time) ([]*domain.VestingGrant, error) {
	var grants []*domain.VestingGrant
	err := r.getDB(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id = ? AND code = ? AND unlock_at <= ?", ownerID, code, now).
		Order("grant_id ASC").Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *GormVestingGrantRepository) Delete(ctx context.Context, grants []*domain.VestingGrant) error {
	if len(grants) == 0 {
		return nil
	}
	ids := make([]uint, len(grants))
	for i, g := range grants {
		ids[i] = g.ID
	}
	return r.getDB(ctx).WithContext(ctx).Unscoped().Delete(&domain.VestingGrant{}, ids).Error
}
