// Package mysql 账本仓储的 GORM 实现
// 生成摘要：
// 1) 完整实现 domain 层定义的全部仓储接口
// 2) baseRepository 统一处理事务上下文 (contextx.GetTx)
// 3) TransactionManager 把一次账本操作的全部读写收拢进一个数据库事务
package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// baseRepository 基础仓储，提供事务支持
type baseRepository struct {
	db *gorm.DB
}

func (r *baseRepository) getDB(ctx context.Context) *gorm.DB {
	// 尝试从 Context 中获取事务句柄
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.db
}

// TransactionManager 事务管理器
type TransactionManager struct {
	db *gorm.DB
}

// NewTransactionManager 创建事务管理器
func NewTransactionManager(db *gorm.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// Transaction 开启一个新事务，事务句柄通过 Context 传递给各仓储
func (tm *TransactionManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	})
}

// --- Token Repository ---

// GormTokenRepository 代币注册表仓储
type GormTokenRepository struct {
	baseRepository
}

// NewGormTokenRepository 创建代币注册表仓储
func NewGormTokenRepository(db *gorm.DB) domain.TokenRepository {
	return &GormTokenRepository{baseRepository{db: db}}
}

func (r *GormTokenRepository) Save(ctx context.Context, token *domain.TokenStats) error {
	return r.getDB(ctx).WithContext(ctx).Save(token).Error
}

func (r *GormTokenRepository) GetByCode(ctx context.Context, code string) (*domain.TokenStats, error) {
	var token domain.TokenStats
	err := r.getDB(ctx).WithContext(ctx).Where("code = ?", code).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *GormTokenRepository) GetByCodeForUpdate(ctx context.Context, code string) (*domain.TokenStats, error) {
	var token domain.TokenStats
	err := r.getDB(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// --- Balance Repository ---

// GormBalanceRepository 账户余额仓储
type GormBalanceRepository struct {
	baseRepository
}

// NewGormBalanceRepository 创建账户余额仓储
func NewGormBalanceRepository(db *gorm.DB) domain.BalanceRepository {
	return &GormBalanceRepository{baseRepository{db: db}}
}

func (r *GormBalanceRepository) Save(ctx context.Context, balance *domain.AccountBalance) error {
	return r.getDB(ctx).WithContext(ctx).Save(balance).Error
}

func (r *GormBalanceRepository) Get(ctx context.Context, accountID, code string) (*domain.AccountBalance, error) {
	var balance domain.AccountBalance
	err := r.getDB(ctx).WithContext(ctx).
		Where("account_id = ? AND code = ?", accountID, code).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *GormBalanceRepository) GetForUpdate(ctx context.Context, accountID, code string) (*domain.AccountBalance, error) {
	var balance domain.AccountBalance
	err := r.getDB(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ? AND code = ?", accountID, code).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *GormBalanceRepository) Delete(ctx context.Context, balance *domain.AccountBalance) error {
	return r.getDB(ctx).WithContext(ctx).Unscoped().Delete(balance).Error
}

// --- LedgerEntry Repository ---

// GormLedgerEntryRepository 流水仓储
type GormLedgerEntryRepository struct {
	baseRepository
}

// NewGormLedgerEntryRepository 创建流水仓储
func NewGormLedgerEntryRepository(db *gorm.DB) domain.LedgerEntryRepository {
	return &GormLedgerEntryRepository{baseRepository{db: db}}
}

func (r *GormLedgerEntryRepository) Save(ctx context.Context, entries ...*domain.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.getDB(ctx).WithContext(ctx).Create(entries).Error
}

func (r *GormLedgerEntryRepository) List(ctx context.Context, accountID, code string, limit, offset int) ([]*domain.LedgerEntry, int64, error) {
	db := r.getDB(ctx).WithContext(ctx).Model(&domain.LedgerEntry{}).
		Where("account_id = ? AND code = ?", accountID, code)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []*domain.LedgerEntry
	if err := db.Order("id DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
