// Package application 账本查询服务
// 余额查询走 Redis 读缓存，未命中回源数据库并回填；
// 缓存由投影消费者在领域事件到达后刷新。
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
)

// LedgerQueries 账本查询服务
type LedgerQueries struct {
	tokens   domain.TokenRepository
	balances domain.BalanceRepository
	grants   domain.VestingGrantRepository
	entries  domain.LedgerEntryRepository
	cache    domain.BalanceCache
	logger   *slog.Logger
}

// NewLedgerQueries 创建查询服务；cache 可为 nil（直接回源）
func NewLedgerQueries(
	tokens domain.TokenRepository,
	balances domain.BalanceRepository,
	grants domain.VestingGrantRepository,
	entries domain.LedgerEntryRepository,
	cache domain.BalanceCache,
	logger *slog.Logger,
) *LedgerQueries {
	return &LedgerQueries{
		tokens:   tokens,
		balances: balances,
		grants:   grants,
		entries:  entries,
		cache:    cache,
		logger:   logger.With("module", "ledger_queries"),
	}
}

// GetToken 代币信息
func (s *LedgerQueries) GetToken(ctx context.Context, code string) (*TokenDTO, error) {
	token, err := s.tokens.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSymbol, code)
	}
	return toTokenDTO(token), nil
}

// SupplyOf 当前流通量
func (s *LedgerQueries) SupplyOf(ctx context.Context, code string) (domain.Amount, error) {
	token, err := s.tokens.GetByCode(ctx, code)
	if err != nil {
		return domain.Amount{}, err
	}
	if token == nil {
		return domain.Amount{}, fmt.Errorf("%w: %s", domain.ErrUnknownSymbol, code)
	}
	return token.SupplyAmount(), nil
}

// BalanceOf 账户余额（总余额与可用余额）
func (s *LedgerQueries) BalanceOf(ctx context.Context, accountID, code string) (*BalanceDTO, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, accountID, code)
		if err != nil {
			s.logger.WarnContext(ctx, "balance cache read failed", "account_id", accountID, "error", err)
		}
		if cached != nil {
			return toBalanceDTO(cached), nil
		}
	}

	balance, err := s.balances.Get(ctx, accountID, code)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return nil, fmt.Errorf("%w: no balance object found for %s", domain.ErrUnknownAccount, accountID)
	}

	if s.cache != nil {
		if err := s.cache.Save(ctx, balance); err != nil {
			s.logger.WarnContext(ctx, "balance cache write failed", "account_id", accountID, "error", err)
		}
	}
	return toBalanceDTO(balance), nil
}

// ListGrants 账户的未到期/未结算锁仓列表
func (s *LedgerQueries) ListGrants(ctx context.Context, ownerID, code string) ([]*GrantDTO, error) {
	grants, err := s.grants.ListByOwner(ctx, ownerID, code)
	if err != nil {
		return nil, err
	}
	dtos := make([]*GrantDTO, len(grants))
	for i, g := range grants {
		dtos[i] = toGrantDTO(g)
	}
	return dtos, nil
}

// ListEntries 账户流水分页
func (s *LedgerQueries) ListEntries(ctx context.Context, accountID, code string, limit, offset int) ([]*EntryDTO, int64, error) {
	token, err := s.tokens.GetByCode(ctx, code)
	if err != nil {
		return nil, 0, err
	}
	if token == nil {
		return nil, 0, fmt.Errorf("%w: %s", domain.ErrUnknownSymbol, code)
	}

	entries, total, err := s.entries.List(ctx, accountID, code, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]*EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e, token.Precision)
	}
	return dtos, total, nil
}

// Refresh 读模型投影刷新：领域事件到达后重建余额缓存
func (s *LedgerQueries) Refresh(ctx context.Context, accountID, code string) error {
	if s.cache == nil {
		return nil
	}
	balance, err := s.balances.Get(ctx, accountID, code)
	if err != nil {
		return err
	}
	if balance == nil {
		// 总余额归零的记录已删除，缓存同步失效
		return s.cache.Delete(ctx, accountID, code)
	}
	return s.cache.Save(ctx, balance)
}
