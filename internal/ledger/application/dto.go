// Package application 查询结果 DTO
package application

import (
	"time"

	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
)

// TokenDTO 代币信息
type TokenDTO struct {
	Symbol    string    `json:"symbol"`
	Precision uint8     `json:"precision"`
	Supply    string    `json:"supply"`
	MaxSupply string    `json:"max_supply"`
	Issuer    string    `json:"issuer"`
	CreatedAt time.Time `json:"created_at"`
}

// BalanceDTO 账户余额
type BalanceDTO struct {
	AccountID string `json:"account_id"`
	Symbol    string `json:"symbol"`
	Precision uint8  `json:"precision"`
	Balance   string `json:"balance"`
	Liquid    string `json:"liquid"`
}

// GrantDTO 锁仓授予
type GrantDTO struct {
	GrantID  uint64    `json:"grant_id"`
	Owner    string    `json:"owner"`
	Symbol   string    `json:"symbol"`
	Quantity string    `json:"quantity"`
	UnlockAt time.Time `json:"unlock_at"`
	Grantor  string    `json:"grantor"`
}

// EntryDTO 账本流水
type EntryDTO struct {
	EntryID      string    `json:"entry_id"`
	AccountID    string    `json:"account_id"`
	Symbol       string    `json:"symbol"`
	Type         string    `json:"type"`
	Amount       string    `json:"amount"`
	BalanceAfter string    `json:"balance_after"`
	LiquidAfter  string    `json:"liquid_after"`
	ReferenceID  string    `json:"reference_id"`
	Memo         string    `json:"memo"`
	CreatedAt    time.Time `json:"created_at"`
}

func toTokenDTO(t *domain.TokenStats) *TokenDTO {
	return &TokenDTO{
		Symbol:    t.Code,
		Precision: t.Precision,
		Supply:    t.SupplyAmount().String(),
		MaxSupply: t.MaxSupplyAmount().String(),
		Issuer:    t.Issuer,
		CreatedAt: t.CreatedAt,
	}
}

func toBalanceDTO(b *domain.AccountBalance) *BalanceDTO {
	return &BalanceDTO{
		AccountID: b.AccountID,
		Symbol:    b.Code,
		Precision: b.Precision,
		Balance:   b.BalanceAmount().String(),
		Liquid:    b.LiquidAmount().String(),
	}
}

func toGrantDTO(g *domain.VestingGrant) *GrantDTO {
	return &GrantDTO{
		GrantID:  g.GrantID,
		Owner:    g.OwnerID,
		Symbol:   g.Code,
		Quantity: g.Quantity().String(),
		UnlockAt: g.UnlockAt,
		Grantor:  g.Grantor,
	}
}

func toEntryDTO(e *domain.LedgerEntry, precision uint8) *EntryDTO {
	sym := domain.Symbol{Code: e.Code, Precision: precision}
	return &EntryDTO{
		EntryID:      e.EntryID,
		AccountID:    e.AccountID,
		Symbol:       e.Code,
		Type:         string(e.Type),
		Amount:       domain.NewAmount(e.Units, sym).String(),
		BalanceAfter: domain.NewAmount(e.BalanceAfter, sym).String(),
		LiquidAfter:  domain.NewAmount(e.LiquidAfter, sym).String(),
		ReferenceID:  e.ReferenceID,
		Memo:         e.Memo,
		CreatedAt:    e.CreatedAt,
	}
}
