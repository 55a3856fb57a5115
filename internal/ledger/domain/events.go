// Package domain 领域事件
package domain

import "time"

// 事件主题；消费方（对手方通知、读模型投影）按主题订阅。
const (
	TokenCreatedEventType    = "ledger.token.created"
	TokensIssuedEventType    = "ledger.tokens.issued"
	TransferredEventType     = "ledger.transferred"
	VestingGrantedEventType  = "ledger.vesting.granted"
	VestingUnlockedEventType = "ledger.vesting.unlocked"
)

// DomainEvent 领域事件
type DomainEvent interface {
	EventName() string
}

// TokenCreatedEvent 代币创建事件
type TokenCreatedEvent struct {
	Symbol    string    `json:"symbol"`
	Precision uint8     `json:"precision"`
	Issuer    string    `json:"issuer"`
	MaxSupply string    `json:"max_supply"`
	Timestamp time.Time `json:"timestamp"`
}

func (TokenCreatedEvent) EventName() string { return TokenCreatedEventType }

// TokensIssuedEvent 代币发行事件
type TokensIssuedEvent struct {
	Symbol    string    `json:"symbol"`
	Issuer    string    `json:"issuer"`
	To        string    `json:"to"`
	Quantity  string    `json:"quantity"`
	Supply    string    `json:"supply"`
	Memo      string    `json:"memo"`
	Timestamp time.Time `json:"timestamp"`
}

func (TokensIssuedEvent) EventName() string { return TokensIssuedEventType }

// TransferredEvent 转账事件；状态提交后通知转出与转入双方
type TransferredEvent struct {
	Symbol    string    `json:"symbol"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Quantity  string    `json:"quantity"`
	Memo      string    `json:"memo"`
	Timestamp time.Time `json:"timestamp"`
}

func (TransferredEvent) EventName() string { return TransferredEventType }

// VestingGrantedEvent 锁仓授予事件
type VestingGrantedEvent struct {
	Symbol    string    `json:"symbol"`
	Grantor   string    `json:"grantor"`
	Owner     string    `json:"owner"`
	GrantID   uint64    `json:"grant_id"`
	Quantity  string    `json:"quantity"`
	UnlockAt  time.Time `json:"unlock_at"`
	Timestamp time.Time `json:"timestamp"`
}

func (VestingGrantedEvent) EventName() string { return VestingGrantedEventType }

// VestingUnlockedEvent 锁仓解锁事件
type VestingUnlockedEvent struct {
	Symbol    string    `json:"symbol"`
	Owner     string    `json:"owner"`
	GrantIDs  []uint64  `json:"grant_ids"`
	Unlocked  string    `json:"unlocked"`
	Timestamp time.Time `json:"timestamp"`
}

func (VestingUnlockedEvent) EventName() string { return VestingUnlockedEventType }
