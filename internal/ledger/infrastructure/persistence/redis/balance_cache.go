// Package redis 账户余额读缓存
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
)

type balanceCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewBalanceCache 创建余额读缓存
func NewBalanceCache(client redis.UniversalClient) domain.BalanceCache {
	return &balanceCache{
		client: client,
		prefix: "ledger:balance:",
		ttl:    time.Hour,
	}
}

func (c *balanceCache) Get(ctx context.Context, accountID, code string) (*domain.AccountBalance, error) {
	data, err := c.client.Get(ctx, c.key(accountID, code)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var balance domain.AccountBalance
	if err := json.Unmarshal(data, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

func (c *balanceCache) Save(ctx context.Context, balance *domain.AccountBalance) error {
	if balance == nil {
		return nil
	}
	data, err := json.Marshal(balance)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(balance.AccountID, balance.Code), data, c.ttl).Err()
}

func (c *balanceCache) Delete(ctx context.Context, accountID, code string) error {
	return c.client.Del(ctx, c.key(accountID, code)).Err()
}

func (c *balanceCache) key(accountID, code string) string {
	return c.prefix + accountID + ":" + code
}
