package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestToken(t *testing.T, maxSupplyUnits int64) *TokenStats {
	t.Helper()
	sym := Symbol{Code: "NEW", Precision: 4}
	token, err := NewTokenStats("issuer.acct", NewAmount(maxSupplyUnits, sym), time.Now())
	require.NoError(t, err)
	return token
}

func TestNewTokenStats(t *testing.T) {
	token := newTestToken(t, 10000000)
	assert.Equal(t, "NEW", token.Code)
	assert.Equal(t, uint8(4), token.Precision)
	assert.Equal(t, int64(0), token.Supply)
	assert.Equal(t, int64(10000000), token.MaxSupply)
	assert.Equal(t, "issuer.acct", token.Issuer)

	sym := Symbol{Code: "NEW", Precision: 4}
	_, err := NewTokenStats("issuer.acct", NewAmount(0, sym), time.Now())
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewTokenStats("issuer.acct", NewAmount(-1, sym), time.Now())
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewTokenStats("", NewAmount(100, sym), time.Now())
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestTokenCheckQuantity(t *testing.T) {
	token := newTestToken(t, 10000000)
	sym := Symbol{Code: "NEW", Precision: 4}

	assert.NoError(t, token.CheckQuantity(NewAmount(1, sym)))
	assert.ErrorIs(t, token.CheckQuantity(NewAmount(0, sym)), ErrInvalidAmount)
	assert.ErrorIs(t, token.CheckQuantity(NewAmount(-5, sym)), ErrInvalidAmount)
	assert.ErrorIs(t, token.CheckQuantity(NewAmount(1, Symbol{Code: "OLD", Precision: 4})), ErrSymbolMismatch)
	// 代码相同精度不同也视为不同符号
	assert.ErrorIs(t, token.CheckQuantity(NewAmount(1, Symbol{Code: "NEW", Precision: 2})), ErrSymbolMismatch)
}

func TestTokenIssueSupply(t *testing.T) {
	token := newTestToken(t, 1000)
	sym := Symbol{Code: "NEW", Precision: 4}

	require.NoError(t, token.IssueSupply(NewAmount(600, sym)))
	assert.Equal(t, int64(600), token.Supply)

	// 剩余空间 400，正好用尽
	require.NoError(t, token.IssueSupply(NewAmount(400, sym)))
	assert.Equal(t, int64(1000), token.Supply)

	// 已达上限，再发行 1 都不行
	err := token.IssueSupply(NewAmount(1, sym))
	assert.ErrorIs(t, err, ErrSupplyExceeded)
	assert.Equal(t, int64(1000), token.Supply)
}
