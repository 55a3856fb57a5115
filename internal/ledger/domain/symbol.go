// Package domain 代币账本领域层
// 生成摘要：
// 1) 定义 Symbol（代币符号）与 Amount（带符号精度的金额）值对象
// 2) 实现符号与金额的合法性校验、同符号比较规则
// 3) 提供与十进制字符串之间的换算（基于最小单位 int64 存储）
package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MaxSymbolCodeLen 符号代码最大长度
	MaxSymbolCodeLen = 7
	// MaxPrecision 最大小数位数
	MaxPrecision = 18
	// MaxAmountUnits 金额最小单位的最大幅值（2^62 - 1）
	MaxAmountUnits = int64(1)<<62 - 1
	// MaxMemoBytes 备注最大字节数
	MaxMemoBytes = 256
)

// Symbol 代币符号值对象
// 由短代码（如 "NEW"）与小数精度共同构成；
// 两个金额只有在代码与精度都一致时才可参与运算。
type Symbol struct {
	Code      string
	Precision uint8
}

// NewSymbol 创建符号
func NewSymbol(code string, precision uint8) (Symbol, error) {
	s := Symbol{Code: code, Precision: precision}
	if err := s.Validate(); err != nil {
		return Symbol{}, err
	}
	return s, nil
}

// Validate 校验符号合法性
// 代码限定 1~7 位大写字母，精度不超过 MaxPrecision。
func (s Symbol) Validate() error {
	if s.Code == "" || len(s.Code) > MaxSymbolCodeLen {
		return fmt.Errorf("%w: code length must be 1..%d", ErrInvalidSymbol, MaxSymbolCodeLen)
	}
	for _, r := range s.Code {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("%w: code must contain only A-Z, got %q", ErrInvalidSymbol, s.Code)
		}
	}
	if s.Precision > MaxPrecision {
		return fmt.Errorf("%w: precision must not exceed %d", ErrInvalidSymbol, MaxPrecision)
	}
	return nil
}

// Equal 符号完全一致（代码与精度）
func (s Symbol) Equal(other Symbol) bool {
	return s.Code == other.Code && s.Precision == other.Precision
}

// String 例如 "4,NEW"
func (s Symbol) String() string {
	return fmt.Sprintf("%d,%s", s.Precision, s.Code)
}

// Amount 金额值对象
// Units 为最小单位的有符号整数幅值，换算关系为 10^Precision。
type Amount struct {
	Units  int64
	Symbol Symbol
}

// NewAmount 以最小单位创建金额
func NewAmount(units int64, sym Symbol) Amount {
	return Amount{Units: units, Symbol: sym}
}

// AmountFromDecimal 由十进制值创建金额
// 十进制值的小数位不得超过符号精度，否则视为非法金额。
func AmountFromDecimal(value decimal.Decimal, sym Symbol) (Amount, error) {
	if err := sym.Validate(); err != nil {
		return Amount{}, err
	}
	shifted := value.Shift(int32(sym.Precision))
	if !shifted.IsInteger() {
		return Amount{}, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, value, sym.Precision)
	}
	units := shifted.BigInt()
	if !units.IsInt64() || units.Int64() > MaxAmountUnits || units.Int64() < -MaxAmountUnits {
		return Amount{}, fmt.Errorf("%w: %s out of representable range", ErrInvalidAmount, value)
	}
	return Amount{Units: units.Int64(), Symbol: sym}, nil
}

// Validate 校验金额合法性（符号合法且幅值在可表示范围内）
func (a Amount) Validate() error {
	if err := a.Symbol.Validate(); err != nil {
		return err
	}
	if a.Units > MaxAmountUnits || a.Units < -MaxAmountUnits {
		return fmt.Errorf("%w: magnitude out of representable range", ErrInvalidAmount)
	}
	return nil
}

// IsPositive 幅值为正
func (a Amount) IsPositive() bool {
	return a.Units > 0
}

// Decimal 转换为十进制值
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(a.Units, -int32(a.Symbol.Precision))
}

// String 例如 "100.0000 NEW"
func (a Amount) String() string {
	return a.Decimal().StringFixed(int32(a.Symbol.Precision)) + " " + a.Symbol.Code
}

// ValidateMemo 校验备注长度
func ValidateMemo(memo string) error {
	if len(memo) > MaxMemoBytes {
		return fmt.Errorf("%w: memo has more than %d bytes", ErrMemoTooLong, MaxMemoBytes)
	}
	return nil
}

// ValidateAccountID 校验账户标识格式
// 账户是否真实注册由上游身份系统负责，这里只做形式校验。
func ValidateAccountID(id string) error {
	if strings.TrimSpace(id) == "" || len(id) > 64 {
		return fmt.Errorf("%w: malformed account id %q", ErrUnknownAccount, id)
	}
	return nil
}
