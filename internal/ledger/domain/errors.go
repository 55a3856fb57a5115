package domain

import "errors"

// 账本操作的错误类别。
// 任何一类错误都会使当前操作整体中止，不产生任何已落地的变更。
var (
	ErrInvalidSymbol  = errors.New("invalid symbol")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrSymbolExists   = errors.New("symbol already exists")
	ErrUnknownSymbol  = errors.New("unknown symbol")
	ErrSymbolMismatch = errors.New("symbol mismatch")
	ErrSupplyExceeded = errors.New("supply exceeded")
	ErrMemoTooLong    = errors.New("memo too long")
	ErrSelfTransfer   = errors.New("cannot transfer to self")
	ErrUnknownAccount = errors.New("unknown account")
	ErrOverdrawn      = errors.New("overdrawn balance")
	ErrUnauthorized   = errors.New("unauthorized")
)
