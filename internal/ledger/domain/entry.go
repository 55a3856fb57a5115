// Package domain 账本流水
package domain

import "gorm.io/gorm"

// EntryType 流水类型
type EntryType string

const (
	EntryTypeIssue       EntryType = "ISSUE"
	EntryTypeTransferIn  EntryType = "TRANSFER_IN"
	EntryTypeTransferOut EntryType = "TRANSFER_OUT"
	EntryTypeGrant       EntryType = "GRANT"
	EntryTypeUnlock      EntryType = "UNLOCK"
)

// LedgerEntry 账本流水实体
// 每次余额变动追加一条，只增不改。
// Units 为本次变动量（转出为负），BalanceAfter/LiquidAfter 为变动后的快照。
type LedgerEntry struct {
	gorm.Model
	EntryID      string    `gorm:"column:entry_id;type:varchar(32);uniqueIndex;not null"`
	AccountID    string    `gorm:"column:account_id;type:varchar(64);index:idx_entry_account;not null"`
	Code         string    `gorm:"column:code;type:varchar(7);index:idx_entry_account;not null"`
	Type         EntryType `gorm:"column:type;type:varchar(16);not null"`
	Units        int64     `gorm:"column:units;not null"`
	BalanceAfter int64     `gorm:"column:balance_after;not null"`
	LiquidAfter  int64     `gorm:"column:liquid_after;not null"`
	ReferenceID  string    `gorm:"column:reference_id;type:varchar(64);index"`
	Memo         string    `gorm:"column:memo;type:varchar(256)"`
}

// TableName 表名
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
