package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TrxDeposit        = "DEPOSIT"
	TrxWithdraw       = "WITHDRAW"
	TrxBet            = "BET"
	TrxRewardRakeback = "REWARD_RAKEBACK"
	TrxRewardCashback = "REWARD_CASHBACK"
)

const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Transaction is the append-only ledger. Rows are never deleted; the only
// permitted mutation is the status moving PENDING -> COMPLETED or
// PENDING -> FAILED.
type Transaction struct {
	gorm.Model

	UserID uint   `gorm:"index"`
	Type   string `gorm:"size:24;index" json:"type"`

	Amount        decimal.Decimal `gorm:"type:numeric(20,2)" json:"amount"`
	BalanceBefore decimal.Decimal `gorm:"type:numeric(20,2)" json:"balance_before"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(20,2)" json:"balance_after"`

	Status      string `gorm:"size:16;index" json:"status"`
	Note        string `gorm:"size:255" json:"note"`
	RefID       string `gorm:"size:64;index" json:"ref_id"`
	ExternalRef string `gorm:"size:64" json:"external_ref"`
}

// Transition enforces the ledger's status rules.
func (t *Transaction) Transition(next string) error {
	if t.Status != StatusPending {
		return fmt.Errorf("transaction %d is %s, cannot move to %s", t.ID, t.Status, next)
	}
	if next != StatusCompleted && next != StatusFailed {
		return fmt.Errorf("invalid transaction status %q", next)
	}
	t.Status = next
	return nil
}
