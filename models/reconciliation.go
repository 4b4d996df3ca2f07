package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ReconPending  = "PENDING"
	ReconResolved = "RESOLVED"
	ReconFailed   = "FAILED"
)

// Reconciliation records stranded funds: a swap whose source withdrawal
// succeeded but whose target deposit did not. The retry job re-attempts the
// deposit with the original ref id; rows that exhaust their attempts stay in
// the operator queue as FAILED.
type Reconciliation struct {
	gorm.Model

	UserID        uint `gorm:"index"`
	SourceAgentID uint `gorm:"index"`
	TargetAgentID uint `gorm:"index"`

	Amount decimal.Decimal `gorm:"type:numeric(20,2)" json:"amount"`
	RefID  string          `gorm:"size:64;uniqueIndex" json:"ref_id"`

	Status   string         `gorm:"size:16;index" json:"status"`
	Attempts int            `json:"attempts"`
	Detail   datatypes.JSON `json:"detail"`
	Note     string         `gorm:"size:255" json:"note"`
}
