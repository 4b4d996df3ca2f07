package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model

	Phone    string `gorm:"uniqueIndex;size:32" json:"phone"`
	Country  string `gorm:"size:64" json:"country"`
	Currency string `gorm:"size:8" json:"currency"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	// Balance is the platform's canonical number. The money physically sits
	// in the wallet of the agent referenced by LastActiveAgentID; every other
	// agent wallet for this user should be at zero.
	Balance           decimal.Decimal `gorm:"type:numeric(20,2)" json:"balance"`
	LastActiveAgentID *uint           `gorm:"index" json:"last_active_agent_id"`

	Accounts     []ExternalAccount `gorm:"foreignKey:UserID"`
	Transactions []Transaction     `gorm:"foreignKey:UserID"`
}
