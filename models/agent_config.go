package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AgentConfig is one configured upstream game agent. The credential fields
// (APIKey, APISecret, RoutingPrefix, SitePrefix, GameEntrance) are opaque to
// everything except the adapter for that agent code.
type AgentConfig struct {
	gorm.Model

	Code     string `gorm:"uniqueIndex;size:32" json:"code"`
	Name     string `gorm:"size:64" json:"name"`
	IsMain   bool   `gorm:"default:false" json:"is_main"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	APIBaseURL    string `gorm:"size:255" json:"api_base_url"`
	APIKey        string `gorm:"size:128" json:"-"`
	APISecret     string `gorm:"size:128" json:"-"`
	RoutingPrefix string `gorm:"size:16" json:"routing_prefix"`
	SitePrefix    string `gorm:"size:16" json:"site_prefix"`
	GameEntrance  string `gorm:"size:255" json:"game_entrance"`
}

// ExternalAccount maps an internal user to the username/password issued by one
// agent. Created lazily on first use, unique per (user, agent), never deleted.
type ExternalAccount struct {
	gorm.Model

	UserID           uint   `gorm:"index:idx_user_agent,unique"`
	AgentConfigID    uint   `gorm:"index:idx_user_agent,unique"`
	ExternalUsername string `gorm:"size:64" json:"external_username"`
	ExternalPassword string `gorm:"size:64" json:"-"`
}

// Provider groups games under one upstream studio/aggregator brand.
type Provider struct {
	gorm.Model

	Slug           string `gorm:"uniqueIndex;size:64" json:"slug"`
	Name           string `gorm:"size:64" json:"name"`
	DefaultAgentID *uint  `gorm:"index" json:"default_agent_id"`
}

// Game routing precedence: Game.AgentConfigID override, then the provider
// default, then the platform's main active agent.
type Game struct {
	gorm.Model

	Slug          string   `gorm:"uniqueIndex;size:64" json:"slug"`
	Name          string   `gorm:"size:128" json:"name"`
	ProviderID    uint     `gorm:"index"`
	Provider      Provider `json:"provider"`
	AgentConfigID *uint    `gorm:"index" json:"agent_config_id"`
	IsActive      bool     `gorm:"default:true" json:"is_active"`
}

// AgentFloat is a point-in-time snapshot of the platform's own credit balance
// held with one upstream agent, written by the ops status probe.
type AgentFloat struct {
	gorm.Model

	AgentConfigID uint            `gorm:"index"`
	Balance       decimal.Decimal `gorm:"type:numeric(20,2)" json:"balance"`
}
