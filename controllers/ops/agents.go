package ops

import (
	"log"

	"playgate/agents"
	"playgate/database"
	"playgate/helpers"
	"playgate/models"
	"playgate/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type agentStatus struct {
	Code    string          `json:"code"`
	Alive   bool            `json:"alive"`
	Balance decimal.Decimal `json:"balance"`
	Error   string          `json:"error,omitempty"`
}

// AgentStatusHandler probes every registered agent for liveness and the
// platform's float balance there, snapshotting the floats for trend charts.
func AgentStatusHandler(c *fiber.Ctx) error {
	factory := wallet.Agents()
	store := agents.NewConfigStore(database.DB)

	var out []agentStatus
	for _, code := range agents.Codes() {
		st := agentStatus{Code: code}

		agent, err := factory.Agent(code)
		if err != nil {
			st.Error = err.Error()
			out = append(out, st)
			continue
		}

		if err := agent.CheckStatus(c.Context()); err != nil {
			st.Error = err.Error()
			out = append(out, st)
			continue
		}
		st.Alive = true

		balance, err := agent.AgentBalance(c.Context())
		if err != nil {
			st.Error = err.Error()
			out = append(out, st)
			continue
		}
		st.Balance = balance

		if cfg, err := store.ByCode(code); err == nil {
			snap := models.AgentFloat{AgentConfigID: cfg.ID, Balance: balance}
			if err := database.DB.Create(&snap).Error; err != nil {
				log.Printf("❌ [ops] snapshot float for %s: %v", code, err)
			}
		}
		out = append(out, st)
	}

	return helpers.JSONSuccess(c, "Agent status retrieved", out)
}

type flushRequest struct {
	Code string `json:"code"`
}

// FlushAgentsHandler drops cached adapter singletons so the next call
// re-reads config. Empty code flushes everything.
func FlushAgentsHandler(c *fiber.Ctx) error {
	var req flushRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}

	if req.Code == "" {
		wallet.Agents().ClearAll()
	} else {
		wallet.Agents().ClearCache(req.Code)
	}
	return helpers.JSONSuccess(c, "Agent cache flushed", fiber.Map{"code": req.Code})
}
