package routes

import (
	"playgate/controllers/ops"
	"playgate/controllers/user"
	"playgate/middlewares"

	"github.com/gofiber/fiber/v2"
)

func Setup(app *fiber.App) {
	userroutes := app.Group("/player")
	userroutes.Post("/balance", user.CheckUserBalance)
	userroutes.Post("/transfer", user.TransferBalance)
	userroutes.Post("/games/start", user.LaunchGameHandler)

	opsroutes := app.Group("/ops", middlewares.OpsAuth())
	opsroutes.Post("/agents/status", ops.AgentStatusHandler)
	opsroutes.Post("/agents/flush", ops.FlushAgentsHandler)
	opsroutes.Post("/reconciliations", ops.ReconciliationListHandler)
}
