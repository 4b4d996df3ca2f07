package user

import (
	"playgate/helpers"
	"playgate/wallet"

	"github.com/gofiber/fiber/v2"
)

type CheckBalanceRequest struct {
	UserID uint `json:"user_id"`
}

func CheckUserBalance(c *fiber.Ctx) error {
	var req CheckBalanceRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}
	if req.UserID == 0 {
		return helpers.JSONError(c, "USER_ID_REQUIRED")
	}

	logical, agentSide, err := wallet.Default().Balance(c.Context(), req.UserID)
	if err != nil {
		return helpers.JSONError(c, "FAILED_TO_GET_BALANCE: "+err.Error())
	}

	return helpers.JSONSuccess(c, "Balance retrieved successfully", fiber.Map{
		"balance":       logical,
		"agent_balance": agentSide,
	})
}
