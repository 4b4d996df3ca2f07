package user

import (
	"strings"

	"playgate/helpers"
	"playgate/wallet"

	"github.com/gofiber/fiber/v2"
)

type LaunchGameRequest struct {
	UserID uint   `json:"user_id"`
	GameID uint   `json:"game_id"`
	Lang   string `json:"lang"`
}

func LaunchGameHandler(c *fiber.Ctx) error {
	var req LaunchGameRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}
	if req.UserID == 0 || req.GameID == 0 {
		return helpers.JSONError(c, "USER_ID_AND_GAME_ID_REQUIRED")
	}
	if req.Lang == "" {
		req.Lang = "en"
	}

	launchURL, err := wallet.Default().LaunchGame(c.Context(), req.UserID, req.GameID, req.Lang)
	if err != nil {
		return helpers.JSONError(c, "FAILED_TO_START_GAME: "+err.Error())
	}

	// Some agents hand back protocol-relative URLs.
	if strings.HasPrefix(launchURL, "//") {
		launchURL = "https:" + launchURL
	}

	return helpers.JSONSuccess(c, "Game launched successfully", fiber.Map{
		"launch_url": launchURL,
	})
}
