package ops

import (
	"playgate/database"
	"playgate/helpers"
	"playgate/models"

	"github.com/gofiber/fiber/v2"
)

type reconListRequest struct {
	Status string `json:"status"`
	Limit  int    `json:"limit"`
}

// ReconciliationListHandler is the operator queue over stranded-funds
// records. Defaults to PENDING, newest first.
func ReconciliationListHandler(c *fiber.Ctx) error {
	var req reconListRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}
	if req.Status == "" {
		req.Status = models.ReconPending
	}
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 100
	}

	var recs []models.Reconciliation
	if err := database.DB.
		Where("status = ?", req.Status).
		Order("created_at DESC").
		Limit(req.Limit).
		Find(&recs).Error; err != nil {
		return helpers.JSONError(c, "FAILED_TO_LIST_RECONCILIATIONS")
	}

	return helpers.JSONSuccess(c, "Reconciliations retrieved", recs)
}
