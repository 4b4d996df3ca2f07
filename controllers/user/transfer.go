package user

import (
	"errors"

	"playgate/helpers"
	"playgate/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type TransferRequest struct {
	UserID uint            `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

// TransferBalance moves funds between the platform and the user's active
// agent wallet: a positive amount deposits, a negative amount withdraws.
func TransferBalance(c *fiber.Ctx) error {
	var req TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, "INVALID_JSON")
	}
	if req.UserID == 0 || req.Amount.IsZero() {
		return helpers.JSONError(c, "USER_ID_AND_AMOUNT_REQUIRED")
	}

	orch := wallet.Default()

	var (
		refID  string
		status string
	)
	if req.Amount.IsPositive() {
		t, err := orch.Deposit(c.Context(), req.UserID, req.Amount, req.Note)
		if err != nil {
			return transferError(c, err)
		}
		refID, status = t.RefID, t.Status
	} else {
		t, err := orch.Withdraw(c.Context(), req.UserID, req.Amount.Neg(), req.Note)
		if err != nil {
			return transferError(c, err)
		}
		refID, status = t.RefID, t.Status
	}

	return helpers.JSONSuccess(c, "Balance updated successfully", fiber.Map{
		"ref_id": refID,
		"status": status,
	})
}

func transferError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, wallet.ErrInsufficientBalance):
		return helpers.JSONError(c, "INSUFFICIENT_USER_BALANCE")
	case errors.Is(err, wallet.ErrInvalidAmount):
		return helpers.JSONError(c, "INVALID_AMOUNT")
	default:
		return helpers.JSONError(c, "TRANSFER_FAILED: "+err.Error())
	}
}
