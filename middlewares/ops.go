package middlewares

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"os"

	"github.com/gofiber/fiber/v2"
)

// OpsAuth guards the operator surface with an HMAC signature over the
// operator code, keyed by the shared secret from env.
func OpsAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Signature string `json:"signature"`
		}

		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"status": 0,
				"msg":    "INVALID_JSON",
			})
		}

		opsCode := os.Getenv("OPS_CODE")
		opsSecret := os.Getenv("OPS_SECRET")

		h := hmac.New(sha256.New, []byte(opsSecret))
		h.Write([]byte(opsCode + opsSecret))
		expectedSignature := hex.EncodeToString(h.Sum(nil))

		if !hmac.Equal([]byte(body.Signature), []byte(expectedSignature)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status": 0,
				"msg":    "INVALID_SIGNATURE",
			})
		}

		return c.Next()
	}
}
