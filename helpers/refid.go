package helpers

import "github.com/google/uuid"

// NewRefID issues a transfer reference id. Upstream agents treat it as an
// idempotency token, so every money-moving call gets a fresh one unless the
// caller is retrying an earlier transfer.
func NewRefID() string {
	return uuid.New().String()
}
