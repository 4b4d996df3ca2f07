package agents

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Credentials is what an upstream agent issues for one of our users. Password
// may be empty when the agent does not require one for launch.
type Credentials struct {
	Username string
	Password string
}

type ProviderInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type GameInfo struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	ProviderCode string `json:"provider_code"`
}

var (
	// ErrUnknownAgent means the requested agent code has no registered
	// adapter. Hard error, no fallback.
	ErrUnknownAgent = errors.New("agents: unknown agent code")

	// ErrRejected is a logical rejection by the upstream (insufficient
	// balance, bad request), as opposed to a transport failure.
	ErrRejected = errors.New("agents: rejected by upstream")

	// ErrDuplicateUser is the upstream saying the username already exists.
	// Register absorbs it; exposed for tests and adapter internals.
	ErrDuplicateUser = errors.New("agents: user already exists upstream")

	// ErrNoAccount means the external username is not known upstream.
	ErrNoAccount = errors.New("agents: no such account upstream")
)

// Agent is the capability contract every upstream integration satisfies.
//
// Every method returns an explicit error instead of a falsy sentinel so that
// callers can tell "legitimately zero" from "could not determine". The wallet
// orchestrator decides per call site whether a failure blocks gameplay.
type Agent interface {
	// Code is the agent code this adapter serves.
	Code() string

	// Register creates our user on the upstream agent. If the upstream
	// reports the identity already exists the call still succeeds with the
	// existing username, so a retry after a partial earlier success works.
	Register(ctx context.Context, userID uint, phone string) (*Credentials, error)

	// Balance reads the user's wallet balance held by this agent.
	Balance(ctx context.Context, username string) (decimal.Decimal, error)

	// Deposit credits the external wallet. refID is the caller's idempotency
	// reference; adapters generate one when it is empty.
	Deposit(ctx context.Context, username string, amount decimal.Decimal, refID string) error

	// Withdraw debits the external wallet by exactly amount.
	Withdraw(ctx context.Context, username string, amount decimal.Decimal, refID string) error

	// WithdrawAll reads the current balance and withdraws exactly that
	// amount, returning it. A zero balance returns zero with no transfer
	// call made upstream.
	WithdrawAll(ctx context.Context, username string) (decimal.Decimal, error)

	// LaunchGame builds or requests a playable session URL.
	LaunchGame(ctx context.Context, username, gameCode, providerCode, lang string) (string, error)

	// CheckStatus is a liveness probe against the upstream.
	CheckStatus(ctx context.Context) error

	// AgentBalance is the platform's own float held with this agent,
	// distinct from any player wallet.
	AgentBalance(ctx context.Context) (decimal.Decimal, error)

	// GameProviders and Games discover the agent's catalog.
	GameProviders(ctx context.Context) ([]ProviderInfo, error)
	Games(ctx context.Context, providerCode string) ([]GameInfo, error)
}
