package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"playgate/agents"
	"playgate/helpers"
	"playgate/models"

	"github.com/shopspring/decimal"
)

// AgentResolver is the slice of the agent factory the orchestrator needs.
type AgentResolver interface {
	AgentByID(id uint) (agents.Agent, error)
}

// Orchestrator owns the launch saga: resolve the agent that hosts a game,
// make sure the player has an account there, move the player's funds over
// from wherever they last played, and launch.
type Orchestrator struct {
	store  Store
	agents AgentResolver
	locks  *userLocks
}

func NewOrchestrator(store Store, resolver AgentResolver) *Orchestrator {
	return &Orchestrator{
		store:  store,
		agents: resolver,
		locks:  newUserLocks(),
	}
}

// LaunchGame runs the full saga for one request and returns a playable URL.
//
// Failures that block gameplay (unroutable game, registration failure) come
// back as errors. Failures that only degrade the swap are logged and play
// proceeds: a zero-balance session is recoverable by the player, blocking
// every launch on a transient swap hiccup is not.
func (o *Orchestrator) LaunchGame(ctx context.Context, userID, gameID uint, lang string) (string, error) {
	unlock := o.locks.lock(userID)
	defer unlock()

	user, err := o.store.UserByID(userID)
	if err != nil {
		return "", err
	}

	game, err := o.store.GameByID(gameID)
	if err != nil {
		return "", err
	}

	targetID, err := o.resolveAgentID(game)
	if err != nil {
		return "", err
	}
	target, err := o.agents.AgentByID(targetID)
	if err != nil {
		return "", err
	}

	acct, err := o.ensureAccount(ctx, user, targetID, target)
	if err != nil {
		return "", fmt.Errorf("wallet: ensure account on agent %d: %w", targetID, err)
	}

	if user.LastActiveAgentID != nil && *user.LastActiveAgentID != targetID {
		o.swap(ctx, user, *user.LastActiveAgentID, targetID, target, acct)
	}

	// The pointer tracks where the player is interacting, not whether the
	// swap moved every cent. Updated even after a degraded swap.
	if user.LastActiveAgentID == nil || *user.LastActiveAgentID != targetID {
		if err := o.store.SetLastActiveAgent(user.ID, targetID); err != nil {
			log.Printf("❌ [wallet] user %d: persist last active agent %d: %v", user.ID, targetID, err)
		}
	}

	url, err := target.LaunchGame(ctx, acct.ExternalUsername, game.Slug, game.Provider.Slug, lang)
	if err != nil {
		return "", fmt.Errorf("wallet: launch %s on agent %s: %w", game.Slug, target.Code(), err)
	}
	return url, nil
}

// resolveAgentID applies the routing precedence: game override, then provider
// default, then the platform's main active agent.
func (o *Orchestrator) resolveAgentID(game *models.Game) (uint, error) {
	if game.AgentConfigID != nil {
		return *game.AgentConfigID, nil
	}
	if game.Provider.DefaultAgentID != nil {
		return *game.Provider.DefaultAgentID, nil
	}
	cfg, err := o.store.MainAgentConfig()
	if err != nil {
		return 0, fmt.Errorf("wallet: game %s has no routable agent: %w", game.Slug, err)
	}
	return cfg.ID, nil
}

// ensureAccount returns the user's account on the target agent, registering
// lazily on first use. Registration failure is fatal to the launch.
func (o *Orchestrator) ensureAccount(ctx context.Context, user *models.User, agentID uint, agent agents.Agent) (*models.ExternalAccount, error) {
	acct, err := o.store.Account(user.ID, agentID)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	creds, err := agent.Register(ctx, user.ID, user.Phone)
	if err != nil {
		return nil, err
	}

	acct = &models.ExternalAccount{
		UserID:           user.ID,
		AgentConfigID:    agentID,
		ExternalUsername: creds.Username,
		ExternalPassword: creds.Password,
	}
	if err := o.store.CreateAccount(acct); err != nil {
		return nil, err
	}
	log.Printf("✅ [wallet] user %d registered on agent %s as %s", user.ID, agent.Code(), creds.Username)
	return acct, nil
}

// swap drains the user's wallet on the source agent into the target agent.
// Never fails the launch: every failure path logs and returns. The one case
// that needs a human (money left the source but never reached the target) is
// persisted as a PENDING reconciliation besides the CRITICAL log line.
func (o *Orchestrator) swap(ctx context.Context, user *models.User, sourceID, targetID uint, target agents.Agent, targetAcct *models.ExternalAccount) {
	source, err := o.agents.AgentByID(sourceID)
	if err != nil {
		log.Printf("❌ [wallet] swap user %d: resolve source agent %d: %v", user.ID, sourceID, err)
		return
	}

	srcAcct, err := o.store.Account(user.ID, sourceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// No account on the source means nothing to move.
			return
		}
		log.Printf("❌ [wallet] swap user %d: load source account: %v", user.ID, err)
		return
	}

	amount, err := source.WithdrawAll(ctx, srcAcct.ExternalUsername)
	if err != nil {
		// Funds stay at the source; the player can retry. A timed-out
		// withdrawal is treated as "did not happen" even though the
		// upstream may have processed it, which is why transfers carry
		// idempotent refs.
		log.Printf("❌ [wallet] swap user %d: withdraw all from %s: %v", user.ID, source.Code(), err)
		return
	}
	if !amount.IsPositive() {
		return
	}

	refID := helpers.NewRefID()
	if err := target.Deposit(ctx, targetAcct.ExternalUsername, amount, refID); err != nil {
		o.recordStrandedFunds(user, sourceID, targetID, source.Code(), target.Code(), amount, refID, err)
		return
	}

	log.Printf("✅ [wallet] swap user %d: moved %s from %s to %s",
		user.ID, amount.StringFixed(2), source.Code(), target.Code())
}

// recordStrandedFunds persists the operator-attention case: the source
// withdrawal already happened and cannot be un-done without another upstream
// call that could itself fail, so no automatic rollback is attempted.
func (o *Orchestrator) recordStrandedFunds(user *models.User, sourceID, targetID uint, sourceCode, targetCode string, amount decimal.Decimal, refID string, cause error) {
	log.Printf("🚨 CRITICAL [wallet] stranded funds: user %d amount %s withdrawn from %s but deposit to %s failed: %v",
		user.ID, amount.StringFixed(2), sourceCode, targetCode, cause)

	detail, _ := json.Marshal(map[string]any{
		"source_agent": sourceCode,
		"target_agent": targetCode,
		"error":        cause.Error(),
		"occurred_at":  time.Now().UTC().Format(time.RFC3339),
	})

	rec := &models.Reconciliation{
		UserID:        user.ID,
		SourceAgentID: sourceID,
		TargetAgentID: targetID,
		Amount:        amount,
		RefID:         refID,
		Status:        models.ReconPending,
		Detail:        detail,
		Note:          fmt.Sprintf("deposit to %s failed after withdraw from %s", targetCode, sourceCode),
	}
	if err := o.store.CreateReconciliation(rec); err != nil {
		log.Printf("🚨 CRITICAL [wallet] stranded funds for user %d could not be persisted (ref %s): %v", user.ID, refID, err)
	}
}
