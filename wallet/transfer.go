package wallet

import (
	"context"
	"errors"
	"fmt"
	"log"

	"playgate/agents"
	"playgate/helpers"
	"playgate/models"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientBalance = errors.New("wallet: insufficient balance")
	ErrInvalidAmount       = errors.New("wallet: amount must be positive")
)

// Deposit credits the user's logical balance and pushes the same amount into
// their active agent wallet. The ledger row goes PENDING first; if the agent
// push fails the row ends FAILED and the logical credit is compensated back.
func (o *Orchestrator) Deposit(ctx context.Context, userID uint, amount decimal.Decimal, note string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	unlock := o.locks.lock(userID)
	defer unlock()

	user, err := o.store.UserByID(userID)
	if err != nil {
		return nil, err
	}

	agentID, agent, err := o.activeAgent(user)
	if err != nil {
		return nil, err
	}
	acct, err := o.ensureAccount(ctx, user, agentID, agent)
	if err != nil {
		return nil, err
	}

	if note == "" {
		note = "deposit via api"
	}
	trx := &models.Transaction{
		UserID:        user.ID,
		Type:          models.TrxDeposit,
		Amount:        amount,
		BalanceBefore: user.Balance,
		BalanceAfter:  user.Balance.Add(amount),
		Status:        models.StatusPending,
		Note:          note,
		RefID:         helpers.NewRefID(),
	}
	if err := o.store.CreateTransaction(trx); err != nil {
		return nil, err
	}

	user.Balance = user.Balance.Add(amount)
	if err := o.store.SaveUserBalance(user); err != nil {
		return nil, err
	}

	if err := agent.Deposit(ctx, acct.ExternalUsername, amount, trx.RefID); err != nil {
		// Money never reached the agent wallet: take the logical credit
		// back and close the row FAILED.
		user.Balance = user.Balance.Sub(amount)
		if saveErr := o.store.SaveUserBalance(user); saveErr != nil {
			log.Printf("🚨 CRITICAL [wallet] user %d: compensating failed deposit %s: %v", user.ID, trx.RefID, saveErr)
		}
		if finErr := o.store.FinishTransaction(trx, models.StatusFailed); finErr != nil {
			log.Printf("❌ [wallet] user %d: mark deposit %s failed: %v", user.ID, trx.RefID, finErr)
		}
		return nil, fmt.Errorf("wallet: deposit to agent %s: %w", agent.Code(), err)
	}

	if user.LastActiveAgentID == nil || *user.LastActiveAgentID != agentID {
		if err := o.store.SetLastActiveAgent(user.ID, agentID); err != nil {
			log.Printf("❌ [wallet] user %d: persist last active agent %d: %v", user.ID, agentID, err)
		}
	}
	if err := o.store.FinishTransaction(trx, models.StatusCompleted); err != nil {
		log.Printf("❌ [wallet] user %d: mark deposit %s completed: %v", user.ID, trx.RefID, err)
	}
	return trx, nil
}

// Withdraw pulls funds out of the user's active agent wallet and debits the
// logical balance. The agent-side debit happens before any local change, so a
// rejected upstream call leaves the ledger row FAILED with nothing to unwind.
func (o *Orchestrator) Withdraw(ctx context.Context, userID uint, amount decimal.Decimal, note string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	unlock := o.locks.lock(userID)
	defer unlock()

	user, err := o.store.UserByID(userID)
	if err != nil {
		return nil, err
	}
	if user.Balance.LessThan(amount) {
		return nil, ErrInsufficientBalance
	}

	agentID, agent, err := o.activeAgent(user)
	if err != nil {
		return nil, err
	}
	acct, err := o.store.Account(user.ID, agentID)
	if err != nil {
		return nil, err
	}

	if note == "" {
		note = "withdraw via api"
	}
	trx := &models.Transaction{
		UserID:        user.ID,
		Type:          models.TrxWithdraw,
		Amount:        amount,
		BalanceBefore: user.Balance,
		BalanceAfter:  user.Balance.Sub(amount),
		Status:        models.StatusPending,
		Note:          note,
		RefID:         helpers.NewRefID(),
	}
	if err := o.store.CreateTransaction(trx); err != nil {
		return nil, err
	}

	if err := agent.Withdraw(ctx, acct.ExternalUsername, amount, trx.RefID); err != nil {
		if finErr := o.store.FinishTransaction(trx, models.StatusFailed); finErr != nil {
			log.Printf("❌ [wallet] user %d: mark withdraw %s failed: %v", user.ID, trx.RefID, finErr)
		}
		return nil, fmt.Errorf("wallet: withdraw from agent %s: %w", agent.Code(), err)
	}

	user.Balance = user.Balance.Sub(amount)
	if err := o.store.SaveUserBalance(user); err != nil {
		log.Printf("🚨 CRITICAL [wallet] user %d: agent debited but balance save failed (ref %s): %v", user.ID, trx.RefID, err)
		return nil, err
	}
	if err := o.store.FinishTransaction(trx, models.StatusCompleted); err != nil {
		log.Printf("❌ [wallet] user %d: mark withdraw %s completed: %v", user.ID, trx.RefID, err)
	}
	return trx, nil
}

// Balance reports the logical balance alongside the live balance held at the
// user's active agent. The two should match outside in-flight race windows.
func (o *Orchestrator) Balance(ctx context.Context, userID uint) (logical, agentSide decimal.Decimal, err error) {
	user, err := o.store.UserByID(userID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	if user.LastActiveAgentID == nil {
		return user.Balance, decimal.Zero, nil
	}

	agent, err := o.agents.AgentByID(*user.LastActiveAgentID)
	if err != nil {
		return user.Balance, decimal.Zero, err
	}
	acct, err := o.store.Account(user.ID, *user.LastActiveAgentID)
	if err != nil {
		return user.Balance, decimal.Zero, err
	}

	agentSide, err = agent.Balance(ctx, acct.ExternalUsername)
	if err != nil {
		return user.Balance, decimal.Zero, err
	}
	return user.Balance, agentSide, nil
}

// activeAgent resolves where the user's money currently sits, defaulting to
// the platform's main agent for users who never played.
func (o *Orchestrator) activeAgent(user *models.User) (uint, agents.Agent, error) {
	if user.LastActiveAgentID != nil {
		agent, err := o.agents.AgentByID(*user.LastActiveAgentID)
		if err != nil {
			return 0, nil, err
		}
		return *user.LastActiveAgentID, agent, nil
	}

	cfg, err := o.store.MainAgentConfig()
	if err != nil {
		return 0, nil, err
	}
	agent, err := o.agents.AgentByID(cfg.ID)
	if err != nil {
		return 0, nil, err
	}
	return cfg.ID, agent, nil
}
