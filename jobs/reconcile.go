package jobs

import (
	"context"
	"log"
	"time"

	"playgate/database"
	"playgate/models"
	"playgate/wallet"
)

const (
	reconInterval    = 2 * time.Minute
	maxReconAttempts = 5
)

// StartReconciliationScheduler retries stranded-funds deposits in the
// background. Rows that exhaust their attempts flip to FAILED and stay in the
// operator queue.
func StartReconciliationScheduler() {
	ticker := time.NewTicker(reconInterval)
	go func() {
		for {
			<-ticker.C
			if err := runReconciliations(); err != nil {
				log.Printf("❌ [recon] sweep failed: %v", err)
			}
		}
	}()
}

func runReconciliations() error {
	var recs []models.Reconciliation
	if err := database.DB.
		Where("status = ?", models.ReconPending).
		Order("created_at ASC").
		Limit(50).
		Find(&recs).Error; err != nil {
		return err
	}

	for i := range recs {
		retryReconciliation(&recs[i])
	}
	return nil
}

func retryReconciliation(rec *models.Reconciliation) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	rec.Attempts++

	agent, err := wallet.Agents().AgentByID(rec.TargetAgentID)
	if err != nil {
		finishAttempt(rec, err)
		return
	}

	var acct models.ExternalAccount
	if err := database.DB.
		Where("user_id = ? AND agent_config_id = ?", rec.UserID, rec.TargetAgentID).
		First(&acct).Error; err != nil {
		finishAttempt(rec, err)
		return
	}

	// Reuse the original ref so an upstream that did process the earlier
	// deposit treats this as the same transfer.
	if err := agent.Deposit(ctx, acct.ExternalUsername, rec.Amount, rec.RefID); err != nil {
		finishAttempt(rec, err)
		return
	}

	rec.Status = models.ReconResolved
	if err := database.DB.Model(rec).Updates(map[string]any{
		"status":   rec.Status,
		"attempts": rec.Attempts,
	}).Error; err != nil {
		log.Printf("❌ [recon] %d resolved but not persisted: %v", rec.ID, err)
		return
	}
	log.Printf("✅ [recon] %d resolved: user %d amount %s delivered to agent %d",
		rec.ID, rec.UserID, rec.Amount.StringFixed(2), rec.TargetAgentID)
}

func finishAttempt(rec *models.Reconciliation, cause error) {
	log.Printf("❌ [recon] %d attempt %d failed: %v", rec.ID, rec.Attempts, cause)

	if rec.Attempts >= maxReconAttempts {
		rec.Status = models.ReconFailed
		log.Printf("🚨 CRITICAL [recon] %d exhausted retries: user %d amount %s needs manual correction",
			rec.ID, rec.UserID, rec.Amount.StringFixed(2))
	}

	if err := database.DB.Model(rec).Updates(map[string]any{
		"status":   rec.Status,
		"attempts": rec.Attempts,
	}).Error; err != nil {
		log.Printf("❌ [recon] %d attempt not persisted: %v", rec.ID, err)
	}
}
