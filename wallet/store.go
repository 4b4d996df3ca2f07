package wallet

import (
	"errors"
	"fmt"

	"playgate/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned by Store lookups for missing rows so callers do not
// depend on the storage driver's sentinel.
var ErrNotFound = errors.New("wallet: not found")

// Store is the persistence surface the orchestrator and transfer flows need.
// The GORM implementation below is the production one; tests use fakes.
type Store interface {
	UserByID(id uint) (*models.User, error)
	SaveUserBalance(user *models.User) error
	SetLastActiveAgent(userID, agentID uint) error

	GameByID(id uint) (*models.Game, error)
	MainAgentConfig() (*models.AgentConfig, error)

	Account(userID, agentID uint) (*models.ExternalAccount, error)
	CreateAccount(acct *models.ExternalAccount) error

	CreateTransaction(trx *models.Transaction) error
	FinishTransaction(trx *models.Transaction, status string) error

	CreateReconciliation(rec *models.Reconciliation) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) UserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ? AND is_active = true", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) SaveUserBalance(user *models.User) error {
	return s.db.Model(user).Update("balance", user.Balance).Error
}

func (s *gormStore) SetLastActiveAgent(userID, agentID uint) error {
	return s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_active_agent_id", agentID).Error
}

func (s *gormStore) GameByID(id uint) (*models.Game, error) {
	var game models.Game
	if err := s.db.Preload("Provider").
		Where("id = ? AND is_active = true", id).
		First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: game %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &game, nil
}

func (s *gormStore) MainAgentConfig() (*models.AgentConfig, error) {
	var cfg models.AgentConfig
	if err := s.db.Where("is_main = true AND is_active = true").First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: main agent config", ErrNotFound)
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *gormStore) Account(userID, agentID uint) (*models.ExternalAccount, error) {
	var acct models.ExternalAccount
	if err := s.db.Where("user_id = ? AND agent_config_id = ?", userID, agentID).
		First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: account user=%d agent=%d", ErrNotFound, userID, agentID)
		}
		return nil, err
	}
	return &acct, nil
}

func (s *gormStore) CreateAccount(acct *models.ExternalAccount) error {
	return s.db.Create(acct).Error
}

func (s *gormStore) CreateTransaction(trx *models.Transaction) error {
	return s.db.Create(trx).Error
}

func (s *gormStore) FinishTransaction(trx *models.Transaction, status string) error {
	if err := trx.Transition(status); err != nil {
		return err
	}
	return s.db.Model(trx).Update("status", trx.Status).Error
}

func (s *gormStore) CreateReconciliation(rec *models.Reconciliation) error {
	return s.db.Create(rec).Error
}
