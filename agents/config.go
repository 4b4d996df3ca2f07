package agents

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"playgate/models"

	"gorm.io/gorm"
)

// ErrConfigNotFound covers both a missing row and an inactive agent config.
var ErrConfigNotFound = errors.New("agents: agent config not found")

// ConfigStore reads persisted agent connection settings. Only active configs
// are returned; the core never writes them.
type ConfigStore interface {
	ByCode(code string) (*models.AgentConfig, error)
	ByID(id uint) (*models.AgentConfig, error)
	Main() (*models.AgentConfig, error)
}

type gormConfigStore struct {
	db *gorm.DB
}

func NewConfigStore(db *gorm.DB) ConfigStore {
	return &gormConfigStore{db: db}
}

func (s *gormConfigStore) ByCode(code string) (*models.AgentConfig, error) {
	var cfg models.AgentConfig
	if err := s.db.Where("code = ? AND is_active = true", code).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: code %s", ErrConfigNotFound, code)
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *gormConfigStore) ByID(id uint) (*models.AgentConfig, error) {
	var cfg models.AgentConfig
	if err := s.db.Where("id = ? AND is_active = true", id).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrConfigNotFound, id)
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *gormConfigStore) Main() (*models.AgentConfig, error) {
	var cfg models.AgentConfig
	if err := s.db.Where("is_main = true AND is_active = true").First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no main agent configured", ErrConfigNotFound)
		}
		return nil, err
	}
	return &cfg, nil
}

// configTTL is the freshness window for adapter-held config snapshots.
// Credential rotation becomes visible within one window.
const configTTL = 60 * time.Second

type configSnapshot struct {
	cfg       models.AgentConfig
	fetchedAt time.Time
}

// configCache hands each adapter an immutable snapshot of its AgentConfig and
// replaces it wholesale once the TTL lapses. Concurrent expiry can at most
// cause a duplicate re-read, never a partial snapshot.
type configCache struct {
	code  string
	store ConfigStore
	ttl   time.Duration
	now   func() time.Time

	mu   sync.Mutex
	snap *configSnapshot
}

func newConfigCache(code string, store ConfigStore) *configCache {
	return &configCache{code: code, store: store, ttl: configTTL, now: time.Now}
}

func (c *configCache) get() (models.AgentConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap != nil && c.now().Sub(c.snap.fetchedAt) < c.ttl {
		return c.snap.cfg, nil
	}

	cfg, err := c.store.ByCode(c.code)
	if err != nil {
		// Keep serving the stale snapshot rather than failing a call over
		// a transient store hiccup.
		if c.snap != nil {
			return c.snap.cfg, nil
		}
		return models.AgentConfig{}, err
	}

	c.snap = &configSnapshot{cfg: *cfg, fetchedAt: c.now()}
	return c.snap.cfg, nil
}

func (c *configCache) invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}
