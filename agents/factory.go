package agents

import (
	"fmt"
	"sync"
)

// FallbackAgentCode is used by MainAgent when no config row is flagged
// is_main, so a misconfigured platform still routes somewhere known.
const FallbackAgentCode = CodeGold

// constructors is the enum-keyed registry. Adding an agent means adding one
// entry here plus one adapter implementation; call sites never change.
var constructors = map[string]func(ConfigStore) Agent{
	CodeGSC:  NewGSC,
	CodeGold: NewGold,
}

// Factory hands out one adapter instance per agent code for the life of the
// process. Adapters hold their own short-lived config caches, so per-request
// construction would defeat the cache and re-dial connections.
type Factory struct {
	store ConfigStore

	mu        sync.Mutex
	instances map[string]Agent
}

func NewFactory(store ConfigStore) *Factory {
	return &Factory{
		store:     store,
		instances: make(map[string]Agent),
	}
}

// Agent resolves a code to its singleton adapter. Unknown codes are a hard
// error, never a silent fallback.
func (f *Factory) Agent(code string) (Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if a, ok := f.instances[code]; ok {
		return a, nil
	}
	construct, ok := constructors[code]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, code)
	}
	a := construct(f.store)
	f.instances[code] = a
	return a, nil
}

// AgentByID resolves the config row for id, then delegates to Agent.
func (f *Factory) AgentByID(id uint) (Agent, error) {
	cfg, err := f.store.ByID(id)
	if err != nil {
		return nil, err
	}
	return f.Agent(cfg.Code)
}

// MainAgent returns the adapter for the is_main && is_active config, or the
// fallback code when none is configured.
func (f *Factory) MainAgent() (Agent, error) {
	cfg, err := f.store.Main()
	if err != nil {
		return f.Agent(FallbackAgentCode)
	}
	return f.Agent(cfg.Code)
}

// ClearCache drops the singleton for one code; the next access rebuilds it
// and therefore re-reads config.
func (f *Factory) ClearCache(code string) {
	f.mu.Lock()
	delete(f.instances, code)
	f.mu.Unlock()
}

// ClearAll drops every cached singleton.
func (f *Factory) ClearAll() {
	f.mu.Lock()
	f.instances = make(map[string]Agent)
	f.mu.Unlock()
}

// Codes lists the registered agent codes.
func Codes() []string {
	codes := make([]string, 0, len(constructors))
	for code := range constructors {
		codes = append(codes, code)
	}
	return codes
}
