package wallet

import (
	"sync"

	"playgate/agents"
	"playgate/database"
)

var (
	wireOnce       sync.Once
	defaultFactory *agents.Factory
	defaultOrch    *Orchestrator
)

func wire() {
	wireOnce.Do(func() {
		defaultFactory = agents.NewFactory(agents.NewConfigStore(database.DB))
		defaultOrch = NewOrchestrator(NewStore(database.DB), defaultFactory)
	})
}

// Default is the process-wide orchestrator backed by database.DB. Call after
// database.Connect.
func Default() *Orchestrator {
	wire()
	return defaultOrch
}

// Agents is the process-wide adapter factory.
func Agents() *agents.Factory {
	wire()
	return defaultFactory
}
