package agents

import (
	"errors"
	"testing"

	"playgate/models"
)

func newFactoryStore() *fakeConfigStore {
	return &fakeConfigStore{
		configs: map[string]models.AgentConfig{
			CodeGSC:  {Code: CodeGSC},
			CodeGold: {Code: CodeGold},
		},
	}
}

func TestFactorySingleton(t *testing.T) {
	f := NewFactory(newFactoryStore())

	a, err := f.Agent(CodeGSC)
	if err != nil {
		t.Fatalf("Agent: %v", err)
	}
	b, err := f.Agent(CodeGSC)
	if err != nil {
		t.Fatalf("Agent: %v", err)
	}
	if a != b {
		t.Error("same code returned two instances")
	}
}

func TestFactoryUnknownCode(t *testing.T) {
	f := NewFactory(newFactoryStore())

	if _, err := f.Agent("nope"); !errors.Is(err, ErrUnknownAgent) {
		t.Errorf("err = %v, want ErrUnknownAgent", err)
	}
}

func TestFactoryAgentByID(t *testing.T) {
	store := newFactoryStore()
	cfg := store.configs[CodeGSC]
	cfg.ID = 3
	store.configs[CodeGSC] = cfg

	f := NewFactory(store)
	a, err := f.AgentByID(3)
	if err != nil {
		t.Fatalf("AgentByID: %v", err)
	}
	if a.Code() != CodeGSC {
		t.Errorf("code = %s, want %s", a.Code(), CodeGSC)
	}

	if _, err := f.AgentByID(99); err == nil {
		t.Error("unknown id did not error")
	}
}

func TestFactoryMainAgent(t *testing.T) {
	t.Run("configured main wins", func(t *testing.T) {
		store := newFactoryStore()
		store.main = CodeGSC

		f := NewFactory(store)
		a, err := f.MainAgent()
		if err != nil {
			t.Fatalf("MainAgent: %v", err)
		}
		if a.Code() != CodeGSC {
			t.Errorf("code = %s, want %s", a.Code(), CodeGSC)
		}
	})

	t.Run("fallback when none configured", func(t *testing.T) {
		f := NewFactory(newFactoryStore())
		a, err := f.MainAgent()
		if err != nil {
			t.Fatalf("MainAgent: %v", err)
		}
		if a.Code() != FallbackAgentCode {
			t.Errorf("code = %s, want fallback %s", a.Code(), FallbackAgentCode)
		}
	})
}

func TestFactoryClearCache(t *testing.T) {
	f := NewFactory(newFactoryStore())

	a, _ := f.Agent(CodeGold)
	f.ClearCache(CodeGold)
	b, _ := f.Agent(CodeGold)
	if a == b {
		t.Error("ClearCache left the old instance in place")
	}

	c, _ := f.Agent(CodeGSC)
	f.ClearAll()
	d, _ := f.Agent(CodeGSC)
	if c == d {
		t.Error("ClearAll left the old instance in place")
	}
}
