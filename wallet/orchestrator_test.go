package wallet

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"playgate/agents"
	"playgate/models"

	"github.com/shopspring/decimal"
)

// fakeAgent holds per-username wallet balances in memory and counts calls.
type fakeAgent struct {
	code     string
	balances map[string]decimal.Decimal

	failRegister bool
	failWithdraw bool
	failDeposit  bool

	registerCalls int
	withdrawCalls int
	depositCalls  int
	launchCalls   int
}

func newFakeAgent(code string) *fakeAgent {
	return &fakeAgent{code: code, balances: map[string]decimal.Decimal{}}
}

func (a *fakeAgent) username(userID uint) string {
	return fmt.Sprintf("%s-u%d", a.code, userID)
}

func (a *fakeAgent) Code() string { return a.code }

func (a *fakeAgent) Register(ctx context.Context, userID uint, phone string) (*agents.Credentials, error) {
	a.registerCalls++
	if a.failRegister {
		return nil, errors.New("upstream register down")
	}
	return &agents.Credentials{Username: a.username(userID)}, nil
}

func (a *fakeAgent) Balance(ctx context.Context, username string) (decimal.Decimal, error) {
	return a.balances[username], nil
}

func (a *fakeAgent) Deposit(ctx context.Context, username string, amount decimal.Decimal, refID string) error {
	if a.failDeposit {
		return errors.New("upstream deposit down")
	}
	a.depositCalls++
	a.balances[username] = a.balances[username].Add(amount)
	return nil
}

func (a *fakeAgent) Withdraw(ctx context.Context, username string, amount decimal.Decimal, refID string) error {
	if a.failWithdraw {
		return errors.New("upstream withdraw down")
	}
	if a.balances[username].LessThan(amount) {
		return agents.ErrRejected
	}
	a.withdrawCalls++
	a.balances[username] = a.balances[username].Sub(amount)
	return nil
}

func (a *fakeAgent) WithdrawAll(ctx context.Context, username string) (decimal.Decimal, error) {
	if a.failWithdraw {
		return decimal.Zero, errors.New("upstream withdraw down")
	}
	balance := a.balances[username]
	if !balance.IsPositive() {
		return decimal.Zero, nil
	}
	a.withdrawCalls++
	a.balances[username] = decimal.Zero
	return balance, nil
}

func (a *fakeAgent) LaunchGame(ctx context.Context, username, gameCode, providerCode, lang string) (string, error) {
	a.launchCalls++
	return fmt.Sprintf("https://%s.example/play/%s?u=%s", a.code, gameCode, username), nil
}

func (a *fakeAgent) CheckStatus(ctx context.Context) error { return nil }

func (a *fakeAgent) AgentBalance(ctx context.Context) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (a *fakeAgent) GameProviders(ctx context.Context) ([]agents.ProviderInfo, error) {
	return nil, nil
}

func (a *fakeAgent) Games(ctx context.Context, providerCode string) ([]agents.GameInfo, error) {
	return nil, nil
}

type fakeResolver struct {
	byID map[uint]agents.Agent
}

func (r *fakeResolver) AgentByID(id uint) (agents.Agent, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("no agent %d", id)
	}
	return a, nil
}

type acctKey struct{ userID, agentID uint }

type fakeStore struct {
	users    map[uint]*models.User
	games    map[uint]*models.Game
	accounts map[acctKey]*models.ExternalAccount
	mainCfg  *models.AgentConfig
	trxs     []*models.Transaction
	recons   []*models.Reconciliation
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[uint]*models.User{},
		games:    map[uint]*models.Game{},
		accounts: map[acctKey]*models.ExternalAccount{},
	}
}

func (s *fakeStore) UserByID(id uint) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) SaveUserBalance(user *models.User) error {
	s.users[user.ID].Balance = user.Balance
	return nil
}

func (s *fakeStore) SetLastActiveAgent(userID, agentID uint) error {
	id := agentID
	s.users[userID].LastActiveAgentID = &id
	return nil
}

func (s *fakeStore) GameByID(id uint) (*models.Game, error) {
	g, ok := s.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: game %d", ErrNotFound, id)
	}
	return g, nil
}

func (s *fakeStore) MainAgentConfig() (*models.AgentConfig, error) {
	if s.mainCfg == nil {
		return nil, fmt.Errorf("%w: main agent config", ErrNotFound)
	}
	return s.mainCfg, nil
}

func (s *fakeStore) Account(userID, agentID uint) (*models.ExternalAccount, error) {
	acct, ok := s.accounts[acctKey{userID, agentID}]
	if !ok {
		return nil, fmt.Errorf("%w: account user=%d agent=%d", ErrNotFound, userID, agentID)
	}
	return acct, nil
}

func (s *fakeStore) CreateAccount(acct *models.ExternalAccount) error {
	s.accounts[acctKey{acct.UserID, acct.AgentConfigID}] = acct
	return nil
}

func (s *fakeStore) CreateTransaction(trx *models.Transaction) error {
	s.trxs = append(s.trxs, trx)
	return nil
}

func (s *fakeStore) FinishTransaction(trx *models.Transaction, status string) error {
	return trx.Transition(status)
}

func (s *fakeStore) CreateReconciliation(rec *models.Reconciliation) error {
	s.recons = append(s.recons, rec)
	return nil
}

// swapFixture: user 1 active on agent 1 (source), game 10 routed to agent 2
// (target), accounts on both sides unless told otherwise.
type swapFixture struct {
	store  *fakeStore
	source *fakeAgent
	target *fakeAgent
	orch   *Orchestrator
}

func newSwapFixture(t *testing.T, withTargetAccount bool) *swapFixture {
	t.Helper()

	source := newFakeAgent("alpha")
	target := newFakeAgent("beta")

	store := newFakeStore()
	sourceID := uint(1)
	store.users[1] = &models.User{
		Phone:             "08123456789",
		LastActiveAgentID: &sourceID,
	}
	store.users[1].ID = 1

	targetID := uint(2)
	store.games[10] = &models.Game{
		Slug:          "gates-of-olympus",
		Provider:      models.Provider{Slug: "pragmatic"},
		AgentConfigID: &targetID,
	}

	store.accounts[acctKey{1, 1}] = &models.ExternalAccount{
		UserID: 1, AgentConfigID: 1, ExternalUsername: source.username(1),
	}
	if withTargetAccount {
		store.accounts[acctKey{1, 2}] = &models.ExternalAccount{
			UserID: 1, AgentConfigID: 2, ExternalUsername: target.username(1),
		}
	}

	resolver := &fakeResolver{byID: map[uint]agents.Agent{1: source, 2: target}}
	return &swapFixture{
		store:  store,
		source: source,
		target: target,
		orch:   NewOrchestrator(store, resolver),
	}
}

func TestLaunchSwapHappyPath(t *testing.T) {
	fx := newSwapFixture(t, true)
	fx.source.balances[fx.source.username(1)] = decimal.NewFromInt(500)

	url, err := fx.orch.LaunchGame(context.Background(), 1, 10, "en")
	if err != nil {
		t.Fatalf("LaunchGame: %v", err)
	}
	if url == "" {
		t.Fatal("empty launch url")
	}

	if got := fx.source.balances[fx.source.username(1)]; !got.IsZero() {
		t.Errorf("source balance = %s, want 0", got)
	}
	if got := fx.target.balances[fx.target.username(1)]; !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("target balance = %s, want 500", got)
	}
	if got := fx.store.users[1].LastActiveAgentID; got == nil || *got != 2 {
		t.Errorf("lastActiveAgentID = %v, want 2", got)
	}
	if len(fx.store.recons) != 0 {
		t.Errorf("happy path wrote %d reconciliations", len(fx.store.recons))
	}
}

func TestLaunchDepositFailureDoesNotBlock(t *testing.T) {
	fx := newSwapFixture(t, true)
	fx.source.balances[fx.source.username(1)] = decimal.NewFromInt(500)
	fx.target.failDeposit = true

	url, err := fx.orch.LaunchGame(context.Background(), 1, 10, "en")
	if err != nil {
		t.Fatalf("LaunchGame: %v", err)
	}
	if url == "" {
		t.Fatal("empty launch url after degraded swap")
	}

	if len(fx.store.recons) != 1 {
		t.Fatalf("got %d reconciliations, want 1", len(fx.store.recons))
	}
	rec := fx.store.recons[0]
	if rec.Status != models.ReconPending {
		t.Errorf("recon status = %s, want PENDING", rec.Status)
	}
	if !rec.Amount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("recon amount = %s, want 500", rec.Amount)
	}
	if rec.SourceAgentID != 1 || rec.TargetAgentID != 2 {
		t.Errorf("recon agents = %d -> %d, want 1 -> 2", rec.SourceAgentID, rec.TargetAgentID)
	}
	if rec.RefID == "" {
		t.Error("recon has no ref id")
	}
}

func TestLaunchWithdrawFailureSkipsSwap(t *testing.T) {
	fx := newSwapFixture(t, true)
	fx.source.balances[fx.source.username(1)] = decimal.NewFromInt(500)
	fx.source.failWithdraw = true

	url, err := fx.orch.LaunchGame(context.Background(), 1, 10, "en")
	if err != nil {
		t.Fatalf("LaunchGame: %v", err)
	}
	if url == "" {
		t.Fatal("empty launch url")
	}

	// Funds stay at the source, no deposit attempted, nothing to reconcile.
	if got := fx.source.balances[fx.source.username(1)]; !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("source balance = %s, want untouched 500", got)
	}
	if fx.target.depositCalls != 0 {
		t.Errorf("deposit attempted %d times after failed withdraw", fx.target.depositCalls)
	}
	if len(fx.store.recons) != 0 {
		t.Errorf("failed withdraw wrote %d reconciliations", len(fx.store.recons))
	}
	if got := fx.store.users[1].LastActiveAgentID; got == nil || *got != 2 {
		t.Errorf("lastActiveAgentID = %v, want 2 despite degraded swap", got)
	}
}

func TestLaunchNoSwapWhenAlreadyOnTarget(t *testing.T) {
	fx := newSwapFixture(t, true)
	targetID := uint(2)
	fx.store.users[1].LastActiveAgentID = &targetID
	fx.target.balances[fx.target.username(1)] = decimal.NewFromInt(300)

	url, err := fx.orch.LaunchGame(context.Background(), 1, 10, "en")
	if err != nil {
		t.Fatalf("LaunchGame: %v", err)
	}
	if url == "" {
		t.Fatal("empty launch url")
	}

	if fx.source.withdrawCalls != 0 || fx.target.depositCalls != 0 {
		t.Errorf("swap calls made on same-agent launch: withdraw=%d deposit=%d",
			fx.source.withdrawCalls, fx.target.depositCalls)
	}
	if fx.target.launchCalls != 1 {
		t.Errorf("launch calls = %d, want 1", fx.target.launchCalls)
	}
}

func TestLaunchRegistrationFailureIsFatal(t *testing.T) {
	fx := newSwapFixture(t, false)
	fx.target.failRegister = true

	if _, err := fx.orch.LaunchGame(context.Background(), 1, 10, "en"); err == nil {
		t.Fatal("launch succeeded without a target account")
	}
	if fx.target.launchCalls != 0 {
		t.Error("launch attempted after registration failure")
	}
}

func TestLaunchUnroutableGameIsFatal(t *testing.T) {
	fx := newSwapFixture(t, true)
	fx.store.games[11] = &models.Game{
		Slug:     "orphan",
		Provider: models.Provider{Slug: "nobody"},
	}

	if _, err := fx.orch.LaunchGame(context.Background(), 1, 11, "en"); err == nil {
		t.Fatal("launch succeeded with no routable agent")
	}
}

func TestRoutingPrecedence(t *testing.T) {
	gameAgent := uint(1)
	providerAgent := uint(2)

	store := newFakeStore()
	store.mainCfg = &models.AgentConfig{}
	store.mainCfg.ID = 3
	orch := NewOrchestrator(store, &fakeResolver{})

	t.Run("game override wins over provider default", func(t *testing.T) {
		game := &models.Game{
			AgentConfigID: &gameAgent,
			Provider:      models.Provider{DefaultAgentID: &providerAgent},
		}
		id, err := orch.resolveAgentID(game)
		if err != nil {
			t.Fatalf("resolveAgentID: %v", err)
		}
		if id != gameAgent {
			t.Errorf("agent = %d, want %d", id, gameAgent)
		}
	})

	t.Run("provider default when no game override", func(t *testing.T) {
		game := &models.Game{Provider: models.Provider{DefaultAgentID: &providerAgent}}
		id, err := orch.resolveAgentID(game)
		if err != nil {
			t.Fatalf("resolveAgentID: %v", err)
		}
		if id != providerAgent {
			t.Errorf("agent = %d, want %d", id, providerAgent)
		}
	})

	t.Run("main agent when neither set", func(t *testing.T) {
		game := &models.Game{Provider: models.Provider{}}
		id, err := orch.resolveAgentID(game)
		if err != nil {
			t.Fatalf("resolveAgentID: %v", err)
		}
		if id != 3 {
			t.Errorf("agent = %d, want main 3", id)
		}
	})
}

// Full first-contact scenario: money on alpha, game on beta, no beta account.
func TestLaunchFirstContactScenario(t *testing.T) {
	fx := newSwapFixture(t, false)
	fx.source.balances[fx.source.username(1)] = decimal.NewFromInt(1000)

	url, err := fx.orch.LaunchGame(context.Background(), 1, 10, "en")
	if err != nil {
		t.Fatalf("LaunchGame: %v", err)
	}
	if url == "" {
		t.Fatal("empty launch url")
	}

	if fx.target.registerCalls != 1 {
		t.Errorf("register calls = %d, want 1", fx.target.registerCalls)
	}
	acct, ok := fx.store.accounts[acctKey{1, 2}]
	if !ok {
		t.Fatal("no external account created on target")
	}
	if acct.ExternalUsername != fx.target.username(1) {
		t.Errorf("account username = %s", acct.ExternalUsername)
	}

	if fx.source.withdrawCalls != 1 {
		t.Errorf("withdraw calls = %d, want 1", fx.source.withdrawCalls)
	}
	if fx.target.depositCalls != 1 {
		t.Errorf("deposit calls = %d, want 1", fx.target.depositCalls)
	}
	if got := fx.target.balances[fx.target.username(1)]; !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("target balance = %s, want 1000", got)
	}
	if got := fx.store.users[1].LastActiveAgentID; got == nil || *got != 2 {
		t.Errorf("lastActiveAgentID = %v, want 2", got)
	}
}
