package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"playgate/helpers"

	"github.com/shopspring/decimal"
)

// CodeGold is the JSON-RPC-style aggregator agent.
const CodeGold = "gold"

// Gold posts every call to one gateway endpoint as a JSON body carrying a
// method discriminator plus the agent_code/agent_token pair from config.
// status 1 is success, anything else failure. No low-level retries here.
type Gold struct {
	cfg    *configCache
	client *http.Client
}

func NewGold(store ConfigStore) Agent {
	return &Gold{
		cfg:    newConfigCache(CodeGold, store),
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *Gold) Code() string { return CodeGold }

type goldResponse struct {
	Status       int             `json:"status"`
	Msg          string          `json:"msg"`
	Balance      decimal.Decimal `json:"user_balance"`
	AgentBalance decimal.Decimal `json:"agent_balance"`
	LaunchURL    string          `json:"launch_url"`
	UserCode     string          `json:"user_code"`
	Providers    []ProviderInfo  `json:"providers"`
	Games        []GameInfo      `json:"games"`
}

func (g *Gold) call(ctx context.Context, method string, params map[string]any) (*goldResponse, error) {
	cfg, err := g.cfg.get()
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"method":      method,
		"agent_code":  cfg.APIKey,
		"agent_token": cfg.APISecret,
	}
	for k, v := range params {
		payload[k] = v
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gold %s: marshal: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(cfg.APIBaseURL, "/")+"/api/v2/gateway",
		bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gold %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gold %s: read body: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gold %s: status %s", method, resp.Status)
	}

	var out goldResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("gold %s: decode: %w", method, err)
	}
	return &out, nil
}

func (g *Gold) Register(ctx context.Context, userID uint, phone string) (*Credentials, error) {
	userCode := goldUserCode(userID)

	resp, err := g.call(ctx, "user_create", map[string]any{"user_code": userCode})
	if err != nil {
		return nil, err
	}
	if resp.Status != 1 {
		if goldIsDuplicate(resp) {
			return &Credentials{Username: userCode}, nil
		}
		return nil, fmt.Errorf("gold user_create %s: %w (%s)", userCode, ErrRejected, resp.Msg)
	}

	name := resp.UserCode
	if name == "" {
		name = userCode
	}
	return &Credentials{Username: name}, nil
}

// goldUserCode derives the upstream user code from our numeric id. Gold does
// not key accounts by phone number.
func goldUserCode(userID uint) string {
	return fmt.Sprintf("pg%06d", userID)
}

func goldIsDuplicate(resp *goldResponse) bool {
	return strings.Contains(strings.ToLower(resp.Msg), "duplicate") ||
		strings.Contains(strings.ToLower(resp.Msg), "already exist")
}

func (g *Gold) Balance(ctx context.Context, username string) (decimal.Decimal, error) {
	resp, err := g.call(ctx, "user_balance", map[string]any{"user_code": username})
	if err != nil {
		return decimal.Zero, err
	}
	if resp.Status != 1 {
		return decimal.Zero, fmt.Errorf("gold user_balance %s: %w (%s)", username, ErrRejected, resp.Msg)
	}
	return resp.Balance, nil
}

func (g *Gold) Deposit(ctx context.Context, username string, amount decimal.Decimal, refID string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("gold deposit: non-positive amount %s", amount)
	}
	if refID == "" {
		refID = helpers.NewRefID()
	}

	resp, err := g.call(ctx, "transfer_in", map[string]any{
		"user_code": username,
		"amount":    amount.StringFixed(2),
		"ref_id":    refID,
	})
	if err != nil {
		return err
	}
	if resp.Status != 1 {
		return fmt.Errorf("gold transfer_in %s %s: %w (%s)", username, amount.StringFixed(2), ErrRejected, resp.Msg)
	}
	return nil
}

func (g *Gold) Withdraw(ctx context.Context, username string, amount decimal.Decimal, refID string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("gold withdraw: non-positive amount %s", amount)
	}
	if refID == "" {
		refID = helpers.NewRefID()
	}

	resp, err := g.call(ctx, "transfer_out", map[string]any{
		"user_code": username,
		"amount":    amount.StringFixed(2),
		"ref_id":    refID,
	})
	if err != nil {
		return err
	}
	if resp.Status != 1 {
		return fmt.Errorf("gold transfer_out %s %s: %w (%s)", username, amount.StringFixed(2), ErrRejected, resp.Msg)
	}
	return nil
}

func (g *Gold) WithdrawAll(ctx context.Context, username string) (decimal.Decimal, error) {
	balance, err := g.Balance(ctx, username)
	if err != nil {
		return decimal.Zero, err
	}
	if !balance.IsPositive() {
		return decimal.Zero, nil
	}
	if err := g.Withdraw(ctx, username, balance, ""); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (g *Gold) LaunchGame(ctx context.Context, username, gameCode, providerCode, lang string) (string, error) {
	resp, err := g.call(ctx, "game_launch", map[string]any{
		"user_code":     username,
		"game_code":     gameCode,
		"provider_code": providerCode,
		"lang":          lang,
	})
	if err != nil {
		return "", err
	}
	if resp.Status != 1 || resp.LaunchURL == "" {
		return "", fmt.Errorf("gold game_launch %s/%s: %w (%s)", providerCode, gameCode, ErrRejected, resp.Msg)
	}
	return resp.LaunchURL, nil
}

func (g *Gold) CheckStatus(ctx context.Context) error {
	resp, err := g.call(ctx, "ping", nil)
	if err != nil {
		return err
	}
	if resp.Status != 1 {
		return fmt.Errorf("gold ping: %w (%s)", ErrRejected, resp.Msg)
	}
	return nil
}

func (g *Gold) AgentBalance(ctx context.Context) (decimal.Decimal, error) {
	resp, err := g.call(ctx, "agent_balance", nil)
	if err != nil {
		return decimal.Zero, err
	}
	if resp.Status != 1 {
		return decimal.Zero, fmt.Errorf("gold agent_balance: %w (%s)", ErrRejected, resp.Msg)
	}
	return resp.AgentBalance, nil
}

func (g *Gold) GameProviders(ctx context.Context) ([]ProviderInfo, error) {
	resp, err := g.call(ctx, "provider_list", nil)
	if err != nil {
		return nil, err
	}
	if resp.Status != 1 {
		return nil, fmt.Errorf("gold provider_list: %w (%s)", ErrRejected, resp.Msg)
	}
	return resp.Providers, nil
}

func (g *Gold) Games(ctx context.Context, providerCode string) ([]GameInfo, error) {
	resp, err := g.call(ctx, "game_list", map[string]any{"provider_code": providerCode})
	if err != nil {
		return nil, err
	}
	if resp.Status != 1 {
		return nil, fmt.Errorf("gold game_list %s: %w (%s)", providerCode, ErrRejected, resp.Msg)
	}
	return resp.Games, nil
}
