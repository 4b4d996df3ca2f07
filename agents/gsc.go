package agents

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"playgate/helpers"

	"github.com/shopspring/decimal"
)

// CodeGSC is the form-POST legacy agent.
const CodeGSC = "gsc"

// GSC talks to a form-encoded REST upstream. Credentials ride in two headers
// on every call; deposits and withdrawals are both one signed transfer
// primitive with a signed amount.
type GSC struct {
	cfg    *configCache
	client *http.Client
}

func NewGSC(store ConfigStore) Agent {
	return &GSC{
		cfg:    newConfigCache(CodeGSC, store),
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *GSC) Code() string { return CodeGSC }

type gscResponse struct {
	Result    string          `json:"result"`
	ErrorCode int             `json:"error_code"`
	Message   string          `json:"message"`
	Balance   decimal.Decimal `json:"balance"`
	URL       string          `json:"url"`
	Username  string          `json:"username"`
	Password  string          `json:"password"`
	Providers []ProviderInfo  `json:"providers"`
	Games     []GameInfo      `json:"games"`
}

func (r *gscResponse) ok() bool {
	return r.Result == "success" || (r.Result == "" && r.ErrorCode == 0)
}

func (g *GSC) post(ctx context.Context, path string, form url.Values) (*gscResponse, error) {
	cfg, err := g.cfg.get()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(cfg.APIBaseURL, "/")+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Api-Key", cfg.APIKey)
	req.Header.Set("X-Api-Sign", gscSign(form, cfg.APISecret))

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gsc %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gsc %s: read body: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gsc %s: status %s", path, resp.Status)
	}

	var out gscResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("gsc %s: decode: %w", path, err)
	}
	return &out, nil
}

// gscSign is md5 over the sorted form encoding plus the shared secret.
func gscSign(form url.Values, secret string) string {
	sum := md5.Sum([]byte(form.Encode() + secret))
	return hex.EncodeToString(sum[:])
}

func (g *GSC) Register(ctx context.Context, userID uint, phone string) (*Credentials, error) {
	cfg, err := g.cfg.get()
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, candidate := range gscUsernameCandidates(cfg, phone) {
		form := url.Values{}
		form.Set("username", candidate)
		form.Set("phone", phone)

		resp, err := g.post(ctx, "/player/register", form)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.ok() {
			password := resp.Password
			name := resp.Username
			if name == "" {
				name = candidate
			}
			return &Credentials{Username: name, Password: password}, nil
		}
		// A duplicate means a previous registration (possibly partial on
		// our side) already created this variant. Reuse it.
		if gscIsDuplicate(resp) {
			return &Credentials{Username: candidate}, nil
		}
		lastErr = fmt.Errorf("gsc register %s: %w (%s)", candidate, ErrRejected, resp.Message)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("gsc register: %w", ErrRejected)
	}
	return nil, lastErr
}

func gscIsDuplicate(resp *gscResponse) bool {
	return resp.ErrorCode == 2001 ||
		strings.Contains(strings.ToLower(resp.Message), "already exist")
}

func (g *GSC) Balance(ctx context.Context, username string) (decimal.Decimal, error) {
	cfg, err := g.cfg.get()
	if err != nil {
		return decimal.Zero, err
	}

	form := url.Values{}
	form.Set("username", applyGSCPrefix(cfg, username))

	resp, err := g.post(ctx, "/player/balance", form)
	if err != nil {
		return decimal.Zero, err
	}
	if !resp.ok() {
		return decimal.Zero, fmt.Errorf("gsc balance: %w (%s)", ErrRejected, resp.Message)
	}
	return resp.Balance, nil
}

// transfer moves a signed amount: positive credits the player, negative
// debits. Everything money-moving on GSC goes through here.
func (g *GSC) transfer(ctx context.Context, username string, amount decimal.Decimal, refID string) error {
	cfg, err := g.cfg.get()
	if err != nil {
		return err
	}
	if refID == "" {
		refID = helpers.NewRefID()
	}

	form := url.Values{}
	form.Set("username", applyGSCPrefix(cfg, username))
	form.Set("amount", amount.StringFixed(2))
	form.Set("ref", refID)

	resp, err := g.post(ctx, "/fund/transfer", form)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return fmt.Errorf("gsc transfer %s %s: %w (%s)",
			username, amount.StringFixed(2), ErrRejected, resp.Message)
	}
	return nil
}

func (g *GSC) Deposit(ctx context.Context, username string, amount decimal.Decimal, refID string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("gsc deposit: non-positive amount %s", amount)
	}
	return g.transfer(ctx, username, amount, refID)
}

func (g *GSC) Withdraw(ctx context.Context, username string, amount decimal.Decimal, refID string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("gsc withdraw: non-positive amount %s", amount)
	}
	return g.transfer(ctx, username, amount.Neg(), refID)
}

func (g *GSC) WithdrawAll(ctx context.Context, username string) (decimal.Decimal, error) {
	balance, err := g.Balance(ctx, username)
	if err != nil {
		return decimal.Zero, err
	}
	if !balance.IsPositive() {
		return decimal.Zero, nil
	}
	if err := g.transfer(ctx, username, balance.Neg(), ""); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (g *GSC) LaunchGame(ctx context.Context, username, gameCode, providerCode, lang string) (string, error) {
	cfg, err := g.cfg.get()
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("username", applyGSCPrefix(cfg, username))
	form.Set("game", gameCode)
	form.Set("provider", providerCode)
	form.Set("lang", lang)

	resp, err := g.post(ctx, "/game/play", form)
	if err != nil {
		return "", err
	}
	if !resp.ok() || resp.URL == "" {
		return "", fmt.Errorf("gsc play %s/%s: %w (%s)", providerCode, gameCode, ErrRejected, resp.Message)
	}

	launchURL := resp.URL
	if cfg.GameEntrance != "" && strings.HasPrefix(launchURL, "/") {
		launchURL = strings.TrimRight(cfg.GameEntrance, "/") + launchURL
	}
	return launchURL, nil
}

func (g *GSC) CheckStatus(ctx context.Context) error {
	resp, err := g.post(ctx, "/ping", url.Values{})
	if err != nil {
		return err
	}
	if !resp.ok() {
		return fmt.Errorf("gsc ping: %w (%s)", ErrRejected, resp.Message)
	}
	return nil
}

func (g *GSC) AgentBalance(ctx context.Context) (decimal.Decimal, error) {
	resp, err := g.post(ctx, "/agent/balance", url.Values{})
	if err != nil {
		return decimal.Zero, err
	}
	if !resp.ok() {
		return decimal.Zero, fmt.Errorf("gsc agent balance: %w (%s)", ErrRejected, resp.Message)
	}
	return resp.Balance, nil
}

func (g *GSC) GameProviders(ctx context.Context) ([]ProviderInfo, error) {
	resp, err := g.post(ctx, "/catalog/providers", url.Values{})
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, fmt.Errorf("gsc providers: %w (%s)", ErrRejected, resp.Message)
	}
	return resp.Providers, nil
}

func (g *GSC) Games(ctx context.Context, providerCode string) ([]GameInfo, error) {
	form := url.Values{}
	form.Set("provider", providerCode)

	resp, err := g.post(ctx, "/catalog/games", form)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, fmt.Errorf("gsc games %s: %w (%s)", providerCode, ErrRejected, resp.Message)
	}
	return resp.Games, nil
}
