// Package client is the Ledger Gateway used by every agent: get-or-create,
// balance reads and transfers against the ledger service over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"launder/internal/ledger/models"
	dErrors "launder/pkg/domain-errors"
	"launder/pkg/platform/circuit"
	"launder/pkg/platform/httputil"
)

// Client talks to the ledger service. Safe for concurrent use.
type Client struct {
	baseURL      string
	http         *http.Client
	breaker      *circuit.Breaker
	logger       *slog.Logger
	awaitRetries int
	awaitDelay   time.Duration
	cooldown     time.Duration

	mu       sync.Mutex
	openedAt time.Time
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) {
		cl.breaker = b
	}
}

// WithCooldown sets how long an open breaker fails fast before probing again.
func WithCooldown(d time.Duration) Option {
	return func(cl *Client) {
		cl.cooldown = d
	}
}

// WithAwait bounds AwaitBalance polling.
func WithAwait(retries int, delay time.Duration) Option {
	return func(cl *Client) {
		cl.awaitRetries = retries
		cl.awaitDelay = delay
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("ledger base url is required")
	}
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         &http.Client{Timeout: 5 * time.Second},
		breaker:      circuit.New("ledger", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(1)),
		logger:       slog.Default(),
		awaitRetries: 5,
		awaitDelay:   time.Second,
		cooldown:     5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetOrCreateAccount provisions name, returning the same identity on every call.
func (c *Client) GetOrCreateAccount(ctx context.Context, name string) (*models.AccountResponse, error) {
	var out models.AccountResponse
	status, err := c.do(ctx, http.MethodPut, "/accounts/"+url.PathEscape(name), nil, &out)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeProvisionFailed, fmt.Sprintf("failed to provision account %s", name))
	}
	if status != http.StatusOK {
		return nil, dErrors.New(dErrors.CodeProvisionFailed, fmt.Sprintf("provision account %s: status %d", name, status))
	}
	return &out, nil
}

// GetBalance never reports zero for a failed read.
func (c *Client) GetBalance(ctx context.Context, id uuid.UUID) (*models.BalanceResponse, error) {
	var out models.BalanceResponse
	status, err := c.do(ctx, http.MethodGet, "/accounts/"+id.String()+"/balance", nil, &out)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return &out, nil
	case http.StatusNotFound:
		return nil, dErrors.New(dErrors.CodeNotFound, "ledger account not found")
	default:
		return nil, dErrors.New(dErrors.CodeLedgerUnavailable, fmt.Sprintf("balance read: status %d", status))
	}
}

// Transfer moves amount between named accounts. Zero is a no-op and is not sent.
func (c *Client) Transfer(ctx context.Context, from, to string, amount int64) error {
	if amount < 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must not be negative")
	}
	if amount == 0 {
		return nil
	}
	status, err := c.do(ctx, http.MethodPost, "/transfers", models.TransferRequest{From: from, To: to, Amount: amount}, nil)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusPaymentRequired:
		return dErrors.New(dErrors.CodeInsufficientFunds, fmt.Sprintf("insufficient funds in %s", from))
	default:
		return dErrors.New(dErrors.CodeTransferFailed, fmt.Sprintf("transfer %s -> %s: status %d", from, to, status))
	}
}

// Mint credits new units to an existing account.
func (c *Client) Mint(ctx context.Context, name string, amount int64) error {
	status, err := c.do(ctx, http.MethodPost, "/accounts/"+url.PathEscape(name)+"/mint", models.MintRequest{Amount: amount}, nil)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent {
		return dErrors.New(dErrors.CodeTransferFailed, fmt.Sprintf("mint %s: status %d", name, status))
	}
	return nil
}

// AwaitBalance polls until cond holds or the retry budget is spent. It is
// best-effort: the last observed balance is returned with ok=false when the
// condition never held, and err is only set when no read ever succeeded.
func (c *Client) AwaitBalance(ctx context.Context, id uuid.UUID, cond func(balance int64) bool) (last *models.BalanceResponse, ok bool, err error) {
	for attempt := 0; attempt <= c.awaitRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return last, false, firstErr(err, ctx.Err(), last)
			case <-time.After(c.awaitDelay):
			}
		}
		bal, readErr := c.GetBalance(ctx, id)
		if readErr != nil {
			err = readErr
			continue
		}
		last = bal
		if cond(bal.Balance) {
			return last, true, nil
		}
	}
	c.logger.WarnContext(ctx, "balance did not settle within retry budget", "account", id, "retries", c.awaitRetries)
	return last, false, firstErr(err, nil, last)
}

func firstErr(readErr, ctxErr error, last *models.BalanceResponse) error {
	if last != nil {
		return nil
	}
	if readErr != nil {
		return readErr
	}
	return ctxErr
}

// do performs one call. Transport failures and 5xx responses count against the breaker.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	if c.breaker.IsOpen() && !c.trialAllowed() {
		return 0, dErrors.New(dErrors.CodeLedgerUnavailable, "ledger circuit open")
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "encode ledger request")
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "build ledger request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.recordFailure(ctx)
		return 0, dErrors.Wrap(err, dErrors.CodeLedgerUnavailable, "ledger unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		c.recordFailure(ctx)
		var envelope httputil.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		return resp.StatusCode, dErrors.New(dErrors.CodeLedgerUnavailable,
			fmt.Sprintf("ledger error %d %s", resp.StatusCode, envelope.Error))
	}
	c.breaker.RecordSuccess()

	if out != nil && resp.StatusCode < http.StatusMultipleChoices {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, dErrors.Wrap(err, dErrors.CodeLedgerUnavailable, "decode ledger response")
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) recordFailure(ctx context.Context) {
	useFallback, change := c.breaker.RecordFailure()
	if useFallback {
		c.mu.Lock()
		c.openedAt = time.Now()
		c.mu.Unlock()
	}
	if change.Opened {
		c.logger.WarnContext(ctx, "ledger circuit opened", "breaker", c.breaker.Name())
	}
}

// trialAllowed lets calls through once the cooldown since the last failure has passed.
func (c *Client) trialAllowed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.openedAt) >= c.cooldown
}
