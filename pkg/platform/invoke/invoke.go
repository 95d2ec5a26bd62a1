// Package invoke calls agent entrypoints over HTTP. Requests and responses
// use the {"input": ...} / {"output": ...} envelope; a 402 answer is paid
// once with a signed token when the client holds a signer.
package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	dErrors "launder/pkg/domain-errors"
	"launder/pkg/platform/httputil"
	"launder/pkg/platform/payment"
)

const maxResponseBytes = 1 << 20

// Client is shared by every outbound agent call of a process.
type Client struct {
	http     *http.Client
	signer   *payment.Signer
	maxPrice int64
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.http = &http.Client{Timeout: d} }
}

// WithSigner enables paying for 402 responses up to maxPrice units.
// A maxPrice of zero means no limit.
func WithSigner(s *payment.Signer, maxPrice int64) Option {
	return func(cl *Client) {
		cl.signer = s
		cl.maxPrice = maxPrice
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.now = now }
}

func New(opts ...Option) *Client {
	c := &Client{
		http:   &http.Client{Timeout: 2 * time.Minute},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call posts input to url and decodes the output envelope into Out.
func Call[Out any](ctx context.Context, c *Client, url string, input any) (*Out, error) {
	body, err := json.Marshal(Request[any]{Input: input})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode input")
	}

	status, header, raw, err := c.post(ctx, url, body, "")
	if err != nil {
		return nil, err
	}

	if status == http.StatusPaymentRequired {
		token, err := c.pay(url, raw)
		if err != nil {
			return nil, err
		}
		status, header, raw, err = c.post(ctx, url, body, token)
		if err != nil {
			return nil, err
		}
		if status == http.StatusPaymentRequired {
			return nil, dErrors.New(dErrors.CodePaymentFailed, describe(url, status, raw))
		}
		if receipt, err := payment.DecodeReceipt(header.Get(payment.HeaderPaymentResponse)); err == nil {
			c.logger.DebugContext(ctx, "payment settled",
				"url", url,
				"token_id", receipt.TokenID,
				"amount", receipt.Amount,
			)
		}
	}

	if status < 200 || status > 299 {
		return nil, dErrors.New(dErrors.CodeRemoteCallFailed, describe(url, status, raw))
	}

	var out Response[Out]
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeRemoteCallFailed, fmt.Sprintf("malformed response from %s", url))
	}
	return &out.Output, nil
}

// Health reports whether the agent at baseURL answers GET /health with ok.
func (c *Client) Health(ctx context.Context, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build health request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, fmt.Sprintf("%s unreachable", baseURL))
	}
	defer resp.Body.Close()

	var health struct {
		OK bool `json:"ok"`
	}
	if resp.StatusCode != http.StatusOK || json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&health) != nil || !health.OK {
		return dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("%s not healthy (status %d)", baseURL, resp.StatusCode))
	}
	return nil
}

func (c *Client) post(ctx context.Context, url string, body []byte, token string) (int, http.Header, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(payment.HeaderPayment, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, nil, nil, dErrors.Wrap(err, dErrors.CodeTimeout, fmt.Sprintf("%s timed out", url))
		}
		return 0, nil, nil, dErrors.Wrap(err, dErrors.CodeRemoteCallFailed, fmt.Sprintf("%s unreachable", url))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, nil, dErrors.Wrap(err, dErrors.CodeRemoteCallFailed, "failed to read response")
	}
	return resp.StatusCode, resp.Header, raw, nil
}

func (c *Client) pay(url string, raw []byte) (string, error) {
	if c.signer == nil {
		return "", dErrors.New(dErrors.CodePaymentRequired, fmt.Sprintf("%s requires payment", url))
	}
	var required payment.RequiredResponse
	if err := json.Unmarshal(raw, &required); err != nil || len(required.Accepts) == 0 {
		return "", dErrors.New(dErrors.CodePaymentFailed, fmt.Sprintf("%s sent no payment requirements", url))
	}
	req := required.Accepts[0]
	if c.maxPrice > 0 && req.MaxAmountRequired > c.maxPrice {
		return "", dErrors.New(dErrors.CodePaymentFailed,
			fmt.Sprintf("price %d exceeds limit %d", req.MaxAmountRequired, c.maxPrice))
	}
	token, err := c.signer.Sign(req, c.now())
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodePaymentFailed, "failed to sign payment")
	}
	return token, nil
}

func describe(url string, status int, raw []byte) string {
	var errResp httputil.ErrorResponse
	if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
		if errResp.ErrorDescription != "" {
			return fmt.Sprintf("%s returned %d: %s: %s", url, status, errResp.Error, errResp.ErrorDescription)
		}
		return fmt.Sprintf("%s returned %d: %s", url, status, errResp.Error)
	}
	return fmt.Sprintf("%s returned %d", url, status)
}
