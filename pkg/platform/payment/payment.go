// Package payment implements the paid-call token exchange used between
// agents: requirements advertised in a 402 response, a signed payment token
// sent back in X-Payment, and a settlement receipt in X-Payment-Response.
package payment

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "launder/pkg/domain-errors"
)

const (
	HeaderPayment         = "X-Payment"
	HeaderPaymentResponse = "X-Payment-Response"

	SchemeExact = "exact"
	Version     = 1
)

// Requirement describes what a paid endpoint accepts.
type Requirement struct {
	Scheme            string `json:"scheme"`
	Network           string `json:"network"`
	PayTo             string `json:"pay_to"`
	MaxAmountRequired int64  `json:"max_amount_required"`
	Resource          string `json:"resource"`
	Description       string `json:"description,omitempty"`
}

// RequiredResponse is the body of a 402 response.
type RequiredResponse struct {
	Version int           `json:"x402_version"`
	Error   string        `json:"error"`
	Accepts []Requirement `json:"accepts"`
}

// Claims is the payload of a payment token.
type Claims struct {
	Payer    string `json:"payer"`
	PayTo    string `json:"pay_to"`
	Amount   int64  `json:"amount"`
	Network  string `json:"network"`
	Resource string `json:"resource"`
	jwt.RegisteredClaims
}

// Receipt is returned to the payer after settlement.
type Receipt struct {
	Success bool   `json:"success"`
	TokenID string `json:"token_id"`
	Payer   string `json:"payer"`
	PayTo   string `json:"pay_to"`
	Amount  int64  `json:"amount"`
	Network string `json:"network"`
}

// Signer issues payment tokens on behalf of one payer account.
type Signer struct {
	key    []byte
	issuer string
	payer  string
	ttl    time.Duration
}

func NewSigner(secret, issuer, payer string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("payment secret is required")
	}
	if payer == "" {
		return nil, fmt.Errorf("payer is required")
	}
	return &Signer{key: []byte(secret), issuer: issuer, payer: payer, ttl: ttl}, nil
}

// Sign pays the full amount the requirement asks for.
func (s *Signer) Sign(req Requirement, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Payer:    s.payer,
		PayTo:    req.PayTo,
		Amount:   req.MaxAmountRequired,
		Network:  req.Network,
		Resource: req.Resource,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.key)
}

// Verifier checks payment tokens against what an endpoint requires.
type Verifier struct {
	key []byte
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("payment secret is required")
	}
	return &Verifier{key: []byte(secret)}, nil
}

// Verify validates signature and expiry, then that the token pays req.
func (v *Verifier) Verify(tokenString string, req Requirement, now time.Time) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.key, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodePaymentRequired, "payment token has expired")
		}
		return nil, dErrors.New(dErrors.CodePaymentRequired, "invalid payment token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodePaymentRequired, "invalid payment token claims")
	}

	switch {
	case claims.ID == "":
		return nil, dErrors.New(dErrors.CodePaymentRequired, "payment token id is required")
	case claims.Payer == "":
		return nil, dErrors.New(dErrors.CodePaymentRequired, "payment token payer is required")
	case claims.Network != req.Network:
		return nil, dErrors.New(dErrors.CodePaymentRequired, "payment network mismatch")
	case claims.PayTo != req.PayTo:
		return nil, dErrors.New(dErrors.CodePaymentRequired, "payment recipient mismatch")
	case claims.Resource != req.Resource:
		return nil, dErrors.New(dErrors.CodePaymentRequired, "payment resource mismatch")
	case claims.Amount < req.MaxAmountRequired:
		return nil, dErrors.New(dErrors.CodePaymentRequired, "payment amount too low")
	}
	return claims, nil
}

// EncodeReceipt renders a receipt for the X-Payment-Response header.
func EncodeReceipt(r Receipt) (string, error) {
	buf, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// DecodeReceipt parses an X-Payment-Response header.
func DecodeReceipt(header string) (*Receipt, error) {
	buf, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	var r Receipt
	if err := json.Unmarshal(buf, &r); err != nil {
		return nil, fmt.Errorf("parse receipt: %w", err)
	}
	return &r, nil
}
