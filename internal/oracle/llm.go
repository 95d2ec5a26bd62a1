package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"launder/internal/game"
	"launder/internal/platform/llm"
	dErrors "launder/pkg/domain-errors"
)

type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, temperature float64) (string, error)
}

const systemPrompt = `You will be provided with the following fields: Abstract.
Your task is to generate new fields: Strategy.

## Context
You run a criminal organization (%s, led by %s) and need to launder money.
You hold DIRTY CASH and must turn it into CLEAN CASH.
Many syndicates launder at the same time and the authorities watch the sum of all laundering each day.
Launder too much (aggressive) and you may draw attention and go to jail.
Launder too little (conservative) and you will be left with dirty money at the end.
Moderate is a middle ground. You can also pay taxes (play_nice) and keep less money, but safely.
The syndicate with the most CLEAN CASH that is not in jail wins.

## Output Fields
Strategy: one of %s

## Strict Output Formatting Rules
- Output only the Strategy field and its value, nothing before or after.
- Do not use code blocks.`

// LLM asks a chat model for the strategy. The conversation is kept per
// agent so the model remembers its earlier choices.
type LLM struct {
	completer   Completer
	maxAttempts int
	logger      *slog.Logger

	mu      sync.Mutex
	history []llm.Message
}

type Option func(*LLM)

func WithMaxAttempts(n int) Option {
	return func(l *LLM) {
		if n > 0 {
			l.maxAttempts = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *LLM) { l.logger = logger }
}

func NewLLM(completer Completer, syndicate, boss string, opts ...Option) *LLM {
	names := make([]string, 0, len(game.Strategies()))
	for _, s := range game.Strategies() {
		names = append(names, string(s))
	}
	l := &LLM{
		completer:   completer,
		maxAttempts: 3,
		logger:      slog.Default(),
		history: []llm.Message{{
			Role:    llm.RoleSystem,
			Content: fmt.Sprintf(systemPrompt, syndicate, boss, strings.Join(names, ", ")),
		}},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Decide returns CodeOracleInvalidOutput when no attempt yields a known
// strategy. Transport errors are returned as they are.
func (l *LLM) Decide(ctx context.Context, abstract string) (game.Strategy, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prompt := llm.Message{Role: llm.RoleUser, Content: "## This is the last day Abstract:\n" + abstract}
	messages := append(append([]llm.Message{}, l.history...), prompt)

	var last string
	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		reply, err := l.completer.Complete(ctx, messages, 0.7)
		if err != nil {
			return "", err
		}
		strategy, err := game.ParseStrategy(reply)
		if err == nil {
			l.history = append(l.history, prompt, llm.Message{Role: llm.RoleAssistant, Content: reply})
			return strategy, nil
		}
		last = reply
		l.logger.WarnContext(ctx, "oracle answered outside the strategy set",
			"attempt", attempt,
			"reply", reply,
		)
	}
	return "", dErrors.New(dErrors.CodeOracleInvalidOutput,
		fmt.Sprintf("no valid strategy after %d attempts (last reply %q)", l.maxAttempts, last))
}
