package narrator

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"launder/internal/laundromat/models"
	"launder/internal/platform/llm"
)

type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, temperature float64) (string, error)
}

const systemPrompt = `You are the crime reporter of a city newspaper.
Write a short news abstract (two or three sentences) about yesterday's money laundering activity.
Never mention numbers, amounts or totals. Only describe the mood and the level of police attention.`

// LLM narrates through a chat model and falls back to Scripted when the
// model fails or mentions numbers.
type LLM struct {
	completer Completer
	fallback  Scripted
	logger    *slog.Logger
}

func NewLLM(completer Completer, logger *slog.Logger) *LLM {
	return &LLM{completer: completer, logger: logger}
}

func (n *LLM) Narrate(ctx context.Context, day int, records []models.Record) (string, error) {
	if len(records) == 0 {
		return n.fallback.Narrate(ctx, day, records)
	}

	text, err := n.completer.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: facts(records)},
	}, 0.8)
	if err != nil {
		n.logger.WarnContext(ctx, "narration model failed, using scripted abstract", "error", err)
		return n.fallback.Narrate(ctx, day, records)
	}
	if text == "" || mentionsNumbers(text, records) {
		n.logger.WarnContext(ctx, "narration rejected, using scripted abstract", "day", day)
		return n.fallback.Narrate(ctx, day, records)
	}
	return text, nil
}

// mentionsNumbers reports digits in text once the syndicate and boss names
// the model was given are removed; names such as Syndicate3 are allowed.
func mentionsNumbers(text string, records []models.Record) bool {
	names := make([]string, 0, 2*len(records))
	for _, r := range records {
		names = append(names, r.Syndicate, r.BossName)
	}
	// Longest first so Syndicate12 is not cut down to a stray 2 by Syndicate1.
	slices.SortFunc(names, func(a, b string) int { return len(b) - len(a) })
	for _, name := range names {
		if name != "" {
			text = strings.ReplaceAll(text, name, "")
		}
	}
	return strings.ContainsFunc(text, unicode.IsDigit)
}

func facts(records []models.Record) string {
	var b strings.Builder
	b.WriteString("Yesterday:\n")
	for _, r := range records {
		switch {
		case r.Busted:
			fmt.Fprintf(&b, "- %s (boss %s) was caught laundering.\n", r.Syndicate, r.BossName)
		case r.Taxed:
			fmt.Fprintf(&b, "- %s paid its taxes.\n", r.Syndicate)
		default:
			fmt.Fprintf(&b, "- %s laundered with a %s approach and got away with it.\n", r.Syndicate, r.Strategy)
		}
	}
	return b.String()
}
