// Package oracle decides which strategy a syndicate plays next, given only
// the public abstract of the previous round.
package oracle

import (
	"context"
	"math/rand/v2"
	"sync"

	"launder/internal/game"
)

// Decider is the decision provider behind a syndicate.
type Decider interface {
	Decide(ctx context.Context, abstract string) (game.Strategy, error)
}

// Random picks uniformly among the strategies from a seeded source. It is
// the offline mode used when no model is configured.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *Random) Decide(context.Context, string) (game.Strategy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := game.Strategies()
	return all[r.rng.IntN(len(all))], nil
}

// Scripted replays a fixed list of raw answers, then repeats the last one.
// Answers go through ParseStrategy so malformed entries behave like a
// misbehaving model.
type Scripted struct {
	mu      sync.Mutex
	answers []string
	next    int
}

func NewScripted(answers ...string) *Scripted {
	return &Scripted{answers: answers}
}

func (s *Scripted) Decide(context.Context, string) (game.Strategy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.answers) == 0 {
		return game.SafestStrategy, nil
	}
	i := min(s.next, len(s.answers)-1)
	s.next++
	return game.ParseStrategy(s.answers[i])
}
