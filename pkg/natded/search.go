package natded

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

// Opt-in derivation tracing. Enable with NATDED_TRACE=1, EnableTrace, or
// per relation with WithTrace. Records are emitted at debug level on the
// relation's logger, so the logger's handler must accept debug records.

var traceEnabled atomic.Bool

func init() {
	if os.Getenv("NATDED_TRACE") == "1" {
		traceEnabled.Store(true)
	}
}

// EnableTrace turns on derivation tracing for every relation.
func EnableTrace() { traceEnabled.Store(true) }

// DisableTrace turns off process-wide derivation tracing. Relations created
// WithTrace(true) keep tracing.
func DisableTrace() { traceEnabled.Store(false) }

// derivation is one way of proving a goal: the resulting state and, when
// proofs are requested, the tree that produced it.
type derivation struct {
	state *State
	proof *Proof
}

// search is the state shared by one top-level derivation: the definition,
// the limits and the observers. It holds nothing that changes during the
// search.
type search struct {
	ctx        context.Context
	definition *Definition
	maxDepth   int
	proofs     bool
	trace      bool
	logger     *slog.Logger
}

func (s *search) derive(goal Expression, state *State, depth int) ([]derivation, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}
	if s.maxDepth > 0 && depth > s.maxDepth {
		return nil, fmt.Errorf("%w: %d levels at %q", ErrDepthExceeded, s.maxDepth, state.ValueOf(goal).String())
	}

	matches := s.definition.MatchRules(goal, state)
	s.tracef(depth, "goal", slog.String("goal", state.ValueOf(goal).String()), slog.Int("matches", len(matches)))

	var out []derivation
	for _, m := range matches {
		partial := []partialProof{{state: m.State}}
		for _, premise := range m.Premises {
			var next []partialProof
			for _, p := range partial {
				subs, err := s.derive(premise, p.state, depth+1)
				if err != nil {
					return nil, err
				}
				for _, sub := range subs {
					next = append(next, p.extend(sub, s.proofs))
				}
			}
			partial = next
			if len(partial) == 0 {
				break
			}
		}

		s.tracef(depth, "rule", slog.String("rule", m.Rule.Name()), slog.Int("derivations", len(partial)))
		for _, p := range partial {
			d := derivation{state: p.state}
			if s.proofs {
				d.proof = &Proof{Rule: m.Rule, Goal: goal, Premises: p.premises}
			}
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *search) tracef(depth int, msg string, attrs ...slog.Attr) {
	if !s.trace && !traceEnabled.Load() {
		return
	}
	logger := s.logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs = append(attrs, slog.Int("depth", depth))
	logger.LogAttrs(s.ctx, slog.LevelDebug, "natded trace: "+msg, attrs...)
}

// partialProof is a match whose premises have been proved up to some point.
type partialProof struct {
	state    *State
	premises []*Proof
}

func (p partialProof) extend(sub derivation, proofs bool) partialProof {
	next := partialProof{state: sub.state}
	if proofs {
		next.premises = make([]*Proof, len(p.premises), len(p.premises)+1)
		copy(next.premises, p.premises)
		next.premises = append(next.premises, sub.proof)
	}
	return next
}
