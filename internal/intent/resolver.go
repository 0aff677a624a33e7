// Package intent classifies caller turns through an ordered cascade of
// strategies: keypad digits, the language model, keyword tables, the service
// catalog, and finally a low-confidence default.
package intent

import (
	"context"
	"strings"

	"github.com/soyeahso/frontdesk/internal/catalog"
	"github.com/soyeahso/frontdesk/internal/domain"
	"github.com/soyeahso/frontdesk/internal/logging"
)

// Resolver runs strategies in order and stops at the first match.
type Resolver struct {
	strategies []Strategy
	catalog    *catalog.Catalog
	log        *logging.Logger

	// OnResult, if set, sees every strategy outcome in cascade order.
	OnResult func(strategy string, r Result)
}

// NewResolver builds a resolver over the given cascade. A Default step is
// appended when the cascade does not already end with one, so Resolve
// always yields an intent.
func NewResolver(cat *catalog.Catalog, log *logging.Logger, strategies ...Strategy) *Resolver {
	if len(strategies) == 0 || strategies[len(strategies)-1].Name() != (Default{}).Name() {
		strategies = append(strategies, Default{})
	}
	return &Resolver{strategies: strategies, catalog: cat, log: log.Sub("intent")}
}

// DefaultCascade is keypad, llm (when configured), keywords, services.
func DefaultCascade(cat *catalog.Catalog, model *LLM) []Strategy {
	out := []Strategy{Keypad{}}
	if model != nil && model.Client != nil {
		out = append(out, model)
	}
	return append(out, Keywords{}, Services{Catalog: cat})
}

// Strategies returns the cascade step names in order.
func (r *Resolver) Strategies() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return names
}

// Resolve classifies one turn. Entities are extracted from the raw input
// regardless of which strategy produced the label.
func (r *Resolver) Resolve(ctx context.Context, q Query) domain.Intent {
	var in domain.Intent
	for _, s := range r.strategies {
		res := s.Resolve(ctx, q)
		if r.OnResult != nil {
			r.OnResult(s.Name(), res)
		}
		if res.Err != nil {
			r.log.Debug().Str("strategy", s.Name()).Str("outcome", res.Outcome.String()).Err(res.Err).Msg("strategy fell through")
		}
		if res.Outcome == Matched {
			in = res.Intent
			break
		}
	}
	if in.Label == "" {
		in = Default{}.Resolve(ctx, q).Intent
	}

	in.Entities = merge(in.Entities, Extract(strings.TrimSpace(q.Utterance+" "+q.Digits)))
	if in.Entities.ServiceID == "" && r.catalog != nil {
		if svc, ok := r.catalog.Match(q.Utterance, q.Language); ok {
			in.Entities.ServiceID = svc.ID
		}
	}

	r.log.Debug().
		Str("state", string(q.State)).
		Str("label", string(in.Label)).
		Str("source", in.Source).
		Float64("confidence", in.Confidence).
		Msg("intent resolved")
	return in
}

// merge keeps fields the strategy already set and fills the rest.
func merge(have, found domain.Entities) domain.Entities {
	if have.Phone == "" {
		have.Phone = found.Phone
	}
	if have.Date == "" {
		have.Date = found.Date
	}
	if have.OrderNumber == "" {
		have.OrderNumber = found.OrderNumber
	}
	if have.ServiceID == "" {
		have.ServiceID = found.ServiceID
	}
	if have.Language == "" {
		have.Language = found.Language
	}
	return have
}
