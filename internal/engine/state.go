package engine

import (
	"fmt"

	"github.com/rulerun/rulerun/internal/model"
)

// transitions is the legal state graph for a single rule invocation. Each
// invocation is single-pass: there is no retry edge and no re-entry.
var transitions = map[string][]string{
	model.StatusPending:        {model.StatusParamsResolved, model.StatusFailed},
	model.StatusParamsResolved: {model.StatusRendered, model.StatusFailed},
	model.StatusRendered:       {model.StatusDispatched, model.StatusFailed},
	model.StatusDispatched:     {model.StatusSucceeded, model.StatusFailed, model.StatusCanceled},
}

// invocation tracks one rule invocation through its lifecycle and records
// the states it passed through.
type invocation struct {
	rule  string
	state string
	trace []string
}

func newInvocation(rule string) *invocation {
	return &invocation{
		rule:  rule,
		state: model.StatusPending,
		trace: []string{model.StatusPending},
	}
}

func (inv *invocation) to(next string) error {
	for _, allowed := range transitions[inv.state] {
		if allowed == next {
			inv.state = next
			inv.trace = append(inv.trace, next)
			return nil
		}
	}
	return fmt.Errorf("invalid state transition %s -> %s for rule %s", inv.state, next, inv.rule)
}

func (inv *invocation) states() []string {
	out := make([]string, len(inv.trace))
	copy(out, inv.trace)
	return out
}
