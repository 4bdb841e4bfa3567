package engine

import (
	"github.com/rulerun/rulerun/internal/config"
	"github.com/rulerun/rulerun/internal/rules"
	runerrors "github.com/rulerun/rulerun/pkg/errors"
)

// resolveParams evaluates every parameter expression of a rule against the
// configuration. The result holds exactly the declared parameter names,
// each bound to a scalar. Resolution never mutates the configuration or
// the rule.
func resolveParams(cfg *config.Config, rule rules.Rule) (map[string]config.Value, error) {
	resolved := make(map[string]config.Value, len(rule.Params))
	for _, param := range rule.Params {
		value, err := evalExpr(cfg, rule.Name, param.Expr)
		if err != nil {
			return nil, err
		}
		resolved[param.Name] = value
	}
	return resolved, nil
}

// resolveOutput evaluates the rule's output expression.
func resolveOutput(cfg *config.Config, rule rules.Rule) (config.Value, error) {
	return evalExpr(cfg, rule.Name, rule.Output)
}

// resolveThreads evaluates the concurrency hint. An absent or falsy value
// defaults to 1; anything truthy must be a positive integer.
func resolveThreads(cfg *config.Config, rule rules.Rule) (int, error) {
	if rule.Threads == nil {
		return 1, nil
	}

	expr := *rule.Threads
	var value config.Value

	switch expr.Kind {
	case rules.ExprRef:
		found, ok := cfg.Lookup(expr.Key)
		switch {
		case ok && found.Truthy():
			value = found
		case expr.HasFallback():
			value = *expr.Fallback
		default:
			return 1, nil
		}
	default:
		value = expr.Literal
	}

	if !value.Truthy() {
		return 1, nil
	}

	n, ok := value.AsInt()
	if !ok || n < 1 {
		return 0, runerrors.NewRuleDefinitionError(rule.Name, "threads must resolve to a positive integer", nil)
	}
	return n, nil
}

// evalExpr evaluates one expression. A reference to a missing key without a
// fallback is a ConfigKeyError; a reference resolving to a nested mapping
// cannot bind a scalar and is equally faulted.
func evalExpr(cfg *config.Config, rule string, expr rules.Expr) (config.Value, error) {
	switch expr.Kind {
	case rules.ExprRef:
		value, ok := cfg.Lookup(expr.Key)
		if expr.HasFallback() {
			if !ok || !value.Truthy() {
				return *expr.Fallback, nil
			}
		} else if !ok {
			return config.Value{}, runerrors.NewConfigKeyError(rule, expr.Key, "")
		}
		if value.Kind() == config.KindMap {
			return config.Value{}, runerrors.NewConfigKeyError(rule, expr.Key, "key resolves to a mapping, expected a scalar")
		}
		return value, nil
	default:
		return expr.Literal, nil
	}
}
