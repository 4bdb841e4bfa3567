package rules

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rulerun/rulerun/internal/config"
	runerrors "github.com/rulerun/rulerun/pkg/errors"
)

// refPattern matches "config.<dotted.path>" with an optional "or <literal>"
// fallback clause.
var refPattern = regexp.MustCompile(`^config\.([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)(?:\s+or\s+(\S.*))?$`)

var recognizedFields = map[string]struct{}{
	"name":    {},
	"output":  {},
	"params":  {},
	"threads": {},
	"shell":   {},
}

// ParseRulefile loads and validates a rule declaration file from disk.
func ParseRulefile(path string) (*Rulefile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, runerrors.NewParseError(path, 0, err)
	}

	rf, err := ParseRules(data)
	if err != nil {
		if _, ok := err.(*runerrors.RuleDefinitionError); ok {
			return nil, err
		}
		return nil, runerrors.NewParseError(path, 0, err)
	}

	return rf, nil
}

// ParseRules parses YAML rule declarations and validates them.
func ParseRules(data []byte) (*Rulefile, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("rulefile is empty")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("rulefile root must be a mapping")
	}

	var rulesNode *yaml.Node
	for i := 0; i < len(root.Content); i += 2 {
		key := root.Content[i]
		switch key.Value {
		case "rules":
			rulesNode = root.Content[i+1]
		default:
			return nil, fmt.Errorf("unexpected top-level key %q", key.Value)
		}
	}

	if rulesNode == nil {
		return nil, fmt.Errorf("rulefile declares no rules")
	}
	if rulesNode.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("rules must be a sequence")
	}

	rf := &Rulefile{Rules: make([]Rule, 0, len(rulesNode.Content))}
	seen := make(map[string]struct{}, len(rulesNode.Content))

	for _, node := range rulesNode.Content {
		rule, err := parseRule(node)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[rule.Name]; dup {
			return nil, runerrors.NewRuleDefinitionError(rule.Name, "duplicate rule name", nil)
		}
		seen[rule.Name] = struct{}{}
		rf.Rules = append(rf.Rules, rule)
	}

	if err := ValidateRulefile(rf); err != nil {
		return nil, err
	}

	return rf, nil
}

func parseRule(node *yaml.Node) (Rule, error) {
	if node.Kind != yaml.MappingNode {
		return Rule{}, runerrors.NewRuleDefinitionError("", fmt.Sprintf("rule must be a mapping (line %d)", node.Line), nil)
	}

	// Name first so later faults can cite the rule.
	name := ""
	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value == "name" {
			name = strings.TrimSpace(node.Content[i+1].Value)
		}
	}

	rule := Rule{Name: name}

	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i]
		value := node.Content[i+1]

		if _, ok := recognizedFields[key.Value]; !ok {
			return Rule{}, runerrors.NewRuleDefinitionError(name, fmt.Sprintf("unrecognized field %q", key.Value), nil)
		}

		switch key.Value {
		case "name":
			// Already captured.
		case "output":
			expr, err := parseExpr(value)
			if err != nil {
				return Rule{}, runerrors.NewRuleDefinitionError(name, fmt.Sprintf("output: %v", err), err)
			}
			rule.Output = expr
		case "params":
			params, err := parseParams(name, value)
			if err != nil {
				return Rule{}, err
			}
			rule.Params = params
		case "threads":
			expr, err := parseExpr(value)
			if err != nil {
				return Rule{}, runerrors.NewRuleDefinitionError(name, fmt.Sprintf("threads: %v", err), err)
			}
			rule.Threads = &expr
		case "shell":
			if value.Kind != yaml.ScalarNode {
				return Rule{}, runerrors.NewRuleDefinitionError(name, "shell must be a string", nil)
			}
			rule.Shell = value.Value
		}
	}

	return rule, nil
}

func parseParams(rule string, node *yaml.Node) ([]Param, error) {
	if node.Kind != yaml.MappingNode {
		return nil, runerrors.NewRuleDefinitionError(rule, "params must be a mapping", nil)
	}

	params := make([]Param, 0, len(node.Content)/2)
	seen := make(map[string]struct{}, len(node.Content)/2)

	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i]
		if _, dup := seen[key.Value]; dup {
			return nil, runerrors.NewRuleDefinitionError(rule, fmt.Sprintf("duplicate param %q", key.Value), nil)
		}
		seen[key.Value] = struct{}{}

		expr, err := parseExpr(node.Content[i+1])
		if err != nil {
			return nil, runerrors.NewRuleDefinitionError(rule, fmt.Sprintf("param %q: %v", key.Value, err), err)
		}
		params = append(params, Param{Name: key.Value, Expr: expr})
	}

	return params, nil
}

func parseExpr(node *yaml.Node) (Expr, error) {
	if node.Kind != yaml.ScalarNode {
		return Expr{}, fmt.Errorf("expression must be a scalar")
	}

	if node.Tag == "!!str" {
		if match := refPattern.FindStringSubmatch(node.Value); match != nil {
			expr := Expr{Raw: node.Value, Kind: ExprRef, Key: match[1]}
			if match[2] != "" {
				fallback, err := parseScalarLiteral(match[2])
				if err != nil {
					return Expr{}, fmt.Errorf("fallback %q: %w", match[2], err)
				}
				expr.Fallback = &fallback
			}
			return expr, nil
		}
	}

	var raw any
	if err := node.Decode(&raw); err != nil {
		return Expr{}, err
	}
	literal, err := config.FromAny(raw)
	if err != nil {
		return Expr{}, err
	}
	if !literal.IsScalar() && !literal.IsNull() {
		return Expr{}, fmt.Errorf("literal must be a scalar")
	}

	return Expr{Raw: node.Value, Kind: ExprLiteral, Literal: literal}, nil
}

func parseScalarLiteral(text string) (config.Value, error) {
	var raw any
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return config.Value{}, err
	}
	value, err := config.FromAny(raw)
	if err != nil {
		return config.Value{}, err
	}
	if !value.IsScalar() && !value.IsNull() {
		return config.Value{}, fmt.Errorf("must be a scalar")
	}
	return value, nil
}
