package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulerun/rulerun/internal/config"
	runerrors "github.com/rulerun/rulerun/pkg/errors"
)

const sampleRulefile = `
rules:
  - name: hello_world
    output: config.output
    params:
      text: config.text
      times: config.times
    threads: config.threads
    shell: |
      for i in {{1..{params.times}}}; do
        echo "{params.text}"
        echo "{params.text}" >> "{output}"
      done

  - name: error
    shell: |
      exit 1
`

func TestParseRules(t *testing.T) {
	t.Parallel()

	rf, err := ParseRules([]byte(sampleRulefile))
	require.NoError(t, err)
	require.Len(t, rf.Rules, 2)

	hello := rf.Rules[0]
	assert.Equal(t, "hello_world", hello.Name)
	assert.Equal(t, ExprRef, hello.Output.Kind)
	assert.Equal(t, "output", hello.Output.Key)
	require.Len(t, hello.Params, 2)
	assert.Equal(t, "text", hello.Params[0].Name)
	assert.Equal(t, "times", hello.Params[1].Name)
	require.NotNil(t, hello.Threads)
	assert.Equal(t, "threads", hello.Threads.Key)
	assert.Contains(t, hello.Shell, "{{1..{params.times}}}")

	errRule := rf.Rules[1]
	assert.Equal(t, "error", errRule.Name)
	assert.Nil(t, errRule.Threads)
	assert.Empty(t, errRule.Params)

	assert.Equal(t, []string{"hello_world", "error"}, rf.Names())

	_, ok := rf.Lookup("hello_world")
	assert.True(t, ok)
	_, ok = rf.Lookup("nonexistent")
	assert.False(t, ok)
}

func TestParseRulesUnrecognizedField(t *testing.T) {
	t.Parallel()

	_, err := ParseRules([]byte(`
rules:
  - name: bad
    shell: "true"
    retries: 3
`))
	require.Error(t, err)

	var defErr *runerrors.RuleDefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Equal(t, "bad", defErr.Rule)
	assert.Contains(t, defErr.Message, "retries")
}

func TestParseRulesDuplicateName(t *testing.T) {
	t.Parallel()

	_, err := ParseRules([]byte(`
rules:
  - name: twice
    shell: "true"
  - name: twice
    shell: "false"
`))
	require.Error(t, err)

	var defErr *runerrors.RuleDefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Contains(t, defErr.Message, "duplicate")
}

func TestParseRulesDuplicateParam(t *testing.T) {
	t.Parallel()

	_, err := ParseRules([]byte(`
rules:
  - name: dup_params
    params:
      text: config.text
      text: config.other
    shell: "true"
`))
	require.Error(t, err)

	var defErr *runerrors.RuleDefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Contains(t, defErr.Message, "duplicate param")
}

func TestParseRulesMissingShell(t *testing.T) {
	t.Parallel()

	_, err := ParseRules([]byte(`
rules:
  - name: no_shell
    output: config.output
`))
	require.Error(t, err)

	var defErr *runerrors.RuleDefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Equal(t, "no_shell", defErr.Rule)
}

func TestParseRulesBadName(t *testing.T) {
	t.Parallel()

	_, err := ParseRules([]byte(`
rules:
  - name: "Bad Name"
    shell: "true"
`))
	require.Error(t, err)

	var defErr *runerrors.RuleDefinitionError
	require.ErrorAs(t, err, &defErr)
}

func TestParseExprForms(t *testing.T) {
	t.Parallel()

	rf, err := ParseRules([]byte(`
rules:
  - name: exprs
    output: "literal.txt"
    params:
      ref: config.samples.depth
      with_fallback: config.threads or 1
      literal_int: 4
      literal_bool: true
      quoted_config_like: "config dot nothing"
    shell: "true"
`))
	require.NoError(t, err)

	rule := rf.Rules[0]
	assert.Equal(t, ExprLiteral, rule.Output.Kind)
	assert.Equal(t, "literal.txt", rule.Output.Literal.Render())

	byName := map[string]Expr{}
	for _, p := range rule.Params {
		byName[p.Name] = p.Expr
	}

	ref := byName["ref"]
	assert.Equal(t, ExprRef, ref.Kind)
	assert.Equal(t, "samples.depth", ref.Key)
	assert.False(t, ref.HasFallback())

	fb := byName["with_fallback"]
	assert.Equal(t, ExprRef, fb.Kind)
	assert.Equal(t, "threads", fb.Key)
	require.True(t, fb.HasFallback())
	n, ok := fb.Fallback.AsInt()
	require.True(t, ok)
	assert.Equal(t, 1, n)

	assert.Equal(t, ExprLiteral, byName["literal_int"].Kind)
	assert.Equal(t, config.KindInt, byName["literal_int"].Literal.Kind())

	assert.Equal(t, ExprLiteral, byName["literal_bool"].Kind)
	assert.Equal(t, config.KindBool, byName["literal_bool"].Literal.Kind())

	assert.Equal(t, ExprLiteral, byName["quoted_config_like"].Kind)
}

func TestParseRulesRejectsMappingParam(t *testing.T) {
	t.Parallel()

	_, err := ParseRules([]byte(`
rules:
  - name: nested
    params:
      bad:
        inner: 1
    shell: "true"
`))
	require.Error(t, err)

	var defErr *runerrors.RuleDefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Contains(t, defErr.Message, "bad")
}

func TestParseRulesUnknownTopLevelKey(t *testing.T) {
	t.Parallel()

	_, err := ParseRules([]byte("tasks:\n  - name: x\n"))
	require.Error(t, err)
}
