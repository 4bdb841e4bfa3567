// Package engine orchestrates rule invocations: parameter resolution,
// template rendering, shell dispatch, and result aggregation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rulerun/rulerun/internal/config"
	"github.com/rulerun/rulerun/internal/logger"
	"github.com/rulerun/rulerun/internal/model"
	"github.com/rulerun/rulerun/internal/rules"
	"github.com/rulerun/rulerun/internal/shell"
	"github.com/rulerun/rulerun/internal/template"
	runerrors "github.com/rulerun/rulerun/pkg/errors"
)

// Options tunes engine behaviour. The zero value runs rules sequentially,
// halting a RunAll sequence at the first failure.
type Options struct {
	Logger          *logger.Logger
	Shell           string
	WorkDir         string
	ContinueOnError bool
	Stdout          io.Writer
	Stderr          io.Writer
}

// Engine owns the configuration mapping and the rule set. The configuration
// is read-only for the engine's lifetime and safe to share across
// invocations.
type Engine struct {
	cfg  *config.Config
	rf   *rules.Rulefile
	opts Options
	log  *logger.Logger
}

// New constructs an Engine over a loaded configuration and rule set.
func New(cfg *config.Config, rf *rules.Rulefile, opts Options) *Engine {
	return &Engine{cfg: cfg, rf: rf, opts: opts, log: opts.Logger}
}

// Rules exposes the engine's rule set in declaration order.
func (e *Engine) Rules() []rules.Rule {
	if e.rf == nil {
		return nil
	}
	return e.rf.Rules
}

// Run executes a single rule invocation end to end. Structural faults
// (unknown rule, missing config key, unbound placeholder) abort before any
// process is spawned; a non-zero exit is recorded on the result and
// returned as an ExecutionError.
func (e *Engine) Run(ctx context.Context, name string) (model.RuleResult, error) {
	start := time.Now()
	inv := newInvocation(name)

	rule, ok := e.rf.Lookup(name)
	if !ok {
		err := runerrors.NewRuleDefinitionError(name, "rule not defined", nil)
		return e.fail(inv, start, err), err
	}

	log := e.log.WithFields(map[string]any{"rule": name})

	params, err := resolveParams(e.cfg, rule)
	if err != nil {
		return e.fail(inv, start, err), err
	}
	output, err := resolveOutput(e.cfg, rule)
	if err != nil {
		return e.fail(inv, start, err), err
	}
	threads, err := resolveThreads(e.cfg, rule)
	if err != nil {
		return e.fail(inv, start, err), err
	}
	if err := inv.to(model.StatusParamsResolved); err != nil {
		return e.fail(inv, start, err), err
	}

	rendered := make(map[string]string, len(params))
	for pname, value := range params {
		rendered[pname] = value.Render()
	}

	command, err := template.Render(rule.Shell, template.NewContext(output.Render(), rendered))
	if err != nil {
		var bindErr *runerrors.TemplateBindingError
		if errors.As(err, &bindErr) {
			err = runerrors.NewTemplateBindingError(name, bindErr.Placeholder)
		}
		return e.fail(inv, start, err), err
	}
	if err := inv.to(model.StatusRendered); err != nil {
		return e.fail(inv, start, err), err
	}

	log.WithFields(map[string]any{"threads": threads, "command": command}).Debug("dispatching rule")
	if err := inv.to(model.StatusDispatched); err != nil {
		return e.fail(inv, start, err), err
	}

	res, runErr := shell.Run(ctx, command, shell.Options{
		Shell:  e.opts.Shell,
		Dir:    e.opts.WorkDir,
		Stdout: e.opts.Stdout,
		Stderr: e.opts.Stderr,
	})

	result := model.RuleResult{
		Rule:      name,
		Command:   command,
		ExitCode:  res.ExitCode,
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	}

	if res.Canceled {
		_ = inv.to(model.StatusCanceled)
		result.Status = model.StatusCanceled
		result.Message = "invocation canceled"
		result.Error = runErr
		result.States = inv.states()
		log.Warn("rule canceled")
		return result, runErr
	}

	if runErr != nil {
		_ = inv.to(model.StatusFailed)
		result.Status = model.StatusFailed
		result.ExitCode = -1
		result.Message = runErr.Error()
		result.Error = runErr
		result.States = inv.states()
		err := runerrors.NewExecutionError(name, result.ExitCode, runErr)
		log.Error(runErr, "rule dispatch failed")
		return result, err
	}

	if res.ExitCode != 0 {
		_ = inv.to(model.StatusFailed)
		result.Status = model.StatusFailed
		result.Message = fmt.Sprintf("command exited with code %d", res.ExitCode)
		execErr := runerrors.NewExecutionError(name, res.ExitCode, nil)
		result.Error = execErr
		result.States = inv.states()
		log.WithFields(map[string]any{"exit_code": res.ExitCode}).Warn("rule failed")
		return result, execErr
	}

	_ = inv.to(model.StatusSucceeded)
	result.Status = model.StatusSucceeded
	result.Message = "command succeeded"
	result.States = inv.states()
	log.Info("rule succeeded")
	return result, nil
}

// RunAll executes the named rules in the given order, or every rule in
// declaration order when names is empty. Default policy halts at the first
// failure; ContinueOnError collects all results and reports the first
// error afterwards.
func (e *Engine) RunAll(ctx context.Context, names []string) ([]model.RuleResult, error) {
	if len(names) == 0 {
		names = e.rf.Names()
	}

	var results []model.RuleResult
	var firstErr error

	for _, name := range names {
		res, err := e.Run(ctx, name)
		results = append(results, res)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if !e.opts.ContinueOnError {
				return results, err
			}
		}
	}

	return results, firstErr
}

// fail finalizes a structural fault: the invocation moves to its terminal
// failed state and no process is spawned.
func (e *Engine) fail(inv *invocation, start time.Time, err error) model.RuleResult {
	_ = inv.to(model.StatusFailed)
	e.log.WithFields(map[string]any{"rule": inv.rule}).Error(err, "rule aborted")
	return model.RuleResult{
		Rule:      inv.rule,
		Status:    model.StatusFailed,
		Message:   err.Error(),
		Error:     err,
		States:    inv.states(),
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	}
}
